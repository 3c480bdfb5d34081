package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current balance, tasks, and server state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.engine.Snapshot(cmd.Context())

	fmt.Printf("Balance:  %d points (%d earned, %d spent lifetime)\n",
		snap.Balance, snap.LifetimeEarned, snap.LifetimeSpent)
	fmt.Printf("Today:    %d points earned (%s)\n", snap.Daily.Earned, snap.Daily.UTCDate)
	fmt.Printf("Session:  %d points, %.0f%% toward the next deployment\n",
		snap.SessionEarned, snap.Progress.Ratio*100)
	fmt.Printf("Server:   %s\n", describeLease(snap.Lease))

	fmt.Println("\nTasks:")
	for _, task := range snap.Tasks {
		fmt.Printf("  %-7s %-24s %+4d  %s\n",
			task.Type, task.Label, task.Reward, describeAvailability(task))
	}

	if len(snap.Activity) > 0 {
		fmt.Println("\nRecent activity:")
		for _, entry := range snap.Activity {
			fmt.Printf("  %s  %+4d  %s\n",
				entry.At.Local().Format("2006-01-02 15:04:05"), entry.Delta, entry.Label)
		}
	}
	return nil
}

func describeLease(lease domain.Lease) string {
	switch lease.Status {
	case domain.LeaseProvisioning:
		return fmt.Sprintf("provisioning (%s)", lease.ID)
	case domain.LeaseRunning:
		return fmt.Sprintf("running, %s remaining", formatSeconds(lease.TimeLeftSec))
	default:
		if lease.TimeLeftSec > 0 {
			return fmt.Sprintf("stopped, %s banked", formatSeconds(lease.TimeLeftSec))
		}
		return "none deployed"
	}
}

func describeAvailability(task domain.TaskAvailability) string {
	if task.Available {
		return "ready"
	}
	switch task.Reason {
	case domain.ReasonOnCooldown:
		return fmt.Sprintf("cooldown %s", formatSeconds(task.RemainingSec))
	case domain.ReasonClaimedToday:
		return "claimed today"
	default:
		return "unavailable"
	}
}

func formatSeconds(sec int64) string {
	return (time.Duration(sec) * time.Second).String()
}
