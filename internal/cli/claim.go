package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bodoithienha2026/WebRDP/internal/domain"
)

var claimCmd = &cobra.Command{
	Use:   "claim TASK",
	Short: "Claim a task reward (video, short, or daily)",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaim,
}

func runClaim(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	taskType := domain.TaskType(args[0])
	ctx := cmd.Context()

	// Same latency the panel sees.
	if err := a.delay.Wait(ctx); err != nil {
		return err
	}

	reward, err := a.engine.ClaimTask(ctx, taskType)
	if err != nil {
		return err
	}

	snap := a.engine.Snapshot(ctx)
	fmt.Printf("+%d points (balance %d)\n", reward, snap.Balance)
	return nil
}
