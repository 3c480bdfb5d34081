package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vpsCmd = &cobra.Command{
	Use:   "vps",
	Short: "Manage the simulated server lease",
}

var vpsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Deploy a server, spending points",
	RunE:  runVPSCreate,
}

var vpsStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server, keeping remaining time",
	RunE:  runVPSStop,
}

var vpsExtendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Buy more server time",
	RunE:  runVPSExtend,
}

var vpsStopYes bool

func init() {
	vpsStopCmd.Flags().BoolVar(&vpsStopYes, "yes", false, "skip the confirmation prompt")

	vpsCmd.AddCommand(vpsCreateCmd)
	vpsCmd.AddCommand(vpsStopCmd)
	vpsCmd.AddCommand(vpsExtendCmd)
}

func runVPSCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.engine.CreateLease(ctx); err != nil {
		return err
	}

	snap := a.engine.Snapshot(ctx)
	fmt.Printf("Provisioning server %s...\n", snap.Lease.ID)

	// Without a daemon running there is no background provisioner, so
	// the command finishes the deployment itself after the delay.
	if err := a.delay.Wait(ctx); err != nil {
		return err
	}
	if err := a.engine.CompleteProvisioning(ctx); err != nil {
		return err
	}

	snap = a.engine.Snapshot(ctx)
	fmt.Printf("Server running, %s remaining (balance %d)\n",
		formatSeconds(snap.Lease.TimeLeftSec), snap.Balance)
	return nil
}

func runVPSStop(cmd *cobra.Command, args []string) error {
	if !vpsStopYes && !confirm("Stop the server? Remaining time is kept.") {
		fmt.Println("Aborted.")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.engine.StopLease(ctx); err != nil {
		return err
	}

	snap := a.engine.Snapshot(ctx)
	fmt.Printf("Server stopped, %s banked\n", formatSeconds(snap.Lease.TimeLeftSec))
	return nil
}

func runVPSExtend(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.engine.ExtendLease(ctx); err != nil {
		return err
	}

	snap := a.engine.Snapshot(ctx)
	fmt.Printf("Extended: %s remaining (balance %d)\n",
		formatSeconds(snap.Lease.TimeLeftSec), snap.Balance)
	return nil
}
