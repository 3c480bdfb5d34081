// Package cli wires the webrdp commands. The daemon command hosts the
// engine behind the local HTTP API; the rest are one-shot commands
// operating on the same database.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"

	flagConfig  string
	flagDataDir string
)

var rootCmd = &cobra.Command{
	Use:   "webrdp",
	Short: "Simulated rewards and server provisioning",
	Long: `webrdp simulates an earn-and-redeem loop: claim tasks to earn points,
then spend them deploying and extending a simulated remote server.

State lives in a local SQLite database shared by the daemon and the
one-shot commands, so a claim made here shows up in a running panel.`,
	Version:       version + " (" + commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for the database (default ~/.webrdp)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(vpsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
