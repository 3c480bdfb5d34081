package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent engine operations from the audit trail",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum records to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.trail.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-22s %-8s",
			rec.At.Local().Format("2006-01-02 15:04:05"), rec.Op, rec.Outcome)
		if rec.Detail != "" {
			line += "  " + rec.Detail
		}
		fmt.Println(line)
	}
	return nil
}
