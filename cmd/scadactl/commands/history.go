package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/output"
	"github.com/maerty1/scada/internal/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent lifecycle operations",
	Long: `List the operations recorded in the local journal: who ran what,
when, and how it ended. The journal lives beside config.json.

Examples:
  scadactl history
  scadactl history --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	entries, err := j.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	table := output.NewTable("Time", "Operation", "Service", "Outcome", "Operator", "Detail")
	for _, e := range entries {
		table.AddRow(
			e.At.Local().Format(time.DateTime),
			e.Operation,
			e.Service,
			e.Outcome,
			e.Operator,
			e.Detail,
		)
	}
	table.Render(os.Stdout)
	return nil
}
