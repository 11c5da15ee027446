package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/output"
	"github.com/maerty1/scada/internal/lifecycle"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the collector service",
	Long: `Stop and start the SCADA Collector service, then report where it
landed: service state, worker process count, and the tail of the
service's stderr log. No confirmation is asked; restart is the routine
remediation for a wedged worker.

Examples:
  scadactl restart
  scadactl restart --target 192.168.230.10 --target-user PLANT\admin`,
	Args: cobra.NoArgs,
	RunE: runRestart,
}

func runRestart(cmd *cobra.Command, args []string) error {
	m, _, cleanup, err := buildManager()
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := m.Restart(cmd.Context())
	// The report prints even when the restart failed; at that point it
	// is the most useful thing on the screen.
	printRestartReport(rep)
	return err
}

func printRestartReport(rep lifecycle.RestartReport) {
	pairs := [][2]string{
		{"Service", rep.Service},
		{"State", string(rep.StatusAfter)},
	}
	if rep.WorkerProcesses >= 0 {
		pairs = append(pairs, [2]string{"Worker processes", strconv.Itoa(rep.WorkerProcesses)})
	}
	output.SimpleTable(os.Stdout, pairs)

	if len(rep.RecentErrors) > 0 {
		fmt.Println("\nRecent stderr:")
		for _, line := range rep.RecentErrors {
			fmt.Println("  " + line)
		}
	}
}
