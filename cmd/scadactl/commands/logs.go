package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/logtail"
)

var (
	logsLines  int
	logsStdout bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the tail of the collector's service logs",
	Long: `Print the last lines of the service's redirected output. The stderr
log is shown by default; --stdout switches to the stdout log.

The log files live on the collector host, so this command reads them
locally and does not support --target.

Examples:
  scadactl logs
  scadactl logs --lines 100
  scadactl logs --stdout`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 40, "Number of lines to show")
	logsCmd.Flags().BoolVar(&logsStdout, "stdout", false, "Show the stdout log instead of stderr")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if targetHost != "" {
		return fmt.Errorf("logs are read from the local filesystem; run scadactl on the collector host")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.StderrLog()
	if logsStdout {
		path = cfg.StdoutLog()
	}

	lines, err := logtail.Tail(path, logsLines)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(lines) == 0 {
		fmt.Printf("%s is empty.\n", path)
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
