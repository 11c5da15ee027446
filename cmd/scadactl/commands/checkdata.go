package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/output"
	"github.com/maerty1/scada/internal/datacheck"
)

var checkDataCmd = &cobra.Command{
	Use:   "check-data",
	Short: "Check that collected TC2 data is fresh",
	Long: `Compare the newest TC2 workbook on the plant share against the
latest row the collector has written to the target database table.
Read-only; useful for telling "the service is running" apart from "the
service is collecting".

Examples:
  scadactl check-data`,
	Args: cobra.NoArgs,
	RunE: runCheckData,
}

func runCheckData(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Server == "" {
		return fmt.Errorf("config has no database section; check-data needs database.server")
	}

	db, err := datacheck.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := datacheck.Check(cmd.Context(), db, cfg.TC2Processor.TargetTable, cfg.TC2Processor.FilesDirectory)
	if err != nil {
		return err
	}

	pairs := [][2]string{}
	if res.WorkbookPath == "" {
		pairs = append(pairs, [2]string{"Newest workbook", "none found"})
	} else {
		pairs = append(pairs,
			[2]string{"Newest workbook", res.WorkbookPath},
			[2]string{"Workbook modified", res.WorkbookTime.Local().Format(time.DateTime)},
		)
	}
	if res.MaxCheckTime.IsZero() {
		pairs = append(pairs, [2]string{"Latest database row", "table is empty"})
	} else {
		pairs = append(pairs, [2]string{"Latest database row", res.MaxCheckTime.Format(time.DateTime)})
	}
	pairs = append(pairs, [2]string{"Total rows", fmt.Sprintf("%d", res.RowCount)})
	if lag := res.Lag(); lag > 0 {
		pairs = append(pairs, [2]string{"Lag", lag.Round(time.Second).String()})
	}
	output.SimpleTable(os.Stdout, pairs)
	return nil
}
