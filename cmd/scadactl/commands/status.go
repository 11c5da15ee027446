package commands

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/output"
	"github.com/maerty1/scada/internal/svcman"
	"github.com/maerty1/scada/internal/wmi"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the collector service state",
	Long: `Show the service state, the registered program and account, and the
number of live worker processes. Read-only.

Examples:
  scadactl status
  scadactl status --target 192.168.230.10 --target-user PLANT\admin`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runner, err := buildRunner()
	if err != nil {
		return err
	}
	backend := svcman.NewNSSM(runner, nssmPath)

	ctx := cmd.Context()
	state, err := backend.Status(ctx, cfg.Service.Name)
	if err != nil {
		return err
	}

	pairs := [][2]string{
		{"Service", cfg.Service.Name},
		{"State", string(state)},
	}

	if state != svcman.StateAbsent {
		// Descriptor readbacks are best-effort; a partially configured
		// service should still show what it has.
		if v, err := backend.Get(ctx, cfg.Service.Name, svcman.PropApplication); err == nil && v != "" {
			pairs = append(pairs, [2]string{"Program", v})
		}
		if v, err := backend.Get(ctx, cfg.Service.Name, svcman.PropAppDirectory); err == nil && v != "" {
			pairs = append(pairs, [2]string{"Directory", v})
		}
		if v, err := backend.Get(ctx, cfg.Service.Name, svcman.PropObjectName); err == nil && v != "" {
			pairs = append(pairs, [2]string{"Runs as", v})
		}

		if targetHost == "" && runtime.GOOS == "windows" {
			if n, err := wmi.WorkerProcessCount(ctx, cfg.ScriptPath()); err == nil {
				pairs = append(pairs, [2]string{"Worker processes", strconv.Itoa(n)})
			}
		}
	}

	output.SimpleTable(os.Stdout, pairs)

	if state == svcman.StateAbsent {
		fmt.Println("\nThe service is not installed. Run \"scadactl install\" to register it.")
	}
	return nil
}
