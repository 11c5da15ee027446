package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/lifecycle"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the collector as a service",
	Long: `Register the SCADA Collector worker as a Windows service with
automatic startup, failure restart, and log rotation.

If the service already exists you are asked whether to remove and
re-register it; declining leaves the existing registration untouched.

Examples:
  # Install using ./config.json
  scadactl install

  # Install on a remote collector host
  scadactl install --target 192.168.230.10 --target-user PLANT\admin

  # Non-interactive reinstall
  scadactl install --yes`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	m, _, cleanup, err := buildManager()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := m.Install(cmd.Context())
	if err != nil {
		return err
	}

	switch res.Outcome {
	case lifecycle.OutcomeAlreadyInstalled:
		fmt.Printf("Service %s is already installed; nothing changed.\n", res.Service)
	case lifecycle.OutcomeInstalled:
		if res.Reinstalled {
			fmt.Printf("Service %s re-registered.\n", res.Service)
		} else {
			fmt.Printf("Service %s installed.\n", res.Service)
		}
		if res.Started {
			fmt.Println("Service started.")
		}
		if res.StartErr != nil {
			fmt.Printf("Warning: service did not start: %v\n", res.StartErr)
			fmt.Println("The registration is complete; use \"scadactl restart\" after fixing the cause.")
		}
	}
	return nil
}
