package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/lifecycle"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the collector service registration",
	Long: `Stop the SCADA Collector service and remove its registration from
the service manager. The worker installation on disk is not touched.

Removing a service that is not installed is a no-op.

Examples:
  # Remove with confirmation
  scadactl uninstall

  # Remove without prompting
  scadactl uninstall --yes`,
	Args: cobra.NoArgs,
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	m, _, cleanup, err := buildManager()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := m.Uninstall(cmd.Context())
	if err != nil {
		return err
	}

	switch res.Outcome {
	case lifecycle.OutcomeNotInstalled:
		fmt.Printf("Service %s is not installed; nothing to do.\n", res.Service)
	case lifecycle.OutcomeCancelled:
		fmt.Println("Cancelled.")
	case lifecycle.OutcomeRemoved:
		fmt.Printf("Service %s removed.\n", res.Service)
	}
	return nil
}
