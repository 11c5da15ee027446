package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/output"
	"github.com/maerty1/scada/internal/cli/prompt"
	"github.com/maerty1/scada/internal/config"
	"github.com/maerty1/scada/internal/creds"
	"github.com/maerty1/scada/internal/lifecycle"
)

var (
	identityUser     string
	identityPassword string
)

var identityCmd = &cobra.Command{
	Use:   "configure-identity",
	Short: "Set the account the collector service runs as",
	Long: `Switch the SCADA Collector service to a dedicated run-as account and
rewrite its environment (PATH, PYTHONPATH) for that account. The
credential is taken from --user/--password, then from
service.run_as_user in config.json, then prompted for.

The service is stopped for the change and started again afterwards; a
health check mounts the TC2 workbook share under the new credential and
warns when it is unreachable.

Examples:
  # Account from config.json, or prompted
  scadactl configure-identity

  # Account from flags (password still prompted if omitted)
  scadactl configure-identity --user PLANT\svc_scada`,
	Args: cobra.NoArgs,
	RunE: runConfigureIdentity,
}

func init() {
	identityCmd.Flags().StringVar(&identityUser, "user", "", `Run-as account (DOMAIN\user or .\user)`)
	identityCmd.Flags().StringVar(&identityPassword, "password", "", "Run-as password (prompted when --user is set without it)")
}

func runConfigureIdentity(cmd *cobra.Command, args []string) error {
	m, cfg, cleanup, err := buildManager()
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := m.ConfigureIdentity(cmd.Context(), identitySource(cfg))
	if err != nil {
		return err
	}

	if rep.Outcome == lifecycle.OutcomeCancelled {
		fmt.Println("Cancelled.")
		return nil
	}

	printIdentityReport(rep)
	return nil
}

// identitySource builds the credential chain: flags beat config, config
// beats the interactive prompt.
func identitySource(cfg *config.Config) creds.Source {
	return creds.Chain{
		flagCredential(),
		creds.Config{User: cfg.Service.RunAsUser, Password: cfg.Service.RunAsPassword},
		creds.PromptFunc(promptCredential),
	}
}

// flagCredential completes a --user flag with a password prompt, so the
// secret never has to appear in shell history.
func flagCredential() creds.Source {
	if identityUser == "" {
		return creds.Static{}
	}
	if identityPassword != "" {
		return creds.Static{
			Cred: creds.Credential{Username: identityUser, Password: identityPassword},
			From: "flags",
		}
	}
	return creds.PromptFunc(func() (creds.Credential, error) {
		password, err := prompt.Password("Password for " + identityUser)
		if err != nil {
			return creds.Credential{}, err
		}
		return creds.Credential{Username: identityUser, Password: password}, nil
	})
}

func promptCredential() (creds.Credential, error) {
	user, err := prompt.Input(`Service account (DOMAIN\user or .\user)`, "")
	if err != nil {
		return creds.Credential{}, err
	}
	if user == "" {
		return creds.Credential{}, nil
	}
	password, err := prompt.Password("Password for " + user)
	if err != nil {
		return creds.Credential{}, err
	}
	return creds.Credential{Username: user, Password: password}, nil
}

func printIdentityReport(rep lifecycle.IdentityReport) {
	pairs := [][2]string{
		{"Service", rep.Service},
		{"Account", rep.Account},
	}
	if rep.ObjectName != "" {
		pairs = append(pairs, [2]string{"Registered as", rep.ObjectName})
	}
	if rep.ManagerAccount != "" {
		pairs = append(pairs, [2]string{"Service manager reports", rep.ManagerAccount})
	}
	pairs = append(pairs, [2]string{"Started", strconv.FormatBool(rep.Started)})
	if rep.ProcessCount >= 0 {
		pairs = append(pairs, [2]string{"Worker processes", strconv.Itoa(rep.ProcessCount)})
	}
	switch {
	case rep.ShareOK:
		pairs = append(pairs, [2]string{"Workbook share", "reachable"})
	case rep.ShareWarning != "":
		pairs = append(pairs, [2]string{"Workbook share", "WARNING: " + rep.ShareWarning})
	}
	output.SimpleTable(os.Stdout, pairs)

	if len(rep.Environment) > 0 {
		fmt.Println("\nService environment:")
		for _, entry := range rep.Environment {
			fmt.Println("  " + entry)
		}
	}
}
