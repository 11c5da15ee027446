// Package commands implements the scadactl CLI verbs.
package commands

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/maerty1/scada/internal/cli/prompt"
	"github.com/maerty1/scada/internal/config"
	"github.com/maerty1/scada/internal/elevation"
	"github.com/maerty1/scada/internal/journal"
	"github.com/maerty1/scada/internal/lifecycle"
	"github.com/maerty1/scada/internal/remote"
	"github.com/maerty1/scada/internal/svcman"
	"github.com/maerty1/scada/internal/wmi"
)

var (
	// Version information injected at build time.
	Version   = "dev"
	BuildTime = "unknown"
)

// Global flags.
var (
	cfgFile     string
	serviceName string
	assumeYes   bool
	nssmPath    string

	targetHost     string
	targetPort     int
	targetUser     string
	targetPassword string
	targetSSL      bool
	targetInsecure bool

	settleTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scadactl",
	Short: "SCADA Collector service lifecycle control",
	Long: `scadactl manages the SCADA Collector worker as a Windows service:
registration, removal, restarts, and the account it runs under. It
drives NSSM on the local machine, or on a remote collector host over
WinRM with --target.

The deployment's config.json (the same file the collector reads) names
the service, the Python runtime, and the worker script.

Use "scadactl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config.json (default: ./config.json)")
	rootCmd.PersistentFlags().StringVar(&serviceName, "service", "", "Service name override")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to all confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&nssmPath, "nssm", "", "Path to nssm.exe (default: nssm on PATH)")

	rootCmd.PersistentFlags().StringVar(&targetHost, "target", "", "Manage a remote collector host over WinRM")
	rootCmd.PersistentFlags().IntVar(&targetPort, "target-port", 0, "WinRM port (default: 5985, or 5986 with --target-ssl)")
	rootCmd.PersistentFlags().StringVar(&targetUser, "target-user", "", `WinRM account (DOMAIN\user)`)
	rootCmd.PersistentFlags().StringVar(&targetPassword, "target-password", "", "WinRM password (prompted when omitted)")
	rootCmd.PersistentFlags().BoolVar(&targetSSL, "target-ssl", false, "Use HTTPS for WinRM")
	rootCmd.PersistentFlags().BoolVar(&targetInsecure, "target-insecure", false, "Skip WinRM TLS certificate verification")

	rootCmd.PersistentFlags().DurationVar(&settleTimeout, "timeout", 3*time.Second, "How long to wait for stop/start transitions")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(checkDataCmd)
}

// loadConfig reads the deployment config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}
	return cfg, nil
}

// buildRunner picks the command transport: local os/exec, or WinRM when
// --target is set. Missing remote credentials are prompted for.
func buildRunner() (svcman.Runner, error) {
	if targetHost == "" {
		return svcman.LocalRunner{}, nil
	}

	user := targetUser
	if user == "" {
		u, err := prompt.Input("WinRM account (DOMAIN\\user)", "")
		if err != nil {
			return nil, err
		}
		user = u
	}
	password := targetPassword
	if password == "" {
		p, err := prompt.Password("WinRM password for " + user)
		if err != nil {
			return nil, err
		}
		password = p
	}

	return remote.Dial(remote.Target{
		Host:     targetHost,
		Port:     targetPort,
		Username: user,
		Password: password,
		UseSSL:   targetSSL,
		Insecure: targetInsecure,
	})
}

func confirmer() lifecycle.Confirmer {
	if assumeYes {
		return lifecycle.AutoApprove
	}
	return lifecycle.ConfirmerFunc(prompt.Confirm)
}

// buildManager wires a lifecycle.Manager from flags and config. The
// cleanup closes the journal and must run after the operation.
func buildManager() (*lifecycle.Manager, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	runner, err := buildRunner()
	if err != nil {
		return nil, nil, nil, err
	}

	m := lifecycle.NewManager(cfg, svcman.NewNSSM(runner, nssmPath), runner, confirmer())
	m.StopTimeout = settleTimeout
	m.StartTimeout = settleTimeout

	// WMI and the elevation check describe this machine, so they only
	// corroborate in local mode.
	if targetHost == "" {
		m.ProcessCount = wmi.WorkerProcessCount
		m.ServiceAccount = wmi.ServiceAccount
		m.Elevated = elevation.IsElevated
	}

	cleanup := func() {}
	if j, err := journal.Open(cfg.JournalPath()); err != nil {
		log.Printf("[scadactl] journal unavailable: %v", err)
	} else {
		m.Journal = j
		cleanup = func() { j.Close() }
	}

	return m, cfg, cleanup, nil
}
