// Package lifecycle implements the four service operations: install,
// uninstall, restart, and identity configuration. The Manager owns the
// sequencing and idempotency rules; the backend driver underneath stays
// a dumb command surface. State is re-queried before every mutation and
// never cached across steps, because anything can touch a service
// manager between two commands.
package lifecycle

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/maerty1/scada/internal/config"
	"github.com/maerty1/scada/internal/journal"
	"github.com/maerty1/scada/internal/svcman"
)

// Outcome classifies how an operation ended. AlreadyInstalled,
// NotInstalled, and Cancelled are successes: the system is in an
// acceptable state and the exit code is zero.
type Outcome string

const (
	OutcomeInstalled        Outcome = "installed"
	OutcomeAlreadyInstalled Outcome = "already-installed"
	OutcomeRemoved          Outcome = "removed"
	OutcomeNotInstalled     Outcome = "not-installed"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeRestarted        Outcome = "restarted"
	OutcomeConfigured       Outcome = "configured"
	OutcomeFailed           Outcome = "failed"
)

// Confirmer gates destructive and identity-changing mutations. The
// decision is collected before the first mutating command, not during
// the sequence.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// AutoApprove answers yes to every gate; it backs the --yes flag.
var AutoApprove = ConfirmerFunc(func(string) (bool, error) { return true, nil })

// Default settle windows for stop/start transitions. NSSM reports
// SERVICE_START_PENDING style states during these; polling rides them
// out.
const (
	defaultStopTimeout  = 3 * time.Second
	defaultStartTimeout = 3 * time.Second
	defaultLogLines     = 40
)

// Manager runs lifecycle operations against one service.
type Manager struct {
	Backend svcman.Backend
	Runner  svcman.Runner
	Config  *config.Config
	Confirm Confirmer

	// Corroboration hooks, nil when unavailable (off-Windows, or remote
	// mode where local WMI says nothing about the target).
	ProcessCount   func(ctx context.Context, script string) (int, error)
	ServiceAccount func(ctx context.Context, name string) (string, error)

	// Elevated reports whether the invoking shell holds admin rights,
	// used only to sharpen error hints. Nil means unknown.
	Elevated func() bool

	// Journal records operation outcomes when non-nil. Journal failures
	// are logged, never fatal.
	Journal *journal.Journal

	StopTimeout  time.Duration
	StartTimeout time.Duration
	LogLines     int
}

// NewManager wires a Manager with the default settle windows.
func NewManager(cfg *config.Config, backend svcman.Backend, runner svcman.Runner, confirm Confirmer) *Manager {
	return &Manager{
		Backend:      backend,
		Runner:       runner,
		Config:       cfg,
		Confirm:      confirm,
		StopTimeout:  defaultStopTimeout,
		StartTimeout: defaultStartTimeout,
		LogLines:     defaultLogLines,
	}
}

func (m *Manager) service() string { return m.Config.Service.Name }

// preflight checks the backend is usable before any mutation. Backends
// without a Preflight method are taken at face value.
func (m *Manager) preflight(ctx context.Context) error {
	if p, ok := m.Backend.(interface{ Preflight(context.Context) error }); ok {
		return p.Preflight(ctx)
	}
	return nil
}

// descriptor builds the registration property set from config.
func (m *Manager) descriptor() svcman.Descriptor {
	return svcman.Descriptor{
		Program:       m.Config.Service.Python,
		Args:          []string{m.Config.ScriptPath()},
		AppDirectory:  m.Config.Service.AppDirectory,
		DisplayName:   m.Config.Service.DisplayName,
		Description:   m.Config.Service.Description,
		RestartDelay:  m.Config.RestartDelay(),
		StdoutLog:     m.Config.StdoutLog(),
		StderrLog:     m.Config.StderrLog(),
		RotateBytes:   m.Config.Service.RotateBytes,
		RotateSeconds: m.Config.Service.RotateSeconds,
	}
}

// stopAndSettle stops the service and waits for it to report stopped.
// Both failures are tolerated: a service already on its way down makes
// stop racy, and remove/start handle a straggler themselves.
func (m *Manager) stopAndSettle(ctx context.Context, name string) {
	if err := m.Backend.Stop(ctx, name); err != nil {
		log.Printf("[lifecycle] stop %s: %v", name, err)
	}
	if err := svcman.WaitForState(ctx, m.Backend, name, svcman.StateStopped, m.StopTimeout); err != nil {
		log.Printf("[lifecycle] %s did not settle to stopped: %v", name, err)
	}
}

// machinePath reads PATH on the machine hosting the service, so the
// environment overlay prepends to the right base in remote mode too.
func (m *Manager) machinePath(ctx context.Context) string {
	res, err := m.Runner.Run(ctx, "cmd", "/c", "echo %PATH%")
	if err == nil && res.ExitCode == 0 {
		p := strings.TrimSpace(res.Stdout)
		if p != "" && p != "%PATH%" {
			return p
		}
	}
	return os.Getenv("PATH")
}

// record writes one journal row. Auditing must never break an operation
// that already happened.
func (m *Manager) record(op string, outcome Outcome, detail string, started time.Time) {
	if m.Journal == nil {
		return
	}
	err := m.Journal.Record(journal.Entry{
		Operation: op,
		Service:   m.service(),
		Outcome:   string(outcome),
		Detail:    detail,
		Duration:  time.Since(started),
		Operator:  journal.CurrentOperator(),
	})
	if err != nil {
		log.Printf("[lifecycle] journal write failed: %v", err)
	}
}
