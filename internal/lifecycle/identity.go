package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maerty1/scada/internal/creds"
	"github.com/maerty1/scada/internal/netshare"
	"github.com/maerty1/scada/internal/pyenv"
	"github.com/maerty1/scada/internal/svcman"
)

// IdentityReport describes an identity change and its verification. The
// secret never appears here; Account is the username only.
type IdentityReport struct {
	Outcome Outcome
	Service string
	Account string

	// Readback of what the backend stored, diagnostic only.
	ObjectName  string
	Environment []string

	// ManagerAccount is Win32_Service.StartName when corroboration is
	// available, the service manager's own record of the account.
	ManagerAccount string

	Started bool

	// ProcessCount counts worker processes after the start, -1 when
	// corroboration is unavailable.
	ProcessCount int

	// Share health under the new identity. An unreachable share is a
	// warning: the service runs, the sync will starve.
	ShareOK      bool
	ShareWarning string
}

// ConfigureIdentity switches the account the service runs as and
// rewrites the environment overlay for it. The sequence halts on the
// first failure; in particular a rejected identity leaves the
// environment untouched so the service does not end up with a new
// environment under the old account.
func (m *Manager) ConfigureIdentity(ctx context.Context, src creds.Source) (IdentityReport, error) {
	started := time.Now()
	rep := IdentityReport{Service: m.service(), ProcessCount: -1}

	if err := m.preflight(ctx); err != nil {
		return rep, err
	}

	// Resolution failure means zero mutation: the service keeps running
	// under whatever account it had.
	cred, err := creds.Resolve(src)
	if err != nil {
		return rep, err
	}
	rep.Account = cred.Username

	state, err := m.Backend.Status(ctx, rep.Service)
	if err != nil {
		return rep, fmt.Errorf("query %s: %w", rep.Service, err)
	}
	if state == svcman.StateAbsent {
		return rep, fmt.Errorf("service %s is not installed", rep.Service)
	}

	ok, err := m.Confirm.Confirm(fmt.Sprintf("Run service %s as %s", rep.Service, cred.Username))
	if err != nil {
		return rep, err
	}
	if !ok {
		rep.Outcome = OutcomeCancelled
		m.record("configure-identity", rep.Outcome, "operator declined", started)
		return rep, nil
	}

	if state != svcman.StateStopped {
		m.stopAndSettle(ctx, rep.Service)
	}

	if err := m.Backend.Set(ctx, rep.Service, svcman.PropObjectName, cred.Username, cred.Password); err != nil {
		ierr := &IdentityRejectedError{Output: backendOutput(err), Err: err}
		m.record("configure-identity", OutcomeFailed, "identity rejected for "+cred.Username, started)
		return rep, ierr
	}

	overlay := pyenv.Overlay(m.Config.Service.Python, cred.Username, m.machinePath(ctx))
	if err := m.Backend.Set(ctx, rep.Service, svcman.PropAppEnvironmentExtra, overlay...); err != nil {
		perr := &PartialConfigurationError{Step: "environment", Err: err}
		m.record("configure-identity", OutcomeFailed, perr.Error(), started)
		return rep, perr
	}

	m.verifyIdentity(ctx, &rep)

	if err := m.Backend.Start(ctx, rep.Service); err != nil {
		perr := &PartialConfigurationError{Step: "start", Err: err}
		m.record("configure-identity", OutcomeFailed, perr.Error(), started)
		return rep, perr
	}
	if err := svcman.WaitForState(ctx, m.Backend, rep.Service, svcman.StateRunning, m.StartTimeout); err != nil {
		perr := &PartialConfigurationError{Step: "start", Err: err}
		m.record("configure-identity", OutcomeFailed, perr.Error(), started)
		return rep, perr
	}
	rep.Started = true

	m.healthCheck(ctx, &rep, cred)

	rep.Outcome = OutcomeConfigured
	m.record("configure-identity", rep.Outcome, "account "+cred.Username, started)
	return rep, nil
}

// verifyIdentity reads back what the backend stored. Failures here are
// diagnostic gaps, not operation failures.
func (m *Manager) verifyIdentity(ctx context.Context, rep *IdentityReport) {
	if v, err := m.Backend.Get(ctx, rep.Service, svcman.PropObjectName); err == nil {
		rep.ObjectName = v
	}
	if v, err := m.Backend.Get(ctx, rep.Service, svcman.PropAppEnvironmentExtra); err == nil && v != "" {
		for _, line := range strings.Split(v, "\n") {
			if line = strings.TrimRight(line, "\r"); line != "" {
				rep.Environment = append(rep.Environment, line)
			}
		}
	}
	if m.ServiceAccount != nil {
		if acct, err := m.ServiceAccount(ctx, rep.Service); err == nil {
			rep.ManagerAccount = acct
		}
	}
}

// healthCheck corroborates the running worker and probes the workbook
// share under the new credential. Findings go in the report; nothing
// here rolls back a completed identity change.
func (m *Manager) healthCheck(ctx context.Context, rep *IdentityReport, cred creds.Credential) {
	if m.ProcessCount != nil {
		if n, err := m.ProcessCount(ctx, m.Config.ScriptPath()); err == nil {
			rep.ProcessCount = n
		}
	}

	dir := m.Config.TC2Processor.FilesDirectory
	if dir == "" {
		return
	}
	if err := netshare.Connect(ctx, m.Runner, dir, cred.Username, cred.Password); err != nil {
		rep.ShareWarning = err.Error()
		return
	}
	if err := netshare.Probe(ctx, m.Runner, dir); err != nil {
		rep.ShareWarning = err.Error()
		return
	}
	rep.ShareOK = true
}
