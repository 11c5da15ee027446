package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/maerty1/scada/internal/logtail"
	"github.com/maerty1/scada/internal/svcman"
)

// RestartReport is returned from every restart attempt, failed ones
// included, so the operator sees where the service landed.
type RestartReport struct {
	Service      string
	StatusBefore svcman.State
	StatusAfter  svcman.State

	// WorkerProcesses counts python processes running the worker
	// script, -1 when corroboration is unavailable.
	WorkerProcesses int

	// RecentErrors is the tail of the service stderr log, when the log
	// is readable from here.
	RecentErrors []string
}

// Restart stops and starts the service, converging stopped or running
// to running. No confirmation: restart is the routine remediation and
// gating it would train operators to pass gates reflexively.
func (m *Manager) Restart(ctx context.Context) (RestartReport, error) {
	started := time.Now()
	rep := RestartReport{Service: m.service(), WorkerProcesses: -1}

	if err := m.preflight(ctx); err != nil {
		return rep, err
	}

	state, err := m.Backend.Status(ctx, rep.Service)
	if err != nil {
		return rep, fmt.Errorf("query %s: %w", rep.Service, err)
	}
	rep.StatusBefore = state
	rep.StatusAfter = state
	if state == svcman.StateAbsent {
		return rep, fmt.Errorf("service %s is not installed", rep.Service)
	}

	if state != svcman.StateStopped {
		m.stopAndSettle(ctx, rep.Service)
	}

	startErr := m.Backend.Start(ctx, rep.Service)
	var waitErr error
	if startErr == nil {
		waitErr = svcman.WaitForState(ctx, m.Backend, rep.Service, svcman.StateRunning, m.StartTimeout)
	}

	// The report is filled either way. On failure it is the most useful
	// part of the output.
	m.fillReport(ctx, &rep)

	if startErr != nil {
		m.record("restart", OutcomeFailed, fmt.Sprintf("start: %v", startErr), started)
		return rep, fmt.Errorf("start %s: %w", rep.Service, startErr)
	}
	if waitErr != nil {
		m.record("restart", OutcomeFailed, waitErr.Error(), started)
		return rep, waitErr
	}

	m.record("restart", OutcomeRestarted, "", started)
	return rep, nil
}

func (m *Manager) fillReport(ctx context.Context, rep *RestartReport) {
	if st, err := m.Backend.Status(ctx, rep.Service); err == nil {
		rep.StatusAfter = st
	}
	if m.ProcessCount != nil {
		if n, err := m.ProcessCount(ctx, m.Config.ScriptPath()); err == nil {
			rep.WorkerProcesses = n
		}
	}
	if lines, err := logtail.Tail(m.Config.StderrLog(), m.LogLines); err == nil {
		rep.RecentErrors = lines
	}
}
