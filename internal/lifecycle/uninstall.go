package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/maerty1/scada/internal/svcman"
)

// UninstallResult describes how an uninstall ended.
type UninstallResult struct {
	Outcome Outcome
	Service string
}

// Uninstall deregisters the collector service. Absent is a success and
// repeatable; a declined confirmation cancels with zero mutations. The
// worker installation on disk is never touched.
func (m *Manager) Uninstall(ctx context.Context) (UninstallResult, error) {
	started := time.Now()
	res := UninstallResult{Service: m.service()}

	if err := m.preflight(ctx); err != nil {
		return res, err
	}

	state, err := m.Backend.Status(ctx, res.Service)
	if err != nil {
		return res, fmt.Errorf("query %s: %w", res.Service, err)
	}
	if state == svcman.StateAbsent {
		res.Outcome = OutcomeNotInstalled
		m.record("uninstall", res.Outcome, "", started)
		return res, nil
	}

	ok, err := m.Confirm.Confirm(fmt.Sprintf("Permanently remove service %s", res.Service))
	if err != nil {
		return res, err
	}
	if !ok {
		res.Outcome = OutcomeCancelled
		m.record("uninstall", res.Outcome, "operator declined", started)
		return res, nil
	}

	if state != svcman.StateStopped {
		m.stopAndSettle(ctx, res.Service)
	}

	if err := m.Backend.Remove(ctx, res.Service); err != nil {
		hint := ""
		if m.Elevated != nil && !m.Elevated() {
			hint = "run from an elevated shell"
		}
		rerr := &RemovalFailedError{Output: backendOutput(err), Hint: hint, Err: err}
		m.record("uninstall", OutcomeFailed, rerr.Error(), started)
		return res, rerr
	}

	res.Outcome = OutcomeRemoved
	m.record("uninstall", res.Outcome, "", started)
	return res, nil
}
