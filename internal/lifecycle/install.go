package lifecycle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/maerty1/scada/internal/svcman"
)

// InstallResult describes how an install ended.
type InstallResult struct {
	Outcome     Outcome
	Service     string
	Reinstalled bool // an existing registration was removed first
	Started     bool
	// StartErr reports a failed optional start. Registration stands
	// regardless; starting is retried with restart, not by reinstalling.
	StartErr error
}

// Install registers the collector service with the full descriptor.
// Preconditions run before any mutation: the backend must answer, and
// the worker executable and script must exist on the target. An
// existing registration is replaced only after confirmation; declining
// leaves it byte-for-byte untouched.
func (m *Manager) Install(ctx context.Context) (InstallResult, error) {
	started := time.Now()
	res := InstallResult{Service: m.service()}

	if err := m.preflight(ctx); err != nil {
		return res, err
	}

	for _, p := range []string{m.Config.Service.Python, m.Config.ScriptPath()} {
		ok, err := m.Runner.PathExists(ctx, p)
		if err != nil {
			return res, fmt.Errorf("check %s: %w", p, err)
		}
		if !ok {
			return res, fmt.Errorf("%w: %s", ErrExecutableNotFound, p)
		}
	}

	state, err := m.Backend.Status(ctx, res.Service)
	if err != nil {
		return res, fmt.Errorf("query %s: %w", res.Service, err)
	}

	switch state {
	case svcman.StateUnknown:
		// Paused or mid-transition. Reinstalling over that hides a
		// problem the operator should see first.
		return res, fmt.Errorf("service %s is in an indeterminate state, resolve it before reinstalling", res.Service)

	case svcman.StateStopped, svcman.StateRunning:
		ok, err := m.Confirm.Confirm(fmt.Sprintf("Service %s is already installed. Remove and reinstall it", res.Service))
		if err != nil {
			return res, err
		}
		if !ok {
			res.Outcome = OutcomeAlreadyInstalled
			m.record("install", res.Outcome, "existing registration kept", started)
			return res, nil
		}
		if state == svcman.StateRunning {
			m.stopAndSettle(ctx, res.Service)
		}
		if err := m.Backend.Remove(ctx, res.Service); err != nil {
			return res, fmt.Errorf("remove existing %s: %w", res.Service, err)
		}
		res.Reinstalled = true
	}

	desc := m.descriptor()
	if err := m.Backend.Install(ctx, res.Service, desc.Program, desc.Args...); err != nil {
		m.record("install", OutcomeFailed, fmt.Sprintf("register: %v", err), started)
		return res, fmt.Errorf("register %s: %w", res.Service, err)
	}
	for _, ps := range desc.PropertySets() {
		if err := m.Backend.Set(ctx, res.Service, ps.Property, ps.Values...); err != nil {
			perr := &PartialInstallError{Property: ps.Property, Err: err}
			m.record("install", OutcomeFailed, perr.Error(), started)
			return res, perr
		}
	}
	res.Outcome = OutcomeInstalled

	// Optional start. A declined or interrupted prompt means "leave it
	// stopped"; a failed start is reported, never unwound.
	ok, err := m.Confirm.Confirm(fmt.Sprintf("Start %s now", res.Service))
	if err != nil {
		log.Printf("[lifecycle] start prompt: %v", err)
		ok = false
	}
	if ok {
		if err := m.Backend.Start(ctx, res.Service); err != nil {
			res.StartErr = err
		} else if err := svcman.WaitForState(ctx, m.Backend, res.Service, svcman.StateRunning, m.StartTimeout); err != nil {
			res.StartErr = err
		} else {
			res.Started = true
		}
	}

	m.record("install", res.Outcome, installDetail(res), started)
	return res, nil
}

func installDetail(res InstallResult) string {
	var parts []string
	if res.Reinstalled {
		parts = append(parts, "replaced existing registration")
	}
	if res.Started {
		parts = append(parts, "started")
	}
	if res.StartErr != nil {
		parts = append(parts, fmt.Sprintf("start failed: %v", res.StartErr))
	}
	return strings.Join(parts, "; ")
}
