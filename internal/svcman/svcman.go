// Package svcman drives the service control backend that hosts the
// collector worker. The backend is NSSM: it registers an arbitrary
// executable as a Windows service and exposes a narrow command surface
// (status/install/remove/set/get/start/stop) that this package wraps
// behind the Backend interface.
//
// All commands run through a Runner, so the same driver works against
// the local machine (os/exec) or a remote host (WinRM).
package svcman

import (
	"errors"
	"fmt"
	"strings"
)

// State is the observed service state. It is re-queried before every
// mutating operation; callers never cache it across invocations.
type State string

const (
	StateAbsent  State = "absent"
	StateStopped State = "stopped"
	StateRunning State = "running"
	StateUnknown State = "unknown"
)

var (
	// ErrBackendUnavailable means the backend executable could not be
	// located or failed its version preflight. Nothing was mutated.
	ErrBackendUnavailable = errors.New("service control backend unavailable")

	// ErrTimeout means the service did not reach the expected state
	// within the polling window.
	ErrTimeout = errors.New("timed out waiting for service state")
)

// CommandError is a backend command that ran but reported failure.
// Output carries the backend's combined stdout/stderr verbatim so
// operators see exactly what the backend said.
type CommandError struct {
	Verb     string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("nssm %s: exit %d", e.Verb, e.ExitCode)
	}
	return fmt.Sprintf("nssm %s: exit %d: %s", e.Verb, e.ExitCode, e.Output)
}

// ParseStatus maps NSSM status output to a State. Transitional states
// (start/stop pending) and SERVICE_PAUSED have no stable equivalent and
// map to unknown so callers re-query rather than act on them.
func ParseStatus(output string) State {
	switch strings.TrimSpace(output) {
	case "SERVICE_STOPPED":
		return StateStopped
	case "SERVICE_RUNNING":
		return StateRunning
	default:
		return StateUnknown
	}
}
