package lifecycle

import (
	"errors"
	"fmt"

	"github.com/maerty1/scada/internal/svcman"
)

// ErrExecutableNotFound means the worker's python executable or script
// is missing on the target machine. Nothing is registered in that case.
var ErrExecutableNotFound = errors.New("worker executable not found")

// PartialInstallError reports a registration that was created but not
// fully configured: the install verb succeeded and then one property
// write failed. The service is left as-is for manual remediation; the
// failed property names where to look.
type PartialInstallError struct {
	Property string
	Err      error
}

func (e *PartialInstallError) Error() string {
	return fmt.Sprintf("registration incomplete: set %s: %v (service left partially configured, fix and re-run install)", e.Property, e.Err)
}

func (e *PartialInstallError) Unwrap() error { return e.Err }

// PartialConfigurationError reports an identity change that stopped
// partway: the step tells how far it got. Earlier steps are not undone.
type PartialConfigurationError struct {
	Step string
	Err  error
}

func (e *PartialConfigurationError) Error() string {
	return fmt.Sprintf("identity configuration failed at %s: %v", e.Step, e.Err)
}

func (e *PartialConfigurationError) Unwrap() error { return e.Err }

// IdentityRejectedError means the service manager refused the run-as
// account, usually a bad password or a missing "log on as a service"
// right. Terminal: no retry, and the environment overlay is not written.
type IdentityRejectedError struct {
	Output string
	Err    error
}

func (e *IdentityRejectedError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("service manager rejected the run-as identity: %s", e.Output)
	}
	return fmt.Sprintf("service manager rejected the run-as identity: %v", e.Err)
}

func (e *IdentityRejectedError) Unwrap() error { return e.Err }

// RemovalFailedError carries the backend's output when deregistration
// fails, with a privilege hint when the caller is not elevated.
type RemovalFailedError struct {
	Output string
	Hint   string
	Err    error
}

func (e *RemovalFailedError) Error() string {
	msg := fmt.Sprintf("service removal failed: %v", e.Err)
	if e.Output != "" {
		msg = fmt.Sprintf("service removal failed: %s", e.Output)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *RemovalFailedError) Unwrap() error { return e.Err }

// backendOutput extracts the backend's verbatim output from a command
// failure, empty when the error carries none.
func backendOutput(err error) string {
	var cmdErr *svcman.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Output
	}
	return ""
}
