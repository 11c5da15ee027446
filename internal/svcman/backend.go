package svcman

import "context"

// NSSM property names set during registration and identity changes.
// Application is read-only here: the program path is fixed at install.
const (
	PropApplication         = "Application"
	PropAppDirectory        = "AppDirectory"
	PropDisplayName         = "DisplayName"
	PropDescription         = "Description"
	PropStart               = "Start"
	PropAppExit             = "AppExit"
	PropAppRestartDelay     = "AppRestartDelay"
	PropAppStdout           = "AppStdout"
	PropAppStderr           = "AppStderr"
	PropAppRotateFiles      = "AppRotateFiles"
	PropAppRotateOnline     = "AppRotateOnline"
	PropAppRotateSeconds    = "AppRotateSeconds"
	PropAppRotateBytes      = "AppRotateBytes"
	PropAppEnvironmentExtra = "AppEnvironmentExtra"
	PropObjectName          = "ObjectName"
)

// StartAuto is the automatic startup policy value.
const StartAuto = "SERVICE_AUTO_START"

// Backend is the service control command surface. Implementations must
// be idempotency-neutral: they report what the backend said and leave
// retry and no-op decisions to the caller.
type Backend interface {
	// Status reports the current service state. A missing service is
	// StateAbsent with a nil error; StateUnknown with an error means
	// the backend could not be consulted.
	Status(ctx context.Context, name string) (State, error)

	// Install registers program (with arguments) under the service name.
	Install(ctx context.Context, name, program string, args ...string) error

	// Remove deregisters the service, forcing past running-service
	// guards. The service should be stopped first.
	Remove(ctx context.Context, name string) error

	// Set writes one property of the service descriptor.
	Set(ctx context.Context, name, property string, values ...string) error

	// Get reads back one property of the service descriptor.
	Get(ctx context.Context, name, property string) (string, error)

	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
}
