package svcman

import (
	"context"
	"fmt"
	"log"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Oldest NSSM release with AppRotateOnline and working AppEnvironmentExtra
// get/set. Earlier builds silently ignore rotation properties.
const minNSSMVersion = "2.24"

// statusNotFoundExit is NSSM's exit code when the service does not exist.
const statusNotFoundExit = 3

// NSSM drives an nssm.exe through a Runner.
type NSSM struct {
	runner Runner
	exe    string
}

// NewNSSM returns a driver for the given nssm executable. Pass "nssm"
// to resolve through PATH.
func NewNSSM(runner Runner, exe string) *NSSM {
	if exe == "" {
		exe = "nssm"
	}
	return &NSSM{runner: runner, exe: exe}
}

// Preflight verifies the backend is callable and recent enough. It must
// pass before any mutating operation is attempted.
func (n *NSSM) Preflight(ctx context.Context) error {
	res, err := n.runner.Run(ctx, n.exe, "version")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, n.exe, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: %s version: exit %d: %s", ErrBackendUnavailable, n.exe, res.ExitCode, res.Combined())
	}

	ver := parseNSSMVersion(res.Combined())
	if ver == nil {
		// Version line changed across builds; do not block on cosmetics.
		log.Printf("[svcman] could not parse backend version from %q", res.Combined())
		return nil
	}
	min := goversion.Must(goversion.NewVersion(minNSSMVersion))
	if ver.LessThan(min) {
		return fmt.Errorf("%w: nssm %s is older than required %s", ErrBackendUnavailable, ver, min)
	}
	return nil
}

// parseNSSMVersion extracts a version from output like "nssm 2.24 64-bit".
func parseNSSMVersion(output string) *goversion.Version {
	for _, field := range strings.Fields(output) {
		if v, err := goversion.NewVersion(strings.TrimPrefix(field, "v")); err == nil {
			return v
		}
	}
	return nil
}

func (n *NSSM) Status(ctx context.Context, name string) (State, error) {
	res, err := n.run(ctx, "status", name)
	if err != nil {
		return StateUnknown, err
	}
	if res.ExitCode == 0 {
		return ParseStatus(res.Stdout), nil
	}
	if res.ExitCode == statusNotFoundExit && strings.Contains(res.Combined(), "Can't open service") {
		return StateAbsent, nil
	}
	return StateUnknown, &CommandError{Verb: "status", ExitCode: res.ExitCode, Output: res.Combined()}
}

func (n *NSSM) Install(ctx context.Context, name, program string, args ...string) error {
	argv := append([]string{"install", name, program}, args...)
	return n.runChecked(ctx, "install", argv...)
}

func (n *NSSM) Remove(ctx context.Context, name string) error {
	return n.runChecked(ctx, "remove", "remove", name, "confirm")
}

func (n *NSSM) Set(ctx context.Context, name, property string, values ...string) error {
	argv := append([]string{"set", name, property}, values...)
	return n.runChecked(ctx, "set "+property, argv...)
}

func (n *NSSM) Get(ctx context.Context, name, property string) (string, error) {
	res, err := n.run(ctx, "get", name, property)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CommandError{Verb: "get " + property, ExitCode: res.ExitCode, Output: res.Combined()}
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (n *NSSM) Start(ctx context.Context, name string) error {
	return n.runChecked(ctx, "start", "start", name)
}

func (n *NSSM) Stop(ctx context.Context, name string) error {
	return n.runChecked(ctx, "stop", "stop", name)
}

func (n *NSSM) run(ctx context.Context, argv ...string) (RunResult, error) {
	log.Printf("[svcman] %s %s", n.exe, strings.Join(redactArgs(argv), " "))
	res, err := n.runner.Run(ctx, n.exe, argv...)
	if err != nil {
		return res, fmt.Errorf("run %s %s: %w", n.exe, argv[0], err)
	}
	return res, nil
}

func (n *NSSM) runChecked(ctx context.Context, verb string, argv ...string) error {
	res, err := n.run(ctx, argv...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandError{Verb: verb, ExitCode: res.ExitCode, Output: res.Combined()}
	}
	return nil
}

// redactArgs masks everything after an ObjectName property so run-as
// credentials never reach the log.
func redactArgs(argv []string) []string {
	for i, a := range argv {
		if a == PropObjectName && i+1 < len(argv) {
			out := make([]string, 0, i+2)
			out = append(out, argv[:i+1]...)
			out = append(out, "****")
			return out
		}
	}
	return argv
}
