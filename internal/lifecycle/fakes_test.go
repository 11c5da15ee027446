package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/maerty1/scada/internal/config"
	"github.com/maerty1/scada/internal/svcman"
)

// fakeBackend is an in-memory service registry. It records every verb
// and counts mutations so no-op guarantees are checkable.
type fakeBackend struct {
	state svcman.State
	props map[string][]string

	program string
	args    []string

	calls     []string
	mutations int

	statusErr  error
	failSet    map[string]error
	failStart  error
	failStop   error
	failRemove error

	// stuckOnStart keeps the state from transitioning to running, for
	// exercising the settle timeout.
	stuckOnStart bool
}

func newFakeBackend(state svcman.State) *fakeBackend {
	return &fakeBackend{state: state, props: map[string][]string{}}
}

func (f *fakeBackend) Status(ctx context.Context, name string) (svcman.State, error) {
	f.calls = append(f.calls, "status")
	if f.statusErr != nil {
		return svcman.StateUnknown, f.statusErr
	}
	return f.state, nil
}

func (f *fakeBackend) Install(ctx context.Context, name, program string, args ...string) error {
	f.calls = append(f.calls, "install")
	f.mutations++
	f.program = program
	f.args = args
	f.props = map[string][]string{}
	f.state = svcman.StateStopped
	return nil
}

func (f *fakeBackend) Remove(ctx context.Context, name string) error {
	f.calls = append(f.calls, "remove")
	f.mutations++
	if f.failRemove != nil {
		return f.failRemove
	}
	f.state = svcman.StateAbsent
	f.props = map[string][]string{}
	f.program = ""
	f.args = nil
	return nil
}

func (f *fakeBackend) Set(ctx context.Context, name, property string, values ...string) error {
	f.calls = append(f.calls, "set "+property)
	f.mutations++
	if err := f.failSet[property]; err != nil {
		return err
	}
	f.props[property] = values
	return nil
}

func (f *fakeBackend) Get(ctx context.Context, name, property string) (string, error) {
	f.calls = append(f.calls, "get "+property)
	values, ok := f.props[property]
	if !ok || len(values) == 0 {
		return "", nil
	}
	if property == svcman.PropObjectName {
		return values[0], nil
	}
	return strings.Join(values, "\n"), nil
}

func (f *fakeBackend) Start(ctx context.Context, name string) error {
	f.calls = append(f.calls, "start")
	f.mutations++
	if f.failStart != nil {
		return f.failStart
	}
	if !f.stuckOnStart {
		f.state = svcman.StateRunning
	}
	return nil
}

func (f *fakeBackend) Stop(ctx context.Context, name string) error {
	f.calls = append(f.calls, "stop")
	f.mutations++
	if f.failStop != nil {
		return f.failStop
	}
	f.state = svcman.StateStopped
	return nil
}

func (f *fakeBackend) called(verb string) bool {
	for _, c := range f.calls {
		if c == verb {
			return true
		}
	}
	return false
}

// callOrder returns the position of the first occurrence, -1 if absent.
func (f *fakeBackend) callOrder(verb string) int {
	for i, c := range f.calls {
		if c == verb {
			return i
		}
	}
	return -1
}

// preflightBackend injects a preflight failure around a fakeBackend.
type preflightBackend struct {
	*fakeBackend
	err error
}

func (p *preflightBackend) Preflight(ctx context.Context) error { return p.err }

// fakeRunner answers path checks from a set of missing paths and
// responds to the PATH readback and net use commands.
type fakeRunner struct {
	missing     map[string]bool
	pathErr     error
	pathChecks  []string
	machinePath string
	netUseFail  bool
	runs        [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (svcman.RunResult, error) {
	r.runs = append(r.runs, append([]string{name}, args...))
	if name == "cmd" {
		return svcman.RunResult{Stdout: r.machinePath + "\r\n"}, nil
	}
	if name == "net" && r.netUseFail {
		return svcman.RunResult{ExitCode: 2, Stderr: "System error 86 has occurred."}, nil
	}
	return svcman.RunResult{}, nil
}

func (r *fakeRunner) PathExists(ctx context.Context, path string) (bool, error) {
	r.pathChecks = append(r.pathChecks, path)
	if r.pathErr != nil {
		return false, r.pathErr
	}
	return !r.missing[path], nil
}

// scriptedConfirm replays answers in order; once exhausted it approves.
type scriptedConfirm struct {
	answers []bool
	prompts []string
	err     error
}

func (s *scriptedConfirm) Confirm(prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return false, s.err
	}
	if len(s.answers) == 0 {
		return true, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Name:         "SCADACollector",
			DisplayName:  "SCADA Collector",
			Description:  "Collects SCADA telemetry into the plant database",
			Python:       `C:\Python311\python.exe`,
			Script:       "collector.py",
			AppDirectory: `C:\scada`,
		},
		TC2Processor: config.TC2ProcessorConfig{
			FilesDirectory: `\\192.168.230.241\c$\hscmt\cal`,
		},
	}
}

func newTestManager(t *testing.T, b svcman.Backend, r *fakeRunner, c Confirmer) *Manager {
	t.Helper()
	if r.machinePath == "" {
		r.machinePath = `C:\Windows\system32`
	}
	m := NewManager(testConfig(), b, r, c)
	// Short settle windows keep negative-path tests fast.
	m.StopTimeout = 50 * time.Millisecond
	m.StartTimeout = 50 * time.Millisecond
	return m
}
