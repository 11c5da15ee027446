package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maerty1/scada/internal/creds"
	"github.com/maerty1/scada/internal/svcman"
)

// countingSource records how often it is consulted.
type countingSource struct {
	cred  creds.Credential
	err   error
	calls int
}

func (c *countingSource) Credential() (creds.Credential, bool, error) {
	c.calls++
	if c.err != nil {
		return creds.Credential{}, false, c.err
	}
	return c.cred, c.cred.Present(), nil
}

func (c *countingSource) Name() string { return "test-prompt" }

func TestIdentityFromConfigSkipsPrompt(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{answers: []bool{true}})
	m.ServiceAccount = func(ctx context.Context, name string) (string, error) {
		return `PLANT\svc_scada`, nil
	}

	prompt := &countingSource{cred: creds.Credential{Username: "fallback", Password: "x"}}
	src := creds.Chain{
		creds.Config{User: `PLANT\svc_scada`, Password: "secret"},
		prompt,
	}

	rep, err := m.ConfigureIdentity(context.Background(), src)
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}
	if prompt.calls != 0 {
		t.Errorf("prompt consulted %d times with config credential present", prompt.calls)
	}
	if rep.Outcome != OutcomeConfigured {
		t.Errorf("Outcome = %s", rep.Outcome)
	}
	if rep.Account != `PLANT\svc_scada` {
		t.Errorf("Account = %q", rep.Account)
	}

	got := backend.props[svcman.PropObjectName]
	if len(got) != 2 || got[0] != `PLANT\svc_scada` || got[1] != "secret" {
		t.Errorf("ObjectName = %v", got)
	}
	if rep.ObjectName != `PLANT\svc_scada` {
		t.Errorf("readback ObjectName = %q", rep.ObjectName)
	}
	if rep.ManagerAccount != `PLANT\svc_scada` {
		t.Errorf("ManagerAccount = %q", rep.ManagerAccount)
	}
	if len(rep.Environment) != 3 {
		t.Errorf("Environment readback = %v", rep.Environment)
	}
	if !rep.Started || backend.state != svcman.StateRunning {
		t.Errorf("Started = %v, state = %s", rep.Started, backend.state)
	}
	if !rep.ShareOK {
		t.Errorf("ShareOK = false: %s", rep.ShareWarning)
	}
}

func TestIdentityPromptFallbackConsultedOnce(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	prompt := &countingSource{cred: creds.Credential{Username: `.\svc_local`, Password: "pw"}}
	src := creds.Chain{creds.Config{}, prompt}

	rep, err := m.ConfigureIdentity(context.Background(), src)
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}
	if prompt.calls != 1 {
		t.Errorf("prompt consulted %d times, want 1", prompt.calls)
	}
	if rep.Account != `.\svc_local` {
		t.Errorf("Account = %q", rep.Account)
	}
}

func TestIdentityEmptyCredentialIsMissing(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	prompt := &countingSource{} // returns an empty credential
	src := creds.Chain{creds.Config{}, prompt}

	_, err := m.ConfigureIdentity(context.Background(), src)
	if !errors.Is(err, creds.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if prompt.calls != 1 {
		t.Errorf("prompt consulted %d times, want 1", prompt.calls)
	}
	if backend.mutations != 0 {
		t.Errorf("missing credential still mutated: %v", backend.calls)
	}
}

func TestIdentityRejectionSkipsEnvironment(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	backend.failSet = map[string]error{
		svcman.PropObjectName: &svcman.CommandError{
			Verb: "set ObjectName", ExitCode: 1,
			Output: "Error setting account: The account name is invalid.",
		},
	}
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\wrong`, Password: "bad"},
	})

	var ierr *IdentityRejectedError
	if !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want IdentityRejectedError", err)
	}
	if !strings.Contains(ierr.Output, "account name is invalid") {
		t.Errorf("Output = %q", ierr.Output)
	}

	// The halt-on-first-failure rule: after a rejected identity the
	// environment must not be touched and the service must not start.
	if backend.called("set " + svcman.PropAppEnvironmentExtra) {
		t.Errorf("environment written after rejected identity: %v", backend.calls)
	}
	if backend.called("start") {
		t.Errorf("service started after rejected identity: %v", backend.calls)
	}
}

func TestIdentityDeclineCancels(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{answers: []bool{false}})

	rep, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}
	if rep.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %s", rep.Outcome)
	}
	if backend.mutations != 0 {
		t.Errorf("cancelled identity change mutated: %v", backend.calls)
	}
}

func TestIdentityEnvironmentFailureKeepsIdentity(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	backend.failSet = map[string]error{svcman.PropAppEnvironmentExtra: errors.New("parameter too long")}
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})

	var perr *PartialConfigurationError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PartialConfigurationError", err)
	}
	if perr.Step != "environment" {
		t.Errorf("Step = %q, want environment", perr.Step)
	}

	// No rollback: the identity write stands, remediation is manual.
	if _, ok := backend.props[svcman.PropObjectName]; !ok {
		t.Error("identity rolled back after environment failure")
	}
	if backend.called("start") {
		t.Errorf("service started after environment failure: %v", backend.calls)
	}
}

func TestIdentityWritesOverlay(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	runner := &fakeRunner{machinePath: `C:\Windows;C:\Windows\system32`}
	m := newTestManager(t, backend, runner, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}

	overlay := backend.props[svcman.PropAppEnvironmentExtra]
	want := []string{
		`PATH=C:\Python311;C:\Python311\Scripts;C:\Windows;C:\Windows\system32`,
		`PYTHONPATH=C:\Python311\Lib\site-packages;C:\Users\svc_scada\AppData\Roaming\Python\Python311\site-packages`,
		"PYTHONUNBUFFERED=1",
	}
	if len(overlay) != len(want) {
		t.Fatalf("overlay = %v", overlay)
	}
	for i := range want {
		if overlay[i] != want[i] {
			t.Errorf("overlay[%d] = %q, want %q", i, overlay[i], want[i])
		}
	}
}

func TestIdentityMountsShareWithNewCredential(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	runner := &fakeRunner{}
	m := newTestManager(t, backend, runner, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}

	var netUse []string
	for _, run := range runner.runs {
		if run[0] == "net" {
			netUse = run
			break
		}
	}
	if netUse == nil {
		t.Fatalf("net use never invoked: %v", runner.runs)
	}
	want := []string{"net", "use", `\\192.168.230.241\c$`, `/user:PLANT\svc_scada`, "pw", "/persistent:no"}
	if len(netUse) != len(want) {
		t.Fatalf("net use argv = %v", netUse)
	}
	for i := range want {
		if netUse[i] != want[i] {
			t.Errorf("net use argv[%d] = %q, want %q", i, netUse[i], want[i])
		}
	}
}

func TestIdentityShareWarningIsNonFatal(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	runner := &fakeRunner{netUseFail: true}
	m := newTestManager(t, backend, runner, &scriptedConfirm{})

	rep, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}
	if rep.Outcome != OutcomeConfigured || !rep.Started {
		t.Errorf("Outcome = %s, Started = %v", rep.Outcome, rep.Started)
	}
	if rep.ShareOK || rep.ShareWarning == "" {
		t.Errorf("ShareOK = %v, ShareWarning = %q", rep.ShareOK, rep.ShareWarning)
	}
}

func TestIdentityStopsRunningServiceFirst(t *testing.T) {
	backend := newFakeBackend(svcman.StateRunning)
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err != nil {
		t.Fatalf("ConfigureIdentity: %v", err)
	}

	stop := backend.callOrder("stop")
	set := backend.callOrder("set " + svcman.PropObjectName)
	if stop == -1 || set == -1 || stop > set {
		t.Errorf("calls = %v, want stop before identity write", backend.calls)
	}
}

func TestIdentityAbsentServiceFails(t *testing.T) {
	backend := newFakeBackend(svcman.StateAbsent)
	confirm := &scriptedConfirm{}
	m := newTestManager(t, backend, &fakeRunner{}, confirm)

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})
	if err == nil || !strings.Contains(err.Error(), "not installed") {
		t.Fatalf("err = %v, want not-installed error", err)
	}
	if len(confirm.prompts) != 0 {
		t.Errorf("prompted about an absent service: %v", confirm.prompts)
	}
	if backend.mutations != 0 {
		t.Errorf("absent service mutated: %v", backend.calls)
	}
}

func TestIdentityStartFailureNamesStep(t *testing.T) {
	backend := newFakeBackend(svcman.StateStopped)
	backend.failStart = errors.New("logon failure")
	m := newTestManager(t, backend, &fakeRunner{}, &scriptedConfirm{})

	_, err := m.ConfigureIdentity(context.Background(), creds.Static{
		Cred: creds.Credential{Username: `PLANT\svc_scada`, Password: "pw"},
	})

	var perr *PartialConfigurationError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PartialConfigurationError", err)
	}
	if perr.Step != "start" {
		t.Errorf("Step = %q, want start", perr.Step)
	}
}
