package creds

import (
	"errors"
	"strings"
	"testing"
)

type countingPrompt struct {
	cred  Credential
	err   error
	calls int
}

func (p *countingPrompt) prompt() (Credential, error) {
	p.calls++
	return p.cred, p.err
}

func TestChainPrefersConfig(t *testing.T) {
	prompt := &countingPrompt{cred: Credential{Username: "prompted"}}
	chain := Chain{
		Config{User: `PLANT\svc_scada`, Password: "s3cret"},
		PromptFunc(prompt.prompt),
	}

	cred, err := Resolve(chain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cred.Username != `PLANT\svc_scada` {
		t.Fatalf("username = %q", cred.Username)
	}
	if prompt.calls != 0 {
		t.Fatalf("prompt called %d times, want 0", prompt.calls)
	}
}

func TestChainFallsBackToPromptExactlyOnce(t *testing.T) {
	prompt := &countingPrompt{cred: Credential{Username: "PLANT\\operator", Password: "pw"}}
	chain := Chain{
		Config{}, // no service section
		PromptFunc(prompt.prompt),
	}

	cred, err := Resolve(chain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cred.Username != "PLANT\\operator" {
		t.Fatalf("username = %q", cred.Username)
	}
	if prompt.calls != 1 {
		t.Fatalf("prompt called %d times, want exactly 1", prompt.calls)
	}
}

func TestEmptyPromptUsernameIsMissingCredential(t *testing.T) {
	prompt := &countingPrompt{cred: Credential{Username: ""}}
	chain := Chain{Config{}, PromptFunc(prompt.prompt)}

	_, err := Resolve(chain)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if prompt.calls != 1 {
		t.Fatalf("prompt called %d times, want 1", prompt.calls)
	}
}

func TestPromptErrorAbortsResolution(t *testing.T) {
	wantErr := errors.New("aborted")
	prompt := &countingPrompt{err: wantErr}
	chain := Chain{Config{}, PromptFunc(prompt.prompt)}

	_, err := Resolve(chain)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want prompt error", err)
	}
}

func TestStaticSkippedWhenEmpty(t *testing.T) {
	chain := Chain{
		Static{From: "flags"},
		Config{User: "from-config"},
	}

	cred, err := Resolve(chain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cred.Username != "from-config" {
		t.Fatalf("username = %q, want from-config", cred.Username)
	}
}

func TestCredentialStringRedactsSecret(t *testing.T) {
	cred := Credential{Username: `PLANT\svc_scada`, Password: "hunter2"}
	s := cred.String()
	if strings.Contains(s, "hunter2") {
		t.Fatalf("secret leaked: %q", s)
	}
	if !strings.Contains(s, `PLANT\svc_scada`) {
		t.Fatalf("username missing from %q", s)
	}

	if got := (Credential{}).String(); got != "(no credential)" {
		t.Fatalf("empty String = %q", got)
	}
}
