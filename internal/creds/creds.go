// Package creds resolves the run-as credential for the collector
// service. Sources are tried in order (deployment config first, then
// the interactive prompt); the credential is read once per operation,
// never persisted, and never logged.
package creds

import (
	"errors"
	"fmt"
	"log"
)

// ErrMissingCredential means no source produced a usable credential.
// Empty usernames count as missing.
var ErrMissingCredential = errors.New("no run-as credential available")

// Credential is a service account and its secret.
type Credential struct {
	Username string
	Password string
}

// Present reports whether the credential names an account.
func (c Credential) Present() bool {
	return c.Username != ""
}

// String never exposes the secret. Credentials end up in fmt verbs and
// journal details more easily than one would like.
func (c Credential) String() string {
	if !c.Present() {
		return "(no credential)"
	}
	return fmt.Sprintf("%s (password hidden)", c.Username)
}

// Source yields a credential or reports that it has none. The boolean
// is false when the source has nothing to offer; errors abort the
// whole resolution (for example a prompt interrupted with Ctrl+C).
type Source interface {
	Credential() (Credential, bool, error)
	Name() string
}

// Chain tries each source in order and returns the first present
// credential. Chain itself implements Source, so chains nest.
type Chain []Source

func (ch Chain) Credential() (Credential, bool, error) {
	for _, src := range ch {
		cred, ok, err := src.Credential()
		if err != nil {
			return Credential{}, false, err
		}
		if ok && cred.Present() {
			log.Printf("[creds] run-as credential resolved from %s", src.Name())
			return cred, true, nil
		}
	}
	return Credential{}, false, nil
}

func (ch Chain) Name() string { return "chain" }

// Static is a fixed credential, used for flag-supplied accounts and in
// tests. It reports absent when the username is empty.
type Static struct {
	Cred Credential
	From string
}

func (s Static) Credential() (Credential, bool, error) {
	return s.Cred, s.Cred.Present(), nil
}

func (s Static) Name() string {
	if s.From != "" {
		return s.From
	}
	return "static"
}

// Config reads the service section of the deployment config. Absence
// of the section or its fields is an absent credential, not an error.
type Config struct {
	User     string
	Password string
}

func (c Config) Credential() (Credential, bool, error) {
	cred := Credential{Username: c.User, Password: c.Password}
	return cred, cred.Present(), nil
}

func (c Config) Name() string { return "config" }

// PromptFunc captures a credential interactively. It is the terminal
// source of a chain: whatever it returns is final, and an empty
// username resolves to ErrMissingCredential at the caller.
type PromptFunc func() (Credential, error)

func (p PromptFunc) Credential() (Credential, bool, error) {
	cred, err := p()
	if err != nil {
		return Credential{}, false, err
	}
	return cred, cred.Present(), nil
}

func (p PromptFunc) Name() string { return "prompt" }

// Resolve runs the source and maps exhaustion to ErrMissingCredential.
func Resolve(src Source) (Credential, error) {
	cred, ok, err := src.Credential()
	if err != nil {
		return Credential{}, err
	}
	if !ok {
		return Credential{}, ErrMissingCredential
	}
	return cred, nil
}
