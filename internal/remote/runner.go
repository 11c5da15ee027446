// Package remote runs commands on the collector host over WinRM, so the
// orchestrator can manage a service on a plant machine without being
// installed there. NTLM auth is used because Basic is rarely enabled on
// domain-joined hosts.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	gowinrm "github.com/masterzen/winrm"

	"github.com/maerty1/scada/internal/svcman"
)

// Target describes the Windows machine to drive.
type Target struct {
	Host     string
	Port     int    // 0 means the protocol default
	Username string // DOMAIN\user format
	Password string
	UseSSL   bool
	Insecure bool // skip TLS certificate verification
}

func (t Target) portOrDefault() int {
	if t.Port != 0 {
		return t.Port
	}
	if t.UseSSL {
		return 5986
	}
	return 5985
}

// Runner executes commands on a remote host. It satisfies svcman.Runner.
type Runner struct {
	client *gowinrm.Client
	host   string
}

// Dial builds a WinRM client for the target. No connection is made until
// the first command runs.
func Dial(target Target) (*Runner, error) {
	port := target.portOrDefault()
	endpoint := gowinrm.NewEndpoint(target.Host, port, target.UseSSL, target.Insecure, nil, nil, nil, 120*time.Second)

	params := gowinrm.NewParameters("PT120S", "en-US", 153600)
	params.TransportDecorator = func() gowinrm.Transporter { return &gowinrm.ClientNTLM{} }

	client, err := gowinrm.NewClientWithParameters(endpoint, target.Username, target.Password, params)
	if err != nil {
		return nil, fmt.Errorf("create WinRM client for %s: %w", target.Host, err)
	}

	log.Printf("[remote] target %s:%d (ssl=%v)", target.Host, port, target.UseSSL)
	return &Runner{client: client, host: target.Host}, nil
}

// Run executes a command on the remote host. Non-zero exit codes are
// reported in the result; the error covers transport and shell failures.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (svcman.RunResult, error) {
	shell, err := r.client.CreateShell()
	if err != nil {
		return svcman.RunResult{}, fmt.Errorf("create shell on %s: %w", r.host, err)
	}
	defer shell.Close()

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quoteArg(a)
	}

	cmd, err := shell.ExecuteWithContext(ctx, quoteArg(name), quoted...)
	if err != nil {
		return svcman.RunResult{}, fmt.Errorf("execute on %s: %w", r.host, err)
	}
	defer cmd.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	go io.Copy(&stdoutBuf, cmd.Stdout)
	go io.Copy(&stderrBuf, cmd.Stderr)

	cmd.Wait()

	return svcman.RunResult{
		Stdout:   svcman.DecodeConsole(stdoutBuf.Bytes()),
		Stderr:   svcman.DecodeConsole(stderrBuf.Bytes()),
		ExitCode: cmd.ExitCode(),
	}, nil
}

// PathExists checks for a file or directory on the remote host.
func (r *Runner) PathExists(ctx context.Context, path string) (bool, error) {
	res, err := r.Run(ctx, "cmd.exe", "/c", fmt.Sprintf(`if exist "%s" (exit 0) else (exit 1)`, path))
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// quoteArg quotes an argument for the WinRS command line. Arguments are
// joined with spaces on the wire, so anything containing whitespace has
// to be wrapped, with embedded quotes escaped for CommandLineToArgvW.
func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
