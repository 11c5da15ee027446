package svcman

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// RunResult is the outcome of a single backend command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr joined for diagnostics.
func (r RunResult) Combined() string {
	out := strings.TrimSpace(r.Stdout)
	errout := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errout
	case errout == "":
		return out
	default:
		return out + "\n" + errout
	}
}

// Runner executes commands on the machine hosting the service. The
// local implementation uses os/exec; internal/remote provides a WinRM
// implementation for driving a remote collector host.
type Runner interface {
	// Run executes the command and returns its output. A non-zero exit
	// code is reported in the result, not as an error; the error is
	// reserved for failures to execute at all.
	Run(ctx context.Context, name string, args ...string) (RunResult, error)

	// PathExists reports whether a file or directory exists on the
	// target machine.
	PathExists(ctx context.Context, path string) (bool, error)
}

// LocalRunner executes commands on the local machine.
type LocalRunner struct{}

func (LocalRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{
		Stdout: DecodeConsole(stdout.Bytes()),
		Stderr: DecodeConsole(stderr.Bytes()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func (LocalRunner) PathExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// DecodeConsole converts command output to UTF-8. NSSM writes UTF-16LE
// when its output is redirected, which would otherwise show up as
// NUL-riddled garbage in comparisons and logs.
func DecodeConsole(b []byte) string {
	if len(b) >= 2 && ((b[0] == 0xff && b[1] == 0xfe) || (b[0] != 0 && b[1] == 0)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return string(out)
		}
	}
	return string(b)
}
