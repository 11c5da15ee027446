package wmi

import (
	"context"
	"fmt"
	"strings"
)

const cimNamespace = `root\CIMV2`

// WorkerProcessCount counts live python processes whose command line
// references the worker script. CommandLine matching happens Go-side
// because WQL LIKE escaping of backslash-heavy paths is not worth it.
func WorkerProcessCount(ctx context.Context, script string) (int, error) {
	results, err := Query(ctx, cimNamespace,
		"SELECT CommandLine FROM Win32_Process WHERE Name LIKE 'python%'")
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range results {
		cmdline, ok := GetPropertyString(r, "CommandLine")
		if !ok {
			continue
		}
		if matchesScript(cmdline, script) {
			count++
		}
	}
	return count, nil
}

// ServiceAccount reads the account the service manager has on file for
// the service (Win32_Service.StartName), for corroborating identity
// changes against what the backend reports.
func ServiceAccount(ctx context.Context, name string) (string, error) {
	result, err := QuerySingle(ctx, cimNamespace,
		fmt.Sprintf("SELECT StartName FROM Win32_Service WHERE Name = '%s'", escapeWQL(name)))
	if err != nil {
		return "", err
	}

	account, ok := GetPropertyString(result, "StartName")
	if !ok {
		return "", fmt.Errorf("service %s has no StartName", name)
	}
	return account, nil
}

// matchesScript reports whether a process command line references the
// script, compared case-insensitively on the script's base name.
func matchesScript(cmdline, script string) bool {
	base := script
	if i := strings.LastIndexAny(script, `\/`); i >= 0 {
		base = script[i+1:]
	}
	if base == "" {
		return false
	}
	return strings.Contains(strings.ToLower(cmdline), strings.ToLower(base))
}

// escapeWQL escapes a value for embedding in a single-quoted WQL
// string literal.
func escapeWQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
