// Package wmi corroborates service state through Windows Management
// Instrumentation. The backend's status alone is not trusted as proof
// of life: it can report running after the worker process has already
// died, so restart and identity reports cross-check Win32_Process and
// Win32_Service directly.
//
// Queries use go-ole on Windows; on other platforms they return an
// error and callers degrade to backend-only reporting.
package wmi

import (
	"context"
	"fmt"
	"runtime"
)

// QueryResult is one WMI object as a property map.
type QueryResult map[string]interface{}

// Query executes a WQL query against the given namespace.
func Query(ctx context.Context, namespace, query string) ([]QueryResult, error) {
	if runtime.GOOS != "windows" {
		return nil, fmt.Errorf("WMI queries only supported on Windows")
	}
	return queryWindows(ctx, namespace, query)
}

// QuerySingle executes a query expected to match exactly one object.
func QuerySingle(ctx context.Context, namespace, query string) (QueryResult, error) {
	results, err := Query(ctx, namespace, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for query")
	}
	return results[0], nil
}

// GetPropertyString extracts a string property from a QueryResult.
func GetPropertyString(result QueryResult, name string) (string, bool) {
	val, ok := result[name]
	if !ok {
		return "", false
	}
	sval, ok := val.(string)
	return sval, ok
}
