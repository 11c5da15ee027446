// Package elevation answers one question: is this process privileged
// enough to deregister a service? Removal needs an elevated token, and
// the hint is worth more to an operator than a bare access-denied.
package elevation

// IsElevated reports whether the current process runs with
// administrative rights.
func IsElevated() bool {
	return isElevated()
}
