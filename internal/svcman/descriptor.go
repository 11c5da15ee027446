package svcman

import (
	"strconv"
	"time"
)

// Registration defaults. The restart delay and rotation thresholds
// mirror what the collector deployment has always run with.
const (
	DefaultRestartDelay  = 5000 * time.Millisecond
	DefaultRotateBytes   = 10 * 1024 * 1024
	DefaultRotateSeconds = 86400
)

// Descriptor is the full property set registered for the service. The
// backend owns the stored copy; this struct only describes what the
// orchestrator asks it to record.
type Descriptor struct {
	Program       string
	Args          []string
	AppDirectory  string
	DisplayName   string
	Description   string
	RestartDelay  time.Duration
	StdoutLog     string
	StderrLog     string
	RotateBytes   int64
	RotateSeconds int
}

// PropertySet is one backend set command: a property and its values.
type PropertySet struct {
	Property string
	Values   []string
}

// PropertySets returns the ordered property writes that complete a
// registration. Order matters to operators reading partial-failure
// reports: placement first, policies second, log redirection last.
func (d Descriptor) PropertySets() []PropertySet {
	delay := d.RestartDelay
	if delay <= 0 {
		delay = DefaultRestartDelay
	}
	rotateBytes := d.RotateBytes
	if rotateBytes <= 0 {
		rotateBytes = DefaultRotateBytes
	}
	rotateSeconds := d.RotateSeconds
	if rotateSeconds <= 0 {
		rotateSeconds = DefaultRotateSeconds
	}

	sets := []PropertySet{
		{PropAppDirectory, []string{d.AppDirectory}},
		{PropDisplayName, []string{d.DisplayName}},
		{PropDescription, []string{d.Description}},
		{PropStart, []string{StartAuto}},
		{PropAppExit, []string{"Default", "Restart"}},
		{PropAppRestartDelay, []string{strconv.FormatInt(delay.Milliseconds(), 10)}},
		{PropAppStdout, []string{d.StdoutLog}},
		{PropAppStderr, []string{d.StderrLog}},
		{PropAppRotateFiles, []string{"1"}},
		{PropAppRotateOnline, []string{"1"}},
		{PropAppRotateSeconds, []string{strconv.Itoa(rotateSeconds)}},
		{PropAppRotateBytes, []string{strconv.FormatInt(rotateBytes, 10)}},
	}
	return sets
}
