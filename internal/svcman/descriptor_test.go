package svcman

import (
	"testing"
	"time"
)

func TestDescriptorPropertySets(t *testing.T) {
	d := Descriptor{
		Program:      `C:\Python311\python.exe`,
		Args:         []string{`C:\hscmt\collector.py`},
		AppDirectory: `C:\hscmt`,
		DisplayName:  "SCADA Collector",
		Description:  "Collects SCADA telemetry into MSSQL",
		StdoutLog:    `C:\hscmt\logs\service-stdout.log`,
		StderrLog:    `C:\hscmt\logs\service-stderr.log`,
	}

	sets := d.PropertySets()

	byProp := map[string][]string{}
	var order []string
	for _, ps := range sets {
		byProp[ps.Property] = ps.Values
		order = append(order, ps.Property)
	}

	// Defaults: automatic start, restart-on-exit with 5s delay, 10 MiB
	// and 24 h rotation.
	wantValues := map[string]string{
		PropStart:            "SERVICE_AUTO_START",
		PropAppRestartDelay:  "5000",
		PropAppRotateBytes:   "10485760",
		PropAppRotateSeconds: "86400",
		PropAppRotateFiles:   "1",
		PropAppRotateOnline:  "1",
		PropAppDirectory:     `C:\hscmt`,
		PropAppStderr:        `C:\hscmt\logs\service-stderr.log`,
	}
	for prop, want := range wantValues {
		vals, ok := byProp[prop]
		if !ok {
			t.Fatalf("property %s not set", prop)
		}
		if vals[0] != want {
			t.Fatalf("%s = %q, want %q", prop, vals[0], want)
		}
	}

	if v := byProp[PropAppExit]; len(v) != 2 || v[0] != "Default" || v[1] != "Restart" {
		t.Fatalf("AppExit = %v, want [Default Restart]", v)
	}

	// Placement before policy before log redirection.
	if order[0] != PropAppDirectory {
		t.Fatalf("first property = %s, want AppDirectory", order[0])
	}
	if order[len(order)-1] != PropAppRotateBytes {
		t.Fatalf("last property = %s, want AppRotateBytes", order[len(order)-1])
	}
}

func TestDescriptorOverrides(t *testing.T) {
	d := Descriptor{
		RestartDelay:  10 * time.Second,
		RotateBytes:   1024,
		RotateSeconds: 3600,
	}

	byProp := map[string][]string{}
	for _, ps := range d.PropertySets() {
		byProp[ps.Property] = ps.Values
	}

	if byProp[PropAppRestartDelay][0] != "10000" {
		t.Fatalf("AppRestartDelay = %v", byProp[PropAppRestartDelay])
	}
	if byProp[PropAppRotateBytes][0] != "1024" {
		t.Fatalf("AppRotateBytes = %v", byProp[PropAppRotateBytes])
	}
	if byProp[PropAppRotateSeconds][0] != "3600" {
		t.Fatalf("AppRotateSeconds = %v", byProp[PropAppRotateSeconds])
	}
}
