// scadactl manages the SCADA Collector worker as a Windows service:
// install, uninstall, restart, run-as identity, and a handful of
// read-only diagnostics. It drives NSSM locally or over WinRM.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/maerty1/scada/cmd/scadactl/commands"
)

// Build-time variables injected via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	commands.Version = version
	commands.BuildTime = buildTime

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
