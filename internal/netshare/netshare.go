// Package netshare mounts the TC2 workbook share with the service
// credential and probes that the configured directory is reachable.
// This is the identity health check: if the new run-as account cannot
// see the share, the collector will start but never sync.
package netshare

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/maerty1/scada/internal/svcman"
)

// BasePath reduces a UNC path to its share root: the first two
// components. \\192.168.230.241\c$\hscmt\... mounts as
// \\192.168.230.241\c$.
func BasePath(unc string) (string, error) {
	if !strings.HasPrefix(unc, `\\`) {
		return "", fmt.Errorf("not a UNC path: %q", unc)
	}
	parts := strings.Split(strings.TrimPrefix(unc, `\\`), `\`)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("UNC path %q has no share component", unc)
	}
	return `\\` + parts[0] + `\` + parts[1], nil
}

// Connect mounts the base share of unc under the given account using a
// non-persistent connection. An existing connection to the same share
// is tolerated; conflicting-credential errors are not.
func Connect(ctx context.Context, r svcman.Runner, unc, username, password string) error {
	base, err := BasePath(unc)
	if err != nil {
		return err
	}

	res, err := r.Run(ctx, "net", "use", base, "/user:"+username, password, "/persistent:no")
	if err != nil {
		return fmt.Errorf("net use %s: %w", base, err)
	}
	if res.ExitCode != 0 {
		out := res.Combined()
		if alreadyConnected(out) {
			log.Printf("[netshare] %s already connected, reusing", base)
			return nil
		}
		return fmt.Errorf("net use %s: exit %d: %s", base, res.ExitCode, out)
	}

	log.Printf("[netshare] connected %s as %s", base, username)
	return nil
}

// Probe checks the configured directory is visible on the target.
func Probe(ctx context.Context, r svcman.Runner, dir string) error {
	ok, err := r.PathExists(ctx, dir)
	if err != nil {
		return fmt.Errorf("probe %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("share directory %s is not reachable", dir)
	}
	return nil
}

// alreadyConnected recognizes the "multiple connections to a server"
// refusal (system error 1219) that net use raises when the share is
// mounted with any credential already.
func alreadyConnected(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "1219") || strings.Contains(lower, "already") || strings.Contains(lower, "multiple connections")
}
