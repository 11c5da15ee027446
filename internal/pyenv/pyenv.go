// Package pyenv derives the environment overlay the collector needs to
// find its Python runtime when running under a service account. The
// overlay is additive: NSSM applies AppEnvironmentExtra on top of the
// base service environment, it never replaces it.
//
// All paths are Windows paths on the service host and are handled
// textually, so the overlay is correct even when scadactl runs remotely
// from another OS.
package pyenv

import "strings"

// Overlay computes the PATH/PYTHONPATH entries for a worker launched
// from pythonExe under runAsUser. machinePath is the host's current
// PATH value, appended so the account keeps resolving system tools.
func Overlay(pythonExe, runAsUser, machinePath string) []string {
	pyDir := winDir(pythonExe)

	pathEntries := []string{pyDir, winJoin(pyDir, "Scripts")}
	if machinePath != "" {
		pathEntries = append(pathEntries, machinePath)
	}

	pythonPath := []string{winJoin(pyDir, "Lib", "site-packages")}
	if user := userSitePackages(pyDir, runAsUser); user != "" {
		pythonPath = append(pythonPath, user)
	}

	return []string{
		"PATH=" + strings.Join(pathEntries, ";"),
		"PYTHONPATH=" + strings.Join(pythonPath, ";"),
		"PYTHONUNBUFFERED=1",
	}
}

// userSitePackages locates the per-user site-packages directory pip
// populates for the run-as account, e.g.
// C:\Users\svc_scada\AppData\Roaming\Python\Python311\site-packages.
// It needs the install directory to be named PythonXY; otherwise the
// user-level entry is skipped.
func userSitePackages(pyDir, runAsUser string) string {
	release := winBase(pyDir)
	if !strings.HasPrefix(strings.ToLower(release), "python") {
		return ""
	}

	account := runAsUser
	if i := strings.LastIndex(account, `\`); i >= 0 {
		account = account[i+1:]
	}
	if account == "" {
		return ""
	}

	return winJoin(`C:\Users`, account, "AppData", "Roaming", "Python", release, "site-packages")
}

func winDir(p string) string {
	i := strings.LastIndexAny(p, `\/`)
	if i < 0 {
		return p
	}
	return strings.TrimRight(p[:i], `\`)
}

func winBase(p string) string {
	i := strings.LastIndexAny(p, `\/`)
	if i < 0 {
		return p
	}
	return p[i+1:]
}

func winJoin(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 {
			// Keep leading backslashes so UNC roots survive.
			cleaned = append(cleaned, strings.TrimRight(p, `\`))
			continue
		}
		cleaned = append(cleaned, strings.Trim(p, `\`))
	}
	return strings.Join(cleaned, `\`)
}
