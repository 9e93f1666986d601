package environment

import (
	"os/exec"

	"github.com/AstroAir/github-cli/pkg/logging"
)

// runCommand starts a command without waiting for it to finish. Swapped out
// in tests.
var runCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser attempts to open the given URL in the user's browser, trying
// the platform's launch commands in preference order. The browser process is
// started and not waited on. Returns false when every candidate fails; the
// caller falls back to manual instructions.
func (d *Detector) OpenBrowser(url string) bool {
	var attempts [][]string
	switch d.goos {
	case "darwin":
		attempts = append(attempts, []string{"open", url})
	case "windows":
		attempts = append(attempts, []string{"cmd", "/c", "start", url})
	default:
		for _, name := range d.detectBrowsers() {
			attempts = append(attempts, []string{name, url})
		}
	}

	for _, cmd := range attempts {
		if err := runCommand(cmd[0], cmd[1:]...); err == nil {
			logging.Debug("Environment", "opened browser via %s", cmd[0])
			return true
		}
	}

	logging.Debug("Environment", "no browser could be launched for %s", url)
	return false
}
