// Package browser opens URLs in the user's default web browser, used for the
// identity-provider sign-in page and for share links.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens the URL in the default browser, falling back to
// platform-specific commands when the portable launcher fails.
func OpenURL(url string) error {
	if err := open.Run(url); err == nil {
		log.Debugf("opened %s in default browser", url)
		return nil
	}
	return openPlatformSpecific(url)
}

func openPlatformSpecific(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, candidate := range []string{"xdg-open", "x-www-browser", "sensible-browser"} {
			if _, err := exec.LookPath(candidate); err == nil {
				cmd = exec.Command(candidate, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("browser: no launcher found; open %s manually", url)
		}
	default:
		return fmt.Errorf("browser: unsupported platform %s; open %s manually", runtime.GOOS, url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser: launch failed: %w", err)
	}
	return nil
}
