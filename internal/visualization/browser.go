package visualization

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens a report file or URL in the user's default browser.
func OpenBrowser(target string) error {
	name, args, err := browserCommand(runtime.GOOS, target)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

// browserCommand returns the opener for goos: xdg-open on Linux, open on
// macOS and cmd start on Windows.
func browserCommand(goos, target string) (string, []string, error) {
	switch goos {
	case "linux":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "cmd", []string{"/c", "start", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
