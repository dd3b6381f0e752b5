package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped in tests so no browser is launched.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenURL opens an http(s) link, such as the tracking spreadsheet, in the default system browser.
//
// Supports macOS, Linux, and Windows platforms.
func OpenURL(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not a web link: %q", ErrInvalidArgument, link)
	}

	var name string
	var args []string
	switch rt := getRuntime(); rt {
	case "darwin":
		name, args = "open", []string{link}
	case "linux":
		name, args = "xdg-open", []string{link}
	case "windows":
		name, args = "cmd", []string{"/c", "start", link}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// SpreadsheetURL returns the browser link for a Google spreadsheet id.
func SpreadsheetURL(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + url.PathEscape(id)
}
