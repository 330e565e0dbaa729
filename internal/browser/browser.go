// Package browser hands the desk URL and rendered badges to the desktop's
// default viewer.
package browser

import (
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// Starter launches a detached process (for testing)
type Starter interface {
	Start(name string, args ...string) error
}

// ExecStarter launches real processes
type ExecStarter struct{}

// Start runs name without waiting for it to exit
func (ExecStarter) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultStarter Starter = ExecStarter{}

// Open shows an http(s) URL or an existing file in the default viewer
func Open(target string) error {
	return OpenWith(target, defaultStarter, runtime.GOOS)
}

// OpenWith opens target using the given starter and OS (for testing)
func OpenWith(target string, starter Starter, goos string) error {
	target, err := normalize(target)
	if err != nil {
		return err
	}

	var name string
	var args []string

	switch goos {
	case "linux":
		name = "xdg-open"
		args = []string{target}
	case "darwin":
		name = "open"
		args = []string{target}
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", target}
	default:
		return errors.Configf("unsupported platform: %s", goos)
	}

	return starter.Start(name, args...)
}

// normalize accepts web URLs as-is and turns files into absolute paths
func normalize(target string) (string, error) {
	if u, err := url.Parse(target); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return target, nil
	}
	if _, err := os.Stat(target); err != nil {
		return "", errors.InvalidInputf("cannot open %q: not a web URL or existing file", target)
	}
	return filepath.Abs(target)
}
