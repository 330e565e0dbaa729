// Package cursor keeps the time of the last successful all-orders run as
// the modification time of a marker file.
package cursor

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// DefaultPath is the marker file in the working directory
const DefaultPath = ".last_update"

// Cursor is a file whose mtime records the last run
type Cursor struct {
	path string
}

// New returns the cursor stored at path
func New(path string) *Cursor {
	return &Cursor{path: path}
}

// Path returns the marker file location
func (c *Cursor) Path() string {
	return c.path
}

// Load returns the last run time. ok is false when no run has completed.
func (c *Cursor) Load() (t time.Time, ok bool, err error) {
	info, err := os.Stat(c.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, errors.ErrInternal, "stat cursor %s", c.path)
	}
	return info.ModTime(), true, nil
}

// Touch records at as the last run time, creating the file if needed
func (c *Cursor) Touch(at time.Time) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "create cursor dir %s", dir)
		}
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "create cursor %s", c.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "close cursor %s", c.path)
	}
	if err := os.Chtimes(c.path, at, at); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "set cursor time %s", c.path)
	}
	return nil
}

// Skip reports whether an order was last paid before since. Orders are
// judged by their payments; one without payments falls back to placed,
// and one with neither is never skipped.
func Skip(since time.Time, payments []time.Time, placed time.Time) bool {
	if since.IsZero() {
		return false
	}
	if len(payments) == 0 {
		return !placed.IsZero() && placed.Before(since)
	}
	for _, p := range payments {
		if !p.Before(since) {
			return false
		}
	}
	return true
}
