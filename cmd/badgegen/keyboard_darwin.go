//go:build darwin

package main

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// rawMode disables line buffering and echo on a terminal stdin. It returns
// the function restoring the previous state.
func rawMode(in io.Reader) func() {
	f, ok := in.(*os.File)
	if !ok {
		return func() {}
	}
	fd := int(f.Fd())

	oldState, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return func() {}
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, &newState); err != nil {
		return func() {}
	}
	return func() {
		unix.IoctlSetTermios(fd, unix.TIOCSETA, oldState)
	}
}
