//go:build !linux && !darwin

package main

import "io"

// rawMode is a no-op; keys arrive when Enter is pressed
func rawMode(io.Reader) func() {
	return func() {}
}
