package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abrezinsky/badgegen/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// deskKeys performs the serve keyboard shortcuts
type deskKeys struct {
	out     io.Writer
	deskURL string
	log     *logger.SlogLogger
	open    func(string) error
	quit    func()
}

// handle runs the action bound to key and reports whether to stop listening
func (k *deskKeys) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "o":
		fmt.Fprintf(k.out, "%sOpening desk in browser...%s\n", cyan, reset)
		if err := k.open(k.deskURL); err != nil {
			fmt.Fprintf(k.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if k.log.IsHTTPLoggingEnabled() {
			k.log.DisableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			k.log.EnableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		next := nextLogLevel(k.log.GetLevel().String())
		k.log.SetLevel(logger.ParseLevel(next))
		fmt.Fprintf(k.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
	case "q", "\x03":
		fmt.Fprintf(k.out, "%sShutting down desk...%s\n", yellow, reset)
		k.quit()
		return true
	case "?":
		printKeyboardHelp(k.out)
	}
	return false
}

// nextLogLevel cycles through debug -> info -> warn -> error
func nextLogLevel(current string) string {
	switch current {
	case "DEBUG":
		return "info"
	case "INFO":
		return "warn"
	case "WARN":
		return "error"
	case "ERROR":
		return "debug"
	default:
		return "info"
	}
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(w, "    %so%s      - Open desk in browser\n", cyan, reset)
	fmt.Fprintf(w, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(w, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(w, "    %sq%s      - Quit desk\n", cyan, reset)
	fmt.Fprintf(w, "    %s?%s      - Show this help\n\n", cyan, reset)
}

// listenForKeyboard puts in into single-key mode when it is a terminal and
// dispatches keys until quit, ctx is done, or in is exhausted
func listenForKeyboard(ctx context.Context, in io.Reader, keys *deskKeys) {
	restore := rawMode(in)
	defer restore()

	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := in.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if keys.handle(buf[0]) {
			return
		}
	}
}
