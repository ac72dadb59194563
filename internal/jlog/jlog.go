// Package jlog provides the quiet-aware logger used across jcore.
//
// Unlike a generic debug flag, jlog is driven directly by the `quiet`
// configuration option (spec §6): when quiet is set every call becomes a
// no-op. There is no separate "debug build" gate — the engine always logs
// recoverable failures (stale edits, resolution misses, truncated
// candidate lists) unless the workspace has explicitly asked to be quiet.
package jlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	quiet  bool
	output io.Writer = os.Stderr
)

// SetQuiet toggles whether log output is suppressed entirely.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetOutput redirects log output, primarily for tests. Passing nil
// restores os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	output = w
}

func writer() (io.Writer, bool) {
	mu.Lock()
	defer mu.Unlock()
	return output, quiet
}

// Warn logs a recoverable condition: a dropped stale edit, an empty
// resolution result, a truncated candidate list, a caught facade error.
// None of these are fatal to the caller (spec §7); they are surfaced here
// so a host can still observe them.
func Warn(component, format string, args ...any) {
	w, q := writer()
	if q {
		return
	}
	fmt.Fprintf(w, "[jcore:%s] "+format+"\n", append([]any{component}, args...)...)
}

// Info logs a non-warning, user-visible event (workspace root changes,
// catalog reloads). Suppressed under quiet exactly like Warn.
func Info(component, format string, args ...any) {
	w, q := writer()
	if q {
		return
	}
	fmt.Fprintf(w, "[jcore:%s] "+format+"\n", append([]any{component}, args...)...)
}
