package rtl

import "errors"

// Backend-facing error kinds, spec.md §7. None of these panic; every
// MidiApi method returns (..., error) and the Player aggregates failures
// into its own de-duplicated log instead of propagating a fatal exception.
var (
	// ErrNoDevices is a warning-only condition: the backend enumerated
	// zero ports.
	ErrNoDevices = errors.New("rtl: no MIDI devices found")

	// ErrInvalidParameter covers an out-of-range port index.
	ErrInvalidParameter = errors.New("rtl: invalid parameter")

	// ErrUnimplemented covers an operation the current backend does not
	// support (e.g. a virtual port on a backend without one). Warning
	// only: the caller should treat it as a no-op, not a hard failure.
	ErrUnimplemented = errors.New("rtl: unimplemented on this backend")

	// ErrBackend wraps a native-API failure captured as a string with
	// backend context.
	ErrBackend = errors.New("rtl: backend error")

	// ErrPortClosed is returned by operations that require an open port.
	ErrPortClosed = errors.New("rtl: port is not open")
)
