package midi

import "errors"

// Error kinds surfaced by the SMF codec. None of these are panics: every
// parse/write path returns one of these (wrapped with context) instead of
// throwing, matching the "no exceptions leak out of the core" rule.
var (
	// ErrBadFormat covers a missing/garbled MThd, an unsupported SMF
	// format (2), or an SMPTE (frame-based) division.
	ErrBadFormat = errors.New("midi: bad file format")

	// ErrBadVarinum is returned when a variable-length quantity exceeds
	// four bytes or the value 0x0FFFFFFF.
	ErrBadVarinum = errors.New("midi: variable-length quantity out of range")

	// ErrTruncated is returned when the cursor runs out of bytes mid-event.
	ErrTruncated = errors.New("midi: truncated data")

	// ErrRunningStatus is returned when a data byte arrives with no
	// running status in force and the configured RunningStatusAction is
	// ActionProceed or ActionAbort.
	ErrRunningStatus = errors.New("midi: data byte with no running status")

	// ErrCorruptLength is returned when a meta or SysEx length field
	// exceeds the varinum range.
	ErrCorruptLength = errors.New("midi: corrupt length field")
)

// RunningStatusAction selects the recovery policy applied by TrackData.Parse
// when a data byte is encountered with no status byte (or no running
// status) in force. Grounded on include/midi/trackdata.hpp's rsaction enum.
type RunningStatusAction int

const (
	// ActionRecover reuses the last-known running status, even across a
	// System Common reset, and keeps parsing.
	ActionRecover RunningStatusAction = iota
	// ActionSkip drops the remainder of the current track and stops
	// cleanly, keeping whatever events were parsed so far.
	ActionSkip
	// ActionProceed lets ErrRunningStatus propagate out of Parse.
	ActionProceed
	// ActionAbort stops parsing the entire file, not just this track.
	ActionAbort
)

func (a RunningStatusAction) String() string {
	switch a {
	case ActionRecover:
		return "recover"
	case ActionSkip:
		return "skip"
	case ActionProceed:
		return "proceed"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}
