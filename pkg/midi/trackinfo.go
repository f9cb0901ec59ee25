package midi

// TimeSignature is the decoded payload of a 0x58 meta event.
type TimeSignature struct {
	Numerator         byte // beats per bar
	LogDenominator    byte // denominator is 2^LogDenominator
	ClocksPerMetro    byte // MIDI clocks per metronome click
	ThirtySecondsPerQ byte // notated 32nd notes per quarter note
}

// BeatWidth returns the actual denominator (2^LogDenominator).
func (ts TimeSignature) BeatWidth() int { return 1 << ts.LogDenominator }

// KeySignature is the decoded payload of a 0x59 meta event.
type KeySignature struct {
	SharpsFlats int8 // -7..7, negative = flats, positive = sharps
	Minor       bool
}

// TrackInfo holds the metadata extracted from a track during parsing:
// name, nominal channel, nominal bus, tempo/time-sig/key-sig, and length.
// Populated by TrackData.Parse, consulted by TrackData.Put when
// synthesizing track-0 meta events. See spec.md §3.
type TrackInfo struct {
	Name string

	// NominalChannel is the channel this track's events are forced onto
	// when writing, unless it equals FreeChannel (spec.md's "free
	// channel" sentinel meaning "keep each event's own channel").
	NominalChannel byte
	NominalBus     int

	HasTempo   bool
	MicrosPerQ uint32 // microseconds per quarter note

	HasTimeSig bool
	TimeSig    TimeSignature

	HasKeySig bool
	KeySig    KeySignature

	SMPTEOffset []byte // preserved verbatim, deprecated meta 0x54

	SeqNumber    int
	HasSeqNumber bool

	// Length is the track's nominal length in pulses, used by Track.Play
	// to compute the loop/wrap point.
	Length Pulse
}

// NewTrackInfo returns a TrackInfo with the free-channel sentinel and no
// metadata set.
func NewTrackInfo() TrackInfo {
	return TrackInfo{NominalChannel: FreeChannel}
}

// BPM returns the tempo in beats per minute, or 0 if no tempo was recorded.
func (ti *TrackInfo) BPM() float64 {
	if !ti.HasTempo || ti.MicrosPerQ == 0 {
		return 0
	}
	return 60_000_000.0 / float64(ti.MicrosPerQ)
}

// SetBPM stores bpm as a microseconds-per-quarter-note tempo.
func (ti *TrackInfo) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	ti.MicrosPerQ = uint32(60_000_000.0 / bpm)
	ti.HasTempo = true
}
