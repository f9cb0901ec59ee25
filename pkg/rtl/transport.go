package rtl

import (
	"sync"
	"sync/atomic"

	"github.com/rtl66go/midiengine/pkg/midi"
)

// Timebase selects which of the three time sources described in spec.md §5
// is authoritative for the current tick stream.
type Timebase int

const (
	TimebaseNone Timebase = iota
	TimebaseInternal
	TimebaseJackMaster
	TimebaseJackSlave
	TimebaseMidiClock
)

func (t Timebase) String() string {
	switch t {
	case TimebaseInternal:
		return "internal"
	case TimebaseJackMaster:
		return "jack-master"
	case TimebaseJackSlave:
		return "jack-slave"
	case TimebaseMidiClock:
		return "midi-clock"
	default:
		return "none"
	}
}

// TransportInfo is the current tempo/position state shared between the
// output thread, the input thread, and any backend transport callback
// (spec.md §3). ResolutionChange is an atomic flag: mutators set it after
// changing BPM/PPQN, and the output thread clears it after recomputing its
// derived quantities, giving acquire/release visibility without a lock on
// the hot path.
type TransportInfo struct {
	mu sync.RWMutex

	Timebase Timebase

	bpm            float64
	beatsPerBar    int
	beatWidth      int
	ppqn           int
	oneMeasure     midi.Pulse
	leftMarker     midi.Pulse
	rightMarker    midi.Pulse
	loop           bool
	currentTick    midi.Pulse
	startTick      midi.Pulse
	microsPerQuart uint32

	resolutionChange atomic.Bool
}

// NewTransportInfo returns a TransportInfo at 120 BPM, 4/4, PPQN 192 —
// the same defaults spec.md's worked examples use.
func NewTransportInfo() *TransportInfo {
	t := &TransportInfo{
		bpm: 120, beatsPerBar: 4, beatWidth: 4, ppqn: 192,
		rightMarker: midi.Pulse(192 * 4 * 4),
	}
	t.microsPerQuart = uint32(60_000_000.0 / t.bpm)
	t.recomputeOneMeasure()
	return t
}

func (t *TransportInfo) recomputeOneMeasure() {
	ppNote := 4 * t.ppqn / t.beatWidth
	t.oneMeasure = midi.Pulse(ppNote * t.beatsPerBar)
}

// BPM returns the current tempo.
func (t *TransportInfo) BPM() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bpm
}

// SetBPM updates the tempo and raises ResolutionChange.
func (t *TransportInfo) SetBPM(bpm float64) {
	if bpm <= 0 {
		return
	}
	t.mu.Lock()
	t.bpm = bpm
	t.microsPerQuart = uint32(60_000_000.0 / bpm)
	t.mu.Unlock()
	t.resolutionChange.Store(true)
}

// MicrosPerQuarter returns the current tempo as microseconds per quarter
// note, the unit Set Tempo meta events use.
func (t *TransportInfo) MicrosPerQuarter() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.microsPerQuart
}

// PPQN returns the current pulses-per-quarter-note resolution.
func (t *TransportInfo) PPQN() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ppqn
}

// SetPPQN updates PPQN (legal range 32-19200 per spec.md §3; out-of-range
// values are silently clamped) and raises ResolutionChange.
func (t *TransportInfo) SetPPQN(ppqn int) {
	if ppqn < 32 {
		ppqn = 32
	} else if ppqn > 19200 {
		ppqn = 19200
	}
	t.mu.Lock()
	t.ppqn = ppqn
	t.recomputeOneMeasure()
	t.mu.Unlock()
	t.resolutionChange.Store(true)
}

// SetTimeSignature updates beats-per-bar/beat-width and recomputes
// OneMeasure.
func (t *TransportInfo) SetTimeSignature(beatsPerBar, beatWidth int) {
	if beatsPerBar <= 0 || beatWidth <= 0 {
		return
	}
	t.mu.Lock()
	t.beatsPerBar = beatsPerBar
	t.beatWidth = beatWidth
	t.recomputeOneMeasure()
	t.mu.Unlock()
	t.resolutionChange.Store(true)
}

// OneMeasure returns the current bar length in pulses.
func (t *TransportInfo) OneMeasure() midi.Pulse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.oneMeasure
}

// Markers returns the left/right loop markers.
func (t *TransportInfo) Markers() (left, right midi.Pulse) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.leftMarker, t.rightMarker
}

// SetMarkers sets the left/right loop markers.
func (t *TransportInfo) SetMarkers(left, right midi.Pulse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leftMarker, t.rightMarker = left, right
}

// Loop reports whether looped playback is enabled.
func (t *TransportInfo) Loop() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loop
}

// SetLoop enables/disables looped playback.
func (t *TransportInfo) SetLoop(loop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loop = loop
}

// CurrentTick returns the transport's current tick.
func (t *TransportInfo) CurrentTick() midi.Pulse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentTick
}

// SetCurrentTick repositions the transport.
func (t *TransportInfo) SetCurrentTick(tick midi.Pulse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentTick = tick
}

// StartTick returns the configured playback start position.
func (t *TransportInfo) StartTick() midi.Pulse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startTick
}

// SetStartTick sets the configured playback start position.
func (t *TransportInfo) SetStartTick(tick midi.Pulse) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTick = tick
}

// ConsumeResolutionChange reports and clears the resolution-change flag,
// meant to be polled once per output-thread slice.
func (t *TransportInfo) ConsumeResolutionChange() bool {
	return t.resolutionChange.Swap(false)
}

// ClockInfo is the MIDI Beat Clock state described in spec.md §3/§4.9.
type ClockInfo struct {
	mu sync.Mutex

	UseMidiClock  bool
	running       bool
	tick          midi.Pulse
	increment     midi.Pulse // PPQN/24
	seekPos       midi.Pulse // -1 means "none"
}

// NewClockInfo returns a ClockInfo configured for the given PPQN, with no
// pending seek.
func NewClockInfo(ppqn int) *ClockInfo {
	return &ClockInfo{increment: midi.Pulse(ppqn / 24), seekPos: midi.Pulse(-1)}
}

// Running reports whether MIDI Beat Clock playback is started.
func (c *ClockInfo) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start marks the clock running and resets its tick accumulator.
func (c *ClockInfo) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.tick = 0
}

// Continue marks the clock running without resetting the tick
// accumulator.
func (c *ClockInfo) Continue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
}

// Stop marks the clock stopped.
func (c *ClockInfo) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Tick advances the clock accumulator by one MIDI Beat Clock pulse
// (increment, i.e. PPQN/24 engine pulses) and returns the new tick.
func (c *ClockInfo) Tick() midi.Pulse {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.tick += c.increment
	}
	return c.tick
}

// CurrentTick returns the accumulated clock tick.
func (c *ClockInfo) CurrentTick() midi.Pulse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// SetSongPosition records a Song Position Pointer seek target:
// d0/d1 are the two 7-bit data bytes of an F2 message, combined per
// spec.md §4.9 into a sixteenth-note count (d1<<7 | d0), then converted to
// engine pulses as 6 MIDI-clocks-per-sixteenth times the engine pulses
// each MIDI clock represents (increment, PPQN/24).
func (c *ClockInfo) SetSongPosition(d0, d1 byte) {
	sixteenths := (uint32(d1) << 7) | uint32(d0)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekPos = midi.Pulse(sixteenths*6) * c.increment
}

// TakeSeek returns and clears the pending Song Position seek target, or
// (-1, false) if none is pending.
func (c *ClockInfo) TakeSeek() (midi.Pulse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seekPos < 0 {
		return -1, false
	}
	pos := c.seekPos
	c.seekPos = -1
	return pos, true
}
