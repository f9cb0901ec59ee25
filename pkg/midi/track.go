package midi

import (
	"sync"
	"time"
)

// RecordingType selects how incoming events are merged into a recording
// track. Only Normal is fully implemented; the others are accepted but
// behave identically to Normal (the original source carries only stubs for
// these).
type RecordingType int

const (
	RecordingNormal RecordingType = iota
	RecordingQuantized
	RecordingTightened
	RecordingOverwrite
	RecordingOneshot
)

// Conductor is the narrow interface a Track uses to reach its owning
// Player, set once at install time. It is deliberately not a pointer back
// to a concrete Player type: Track lives in package midi and must not
// import the player/backend package, and the original design note calls
// for a non-owning observer, never shared ownership. A Track that has not
// been installed anywhere has a nil Conductor and simply does not emit.
type Conductor interface {
	// PPQN returns the engine's pulses-per-quarter-note, used as the
	// track-length fallback when a track declares length 0.
	PPQN() int
	// PublishTempo is called when Track.Play walks over a tempo meta
	// event, so the transport can update its BPM.
	PublishTempo(bpm float64)
	// Send forwards a channel event to the given bus/port for output.
	Send(bus int, e *Event)
}

// Track is events + metadata + realtime playback state for one MTrk,
// exactly as spec.md §3/§4.6 describes it.
type Track struct {
	mu sync.Mutex

	Number int
	Events *EventList
	Info   TrackInfo

	Armed         bool
	Recording     bool
	RecordingType RecordingType
	Thru          bool
	Dirty         bool
	Modified      bool
	LastTick      Pulse

	// PlayingNotes counts currently-sounding notes per pitch (0-127), so
	// SetArmed(false) and Stop can emit exactly the note-offs needed.
	PlayingNotes [128]int

	nominalBus int
	parent     Conductor
}

// NewTrack creates an empty track with the free-channel sentinel and
// LastTick 0.
func NewTrack(number int) *Track {
	return &Track{
		Number:   number,
		Events:   NewEventList(),
		Info:     NewTrackInfo(),
		LastTick: 0,
	}
}

// SetParent installs the owning Conductor. If sorting is true the event
// list is sorted immediately; a VerifyAndLink pass is run either way. The
// track's length is also padded up to one full measure if it is currently
// shorter, matching track.cpp's set_parent (spec.md §9 / SPEC_FULL.md §12).
func (t *Track) SetParent(c Conductor, sorting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = c
	if sorting {
		t.Events.Sort()
	}
	t.setLengthLocked(0)

	beatWidth := 4
	numerator := 4
	if t.Info.HasTimeSig {
		if bw := t.Info.TimeSig.BeatWidth(); bw > 0 {
			beatWidth = bw
		}
		if n := int(t.Info.TimeSig.Numerator); n > 0 {
			numerator = n
		}
	}
	if c != nil {
		ppqNote := 4 * c.PPQN() / beatWidth
		barLength := Pulse(ppqNote * numerator)
		if t.Info.Length < barLength {
			t.Info.Length = barLength
		}
	}
}

func (t *Track) setLengthLocked(minimum Pulse) {
	last := t.Events.Last()
	if last > t.Info.Length {
		t.Info.Length = last
	}
	if t.Info.Length < minimum {
		t.Info.Length = minimum
	}
	t.Events.VerifyAndLink(t.Info.Length, true)
}

// SetLength recomputes the track length from its events and re-links notes.
func (t *Track) SetLength() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLengthLocked(0)
}

// SetArmed toggles playback. Turning armed off flushes every currently
// sounding note with a note-off, per spec.md §4.6.
func (t *Track) SetArmed(armed bool) {
	t.mu.Lock()
	wasArmed := t.Armed
	t.Armed = armed
	t.mu.Unlock()
	if wasArmed && !armed {
		t.offPlayingNotes()
	}
}

func (t *Track) offPlayingNotes() {
	t.mu.Lock()
	parent := t.parent
	bus := t.nominalBus
	var offs []Event
	for pitch := 0; pitch < 128; pitch++ {
		if t.PlayingNotes[pitch] > 0 {
			ch := t.Info.NominalChannel
			if ch == FreeChannel {
				ch = 0
			}
			offs = append(offs, NewChannelEvent(0, StatusNoteOff|MaskChannel(ch), byte(pitch), 0, true))
			t.PlayingNotes[pitch] = 0
		}
	}
	t.mu.Unlock()
	if parent != nil {
		for i := range offs {
			parent.Send(bus, &offs[i])
		}
	}
}

// ZeroMarkers resets LastTick to 0.
func (t *Track) ZeroMarkers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.LastTick = 0
}

// Stop clears all playing notes, zeroes LastTick, and (unless songMode)
// clears Armed. Pause is the identical sequence but never touches Armed.
func (t *Track) Stop(songMode bool) {
	t.offPlayingNotes()
	t.ZeroMarkers()
	if !songMode {
		t.mu.Lock()
		t.Armed = false
		t.mu.Unlock()
	}
}

// Pause is Stop without touching Armed.
func (t *Track) Pause() {
	t.offPlayingNotes()
	t.ZeroMarkers()
}

// SetRecording toggles recording state.
func (t *Track) SetRecording(recording bool, kind RecordingType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Recording = recording
	t.RecordingType = kind
}

// SetThru toggles MIDI-thru passthrough.
func (t *Track) SetThru(thru bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Thru = thru
}

// RecordEvent appends a live event to the track during recording,
// tracking PlayingNotes so a later Stop/SetArmed(false) can clean up.
// Uses Add (sorted insert) since live events do not arrive in order
// relative to a track that may already contain events (overdub).
func (t *Track) RecordEvent(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.IsNoteOn() {
		t.PlayingNotes[e.Data[0]]++
	} else if e.IsNoteOff() {
		if t.PlayingNotes[e.Data[0]] > 0 {
			t.PlayingNotes[e.Data[0]]--
		}
	}
	t.Events.Add(e)
	t.Modified = true
	t.Dirty = true
}

// Play is called every scheduling slice with a monotonically
// non-decreasing nowTick. It emits, into the just-closed window
// [LastTick, nowTick], every event whose (possibly wrapped) timestamp
// falls in range, publishing tempo changes and forwarding channel events
// to the Conductor. Grounded verbatim on track.cpp's track::play,
// spec.md §4.6.
func (t *Track) Play(nowTick Pulse, playbackMode bool, resumeNoteOns bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	startTick := t.LastTick
	defer func() { t.LastTick = nowTick + 1 }()

	if !t.Armed || t.parent == nil {
		return
	}

	length := t.Info.Length
	if length <= 0 {
		length = Pulse(t.parent.PPQN())
	}
	if length <= 0 {
		return
	}

	startTickOffset := startTick
	endTickOffset := nowTick
	timesPlayed := int64(t.LastTick) / int64(length)
	offsetBase := Pulse(timesPlayed) * length

	events := t.Events.Events()
	if len(events) == 0 {
		return
	}

	i := 0
	for {
		e := &events[i]
		stamp := e.Timestamp + offsetBase
		switch {
		case stamp >= startTickOffset && stamp <= endTickOffset:
			if e.IsTempo() {
				t.parent.PublishTempo(e.TempoBPM())
			} else if e.Kind == KindChannel {
				t.trackPlayingNotesLocked(e)
				t.parent.Send(t.nominalBus, e)
			}
		case stamp > endTickOffset:
			return
		}

		i++
		if i == len(events) {
			i = 0
			offsetBase += length
			time.Sleep(time.Microsecond) // avoid spinning on an empty/short track
		}
	}
}

func (t *Track) trackPlayingNotesLocked(e *Event) {
	if e.IsNoteOn() {
		t.PlayingNotes[e.Data[0]]++
	} else if e.IsNoteOff() {
		if t.PlayingNotes[e.Data[0]] > 0 {
			t.PlayingNotes[e.Data[0]]--
		}
	}
}

// PlayableCount returns how many events this track would emit, for UI/debug
// purposes.
func (t *Track) PlayableCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Events.Len()
}
