package rtl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rtl66go/midiengine/pkg/midi"
)

// Config is the in-process configuration Player takes at construction,
// mirroring how the teacher's MIDIPlayer is parameterized through
// constructor arguments rather than reading its own config file —
// session-manager/NSM bookkeeping is an external collaborator's job, out
// of scope per spec.md §1.
type Config struct {
	PPQN               int
	DefaultBackendName string
	InputQueueCapacity int
	TickInterval       time.Duration
}

// DefaultConfig returns the engine's baseline configuration: PPQN 192, a
// 1ms output scheduling slice, and a 256-message input queue.
func DefaultConfig() Config {
	return Config{
		PPQN:               192,
		DefaultBackendName: "dummy",
		InputQueueCapacity: 256,
		TickInterval:       time.Millisecond,
	}
}

// Player is the top-level conductor: it owns the TrackList, the
// MasterBus, the transport/clock state, an optional JACK transport
// scratchpad, and the two IoThreads that drive playback and input, per
// spec.md §4.9.
type Player struct {
	mu sync.Mutex

	cfg     Config
	log     *slog.Logger
	backend MidiApi
	bus     *MasterBus

	transport *TransportInfo
	clock     *ClockInfo
	jack      *JackTransport

	tracks      *midi.TrackList
	recordTrack *midi.Track

	outThread *IoThread
	inThread  *IoThread

	errs      *errorLog
	underruns atomic.Int64

	tickAccum float64 // BPM·PPQN·µs remainder (under 60,000,000) carried between output slices
}

// NewPlayer wires a Player around the given backend. log may be nil, in
// which case log/slog's process default is used (spec.md SPEC_FULL.md
// §10's ambient logging rule).
func NewPlayer(cfg Config, backend MidiApi, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	transport := NewTransportInfo()
	transport.SetPPQN(cfg.PPQN)
	p := &Player{
		cfg:       cfg,
		log:       log,
		backend:   backend,
		transport: transport,
		clock:     NewClockInfo(cfg.PPQN),
		tracks:    midi.NewTrackList(),
		outThread: NewIoThread(),
		inThread:  NewIoThread(),
		errs:      newErrorLog(),
	}
	p.bus = NewMasterBus(backend)
	p.bus.SetPPQN(cfg.PPQN)
	return p
}

// UseJack installs a JACK transport scratchpad and switches the
// TransportInfo timebase accordingly.
func (p *Player) UseJack(role JackTransportRole) *JackTransport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jack = NewJackTransport(role)
	if role == JackTransportMaster {
		p.transport.Timebase = TimebaseJackMaster
	} else {
		p.transport.Timebase = TimebaseJackSlave
	}
	return p.jack
}

// Tracks returns the TrackList Setup installs events into.
func (p *Player) Tracks() *midi.TrackList { return p.tracks }

// Bus returns the MasterBus, for callers that need to add extra output
// or input ports before Launch.
func (p *Player) Bus() *MasterBus { return p.bus }

// Transport returns the shared TransportInfo.
func (p *Player) Transport() *TransportInfo { return p.transport }

// Clock returns the shared ClockInfo.
func (p *Player) Clock() *ClockInfo { return p.clock }

// Errors returns every distinct backend error observed so far: the
// Player's own lifecycle errors followed by the MasterBus send errors.
func (p *Player) Errors() []string { return append(p.errs.Messages(), p.bus.Errors()...) }

// Setup installs result's tracks as this Player's TrackList, adopts the
// file's own PPQN (a file's resolution is a property of the file, not a
// Player-wide constant), makes Player each track's Conductor (spec.md
// §4.6's SetParent contract), and arms every track for playback.
func (p *Player) Setup(result *midi.ReadResult) {
	if result.PPQN > 0 {
		p.transport.SetPPQN(result.PPQN)
		p.bus.SetPPQN(result.PPQN)
	}

	p.mu.Lock()
	p.tracks = result.Tracks
	p.mu.Unlock()

	result.Tracks.Each(func(i int, t *midi.Track) {
		t.SetParent(p, true)
		t.SetArmed(true)
	})
}

// ArmRecording designates track as the destination for incoming input
// events classified as recordable channel messages.
func (p *Player) ArmRecording(t *midi.Track, kind midi.RecordingType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recordTrack = t
	if t != nil {
		t.SetRecording(true, kind)
	}
}

// PPQN implements midi.Conductor.
func (p *Player) PPQN() int { return p.transport.PPQN() }

// PublishTempo implements midi.Conductor: propagates a tempo meta event
// encountered during playback to both TransportInfo and MasterBus.
func (p *Player) PublishTempo(bpm float64) {
	p.transport.SetBPM(bpm)
	p.bus.SetBPM(bpm)
}

// Send implements midi.Conductor: forwards a channel event to the bus.
func (p *Player) Send(bus int, e *midi.Event) {
	p.bus.Play(bus, e)
}

// Launch brings the backend up and starts the output and input
// goroutines. It returns once both backend lifecycle calls and both
// IoThread launches have completed; the threads themselves keep running
// until ctx is cancelled or Finish is called.
func (p *Player) Launch(ctx context.Context) error {
	if err := p.backend.EngineInitialize(); err != nil {
		return backendError(p.backend.Name(), "EngineInitialize", err)
	}
	if err := p.backend.Activate(); err != nil {
		return backendError(p.backend.Name(), "Activate", err)
	}

	p.outThread.Launch(ctx, p.outputLoop)
	p.inThread.Launch(ctx, p.inputLoop)
	p.log.Debug("player launched", "backend", p.backend.Name())
	return nil
}

// Finish stops both IoThreads and tears the backend down in reverse
// order of Launch.
func (p *Player) Finish() error {
	p.outThread.Finish()
	p.inThread.Finish()

	if err := p.backend.Deactivate(); err != nil {
		p.errs.record(fmt.Sprintf("player: deactivate: %v", err))
	}
	if err := p.backend.Disconnect(); err != nil {
		p.errs.record(fmt.Sprintf("player: disconnect: %v", err))
	}
	p.log.Debug("player finished", "backend", p.backend.Name())
	return nil
}

// Underruns returns how many output slices arrived late enough that more
// than 4*PPQN pulses (four quarter notes) had to be caught up at once.
func (p *Player) Underruns() int64 { return p.underruns.Load() }

// Modified reports whether any track has unsaved changes.
func (p *Player) Modified() bool {
	p.mu.Lock()
	tracks := p.tracks
	p.mu.Unlock()
	return tracks.Modified()
}

// outputLoop is the output thread: a fixed-interval ticker converts
// elapsed wall-clock time to engine pulses using a drift-free fractional
// accumulator (spec.md §4.9's "internal clock" timebase), then calls
// Track.Play on every track for the newly-reached tick range. JACK/MIDI
// Beat Clock timebases substitute their externally-supplied tick instead
// of advancing the accumulator, per spec.md §5.
func (p *Player) outputLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	var lastTick midi.Pulse
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		nowTick := p.advanceTick()
		if nowTick < lastTick {
			// external timebase rewound (seek/loop) — let Track.Play
			// see it as a fresh window starting here.
			lastTick = nowTick
		}
		if nowTick-lastTick > midi.Pulse(4*p.cfg.PPQN) {
			p.underruns.Add(1)
		}
		lastTick = nowTick

		p.tracks.Each(func(i int, t *midi.Track) {
			t.Play(nowTick, true, false)
		})

		if p.transport.ConsumeResolutionChange() {
			p.bus.SetPPQN(p.transport.PPQN())
		}
	}
}

// advanceTick computes the next engine tick according to the active
// timebase.
func (p *Player) advanceTick() midi.Pulse {
	switch p.transport.Timebase {
	case TimebaseJackMaster, TimebaseJackSlave:
		p.mu.Lock()
		j := p.jack
		p.mu.Unlock()
		if j != nil && j.Connected {
			return j.CurrentTick
		}
		fallthrough
	case TimebaseMidiClock:
		if p.transport.Timebase == TimebaseMidiClock {
			return p.clock.CurrentTick()
		}
		fallthrough
	default:
		return p.advanceInternalTick()
	}
}

// advanceInternalTick is the internal-clock timebase: each TickInterval
// adds BPM * PPQN * elapsed microseconds to an accumulator, whole pulses
// are taken out at 60,000,000 units each, and the remainder is carried to
// the next slice, so rounding error never compounds across slices.
func (p *Player) advanceInternalTick() midi.Pulse {
	bpm := p.transport.BPM()
	ppqn := p.transport.PPQN()
	delta := bpm * float64(ppqn) * float64(p.cfg.TickInterval.Microseconds())

	p.mu.Lock()
	p.tickAccum += delta
	whole := float64(int64(p.tickAccum / 60_000_000))
	p.tickAccum -= whole * 60_000_000
	cur := p.transport.CurrentTick() + midi.Pulse(whole)
	p.mu.Unlock()

	p.transport.SetCurrentTick(cur)

	left, right := p.transport.Markers()
	if p.transport.Loop() && right > left && cur >= right {
		cur = left
		p.transport.SetCurrentTick(cur)
	}
	return cur
}

// inputLoop is the input thread: polls the backend for arriving wire
// messages and classifies each one as a recordable channel event, a
// MIDI Beat Clock / transport verb, or a Song Position Pointer seek
// target, per spec.md §4.9's classify-and-dispatch description.
func (p *Player) inputLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, ok := p.backend.GetMidiEvent()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		p.handleInput(msg)
	}
}

func (p *Player) handleInput(msg Message) {
	raw := msg.Data.Bytes()
	if len(raw) == 0 {
		return
	}
	status := raw[0]

	switch status {
	case midi.StatusStart:
		p.clock.Start()
		return
	case midi.StatusContinue:
		p.clock.Continue()
		return
	case midi.StatusStop:
		p.clock.Stop()
		return
	case midi.StatusTimingClock:
		p.clock.Tick()
		return
	case midi.StatusSongPosition:
		if len(raw) >= 3 {
			p.clock.SetSongPosition(raw[1], raw[2])
		}
		return
	case midi.StatusSysEx, midi.StatusSysExEnd:
		p.bus.Sysex(-1, raw)
		return
	case midi.StatusMeta:
		p.handleInputSetTempo(raw)
		return
	}

	if !midi.IsStatusByte(status) {
		return
	}

	var d0, d1 byte
	hasD1 := false
	if len(raw) > 1 {
		d0 = raw[1]
	}
	if len(raw) > 2 {
		d1 = raw[2]
		hasD1 = true
	}
	e := midi.NewChannelEvent(p.transport.CurrentTick(), status, d0, d1, hasD1)

	p.mu.Lock()
	track := p.recordTrack
	p.mu.Unlock()
	if track != nil {
		track.RecordEvent(e)
	}
}

// handleInputSetTempo decodes a Set Tempo meta message arriving on the
// input thread (raw = FF 51 03 tt tt tt) and applies it to the transport,
// per spec.md §4.9: "FF meta Set Tempo (only when transport is internal or
// JACK master): update BPM". Any other meta message, or a tempo update
// arriving while a MIDI-clock or JACK-slave timebase is in effect, is
// dropped, since tempo in those modes is dictated by the external source.
func (p *Player) handleInputSetTempo(raw []byte) {
	if len(raw) < 6 || raw[1] != midi.MetaSetTempo || raw[2] != 3 {
		return
	}
	switch p.transport.Timebase {
	case TimebaseInternal, TimebaseJackMaster:
	default:
		return
	}
	e := midi.NewMetaEvent(p.transport.CurrentTick(), midi.MetaSetTempo, raw[3:6])
	bpm := e.TempoBPM()
	if bpm <= 0 {
		return
	}
	p.transport.SetBPM(bpm)
	p.bus.SetBPM(bpm)
}
