package rtl

import (
	"context"
	"testing"
	"time"

	"github.com/rtl66go/midiengine/pkg/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// compile-time assertion that Player satisfies midi.Conductor.
var _ midi.Conductor = (*Player)(nil)

func TestNewPlayerWiresConfigIntoTransportAndBus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PPQN = 96
	p := NewPlayer(cfg, NewDummy(), nil)

	if p.Transport().PPQN() != 96 {
		t.Fatalf("Transport().PPQN() = %d, want 96", p.Transport().PPQN())
	}
	if p.Bus().PPQN() != 96 {
		t.Fatalf("Bus().PPQN() = %d, want 96", p.Bus().PPQN())
	}
	if p.Clock().CurrentTick() != 0 {
		t.Fatal("fresh ClockInfo should start at tick 0")
	}
}

func TestPlayerSetupAdoptsFilePPQNOverConfig(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)

	tracks := midi.NewTrackList()
	trk := midi.NewTrack(0)
	trk.Events.Append(midi.NewChannelEvent(0, midi.StatusNoteOn|0x00, 60, 90, true))
	tracks.Append(trk)

	p.Setup(&midi.ReadResult{Tracks: tracks, Format: 1, PPQN: 480})

	if p.Transport().PPQN() != 480 {
		t.Fatalf("Transport().PPQN() after Setup = %d, want 480 (file's own PPQN)", p.Transport().PPQN())
	}
	if p.Bus().PPQN() != 480 {
		t.Fatalf("Bus().PPQN() after Setup = %d, want 480", p.Bus().PPQN())
	}
	if !trk.Armed {
		t.Fatal("Setup should arm every installed track")
	}
}

func TestPlayerSetupKeepsConfigPPQNWhenFileHasNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PPQN = 192
	p := NewPlayer(cfg, NewDummy(), nil)

	tracks := midi.NewTrackList()
	p.Setup(&midi.ReadResult{Tracks: tracks, Format: 1, PPQN: 0})

	if p.Transport().PPQN() != 192 {
		t.Fatalf("Transport().PPQN() = %d, want unchanged 192 when file PPQN is 0", p.Transport().PPQN())
	}
}

func TestPlayerConductorMethods(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	if p.PPQN() != 192 {
		t.Fatalf("PPQN() = %d, want 192", p.PPQN())
	}

	p.PublishTempo(140)
	if p.Transport().BPM() != 140 {
		t.Fatalf("Transport().BPM() after PublishTempo = %f, want 140", p.Transport().BPM())
	}
	if p.Bus().BPM() != 140 {
		t.Fatalf("Bus().BPM() after PublishTempo = %f, want 140", p.Bus().BPM())
	}

	rec := newRecordingApi("out")
	p.Bus().AddOutput(rec, "out", ClockOff)
	e := midi.NewChannelEvent(0, midi.StatusNoteOn|0x00, 60, 90, true)
	p.Send(-1, &e)
	if len(rec.sent) != 1 {
		t.Fatalf("Send should forward to the bus, got %d messages", len(rec.sent))
	}
}

func TestPlayerLaunchFinishLifecycle(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Launch(ctx); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if !p.outThread.Launched() || !p.inThread.Launched() {
		t.Fatal("Launch should launch both IoThreads")
	}

	time.Sleep(5 * time.Millisecond)
	cancel()
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if p.outThread.Launched() || p.inThread.Launched() {
		t.Fatal("Finish should leave both IoThreads unlaunched")
	}
}

func TestAdvanceInternalTickAccumulatesFractionalPulses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PPQN = 96
	cfg.TickInterval = 10 * time.Millisecond
	p := NewPlayer(cfg, NewDummy(), nil)
	p.Transport().SetBPM(120) // 2 beats/sec * 96 ppqn = 192 pulses/sec -> 1.92 pulses/10ms slice

	var total midi.Pulse
	for i := 0; i < 100; i++ {
		total = p.advanceInternalTick()
	}
	// 100 slices * 1.92 pulses = 192 pulses, accumulator makes this exact
	// regardless of rounding per-slice.
	if total != 192 {
		t.Fatalf("CurrentTick after 100 slices = %d, want 192", total)
	}
}

func TestAdvanceInternalTickWrapsAtLoopMarkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PPQN = 96
	cfg.TickInterval = time.Second
	p := NewPlayer(cfg, NewDummy(), nil)
	p.Transport().SetBPM(60) // 1 beat/sec * 96 ppqn = 96 pulses/sec -> 96 pulses/1s slice
	p.Transport().SetMarkers(0, 100)
	p.Transport().SetLoop(true)

	first := p.advanceInternalTick() // cur=96, within [0,100)
	if first != 96 {
		t.Fatalf("first slice tick = %d, want 96", first)
	}
	second := p.advanceInternalTick() // cur would be 192 >= 100 -> wraps to left marker 0
	if second != 0 {
		t.Fatalf("second slice tick = %d, want 0 (wrapped to left marker)", second)
	}
}

func TestAdvanceTickDegradesToInternalWhenJackNotConnected(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	p.UseJack(JackTransportMaster)
	// jack.Connected defaults false -> advanceTick must fall through to
	// the internal clock rather than returning a stale/zero Jack tick.
	tick := p.advanceTick()
	if tick < 0 {
		t.Fatalf("advanceTick() with disconnected Jack = %d, want internal-clock fallback", tick)
	}
}

func TestAdvanceTickUsesMidiClockWhenSelected(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	p.Transport().Timebase = TimebaseMidiClock
	p.Clock().Start()
	p.Clock().Tick()
	p.Clock().Tick()

	tick := p.advanceTick()
	if tick != p.Clock().CurrentTick() {
		t.Fatalf("advanceTick() = %d, want the MIDI clock's CurrentTick() %d", tick, p.Clock().CurrentTick())
	}
}

func TestHandleInputDispatchesTransportVerbs(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusStart})})
	if !p.Clock().Running() {
		t.Fatal("Start message should start the clock")
	}

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusStop})})
	if p.Clock().Running() {
		t.Fatal("Stop message should stop the clock")
	}

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusContinue})})
	if !p.Clock().Running() {
		t.Fatal("Continue message should resume the clock")
	}

	before := p.Clock().CurrentTick()
	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusTimingClock})})
	if p.Clock().CurrentTick() <= before {
		t.Fatal("TimingClock message should advance the clock tick")
	}
}

func TestHandleInputRecordsChannelEventsIntoArmedTrack(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	trk := midi.NewTrack(0)
	p.ArmRecording(trk, midi.RecordingNormal)

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusNoteOn | 0x00, 60, 90})})

	if trk.Events.Len() != 1 {
		t.Fatalf("armed track should have recorded the incoming note-on, got %d events", trk.Events.Len())
	}
}

func TestHandleInputIgnoresMetaStatusByte(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	trk := midi.NewTrack(0)
	p.ArmRecording(trk, midi.RecordingNormal)

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusMeta, 0x2F, 0x00})})

	if trk.Events.Len() != 0 {
		t.Fatalf("a 0xFF meta status byte should never be recorded as a channel event, got %d", trk.Events.Len())
	}
}

func TestHandleInputSysexDoesNotCorruptArmedTrack(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	a := newRecordingApi("a")
	p.Bus().AddOutput(a, "a", ClockOff)
	trk := midi.NewTrack(0)
	p.ArmRecording(trk, midi.RecordingNormal)

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusSysEx, 0x7E, 0x7F, midi.StatusSysExEnd})})

	if trk.Events.Len() != 0 {
		t.Fatalf("a SysEx message should never be recorded as a channel event, got %d", trk.Events.Len())
	}
	if len(a.sent) != 1 {
		t.Fatalf("SysEx should be dispatched to the bus's outputs, got %d sent", len(a.sent))
	}
}

func TestHandleInputSysexEndDoesNotCorruptArmedTrack(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	trk := midi.NewTrack(0)
	p.ArmRecording(trk, midi.RecordingNormal)

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusSysExEnd, 0x00})})

	if trk.Events.Len() != 0 {
		t.Fatalf("a SysEx-end message should never be recorded as a channel event, got %d", trk.Events.Len())
	}
}

func TestHandleInputSetTempoUpdatesBPMWhenInternal(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	p.Transport().Timebase = TimebaseInternal

	// FF 51 03 tt tt tt, 500000us/quarter = 120 BPM.
	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusMeta, midi.MetaSetTempo, 3, 0x07, 0xA1, 0x20})})

	if got := p.Transport().BPM(); got != 120 {
		t.Fatalf("Transport().BPM() = %v, want 120", got)
	}
	if got := p.Bus().BPM(); got != 120 {
		t.Fatalf("Bus().BPM() = %v, want 120", got)
	}
}

func TestHandleInputSetTempoIgnoredWhenNotInternalOrJackMaster(t *testing.T) {
	p := NewPlayer(DefaultConfig(), NewDummy(), nil)
	p.Transport().Timebase = TimebaseMidiClock
	before := p.Transport().BPM()

	p.handleInput(Message{Data: gomidi.Message([]byte{midi.StatusMeta, midi.MetaSetTempo, 3, 0x07, 0xA1, 0x20})})

	if got := p.Transport().BPM(); got != before {
		t.Fatalf("Transport().BPM() = %v, want unchanged %v under an external timebase", got, before)
	}
}
