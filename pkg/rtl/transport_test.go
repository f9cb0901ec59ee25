package rtl

import "testing"

func TestNewTransportInfoDefaults(t *testing.T) {
	tr := NewTransportInfo()
	if tr.BPM() != 120 {
		t.Fatalf("BPM() = %f, want 120", tr.BPM())
	}
	if tr.PPQN() != 192 {
		t.Fatalf("PPQN() = %d, want 192", tr.PPQN())
	}
	// 4 * 192 / 4 * 4 = 768
	if tr.OneMeasure() != 768 {
		t.Fatalf("OneMeasure() = %d, want 768", tr.OneMeasure())
	}
}

func TestTransportInfoSetBPMRaisesResolutionChange(t *testing.T) {
	tr := NewTransportInfo()
	tr.ConsumeResolutionChange() // drain any initial state

	tr.SetBPM(140)
	if tr.BPM() != 140 {
		t.Fatalf("BPM() = %f, want 140", tr.BPM())
	}
	if !tr.ConsumeResolutionChange() {
		t.Fatal("SetBPM should raise ResolutionChange")
	}
	if tr.ConsumeResolutionChange() {
		t.Fatal("ConsumeResolutionChange should clear the flag after reading it")
	}
}

func TestTransportInfoSetBPMRejectsNonPositive(t *testing.T) {
	tr := NewTransportInfo()
	tr.SetBPM(-5)
	if tr.BPM() != 120 {
		t.Fatalf("BPM() after invalid SetBPM = %f, want unchanged 120", tr.BPM())
	}
}

func TestTransportInfoSetPPQNClamps(t *testing.T) {
	tr := NewTransportInfo()
	tr.SetPPQN(4)
	if tr.PPQN() != 32 {
		t.Fatalf("PPQN() = %d, want clamped to 32", tr.PPQN())
	}
	tr.SetPPQN(50000)
	if tr.PPQN() != 19200 {
		t.Fatalf("PPQN() = %d, want clamped to 19200", tr.PPQN())
	}
}

func TestTransportInfoSetTimeSignatureRecomputesOneMeasure(t *testing.T) {
	tr := NewTransportInfo()
	tr.SetTimeSignature(3, 8)
	// 4 * 192 / 8 * 3 = 288
	if tr.OneMeasure() != 288 {
		t.Fatalf("OneMeasure() = %d, want 288", tr.OneMeasure())
	}
}

func TestTransportInfoMarkersAndLoop(t *testing.T) {
	tr := NewTransportInfo()
	tr.SetMarkers(10, 500)
	left, right := tr.Markers()
	if left != 10 || right != 500 {
		t.Fatalf("Markers() = (%d,%d), want (10,500)", left, right)
	}
	if tr.Loop() {
		t.Fatal("Loop() should default to false")
	}
	tr.SetLoop(true)
	if !tr.Loop() {
		t.Fatal("SetLoop(true) should make Loop() true")
	}
}

func TestTransportInfoCurrentAndStartTick(t *testing.T) {
	tr := NewTransportInfo()
	tr.SetCurrentTick(42)
	if tr.CurrentTick() != 42 {
		t.Fatalf("CurrentTick() = %d, want 42", tr.CurrentTick())
	}
	tr.SetStartTick(7)
	if tr.StartTick() != 7 {
		t.Fatalf("StartTick() = %d, want 7", tr.StartTick())
	}
}

func TestClockInfoStartContinueStop(t *testing.T) {
	c := NewClockInfo(96) // increment = 4
	if c.Running() {
		t.Fatal("fresh ClockInfo should not be running")
	}
	c.Start()
	if !c.Running() {
		t.Fatal("Start() should mark the clock running")
	}
	c.Tick()
	c.Tick()
	if c.CurrentTick() != 8 {
		t.Fatalf("CurrentTick() = %d, want 8 after two ticks at increment 4", c.CurrentTick())
	}

	c.Stop()
	if c.Running() {
		t.Fatal("Stop() should mark the clock not running")
	}
	before := c.CurrentTick()
	c.Tick()
	if c.CurrentTick() != before {
		t.Fatal("Tick() while stopped should not advance the accumulator")
	}

	c.Continue()
	if !c.Running() {
		t.Fatal("Continue() should mark the clock running")
	}
	if c.CurrentTick() != before {
		t.Fatal("Continue() should not reset the tick accumulator")
	}
}

func TestClockInfoStartResetsAccumulator(t *testing.T) {
	c := NewClockInfo(96)
	c.Start()
	c.Tick()
	c.Tick()
	c.Start() // restart should reset to 0
	if c.CurrentTick() != 0 {
		t.Fatalf("CurrentTick() after restart = %d, want 0", c.CurrentTick())
	}
}

func TestClockInfoSongPositionAndSeek(t *testing.T) {
	c := NewClockInfo(96) // increment = 4
	if _, ok := c.TakeSeek(); ok {
		t.Fatal("fresh ClockInfo should have no pending seek")
	}

	// d0=0, d1=1 -> sixteenths = 1<<7 = 128 -> pulses = 128*6*4 = 3072
	c.SetSongPosition(0, 1)
	pos, ok := c.TakeSeek()
	if !ok {
		t.Fatal("expected a pending seek after SetSongPosition")
	}
	if pos != 3072 {
		t.Fatalf("seek position = %d, want 3072", pos)
	}

	if _, ok := c.TakeSeek(); ok {
		t.Fatal("TakeSeek should clear the pending seek")
	}
}
