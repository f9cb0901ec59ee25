package midi

import "testing"

func TestNewChannelEventNoteOnVelocityZeroNormalizesToNoteOff(t *testing.T) {
	e := NewChannelEvent(10, StatusNoteOn|0x03, 60, 0, true)
	if MaskStatus(e.Status) != StatusNoteOff {
		t.Fatalf("status = %#x, want note-off", e.Status)
	}
	if e.Channel() != 3 {
		t.Fatalf("channel = %d, want 3", e.Channel())
	}
	if e.IsNoteOn() {
		t.Fatal("velocity-0 note-on must not report IsNoteOn")
	}
	if !e.IsNoteOff() {
		t.Fatal("velocity-0 note-on must report IsNoteOff")
	}
}

func TestNewChannelEventOrdinaryNoteOn(t *testing.T) {
	e := NewChannelEvent(0, StatusNoteOn|0x01, 64, 100, true)
	if !e.IsNoteOn() {
		t.Fatal("expected IsNoteOn")
	}
	if e.Data[0] != 64 || e.Data[1] != 100 {
		t.Fatalf("data = %v, want [64 100]", e.Data)
	}
}

func TestSetChannelPreservesStatusNibble(t *testing.T) {
	e := NewChannelEvent(0, StatusControlChange|0x05, 7, 1, true)
	e.SetChannel(2)
	if e.Channel() != 2 {
		t.Fatalf("Channel() = %d, want 2", e.Channel())
	}
	if MaskStatus(e.Status) != StatusControlChange {
		t.Fatalf("status nibble changed: %#x", e.Status)
	}
}

func TestTempoConversions(t *testing.T) {
	e := NewMetaEvent(0, MetaSetTempo, tempoBytes(500000))
	if got := e.TempoMicrosPerQuarter(); got != 500000 {
		t.Fatalf("TempoMicrosPerQuarter() = %d, want 500000", got)
	}
	if got := e.TempoBPM(); got < 119.99 || got > 120.01 {
		t.Fatalf("TempoBPM() = %f, want ~120", got)
	}
}

func TestSysExAppendAndSpecialID(t *testing.T) {
	e := NewSysExEvent(0, nil, true)
	if !e.AppendSysEx(0x43) {
		t.Fatal("AppendSysEx should report still-open on a normal data byte")
	}
	if e.AppendSysEx(StatusSysExEnd) {
		t.Fatal("AppendSysEx should report closed once the terminating 0xF7 arrives")
	}
	if e.Open {
		t.Fatal("Open should be false after the terminator")
	}
	if isSysexSpecialID(0x7D) != true || isSysexSpecialID(0x7F) != true || isSysexSpecialID(0x7C) != false {
		t.Fatal("special SysEx ID range must be 0x7D-0x7F")
	}
}

func TestWireRendersStatusAndData(t *testing.T) {
	e := NewChannelEvent(0, StatusNoteOn|0x00, 60, 90, true)
	w := e.Wire()
	if len(w) != 3 || w[0] != e.Status || w[1] != 60 || w[2] != 90 {
		t.Fatalf("Wire() = %v", w)
	}
}
