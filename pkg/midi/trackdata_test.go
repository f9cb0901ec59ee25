package midi

import "testing"

func TestTrackDataParseRunningStatus(t *testing.T) {
	// delta=0, NoteOn ch0 60 90; delta=10, running-status NoteOn ch0 64 80;
	// delta=10, End Of Track.
	data := []byte{
		0x00, StatusNoteOn, 60, 90,
		0x0A, 64, 80,
		0x0A, StatusMeta, MetaEndOfTrack, 0x00,
	}
	td := NewTrackData()
	_, result, err := td.Parse(data, 0, len(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Events.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", result.Events.Len())
	}
	second := result.Events.At(1)
	if second.Status != StatusNoteOn || second.Data[0] != 64 || second.Data[1] != 80 {
		t.Fatalf("running-status event decoded wrong: %+v", second)
	}
	if !result.ChannelsUsed[0] {
		t.Fatal("channel 0 should be marked used")
	}
}

func TestTrackDataParseNoRunningStatusErrors(t *testing.T) {
	// A data byte (0x40) with no preceding status byte and no running
	// status in force.
	data := []byte{0x00, 0x40, 0x00}
	td := NewTrackData()
	td.RunningStatusAction = ActionAbort
	_, _, err := td.Parse(data, 0, len(data))
	if err == nil {
		t.Fatal("expected an error with ActionAbort and no running status")
	}
}

func TestTrackDataParseSynthesizesMissingEndOfTrack(t *testing.T) {
	data := []byte{0x00, StatusNoteOn, 60, 90}
	td := NewTrackData()
	_, result, err := td.Parse(data, 0, len(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	last := result.Events.At(result.Events.Len() - 1)
	if !last.IsEndOfTrack() {
		t.Fatal("expected a synthesized End Of Track event")
	}
}

func TestTrackDataParseTempoAndTimeSignature(t *testing.T) {
	data := []byte{
		0x00, StatusMeta, MetaSetTempo, 0x03, 0x07, 0xA1, 0x20, // 500000 us/q
		0x00, StatusMeta, MetaTimeSignature, 0x04, 0x03, 0x02, 0x18, 0x08,
		0x00, StatusMeta, MetaEndOfTrack, 0x00,
	}
	td := NewTrackData()
	_, result, err := td.Parse(data, 0, len(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !result.Info.HasTempo || result.Info.MicrosPerQ != 500000 {
		t.Fatalf("tempo = %+v", result.Info)
	}
	if !result.Info.HasTimeSig || result.Info.TimeSig.Numerator != 3 || result.Info.TimeSig.BeatWidth() != 4 {
		t.Fatalf("time sig = %+v", result.Info.TimeSig)
	}
}

func TestTrackDataParseSysExSpecialIDSkipped(t *testing.T) {
	data := []byte{
		0x00, StatusSysEx, 0x7D, // special vendor ID, skipped gracefully
		0x00, StatusMeta, MetaEndOfTrack, 0x00,
	}
	td := NewTrackData()
	_, result, err := td.Parse(data, 0, len(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Events.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (only the synthesized/explicit EOT)", result.Events.Len())
	}
}

func TestTrackDataPutRoundTrip(t *testing.T) {
	trk := NewTrack(0)
	trk.Events.Append(NewChannelEvent(0, StatusNoteOn|0x00, 60, 90, true))
	trk.Events.Append(NewChannelEvent(100, StatusNoteOff|0x00, 60, 0, true))
	trk.Info.Length = 200

	cur := NewByteCursorSize(64)
	td := NewTrackData()
	if err := td.Put(cur, trk, false); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reparsed := NewTrackData()
	_, result, err := reparsed.Parse(cur.Bytes(), 0, len(cur.Bytes()))
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	if result.Events.Len() != 3 { // note-on, note-off, synthesized/explicit EOT
		t.Fatalf("Len() = %d, want 3", result.Events.Len())
	}
	if result.Events.At(0).Timestamp != 0 || result.Events.At(1).Timestamp != 100 {
		t.Fatalf("round-trip timestamps wrong: %+v / %+v", result.Events.At(0), result.Events.At(1))
	}
}
