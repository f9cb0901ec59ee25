package midi

import (
	"encoding/binary"
	"fmt"
)

// TrackData is the event<->bytes codec for one MTrk chunk: Parse turns raw
// chunk bytes into Events plus TrackInfo; Put does the reverse. Grounded on
// src/midi/trackdata.cpp's parse_track/put_track, spec.md §4.2-4.3.
type TrackData struct {
	// RunningStatusAction selects the recovery policy applied when a data
	// byte arrives with no running status in force.
	RunningStatusAction RunningStatusAction
}

// NewTrackData returns a TrackData defaulting to ActionRecover, matching
// the original's default policy.
func NewTrackData() *TrackData {
	return &TrackData{RunningStatusAction: ActionRecover}
}

// ParseResult is everything Parse extracts from one MTrk chunk.
type ParseResult struct {
	Events       *EventList
	Info         TrackInfo
	ChannelsUsed [16]bool // which channels carried at least one event (for the Splitter)
}

// Parse reads one MTrk chunk's event stream starting at offset within data,
// consuming trklength bytes, and returns the next chunk's offset (offset +
// trklength) plus the decoded events/info. A fatal cursor error or an
// ActionAbort running-status fault returns an error; an ActionSkip fault
// stops this track's parse early but still returns whatever was decoded.
func (td *TrackData) Parse(data []byte, offset, trklength int) (next int, result ParseResult, err error) {
	next = offset + trklength
	if offset < 0 || trklength < 0 || next > len(data) {
		return next, result, fmt.Errorf("midi: track chunk out of range: %w", ErrTruncated)
	}

	cur := NewByteCursor(data[offset:next])
	result.Events = NewEventList()
	result.Info = NewTrackInfo()

	var runningTime Pulse
	var runningStatus byte
	var lastRunningStatus byte
	endOfTrackFound := false
	tempoSeen := false
	timeSigSeen := false

	for !endOfTrackFound {
		if cur.Done() {
			break
		}

		delta := cur.GetVarinum()
		if cur.FatalError() {
			break
		}

		bstatus := cur.PeekByte()
		var e Event
		hasStatus := IsStatusByte(bstatus)

		if hasStatus {
			cur.Skip(1)
			if IsSystemCommon(bstatus) {
				runningStatus = 0
			} else if !IsRealtime(bstatus) {
				runningStatus = bstatus
				if td.RunningStatusAction == ActionRecover {
					lastRunningStatus = bstatus
				}
			}
		} else {
			switch {
			case runningStatus != 0:
				bstatus = runningStatus
			case lastRunningStatus != 0 && td.RunningStatusAction == ActionRecover:
				bstatus = lastRunningStatus
				runningStatus = lastRunningStatus
			default:
				switch td.RunningStatusAction {
				case ActionSkip:
					return next, result, nil
				case ActionAbort:
					return next, result, fmt.Errorf("midi: %w", ErrRunningStatus)
				default: // ActionProceed
					return next, result, fmt.Errorf("midi: %w", ErrRunningStatus)
				}
			}
		}

		runningTime += Pulse(delta)
		timestamp := runningTime
		eventCode := MaskStatus(bstatus)
		channel := MaskChannel(bstatus)

		switch {
		case eventCode == StatusNoteOff || eventCode == StatusNoteOn ||
			eventCode == StatusAftertouch || eventCode == StatusControlChange ||
			eventCode == StatusPitchWheel:
			d0 := cur.GetByte()
			d1 := cur.GetByte()
			e = NewChannelEvent(timestamp, bstatus, d0, d1, true)
			result.ChannelsUsed[channel] = true
			result.Events.Append(e)

		case eventCode == StatusProgramChange || eventCode == StatusChannelPressure:
			d0 := cur.GetByte()
			e = NewChannelEvent(timestamp, bstatus, d0, 0, false)
			result.ChannelsUsed[channel] = true
			result.Events.Append(e)

		case bstatus == StatusMeta:
			metaType := cur.GetByte()
			length := cur.GetVarinum()
			if length > MaxVarinum {
				return next, result, fmt.Errorf("midi: %w", ErrCorruptLength)
			}
			payload := make([]byte, length)
			for i := range payload {
				payload[i] = cur.GetByte()
			}
			if cur.FatalError() {
				return next, result, fmt.Errorf("midi: %w", ErrTruncated)
			}
			td.dispatchMeta(&result.Info, metaType, payload, &tempoSeen, &timeSigSeen)
			result.Events.Append(NewMetaEvent(timestamp, metaType, payload))
			if metaType == MetaEndOfTrack {
				endOfTrackFound = true
			}

		case bstatus == StatusSysEx:
			check := cur.PeekByte()
			if isSysexSpecialID(check) {
				// Vendor-specific length ID: skip gracefully rather than
				// misinterpret as a length, per trackdata.cpp.
				cur.Skip(1)
			} else {
				length := cur.GetVarinum()
				payload := make([]byte, 0, length)
				open := true
				for i := uint32(0); i < length && open; i++ {
					b := cur.GetByte()
					payload = append(payload, b)
					open = b != StatusSysExEnd
				}
				result.Events.Append(NewSysExEvent(timestamp, payload, open))
			}

		case bstatus == StatusSysExEnd:
			// Continuation or escape segment: append to the last open
			// SysEx event, if any.
			if n := result.Events.Len(); n > 0 {
				last := result.Events.At(n - 1)
				if last.Kind == KindSysEx && last.Open {
					last.AppendSysEx(bstatus)
					break
				}
			}
			result.Events.Append(NewSysExEvent(timestamp, []byte{bstatus}, false))

		default:
			// Unrecognized status: consume nothing further and continue;
			// matches the original's "erroneous" branch which just skips.
		}

		if cur.FatalError() {
			break
		}
	}

	if cur.FatalError() {
		return next, result, fmt.Errorf("midi: %w", ErrTruncated)
	}
	if !endOfTrackFound {
		result.Events.Append(NewMetaEvent(runningTime, MetaEndOfTrack, nil))
	}
	result.Info.Length = result.Events.Last()
	return next, result, nil
}

func (td *TrackData) dispatchMeta(info *TrackInfo, metaType byte, payload []byte, tempoSeen, timeSigSeen *bool) {
	switch metaType {
	case MetaSequenceNumber:
		if len(payload) == 2 {
			info.SeqNumber = int(binary.BigEndian.Uint16(payload))
			info.HasSeqNumber = true
		}
	case MetaTrackName:
		info.Name = string(payload)
	case MetaText, MetaCopyright, MetaInstrumentName, MetaLyric, MetaMarker,
		MetaCuePoint, MetaProgramName, MetaPortName:
		// Preserved only in the raw Event payload; TrackInfo does not
		// need a home for these besides the track name.
	case MetaSMPTEOffset:
		info.SMPTEOffset = append([]byte(nil), payload...)
	case MetaSetTempo:
		if len(payload) == 3 && !*tempoSeen {
			info.MicrosPerQ = uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
			info.HasTempo = true
			*tempoSeen = true
		}
	case MetaTimeSignature:
		if len(payload) == 4 && !*timeSigSeen {
			info.TimeSig = TimeSignature{
				Numerator:         payload[0],
				LogDenominator:    payload[1],
				ClocksPerMetro:    payload[2],
				ThirtySecondsPerQ: payload[3],
			}
			info.HasTimeSig = true
			*timeSigSeen = true
		}
	case MetaKeySignature:
		if len(payload) == 2 {
			info.KeySig = KeySignature{
				SharpsFlats: int8(payload[0]),
				Minor:       payload[1] != 0,
			}
			info.HasKeySig = true
		}
	case MetaChannelPrefix, MetaMidiPort, MetaSequencerSpecific:
		// Preserved verbatim in the raw Event payload only.
	default:
		// Opaque meta payload: nothing to extract into TrackInfo.
	}
}

// Put serializes trk's events back into MTrk event bytes (not including the
// "MTrk"+length framing, which File handles) into cur. isTempoTrack
// controls whether a missing tempo/time-signature pair is synthesized
// (spec.md §4.3 step 3). No sequencer-specific footer is emitted.
func (td *TrackData) Put(cur *ByteCursor, trk *Track, isTempoTrack bool) error {
	trk.Events.Sort()

	if trk.Info.HasSeqNumber {
		putMeta(cur, 0, MetaSequenceNumber, []byte{byte(trk.Info.SeqNumber >> 8), byte(trk.Info.SeqNumber)})
	}
	if trk.Info.Name != "" {
		putMeta(cur, 0, MetaTrackName, []byte(trk.Info.Name))
	}

	haveTempo, haveTimeSig := eventsHave(trk.Events)
	if isTempoTrack {
		if !haveTimeSig && trk.Info.HasTimeSig {
			ts := trk.Info.TimeSig
			putMeta(cur, 0, MetaTimeSignature, []byte{ts.Numerator, ts.LogDenominator, ts.ClocksPerMetro, ts.ThirtySecondsPerQ})
		}
		if !haveTempo && trk.Info.HasTempo {
			putMeta(cur, 0, MetaSetTempo, tempoBytes(trk.Info.MicrosPerQ))
		}
	}

	var prev Pulse
	events := trk.Events.Events()
	for i := range events {
		e := &events[i]
		if e.IsEndOfTrack() {
			continue // End Of Track is always re-emitted at the very end
		}
		delta := e.Timestamp - prev
		if delta < 0 {
			return fmt.Errorf("midi: negative delta-time encoding event at %d", e.Timestamp)
		}
		prev = e.Timestamp
		cur.PutVarinum(uint32(delta))

		switch e.Kind {
		case KindChannel:
			status := e.Status
			if trk.Info.NominalChannel != FreeChannel {
				status = MaskStatus(status) | (trk.Info.NominalChannel & 0x0F)
			}
			cur.PutByte(status)
			for j := 0; j < e.NData; j++ {
				cur.PutByte(e.Data[j])
			}
		case KindMeta:
			cur.PutByte(StatusMeta)
			cur.PutByte(e.MetaType)
			cur.PutVarinum(uint32(len(e.Meta)))
			cur.PutBytes(e.Meta)
		case KindSysEx:
			if len(e.SysEx) > 0 {
				cur.PutByte(e.SysEx[0])
				cur.PutVarinum(uint32(len(e.SysEx) - 1))
				cur.PutBytes(e.SysEx[1:])
			}
		}
	}

	delta := trk.Info.Length - prev
	if delta < 0 {
		delta = 0
	}
	cur.PutVarinum(uint32(delta))
	putEndOfTrack(cur)
	return nil
}

func putMeta(cur *ByteCursor, delta uint32, metaType byte, payload []byte) {
	cur.PutVarinum(delta)
	cur.PutByte(StatusMeta)
	cur.PutByte(metaType)
	cur.PutVarinum(uint32(len(payload)))
	cur.PutBytes(payload)
}

func putEndOfTrack(cur *ByteCursor) {
	cur.PutByte(StatusMeta)
	cur.PutByte(MetaEndOfTrack)
	cur.PutByte(0)
}

func tempoBytes(microsPerQ uint32) []byte {
	return []byte{byte(microsPerQ >> 16), byte(microsPerQ >> 8), byte(microsPerQ)}
}

func eventsHave(l *EventList) (tempo, timeSig bool) {
	for _, e := range l.Events() {
		if e.IsTempo() {
			tempo = true
		}
		if e.Kind == KindMeta && e.MetaType == MetaTimeSignature {
			timeSig = true
		}
	}
	return
}
