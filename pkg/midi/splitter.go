package midi

// Splitter converts an SMF format-0 file (all channels interleaved on one
// track) into SMF format-1 semantics: one Track per channel that appeared,
// plus the original multi-channel track preserved with its nominal channel
// set to FreeChannel. Grounded on src/midi/splitter.cpp, spec.md §4.4.
type Splitter struct {
	channelsUsed [16]bool
	channelCount int
}

// NewSplitter returns an empty splitter ready to observe one main track.
func NewSplitter() *Splitter { return &Splitter{} }

// Observe records which channels appear in result, normally the
// ParseResult.ChannelsUsed bitmap produced by TrackData.Parse for the
// single track of a format-0 file.
func (s *Splitter) Observe(channelsUsed [16]bool) {
	for ch := 0; ch < 16; ch++ {
		if channelsUsed[ch] && !s.channelsUsed[ch] {
			s.channelsUsed[ch] = true
			s.channelCount++
		}
	}
}

// Split produces the per-channel tracks for the previously Observe'd main
// track, plus the (mutated) main track itself with its nominal channel set
// to FreeChannel. The main track is expected to already hold every event
// from the format-0 MTrk, sorted.
//
// Per spec.md §4.4: a per-channel track receives a copy of every event that
// either matches its channel, or is a meta/SysEx event and the track is
// channel 0 — literally channel 0, not whichever channel happens to be
// split first. spec.md §9's Design Notes settle this explicitly ("the spec
// routes [channel-carrying meta 0x20/0x21] to track 0"), so a channel-0
// track is always produced here, synthesized with no channel-voice events
// of its own if channel 0 never appeared in the file, precisely so every
// meta/SysEx event (including End-of-Track) has a channel-0 home to land
// in.
func (s *Splitter) Split(main *Track) []*Track {
	if s.channelCount == 0 {
		main.Info.NominalChannel = FreeChannel
		return nil
	}

	var out []*Track
	mainEvents := main.Events.Events()
	channelsToEmit := s.channelsUsed
	channelsToEmit[0] = true

	for ch := 0; ch < 16; ch++ {
		if !channelsToEmit[ch] {
			continue
		}
		nt := NewTrack(ch)
		nt.Info.NominalChannel = byte(ch)
		for _, e := range mainEvents {
			matches := (e.Kind == KindChannel && e.Channel() == byte(ch)) ||
				((e.Kind == KindMeta || e.Kind == KindSysEx) && ch == 0)
			if matches {
				nt.Events.Append(e)
			}
		}
		nt.Events.Sort()
		if last := nt.Events.Last(); last != PulseUnassigned {
			nt.Info.Length = last
		}
		out = append(out, nt)
	}

	main.Info.NominalChannel = FreeChannel
	return out
}

// ChannelCount reports how many distinct channels were observed.
func (s *Splitter) ChannelCount() int { return s.channelCount }
