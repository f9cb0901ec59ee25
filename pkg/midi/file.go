package midi

import (
	"fmt"
)

const (
	tagMThd uint32 = 0x4D546864
	tagMTrk uint32 = 0x4D54726B
	mThdLen uint32 = 6
)

// File reads/writes the MThd header and MTrk chunks, delegating each
// track's event bytes to TrackData. Grounded on src/midi/file.cpp,
// spec.md §4.5.
type File struct {
	Format int // 0 or 1 (2 is rejected)
	PPQN   int

	// Split records whether a format-0 file is expanded into per-channel
	// tracks via Splitter. Read builds its own File with Split set for
	// every format-0 input and does not consult a caller's File, so reading
	// always splits format-0 files.
	Split bool

	RunningStatusAction RunningStatusAction
}

// NewFile returns a File defaulting to format 1, PPQN 192, splitting
// enabled.
func NewFile() *File {
	return &File{Format: 1, PPQN: 192, Split: true, RunningStatusAction: ActionRecover}
}

// ReadResult is what File.Read hands back: every track installed, in file
// order (per-channel split tracks, if any, followed by the original), plus
// the header fields a Player needs to play them back at the right
// resolution.
type ReadResult struct {
	Tracks *TrackList
	Format int
	PPQN   int
}

// Read parses a whole SMF byte stream. Track identifiers not present in
// the file default to their position in the file (spec.md §4.5 step 4).
// A parse failure on one track does not abort the whole file: whatever
// tracks parsed successfully before the failure are still returned,
// alongside the error.
func Read(data []byte) (*ReadResult, error) {
	cur := NewByteCursor(data)

	if cur.Len() < 14 {
		return nil, fmt.Errorf("midi: %w: file too short for MThd", ErrBadFormat)
	}
	if cur.GetLong() != tagMThd {
		return nil, fmt.Errorf("midi: %w: missing MThd", ErrBadFormat)
	}
	if cur.GetLong() != mThdLen {
		return nil, fmt.Errorf("midi: %w: MThd length must be 6", ErrBadFormat)
	}

	format := int(cur.GetShort())
	if format == 2 {
		return nil, fmt.Errorf("midi: %w: SMF format 2 is not supported", ErrBadFormat)
	}
	if format != 0 && format != 1 {
		return nil, fmt.Errorf("midi: %w: unsupported SMF format %d", ErrBadFormat, format)
	}

	nTracks := int(cur.GetShort())
	division := cur.GetShort()
	if division&0x8000 != 0 {
		return nil, fmt.Errorf("midi: %w: SMPTE (frame-based) division is not supported", ErrBadFormat)
	}
	ppqn := int(division)
	if ppqn < 1 {
		ppqn = 192
	}

	f := &File{Format: format, PPQN: ppqn, Split: format == 0, RunningStatusAction: ActionRecover}
	tracks := NewTrackList()
	td := &TrackData{RunningStatusAction: f.RunningStatusAction}
	splitter := NewSplitter()

	offset := cur.Pos()
	loopIdx := 0
	var firstErr error
	var formatZeroTrack *Track

	for loopIdx < nTracks || (offset+8 <= len(data) && tagAt(data, offset) == tagMTrk) {
		if offset+8 > len(data) {
			break
		}
		if tagAt(data, offset) != tagMTrk {
			break
		}
		length := int(be32(data, offset+4))
		body := offset + 8

		next, result, err := td.Parse(data, body, length)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}

		trk := NewTrack(loopIdx)
		trk.Events = result.Events
		trk.Info = result.Info
		if result.Info.HasSeqNumber {
			trk.Number = result.Info.SeqNumber
		}

		if f.Format == 0 && loopIdx == 0 {
			splitter.Observe(result.ChannelsUsed)
			formatZeroTrack = trk
			if f.Split {
				offset = next
				loopIdx++
				continue // installed after the loop, once splitting is known
			}
		}

		tracks.Append(trk)
		offset = next
		loopIdx++
	}

	if formatZeroTrack != nil {
		if f.Split && splitter.ChannelCount() > 0 {
			for _, sub := range splitter.Split(formatZeroTrack) {
				tracks.Append(sub)
			}
			tracks.Append(formatZeroTrack)
		} else {
			formatZeroTrack.Info.NominalChannel = FreeChannel
			tracks.Append(formatZeroTrack)
		}
	}

	return &ReadResult{Tracks: tracks, Format: f.Format, PPQN: f.PPQN}, firstErr
}

func tagAt(data []byte, offset int) uint32 { return be32(data, offset) }

func be32(data []byte, offset int) uint32 {
	if offset+4 > len(data) {
		return 0
	}
	return uint32(data[offset])<<24 | uint32(data[offset+1])<<16 |
		uint32(data[offset+2])<<8 | uint32(data[offset+3])
}

// Write serializes tracks into a complete SMF byte stream using the
// receiver's Format/PPQN. Track 0 receives synthesized tempo/time-sig meta
// events if its TrackInfo carries them but its events don't.
func (f *File) Write(tracks *TrackList) ([]byte, error) {
	cur := NewByteCursorSize(4096)
	cur.PutLong(tagMThd)
	cur.PutLong(mThdLen)
	cur.PutShort(uint16(f.Format))
	cur.PutShort(uint16(tracks.Len()))
	cur.PutShort(uint16(f.PPQN))

	td := &TrackData{RunningStatusAction: f.RunningStatusAction}

	var writeErr error
	tracks.Each(func(i int, trk *Track) {
		if writeErr != nil {
			return
		}
		body := NewByteCursorSize(256)
		if err := td.Put(body, trk, i == 0); err != nil {
			writeErr = fmt.Errorf("midi: write track %d: %w", i, err)
			return
		}
		cur.PutLong(tagMTrk)
		cur.PutLong(uint32(len(body.Bytes())))
		cur.PutBytes(body.Bytes())
	})
	if writeErr != nil {
		return nil, writeErr
	}

	return cur.Bytes(), nil
}

// WriteFile is a convenience wrapper around Write that dumps the result to
// path.
func (f *File) WriteFile(path string, tracks *TrackList) error {
	data, err := f.Write(tracks)
	if err != nil {
		return err
	}
	return NewByteCursor(data).WriteFile(path)
}

// ReadFile loads and parses a whole SMF file from disk.
func ReadFile(path string) (*ReadResult, error) {
	cur, err := ReadFileCursor(path)
	if err != nil {
		return nil, err
	}
	return Read(cur.Bytes())
}
