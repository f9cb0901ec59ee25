package midi

import "sync"

// TrackList is the ordered collection of Tracks owned by a Player,
// spec.md §3. Tracks are shared (obtained via At), never removed
// individually except through Clear.
type TrackList struct {
	mu     sync.RWMutex
	tracks []*Track
}

// NewTrackList returns an empty list.
func NewTrackList() *TrackList { return &TrackList{} }

// Append adds t to the end of the list and returns its new index.
func (l *TrackList) Append(t *Track) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = append(l.tracks, t)
	return len(l.tracks) - 1
}

// At returns the track at position i, or nil if out of range.
func (l *TrackList) At(i int) *Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.tracks) {
		return nil
	}
	return l.tracks[i]
}

// Len returns the number of tracks.
func (l *TrackList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Each calls fn for every track in order. fn must not mutate the list.
func (l *TrackList) Each(fn func(i int, t *Track)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, t := range l.tracks {
		fn(i, t)
	}
}

// Unmodify clears the Modified flag on every track.
func (l *TrackList) Unmodify() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.tracks {
		t.mu.Lock()
		t.Modified = false
		t.mu.Unlock()
	}
}

// Clear removes every track.
func (l *TrackList) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = nil
}

// Modified reports whether any track has unsaved changes.
func (l *TrackList) Modified() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.tracks {
		t.mu.Lock()
		m := t.Modified
		t.mu.Unlock()
		if m {
			return true
		}
	}
	return false
}
