package midi

import "sort"

// EventList is the ordered collection of Events owned by one Track. It is
// normally sorted ascending by (Timestamp, Rank) so that, at equal
// timestamps, note-offs precede note-ons (spec.md §3).
type EventList struct {
	events []Event
}

// NewEventList returns an empty list.
func NewEventList() *EventList { return &EventList{} }

// Len returns the number of events.
func (l *EventList) Len() int { return len(l.events) }

// At returns a pointer to the i'th event for in-place mutation.
func (l *EventList) At(i int) *Event { return &l.events[i] }

// Events exposes the backing slice read-only-by-convention for range loops.
func (l *EventList) Events() []Event { return l.events }

// Append adds e to the end of the list without sorting, O(1). Matches
// trackdata's append_event used during parsing, where sort happens once at
// install time.
func (l *EventList) Append(e Event) {
	l.events = append(l.events, e)
}

// Add inserts e in sorted position, O(n). Used by realtime recording where
// each event must be placed correctly as it arrives.
func (l *EventList) Add(e Event) {
	i := sort.Search(len(l.events), func(i int) bool {
		return less(e, l.events[i])
	})
	l.events = append(l.events, Event{})
	copy(l.events[i+1:], l.events[i:])
	l.events[i] = e
}

func less(a, b Event) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.Rank < b.Rank
}

// Sort orders the list ascending by (Timestamp, Rank). Not stable is fine:
// ties are already broken by Rank; anything left is order-independent per
// spec.md §5's "no guaranteed relative order across independent streams".
func (l *EventList) Sort() {
	sort.Slice(l.events, func(i, j int) bool { return less(l.events[i], l.events[j]) })
}

// Clear empties the list.
func (l *EventList) Clear() { l.events = l.events[:0] }

// Last returns the timestamp of the final event, or PulseUnassigned if the
// list is empty.
func (l *EventList) Last() Pulse {
	if len(l.events) == 0 {
		return PulseUnassigned
	}
	return l.events[len(l.events)-1].Timestamp
}

// VerifyAndLink scans the (already sorted) list and links each note-on to
// the nearest following note-off on the same channel/pitch. If wrap is
// true, a note-on with no following note-off is linked to the first
// matching note-off found by wrapping around to the start of the list
// (representing a note that sustains across the loop point). length is the
// track length in pulses; the link pass does not consult it.
//
// Returns the number of note-ons left unlinked (should be 0 for a
// well-formed track after a successful link pass).
func (l *EventList) VerifyAndLink(length Pulse, wrap bool) int {
	type openNote struct{ idx int }
	open := make(map[[2]byte]openNote) // [channel, pitch] -> index of open note-on

	unlinked := 0
	for i := range l.events {
		e := &l.events[i]
		if e.IsNoteOn() {
			key := [2]byte{e.Channel(), e.Data[0]}
			open[key] = openNote{idx: i}
		} else if e.IsNoteOff() {
			key := [2]byte{e.Channel(), e.Data[0]}
			if on, ok := open[key]; ok {
				l.events[on.idx].link = i
				delete(open, key)
			}
		}
	}

	if wrap && len(open) > 0 {
		for key, on := range open {
			for i := range l.events {
				if i == on.idx {
					continue
				}
				e := &l.events[i]
				if e.IsNoteOff() && e.Channel() == key[0] && e.Data[0] == key[1] {
					l.events[on.idx].link = i
					delete(open, key)
					break
				}
			}
		}
	}

	for _, on := range open {
		unlinked++
		_ = on
	}
	return unlinked
}

// LinkedNoteOff returns the index of the note-off linked to event i by
// VerifyAndLink, or -1 if i is not a linked note-on.
func (l *EventList) LinkedNoteOff(i int) int {
	if i < 0 || i >= len(l.events) {
		return -1
	}
	return l.events[i].link
}
