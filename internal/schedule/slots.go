package schedule

import "fmt"

// Generator enumerates candidate booking slots for one workspace and
// date.  The slot length equals the workspace's minimum booking
// duration, and candidate start offsets advance one slot length at a
// time across the operating window.  A candidate is free iff it
// overlaps none of the supplied active bookings; a booking whose
// bounds fall mid-slot knocks out the whole slot rather than
// producing a partial one.
type Generator struct {
	open  int // operating window start, minutes from midnight
	close int // operating window end (exclusive)
	slot  int // slot length in minutes
}

// NewGenerator validates the operating window and granularity.  The
// window must be a valid interval and the slot length positive.
func NewGenerator(openMinute, closeMinute, slotMinutes int) (*Generator, error) {
	if _, err := NewInterval(openMinute, closeMinute); err != nil {
		return nil, err
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot length %d", ErrInvalidInterval, slotMinutes)
	}
	return &Generator{open: openMinute, close: closeMinute, slot: slotMinutes}, nil
}

// SlotMinutes returns the generator's slot granularity.
func (g *Generator) SlotMinutes() int { return g.slot }

// Iterator walks the free slots lazily in chronological order.  It is
// deterministic for a given booking list and can be restarted by
// calling Iter again.
type Iterator struct {
	g      *Generator
	booked []Interval
	next   int // start offset of the next candidate
}

// Iter returns a fresh iterator over the free slots given the active
// bookings for the workspace and date.  The booked slice is not
// copied; callers must not mutate it while iterating.
func (g *Generator) Iter(booked []Interval) *Iterator {
	return &Iterator{g: g, booked: booked, next: g.open}
}

// Next yields the next free slot.  The boolean is false once the
// operating window is exhausted.
func (it *Iterator) Next() (Interval, bool) {
	for it.next+it.g.slot <= it.g.close {
		candidate := Interval{Start: it.next, End: it.next + it.g.slot}
		it.next += it.g.slot
		if !overlapsAny(candidate, it.booked) {
			return candidate, true
		}
	}
	return Interval{}, false
}

// FreeSlots materializes the full ordered list of free slots.
func (g *Generator) FreeSlots(booked []Interval) []Interval {
	out := []Interval{}
	it := g.Iter(booked)
	for {
		s, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

// Covers reports whether the requested interval is exactly a
// contiguous union of free slots: it must start on a slot boundary,
// span a whole number of slots, and every constituent slot must be
// free.  This is the availability test the booking engine applies
// before accepting a reservation.
func (g *Generator) Covers(requested Interval, booked []Interval) bool {
	if requested.Start < g.open || requested.End > g.close {
		return false
	}
	if (requested.Start-g.open)%g.slot != 0 || requested.DurationMinutes()%g.slot != 0 {
		return false
	}
	for start := requested.Start; start < requested.End; start += g.slot {
		piece := Interval{Start: start, End: start + g.slot}
		if overlapsAny(piece, booked) {
			return false
		}
	}
	return true
}

func overlapsAny(candidate Interval, booked []Interval) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
