package schedule

import (
	"math/rand"
	"testing"
)

func mustGen(t *testing.T, open, close, slot int) *Generator {
	t.Helper()
	g, err := NewGenerator(open, close, slot)
	if err != nil {
		t.Fatalf("NewGenerator(%d, %d, %d): %v", open, close, slot, err)
	}
	return g
}

func TestFreeSlotsEmptyDay(t *testing.T) {
	// 08:00-20:00 with 60-minute slots yields 12 slots.
	g := mustGen(t, 480, 1200, 60)
	slots := g.FreeSlots(nil)
	if len(slots) != 12 {
		t.Fatalf("got %d slots, want 12", len(slots))
	}
	for i, s := range slots {
		wantStart := 480 + i*60
		if s.Start != wantStart || s.End != wantStart+60 {
			t.Fatalf("slot %d = %v, want [%d, %d)", i, s, wantStart, wantStart+60)
		}
	}
}

func TestFreeSlotsExcludeBooked(t *testing.T) {
	g := mustGen(t, 480, 720, 60) // 08:00-12:00
	booked := []Interval{{Start: 540, End: 600}}
	slots := g.FreeSlots(booked)
	want := []Interval{{480, 540}, {600, 660}, {660, 720}}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d = %v, want %v", i, slots[i], want[i])
		}
	}
}

func TestMidSlotBookingKnocksOutWholeSlot(t *testing.T) {
	g := mustGen(t, 480, 720, 60)
	// A booking from 09:30 to 10:30 straddles two slots; both go away,
	// and no partial 10:30-11:00 slot appears.
	booked := []Interval{{Start: 570, End: 630}}
	slots := g.FreeSlots(booked)
	want := []Interval{{480, 540}, {660, 720}}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d = %v, want %v", i, slots[i], want[i])
		}
	}
}

func TestTrailingRemainderDropped(t *testing.T) {
	// A 90-minute window with 60-minute slots yields exactly one slot.
	g := mustGen(t, 480, 570, 60)
	if slots := g.FreeSlots(nil); len(slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(slots))
	}
}

func TestIteratorMatchesFreeSlots(t *testing.T) {
	g := mustGen(t, 480, 1200, 30)
	booked := []Interval{{500, 560}, {700, 710}, {900, 1000}}
	var fromIter []Interval
	it := g.Iter(booked)
	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		fromIter = append(fromIter, s)
	}
	materialized := g.FreeSlots(booked)
	if len(fromIter) != len(materialized) {
		t.Fatalf("iterator yielded %d slots, FreeSlots %d", len(fromIter), len(materialized))
	}
	for i := range fromIter {
		if fromIter[i] != materialized[i] {
			t.Fatalf("slot %d differs: %v vs %v", i, fromIter[i], materialized[i])
		}
	}
}

func TestCovers(t *testing.T) {
	g := mustGen(t, 480, 720, 60)
	booked := []Interval{{600, 660}} // 10:00-11:00 taken

	cases := []struct {
		name string
		iv   Interval
		want bool
	}{
		{"free single slot", Interval{480, 540}, true},
		{"free double slot", Interval{480, 600}, true},
		{"overlaps booked", Interval{540, 660}, false},
		{"off slot boundary", Interval{510, 570}, false},
		{"not whole slots", Interval{480, 570}, false},
		{"before opening", Interval{420, 480}, false},
		{"past closing", Interval{660, 780}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Covers(tc.iv, booked); got != tc.want {
				t.Fatalf("Covers(%v) = %v, want %v", tc.iv, got, tc.want)
			}
		})
	}
}

func TestFreeSlotsNeverOverlapBookings(t *testing.T) {
	// Randomized check: no generated free slot may ever intersect a
	// booked interval, and slots stay within the operating window.
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		g := mustGen(t, 480, 1200, 60)
		var booked []Interval
		for i := 0; i < rng.Intn(6); i++ {
			start := 480 + rng.Intn(660)
			length := 30 + rng.Intn(180)
			end := start + length
			if end > 1200 {
				end = 1200
			}
			if end > start {
				booked = append(booked, Interval{Start: start, End: end})
			}
		}
		for _, s := range booked {
			for _, free := range g.FreeSlots(booked) {
				if free.Overlaps(s) {
					t.Fatalf("trial %d: free slot %v overlaps booking %v", trial, free, s)
				}
				if free.Start < 480 || free.End > 1200 {
					t.Fatalf("trial %d: slot %v outside operating window", trial, free)
				}
			}
		}
	}
}
