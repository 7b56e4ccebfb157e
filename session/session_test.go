package session

import (
	"testing"

	"github.com/purplemusic/purplemusic/domain"
)

type recordingSaver struct {
	calls int
	last  domain.Snapshot
}

func (r *recordingSaver) Save(s domain.Snapshot) {
	r.calls++
	r.last = s
}

func makeQueue(n int) domain.Queue {
	q := domain.Queue{ID: "q1", Title: "test"}
	for i := 0; i < n; i++ {
		q.Tracks = append(q.Tracks, domain.Track{
			ID:    string(rune('a' + i)),
			Title: "track",
			URL:   "https://example.com/" + string(rune('a'+i)),
		})
	}
	return q
}

func TestRepeatCycleFromFreshSession(t *testing.T) {
	s := New(nil)
	if got := s.Mode().Repeat; got != domain.RepeatOff {
		t.Fatalf("fresh session repeat = %q, want %q", got, domain.RepeatOff)
	}

	want := []domain.RepeatMode{domain.RepeatOne, domain.RepeatAll, domain.RepeatOff}
	for i, w := range want {
		s.CycleRepeat()
		if got := s.Mode().Repeat; got != w {
			t.Fatalf("cycle step %d = %q, want %q", i+1, got, w)
		}
	}
}

func TestAdvanceWrapsWithRepeatAll(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8} {
		s := New(nil)
		s.OpenQueue(makeQueue(n))
		s.CycleRepeat() // off -> one
		s.CycleRepeat() // one -> all

		start := s.Queue().Index
		for i := 0; i < n; i++ {
			s.Advance(Next)
		}
		if got := s.Queue().Index; got != start {
			t.Errorf("queue len %d: %d advances with repeat=all ended at index %d, want %d", n, n, got, start)
		}
	}
}

func TestAdvanceStopsAtBoundaryWithRepeatOff(t *testing.T) {
	s := New(nil)
	s.OpenQueue(makeQueue(3))
	s.Advance(Next)
	s.Advance(Next)
	if _, moved := s.Advance(Next); moved {
		t.Error("Advance(Next) at last index with repeat=off should be a no-op")
	}
	if got := s.Queue().Index; got != 2 {
		t.Errorf("index = %d, want 2", got)
	}
}

func TestShuffleSingleItemNeverMoves(t *testing.T) {
	s := New(nil)
	s.OpenQueue(makeQueue(1))
	s.ToggleShuffle()

	for i := 0; i < 25; i++ {
		if _, moved := s.Advance(Next); moved {
			t.Fatal("shuffle advance on a single-item queue selected a different index")
		}
	}
}

func TestShuffleNeverPicksCurrentIndex(t *testing.T) {
	s := New(nil)
	s.OpenQueue(makeQueue(4))
	s.ToggleShuffle()

	for i := 0; i < 50; i++ {
		before := s.Queue().Index
		_, moved := s.Advance(Next)
		if !moved {
			t.Fatal("shuffle advance on a multi-item queue should always move")
		}
		if after := s.Queue().Index; after == before {
			t.Fatalf("shuffle picked the current index %d", before)
		}
	}
}

func TestSetTransportClampsPosition(t *testing.T) {
	s := New(nil)
	s.SelectTrack(domain.Track{ID: "x", URL: "u", Duration: 120})
	s.SetTransport(func(ts *domain.TransportState) {
		ts.Position = 170 // duration + 50
	})
	if got := s.Transport().Position; got != 120 {
		t.Errorf("position = %v, want clamped to 120", got)
	}

	// Unknown duration: no upper clamp.
	s.SelectTrack(domain.Track{ID: "y", URL: "v"})
	s.SetTransport(func(ts *domain.TransportState) {
		ts.Position = 170
	})
	if got := s.Transport().Position; got != 170 {
		t.Errorf("position with unknown duration = %v, want 170", got)
	}
}

func TestJumpToInvalidIndexIsNoop(t *testing.T) {
	s := New(nil)
	s.OpenQueue(makeQueue(3))
	s.JumpTo(1)

	for _, i := range []int{-1, 3, 99} {
		if _, ok := s.JumpTo(i); ok {
			t.Errorf("JumpTo(%d) should be a no-op", i)
		}
	}
	if got := s.Queue().Index; got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
}

func TestSelectTrackClearsQueueAndResetsPosition(t *testing.T) {
	s := New(nil)
	s.OpenQueue(makeQueue(3))
	s.SetTransport(func(ts *domain.TransportState) { ts.Position = 42 })

	s.SelectTrack(domain.Track{ID: "solo", URL: "u", Duration: 60})
	if s.Queue() != nil {
		t.Error("SelectTrack should clear the queue association")
	}
	if got := s.Transport().Position; got != 0 {
		t.Errorf("position = %v, want 0 after SelectTrack", got)
	}
}

func TestLoadQueueItemsKeepsSelectedTrack(t *testing.T) {
	s := New(nil)
	s.OpenQueue(domain.Queue{ID: "q", Title: "async"}) // items arrive later

	// User selects something before the queue items land.
	s.mu.Lock()
	s.track = domain.Track{ID: "b", URL: "https://example.com/b"}
	s.mu.Unlock()

	q := makeQueue(3)
	s.LoadQueueItems(q.Tracks)

	cur, ok := s.Current()
	if !ok || cur.ID != "b" {
		t.Fatalf("current = %+v, want the already-selected track b", cur)
	}
	if got := s.Queue().Index; got != 1 {
		t.Errorf("index = %d, want 1 (matched against selected track)", got)
	}
}

func TestLoadQueueItemsSelectsFirstWhenNothingSelected(t *testing.T) {
	s := New(nil)
	s.OpenQueue(domain.Queue{ID: "q"})
	s.LoadQueueItems(makeQueue(2).Tracks)

	cur, ok := s.Current()
	if !ok || cur.ID != "a" {
		t.Fatalf("current = %+v, want first queue item", cur)
	}
}

func TestAdvanceOnEndPolicies(t *testing.T) {
	t.Run("repeat one restarts", func(t *testing.T) {
		s := New(nil)
		s.OpenQueue(makeQueue(2))
		s.CycleRepeat() // one
		action, _ := s.AdvanceOnEnd()
		if action != ActionRestart {
			t.Errorf("action = %v, want ActionRestart", action)
		}
		if got := s.Queue().Index; got != 0 {
			t.Errorf("index = %d, want unchanged 0", got)
		}
	})

	t.Run("repeat off stops at last", func(t *testing.T) {
		s := New(nil)
		s.OpenQueue(makeQueue(2))
		s.JumpTo(1)
		action, _ := s.AdvanceOnEnd()
		if action != ActionStop {
			t.Errorf("action = %v, want ActionStop", action)
		}
		if s.Transport().Playing {
			t.Error("transport should not report playing after stop")
		}
	})

	t.Run("repeat all wraps", func(t *testing.T) {
		s := New(nil)
		s.OpenQueue(makeQueue(2))
		s.CycleRepeat()
		s.CycleRepeat() // all
		s.JumpTo(1)
		action, track := s.AdvanceOnEnd()
		if action != ActionPlay {
			t.Errorf("action = %v, want ActionPlay", action)
		}
		if track.ID != "a" {
			t.Errorf("track = %s, want wrap to first item", track.ID)
		}
	})
}

func TestEveryMutationSavesSnapshot(t *testing.T) {
	saver := &recordingSaver{}
	s := New(saver)

	s.SelectTrack(domain.Track{ID: "x", URL: "u", Duration: 10})
	s.ToggleShuffle()
	s.CycleRepeat()
	s.SetTransport(func(ts *domain.TransportState) { ts.Position = 5 })

	if saver.calls != 4 {
		t.Errorf("saver called %d times, want 4", saver.calls)
	}
	if saver.last.TrackKey != "x" || saver.last.Position != 5 {
		t.Errorf("last snapshot = %+v", saver.last)
	}
	if !saver.last.Shuffle || saver.last.Repeat != domain.RepeatOne {
		t.Errorf("snapshot policy = shuffle=%v repeat=%v", saver.last.Shuffle, saver.last.Repeat)
	}
}

func TestListenersNotifiedSynchronously(t *testing.T) {
	s := New(nil)
	notified := 0
	s.Subscribe(func() { notified++ })
	s.SelectTrack(domain.Track{ID: "x", URL: "u"})
	if notified != 1 {
		t.Errorf("listener notified %d times, want 1", notified)
	}
}
