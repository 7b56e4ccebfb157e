package lyrics

import (
	"sync"
	"time"
)

// scrollInterval limits auto-scroll so we do not fight the terminal's own
// redraw with ourselves.
const scrollInterval = 180 * time.Millisecond

// Sync tracks the active line for a transcript across position updates and
// only reports when the line actually changes, so the UI is not re-rendered
// sixty times a second for the same line.
type Sync struct {
	mu         sync.Mutex
	transcript Transcript
	active     int
	lastScroll time.Time
	now        func() time.Time
}

// NewSync creates a Sync for the given transcript.
func NewSync(t Transcript) *Sync {
	return &Sync{
		transcript: t,
		active:     -1,
		now:        time.Now,
	}
}

// Transcript returns the transcript being synced.
func (s *Sync) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Reset re-targets the sync at a new transcript (track change). The active
// index is recomputed from zero on the next update.
func (s *Sync) Reset(t Transcript) {
	s.mu.Lock()
	s.transcript = t
	s.active = -1
	s.lastScroll = time.Time{}
	s.mu.Unlock()
}

// Update recomputes the active line for the given position. It returns the
// active index and whether it changed since the previous call; callers
// should only redraw on change.
func (s *Sync) Update(pos float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.transcript.ActiveIndex(pos)
	if idx == s.active {
		return idx, false
	}
	s.active = idx
	return idx, true
}

// Active returns the last computed active index, -1 when none.
func (s *Sync) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ShouldScroll rate-limits auto-scrolling to the active line. It returns
// true at most once per scrollInterval.
func (s *Sync) ShouldScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastScroll) < scrollInterval {
		return false
	}
	s.lastScroll = now
	return true
}
