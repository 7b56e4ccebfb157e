// Package session holds the single source of truth for "what is playing and
// how": current track, queue, transport state and shuffle/repeat policy.
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/purplemusic/purplemusic/domain"
)

// Saver receives a snapshot after every mutating operation. Persistence is
// advisory; Save must never fail loudly.
type Saver interface {
	Save(domain.Snapshot)
}

// Listener is notified synchronously after every mutation.
type Listener func()

// Direction selects which way Advance moves through the queue.
type Direction int

const (
	Next Direction = iota
	Previous
)

// EndAction tells the caller what to do when the backend reports end of
// track.
type EndAction int

const (
	// ActionStop: no next item and repeat is off; the caller should pause.
	ActionStop EndAction = iota
	// ActionRestart: repeat-one; seek to zero and keep playing.
	ActionRestart
	// ActionPlay: the session advanced; bind and play the new current track.
	ActionPlay
)

// Session serializes all playback-state mutations. Operations on in-memory
// state cannot fail in the domain sense: invalid inputs are no-ops, not
// errors.
type Session struct {
	mu        sync.Mutex
	track     domain.Track
	queue     *domain.Queue
	transport domain.TransportState
	mode      domain.PlayMode

	rng       *rand.Rand
	saver     Saver
	listeners []Listener
}

// New creates an empty session. saver may be nil.
func New(saver Saver) *Session {
	return &Session{
		saver: saver,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		transport: domain.TransportState{
			Volume: 1,
		},
		mode: domain.PlayMode{
			Repeat: domain.RepeatOff,
		},
	}
}

// Subscribe registers a listener called synchronously after every mutation.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Current returns the current track, or false when nothing is selected.
func (s *Session) Current() (domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track, !s.track.IsZero()
}

// Queue returns a copy of the current queue, or nil in single-item mode.
func (s *Session) Queue() *domain.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue == nil {
		return nil
	}
	q := *s.queue
	q.Tracks = append([]domain.Track(nil), s.queue.Tracks...)
	return &q
}

// Transport returns the current transport state.
func (s *Session) Transport() domain.TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// Mode returns the current shuffle/repeat policy.
func (s *Session) Mode() domain.PlayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SelectTrack replaces the current track in single-item mode: the queue
// association is cleared and the position resets to zero. Selection does not
// imply autoplay; the adapter decides that on successful load.
func (s *Session) SelectTrack(t domain.Track) {
	if t.IsZero() {
		return
	}
	s.mu.Lock()
	s.track = t
	s.queue = nil
	s.transport.Position = 0
	s.transport.Duration = t.Duration
	s.mu.Unlock()
	s.changed()
}

// OpenQueue replaces the queue. If the item list is already present the
// current track becomes the first item; an empty list waits for
// LoadQueueItems.
func (s *Session) OpenQueue(q domain.Queue) {
	s.mu.Lock()
	q.Index = -1
	s.queue = &q
	if len(q.Tracks) > 0 {
		s.queue.Index = 0
		s.track = q.Tracks[0]
		s.transport.Position = 0
		s.transport.Duration = s.track.Duration
	}
	s.mu.Unlock()
	s.changed()
}

// LoadQueueItems populates a queue whose items arrived asynchronously
// (paginated fetch). An already-selected current item is not disturbed;
// when none was selected yet the first item becomes current.
func (s *Session) LoadQueueItems(items []domain.Track) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	if s.queue == nil {
		s.mu.Unlock()
		return
	}
	s.queue.Tracks = append(s.queue.Tracks, items...)
	if s.queue.Index < 0 {
		// Nothing selected yet: adopt the first item, unless a track was
		// already chosen outside the queue.
		if s.track.IsZero() {
			s.queue.Index = 0
			s.track = s.queue.Tracks[0]
			s.transport.Position = 0
			s.transport.Duration = s.track.Duration
		} else {
			for i, t := range s.queue.Tracks {
				if t.Key() == s.track.Key() {
					s.queue.Index = i
					break
				}
			}
			if s.queue.Index < 0 {
				s.queue.Index = 0
			}
		}
	}
	s.mu.Unlock()
	s.changed()
}

// Advance moves to the next or previous track. With shuffle enabled it picks
// a pseudo-random valid index different from the current one when the queue
// has more than one item. At the boundary with repeat off, Next is a no-op.
// Returns the new current track and whether the index actually moved.
func (s *Session) Advance(dir Direction) (domain.Track, bool) {
	s.mu.Lock()
	next, ok := s.advanceLocked(dir)
	if !ok {
		s.mu.Unlock()
		return domain.Track{}, false
	}
	s.applyIndexLocked(next)
	t := s.track
	s.mu.Unlock()
	s.changed()
	return t, true
}

// advanceLocked computes the next index without applying it.
func (s *Session) advanceLocked(dir Direction) (int, bool) {
	if s.queue == nil || s.queue.IsEmpty() {
		return 0, false
	}
	n := len(s.queue.Tracks)
	cur := s.queue.Index

	if s.mode.Shuffle {
		if n <= 1 {
			return 0, false
		}
		// Re-randomized on every call; repeated advances may revisit an
		// index. Matches the original product behavior.
		next := s.rng.Intn(n - 1)
		if next >= cur {
			next++
		}
		return next, true
	}

	switch dir {
	case Next:
		if cur+1 >= n {
			if s.mode.Repeat == domain.RepeatAll {
				return 0, true
			}
			return 0, false
		}
		return cur + 1, true
	default:
		if cur-1 < 0 {
			if s.mode.Repeat == domain.RepeatAll {
				return n - 1, true
			}
			return 0, false
		}
		return cur - 1, true
	}
}

func (s *Session) applyIndexLocked(i int) {
	s.queue.Index = i
	s.track = s.queue.Tracks[i]
	s.transport.Position = 0
	s.transport.Duration = s.track.Duration
}

// JumpTo selects a queue index directly. Out-of-range indexes are no-ops.
func (s *Session) JumpTo(i int) (domain.Track, bool) {
	s.mu.Lock()
	if s.queue == nil || i < 0 || i >= len(s.queue.Tracks) {
		s.mu.Unlock()
		return domain.Track{}, false
	}
	s.applyIndexLocked(i)
	t := s.track
	s.mu.Unlock()
	s.changed()
	return t, true
}

// AdvanceOnEnd runs the end-of-track policy and reports what the transport
// should do next.
func (s *Session) AdvanceOnEnd() (EndAction, domain.Track) {
	s.mu.Lock()
	if s.mode.Repeat == domain.RepeatOne {
		t := s.track
		s.transport.Position = 0
		s.mu.Unlock()
		s.changed()
		return ActionRestart, t
	}
	next, ok := s.advanceLocked(Next)
	if !ok {
		s.transport.Playing = false
		s.mu.Unlock()
		s.changed()
		return ActionStop, domain.Track{}
	}
	s.applyIndexLocked(next)
	t := s.track
	s.mu.Unlock()
	s.changed()
	return ActionPlay, t
}

// SetTransport merges a partial transport update from backend events or user
// scrubbing. Position is clamped to [0, duration] when the duration is
// known.
func (s *Session) SetTransport(update func(*domain.TransportState)) {
	if update == nil {
		return
	}
	s.mu.Lock()
	update(&s.transport)
	s.transport.Clamp()
	s.mu.Unlock()
	s.changed()
}

// ToggleShuffle flips the shuffle flag. Pure policy toggle, no effect on
// current playback.
func (s *Session) ToggleShuffle() {
	s.mu.Lock()
	s.mode.Shuffle = !s.mode.Shuffle
	s.mu.Unlock()
	s.changed()
}

// CycleRepeat steps off -> one -> all -> off.
func (s *Session) CycleRepeat() {
	s.mu.Lock()
	s.mode.Repeat = s.mode.Repeat.Next()
	s.mu.Unlock()
	s.changed()
}

// Restore applies a persisted snapshot on startup. Only the policy and
// position are restored here; resolving the track key back to a playable
// track is the caller's job.
func (s *Session) Restore(snap domain.Snapshot, track domain.Track) {
	s.mu.Lock()
	s.mode.Shuffle = snap.Shuffle
	s.mode.Repeat = domain.ParseRepeatMode(string(snap.Repeat))
	if !track.IsZero() {
		s.track = track
		s.transport.Position = snap.Position
		s.transport.Duration = track.Duration
		s.transport.Clamp()
	}
	s.mu.Unlock()
	s.changed()
}

// Snapshot builds the persisted view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		TrackKey:   s.track.Key(),
		Position:   s.transport.Position,
		Shuffle:    s.mode.Shuffle,
		Repeat:     s.mode.Repeat,
		QueueIndex: -1,
	}
	if s.queue != nil {
		snap.QueueIndex = s.queue.Index
	}
	return snap
}

// changed persists a snapshot and notifies subscribers. Called after every
// mutation, outside the state lock so listeners can read back freely.
func (s *Session) changed() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	saver := s.saver
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if saver != nil {
		saver.Save(snap)
	}
	for _, l := range listeners {
		l()
	}
}
