// Package transport bridges session intents to the actual media backends
// and translates backend events back into session updates.
package transport

import "github.com/purplemusic/purplemusic/domain"

// EventKind discriminates backend events.
type EventKind int

const (
	// EventReady: the backend finished loading and accepts commands.
	// Duration carries the known track length (0 = unknown).
	EventReady EventKind = iota
	// EventPosition: a time update. Position carries seconds.
	EventPosition
	// EventEnded: playback reached the end of the bound track.
	EventEnded
	// EventError: the backend failed; Err carries the cause. Terminal for
	// this binding.
	EventError
)

// Event is a message from a backend to the adapter.
type Event struct {
	Kind     EventKind
	Duration float64
	Position float64
	Err      error
}

// Backend is the capability contract every media backend implements. A
// backend serves exactly one binding: Load starts it, Close tears it down,
// and the Events channel closes with it.
type Backend interface {
	// Load begins loading the track; EventReady (or EventError) follows on
	// the event channel.
	Load(track domain.Track) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(level float64) error
	Events() <-chan Event
	// Close releases the backend and cancels any internal polling loop.
	Close()
}

// Factory constructs the right backend kind for a track. Selected once per
// binding, never re-branched at call sites.
type Factory func(domain.Track) (Backend, error)

// State is the adapter's per-binding lifecycle.
type State int

const (
	StateUnbound State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unbound"
	}
}
