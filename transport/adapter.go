package transport

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/purplemusic/purplemusic/domain"
)

// Handler receives translated backend events. Callbacks run on the
// adapter's event goroutine; keep them short and marshal UI work through
// the UI framework.
type Handler struct {
	OnDuration func(seconds float64)
	OnPosition func(seconds float64)
	OnEnded    func()
	OnError    func(err error)
	OnState    func(State)
}

// pendingCommand is the single most recent transport command buffered while
// the backend is still loading.
type pendingCommand struct {
	run  func(Backend) error
	name string
}

// Adapter owns the binding between the session's current track and a
// concrete media backend. Commands issued while unbound are no-ops;
// commands issued while loading buffer the most recent one and apply it on
// readiness. Events from a superseded binding are discarded.
type Adapter struct {
	factory Factory
	handler Handler

	// generation increments on every Bind; events carry the generation of
	// the binding that produced them.
	generation atomic.Uint64

	mu       sync.Mutex
	backend  Backend
	track    domain.Track
	state    State
	autoplay bool
	pending  *pendingCommand
}

// NewAdapter creates an adapter using factory to construct backends. The
// factory is injected so tests can run against a fake backend and multiple
// adapters stay independent.
func NewAdapter(factory Factory, handler Handler) *Adapter {
	return &Adapter{
		factory: factory,
		handler: handler,
		state:   StateUnbound,
	}
}

// State returns the current binding state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Track returns the currently bound track.
func (a *Adapter) Track() domain.Track {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.track
}

// Bind tears down any previous binding and constructs a backend for the
// given track. When autoplay is set, playback starts as soon as the backend
// reports ready (unless a buffered command decided otherwise). Returns the
// new binding's generation.
func (a *Adapter) Bind(track domain.Track, autoplay bool) uint64 {
	gen := a.generation.Inc()

	a.mu.Lock()
	prev := a.backend
	a.backend = nil
	a.track = track
	a.pending = nil
	a.autoplay = autoplay
	a.setStateLocked(StateLoading)
	a.mu.Unlock()

	if prev != nil {
		// Cancels the old position poll with it; ticks from the old track
		// must never reach the new binding.
		prev.Close()
	}

	backend, err := a.factory(track)
	if err != nil {
		a.failBinding(gen, err)
		return gen
	}

	a.mu.Lock()
	if a.generation.Load() != gen {
		// A newer Bind raced us while the factory ran.
		a.mu.Unlock()
		backend.Close()
		return gen
	}
	a.backend = backend
	a.mu.Unlock()

	go a.pump(gen, backend)

	if err := backend.Load(track); err != nil {
		a.failBinding(gen, err)
	}
	return gen
}

// Unbind tears down the current binding without starting a new one.
func (a *Adapter) Unbind() {
	a.generation.Inc()
	a.mu.Lock()
	prev := a.backend
	a.backend = nil
	a.track = domain.Track{}
	a.pending = nil
	a.setStateLocked(StateUnbound)
	a.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// Play forwards to the bound backend, or buffers when still loading.
func (a *Adapter) Play() {
	a.command("play", func(b Backend) error { return b.Play() }, StatePlaying)
}

// Pause forwards to the bound backend, or buffers when still loading.
func (a *Adapter) Pause() {
	a.command("pause", func(b Backend) error { return b.Pause() }, StatePaused)
}

// Seek forwards an absolute seek in seconds.
func (a *Adapter) Seek(seconds float64) {
	a.command("seek", func(b Backend) error { return b.Seek(seconds) }, StateUnbound)
}

// SetVolume forwards a volume level in [0,1].
func (a *Adapter) SetVolume(level float64) {
	a.command("volume", func(b Backend) error { return b.SetVolume(level) }, StateUnbound)
}

// command runs a transport command against the current backend. While
// loading, only the most recent command is kept and applied on readiness;
// unbound or failed bindings drop commands silently. next is the state the
// binding moves to on success (StateUnbound means no transition).
func (a *Adapter) command(name string, run func(Backend) error, next State) {
	a.mu.Lock()
	switch a.state {
	case StateUnbound, StateError:
		a.mu.Unlock()
		return
	case StateLoading:
		a.pending = &pendingCommand{run: run, name: name}
		a.mu.Unlock()
		return
	}
	b := a.backend
	if next != StateUnbound {
		a.setStateLocked(next)
	}
	a.mu.Unlock()

	if b == nil {
		return
	}
	if err := run(b); err != nil {
		log.WithError(err).WithField("command", name).Warn("transport command failed")
	}
}

// pump forwards backend events for one binding until its channel closes.
func (a *Adapter) pump(gen uint64, b Backend) {
	for ev := range b.Events() {
		a.dispatch(gen, ev)
	}
}

// dispatch applies one backend event, ignoring events from stale bindings.
func (a *Adapter) dispatch(gen uint64, ev Event) {
	if a.generation.Load() != gen {
		return
	}

	switch ev.Kind {
	case EventReady:
		a.mu.Lock()
		if a.state != StateLoading {
			a.mu.Unlock()
			return
		}
		a.setStateLocked(StateReady)
		pending := a.pending
		a.pending = nil
		autoplay := a.autoplay
		a.mu.Unlock()

		if a.handler.OnDuration != nil && ev.Duration > 0 {
			a.handler.OnDuration(ev.Duration)
		}
		switch {
		case pending != nil:
			a.command(pending.name, pending.run, stateFor(pending.name))
		case autoplay:
			a.Play()
		}

	case EventPosition:
		if a.handler.OnPosition != nil {
			a.handler.OnPosition(ev.Position)
		}
		if ev.Duration > 0 && a.handler.OnDuration != nil {
			a.handler.OnDuration(ev.Duration)
		}

	case EventEnded:
		a.mu.Lock()
		a.setStateLocked(StateEnded)
		a.mu.Unlock()
		if a.handler.OnEnded != nil {
			a.handler.OnEnded()
		}

	case EventError:
		a.failBinding(gen, ev.Err)
	}
}

// failBinding moves a binding into the terminal error state and surfaces a
// non-fatal playback failure.
func (a *Adapter) failBinding(gen uint64, err error) {
	if a.generation.Load() != gen {
		return
	}
	a.mu.Lock()
	a.setStateLocked(StateError)
	a.mu.Unlock()
	log.WithError(err).WithField("track", a.Track().Title).Warn("playback failed")
	if a.handler.OnError != nil {
		a.handler.OnError(err)
	}
}

func (a *Adapter) setStateLocked(s State) {
	if a.state == s {
		return
	}
	a.state = s
	if a.handler.OnState != nil {
		// Fired under the lock; handlers must not call back into the
		// adapter.
		go a.handler.OnState(s)
	}
}

func stateFor(command string) State {
	switch command {
	case "play":
		return StatePlaying
	case "pause":
		return StatePaused
	default:
		return 0
	}
}
