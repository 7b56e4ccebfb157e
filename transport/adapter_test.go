package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/purplemusic/purplemusic/domain"
)

type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	closed bool

	events chan Event
	once   sync.Once
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan Event, 16)}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Load(domain.Track) error { f.record("load"); return nil }
func (f *fakeBackend) Play() error             { f.record("play"); return nil }
func (f *fakeBackend) Pause() error            { f.record("pause"); return nil }
func (f *fakeBackend) Seek(float64) error      { f.record("seek"); return nil }
func (f *fakeBackend) SetVolume(float64) error { f.record("volume"); return nil }
func (f *fakeBackend) Events() <-chan Event    { return f.events }

func (f *fakeBackend) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.events)
	})
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeFactory hands out one fake backend per Bind and remembers them all.
type fakeFactory struct {
	mu       sync.Mutex
	backends []*fakeBackend
}

func (ff *fakeFactory) new(domain.Track) (Backend, error) {
	f := newFakeBackend()
	ff.mu.Lock()
	ff.backends = append(ff.backends, f)
	ff.mu.Unlock()
	return f, nil
}

func (ff *fakeFactory) backend(i int) *fakeBackend {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return ff.backends[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type positionLog struct {
	mu        sync.Mutex
	positions []float64
}

func (p *positionLog) add(pos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions = append(p.positions, pos)
}

func (p *positionLog) has(pos float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, got := range p.positions {
		if got == pos {
			return true
		}
	}
	return false
}

func track(id string) domain.Track {
	return domain.Track{ID: id, Title: id, Source: domain.SourceStream}
}

func TestAutoplayOnReady(t *testing.T) {
	ff := &fakeFactory{}
	a := NewAdapter(ff.new, Handler{})

	a.Bind(track("t1"), true)
	f := ff.backend(0)
	f.events <- Event{Kind: EventReady, Duration: 120}

	waitFor(t, "autoplay", func() bool { return f.count("play") == 1 })
	waitFor(t, "playing state", func() bool { return a.State() == StatePlaying })
}

func TestOnlyLatestCommandBufferedWhileLoading(t *testing.T) {
	ff := &fakeFactory{}
	a := NewAdapter(ff.new, Handler{})

	a.Bind(track("t1"), false)
	if got := a.State(); got != StateLoading {
		t.Fatalf("state after bind = %v, want loading", got)
	}

	// Neither reaches the backend yet; only the last one survives.
	a.Pause()
	a.Play()
	f := ff.backend(0)
	if f.count("play")+f.count("pause") != 0 {
		t.Fatal("commands must not reach a loading backend")
	}

	f.events <- Event{Kind: EventReady}
	waitFor(t, "buffered play", func() bool { return f.count("play") == 1 })
	if f.count("pause") != 0 {
		t.Error("superseded pause was applied")
	}
}

func TestStaleBindingPositionIgnored(t *testing.T) {
	ff := &fakeFactory{}
	log := &positionLog{}
	a := NewAdapter(ff.new, Handler{OnPosition: log.add})

	oldGen := a.Bind(track("old"), false)
	ff.backend(0).events <- Event{Kind: EventReady}
	waitFor(t, "first binding ready", func() bool { return a.State() == StateReady })

	a.Bind(track("new"), false)
	ff.backend(1).events <- Event{Kind: EventReady}

	// A tick from the superseded track's poll loop must not surface.
	a.dispatch(oldGen, Event{Kind: EventPosition, Position: 99})
	ff.backend(1).events <- Event{Kind: EventPosition, Position: 5}

	waitFor(t, "current position", func() bool { return log.has(5) })
	if log.has(99) {
		t.Error("position from a stale binding reached the handler")
	}
}

func TestRebindClosesPreviousBackend(t *testing.T) {
	ff := &fakeFactory{}
	a := NewAdapter(ff.new, Handler{})

	a.Bind(track("t1"), false)
	a.Bind(track("t2"), false)

	if !ff.backend(0).isClosed() {
		t.Error("previous backend must be closed on rebind")
	}
	if ff.backend(1).isClosed() {
		t.Error("current backend must stay open")
	}
}

func TestErrorStateIsTerminalForBinding(t *testing.T) {
	ff := &fakeFactory{}
	var gotErr error
	var mu sync.Mutex
	a := NewAdapter(ff.new, Handler{OnError: func(err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	}})

	a.Bind(track("t1"), false)
	f := ff.backend(0)
	f.events <- Event{Kind: EventError, Err: errors.New("decode failed")}

	waitFor(t, "error state", func() bool { return a.State() == StateError })
	mu.Lock()
	if gotErr == nil {
		t.Error("error handler not invoked")
	}
	mu.Unlock()

	a.Play()
	if f.count("play") != 0 {
		t.Error("commands must be dropped after a binding fails")
	}

	// A fresh bind recovers.
	a.Bind(track("t2"), false)
	if got := a.State(); got != StateLoading {
		t.Errorf("state after rebind = %v, want loading", got)
	}
}

func TestEndedEventNotifiesHandler(t *testing.T) {
	ff := &fakeFactory{}
	done := make(chan struct{}, 1)
	a := NewAdapter(ff.new, Handler{OnEnded: func() { done <- struct{}{} }})

	a.Bind(track("t1"), true)
	f := ff.backend(0)
	f.events <- Event{Kind: EventReady}
	waitFor(t, "playing", func() bool { return a.State() == StatePlaying })
	f.events <- Event{Kind: EventEnded}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OnEnded not invoked")
	}
	waitFor(t, "ended state", func() bool { return a.State() == StateEnded })
}

func TestUnbindDropsCommands(t *testing.T) {
	ff := &fakeFactory{}
	a := NewAdapter(ff.new, Handler{})

	a.Bind(track("t1"), false)
	ff.backend(0).events <- Event{Kind: EventReady}
	waitFor(t, "ready", func() bool { return a.State() == StateReady })

	a.Unbind()
	if !ff.backend(0).isClosed() {
		t.Error("unbind must close the backend")
	}
	a.Play()
	if ff.backend(0).count("play") != 0 {
		t.Error("commands after unbind must be no-ops")
	}
}
