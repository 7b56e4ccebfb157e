// Package search coalesces search-as-you-type input, fans the query out
// across the remote sources and guards result delivery against stale
// responses.
package search

import (
	"sync"
	"time"
)

// Debounce windows. Typing uses the short window; the heavier remote
// aggregator round-trip gets the longer one.
const (
	TypingWindow = 300 * time.Millisecond
	RemoteWindow = 500 * time.Millisecond
)

// Debouncer delays a callback until input settles. Each Trigger supersedes
// the previous one; Cancel drops whatever is pending. Safe for concurrent
// use.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given settle window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn after the window, replacing any pending callback.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Cancel drops the pending callback, if any. Switching views or tracks
// calls this so an obsolete search never fires.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
