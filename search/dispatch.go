package search

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/purplemusic/purplemusic/domain"
)

// Searcher resolves a query into tracks. Implementations soft-fail: any
// transport or decode problem yields an empty slice, never an error.
type Searcher interface {
	Search(ctx context.Context, query string) []domain.Track
}

// Dispatcher runs queries asynchronously and guarantees that only the most
// recent query's results are delivered. Every submission takes a fresh
// request id; a response whose id is no longer current is discarded, so a
// slow early query can never overwrite a later one.
type Dispatcher struct {
	source  Searcher
	deliver func(query string, tracks []domain.Track)

	requestID atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher feeding results to deliver. deliver
// runs on the fetch goroutine; marshal UI mutations through the UI loop.
func NewDispatcher(source Searcher, deliver func(query string, tracks []domain.Track)) *Dispatcher {
	return &Dispatcher{source: source, deliver: deliver}
}

// Submit starts a new query, superseding and cancelling any in-flight one.
func (d *Dispatcher) Submit(query string) {
	id := d.requestID.Inc()

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		tracks := d.source.Search(ctx, query)
		if d.requestID.Load() != id {
			// Superseded while in flight.
			return
		}
		d.deliver(query, tracks)
	}()
}

// Cancel invalidates any in-flight query without starting a new one.
func (d *Dispatcher) Cancel() {
	d.requestID.Inc()
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()
}
