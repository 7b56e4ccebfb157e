package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/purplemusic/purplemusic/domain"
)

// blockingSearcher parks each query until the test releases it by name.
type blockingSearcher struct {
	mu      sync.Mutex
	release map[string]chan struct{}
}

func newBlockingSearcher() *blockingSearcher {
	return &blockingSearcher{release: make(map[string]chan struct{})}
}

func (b *blockingSearcher) gate(query string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.release[query]
	if !ok {
		ch = make(chan struct{})
		b.release[query] = ch
	}
	return ch
}

func (b *blockingSearcher) Search(_ context.Context, query string) []domain.Track {
	<-b.gate(query)
	return []domain.Track{{ID: query, Title: query}}
}

type deliveryLog struct {
	mu      sync.Mutex
	queries []string
}

func (d *deliveryLog) record(query string, _ []domain.Track) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, query)
}

func (d *deliveryLog) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...)
}

func TestStaleResponseNeverDelivered(t *testing.T) {
	src := newBlockingSearcher()
	log := &deliveryLog{}
	d := NewDispatcher(src, log.record)

	d.Submit("A")
	d.Submit("B")

	// B resolves first even though A was issued first.
	close(src.gate("B"))
	waitUntil(t, "B delivered", func() bool {
		got := log.snapshot()
		return len(got) == 1 && got[0] == "B"
	})

	// A resolves late; its results must be discarded.
	close(src.gate("A"))
	time.Sleep(50 * time.Millisecond)
	if got := log.snapshot(); len(got) != 1 || got[0] != "B" {
		t.Errorf("deliveries = %v, want only B", got)
	}
}

func TestCancelDropsInFlightQuery(t *testing.T) {
	src := newBlockingSearcher()
	log := &deliveryLog{}
	d := NewDispatcher(src, log.record)

	d.Submit("A")
	d.Cancel()
	close(src.gate("A"))

	time.Sleep(50 * time.Millisecond)
	if got := log.snapshot(); len(got) != 0 {
		t.Errorf("cancelled query delivered results: %v", got)
	}
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var mu sync.Mutex
	fired := 0

	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			fired++
			mu.Unlock()
		})
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("fired %d times, want 1", fired)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var mu sync.Mutex
	fired := 0

	d.Trigger(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Errorf("cancelled debounce fired %d times", fired)
	}
}

type staticSearcher struct{ tracks []domain.Track }

func (s staticSearcher) Search(context.Context, string) []domain.Track { return s.tracks }

func TestAggregatorMergesAndDeduplicates(t *testing.T) {
	shared := domain.Track{ID: "dup", Title: "Shared"}
	agg := &Aggregator{Sources: []Searcher{
		staticSearcher{tracks: []domain.Track{shared, {ID: "a1"}}},
		staticSearcher{tracks: []domain.Track{shared, {ID: "b1"}}},
	}}

	got := agg.Search(context.Background(), "q")
	if len(got) != 3 {
		t.Fatalf("got %d tracks, want 3 (deduplicated)", len(got))
	}
	if got[0].ID != "dup" || got[1].ID != "a1" || got[2].ID != "b1" {
		t.Errorf("merge order broken: %v", got)
	}
}

func TestAggregatorFallsBackWhenRemotesEmpty(t *testing.T) {
	agg := &Aggregator{
		Sources:  []Searcher{staticSearcher{}},
		Fallback: staticSearcher{tracks: []domain.Track{{ID: "local1", Source: domain.SourceLocal}}},
	}

	got := agg.Search(context.Background(), "q")
	if len(got) != 1 || got[0].ID != "local1" {
		t.Errorf("fallback not consulted, got %v", got)
	}
}

func TestRemoteClientSoftFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: 0,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("not json"))
			},
			want: 0,
		},
		{
			name: "ok",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"results":[{"id":"s1","title":"Song","url":"http://x/s1.mp3"}]}`))
			},
			want: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := &MusicClient{BaseURL: srv.URL, HTTP: srv.Client()}
			got := c.Search(context.Background(), "query")
			if len(got) != tc.want {
				t.Errorf("got %d tracks, want %d", len(got), tc.want)
			}
		})
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
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
