package lyrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client fetches transcripts from the lyrics endpoint. Any failure (network,
// non-200, malformed JSON) yields an empty unsynced transcript, never an
// error: missing lyrics are a soft condition.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a lyrics client for the given endpoint base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch looks up lyrics for "artist title". The returned transcript is
// unsynced when the endpoint has nothing or misbehaves.
func (c *Client) Fetch(ctx context.Context, artist, title string) Transcript {
	if c.baseURL == "" {
		return Transcript{}
	}

	q := url.Values{}
	q.Set("q", artist+" "+title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/lyrics?"+q.Encode(), nil)
	if err != nil {
		return Transcript{}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("lyrics fetch failed")
		return Transcript{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Debug("lyrics endpoint returned non-200")
		return Transcript{}
	}

	var t Transcript
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		log.WithError(err).Debug("lyrics response malformed")
		return Transcript{}
	}
	if len(t.Lines) == 0 {
		t.Synced = false
	}
	return t
}
