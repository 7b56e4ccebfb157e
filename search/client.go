package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"github.com/purplemusic/purplemusic/domain"
)

// VideoClient searches the video proxy. Results bind to the mpv backend.
type VideoClient struct {
	BaseURL string
	HTTP    *http.Client
}

type videoResult struct {
	Items []struct {
		VideoID   string  `json:"videoId"`
		Title     string  `json:"title"`
		Channel   string  `json:"channel"`
		Thumbnail string  `json:"thumbnail"`
		Duration  float64 `json:"duration"`
	} `json:"items"`
}

func (c *VideoClient) Search(ctx context.Context, query string) []domain.Track {
	var res videoResult
	if !getJSON(ctx, c.HTTP, c.BaseURL+"/api/search?q="+url.QueryEscape(query), &res) {
		return nil
	}
	tracks := make([]domain.Track, 0, len(res.Items))
	for _, item := range res.Items {
		tracks = append(tracks, domain.Track{
			ID:       item.VideoID,
			Title:    item.Title,
			Artist:   item.Channel,
			CoverArt: item.Thumbnail,
			URL:      "https://www.youtube.com/watch?v=" + item.VideoID,
			Duration: item.Duration,
			Source:   domain.SourceVideo,
		})
	}
	return tracks
}

// MusicClient searches a direct-stream music aggregator.
type MusicClient struct {
	BaseURL string
	HTTP    *http.Client
}

type musicResult struct {
	Results []struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		Artist   string  `json:"artist"`
		Album    string  `json:"album"`
		Cover    string  `json:"cover"`
		URL      string  `json:"url"`
		Duration float64 `json:"duration"`
	} `json:"results"`
}

func (c *MusicClient) Search(ctx context.Context, query string) []domain.Track {
	var res musicResult
	if !getJSON(ctx, c.HTTP, c.BaseURL+"/api/search?q="+url.QueryEscape(query), &res) {
		return nil
	}
	tracks := make([]domain.Track, 0, len(res.Results))
	for _, r := range res.Results {
		tracks = append(tracks, domain.Track{
			ID:       r.ID,
			Title:    r.Title,
			Artist:   r.Artist,
			Album:    r.Album,
			CoverArt: r.Cover,
			URL:      r.URL,
			Duration: r.Duration,
			Source:   domain.SourceStream,
		})
	}
	return tracks
}

// Aggregator fans a query out across every source in parallel and merges
// the results in source order. A failing source contributes nothing; a
// fallback source (the local library) is consulted only when every remote
// comes back empty.
type Aggregator struct {
	Sources  []Searcher
	Fallback Searcher
}

func (a *Aggregator) Search(ctx context.Context, query string) []domain.Track {
	perSource := make([][]domain.Track, len(a.Sources))

	var wg conc.WaitGroup
	for i, src := range a.Sources {
		i, src := i, src
		wg.Go(func() {
			perSource[i] = src.Search(ctx, query)
		})
	}
	wg.Wait()

	merged := lo.Flatten(perSource)
	merged = lo.UniqBy(merged, domain.Track.Key)
	if len(merged) == 0 && a.Fallback != nil {
		merged = a.Fallback.Search(ctx, query)
	}
	return merged
}

// getJSON performs a GET and decodes the body. Any failure is a soft
// failure: logged at debug and reported as false.
func getJSON(ctx context.Context, client *http.Client, rawURL string, v interface{}) bool {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.WithError(err).Debug("search: bad request")
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Debug("search: request failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Debug("search: non-200 response")
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		log.WithError(err).Debug("search: malformed response")
		return false
	}
	return true
}
