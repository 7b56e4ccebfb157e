package coverart

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync"
	"time"

	"github.com/qeesung/image2ascii/convert"
	log "github.com/sirupsen/logrus"
)

// Converter renders track cover art as ASCII for the Now Playing view.
// Converted art is cached per URL so track changes back and forth do not
// re-download.
type Converter struct {
	httpClient *http.Client
	converter  *convert.ImageConverter

	mu    sync.Mutex
	cache map[string]string
}

// NewConverter creates a new cover art converter
func NewConverter() *Converter {
	return &Converter{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		converter: convert.NewImageConverter(),
		cache:     make(map[string]string),
	}
}

// ConvertFromURL downloads and converts an image URL to ASCII art. Any
// failure yields the placeholder; cover art is decoration, never an error
// the caller has to handle.
func (c *Converter) ConvertFromURL(url string) string {
	if url == "" {
		return c.getPlaceholder()
	}

	c.mu.Lock()
	if cached, ok := c.cache[url]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Get(url)
	if err != nil {
		log.WithError(err).Debug("coverart: download failed")
		return c.getPlaceholder()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Debug("coverart: bad response")
		return c.getPlaceholder()
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		log.WithError(err).Debug("coverart: decode failed")
		return c.getPlaceholder()
	}

	convertOptions := convert.DefaultOptions
	convertOptions.FixedWidth = 25
	convertOptions.FixedHeight = 12
	convertOptions.Colored = false // Disable ANSI colors for tview compatibility

	ascii := c.converter.Image2ASCIIString(img, &convertOptions)

	c.mu.Lock()
	c.cache[url] = ascii
	c.mu.Unlock()
	return ascii
}

// getPlaceholder returns a placeholder when cover art is not available
func (c *Converter) getPlaceholder() string {
	return `[darkgray]┌────────────────────────────────────────────────┐
[darkgray]│                                                │
[darkgray]│                                                │
[darkgray]│                                                │
[darkgray]│                   ♫  ♪  ♫                     │
[darkgray]│              No Cover Art Available           │
[darkgray]│                   ♫  ♪  ♫                     │
[darkgray]│                                                │
[darkgray]│                                                │
[darkgray]│                                                │
[darkgray]└────────────────────────────────────────────────┘`
}
