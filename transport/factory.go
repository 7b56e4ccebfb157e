package transport

import (
	"net/http"

	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/domain"
)

// NewFactory returns the production factory: video-sourced tracks get an
// mpv backend, everything else plays through the beep speaker.
func NewFactory(fs afero.Fs, client *http.Client) Factory {
	return func(track domain.Track) (Backend, error) {
		if track.Source == domain.SourceVideo {
			return NewVideoBackend()
		}
		return NewAudioBackend(fs, client), nil
	}
}
