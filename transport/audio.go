package transport

import (
	"context"
	"math"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/domain"
)

// positionInterval is how often the audio backend reports its position.
const positionInterval = 500 * time.Millisecond

// AudioBackend plays direct audio streams through the beep speaker. One
// instance serves one binding; the owning fs and HTTP client are injected
// so instances stay independently testable.
type AudioBackend struct {
	fs   afero.Fs
	http *http.Client

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewAudioBackend creates an audio backend reading local files from fs and
// remote streams through client.
func NewAudioBackend(fs afero.Fs, client *http.Client) *AudioBackend {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AudioBackend{
		fs:     fs,
		http:   client,
		events: make(chan Event, 16),
	}
}

// Load fetches and decodes the track, initializes the speaker, and starts
// paused; the adapter decides whether to autoplay on ready.
func (b *AudioBackend) Load(track domain.Track) error {
	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	go func() {
		streamer, format, err := b.open(track)
		if err != nil {
			b.emit(Event{Kind: EventError, Err: err})
			return
		}

		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			b.emit(Event{Kind: EventError, Err: errors.Wrap(err, "speaker init")})
			return
		}

		ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
		volume := &effects.Volume{Streamer: ctrl, Base: 2}

		b.mu.Lock()
		b.streamer = streamer
		b.format = format
		b.ctrl = ctrl
		b.volume = volume
		b.mu.Unlock()

		speaker.Play(beep.Seq(volume, beep.Callback(func() {
			b.emit(Event{Kind: EventEnded})
		})))

		duration := format.SampleRate.D(streamer.Len()).Seconds()
		b.emit(Event{Kind: EventReady, Duration: duration})

		go b.poll(ctx)
	}()
	return nil
}

// open resolves the track source into a decoded audio stream.
func (b *AudioBackend) open(track domain.Track) (beep.StreamSeekCloser, beep.Format, error) {
	var rc interface {
		Read([]byte) (int, error)
		Close() error
	}

	if strings.HasPrefix(track.URL, "http://") || strings.HasPrefix(track.URL, "https://") {
		resp, err := b.http.Get(track.URL)
		if err != nil {
			return nil, beep.Format{}, errors.Wrap(err, "fetch stream")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, beep.Format{}, errors.Errorf("fetch stream: status %d", resp.StatusCode)
		}
		rc = resp.Body
	} else {
		f, err := b.fs.Open(track.URL)
		if err != nil {
			return nil, beep.Format{}, errors.Wrap(err, "open local track")
		}
		rc = f
	}

	switch strings.ToLower(path.Ext(track.URL)) {
	case ".ogg", ".oga":
		s, f, err := vorbis.Decode(rc)
		return s, f, errors.Wrap(err, "decode vorbis")
	default:
		s, f, err := mp3.Decode(rc)
		return s, f, errors.Wrap(err, "decode mp3")
	}
}

// poll reports the playback position until the binding is closed.
func (b *AudioBackend) poll(ctx context.Context) {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			streamer := b.streamer
			format := b.format
			b.mu.Unlock()
			if streamer == nil {
				continue
			}
			speaker.Lock()
			pos := format.SampleRate.D(streamer.Position()).Seconds()
			speaker.Unlock()
			b.emit(Event{Kind: EventPosition, Position: pos})
		}
	}
}

func (b *AudioBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return nil
	}
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (b *AudioBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return nil
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (b *AudioBackend) Seek(seconds float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return nil
	}
	n := b.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if max := b.streamer.Len(); n > max {
		n = max
	}
	speaker.Lock()
	err := b.streamer.Seek(n)
	speaker.Unlock()
	return errors.Wrap(err, "seek")
}

func (b *AudioBackend) SetVolume(level float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.volume == nil {
		return nil
	}
	speaker.Lock()
	if level <= 0 {
		b.volume.Silent = true
	} else {
		b.volume.Silent = false
		b.volume.Volume = math.Log2(level)
	}
	speaker.Unlock()
	return nil
}

func (b *AudioBackend) Events() <-chan Event {
	return b.events
}

// Close stops playback, cancels the position loop and closes the event
// channel.
func (b *AudioBackend) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		cancel := b.cancel
		streamer := b.streamer
		b.streamer = nil
		b.ctrl = nil
		b.volume = nil
		b.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		speaker.Clear()
		if streamer != nil {
			streamer.Close()
		}
		close(b.events)
	})
}

// emit drops events when the channel is full or closed; a slow consumer
// must not block the audio callback.
func (b *AudioBackend) emit(ev Event) {
	defer func() {
		// The binding may close concurrently with a late callback.
		_ = recover()
	}()
	select {
	case b.events <- ev:
	default:
	}
}
