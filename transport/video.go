package transport

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/wildeyedskies/go-mpv/mpv"

	"github.com/purplemusic/purplemusic/domain"
)

// videoPollInterval is how often the video backend samples time-pos. mpv
// has no push-style time updates through this binding, so we poll.
const videoPollInterval = 500 * time.Millisecond

// VideoBackend drives an embedded mpv instance for video-sourced tracks.
// Commands are rejected by mpv itself until the file-loaded handshake
// completes; the adapter's loading state keeps callers out until then.
type VideoBackend struct {
	instance *mpv.Mpv

	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewVideoBackend creates and initializes an mpv instance. Playback stays
// audio-only in the terminal; the video track is decoded but not rendered.
func NewVideoBackend() (*VideoBackend, error) {
	instance := mpv.Create()
	instance.SetOptionString("audio-display", "no")
	instance.SetOptionString("video", "no")
	instance.SetOptionString("pause", "yes")

	if err := instance.Initialize(); err != nil {
		instance.TerminateDestroy()
		return nil, errors.Wrap(err, "initialize mpv")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &VideoBackend{
		instance: instance,
		events:   make(chan Event, 16),
		cancel:   cancel,
	}
	go b.listen(ctx)
	go b.poll(ctx)
	return b, nil
}

// Load starts the mpv load; readiness arrives as an event once mpv finishes
// its handshake.
func (b *VideoBackend) Load(track domain.Track) error {
	return errors.Wrap(b.instance.Command([]string{"loadfile", track.URL}), "loadfile")
}

// listen translates the mpv event stream until the binding closes.
func (b *VideoBackend) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e := b.instance.WaitEvent(1)
		if e == nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		switch e.Event_Id {
		case mpv.EVENT_FILE_LOADED:
			var duration float64
			if d, err := b.instance.GetProperty("duration", mpv.FORMAT_DOUBLE); err == nil {
				duration, _ = d.(float64)
			}
			b.emit(Event{Kind: EventReady, Duration: duration})
		case mpv.EVENT_END_FILE:
			b.emit(Event{Kind: EventEnded})
		case mpv.EVENT_SHUTDOWN:
			return
		}
	}
}

// poll samples the playback position; cancelled with the binding so a
// superseded video never keeps reporting.
func (b *VideoBackend) poll(ctx context.Context) {
	ticker := time.NewTicker(videoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paused, err := b.instance.GetProperty("pause", mpv.FORMAT_FLAG)
			if err != nil || paused.(bool) {
				continue
			}
			pos, err := b.instance.GetProperty("time-pos", mpv.FORMAT_DOUBLE)
			if err != nil {
				continue
			}
			b.emit(Event{Kind: EventPosition, Position: pos.(float64)})
		}
	}
}

func (b *VideoBackend) Play() error {
	return errors.Wrap(b.instance.Command([]string{"set", "pause", "no"}), "play")
}

func (b *VideoBackend) Pause() error {
	return errors.Wrap(b.instance.Command([]string{"set", "pause", "yes"}), "pause")
}

func (b *VideoBackend) Seek(seconds float64) error {
	arg := strconv.FormatFloat(seconds, 'f', 3, 64)
	return errors.Wrap(b.instance.Command([]string{"seek", arg, "absolute"}), "seek")
}

func (b *VideoBackend) SetVolume(level float64) error {
	arg := strconv.Itoa(int(level * 100))
	return errors.Wrap(b.instance.Command([]string{"set", "volume", arg}), "volume")
}

func (b *VideoBackend) Events() <-chan Event {
	return b.events
}

// Close quits mpv, stops both loops and closes the event channel.
func (b *VideoBackend) Close() {
	b.closeOnce.Do(func() {
		b.cancel()
		b.instance.Command([]string{"quit"})
		b.instance.TerminateDestroy()
		close(b.events)
	})
}

func (b *VideoBackend) emit(ev Event) {
	defer func() {
		// A late mpv event may race Close.
		_ = recover()
	}()
	select {
	case b.events <- ev:
	default:
	}
}
