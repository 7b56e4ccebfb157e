// Package library maintains the local music collection scanned from disk.
// It is the lowest-priority search source: consulted when every remote
// comes back empty.
package library

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/domain"
	"github.com/purplemusic/purplemusic/search"
)

// rescanSettle coalesces bursts of fs events (a copy of an album produces
// one event per file) into a single rescan.
const rescanSettle = 2 * search.RemoteWindow

// id3v1TagSize is the fixed ID3v1 trailer length at the end of a file.
const id3v1TagSize = 128

var audioExtensions = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
}

// Local scans a music directory for tagged audio files and keeps the
// result fresh through an fs watch.
type Local struct {
	fs   afero.Fs
	root string

	mu     sync.RWMutex
	tracks []domain.Track

	rescan *search.Debouncer
}

// NewLocal creates a local library rooted at dir. Call Refresh for the
// initial scan and Watch to keep it current.
func NewLocal(fs afero.Fs, dir string) *Local {
	return &Local{
		fs:     fs,
		root:   dir,
		rescan: search.NewDebouncer(rescanSettle),
	}
}

// Refresh walks the music directory and rebuilds the track list. Files
// that cannot be read or tagged still appear, titled by filename.
func (l *Local) Refresh() error {
	var tracks []domain.Track
	err := afero.Walk(l.fs, l.root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		tracks = append(tracks, l.readTrack(path))
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "scan music directory")
	}

	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Artist != tracks[j].Artist {
			return tracks[i].Artist < tracks[j].Artist
		}
		return tracks[i].Title < tracks[j].Title
	})

	l.mu.Lock()
	l.tracks = tracks
	l.mu.Unlock()
	log.WithField("tracks", len(tracks)).Debug("library: scan complete")
	return nil
}

// readTrack extracts metadata from one audio file.
func (l *Local) readTrack(path string) domain.Track {
	track := domain.Track{
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		URL:    path,
		Source: domain.SourceLocal,
	}

	f, err := l.fs.Open(path)
	if err != nil {
		return track
	}
	defer f.Close()

	// tag.ReadFrom seeks size-128 bytes for the ID3v1 trailer; a smaller
	// file would seek to a negative offset. Such files keep the filename
	// title.
	if fi, err := f.Stat(); err != nil || fi.Size() < id3v1TagSize {
		return track
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		return track
	}
	if m.Title() != "" {
		track.Title = m.Title()
	}
	track.Artist = m.Artist()
	track.Album = m.Album()
	return track
}

// Tracks returns the current track list.
func (l *Local) Tracks() []domain.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Track(nil), l.tracks...)
}

// Search does a case-insensitive substring match over title, artist and
// album. It never fails; an unscanned library simply matches nothing.
func (l *Local) Search(_ context.Context, query string) []domain.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return lo.Filter(l.Tracks(), func(t domain.Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q)
	})
}

// Watch rescans when the music directory changes, until ctx is cancelled.
// Watching only works against the OS filesystem.
func (l *Local) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := watcher.Add(l.root); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch %s", l.root)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				l.rescan.Cancel()
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				l.rescan.Trigger(func() {
					if err := l.Refresh(); err != nil {
						log.WithError(err).Warn("library: rescan failed")
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Debug("library: watch error")
			}
		}
	}()
	return nil
}
