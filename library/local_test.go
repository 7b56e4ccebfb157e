package library

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/domain"
)

func newScannedLibrary(t *testing.T, files map[string]string) *Local {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, contents := range files {
		if err := afero.WriteFile(fs, path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l := NewLocal(fs, "/music")
	if err := l.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return l
}

func TestRefreshFindsAudioFilesOnly(t *testing.T) {
	l := newScannedLibrary(t, map[string]string{
		"/music/artist/song.mp3":   "x",
		"/music/artist/other.OGG":  "x",
		"/music/artist/cover.jpg":  "x",
		"/music/artist/notes.txt":  "x",
		"/music/deeper/nested.m4a": "x",
	})

	got := l.Tracks()
	if len(got) != 3 {
		t.Fatalf("got %d tracks, want 3: %v", len(got), got)
	}
	for _, track := range got {
		if track.Source != domain.SourceLocal {
			t.Errorf("track %q source = %q", track.Title, track.Source)
		}
	}
}

func TestUntaggedFileTitledByFilename(t *testing.T) {
	l := newScannedLibrary(t, map[string]string{
		"/music/Morning Light.mp3": "not real audio",
	})

	got := l.Tracks()
	if len(got) != 1 || got[0].Title != "Morning Light" {
		t.Fatalf("got %v, want one track titled Morning Light", got)
	}
}

func TestTruncatedFilesScanWithoutMetadata(t *testing.T) {
	l := newScannedLibrary(t, map[string]string{
		"/music/empty.mp3": "",
		"/music/tiny.ogg":  "OggS",
	})

	got := l.Tracks()
	if len(got) != 2 {
		t.Fatalf("got %d tracks, want 2: %v", len(got), got)
	}
	for _, track := range got {
		if track.Artist != "" || track.Album != "" {
			t.Errorf("track %q should carry no metadata, got %+v", track.Title, track)
		}
	}
}

func TestSearchMatchesCaseInsensitive(t *testing.T) {
	l := newScannedLibrary(t, map[string]string{
		"/music/Blue Train.mp3": "x",
		"/music/So What.mp3":    "x",
	})

	got := l.Search(context.Background(), "blue")
	if len(got) != 1 || got[0].Title != "Blue Train" {
		t.Fatalf("Search(blue) = %v", got)
	}
	if got := l.Search(context.Background(), "  "); got != nil {
		t.Errorf("blank query should match nothing, got %v", got)
	}
}

func TestRefreshReplacesStaleEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/music/a.mp3", []byte("x"), 0o644)
	l := NewLocal(fs, "/music")
	l.Refresh()

	fs.Remove("/music/a.mp3")
	afero.WriteFile(fs, "/music/b.mp3", []byte("x"), 0o644)
	l.Refresh()

	got := l.Tracks()
	if len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("tracks after rescan = %v, want only b", got)
	}
}
