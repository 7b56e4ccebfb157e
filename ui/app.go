package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"github.com/purplemusic/purplemusic/config"
	"github.com/purplemusic/purplemusic/coverart"
	"github.com/purplemusic/purplemusic/domain"
	"github.com/purplemusic/purplemusic/library"
	"github.com/purplemusic/purplemusic/lyrics"
	"github.com/purplemusic/purplemusic/persist"
	"github.com/purplemusic/purplemusic/pi"
	"github.com/purplemusic/purplemusic/search"
	"github.com/purplemusic/purplemusic/session"
	backend "github.com/purplemusic/purplemusic/store"
	"github.com/purplemusic/purplemusic/transport"
)

// freeQueueCap limits the queue length for non-premium accounts.
const freeQueueCap = 50

// Deps carries everything the UI needs. All collaborators are injected;
// the UI owns only widgets and wiring.
type Deps struct {
	Config    *config.Config
	Session   *session.Session
	Factory   transport.Factory
	Persist   *persist.Store
	Library   library.Library
	Searcher  *search.Aggregator
	Lyrics    *lyrics.Client
	Pi        *pi.Client
	Starter   pi.Starter
	Users     *backend.UserRepository
	Playlists *backend.PlaylistRepository
	Likes     *backend.LikeRepository
}

// App represents the TUI application
type App struct {
	tviewApp *tview.Application
	cfg      *config.Config
	ctx      context.Context

	session  *session.Session
	adapter  *transport.Adapter
	persist  *persist.Store
	library  library.Library
	searcher *search.Aggregator
	lyricsC  *lyrics.Client
	piClient *pi.Client
	starter  pi.Starter

	users     *backend.UserRepository
	playlists *backend.PlaylistRepository
	likes     *backend.LikeRepository

	lyricsSync     *lyrics.Sync
	coverConverter *coverart.Converter
	user           domain.User

	tracks      []domain.Track
	currentPage int
	pageSize    int
	totalPages  int

	rootFlex    *tview.Flex
	trackTable  *tview.Table
	statusBar   *tview.TextView
	progressBar *tview.TextView
	searchView  *SearchView
	helpView    *HelpView
	queueView   *QueueView
	nowPlaying  *NowPlayingView
	premium     *PremiumView
	playlistsV  *PlaylistsView
	keys        *KeyBindingManager
}

// NewApp creates a new TUI application with dependency injection
func NewApp(ctx context.Context, deps Deps) *App {
	a := &App{
		tviewApp:       tview.NewApplication(),
		cfg:            deps.Config,
		ctx:            ctx,
		session:        deps.Session,
		persist:        deps.Persist,
		library:        deps.Library,
		searcher:       deps.Searcher,
		lyricsC:        deps.Lyrics,
		piClient:       deps.Pi,
		starter:        deps.Starter,
		users:          deps.Users,
		playlists:      deps.Playlists,
		likes:          deps.Likes,
		lyricsSync:     lyrics.NewSync(lyrics.Transcript{}),
		coverConverter: coverart.NewConverter(),
		pageSize:       deps.Config.UI.PageSize,
		currentPage:    1,
	}
	a.adapter = transport.NewAdapter(deps.Factory, transport.Handler{
		OnDuration: a.onDuration,
		OnPosition: a.onPosition,
		OnEnded:    a.onEnded,
		OnError:    a.onPlaybackError,
	})
	return a
}

// Run starts the application
func (a *App) Run() error {
	a.createHomepage()
	a.restoreProfile()
	a.restorePlayback()
	// After restore so the saved snapshot is read before the first save.
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Volume = a.cfg.Player.Volume
	})
	a.adapter.SetVolume(a.cfg.Player.Volume)
	go a.loadBrowseTracks()
	go a.refreshLoop()

	log.Info("starting purplemusic")
	return a.tviewApp.Run()
}

// Stop stops the application
func (a *App) Stop() {
	a.adapter.Unbind()
	if a.tviewApp != nil {
		a.tviewApp.Stop()
	}
}

// restoreProfile brings back the cached login so the account features work
// offline; a fresh authentication replaces it when the user asks.
func (a *App) restoreProfile() {
	if u, ok := a.persist.LoadProfile(); ok {
		a.user = u
	}
}

// restorePlayback re-selects the track from the last run without starting
// playback.
func (a *App) restorePlayback() {
	snap := a.persist.Load()
	if snap.TrackKey == "" {
		return
	}
	for _, t := range a.library.Tracks() {
		if t.Key() == snap.TrackKey {
			a.session.Restore(snap, t)
			a.adapter.Bind(t, false)
			if snap.Position > 0 {
				a.adapter.Seek(snap.Position)
			}
			return
		}
	}
	// Track no longer available; keep only the play mode.
	a.session.Restore(domain.Snapshot{
		Shuffle:    snap.Shuffle,
		Repeat:     snap.Repeat,
		QueueIndex: -1,
	}, domain.Track{})
}

// loadBrowseTracks fills the main table: liked songs when signed in, the
// local library otherwise.
func (a *App) loadBrowseTracks() {
	var tracks []domain.Track
	if a.user.UID != "" {
		liked, err := a.likes.Liked(a.user.UID)
		if err != nil {
			log.WithError(err).Warn("loading liked songs failed")
		}
		tracks = liked
	}
	if len(tracks) == 0 {
		tracks = a.library.Tracks()
	}

	a.tviewApp.QueueUpdateDraw(func() {
		a.tracks = tracks
		a.totalPages = (len(a.tracks) + a.pageSize - 1) / a.pageSize
		a.currentPage = 1
		a.renderTrackTable()
		a.updateStatusWithPageInfo()
	})
}

// playTrackAt selects the track at the given browse index and starts it.
func (a *App) playTrackAt(index int) {
	if index < 0 || index >= len(a.tracks) {
		return
	}
	track := a.tracks[index]
	a.session.SelectTrack(track)
	a.startPlayback(track)
}

// playQueueIndex jumps within the session queue.
func (a *App) playQueueIndex(index int) {
	if track, ok := a.session.JumpTo(index); ok {
		a.startPlayback(track)
	}
}

// startPlayback binds the transport and kicks off the per-track fetches.
func (a *App) startPlayback(track domain.Track) {
	a.lyricsSync.Reset(lyrics.Transcript{})
	a.adapter.Bind(track, true)
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Playing = true
		s.Position = 0
		s.Duration = track.Duration
	})

	go a.loadLyrics(track)
	if a.nowPlaying != nil {
		go a.nowPlaying.LoadCover(track)
	}
}

// loadLyrics fetches and installs the transcript for the bound track.
func (a *App) loadLyrics(track domain.Track) {
	transcript := a.lyricsC.Fetch(a.ctx, track.Artist, track.Title)
	a.tviewApp.QueueUpdateDraw(func() {
		// The bound track may have changed while we fetched.
		if a.adapter.Track().Key() != track.Key() {
			return
		}
		a.lyricsSync.Reset(transcript)
		if a.nowPlaying != nil {
			a.nowPlaying.SetTranscript(transcript)
		}
	})
}

// openQueue makes a playlist the active queue, honoring the free-tier cap.
func (a *App) openQueue(playlist domain.Playlist) {
	a.session.OpenQueue(domain.Queue{ID: playlist.ID, Title: playlist.Name})

	go func() {
		tracks, err := a.playlists.Tracks(playlist.ID)
		if err != nil {
			log.WithError(err).Warn("loading playlist failed")
			return
		}
		if !a.user.Premium && len(tracks) > freeQueueCap {
			tracks = tracks[:freeQueueCap]
		}
		a.tviewApp.QueueUpdateDraw(func() {
			a.session.LoadQueueItems(tracks)
			if a.queueView != nil {
				a.queueView.Refresh()
			}
		})
	}()
}

// advance moves through the queue in the given direction.
func (a *App) advance(dir session.Direction) {
	if track, ok := a.session.Advance(dir); ok {
		a.startPlayback(track)
	}
}

// togglePlayPause flips the transport between playing and paused.
func (a *App) togglePlayPause() {
	state := a.session.Transport()
	if state.Playing {
		a.adapter.Pause()
	} else {
		a.adapter.Play()
	}
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Playing = !state.Playing
	})
}

// seekBy moves the position by delta seconds, clamped by the session.
func (a *App) seekBy(delta float64) {
	state := a.session.Transport()
	target := state.Position + delta
	if target < 0 {
		target = 0
	}
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Position = target
	})
	a.adapter.Seek(a.session.Transport().Position)
}

// volumeBy nudges the volume, clamped to [0,1] by the session.
func (a *App) volumeBy(delta float64) {
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Volume += delta
	})
	a.adapter.SetVolume(a.session.Transport().Volume)
}

// playFromSearch starts a search result as a standalone selection.
func (a *App) playFromSearch(track domain.Track) {
	a.session.SelectTrack(track)
	a.startPlayback(track)
}

// likeFromSearch likes a search result without leaving the result list.
func (a *App) likeFromSearch(track domain.Track) {
	if a.user.UID == "" {
		a.flashStatus("[yellow]Sign in to like tracks (press 'a')")
		return
	}
	go func() {
		liked, err := a.likes.Toggle(a.user.UID, track)
		if err != nil {
			log.WithError(err).Warn("toggling like failed")
			return
		}
		a.tviewApp.QueueUpdateDraw(func() {
			if liked {
				a.flashStatus(fmt.Sprintf("[lightgreen]Liked %s", track.Title))
			} else {
				a.flashStatus(fmt.Sprintf("[gray]Unliked %s", track.Title))
			}
		})
	}()
}

// toggleLike flips the like on the current track for the signed-in user.
func (a *App) toggleLike() {
	track, ok := a.session.Current()
	if !ok || a.user.UID == "" {
		return
	}
	go func() {
		liked, err := a.likes.Toggle(a.user.UID, track)
		if err != nil {
			log.WithError(err).Warn("toggling like failed")
			return
		}
		a.tviewApp.QueueUpdateDraw(func() {
			if liked {
				a.flashStatus(fmt.Sprintf("[lightgreen]Liked %s", track.Title))
			} else {
				a.flashStatus(fmt.Sprintf("[gray]Unliked %s", track.Title))
			}
		})
	}()
}

// signIn authenticates against the identity service and persists the
// profile.
func (a *App) signIn() {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
		defer cancel()

		res, err := a.piClient.Authenticate(ctx, []string{"username", "payments", "wallet_address"})
		if err != nil {
			log.WithError(err).Warn("authentication failed")
			a.updateStatus("[red]Sign-in failed, still browsing as guest")
			return
		}

		if stored, ok, err := a.users.Get(res.User.UID); err == nil && ok {
			res.User.Premium = stored.Premium
		}
		if err := a.users.Upsert(res.User); err != nil {
			log.WithError(err).Warn("saving profile failed")
		}
		a.persist.SaveProfile(res.User)

		a.tviewApp.QueueUpdateDraw(func() {
			a.user = res.User
			a.flashStatus(fmt.Sprintf("[lightgreen]Signed in as %s", res.User.Username))
		})
		go a.loadBrowseTracks()
	}()
}

// Transport event handlers. They arrive on the adapter's event goroutine
// and marshal through QueueUpdateDraw.

func (a *App) onDuration(seconds float64) {
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Duration = seconds
	})
}

func (a *App) onPosition(seconds float64) {
	a.session.SetTransport(func(s *domain.TransportState) {
		s.Position = seconds
	})
	if idx, changed := a.lyricsSync.Update(seconds); changed && a.nowPlaying != nil {
		a.tviewApp.QueueUpdateDraw(func() {
			a.nowPlaying.HighlightLine(idx)
		})
	}
}

func (a *App) onEnded() {
	a.tviewApp.QueueUpdateDraw(func() {
		action, track := a.session.AdvanceOnEnd()
		switch action {
		case session.ActionRestart:
			a.adapter.Seek(0)
			a.adapter.Play()
			a.session.SetTransport(func(s *domain.TransportState) {
				s.Playing = true
				s.Position = 0
			})
		case session.ActionPlay:
			a.startPlayback(track)
		case session.ActionStop:
			a.session.SetTransport(func(s *domain.TransportState) {
				s.Playing = false
			})
		}
	})
}

func (a *App) onPlaybackError(err error) {
	log.WithError(err).Warn("playback failed")
	a.tviewApp.QueueUpdateDraw(func() {
		a.session.SetTransport(func(s *domain.TransportState) {
			s.Playing = false
		})
		track, _ := a.session.Current()
		a.flashStatus(fmt.Sprintf("[red]%s [darkgray](playback failed)", track.Title))
	})
}

// refreshLoop redraws the transport displays once per second while the
// app runs.
func (a *App) refreshLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.tviewApp.QueueUpdateDraw(func() {
				a.updateTransportDisplays()
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// getCurrentPageData returns the browse tracks for the current page
func (a *App) getCurrentPageData() []domain.Track {
	start := (a.currentPage - 1) * a.pageSize
	end := min(start+a.pageSize, len(a.tracks))
	return a.tracks[start:end]
}

// nextPage moves to the next page
func (a *App) nextPage() {
	if a.currentPage < a.totalPages {
		a.currentPage++
		a.renderTrackTable()
		a.updateStatusWithPageInfo()
	}
}

// previousPage moves to the previous page
func (a *App) previousPage() {
	if a.currentPage > 1 {
		a.currentPage--
		a.renderTrackTable()
		a.updateStatusWithPageInfo()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
