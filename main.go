package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/purplemusic/purplemusic/config"
	"github.com/purplemusic/purplemusic/library"
	"github.com/purplemusic/purplemusic/logging"
	"github.com/purplemusic/purplemusic/lyrics"
	"github.com/purplemusic/purplemusic/persist"
	"github.com/purplemusic/purplemusic/pi"
	"github.com/purplemusic/purplemusic/search"
	"github.com/purplemusic/purplemusic/session"
	"github.com/purplemusic/purplemusic/store"
	"github.com/purplemusic/purplemusic/transport"
	"github.com/purplemusic/purplemusic/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	fs := afero.NewOsFs()
	// The TUI owns the terminal, so logs go to a file.
	if err := logging.Setup(fs, cfg.Log.File, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := &http.Client{Timeout: cfg.Player.GetHTTPTimeout()}

	persistStore := persist.New(fs, cfg.Library.StateDir)
	sess := session.New(persistStore)

	lib := library.NewLocal(fs, cfg.Library.MusicDir)
	if err := lib.Refresh(); err != nil {
		log.WithError(err).Warn("library scan failed")
	}
	if cfg.Library.Watch {
		if err := lib.Watch(ctx); err != nil {
			log.WithError(err).Warn("library watch unavailable")
		}
	}

	// The account features degrade gracefully: repositories tolerate a nil
	// database and the app keeps working as a guest player.
	db, err := store.Open(&store.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.WithError(err).Warn("backend unavailable, account features disabled")
	} else {
		defer db.Close()
	}

	searcher := &search.Aggregator{
		Sources: []search.Searcher{
			&search.VideoClient{BaseURL: cfg.Services.VideoSearch, HTTP: httpClient},
			&search.MusicClient{BaseURL: cfg.Services.MusicSearch, HTTP: httpClient},
		},
		Fallback: lib,
	}

	piClient := pi.NewClient(cfg.Services.APIBaseURL)

	app := ui.NewApp(ctx, ui.Deps{
		Config:    cfg,
		Session:   sess,
		Factory:   transport.NewFactory(fs, httpClient),
		Persist:   persistStore,
		Library:   lib,
		Searcher:  searcher,
		Lyrics:    lyrics.NewClient(cfg.Services.APIBaseURL, cfg.Player.GetHTTPTimeout()),
		Pi:        piClient,
		Starter:   pi.Bridge(piClient),
		Users:     store.NewUserRepository(db),
		Playlists: store.NewPlaylistRepository(db),
		Likes:     store.NewLikeRepository(db),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		app.Stop()
	}()

	log.Info("purplemusic starting")
	if err := app.Run(); err != nil {
		cancel()
		log.WithError(err).Error("application error")
		os.Exit(1)
	}
}
