// Package store talks to the hosted Postgres backend holding the account
// collections: users, playlists and likes. Repositories are constructed
// around an injected *sql.DB so tests and multiple instances stay
// independent.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// queryTimeout bounds every repository call; the UI must never hang on a
// slow backend.
const queryTimeout = 2 * time.Second

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (cfg *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode,
	)
	if cfg.Password != "" {
		connStr += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return connStr
}

// Open connects, verifies the connection and applies migrations.
func Open(cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	log.Debug("store: database connection established")
	return db, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			uid TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			wallet_address TEXT NOT NULL DEFAULT '',
			premium BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			owner_uid TEXT NOT NULL REFERENCES users(uid),
			name TEXT NOT NULL,
			cover TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS playlist_items (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INT NOT NULL,
			track_key TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			cover TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			duration DOUBLE PRECISION NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			PRIMARY KEY (playlist_id, track_key)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS likes (
			user_uid TEXT NOT NULL REFERENCES users(uid),
			track_key TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			cover TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			duration DOUBLE PRECISION NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			liked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_uid, track_key)
		);
		`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return errors.Wrapf(err, "migration failed: %s", m)
		}
	}
	return nil
}
