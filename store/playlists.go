package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/purplemusic/purplemusic/domain"
)

// PlaylistRepository persists user-owned named track collections.
type PlaylistRepository struct {
	db *sql.DB
}

func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create makes an empty playlist and returns it with a fresh id.
func (r *PlaylistRepository) Create(ownerUID, name string) (domain.Playlist, error) {
	if r == nil || r.db == nil || ownerUID == "" || name == "" {
		return domain.Playlist{}, errors.New("playlist needs an owner and a name")
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	p := domain.Playlist{
		ID:      uuid.NewString(),
		OwnerID: ownerUID,
		Name:    name,
	}
	const query = `
		INSERT INTO playlists (id, owner_uid, name)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.OwnerID, p.Name); err != nil {
		return domain.Playlist{}, errors.Wrap(err, "create playlist")
	}
	return p, nil
}

// ForUser lists the user's playlists without their tracks.
func (r *PlaylistRepository) ForUser(ownerUID string) ([]domain.Playlist, error) {
	if r == nil || r.db == nil || ownerUID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		SELECT id, owner_uid, name, cover
		FROM playlists
		WHERE owner_uid = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, errors.Wrap(err, "list playlists")
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Cover); err != nil {
			return nil, errors.Wrap(err, "scan playlist")
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// AddTrack appends a track to the end of a playlist. Adding a track that
// is already present is a no-op.
func (r *PlaylistRepository) AddTrack(playlistID string, track domain.Track) error {
	if r == nil || r.db == nil || playlistID == "" || track.IsZero() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		INSERT INTO playlist_items
			(playlist_id, position, track_key, title, artist, album, cover, url, duration, source)
		VALUES
			($1,
			 (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_items WHERE playlist_id = $1),
			 $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (playlist_id, track_key) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, playlistID,
		track.Key(), track.Title, track.Artist, track.Album,
		track.CoverArt, track.URL, track.Duration, string(track.Source))
	return errors.Wrap(err, "add playlist track")
}

// RemoveTrack drops a track from a playlist.
func (r *PlaylistRepository) RemoveTrack(playlistID, trackKey string) error {
	if r == nil || r.db == nil || playlistID == "" || trackKey == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		DELETE FROM playlist_items
		WHERE playlist_id = $1 AND track_key = $2
	`
	_, err := r.db.ExecContext(ctx, query, playlistID, trackKey)
	return errors.Wrap(err, "remove playlist track")
}

// Tracks returns a playlist's tracks in playlist order.
func (r *PlaylistRepository) Tracks(playlistID string) ([]domain.Track, error) {
	if r == nil || r.db == nil || playlistID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		SELECT track_key, title, artist, album, cover, url, duration, source
		FROM playlist_items
		WHERE playlist_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, playlistID)
	if err != nil {
		return nil, errors.Wrap(err, "load playlist tracks")
	}
	defer rows.Close()

	return scanTracks(rows)
}

// Delete removes a playlist and, through the schema, its items.
func (r *PlaylistRepository) Delete(playlistID string) error {
	if r == nil || r.db == nil || playlistID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, playlistID)
	return errors.Wrap(err, "delete playlist")
}

// scanTracks reads track rows in the shared column order.
func scanTracks(rows *sql.Rows) ([]domain.Track, error) {
	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		var source string
		err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Album,
			&t.CoverArt, &t.URL, &t.Duration, &source)
		if err != nil {
			return nil, errors.Wrap(err, "scan track")
		}
		t.Source = domain.Source(source)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
