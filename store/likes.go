package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/purplemusic/purplemusic/domain"
)

// LikeRepository persists per-user liked tracks.
type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Toggle flips the like for a track and reports the new liked state.
func (r *LikeRepository) Toggle(userUID string, track domain.Track) (bool, error) {
	if r == nil || r.db == nil || userUID == "" || track.IsZero() {
		return false, nil
	}

	liked, err := r.IsLiked(userUID, track.Key())
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if liked {
		const query = `DELETE FROM likes WHERE user_uid = $1 AND track_key = $2`
		_, err := r.db.ExecContext(ctx, query, userUID, track.Key())
		return false, errors.Wrap(err, "unlike track")
	}

	const query = `
		INSERT INTO likes
			(user_uid, track_key, title, artist, album, cover, url, duration, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_uid, track_key) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query, userUID,
		track.Key(), track.Title, track.Artist, track.Album,
		track.CoverArt, track.URL, track.Duration, string(track.Source))
	return true, errors.Wrap(err, "like track")
}

// IsLiked reports whether the user has liked the track.
func (r *LikeRepository) IsLiked(userUID, trackKey string) (bool, error) {
	if r == nil || r.db == nil || userUID == "" || trackKey == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `SELECT 1 FROM likes WHERE user_uid = $1 AND track_key = $2`
	var one int
	err := r.db.QueryRowContext(ctx, query, userUID, trackKey).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Liked returns the user's liked tracks, most recent first.
func (r *LikeRepository) Liked(userUID string) ([]domain.Track, error) {
	if r == nil || r.db == nil || userUID == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		SELECT track_key, title, artist, album, cover, url, duration, source
		FROM likes
		WHERE user_uid = $1
		ORDER BY liked_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, errors.Wrap(err, "load likes")
	}
	defer rows.Close()

	return scanTracks(rows)
}
