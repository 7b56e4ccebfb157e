package store

import (
	"context"
	"database/sql"

	"github.com/purplemusic/purplemusic/domain"
)

// UserRepository persists authenticated profiles and their premium flag.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert records the profile from a fresh authentication. The premium flag
// is only ever raised here, never cleared; completed payments set it
// through SetPremium.
func (r *UserRepository) Upsert(u domain.User) error {
	if r == nil || r.db == nil || u.UID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		INSERT INTO users (uid, username, wallet_address, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (uid)
		DO UPDATE SET
			username = EXCLUDED.username,
			wallet_address = EXCLUDED.wallet_address,
			updated_at = NOW();
	`
	_, err := r.db.ExecContext(ctx, query, u.UID, u.Username, u.Wallet)
	return err
}

// Get returns the stored profile, reporting false when unknown.
func (r *UserRepository) Get(uid string) (domain.User, bool, error) {
	if r == nil || r.db == nil || uid == "" {
		return domain.User{}, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		SELECT uid, username, wallet_address, premium
		FROM users
		WHERE uid = $1
	`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, uid).Scan(&u.UID, &u.Username, &u.Wallet, &u.Premium)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return u, true, nil
}

// SetPremium flips the premium flag after a completed payment.
func (r *UserRepository) SetPremium(uid string, premium bool) error {
	if r == nil || r.db == nil || uid == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	const query = `
		UPDATE users SET premium = $2, updated_at = NOW()
		WHERE uid = $1
	`
	_, err := r.db.ExecContext(ctx, query, uid, premium)
	return err
}
