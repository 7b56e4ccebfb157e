package store

import "testing"

func TestConnectionString(t *testing.T) {
	cfg := &Config{
		Host:    "db.example.com",
		Port:    5432,
		User:    "purple",
		DBName:  "purplemusic",
		SSLMode: "require",
	}
	want := "host=db.example.com port=5432 user=purple dbname=purplemusic sslmode=require"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}

	cfg.Password = "secret"
	if got := cfg.ConnectionString(); got != want+" password=secret" {
		t.Errorf("ConnectionString() with password = %q", got)
	}
}

func TestNilRepositoriesAreSafe(t *testing.T) {
	// A missing database degrades the account features, it must not panic.
	var users *UserRepository
	if err := users.SetPremium("u1", true); err != nil {
		t.Errorf("nil repo SetPremium: %v", err)
	}

	var likes *LikeRepository
	if liked, err := likes.IsLiked("u1", "t1"); liked || err != nil {
		t.Errorf("nil repo IsLiked = %v, %v", liked, err)
	}

	var playlists *PlaylistRepository
	if tracks, err := playlists.Tracks("p1"); tracks != nil || err != nil {
		t.Errorf("nil repo Tracks = %v, %v", tracks, err)
	}
}
