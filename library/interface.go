package library

import (
	"context"

	"github.com/purplemusic/purplemusic/domain"
)

// Library serves tracks the app can browse and search without the network.
type Library interface {
	Tracks() []domain.Track
	Search(ctx context.Context, query string) []domain.Track
	Refresh() error
}
