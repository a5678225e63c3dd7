package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hotlist/internal/models"
)

// SongStore records pairs that have been handed to the playlist. [repositories.SQLStore] satisfies it.
type SongStore interface {
	HasSong(ctx context.Context, pair models.SongArtistPair) (bool, error)
	// InsertSong records pair and reports whether it was absent before the call.
	InsertSong(ctx context.Context, pair models.SongArtistPair) (bool, error)
}

// DedupGuard keeps a pair from being submitted more than once across runs.
type DedupGuard struct {
	store  SongStore
	logger *log.Logger
}

// NewDedupGuard creates a guard backed by store.
func NewDedupGuard(store SongStore, logger *log.Logger) *DedupGuard {
	if logger == nil {
		logger = log.Default()
	}
	return &DedupGuard{store: store, logger: logger}
}

// FilterNew returns the pairs that were not previously recorded and records them.
//
// The contract is the same whether or not the store is empty. Pairs repeated within the batch are returned once.
// Recording happens pair by pair, so an error part-way leaves the earlier pairs recorded.
func (g *DedupGuard) FilterNew(ctx context.Context, pairs []models.SongArtistPair) ([]models.SongArtistPair, error) {
	fresh := []models.SongArtistPair{}
	seen := make(map[string]bool, len(pairs))

	for _, p := range pairs {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true

		inserted, err := g.store.InsertSong(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to record song %s: %w", p, err)
		}
		if !inserted {
			g.logger.Debug("already submitted", "song", p.Song, "artist", p.Artist)
			continue
		}
		fresh = append(fresh, p)
	}

	return fresh, nil
}

// Unseen returns the pairs FilterNew would return, without recording anything.
func (g *DedupGuard) Unseen(ctx context.Context, pairs []models.SongArtistPair) ([]models.SongArtistPair, error) {
	fresh := []models.SongArtistPair{}
	seen := make(map[string]bool, len(pairs))

	for _, p := range pairs {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true

		has, err := g.store.HasSong(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to check song %s: %w", p, err)
		}
		if !has {
			fresh = append(fresh, p)
		}
	}

	return fresh, nil
}
