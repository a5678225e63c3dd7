// package repositories provides the sqlite persistence layer for token and song records.
package repositories

import (
	"context"
	"database/sql"

	"github.com/desertthunder/hotlist/internal/models"
)

// Store is the persisted state shared by the token manager and the dedup guard.
type Store interface {
	// LatestToken returns the most recently added token record, or nil when none exists.
	LatestToken(ctx context.Context) (*models.TokenRecord, error)
	// InsertToken appends a token record.
	InsertToken(ctx context.Context, token *models.TokenRecord) error
	// HasSong reports whether pair has been recorded.
	HasSong(ctx context.Context, pair models.SongArtistPair) (bool, error)
	// InsertSong records pair, returning false if it was already present.
	InsertSong(ctx context.Context, pair models.SongArtistPair) (bool, error)
}

// SQLStore implements [Store] on top of [TokenRepository] and [SongRepository].
type SQLStore struct {
	*TokenRepository
	*SongRepository
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a [SQLStore] backed by db. Migrations must already be applied.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		TokenRepository: NewTokenRepository(db),
		SongRepository:  NewSongRepository(db),
	}
}
