package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

// SongRepository persists [models.SongRecord] values, unique on (song, artist).
type SongRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db, now: time.Now}
}

// HasSong reports whether pair has already been recorded.
func (r *SongRepository) HasSong(ctx context.Context, pair models.SongArtistPair) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM songs WHERE song = ? AND artist = ?)",
		pair.Song, pair.Artist,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query song: %w", err)
	}
	return exists, nil
}

// InsertSong records pair. Returns false without error when the pair is already present.
func (r *SongRepository) InsertSong(ctx context.Context, pair models.SongArtistPair) (bool, error) {
	if pair.Song == "" || pair.Artist == "" {
		return false, fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO songs (id, song, artist, added_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(song, artist) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, shared.GenerateID(), pair.Song, pair.Artist, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ListSongs returns every recorded song in insertion order.
func (r *SongRepository) ListSongs(ctx context.Context) ([]*models.SongRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, song, artist, added_at
		FROM songs
		ORDER BY added_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.SongRecord
	for rows.Next() {
		var s models.SongRecord
		if err := rows.Scan(&s.ID, &s.Song, &s.Artist, &s.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}

	return songs, nil
}

// CountSongs returns the number of recorded songs.
func (r *SongRepository) CountSongs(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}
