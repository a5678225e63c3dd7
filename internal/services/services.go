package services

import (
	"context"

	"github.com/desertthunder/hotlist/internal/models"
)

// ChartSource produces the currently trending (song, artist) pairs. One call is one scrape; there is no pagination.
type ChartSource interface {
	FetchTrending(ctx context.Context) ([]models.SongArtistPair, error)
}

// TrackSearcher resolves a pair to a platform track URI.
//
// Implementations return an error wrapping [shared.ErrSearchMiss] when the search has no results.
type TrackSearcher interface {
	SearchTrack(ctx context.Context, token string, pair models.SongArtistPair) (string, error)
}

// PlaylistService looks up the user and playlist and appends tracks to it.
type PlaylistService interface {
	// UserID returns the id of the user owning token.
	UserID(ctx context.Context, token string) (string, error)
	// FindPlaylist returns the id of the user's playlist named exactly name.
	FindPlaylist(ctx context.Context, token, name string) (string, error)
	// AddTracks appends uris to the playlist. Any non-2xx response wraps [shared.ErrSubmission].
	AddTracks(ctx context.Context, token, userID, playlistID string, uris []string) error
}

// Authenticator returns a bearer token for API calls.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// StaticChart is a fixed [ChartSource], used for dry runs and tests.
type StaticChart []models.SongArtistPair

// FetchTrending returns a copy of the fixed pairs.
func (c StaticChart) FetchTrending(ctx context.Context) ([]models.SongArtistPair, error) {
	return append([]models.SongArtistPair(nil), c...), nil
}

var (
	_ ChartSource     = StaticChart(nil)
	_ ChartSource     = (*HotNewHipHopChart)(nil)
	_ TrackSearcher   = (*SpotifyService)(nil)
	_ PlaylistService = (*SpotifyService)(nil)
	_ Authenticator   = (*TokenManager)(nil)
)
