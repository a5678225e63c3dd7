package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hotlist/internal/services"
)

// Submitter adds resolved tracks to the target playlist.
type Submitter struct {
	playlists services.PlaylistService
	logger    *log.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(playlists services.PlaylistService, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{playlists: playlists, logger: logger}
}

// Submit adds uris to the playlist. An empty list makes no API call.
func (s *Submitter) Submit(ctx context.Context, token, userID, playlistID string, uris []string) error {
	if len(uris) == 0 {
		s.logger.Info("no new tracks to submit")
		return nil
	}

	if err := s.playlists.AddTracks(ctx, token, userID, playlistID, uris); err != nil {
		return err
	}

	s.logger.Info("added tracks to playlist", "playlist", playlistID, "count", len(uris))
	return nil
}
