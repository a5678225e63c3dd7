package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/services"
	"github.com/desertthunder/hotlist/internal/shared"
)

// SpotifyAPI is the subset of the Spotify client the pipeline uses.
type SpotifyAPI interface {
	services.PlaylistService
	services.TrackSearcher
}

// RunResult contains all data from a pipeline run.
type RunResult struct {
	UserID     string                  // Owner of the target playlist
	PlaylistID string                  // Target playlist
	Scraped    []models.SongArtistPair // Chart entries as scraped
	Selected   []models.SongArtistPair // One pair per allowed artist
	New        []models.SongArtistPair // Selected pairs never submitted before
	URIs       []string                // Resolved tracks sent to the playlist
	Missed     []models.SongArtistPair // New pairs with no search result
	Submitted  bool                    // Whether the add-tracks call was made
	DryRun     bool
}

// PipelineOpts wires a [Pipeline].
type PipelineOpts struct {
	Auth         services.Authenticator
	Chart        services.ChartSource
	Spotify      SpotifyAPI
	Songs        SongStore
	PlaylistName string
	Allow        []string
	Resolver     shared.ResolverConfig
	DryRun       bool // Skip submitting tracks and recording songs
	Logger       *log.Logger
}

// Pipeline runs authenticate → locate playlist → scrape → filter → dedup → resolve → submit once.
type Pipeline struct {
	auth         services.Authenticator
	chart        services.ChartSource
	spotify      SpotifyAPI
	dedup        *DedupGuard
	resolver     *Resolver
	submitter    *Submitter
	playlistName string
	allow        []string
	dryRun       bool
	logger       *log.Logger
}

// NewPipeline creates a Pipeline from opts.
func NewPipeline(opts PipelineOpts) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		auth:         opts.Auth,
		chart:        opts.Chart,
		spotify:      opts.Spotify,
		dedup:        NewDedupGuard(opts.Songs, logger),
		resolver:     NewResolver(opts.Spotify, opts.Resolver, logger),
		submitter:    NewSubmitter(opts.Spotify, logger),
		playlistName: opts.PlaylistName,
		allow:        opts.Allow,
		dryRun:       opts.DryRun,
		logger:       logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one pass of the pipeline.
//
// The song history is only read until the playlist accepts the tracks. Resolved pairs are recorded after a
// successful submission; a failed submission records nothing and pairs the search missed are never recorded, so both
// are tried again on the next run.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := &RunResult{DryRun: p.dryRun}

	sendProgress(progress, authenticateUpdate())
	token, err := p.auth.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, locatePlaylistUpdate(p.playlistName))
	if result.UserID, err = p.spotify.UserID(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}
	if result.PlaylistID, err = p.spotify.FindPlaylist(ctx, token, p.playlistName); err != nil {
		return nil, err
	}
	sendProgress(progress, foundPlaylistUpdate(p.playlistName, result.PlaylistID))

	if result.Scraped, err = p.chart.FetchTrending(ctx); err != nil {
		return nil, err
	}
	p.logger.Info("scraped chart", "entries", len(result.Scraped))
	sendProgress(progress, scrapeUpdate(result.Scraped))

	result.Selected = SelectDesirable(result.Scraped, p.allow)
	p.logger.Info("filtered by artist", "selected", len(result.Selected))
	sendProgress(progress, filterUpdate(result.Selected, len(result.Scraped)))

	if result.New, err = p.dedup.Unseen(ctx, result.Selected); err != nil {
		return nil, err
	}
	p.logger.Info("deduplicated", "new", len(result.New))
	sendProgress(progress, dedupUpdate(result.New, len(result.Selected)))

	resolution, err := p.resolver.Resolve(ctx, token, result.New, progress)
	if err != nil {
		return nil, err
	}
	result.URIs = uniqueURIs(resolution.URIs)
	result.Missed = resolution.Missed
	if dup := len(resolution.URIs) - len(result.URIs); dup > 0 {
		p.logger.Debug("dropped duplicate tracks", "count", dup)
	}

	sendProgress(progress, submitUpdate(len(result.URIs), p.dryRun))
	if !p.dryRun && len(result.URIs) > 0 {
		if err := p.submitter.Submit(ctx, token, result.UserID, result.PlaylistID, result.URIs); err != nil {
			return nil, err
		}
		result.Submitted = true

		recorded, err := p.dedup.FilterNew(ctx, resolution.Resolved)
		if err != nil {
			return nil, fmt.Errorf("tracks were added but not recorded: %w", err)
		}
		p.logger.Debug("recorded songs", "count", len(recorded))
	}

	sendProgress(progress, doneUpdate(result))
	return result, nil
}

// uniqueURIs drops repeated URIs, keeping the first occurrence. Two credited artists of one song usually resolve to
// the same track.
func uniqueURIs(uris []string) []string {
	seen := make(map[string]bool, len(uris))
	out := make([]string, 0, len(uris))
	for _, u := range uris {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
