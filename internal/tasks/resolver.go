package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/services"
	"github.com/desertthunder/hotlist/internal/shared"
)

const (
	defaultConcurrency = 4
	maxConcurrency     = 10
	defaultRateLimit   = 5.0
)

// Resolution is the outcome of resolving a batch of pairs.
type Resolution struct {
	URIs     []string                // One URI per resolved pair, in input order
	Resolved []models.SongArtistPair // The pair behind each entry of URIs
	Missed   []models.SongArtistPair // Pairs the search found nothing for, in input order
}

// Resolver maps pairs to track URIs with bounded, rate limited parallel searches.
type Resolver struct {
	searcher    services.TrackSearcher
	concurrency int
	limiter     *rate.Limiter
	logger      *log.Logger
}

// NewResolver creates a Resolver. Concurrency defaults to 4 (capped at 10) and the rate limit to 5 requests per second.
func NewResolver(searcher services.TrackSearcher, cfg shared.ResolverConfig, logger *log.Logger) *Resolver {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Resolver{
		searcher:    searcher,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(rate.Limit(limit), 1),
		logger:      logger,
	}
}

// Resolve searches for each pair and returns the top result URIs in input order.
//
// A search with no results drops the pair with a warning. Any other error cancels the remaining searches and is returned.
func (r *Resolver) Resolve(ctx context.Context, token string, pairs []models.SongArtistPair, progress chan<- ProgressUpdate) (*Resolution, error) {
	uris := make([]string, len(pairs))
	total := len(pairs)
	var done atomic.Int64

	sendProgress(progress, resolveUpdate(0, total, nil))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, pair := range pairs {
		g.Go(func() error {
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}

			uri, err := r.searcher.SearchTrack(gctx, token, pair)
			sendProgress(progress, resolveUpdate(int(done.Add(1)), total, &pair))

			switch {
			case errors.Is(err, shared.ErrSearchMiss):
				r.logger.Warn("no track found", "song", pair.Song, "artist", pair.Artist)
				return nil
			case err != nil:
				return fmt.Errorf("search %s: %w", pair, err)
			}

			uris[i] = uri
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Resolution{URIs: []string{}, Resolved: []models.SongArtistPair{}, Missed: []models.SongArtistPair{}}
	for i, uri := range uris {
		if uri == "" {
			result.Missed = append(result.Missed, pairs[i])
			continue
		}
		result.URIs = append(result.URIs, uri)
		result.Resolved = append(result.Resolved, pairs[i])
	}
	return result, nil
}
