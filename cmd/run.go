package main

import (
	"context"

	"github.com/desertthunder/hotlist/internal/repositories"
	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/desertthunder/hotlist/internal/tasks"
	"github.com/desertthunder/hotlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Run executes one pass of the curation pipeline.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenStore(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	store := repositories.NewSQLStore(db)

	dryRun := cmd.Bool("dry-run")
	asJSON := cmd.Bool("json")
	logger := shared.WithLogger(r.logger, "run", shared.GenerateID()[:8])

	pipeline := tasks.NewPipeline(tasks.PipelineOpts{
		Auth:         r.tokenManager(store),
		Chart:        r.chartSource(),
		Spotify:      r.spotifyAPI(),
		Songs:        store,
		PlaylistName: r.config.Playlist.Name,
		Allow:        r.config.Artists.Allow,
		Resolver:     r.config.Resolver,
		DryRun:       dryRun,
		Logger:       logger,
	})

	logger.Info("starting run", "playlist", r.config.Playlist.Name, "dry_run", dryRun)

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if asJSON {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 64)
		go func() {
			defer close(done)
			for update := range progressCh {
				r.printProgress(update)
			}
		}()
	}

	result, err := pipeline.Run(ctx, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(result, true)
	}
	r.printSummary(result)
	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Resolve:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.Submit:
		r.writePlain("\n📝 %s\n", update.Message)
	case tasks.Done:
	default:
		r.writePlain("%s\n", update.Message)
	}
}

func (r *Runner) printSummary(result *tasks.RunResult) {
	r.writePlain("\n")
	if result.DryRun {
		r.writePlainHeader("Dry Run Complete")
	} else {
		r.writePlainHeader("Run Complete")
	}
	r.writePlain("Chart entries: %d\n", len(result.Scraped))
	r.writePlain("By allowed artists: %d\n", len(result.Selected))
	r.writePlain("New: %d\n", len(result.New))

	switch {
	case result.Submitted:
		r.writePlain("%s\n", ui.Styles.OK("Added %d tracks to the playlist", len(result.URIs)))
	case result.DryRun:
		r.writePlain("%s\n", ui.Styles.Help("Would add %d tracks", len(result.URIs)))
	default:
		r.writePlain("%s\n", ui.Styles.Help("Nothing new to add"))
	}

	if len(result.Missed) > 0 {
		r.writePlain("\n%s\n", ui.Styles.Warn("No match for %d songs:", len(result.Missed)))
		for _, pair := range result.Missed {
			r.writePlain("  - %s\n", pair)
		}
	}
}
