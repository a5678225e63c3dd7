package main

import (
	"context"

	"github.com/desertthunder/hotlist/internal/formatter"
	"github.com/desertthunder/hotlist/internal/repositories"
	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsList prints every song recorded by earlier runs.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := shared.OpenStore(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := repositories.NewSQLStore(db).ListSongs(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Songs(format, "Recorded songs", songs)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
