package main

import (
	"context"

	"github.com/desertthunder/hotlist/internal/formatter"
	"github.com/desertthunder/hotlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Chart scrapes the chart and prints it, optionally narrowed to the allow list.
func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	pairs, err := r.chartSource().FetchTrending(ctx)
	if err != nil {
		return err
	}

	title := "Trending"
	if cmd.Bool("filter") {
		pairs = tasks.SelectDesirable(pairs, r.config.Artists.Allow)
		title = "Trending by allowed artists"
	}

	data, err := formatter.Pairs(format, title, pairs)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
