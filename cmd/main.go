package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	err := app.Run(ctx, os.Args)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrCancelled), errors.Is(err, context.Canceled):
		logger.Warn("cancelled")
	default:
		logger.Error("application error", "error", err)
	}

	os.Exit(shared.ExitCode(err))
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "hotlist",
		Usage:   "Add trending songs from your favourite artists to a Spotify playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
		},
		Commands: r.register(),
	}
}
