package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hotlist/internal/services"
	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/desertthunder/hotlist/internal/tasks"
	"github.com/desertthunder/hotlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The config is read from the --config flag when a command starts. Services left nil are built from it.
type Runner struct {
	config      *shared.Config
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	console     io.Writer
	input       io.Reader
	openBrowser shared.BrowserOpener
	chart       services.ChartSource
	spotify     tasks.SpotifyAPI
	codes       services.AuthorizationCodeProvider
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer // command results
	Console     io.Writer // authorization prompts
	Input       io.Reader
	OpenBrowser shared.BrowserOpener
	Chart       services.ChartSource
	Spotify     tasks.SpotifyAPI
	Codes       services.AuthorizationCodeProvider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		console:     opts.Console,
		input:       opts.Input,
		openBrowser: opts.OpenBrowser,
		chart:       opts.Chart,
		spotify:     opts.Spotify,
		codes:       opts.Codes,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, authCommand, setupCommand, songsCommand, chartCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the file named by --config and applies its log level.
//
// --log-level and --verbose take precedence over the file.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s not found (run `hotlist setup config` to create one)", shared.ErrMissingConfig, path)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	r.config = config

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if cmd.Bool("verbose") {
		level = "debug"
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, ll)

	r.logger.Debug("loaded config", "path", path)
	return nil
}

func (r *Runner) client() *http.Client {
	if r.httpClient == nil {
		r.httpClient = shared.NewHTTPClient(r.config.HTTP)
	}
	return r.httpClient
}

func (r *Runner) chartSource() services.ChartSource {
	if r.chart != nil {
		return r.chart
	}
	return services.NewHotNewHipHopChart(r.config.Chart, r.client())
}

func (r *Runner) spotifyAPI() tasks.SpotifyAPI {
	if r.spotify != nil {
		return r.spotify
	}
	return services.NewSpotifyService(r.config.API.BaseURL, r.client())
}

// codeProvider picks how the user authorizes according to [shared.AuthConfig.Mode].
func (r *Runner) codeProvider() services.AuthorizationCodeProvider {
	if r.codes != nil {
		return r.codes
	}

	if r.config.Auth.Mode == shared.AuthModeCallback {
		return &services.CallbackCodeProvider{
			Addr:        net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port)),
			RedirectURI: r.config.Credentials.Spotify.RedirectURI,
			Open:        r.openBrowser,
			Out:         r.console,
			Logger:      r.logger,
		}
	}

	return &services.PromptCodeProvider{
		Open: r.openBrowser,
		Prompt: func(ctx context.Context, title, placeholder string) (string, error) {
			return ui.Prompt(ctx, r.input, r.console, title, placeholder)
		},
		Out:    r.console,
		Logger: r.logger,
	}
}

func (r *Runner) tokenManager(store services.TokenStore) *services.TokenManager {
	return services.NewTokenManager(services.TokenManagerOpts{
		Credentials: r.config.Credentials.Spotify,
		API:         r.config.API,
		Store:       store,
		Codes:       r.codeProvider(),
		HTTPClient:  r.client(),
		Logger:      r.logger,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles.Title("%s", title))
	r.writePlain("═══════════════════════════════════════\n")
}
