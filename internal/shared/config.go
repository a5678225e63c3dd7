package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Authorization modes accepted in [AuthConfig.Mode].
const (
	AuthModePrompt   = "prompt"
	AuthModeCallback = "callback"
)

// Credentials shipped in config.example.toml; a config that still carries them was never filled in.
const (
	placeholderClientID     = "your_spotify_client_id"
	placeholderClientSecret = "your_spotify_client_secret"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	API         APIConfig         `toml:"api"`
	Chart       ChartConfig       `toml:"chart"`
	Playlist    PlaylistConfig    `toml:"playlist"`
	Artists     ArtistsConfig     `toml:"artists"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Auth        AuthConfig        `toml:"auth"`
	Resolver    ResolverConfig    `toml:"resolver"`
	HTTP        HTTPConfig        `toml:"http"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// APIConfig contains the provider endpoints. Overridable so tests and proxies can stand in for Spotify.
type APIConfig struct {
	AuthURL  string `toml:"auth_url"`
	TokenURL string `toml:"token_url"`
	BaseURL  string `toml:"base_url"`
}

// ChartConfig describes where trending songs are scraped from.
type ChartConfig struct {
	URL       string `toml:"url"`
	UserAgent string `toml:"user_agent"`
}

// PlaylistConfig names the playlist that receives new tracks.
type PlaylistConfig struct {
	Name string `toml:"name"`
}

// ArtistsConfig holds the artist allow list.
type ArtistsConfig struct {
	Allow []string `toml:"allow"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig selects how the authorization code is obtained: "prompt" or "callback".
type AuthConfig struct {
	Mode string `toml:"mode"`
}

// ResolverConfig bounds track search fan-out.
type ResolverConfig struct {
	Concurrency int     `toml:"concurrency"`
	RateLimit   float64 `toml:"rate_limit"` // requests per second
}

// HTTPConfig controls the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	Retries        int `toml:"retries"`
	RetryBaseMS    int `toml:"retry_base_ms"`
}

// LogConfig sets the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// RetryBase returns the linear backoff step as a [time.Duration].
func (h HTTPConfig) RetryBase() time.Duration {
	return time.Duration(h.RetryBaseMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig encodes config as TOML and writes it to path with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that would prevent a pipeline run.
func (c *Config) Validate() error {
	spotify := c.Credentials.Spotify
	switch {
	case spotify.ClientID == "" || spotify.ClientSecret == "":
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	case spotify.ClientID == placeholderClientID || spotify.ClientSecret == placeholderClientSecret:
		return fmt.Errorf("%w: spotify client_id and client_secret still hold the example values", ErrMissingCredentials)
	case spotify.RedirectURI == "":
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	case c.API.AuthURL == "" || c.API.TokenURL == "" || c.API.BaseURL == "":
		return fmt.Errorf("%w: api auth_url, token_url and base_url must be set", ErrInvalidConfig)
	case c.Chart.URL == "":
		return fmt.Errorf("%w: chart url must be set", ErrInvalidConfig)
	case strings.TrimSpace(c.Playlist.Name) == "":
		return fmt.Errorf("%w: playlist name must be set", ErrInvalidConfig)
	case len(c.Artists.Allow) == 0:
		return fmt.Errorf("%w: artists allow list is empty", ErrInvalidConfig)
	}

	switch c.Auth.Mode {
	case "", AuthModePrompt, AuthModeCallback:
	default:
		return fmt.Errorf("%w: unknown auth mode %q", ErrInvalidConfig, c.Auth.Mode)
	}

	return nil
}
