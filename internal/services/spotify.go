// Spotify Web API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

const (
	// DefaultBaseURL is the Spotify Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1"

	playlistPageSize = 50
	maxTracksPerAdd  = 100
	maxErrorBody     = 512
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyTrack represents the fields of a track object used for resolution.
type SpotifyTrack struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search with type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// StatusError is a non-2xx Spotify API response.
//
// It unwraps to [shared.ErrTokenExpired] for 401 and [shared.ErrAPI] otherwise.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: %s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: %s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	return shared.ErrAPI
}

// SpotifyService talks to the Spotify Web API. Every call takes the bearer token explicitly.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a client rooted at baseURL (defaults to [DefaultBaseURL]).
func NewSpotifyService(baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// endpoint may carry a query string. body, when non-nil, is sent as JSON; result, when non-nil, is decoded from JSON.
func (s *SpotifyService) doRequest(ctx context.Context, token, method, endpoint string, body, result any) error {
	if token == "" {
		return fmt.Errorf("%w: no access token", shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrNetwork, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			Endpoint:   strings.SplitN(endpoint, "?", 2)[0],
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errorMessage extracts error.message from a Spotify error body, falling back to the truncated raw body.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(data))
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, token string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, token, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserID returns the current user's id.
func (s *SpotifyService) UserID(ctx context.Context, token string) (string, error) {
	user, err := s.UserProfile(ctx, token)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile response has no id", shared.ErrAuth)
	}
	return user.ID, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, token string, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > playlistPageSize {
		limit = playlistPageSize
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// FindPlaylist pages through the user's playlists and returns the id of the first one named exactly name.
func (s *SpotifyService) FindPlaylist(ctx context.Context, token, name string) (string, error) {
	for offset := 0; ; offset += playlistPageSize {
		page, err := s.UserPlaylists(ctx, token, playlistPageSize, offset)
		if err != nil {
			return "", err
		}

		for _, p := range page.Items {
			if p.Name == name {
				return p.ID, nil
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
		}
	}
}

// SearchTrack returns the URI of the top track matching the pair's song and artist.
func (s *SpotifyService) SearchTrack(ctx context.Context, token string, pair models.SongArtistPair) (string, error) {
	params := url.Values{}
	params.Set("q", pair.Query())
	params.Set("type", "track")
	params.Set("limit", "1")

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, token, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return "", err
	}

	for _, item := range response.Tracks.Items {
		if item.URI != "" {
			return item.URI, nil
		}
	}

	return "", fmt.Errorf("%w: %s", shared.ErrSearchMiss, pair)
}

// AddTracks appends uris to the playlist, in batches of 100 (the API's per-request cap).
//
// Only 2xx counts as success; anything else wraps [shared.ErrSubmission] with the status detail.
func (s *SpotifyService) AddTracks(ctx context.Context, token, userID, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if userID == "" || playlistID == "" {
		return fmt.Errorf("%w: user and playlist id are required", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists/%s/tracks", url.PathEscape(userID), url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += maxTracksPerAdd {
		end := min(start+maxTracksPerAdd, len(uris))

		err := s.doRequest(ctx, token, http.MethodPost, endpoint, addTracksRequest{URIs: uris[start:end]}, nil)
		if err != nil {
			if _, ok := err.(*StatusError); ok {
				return fmt.Errorf("%w: %w", shared.ErrSubmission, err)
			}
			return err
		}
	}

	return nil
}
