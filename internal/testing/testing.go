// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

// MemoryStore is an in-memory test double for [repositories.Store].
//
// Err, when set, is returned from every call.
type MemoryStore struct {
	mu     sync.Mutex
	Tokens []models.TokenRecord
	Songs  []models.SongArtistPair
	Err    error
}

// NewMemoryStore returns a store pre-populated with songs.
func NewMemoryStore(songs ...models.SongArtistPair) *MemoryStore {
	return &MemoryStore{Songs: append([]models.SongArtistPair(nil), songs...)}
}

func (m *MemoryStore) LatestToken(ctx context.Context) (*models.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var latest *models.TokenRecord
	for i := range m.Tokens {
		if latest == nil || !m.Tokens[i].AddedAt.Before(latest.AddedAt) {
			latest = &m.Tokens[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	rec := *latest
	return &rec, nil
}

func (m *MemoryStore) InsertToken(ctx context.Context, token *models.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if token.ID == "" {
		token.ID = shared.GenerateID()
	}
	if token.AddedAt.IsZero() {
		token.AddedAt = time.Now()
	}
	m.Tokens = append(m.Tokens, *token)
	return nil
}

func (m *MemoryStore) HasSong(ctx context.Context, pair models.SongArtistPair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.has(pair), nil
}

func (m *MemoryStore) InsertSong(ctx context.Context, pair models.SongArtistPair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.has(pair) {
		return false, nil
	}
	m.Songs = append(m.Songs, pair)
	return true, nil
}

func (m *MemoryStore) has(pair models.SongArtistPair) bool {
	for _, s := range m.Songs {
		if s == pair {
			return true
		}
	}
	return false
}

// TokenCount returns the number of stored token records.
func (m *MemoryStore) TokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tokens)
}

// FakeSpotify is a test double for the Spotify API used by the pipeline.
//
// Tracks maps a search query ("song artist") to its URI; queries without an entry are misses.
type FakeSpotify struct {
	mu        sync.Mutex
	User      string
	Playlists map[string]string
	Tracks    map[string]string
	SearchErr error
	AddErr    error

	Searches []string
	Added    [][]string
}

func (f *FakeSpotify) UserID(ctx context.Context, token string) (string, error) {
	if f.User == "" {
		return "", fmt.Errorf("%w: no user", shared.ErrAuth)
	}
	return f.User, nil
}

func (f *FakeSpotify) FindPlaylist(ctx context.Context, token, name string) (string, error) {
	if id, ok := f.Playlists[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
}

func (f *FakeSpotify) SearchTrack(ctx context.Context, token string, pair models.SongArtistPair) (string, error) {
	f.mu.Lock()
	f.Searches = append(f.Searches, pair.Query())
	f.mu.Unlock()

	if f.SearchErr != nil {
		return "", f.SearchErr
	}
	if uri, ok := f.Tracks[pair.Query()]; ok {
		return uri, nil
	}
	return "", fmt.Errorf("%w: %s", shared.ErrSearchMiss, pair)
}

func (f *FakeSpotify) AddTracks(ctx context.Context, token, userID, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.Added = append(f.Added, append([]string(nil), uris...))
	return nil
}

// SearchCount returns how many searches were made.
func (f *FakeSpotify) SearchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Searches)
}

// StaticToken is an authenticator returning a fixed token.
type StaticToken string

func (s StaticToken) Authenticate(ctx context.Context) (string, error) {
	if s == "" {
		return "", shared.ErrNotAuthenticated
	}
	return string(s), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	mu        sync.Mutex
	responses []*http.Response
	err       error
	Calls     int
}

// NewMockRoundTripper returns the responses in order, repeating the last one. A non-nil e is returned instead.
func NewMockRoundTripper(e error, r ...*http.Response) *MockRoundTripper {
	return &MockRoundTripper{responses: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.err != nil {
		return nil, m.err
	}
	i := min(m.Calls-1, len(m.responses)-1)
	return m.responses[i], nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
