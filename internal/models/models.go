// package models defines the data model for the playlist curator
package models

import (
	"strings"
	"time"
)

// TokenLifetime is how long a stored access token is trusted after it was added.
const TokenLifetime = time.Hour

// TokenRecord is one OAuth2 token response as persisted in the tokens table.
//
// Records are append-only: a refresh adds a new record rather than mutating the previous one.
// The current record is the one with the most recent AddedAt.
type TokenRecord struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int       `json:"expires_in"` // seconds, as reported by the provider
	RefreshToken string    `json:"refresh_token"`
	AddedAt      time.Time `json:"added_at"`
}

// IsValid reports whether the token is still usable at now.
//
// A token is valid strictly less than [TokenLifetime] after it was added; at exactly one hour it is expired.
func (t *TokenRecord) IsValid(now time.Time) bool {
	return now.Sub(t.AddedAt) < TokenLifetime
}

// ExpiresAt returns the instant [TokenRecord.IsValid] starts reporting false.
func (t *TokenRecord) ExpiresAt() time.Time {
	return t.AddedAt.Add(TokenLifetime)
}

// SongArtistPair is a (song, artist) tuple flowing through the pipeline. Both fields are lower-cased.
type SongArtistPair struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
}

// NewPair builds a pair with both fields trimmed and lower-cased.
func NewPair(song, artist string) SongArtistPair {
	return SongArtistPair{
		Song:   strings.ToLower(strings.TrimSpace(song)),
		Artist: strings.ToLower(strings.TrimSpace(artist)),
	}
}

// Key identifies the pair for set membership.
func (p SongArtistPair) Key() string {
	return p.Song + "\x00" + p.Artist
}

// Query is the search text used to resolve the pair to a track.
func (p SongArtistPair) Query() string {
	return p.Song + " " + p.Artist
}

func (p SongArtistPair) String() string {
	return p.Song + " - " + p.Artist
}

// SongRecord is a pair that has already been submitted to the playlist.
type SongRecord struct {
	ID      string    `json:"id"`
	Song    string    `json:"song"`
	Artist  string    `json:"artist"`
	AddedAt time.Time `json:"added_at"`
}

// Pair returns the record's (song, artist) pair.
func (s *SongRecord) Pair() SongArtistPair {
	return SongArtistPair{Song: s.Song, Artist: s.Artist}
}
