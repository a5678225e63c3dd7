// Package models defines the records persisted by the playlist curator and the values passed between pipeline stages.
//
//   - [TokenRecord] : an OAuth2 token response plus the time it was stored; append-only
//   - [SongRecord] : a (song, artist) pair already submitted to the playlist
//   - [SongArtistPair] : the ephemeral, lower-cased (song, artist) tuple produced by the chart scraper
//
// Token validity is time-based rather than driven by expires_in: a record is trusted for [TokenLifetime] after it was added.
package models
