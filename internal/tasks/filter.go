package tasks

import (
	"regexp"
	"strings"

	"github.com/desertthunder/hotlist/internal/models"
)

// featuring matches the "feat." and "ft." credit markers.
var featuring = regexp.MustCompile(`(?i)(?:^|\s)(?:feat|ft)\.\s*`)

// SplitArtists breaks a credit such as "Alice feat. Bob & Carol" into lower-cased individual names.
//
// The credit is split on the featuring marker first, then each part on "&". Empty names are dropped
// and a name repeated within one credit is kept once.
func SplitArtists(credit string) []string {
	var names []string
	seen := map[string]bool{}

	for _, part := range featuring.Split(credit, -1) {
		for _, name := range strings.Split(part, "&") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// SelectDesirable expands each pair into one pair per credited artist and keeps those whose artist is in allow.
//
// Matching is case-insensitive. Output follows input order.
func SelectDesirable(pairs []models.SongArtistPair, allow []string) []models.SongArtistPair {
	allowed := make(map[string]bool, len(allow))
	for _, a := range allow {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			allowed[a] = true
		}
	}

	selected := []models.SongArtistPair{}
	for _, p := range pairs {
		for _, artist := range SplitArtists(p.Artist) {
			if allowed[artist] {
				selected = append(selected, models.NewPair(p.Song, artist))
			}
		}
	}
	return selected
}
