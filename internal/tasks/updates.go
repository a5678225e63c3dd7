package tasks

import (
	"fmt"

	"github.com/desertthunder/hotlist/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	LocatePlaylist
	Scrape
	Filter
	Dedup
	Resolve
	Submit
	Done
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case LocatePlaylist:
		return "locate_playlist"
	case Scrape:
		return "scrape"
	case Filter:
		return "filter"
	case Dedup:
		return "dedup"
	case Resolve:
		return "resolve"
	case Submit:
		return "submit"
	case Done:
		return "done"
	default:
		return ""
	}
}

func authenticateUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    1,
		Total:   1,
		Message: "Authenticating with Spotify...",
	}
}

func locatePlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LocatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up playlist %q...", name),
	}
}

func foundPlaylistUpdate(name, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LocatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (ID: %s)", name, id),
		Data:    id,
	}
}

func scrapeUpdate(pairs []models.SongArtistPair) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Scrape,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scraped %d chart entries", len(pairs)),
		Data:    pairs,
	}
}

func filterUpdate(selected []models.SongArtistPair, scraped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Filter,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d of %d entries by allowed artists", len(selected), scraped),
		Data:    selected,
	}
}

func dedupUpdate(fresh []models.SongArtistPair, selected int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dedup,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d of %d songs are new", len(fresh), selected),
		Data:    fresh,
	}
}

func resolveUpdate(step, total int, pair *models.SongArtistPair) ProgressUpdate {
	if pair == nil {
		return ProgressUpdate{
			Phase:   Resolve,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on Spotify...",
		}
	}
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, pair.Artist, pair.Song),
	}
}

func submitUpdate(count int, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("Adding %d tracks to playlist...", count)
	if dryRun {
		msg = fmt.Sprintf("Dry run: would add %d tracks", count)
	}
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func doneUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Done: %d tracks submitted, %d not found", len(result.URIs), len(result.Missed)),
		Data:    result,
	}
}
