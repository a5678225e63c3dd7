package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

var pairs = []models.SongArtistPair{
	{Song: "song one", Artist: "artist one"},
	{Song: "song | two", Artist: "artist, two"},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{" markdown ", FormatMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := Pairs(FormatCSV, "Chart", pairs)
		if err != nil {
			t.Fatalf("Pairs failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Song,Artist\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `song | two,"artist, two"`) {
			t.Errorf("CSV should quote fields containing commas, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Pairs(FormatMarkdown, "Chart", pairs)
		if err != nil {
			t.Fatalf("Pairs failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Chart") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "**Entries**: 2") {
			t.Error("Markdown missing entry count")
		}
		if !strings.Contains(output, "| 1 | song one | artist one |") {
			t.Errorf("Markdown missing first row, got: %s", output)
		}
		if !strings.Contains(output, `song \| two`) {
			t.Error("Markdown should escape pipes")
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := Pairs(FormatText, "Chart", pairs)
		if err != nil {
			t.Fatalf("Pairs failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Chart (2)") {
			t.Error("Text missing header")
		}
		if !strings.Contains(output, "1. artist one - song one") {
			t.Errorf("Text missing first entry, got: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Pairs(FormatJSON, "Chart", pairs)
		if err != nil {
			t.Fatalf("Pairs failed: %v", err)
		}

		var decoded []models.SongArtistPair
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1] != pairs[1] {
			t.Errorf("unexpected JSON content %v", decoded)
		}
	})

	t.Run("Songs", func(t *testing.T) {
		added := time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)
		songs := []*models.SongRecord{{ID: "1", Song: "song one", Artist: "artist one", AddedAt: added}}

		data, err := Songs(FormatCSV, "Songs", songs)
		if err != nil {
			t.Fatalf("Songs failed: %v", err)
		}
		if !strings.Contains(string(data), "song one,artist one,2026-10-19 09:30:00") {
			t.Errorf("CSV missing song row, got: %s", data)
		}

		text, err := Songs(FormatText, "Songs", songs)
		if err != nil {
			t.Fatalf("Songs failed: %v", err)
		}
		if !strings.Contains(string(text), "1. artist one - song one  [2026-10-19 09:30:00]") {
			t.Errorf("Text missing song row, got: %s", text)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := Pairs(FormatMarkdown, "Nothing", nil)
		if err != nil {
			t.Fatalf("Pairs failed: %v", err)
		}
		if strings.Contains(string(data), "|") {
			t.Error("empty Markdown should have no table")
		}
	})
}
