// package formatter renders chart entries and submitted songs as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

// Format is an output format accepted by the --format flag.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a --format value. An empty value means [FormatText].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidFlag, s)
	}
}

// table is the shape every exporter renders from.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

// Pairs renders (song, artist) pairs under title.
func Pairs(format Format, title string, pairs []models.SongArtistPair) ([]byte, error) {
	if format == FormatJSON {
		return marshalJSON(pairs)
	}

	t := table{title: title, headers: []string{"Song", "Artist"}}
	for _, p := range pairs {
		t.rows = append(t.rows, []string{p.Song, p.Artist})
	}
	return render(format, t)
}

// Songs renders recorded songs under title, oldest first.
func Songs(format Format, title string, songs []*models.SongRecord) ([]byte, error) {
	if format == FormatJSON {
		return marshalJSON(songs)
	}

	t := table{title: title, headers: []string{"Song", "Artist", "Added"}}
	for _, s := range songs {
		t.rows = append(t.rows, []string{s.Song, s.Artist, s.AddedAt.Local().Format(time.DateTime)})
	}
	return render(format, t)
}

func render(format Format, t table) ([]byte, error) {
	switch format {
	case FormatCSV:
		return toCSV(t)
	case FormatMarkdown:
		return toMarkdown(t), nil
	case FormatText, "":
		return toText(t), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func toCSV(t table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func toMarkdown(t table) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", t.title)
	fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(t.rows))
	if len(t.rows) == 0 {
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "| # | %s |\n", strings.Join(t.headers, " | "))
	buf.WriteString("|---|" + strings.Repeat("---|", len(t.headers)) + "\n")
	for i, row := range t.rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.ReplaceAll(c, "|", `\|`)
		}
		fmt.Fprintf(&buf, "| %d | %s |\n", i+1, strings.Join(cells, " | "))
	}

	return buf.Bytes()
}

func toText(t table) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (%d)\n\n", t.title, len(t.rows))
	for i, row := range t.rows {
		line := row[0]
		if len(row) > 1 {
			line = row[1] + " - " + row[0]
		}
		if len(row) > 2 {
			line += "  [" + strings.Join(row[2:], ", ") + "]"
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes()
}
