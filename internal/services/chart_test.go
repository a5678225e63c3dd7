package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
	tu "github.com/desertthunder/hotlist/internal/testing"
)

const chartFixture = `<!DOCTYPE html>
<html><body>
<div class="chartItem">
  <div class="chartItem-body-artist">
    <a class="cover-title chartItem-artist-trackTitle" href="/songs/1">  Song   A </a>
    <div class="chartItem-artist-info">Alice&nbsp;feat. Bob &amp; Carol</div>
  </div>
</div>
<div class="chartItem">
  <div class="chartItem-body-artist">
    <a class="cover-title chartItem-artist-trackTitle" href="/songs/2">Second
      Song</a>
    <div class="chartItem-artist-info">Drake</div>
    <div class="chartItem-artist-info">feat. Future</div>
  </div>
</div>
<div class="chartItem">
  <div class="chartItem-body-artist">
    <div class="chartItem-artist-info">No Title</div>
  </div>
</div>
<div class="chartItem">
  <div class="chartItem-body-artist">
    <a class="chartItem-artist-trackTitle" href="/songs/4">Missing Cover Class</a>
    <div class="chartItem-artist-info">Someone</div>
  </div>
</div>
</body></html>`

func TestParseChart(t *testing.T) {
	t.Run("Extracts pairs in page order", func(t *testing.T) {
		pairs, err := ParseChart(strings.NewReader(chartFixture))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []models.SongArtistPair{
			{Song: "song a", Artist: "alice feat. bob & carol"},
			{Song: "second song", Artist: "drake feat. future"},
		}
		if len(pairs) != len(want) {
			t.Fatalf("expected %d pairs, got %d: %v", len(want), len(pairs), pairs)
		}
		for i := range want {
			if pairs[i] != want[i] {
				t.Errorf("pair %d: expected %v, got %v", i, want[i], pairs[i])
			}
		}
	})

	t.Run("Empty page", func(t *testing.T) {
		pairs, err := ParseChart(strings.NewReader("<html><body></body></html>"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(pairs) != 0 {
			t.Errorf("expected no pairs, got %v", pairs)
		}
	})
}

func TestHotNewHipHopChart(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchTrending", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != "hotlist-test" {
				t.Errorf("expected configured user agent, got %q", got)
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, chartFixture)
		}))
		defer srv.Close()

		chart := NewHotNewHipHopChart(shared.ChartConfig{URL: srv.URL, UserAgent: "hotlist-test"}, srv.Client())
		pairs, err := chart.FetchTrending(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(pairs) != 2 {
			t.Errorf("expected 2 pairs, got %d", len(pairs))
		}
	})

	t.Run("Non-2xx is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		chart := NewHotNewHipHopChart(shared.ChartConfig{URL: srv.URL}, srv.Client())
		if _, err := chart.FetchTrending(ctx); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("Transport error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(errors.New("connection reset"))}
		chart := NewHotNewHipHopChart(shared.ChartConfig{URL: "http://chart.invalid/"}, client)

		if _, err := chart.FetchTrending(ctx); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("Default URL", func(t *testing.T) {
		chart := NewHotNewHipHopChart(shared.ChartConfig{}, nil)
		if chart.url != DefaultChartURL {
			t.Errorf("expected default URL, got %s", chart.url)
		}
	})
}

func TestStaticChart(t *testing.T) {
	chart := StaticChart{models.NewPair("a", "b")}

	pairs, err := chart.FetchTrending(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	pairs[0].Song = "changed"
	if chart[0].Song != "a" {
		t.Error("FetchTrending must return a copy")
	}
}
