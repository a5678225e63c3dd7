package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/hotlist/internal/models"
	"github.com/desertthunder/hotlist/internal/shared"
)

// DefaultChartURL is the HotNewHipHop top 100 page.
const DefaultChartURL = "https://www.hotnewhiphop.com/top100/"

const (
	chartEntrySelector  = "div.chartItem-body-artist"
	chartTitleSelector  = "a.cover-title.chartItem-artist-trackTitle"
	chartArtistSelector = "div.chartItem-artist-info"
)

// HotNewHipHopChart scrapes the HotNewHipHop top 100 chart.
type HotNewHipHopChart struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewHotNewHipHopChart creates a scraper for the chart at chartURL (defaults to [DefaultChartURL]).
func NewHotNewHipHopChart(cfg shared.ChartConfig, client *http.Client) *HotNewHipHopChart {
	chartURL := cfg.URL
	if chartURL == "" {
		chartURL = DefaultChartURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HotNewHipHopChart{url: chartURL, userAgent: cfg.UserAgent, httpClient: client}
}

// FetchTrending downloads the chart page and parses it with [ParseChart].
func (c *HotNewHipHopChart) FetchTrending(ctx context.Context) ([]models.SongArtistPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching chart: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetching chart: status %d", shared.ErrNetwork, resp.StatusCode)
	}

	return ParseChart(resp.Body)
}

// ParseChart extracts (song, artist) pairs from a chart page in page order.
//
// The artist is every nested artist-info block joined by a space, so a credit such as "Drake feat. Future" survives
// as one string for the artist filter to split. Text is NFKC-normalized (which turns non-breaking spaces into
// spaces), whitespace-collapsed and lower-cased. Entries without a title or artist are skipped.
func ParseChart(r io.Reader) ([]models.SongArtistPair, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart page: %w", err)
	}

	pairs := []models.SongArtistPair{}
	doc.Find(chartEntrySelector).Each(func(_ int, entry *goquery.Selection) {
		song := normalizeChartText(entry.Find(chartTitleSelector).First().Text())

		var names []string
		entry.Find(chartArtistSelector).Each(func(_ int, info *goquery.Selection) {
			names = append(names, info.Text())
		})
		artist := normalizeChartText(strings.Join(names, " "))

		if song == "" || artist == "" {
			return
		}
		pairs = append(pairs, models.SongArtistPair{Song: song, Artist: artist})
	})

	return pairs, nil
}

func normalizeChartText(s string) string {
	return strings.ToLower(shared.CollapseSpace(norm.NFKC.String(s)))
}
