package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkravets/revscout/internal/model"
	"github.com/pkravets/revscout/internal/scrape"
)

// stubScraper scripts adapter behavior for orchestrator tests and
// records whether the network-facing methods were invoked.
type stubScraper struct {
	source      string
	target      *scrape.Target
	locateErr   error
	items       []scrape.Item
	collectErr  error
	locateCalls int
}

func (s *stubScraper) Source() string { return s.source }

func (s *stubScraper) LocateSubject(_ context.Context, _ string) (*scrape.Target, error) {
	s.locateCalls++
	if s.locateErr != nil {
		return nil, s.locateErr
	}
	return s.target, nil
}

func (s *stubScraper) Collect(_ context.Context, _ *scrape.Target, _, _ time.Time) ([]scrape.Item, error) {
	return s.items, s.collectErr
}

func newTestPipeline(stub *stubScraper) *Pipeline {
	return New(model.DefaultConfig(), scrape.NewRegistryFromScrapers(stub))
}

func baseOptions() RunOptions {
	return RunOptions{
		Subject:   "Acme",
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
		Source:    "g2",
	}
}

func TestRun_InputErrors(t *testing.T) {
	p := newTestPipeline(&stubScraper{source: "g2"})
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*RunOptions)
	}{
		{"bad start date", func(o *RunOptions) { o.StartDate = "01/01/2024" }},
		{"bad end date", func(o *RunOptions) { o.EndDate = "soon" }},
		{"end before start", func(o *RunOptions) { o.StartDate = "2024-12-31"; o.EndDate = "2024-01-01" }},
		{"unknown source", func(o *RunOptions) { o.Source = "yelp" }},
		{"empty subject", func(o *RunOptions) { o.Subject = "  " }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := baseOptions()
			tc.mutate(&opts)

			reviews, err := p.Run(ctx, opts)
			require.Error(t, err)
			assert.Empty(t, reviews)
		})
	}
}

func TestRun_MockModeNeverTouchesAdapter(t *testing.T) {
	stub := &stubScraper{source: "g2"}
	p := newTestPipeline(stub)

	opts := baseOptions()
	opts.Mock = true

	reviews, err := p.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Len(t, reviews, fallbackCount)
	assert.Equal(t, 0, stub.locateCalls, "mock mode must not reach the adapter")
	for _, r := range reviews {
		assert.Equal(t, "G2", r.Source)
	}
}

func TestRun_DiscoveryFailureFallsBackToSynthesis(t *testing.T) {
	stub := &stubScraper{source: "g2", locateErr: scrape.ErrNotFound}
	p := newTestPipeline(stub)

	reviews, err := p.Run(context.Background(), baseOptions())
	require.NoError(t, err)

	require.Len(t, reviews, 5)
	for i, r := range reviews {
		assert.Equal(t, "G2", r.Source, "record %d", i)
		assert.Contains(t, r.Title, "Acme", "record %d", i)
		require.NotNil(t, r.Rating, "record %d", i)
		assert.GreaterOrEqual(t, *r.Rating, 3.0)
		assert.LessOrEqual(t, *r.Rating, 5.0)
	}
}

func TestRun_EmptyCollectionFallsBackToSynthesis(t *testing.T) {
	stub := &stubScraper{
		source: "trustradius",
		target: &scrape.Target{URL: "https://example.com", Valid: true},
	}
	p := newTestPipeline(stub)

	opts := baseOptions()
	opts.Source = "TrustRadius"

	reviews, err := p.Run(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, reviews, fallbackCount)
	for _, r := range reviews {
		assert.Equal(t, "TRUSTRADIUS", r.Source)
	}
}

func TestRun_BadSubjectPropagatesAsInputError(t *testing.T) {
	stub := &stubScraper{source: "github", locateErr: scrape.ErrBadSubject}
	p := newTestPipeline(stub)

	opts := baseOptions()
	opts.Source = "github"
	opts.Subject = "not-a-repo"

	reviews, err := p.Run(context.Background(), opts)
	require.ErrorIs(t, err, scrape.ErrBadSubject)
	assert.Empty(t, reviews)
}

func TestRun_NormalizesItems(t *testing.T) {
	rating := 4.0
	stub := &stubScraper{
		source: "g2",
		target: &scrape.Target{URL: "https://example.com", Valid: true},
		items: []scrape.Item{
			{
				Title:  "Solid product",
				Body:   "Works well.",
				Author: "alice",
				Date:   "June 1, 2024",
				Rating: &rating,
			},
			{
				// Missing fields resolve to safe defaults.
				Date: "May 2, 2024",
			},
		},
	}
	p := newTestPipeline(stub)

	reviews, err := p.Run(context.Background(), baseOptions())
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	assert.Equal(t, "Solid product", reviews[0].Title)
	assert.Equal(t, "2024-06-01", reviews[0].Date)
	assert.Equal(t, "G2", reviews[0].Source)
	assert.Equal(t, &rating, reviews[0].Rating)

	assert.Equal(t, "No title", reviews[1].Title)
	assert.Equal(t, "No description", reviews[1].Description)
	assert.Equal(t, "2024-05-02", reviews[1].Date)
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.json")
	reviews := []model.Review{
		{Title: "A", Description: "B", Date: "2024-06-01", Source: "G2", Rating: model.Float(4.5)},
	}

	require.NoError(t, WriteJSON(reviews, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []model.Review
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, reviews[0], decoded[0])
}

func TestRenderSummary(t *testing.T) {
	var buf strings.Builder
	reviews := []model.Review{
		{Title: "A", Description: strings.Repeat("x", 150), Source: "G2", Rating: model.Float(4.25)},
	}

	RenderSummary(&buf, reviews, "out.json")
	out := buf.String()

	assert.Contains(t, out, "Obtained 1 reviews")
	assert.Contains(t, out, "Rating: 4.25")
	assert.Contains(t, out, "...")
}
