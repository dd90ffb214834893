// Package pipeline orchestrates a collection run: adapter selection,
// discovery, date-bounded extraction, fallback synthesis, and
// normalization into the common record schema. It is the only entry
// point the CLI layer calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/pkravets/revscout/internal/dates"
	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/mock"
	"github.com/pkravets/revscout/internal/model"
	"github.com/pkravets/revscout/internal/scrape"
)

// fallbackCount is how many records synthesis produces when live
// collection yields nothing.
const fallbackCount = 5

// RunOptions are the per-run inputs. Dates are inclusive calendar
// dates in YYYY-MM-DD form.
type RunOptions struct {
	Subject   string
	StartDate string
	EndDate   string
	Source    string

	// Mock forces fallback synthesis without touching the network.
	Mock bool
}

// Pipeline drives discovery, collection, and normalization.
type Pipeline struct {
	registry  *scrape.Registry
	generator *mock.Generator
	cfg       *model.Config
}

// New creates a pipeline over an adapter registry.
func New(cfg *model.Config, registry *scrape.Registry) *Pipeline {
	return &Pipeline{
		registry:  registry,
		generator: mock.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano()))),
		cfg:       cfg,
	}
}

// NewWithSession is a convenience constructor building the registry
// from a fetch session.
func NewWithSession(cfg *model.Config, session *fetch.Session, githubToken string) *Pipeline {
	return New(cfg, scrape.NewRegistry(session, cfg, githubToken))
}

// Run executes one collection run and always returns a non-empty,
// schema-valid record list unless the inputs themselves are malformed.
// Network and parse faults never surface as errors; they route the run
// into fallback synthesis.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) ([]model.Review, error) {
	start, end, err := parseWindow(opts.StartDate, opts.EndDate)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(opts.Subject) == "" {
		return nil, errors.New("subject name is required")
	}

	tag := strings.ToLower(strings.TrimSpace(opts.Source))
	scraper, ok := p.registry.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("unsupported source %q (available: %s)",
			opts.Source, strings.Join(p.registry.Sources(), ", "))
	}

	sourceTag := strings.ToUpper(tag)

	slog.Info("starting collection",
		"subject", opts.Subject,
		"source", sourceTag,
		"start", opts.StartDate,
		"end", opts.EndDate)

	if opts.Mock {
		slog.Info("mock mode enabled, synthesizing records")
		return p.generator.Generate(opts.Subject, sourceTag, fallbackCount), nil
	}

	target, err := scraper.LocateSubject(ctx, opts.Subject)
	if errors.Is(err, scrape.ErrNotFound) {
		slog.Warn("subject not found, falling back to synthetic records",
			"subject", opts.Subject, "source", sourceTag)
		return p.generator.Generate(opts.Subject, sourceTag, fallbackCount), nil
	}
	if err != nil {
		// Malformed subject identifier; the only non-date input error
		// an adapter can raise.
		return nil, fmt.Errorf("locate subject: %w", err)
	}

	items, err := scraper.Collect(ctx, target, start, end)
	if err != nil || len(items) == 0 {
		if err != nil {
			slog.Warn("collection failed, falling back to synthetic records", "error", err)
		} else {
			slog.Warn("no records found, falling back to synthetic records",
				"subject", opts.Subject, "source", sourceTag)
		}
		return p.generator.Generate(opts.Subject, sourceTag, fallbackCount), nil
	}

	reviews := make([]model.Review, 0, len(items))
	for _, item := range items {
		reviews = append(reviews, normalize(item, sourceTag))
	}

	slog.Info("collection complete", "source", sourceTag, "records", len(reviews))
	return reviews, nil
}

// normalize converts a raw adapter item into the common record schema.
func normalize(item scrape.Item, sourceTag string) model.Review {
	return model.Review{
		Title:         withDefault(item.Title, "No title"),
		Description:   withDefault(item.Body, "No description"),
		Date:          dates.Normalize(item.Date),
		Rating:        item.Rating,
		ReviewerName:  item.Author,
		ReviewerTitle: item.AuthorTitle,
		CompanySize:   item.CompanySize,
		Source:        sourceTag,
		Type:          item.Kind,
		Verified:      item.Verified,
		Pros:          item.Pros,
		Cons:          item.Cons,
		URL:           item.URL,
		State:         item.State,
		Labels:        item.Labels,
		Reactions:     item.Reactions,
	}
}

func withDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func parseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, use YYYY-MM-DD", startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, use YYYY-MM-DD", endDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s", endDate, startDate)
	}
	return start, end, nil
}
