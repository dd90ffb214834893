// Package scrape implements the source adapters. Each adapter locates
// the feedback page for a subject by URL-pattern guessing and walks the
// result pages within a date window. Sites publish no schema for this
// markup, so extraction leans on ordered selector fallback chains and
// treats every structural miss as a local, recoverable problem.
package scrape

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
)

// ErrNotFound means no candidate URL resolved to a valid subject page.
var ErrNotFound = errors.New("subject not found")

// Target is a resolved subject page plus the evidence that justified
// selecting it. Consumed immediately by Collect, never persisted.
type Target struct {
	URL   string
	Valid bool
}

// Item is a raw, adapter-specific extraction result. It lives only
// until the orchestrator normalizes it into a model.Review.
type Item struct {
	Title       string
	Body        string
	Author      string
	AuthorTitle string
	CompanySize string

	// Date is raw date text; parsing happens against the window during
	// collection and again at normalization.
	Date string

	Rating   *float64
	Verified bool
	Pros     string
	Cons     string
	URL      string

	// Kind distinguishes GitHub item types: "issue" or "pr_comment".
	Kind      string
	State     string
	Labels    []string
	Reactions map[string]int
}

// Scraper is the contract every source implements.
type Scraper interface {
	// Source returns the registry tag, e.g. "g2".
	Source() string

	// LocateSubject resolves the feedback page for a named subject by
	// trying an ordered list of URL-construction heuristics. Returns
	// ErrNotFound when no candidate passes the source's validity check.
	LocateSubject(ctx context.Context, name string) (*Target, error)

	// Collect walks result pages and returns every item inside
	// [start, end]. Sources emit items in descending date order, so
	// collection terminates as soon as an item older than start
	// appears. That ordering is a heuristic, not a site guarantee.
	Collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error)
}

// Registry maps source tags to adapters. Built once at startup and
// immutable afterwards.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry constructs the registry with all built-in adapters.
func NewRegistry(session *fetch.Session, cfg *model.Config, githubToken string) *Registry {
	return &Registry{
		scrapers: map[string]Scraper{
			"g2":          NewG2(session, cfg),
			"capterra":    NewCapterra(session, cfg),
			"trustradius": NewTrustRadius(session, cfg),
			"github":      NewGitHub(session, cfg, githubToken),
		},
	}
}

// NewRegistryFromScrapers builds a registry from explicit adapters,
// keyed by their source tags. Useful for wiring substitutes in tests.
func NewRegistryFromScrapers(scrapers ...Scraper) *Registry {
	m := make(map[string]Scraper, len(scrapers))
	for _, s := range scrapers {
		m[s.Source()] = s
	}
	return &Registry{scrapers: m}
}

// Lookup returns the adapter for a source tag.
func (r *Registry) Lookup(tag string) (Scraper, bool) {
	s, ok := r.scrapers[strings.ToLower(tag)]
	return s, ok
}

// Sources returns the registered source tags, sorted.
func (r *Registry) Sources() []string {
	tags := make([]string, 0, len(r.scrapers))
	for tag := range r.scrapers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9-]`)

// Slug normalizes a subject name into a URL slug: lowercase,
// spaces and underscores to hyphens, everything else stripped.
func Slug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slugStripRe.ReplaceAllString(slug, "")
}
