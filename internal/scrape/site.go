package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pkravets/revscout/internal/dates"
	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
)

// htmlSite is the shared machinery behind the HTML adapters: URL-pattern
// discovery, candidate page-URL pagination, and the date-bounded walk.
// Each adapter supplies its own URL shapes, validity check, container
// chain, and per-item parser.
type htmlSite struct {
	session *fetch.Session
	cfg     *model.Config
	source  string

	// pageURLs returns the candidate URL shapes for a page number,
	// tried in order until one yields review containers.
	pageURLs func(base string, page int) []string

	containerChain []string
	validPage      func(doc *goquery.Document) bool
	parseItem      func(sel *goquery.Selection) (Item, bool)
}

// probe fetches candidate URLs in order and returns the first one that
// passes the site's validity check. Fetch faults on individual
// candidates are logged and skipped.
func (h *htmlSite) probe(ctx context.Context, candidates []string) (*Target, error) {
	for _, candidate := range candidates {
		slog.Debug("trying candidate URL", "source", h.source, "url", candidate)
		doc, err := h.session.Fetch(ctx, candidate, nil)
		if err != nil {
			slog.Debug("candidate fetch failed", "source", h.source, "url", candidate, "error", err)
			continue
		}
		if h.validPage(doc) {
			slog.Info("found subject page", "source", h.source, "url", candidate)
			return &Target{URL: candidate, Valid: true}, nil
		}
	}
	return nil, ErrNotFound
}

// collect walks result pages starting at page 1 and extracts every item
// inside [start, end].
//
// Stopping conditions: an item older than start (sources list items in
// descending date order, so later pages are assumed strictly older), a
// page with no usable items, a fetch fault (treated as end of data),
// or the page-count safety bound.
func (h *htmlSite) collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error) {
	var items []Item

	for page := 1; page <= h.cfg.Scrape.MaxPages; page++ {
		doc := h.fetchPage(ctx, target.URL, page)
		if doc == nil {
			slog.Info("no more pages", "source", h.source, "page", page)
			break
		}

		containers := findContainers(doc, h.containerChain)
		if containers.Length() == 0 {
			slog.Info("no review containers on page", "source", h.source, "page", page)
			break
		}

		pageItems := 0
		stop := false
		containers.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			item, ok := h.parseItem(sel)
			if !ok {
				return true
			}

			itemDate, ok := dates.Parse(item.Date)
			if !ok {
				// Unparseable dates can't be window-checked; exclude
				// the item, keep the page.
				slog.Warn("could not parse date", "source", h.source, "date", item.Date)
				return true
			}
			if itemDate.Before(start) {
				stop = true
				return false
			}
			if itemDate.After(end) {
				// Too new; may be interleaved with in-range items near
				// the boundary, keep walking.
				return true
			}

			items = append(items, item)
			pageItems++
			return true
		})

		slog.Info("scraped page", "source", h.source, "page", page, "items", pageItems)

		if stop {
			slog.Info("reached items before start date, stopping", "source", h.source)
			break
		}
		if pageItems == 0 {
			break
		}
	}

	return items, nil
}

// fetchPage tries the candidate URL shapes for a page number and returns
// the first document carrying review containers, or nil when none does.
func (h *htmlSite) fetchPage(ctx context.Context, base string, page int) *goquery.Document {
	for _, pageURL := range h.pageURLs(base, page) {
		doc, err := h.session.Fetch(ctx, pageURL, nil)
		if err != nil {
			slog.Debug("page fetch failed", "source", h.source, "url", pageURL, "error", err)
			continue
		}
		if findContainers(doc, h.containerChain).Length() > 0 {
			return doc
		}
	}
	return nil
}
