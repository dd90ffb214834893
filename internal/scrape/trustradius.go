package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
)

const trustRadiusBaseURL = "https://www.trustradius.com"

var (
	trContainerChain = []string{
		`div[class*="review"]`,
		`article[class*="review"]`,
		`[data-testid*="review"]`,
	}
	trTitleChain       = []string{`h3`, `h4`, `[class*="review-title"]`, `[class*="heading"]`}
	trBodyChain        = []string{`[class*="review-body"]`, `[class*="answer"]`, `p`}
	trDateChain        = []string{`time`, `[class*="date"]`}
	trRatingChain      = []string{`[class*="rating"]`, `[class*="score"]`, `[class*="star"]`}
	trReviewerChain    = []string{`[class*="reviewer"]`, `[class*="author"]`, `[class*="name"]`}
	trAuthorTitleChain = []string{`[class*="job-title"]`, `[class*="role"]`, `[class*="position"]`}
	trCompanySizeChain = []string{`[class*="company-size"]`, `[class*="employees"]`}
	trProsChain        = []string{`[class*="pros"]`, `[data-testid*="pros"]`}
	trConsChain        = []string{`[class*="cons"]`, `[data-testid*="cons"]`}
)

// TrustRadius scrapes product reviews from trustradius.com. TrustRadius
// reviews carry richer metadata than the other HTML sources: reviewer
// role, company size, pros/cons, and a verified badge.
type TrustRadius struct {
	htmlSite
}

// NewTrustRadius creates the TrustRadius adapter.
func NewTrustRadius(session *fetch.Session, cfg *model.Config) *TrustRadius {
	t := &TrustRadius{
		htmlSite: htmlSite{
			session:        session,
			cfg:            cfg,
			source:         "trustradius",
			containerChain: trContainerChain,
		},
	}
	t.pageURLs = trustRadiusPageURLs
	t.validPage = trustRadiusValidPage
	t.parseItem = parseTrustRadiusReview
	return t
}

// Source implements Scraper.
func (t *TrustRadius) Source() string { return "trustradius" }

// LocateSubject implements Scraper.
func (t *TrustRadius) LocateSubject(ctx context.Context, name string) (*Target, error) {
	slug := Slug(name)
	candidates := []string{
		fmt.Sprintf("%s/products/%s/reviews", trustRadiusBaseURL, slug),
		fmt.Sprintf("%s/products/%s", trustRadiusBaseURL, slug),
	}
	return t.probe(ctx, candidates)
}

// Collect implements Scraper.
func (t *TrustRadius) Collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error) {
	return t.collect(ctx, target, start, end)
}

func trustRadiusPageURLs(base string, page int) []string {
	return []string{
		fmt.Sprintf("%s?page=%d", base, page),
		fmt.Sprintf("%s?f=%d", base, page),
	}
}

func trustRadiusValidPage(doc *goquery.Document) bool {
	return strings.Contains(strings.ToLower(doc.Text()), "review")
}

func parseTrustRadiusReview(sel *goquery.Selection) (Item, bool) {
	title := firstText(sel, trTitleChain)
	body := firstText(sel, trBodyChain)
	date := firstDateText(sel, trDateChain)

	if title == "" && body == "" && date == "" {
		return Item{}, false
	}

	if title == "" {
		title = "No title"
	}
	if body == "" {
		body = "No description"
	}
	if date == "" {
		date = time.Now().Format("January 2, 2006")
	}

	author := firstText(sel, trReviewerChain)
	if author == "" {
		author = "Anonymous"
	}

	return Item{
		Title:       title,
		Body:        body,
		Date:        date,
		Rating:      firstRating(sel, trRatingChain),
		Author:      author,
		AuthorTitle: firstText(sel, trAuthorTitleChain),
		CompanySize: firstText(sel, trCompanySizeChain),
		Pros:        firstText(sel, trProsChain),
		Cons:        firstText(sel, trConsChain),
		Verified:    sel.Find(`[class*="verified"]`).Length() > 0,
	}, true
}
