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

const g2BaseURL = "https://www.g2.com"

var (
	g2ContainerChain = []string{
		`div[data-testid*="review"]`,
		`div[class*="review"]`,
		`article[class*="review"]`,
		`section[class*="review"]`,
		`.paper--white-paper`,
		`[data-qa="review"]`,
	}
	g2TitleChain    = []string{`h3`, `h4`, `[data-qa="review-title"]`, `.review-title`, `strong`}
	g2BodyChain     = []string{`[data-qa="review-text"]`, `.review-text`, `div[class*="description"]`, `p`, `div[class*="content"]`}
	g2DateChain     = []string{`time`, `[data-qa="review-date"]`, `.review-date`, `span[class*="date"]`}
	g2RatingChain   = []string{`.stars`, `[class*="rating"]`, `[class*="star"]`}
	g2ReviewerChain = []string{`.reviewer-name`, `[class*="author"]`, `[class*="reviewer"]`}
)

// G2 scrapes product reviews from g2.com.
type G2 struct {
	htmlSite
}

// NewG2 creates the G2 adapter.
func NewG2(session *fetch.Session, cfg *model.Config) *G2 {
	g := &G2{
		htmlSite: htmlSite{
			session:        session,
			cfg:            cfg,
			source:         "g2",
			containerChain: g2ContainerChain,
		},
	}
	g.pageURLs = g2PageURLs
	g.validPage = g2ValidPage
	g.parseItem = parseG2Review
	return g
}

// Source implements Scraper.
func (g *G2) Source() string { return "g2" }

// LocateSubject implements Scraper by trying G2's common product URL
// patterns for the subject name.
func (g *G2) LocateSubject(ctx context.Context, name string) (*Target, error) {
	slug := Slug(name)
	candidates := []string{
		fmt.Sprintf("%s/products/%s/reviews", g2BaseURL, slug),
		fmt.Sprintf("%s/products/%s-reviews/reviews", g2BaseURL, slug),
		fmt.Sprintf("%s/products/%s/reviews", g2BaseURL, strings.ReplaceAll(strings.ToLower(name), " ", "")),
	}
	return g.probe(ctx, candidates)
}

// Collect implements Scraper.
func (g *G2) Collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error) {
	return g.collect(ctx, target, start, end)
}

func g2PageURLs(base string, page int) []string {
	return []string{
		fmt.Sprintf("%s?page=%d", base, page),
		fmt.Sprintf("%s?page=%d&sort=recency", base, page),
		fmt.Sprintf("%s?page=%d", strings.Replace(base, "/reviews", "", 1), page),
	}
}

// g2ValidPage checks for review-indicating markup signals.
func g2ValidPage(doc *goquery.Document) bool {
	if doc.Find(`div[class*="review"], section[class*="review"], div[data-testid*="review"]`).Length() > 0 {
		return true
	}
	valid := false
	doc.Find("h1").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(sel.Text()), "review") {
			valid = true
			return false
		}
		return true
	})
	return valid
}

func parseG2Review(sel *goquery.Selection) (Item, bool) {
	title := firstText(sel, g2TitleChain)
	body := firstText(sel, g2BodyChain)
	date := firstDateText(sel, g2DateChain)

	// A container with none of the core fields is not a review.
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

	author := firstText(sel, g2ReviewerChain)
	if author == "" {
		author = "Anonymous"
	}

	return Item{
		Title:  title,
		Body:   body,
		Date:   date,
		Rating: firstRating(sel, g2RatingChain),
		Author: author,
	}, true
}
