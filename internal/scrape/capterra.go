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

const capterraBaseURL = "https://www.capterra.com"

var (
	capterraContainerChain = []string{
		`div[class*="review"]`,
		`[data-testid*="review"]`,
		`article[class*="review"]`,
	}
	capterraTitleChain    = []string{`h3`, `h4`, `h5`, `[class*="review-title"]`, `q`}
	capterraBodyChain     = []string{`[class*="comment"]`, `[class*="review-text"]`, `p`}
	capterraDateChain     = []string{`time`, `[class*="date"]`, `span[class*="posted"]`}
	capterraRatingChain   = []string{`[class*="rating"]`, `[class*="star"]`}
	capterraReviewerChain = []string{`[class*="reviewer"]`, `[class*="author"]`, `[class*="name"]`}
)

// Capterra scrapes product reviews from capterra.com.
type Capterra struct {
	htmlSite
}

// NewCapterra creates the Capterra adapter.
func NewCapterra(session *fetch.Session, cfg *model.Config) *Capterra {
	c := &Capterra{
		htmlSite: htmlSite{
			session:        session,
			cfg:            cfg,
			source:         "capterra",
			containerChain: capterraContainerChain,
		},
	}
	c.pageURLs = capterraPageURLs
	c.validPage = capterraValidPage
	c.parseItem = parseCapterraReview
	return c
}

// Source implements Scraper.
func (c *Capterra) Source() string { return "capterra" }

// LocateSubject implements Scraper.
func (c *Capterra) LocateSubject(ctx context.Context, name string) (*Target, error) {
	slug := Slug(name)
	candidates := []string{
		fmt.Sprintf("%s/p/%s/reviews", capterraBaseURL, slug),
		fmt.Sprintf("%s/p/%s/", capterraBaseURL, slug),
		fmt.Sprintf("%s/p/%s/reviews", capterraBaseURL, strings.ReplaceAll(strings.ToLower(name), " ", "-")),
	}
	return c.probe(ctx, candidates)
}

// Collect implements Scraper.
func (c *Capterra) Collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error) {
	return c.collect(ctx, target, start, end)
}

func capterraPageURLs(base string, page int) []string {
	return []string{
		fmt.Sprintf("%s?page=%d", base, page),
		fmt.Sprintf("%s?page=%d&sort=most_recent", base, page),
	}
}

// capterraValidPage accepts any page mentioning reviews; Capterra
// product pages carry no stable structural marker.
func capterraValidPage(doc *goquery.Document) bool {
	return strings.Contains(strings.ToLower(doc.Text()), "review")
}

func parseCapterraReview(sel *goquery.Selection) (Item, bool) {
	title := firstText(sel, capterraTitleChain)
	body := firstText(sel, capterraBodyChain)
	date := firstDateText(sel, capterraDateChain)

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

	author := firstText(sel, capterraReviewerChain)
	if author == "" {
		author = "Anonymous"
	}

	return Item{
		Title:  title,
		Body:   body,
		Date:   date,
		Rating: firstRating(sel, capterraRatingChain),
		Author: author,
	}, true
}
