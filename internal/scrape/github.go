package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
)

const githubAPIBaseURL = "https://api.github.com"

// ErrBadSubject means the subject is not a valid owner/repo identifier.
// This is an input error, not a discovery failure.
var ErrBadSubject = errors.New(`github subject must be "owner/repo"`)

// GitHub collects repository feedback (issues and PR review comments)
// through the REST API. Unlike the HTML adapters it consumes a
// documented, page-number paginated endpoint that lists items in
// descending creation order.
type GitHub struct {
	session *fetch.Session
	cfg     *model.Config
	token   string
	baseURL string
}

// NewGitHub creates the GitHub adapter. The token is optional;
// unauthenticated requests work with a lower rate limit.
func NewGitHub(session *fetch.Session, cfg *model.Config, token string) *GitHub {
	return &GitHub{
		session: session,
		cfg:     cfg,
		token:   token,
		baseURL: githubAPIBaseURL,
	}
}

// Source implements Scraper.
func (g *GitHub) Source() string { return "github" }

type githubRepo struct {
	FullName    string `json:"full_name"`
	Stars       int    `json:"stargazers_count"`
	Description string `json:"description"`
}

type githubUser struct {
	Login string `json:"login"`
}

type githubLabel struct {
	Name string `json:"name"`
}

type githubReactions struct {
	PlusOne  int `json:"+1"`
	MinusOne int `json:"-1"`
	Laugh    int `json:"laugh"`
	Hooray   int `json:"hooray"`
	Confused int `json:"confused"`
	Heart    int `json:"heart"`
	Rocket   int `json:"rocket"`
	Eyes     int `json:"eyes"`
}

type githubIssue struct {
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	User      githubUser      `json:"user"`
	CreatedAt string          `json:"created_at"`
	HTMLURL   string          `json:"html_url"`
	State     string          `json:"state"`
	Labels    []githubLabel   `json:"labels"`
	Reactions githubReactions `json:"reactions"`
}

type githubComment struct {
	Body           string          `json:"body"`
	User           githubUser      `json:"user"`
	CreatedAt      string          `json:"created_at"`
	HTMLURL        string          `json:"html_url"`
	PullRequestURL string          `json:"pull_request_url"`
	Reactions      githubReactions `json:"reactions"`
}

// LocateSubject implements Scraper. The subject must be "owner/repo";
// the repository endpoint doubles as the validity check.
func (g *GitHub) LocateSubject(ctx context.Context, name string) (*Target, error) {
	owner, repo, err := splitRepo(name)
	if err != nil {
		return nil, err
	}

	repoURL := fmt.Sprintf("%s/repos/%s/%s", g.baseURL, owner, repo)

	var info githubRepo
	if err := g.session.FetchJSON(ctx, repoURL, nil, g.headers(), &info); err != nil {
		slog.Debug("repository lookup failed", "repo", name, "error", err)
		return nil, ErrNotFound
	}

	slog.Info("found repository",
		"repo", info.FullName,
		"stars", info.Stars,
		"description", info.Description)

	return &Target{URL: repoURL, Valid: true}, nil
}

// Collect implements Scraper: issues first, then PR review comments,
// both within [start, end].
func (g *GitHub) Collect(ctx context.Context, target *Target, start, end time.Time) ([]Item, error) {
	items := g.collectIssues(ctx, target.URL, start, end)
	items = append(items, g.collectPRComments(ctx, target.URL, start, end)...)
	return items, nil
}

func (g *GitHub) collectIssues(ctx context.Context, repoURL string, start, end time.Time) []Item {
	var items []Item

	for page := 1; page <= g.cfg.Scrape.MaxPages; page++ {
		params := url.Values{
			"state":     {"all"},
			"sort":      {"created"},
			"direction": {"desc"},
			"per_page":  {strconv.Itoa(g.cfg.Scrape.PageSize)},
			"page":      {strconv.Itoa(page)},
		}

		var issues []githubIssue
		if err := g.session.FetchJSON(ctx, repoURL+"/issues", params, g.headers(), &issues); err != nil {
			slog.Warn("issue fetch failed, stopping", "page", page, "error", err)
			break
		}
		if len(issues) == 0 {
			break
		}

		for _, issue := range issues {
			created, ok := parseCreatedAt(issue.CreatedAt)
			if !ok {
				slog.Warn("could not parse issue date", "created_at", issue.CreatedAt)
				continue
			}
			// Descending creation order: everything past this point is
			// strictly older.
			if created.Before(start) {
				return items
			}
			if created.After(end) {
				continue
			}

			labels := make([]string, 0, len(issue.Labels))
			for _, l := range issue.Labels {
				labels = append(labels, l.Name)
			}

			items = append(items, Item{
				Title:     issue.Title,
				Body:      issue.Body,
				Author:    issue.User.Login,
				Date:      created.Format("2006-01-02"),
				Kind:      "issue",
				URL:       issue.HTMLURL,
				State:     issue.State,
				Labels:    labels,
				Reactions: reactionMap(issue.Reactions),
				Rating:    ratingFromReactions(issue.Reactions),
			})
		}
	}

	return items
}

func (g *GitHub) collectPRComments(ctx context.Context, repoURL string, start, end time.Time) []Item {
	var items []Item

	for page := 1; page <= g.cfg.Scrape.MaxPages; page++ {
		params := url.Values{
			"sort":      {"created"},
			"direction": {"desc"},
			"per_page":  {strconv.Itoa(g.cfg.Scrape.PageSize)},
			"page":      {strconv.Itoa(page)},
		}

		var comments []githubComment
		if err := g.session.FetchJSON(ctx, repoURL+"/pulls/comments", params, g.headers(), &comments); err != nil {
			slog.Warn("PR comment fetch failed, stopping", "page", page, "error", err)
			break
		}
		if len(comments) == 0 {
			break
		}

		for _, comment := range comments {
			created, ok := parseCreatedAt(comment.CreatedAt)
			if !ok {
				slog.Warn("could not parse comment date", "created_at", comment.CreatedAt)
				continue
			}
			if created.Before(start) {
				return items
			}
			if created.After(end) {
				continue
			}

			items = append(items, Item{
				Title:     "PR Comment on " + lastSegment(comment.PullRequestURL),
				Body:      comment.Body,
				Author:    comment.User.Login,
				Date:      created.Format("2006-01-02"),
				Kind:      "pr_comment",
				URL:       comment.HTMLURL,
				Reactions: reactionMap(comment.Reactions),
				Rating:    ratingFromReactions(comment.Reactions),
			})
		}
	}

	return items
}

func (g *GitHub) headers() map[string]string {
	h := map[string]string{
		"Accept": "application/vnd.github.v3+json",
	}
	if g.token != "" {
		h["Authorization"] = "token " + g.token
	}
	return h
}

// ratingFromReactions derives a [0, 5] rating from categorical reaction
// counts: positive reactions over total, scaled to 5. With no reactions
// the rating is absent, not zero.
func ratingFromReactions(r githubReactions) *float64 {
	positive := r.PlusOne + r.Heart + r.Hooray
	total := r.PlusOne + r.MinusOne + r.Laugh + r.Hooray + r.Confused + r.Heart + r.Rocket + r.Eyes
	if total == 0 {
		return nil
	}
	rating := float64(positive) / float64(total) * 5
	return &rating
}

func reactionMap(r githubReactions) map[string]int {
	m := map[string]int{}
	for name, count := range map[string]int{
		"+1": r.PlusOne, "-1": r.MinusOne, "laugh": r.Laugh, "hooray": r.Hooray,
		"confused": r.Confused, "heart": r.Heart, "rocket": r.Rocket, "eyes": r.Eyes,
	} {
		if count != 0 {
			m[name] = count
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func parseCreatedAt(s string) (time.Time, bool) {
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func splitRepo(name string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(name), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrBadSubject
	}
	return parts[0], parts[1], nil
}

func lastSegment(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	return parts[len(parts)-1]
}
