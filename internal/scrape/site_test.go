package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewHTML(title, date string) string {
	return fmt.Sprintf(`<div class="review-item">
		<h3>%s</h3>
		<p>Body text for %s</p>
		<time>%s</time>
		<span class="author-name">Reviewer</span>
	</div>`, title, title, date)
}

func pageHTML(reviews ...string) string {
	body := ""
	for _, r := range reviews {
		body += r
	}
	return "<html><body>" + body + "</body></html>"
}

func newTestG2(t *testing.T, handler http.Handler) (*G2, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	return NewG2(testSession(cfg), cfg), srv
}

func window(t *testing.T, start, end string) (time.Time, time.Time) {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	e, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	return s, e
}

func TestCollect_DateWindowAndEarlyTermination(t *testing.T) {
	// Three items in descending date order on one page; the third is
	// older than the window and must stop collection.
	g2, srv := newTestG2(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(pageHTML(
				reviewHTML("first", "June 1, 2024"),
				reviewHTML("second", "May 20, 2024"),
				reviewHTML("too old", "December 15, 2023"),
			)))
			return
		}
		t.Errorf("unexpected request past termination: %s", r.URL)
	}))

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
}

func TestCollect_SkipsItemsAfterEndDate(t *testing.T) {
	g2, srv := newTestG2(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(pageHTML(
				reviewHTML("too new", "March 1, 2025"),
				reviewHTML("in range", "June 1, 2024"),
			)))
			return
		}
		// Page 2 and beyond: no containers ends the walk.
		_, _ = w.Write([]byte("<html><body>nothing here</body></html>"))
	}))

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "in range", items[0].Title)
}

func TestCollect_MultiPage(t *testing.T) {
	g2, srv := newTestG2(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(pageHTML(reviewHTML("page one", "June 1, 2024"))))
		case "2":
			_, _ = w.Write([]byte(pageHTML(reviewHTML("page two", "May 1, 2024"))))
		default:
			_, _ = w.Write([]byte("<html><body></body></html>"))
		}
	}))

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "page one", items[0].Title)
	assert.Equal(t, "page two", items[1].Title)
}

func TestCollect_UnparseableDateSkipsItemOnly(t *testing.T) {
	g2, srv := newTestG2(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(pageHTML(
				reviewHTML("undated", "whenever"),
				reviewHTML("dated", "June 1, 2024"),
			)))
			return
		}
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "dated", items[0].Title)
}

func TestCollect_FetchFaultEndsPagination(t *testing.T) {
	var pages int
	g2, srv := newTestG2(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			pages++
			_, _ = w.Write([]byte(pageHTML(reviewHTML("only", "June 1, 2024"))))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	// The page-2 fault is "no more pages", not an error.
	require.Len(t, items, 1)
	assert.Equal(t, 1, pages)
}

func TestCollect_MaxPagesSafetyBound(t *testing.T) {
	// Every page returns the same in-range review; the walk must stop
	// at the configured bound.
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(pageHTML(reviewHTML("loop", "June 1, 2024"))))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Scrape.MaxPages = 3
	g2 := NewG2(testSession(cfg), cfg)

	start, end := window(t, "2024-01-01", "2024-12-31")
	items, err := g2.Collect(context.Background(), &Target{URL: srv.URL + "/reviews", Valid: true}, start, end)
	require.NoError(t, err)

	assert.Len(t, items, 3)
	assert.Equal(t, 3, requests)
}

func TestProbe_ReturnsFirstValidCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/found", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageHTML(reviewHTML("r", "June 1, 2024"))))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	g2 := NewG2(testSession(cfg), cfg)

	target, err := g2.probe(context.Background(), []string{srv.URL + "/missing", srv.URL + "/found"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/found", target.URL)
	assert.True(t, target.Valid)
}

func TestProbe_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfig()
	g2 := NewG2(testSession(cfg), cfg)

	_, err := g2.probe(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"})
	assert.ErrorIs(t, err, ErrNotFound)
}
