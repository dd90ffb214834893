package scrape

import (
	"testing"
	"time"

	"github.com/pkravets/revscout/internal/fetch"
	"github.com/pkravets/revscout/internal/model"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.MinDelay = 0
	cfg.HTTP.MaxDelay = 0
	cfg.HTTP.RequestsPerSecond = 1000
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Cache.Enabled = false
	return cfg
}

func testSession(cfg *model.Config) *fetch.Session {
	return fetch.NewSession(cfg, fetch.Policy{
		UserAgents: []string{"revscout-test/1.0"},
		Delay:      func() time.Duration { return 0 },
	})
}

func TestRegistry_LookupAndSources(t *testing.T) {
	cfg := testConfig()
	registry := NewRegistry(testSession(cfg), cfg, "")

	for _, tag := range []string{"g2", "capterra", "trustradius", "github", "G2", "GitHub"} {
		s, ok := registry.Lookup(tag)
		if !ok {
			t.Errorf("Lookup(%q): expected adapter", tag)
			continue
		}
		if s.Source() == "" {
			t.Errorf("Lookup(%q): empty source tag", tag)
		}
	}

	if _, ok := registry.Lookup("yelp"); ok {
		t.Error("Lookup(yelp): expected no adapter")
	}

	sources := registry.Sources()
	expected := []string{"capterra", "g2", "github", "trustradius"}
	if len(sources) != len(expected) {
		t.Fatalf("Sources() = %v, expected %v", sources, expected)
	}
	for i := range expected {
		if sources[i] != expected[i] {
			t.Errorf("Sources()[%d] = %q, expected %q", i, sources[i], expected[i])
		}
	}
}

func TestSlug(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Acme", "acme"},
		{"Acme Corp", "acme-corp"},
		{"Acme_Corp", "acme-corp"},
		{"Acme.io!", "acmeio"},
		{"Big Data 2000", "big-data-2000"},
	}

	for _, tc := range testCases {
		if got := Slug(tc.input); got != tc.expected {
			t.Errorf("Slug(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}
