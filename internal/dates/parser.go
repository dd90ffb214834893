// Package dates resolves the free-form date text found on review sites
// into calendar dates. Sites present dates in incompatible, undocumented,
// and evolving formats, so parsing is heuristic and degrades gracefully
// instead of failing extraction.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// layouts is tried in order; the first match wins. Ambiguous numeric
// dates resolve month-first, matching the dominant format on the
// supported sources.
var layouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"2006-01-02",
	"02/01/2006",
	"January 2006",
	"Jan 2006",
	"2006-01",
}

var (
	noiseRe = regexp.MustCompile(`[^\w\s,/-]`)
	yearRe  = regexp.MustCompile(`\b(20\d{2})\b`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// Parse resolves date text to a point in time. The second return value
// is false when no known format matches and no four-digit year in the
// 2000s can be extracted.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Strip punctuation noise, collapse whitespace.
	s = noiseRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(wsRe.ReplaceAllString(s, " "))

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Last resort: a bare year resolves to January 1st.
	if m := yearRe.FindStringSubmatch(s); m != nil {
		year, err := strconv.Atoi(m[1])
		if err == nil {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	return time.Time{}, false
}

// Normalize reformats date text to YYYY-MM-DD when parseable, otherwise
// returns the input unchanged.
func Normalize(s string) string {
	if t, ok := Parse(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
