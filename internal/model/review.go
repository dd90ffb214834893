package model

// Review is the common feedback record produced by every source.
// Field names in the JSON artifact are stable; downstream consumers
// key on them.
type Review struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// Date is the raw date text as presented by the source, normalized
	// to YYYY-MM-DD whenever the date parser can resolve it.
	Date string `json:"date"`

	// Rating is in [0, 5] when present. Absent means the source exposed
	// no scalar rating and none could be derived.
	Rating *float64 `json:"rating"`

	ReviewerName  string `json:"reviewer_name,omitempty"`
	ReviewerTitle string `json:"reviewer_title,omitempty"`
	CompanySize   string `json:"company_size,omitempty"`

	// Source identifies the adapter that produced the record,
	// e.g. "G2", "CAPTERRA", "TRUSTRADIUS", "GITHUB".
	Source string `json:"source"`

	// Type further classifies GitHub records: "issue" or "pr_comment".
	// HTML review sites leave it empty ("review" is implied).
	Type string `json:"type,omitempty"`

	Verified bool   `json:"verified"`
	Pros     string `json:"pros,omitempty"`
	Cons     string `json:"cons,omitempty"`
	URL      string `json:"url,omitempty"`

	// Source-specific extras, populated by the GitHub adapter.
	State     string         `json:"state,omitempty"`
	Labels    []string       `json:"labels,omitempty"`
	Reactions map[string]int `json:"reactions,omitempty"`
}

// Float returns a pointer to v, for optional rating fields.
func Float(v float64) *float64 {
	return &v
}
