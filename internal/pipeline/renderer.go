package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkravets/revscout/internal/model"
)

// WriteJSON serializes the record list to path as a pretty-printed
// JSON array, one object per record.
func WriteJSON(reviews []model.Review, path string) error {
	data, err := json.MarshalIndent(reviews, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reviews: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints a short human-readable digest of the run: the
// record count and a sample record.
func RenderSummary(w io.Writer, reviews []model.Review, path string) {
	fmt.Fprintf(w, "Obtained %d reviews, saved to %s\n", len(reviews), path)

	if len(reviews) == 0 {
		return
	}

	sample := reviews[0]
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample review:")
	fmt.Fprintf(w, "  Title:  %s\n", sample.Title)
	if sample.Rating != nil {
		fmt.Fprintf(w, "  Rating: %.2f\n", *sample.Rating)
	}
	fmt.Fprintf(w, "  Source: %s\n", sample.Source)

	desc := sample.Description
	if len(desc) > 100 {
		desc = desc[:100] + "..."
	}
	fmt.Fprintf(w, "  Description: %s\n", desc)
}
