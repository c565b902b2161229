package agent

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxTags = 5

// tagVocabulary is matched in order; the first maxTags hits win.
var tagVocabulary = []string{
	"local", "city", "downtown", "neighborhood", "community",
	"breaking", "alert", "update", "report", "announcement",
	"weather", "storm", "rain", "hurricane", "flood", "sunshine",
	"business", "economy", "jobs", "employment", "market", "growth",
	"politics", "government", "election", "council", "mayor", "policy",
	"sports", "game", "team", "championship", "season", "player",
	"health", "medical", "hospital", "treatment", "vaccine", "wellness",
	"education", "school", "university", "student", "teacher", "learning",
	"technology", "tech", "digital", "innovation", "startup", "app",
	"crime", "police", "arrest", "investigation", "safety", "security",
	"traffic", "road", "construction", "transportation", "public transit",
	"event", "festival", "concert", "celebration", "cultural", "arts",
}

var defaultTags = []string{"general", "local"}

// extractTags returns vocabulary words found in text as substrings.
func extractTags(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, kw := range tagVocabulary {
		if strings.Contains(lower, kw) {
			tags = append(tags, kw)
			if len(tags) == maxTags {
				break
			}
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), defaultTags...)
	}
	return tags
}

// stripHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
