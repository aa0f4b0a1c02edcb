// internal/agents/analytics/parser.go
package analytics

import (
	"regexp"
	"strings"

	"returns-insights/internal/agents/classifier"
	"returns-insights/internal/common/config"
	"returns-insights/internal/models"
)

var (
	countCuePattern = regexp.MustCompile(`\b(how many|count|number of|total)\b`)
	trendCuePattern = regexp.MustCompile(`\b(trends?|patterns?|over time|frequency|increase|decrease)\b`)
)

// productVocabulary lists the product tokens recognized as filters.
// Matching keeps the raw token from the utterance, plural included.
var productVocabulary = map[string]bool{
	"iphone": true, "ipad": true, "macbook": true, "airpods": true,
	"camera": true, "laptop": true, "phone": true, "tablet": true,
	"headphones": true, "monitor": true, "keyboard": true, "mouse": true,
	"speaker": true, "tv": true, "watch": true,
}

// ParseQuery derives an analytics query from an analysis utterance.
// Without an explicit time phrase, a bare count question looks at
// everything on record while trend and general questions default to the
// recent window.
func ParseQuery(utterance string, cfg config.AnalyticsConfig) models.AnalyticsQuery {
	lower := strings.ToLower(utterance)

	q := models.AnalyticsQuery{QueryType: models.QueryTypeGeneral}
	switch {
	case countCuePattern.MatchString(lower):
		q.QueryType = models.QueryTypeCount
	case trendCuePattern.MatchString(lower):
		q.QueryType = models.QueryTypeTrend
	}

	q.ProductFilter = productFilter(lower)

	for _, s := range classifier.ExtractSlots(utterance) {
		if s.Slot == models.SlotTimeWindow && s.Number > 0 {
			q.TimeWindowDays = int(s.Number)
			break
		}
	}
	if q.TimeWindowDays == 0 {
		if q.QueryType == models.QueryTypeCount {
			q.TimeWindowDays = cfg.CountWindowDays
		} else {
			q.TimeWindowDays = cfg.DefaultWindowDays
		}
	}

	return q
}

func productFilter(lower string) string {
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?")
		if productVocabulary[word] || productVocabulary[strings.TrimSuffix(word, "s")] {
			return word
		}
	}
	return ""
}

// singular trims the plural marker so "cameras" matches stored
// "Camera" records in a substring query.
func singular(token string) string {
	if len(token) > 3 {
		return strings.TrimSuffix(token, "s")
	}
	return token
}
