// internal/agents/retrieval/search.go
package retrieval

import (
	"sort"
	"strings"

	"returns-insights/internal/models"
)

// DefaultTopK bounds result sets when the caller does not say otherwise.
const DefaultTopK = 5

// Result pairs a corpus record with its lexical relevance score.
type Result struct {
	Record models.ReturnRecord `json:"record"`
	Score  int                 `json:"score"`
}

// Search ranks corpus records against the query by lexical overlap:
// each query token found as a substring of the product name counts 2,
// each found in the return reason counts 1. Zero-score records are
// dropped, ties keep corpus order, and the first topK survivors are
// returned. Pure and deterministic, safe to call concurrently.
func Search(query string, corpus []models.ReturnRecord, topK int) []Result {
	if topK <= 0 {
		topK = DefaultTopK
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil
	}

	var results []Result
	for _, rec := range corpus {
		if score := scoreRecord(tokens, rec); score > 0 {
			results = append(results, Result{Record: rec, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func scoreRecord(tokens []string, rec models.ReturnRecord) int {
	product := strings.ToLower(rec.ProductName)
	reason := strings.ToLower(rec.ReturnReason)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(product, tok) {
			score += 2
		}
		if strings.Contains(reason, tok) {
			score++
		}
	}
	return score
}
