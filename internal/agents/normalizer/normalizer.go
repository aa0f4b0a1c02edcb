// internal/agents/normalizer/normalizer.go
package normalizer

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Price is the outcome of normalizing a price mention. When a discount
// phrase accompanies the amount, OriginalPrice holds the pre-discount
// value computed as amount / (1 - discount/100); otherwise it equals
// Amount and DiscountPercent is zero.
type Price struct {
	Amount          float64
	OriginalPrice   float64
	DiscountPercent float64
	CurrencyHint    string
}

// NormalizePrice extracts the first numeric token from text. The second
// return value is false when no number is present.
func NormalizePrice(text string) (Price, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return Price{}, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || amount <= 0 {
		return Price{}, false
	}

	p := Price{
		Amount:        amount,
		OriginalPrice: amount,
		CurrencyHint:  currencyHint(text),
	}

	if dm := discountPattern.FindStringSubmatch(strings.ToLower(text)); dm != nil {
		discount, err := strconv.ParseFloat(dm[1], 64)
		if err == nil && discount > 0 && discount < 100 {
			p.DiscountPercent = discount
			p.OriginalPrice = roundCents(amount / (1 - discount/100))
		}
	}

	return p, true
}

func currencyHint(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "ntd") || strings.Contains(lower, "nt$"):
		return "NTD"
	case strings.Contains(lower, "usd") || strings.Contains(lower, "$") || strings.Contains(lower, "dollar"):
		return "USD"
	}
	return ""
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// NormalizeLocation maps free text to a canonical store name via the
// alias table. Unmatched input is title-cased and passed through.
func NormalizeLocation(text string) string {
	cleaned := cleanText(leadingPrepos.ReplaceAllString(text, ""))
	if cleaned == "" {
		return ""
	}

	lower := strings.ToLower(cleaned)
	for _, rule := range locationRules {
		if strings.Contains(lower, rule.match) {
			return rule.canonical
		}
	}

	return titleCaser.String(lower)
}

// NormalizeProduct drops filler words and title-cases what remains,
// fixing known brand spellings. It never invents a product: empty input
// stays empty.
func NormalizeProduct(text string) string {
	cleaned := cleanText(text)
	if cleaned == "" {
		return ""
	}

	words := strings.Fields(strings.ToLower(cleaned))
	kept := words[:0]
	for _, w := range words {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	result := titleCaser.String(strings.Join(kept, " "))
	for _, sp := range productSpellings {
		result = sp.pattern.ReplaceAllString(result, sp.replacement)
	}
	return result
}

// NormalizeReason maps free text to a canonical return reason, first
// matching rule wins. Text matching no rule is kept verbatim after
// whitespace cleanup.
func NormalizeReason(text string) string {
	cleaned := cleanText(text)
	if cleaned == "" {
		return ""
	}

	lower := strings.ToLower(cleaned)
	for _, rule := range reasonRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.canonical
		}
	}

	return cleaned
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}
