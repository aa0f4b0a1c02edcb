// internal/agents/classifier/classifier.go
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"returns-insights/internal/agents/normalizer"
	"returns-insights/internal/common/config"
	"returns-insights/internal/models"
)

var wordCharPattern = regexp.MustCompile(`[a-z0-9]`)

// Context carries the session facts the classifier needs to boost a
// short follow-up answer over a fresh request.
type Context struct {
	HasOpenDraft bool
	LastIntent   models.Intent
}

// Classifier maps one utterance plus session context to an intent with
// a confidence score and extracted slot candidates. It is stateless and
// safe for concurrent use.
type Classifier struct {
	cfg config.ClassifierConfig
}

func New(cfg config.ClassifierConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify runs the ordered intent rules against the lower-cased
// utterance, first match wins. When a return draft is open, a matching
// return utterance gets the context boost, and an unmatched short
// utterance is treated as an answer to the pending question instead of
// a fresh request.
func (c *Classifier) Classify(utterance string, sctx Context) models.Classification {
	trimmed := strings.TrimSpace(utterance)
	lower := strings.ToLower(trimmed)

	if !wordCharPattern.MatchString(lower) {
		return models.Classification{Intent: models.IntentUnknown, Confidence: 0}
	}

	slots := ExtractSlots(trimmed)

	for _, rule := range intentRules {
		if rule.pattern.MatchString(lower) {
			confidence := rule.confidence
			if rule.intent == models.IntentReturnSubmission && sctx.HasOpenDraft {
				confidence = clamp01(confidence + c.cfg.ContextBoost)
			}
			return models.Classification{Intent: rule.intent, Confidence: confidence, Slots: slots}
		}
	}

	if sctx.HasOpenDraft && wordCount(trimmed) <= c.cfg.ShortAnswerMaxWords {
		return models.Classification{
			Intent:     models.IntentReturnSubmission,
			Confidence: clamp01(0.5 + c.cfg.ContextBoost),
			Slots:      slots,
		}
	}

	return models.Classification{Intent: models.IntentUnknown, Confidence: 0, Slots: slots}
}

// IsAmbiguous reports whether the classification is too weak to act on
// and the caller should ask a clarifying question instead.
func (c *Classifier) IsAmbiguous(cl models.Classification) bool {
	return cl.Intent == models.IntentUnknown || cl.Confidence < c.cfg.AmbiguityThreshold
}

// ExtractSlots runs the slot pattern table against the raw utterance.
// A single utterance can populate several slots at once.
func ExtractSlots(utterance string) []models.SlotCandidate {
	var slots []models.SlotCandidate

	slots = append(slots, extractPrice(utterance)...)

	if loc := extractLocation(utterance); loc != nil {
		slots = append(slots, *loc)
	}

	if m := productPattern.FindString(utterance); m != "" {
		if name := normalizer.NormalizeProduct(m); name != "" {
			slots = append(slots, models.SlotCandidate{
				Slot: models.SlotProductName,
				Raw:  m,
				Text: name,
			})
		}
	}

	if cue := reasonCuePattern.FindString(utterance); cue != "" {
		slots = append(slots, models.SlotCandidate{
			Slot: models.SlotReturnReason,
			Raw:  cue,
			Text: normalizer.NormalizeReason(utterance),
		})
	}

	if m := timeWindowPattern.FindStringSubmatch(utterance); m != nil {
		if days := parseTimeWindow(m[1], m[2]); days > 0 {
			slots = append(slots, models.SlotCandidate{
				Slot:   models.SlotTimeWindow,
				Raw:    m[0],
				Number: float64(days),
			})
		}
	}

	return slots
}

func extractPrice(utterance string) []models.SlotCandidate {
	loc := dollarAmountPattern.FindStringSubmatchIndex(utterance)
	if loc == nil {
		loc = currencyAmountPattern.FindStringSubmatchIndex(utterance)
	}
	if loc == nil {
		return nil
	}

	// Normalize from the amount onwards so a product number like
	// "iPhone 13" earlier in the sentence is not read as the price.
	price, ok := normalizer.NormalizePrice(utterance[loc[2]:])
	if !ok {
		return nil
	}

	raw := utterance[loc[0]:loc[1]]
	slots := []models.SlotCandidate{{
		Slot:   models.SlotPurchasePrice,
		Raw:    raw,
		Number: price.Amount,
	}}
	if price.DiscountPercent > 0 {
		slots = append(slots,
			models.SlotCandidate{Slot: models.SlotOriginalPrice, Raw: raw, Number: price.OriginalPrice},
			models.SlotCandidate{Slot: models.SlotDiscountPercent, Raw: raw, Number: price.DiscountPercent},
		)
	}
	return slots
}

func extractLocation(utterance string) *models.SlotCandidate {
	if m := storePhrasePattern.FindStringSubmatch(utterance); m != nil {
		return &models.SlotCandidate{
			Slot: models.SlotPurchaseLocation,
			Raw:  m[1],
			Text: normalizer.NormalizeLocation(m[1]),
		}
	}
	if m := marketplacePattern.FindString(utterance); m != "" {
		return &models.SlotCandidate{
			Slot: models.SlotPurchaseLocation,
			Raw:  m,
			Text: normalizer.NormalizeLocation(m),
		}
	}
	return nil
}

func parseTimeWindow(number, unit string) int {
	n, err := strconv.Atoi(number)
	if err != nil {
		return 0
	}
	return n * timeUnitDays[strings.ToLower(unit)]
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
