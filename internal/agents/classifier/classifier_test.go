// internal/agents/classifier/classifier_test.go
package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"returns-insights/internal/common/config"
	"returns-insights/internal/models"
)

func newTestClassifier() *Classifier {
	return New(config.ClassifierConfig{
		AmbiguityThreshold:  0.15,
		ContextBoost:        0.3,
		ShortAnswerMaxWords: 6,
	})
}

func TestClassify_IntentRouting(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name      string
		utterance string
		want      models.Intent
		minConf   float64
	}{
		{"explicit return request", "I want to return something", models.IntentReturnSubmission, 0.2},
		{"refund phrasing", "can I get a refund for this", models.IntentReturnSubmission, 0.2},
		{"broken product", "the screen is broken", models.IntentReturnSubmission, 0.2},
		{"count question beats return keyword", "How many cameras were returned?", models.IntentDataAnalysis, 0.5},
		{"trend question", "any trends in returns lately", models.IntentDataAnalysis, 0.5},
		{"report request", "please generate a report", models.IntentReportGeneration, 0.5},
		{"download request", "can I download the excel file", models.IntentReportGeneration, 0.5},
		{"plain greeting", "hello there", models.IntentGreeting, 0.5},
		{"greeting with return wins return", "Hi, I'd like to return my phone", models.IntentReturnSubmission, 0.5},
		{"gibberish", "xyzzy plugh", models.IntentUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := c.Classify(tt.utterance, Context{})
			assert.Equal(t, tt.want, cl.Intent)
			assert.GreaterOrEqual(t, cl.Confidence, tt.minConf)
		})
	}
}

func TestClassify_EmptyAndPunctuation(t *testing.T) {
	c := newTestClassifier()

	for _, utterance := range []string{"", "   ", "?!...", "---"} {
		cl := c.Classify(utterance, Context{})
		assert.Equal(t, models.IntentUnknown, cl.Intent, "utterance: %q", utterance)
		assert.Zero(t, cl.Confidence)
	}
}

func TestClassify_ContextBoost(t *testing.T) {
	c := newTestClassifier()

	base := c.Classify("it's not working", Context{})
	boosted := c.Classify("it's not working", Context{HasOpenDraft: true})

	require.Equal(t, models.IntentReturnSubmission, base.Intent)
	require.Equal(t, models.IntentReturnSubmission, boosted.Intent)
	assert.InDelta(t, base.Confidence+0.3, boosted.Confidence, 1e-9)
}

func TestClassify_ShortAnswerContinuesReturnFlow(t *testing.T) {
	c := newTestClassifier()

	// Mid slot-filling, a bare answer is not a fresh request.
	cl := c.Classify("Online Store", Context{HasOpenDraft: true})
	assert.Equal(t, models.IntentReturnSubmission, cl.Intent)
	assert.GreaterOrEqual(t, cl.Confidence, 0.5)

	// Without an open draft the same utterance stays unknown.
	cl = c.Classify("Blue one please", Context{})
	assert.Equal(t, models.IntentUnknown, cl.Intent)
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier()
	utterance := "Camera bought online for $650, not working properly"

	first := c.Classify(utterance, Context{HasOpenDraft: true})
	second := c.Classify(utterance, Context{HasOpenDraft: true})
	assert.Equal(t, first, second)
}

func TestExtractSlots_MultipleSlotsInOneTurn(t *testing.T) {
	slots := ExtractSlots("Camera bought online for $650, not working properly")

	bySlot := map[string]models.SlotCandidate{}
	for _, s := range slots {
		bySlot[s.Slot] = s
	}

	require.Contains(t, bySlot, models.SlotProductName)
	assert.Equal(t, "Camera", bySlot[models.SlotProductName].Text)

	require.Contains(t, bySlot, models.SlotPurchaseLocation)
	assert.Equal(t, "Online Store", bySlot[models.SlotPurchaseLocation].Text)

	require.Contains(t, bySlot, models.SlotPurchasePrice)
	assert.Equal(t, 650.0, bySlot[models.SlotPurchasePrice].Number)

	require.Contains(t, bySlot, models.SlotReturnReason)
	assert.Equal(t, "Device not functioning properly", bySlot[models.SlotReturnReason].Text)
}

func TestExtractSlots_DiscountDerivesOriginalPrice(t *testing.T) {
	slots := ExtractSlots("I bought it for 3000 NTD after 10% discount")

	bySlot := map[string]models.SlotCandidate{}
	for _, s := range slots {
		bySlot[s.Slot] = s
	}

	require.Contains(t, bySlot, models.SlotPurchasePrice)
	assert.Equal(t, 3000.0, bySlot[models.SlotPurchasePrice].Number)

	require.Contains(t, bySlot, models.SlotOriginalPrice)
	assert.InDelta(t, 3333.33, bySlot[models.SlotOriginalPrice].Number, 0.01)

	require.Contains(t, bySlot, models.SlotDiscountPercent)
	assert.Equal(t, 10.0, bySlot[models.SlotDiscountPercent].Number)
}

func TestExtractSlots_ProductNumberNotMistakenForPrice(t *testing.T) {
	slots := ExtractSlots("my iphone 13 cost $650")

	bySlot := map[string]models.SlotCandidate{}
	for _, s := range slots {
		bySlot[s.Slot] = s
	}

	require.Contains(t, bySlot, models.SlotPurchasePrice)
	assert.Equal(t, 650.0, bySlot[models.SlotPurchasePrice].Number)

	require.Contains(t, bySlot, models.SlotProductName)
	assert.Equal(t, "iPhone 13", bySlot[models.SlotProductName].Text)
}

func TestExtractSlots_StorePhraseLocation(t *testing.T) {
	slots := ExtractSlots("I want to return an Apple TV bought at Taipei 101 Apple store, the usb port is not working")

	bySlot := map[string]models.SlotCandidate{}
	for _, s := range slots {
		bySlot[s.Slot] = s
	}

	require.Contains(t, bySlot, models.SlotPurchaseLocation)
	assert.Equal(t, "Apple Store Taipei 101", bySlot[models.SlotPurchaseLocation].Text)

	require.Contains(t, bySlot, models.SlotReturnReason)
	assert.Equal(t, "USB port not working", bySlot[models.SlotReturnReason].Text)
}

func TestExtractSlots_TimeWindow(t *testing.T) {
	tests := []struct {
		utterance string
		wantDays  float64
	}{
		{"show returns from the past 7 days", 7},
		{"trends over the last 2 weeks", 14},
		{"analysis for the previous 3 months", 90},
	}

	for _, tt := range tests {
		slots := ExtractSlots(tt.utterance)
		var found bool
		for _, s := range slots {
			if s.Slot == models.SlotTimeWindow {
				assert.Equal(t, tt.wantDays, s.Number, "utterance: %s", tt.utterance)
				found = true
			}
		}
		assert.True(t, found, "no time window extracted from %q", tt.utterance)
	}
}
