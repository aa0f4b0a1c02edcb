// internal/models/intent.go
package models

// Intent is the routed category of a user message.
type Intent string

const (
	IntentReturnSubmission Intent = "RETURN_SUBMISSION"
	IntentDataAnalysis     Intent = "DATA_ANALYSIS"
	IntentReportGeneration Intent = "REPORT_GENERATION"
	IntentGreeting         Intent = "GREETING"
	IntentUnknown          Intent = "UNKNOWN"
)

// Slot names used across classification, extraction and the draft record.
const (
	SlotProductName      = "product_name"
	SlotPurchaseLocation = "purchase_location"
	SlotPurchasePrice    = "purchase_price"
	SlotReturnReason     = "return_reason"
	SlotDiscountPercent  = "discount_percent"
	SlotOriginalPrice    = "original_price"
	SlotTimeWindow       = "time_window_days"
)

// Classification is the outcome of running a message through the intent
// rule table plus slot extraction.
type Classification struct {
	Intent     Intent          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Slots      []SlotCandidate `json:"slots,omitempty"`
}

// SlotCandidate is one extracted slot value before normalization is
// applied by the slot-filling machine.
type SlotCandidate struct {
	Slot string `json:"slot"`
	// Raw is the matched span exactly as it appeared in the message.
	Raw string `json:"raw"`
	// Text holds the normalized value for textual slots.
	Text string `json:"text,omitempty"`
	// Number holds the normalized value for the price slot.
	Number float64 `json:"number,omitempty"`
}
