// internal/agents/slotfill/questions.go
package slotfill

import (
	"fmt"
	"strings"

	"returns-insights/internal/models"
)

// slotQuestions are the canned prompts for each missing required slot,
// asked in models.RequiredSlots order.
var slotQuestions = map[string]string{
	models.SlotProductName:      "What product would you like to return?",
	models.SlotPurchaseLocation: "Where did you purchase it? For example, Online Store or a retail store.",
	models.SlotPurchasePrice:    "How much did you pay for it?",
	models.SlotReturnReason:     "What's the reason for the return?",
}

// buildConfirmation restates every filled field of the finalized record
// so the user can verify the submission. The wording is deterministic
// for a given record.
func buildConfirmation(rec models.ReturnRecord) string {
	var b strings.Builder
	b.WriteString("Your return request has been submitted. ")
	fmt.Fprintf(&b, "Product: %s. ", rec.ProductName)
	fmt.Fprintf(&b, "Purchase location: %s. ", rec.PurchaseLocation)
	fmt.Fprintf(&b, "Purchase price: $%.2f. ", rec.PurchasePrice)
	if rec.DiscountPercent > 0 {
		fmt.Fprintf(&b, "Original price: $%.2f (%.0f%% discount applied). ", rec.OriginalPrice, rec.DiscountPercent)
	}
	fmt.Fprintf(&b, "Reason: %s. ", rec.ReturnReason)
	if rec.WarrantyStatus != "" {
		fmt.Fprintf(&b, "Warranty status: %s. ", rec.WarrantyStatus)
	}
	fmt.Fprintf(&b, "Reference id: %s.", rec.ID)
	return b.String()
}

// questionFor returns the prompt for the first missing slot.
func questionFor(slot string) string {
	if q, ok := slotQuestions[slot]; ok {
		return q
	}
	return "Could you tell me more about the item you want to return?"
}
