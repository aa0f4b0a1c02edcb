// internal/models/return_record.go
package models

import "time"

// ReturnRecord is a finalized product return persisted to storage.
// OriginalPrice and DiscountPercent are derived once at extraction time
// and never recomputed afterwards.
type ReturnRecord struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id,omitempty"`
	CustomerID       string     `json:"customer_id,omitempty"`
	ProductName      string     `json:"product_name"`
	Category         string     `json:"category,omitempty"`
	Brand            string     `json:"brand,omitempty"`
	PurchaseLocation string     `json:"purchase_location"`
	PurchasePrice    float64    `json:"purchase_price"`
	OriginalPrice    float64    `json:"original_price,omitempty"`
	DiscountPercent  float64    `json:"discount_percent,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	ReturnReason     string     `json:"return_reason"`
	WarrantyStatus   string     `json:"warranty_status,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ReturnDraft is a partially collected return. Nil fields have not been
// provided yet; a slot written once is never overwritten by later turns.
type ReturnDraft struct {
	ProductName      *string    `json:"product_name,omitempty"`
	PurchaseLocation *string    `json:"purchase_location,omitempty"`
	PurchasePrice    *float64   `json:"purchase_price,omitempty"`
	ReturnReason     *string    `json:"return_reason,omitempty"`
	OriginalPrice    *float64   `json:"original_price,omitempty"`
	DiscountPercent  *float64   `json:"discount_percent,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
}

// RequiredSlots lists the draft slots in the order the conversation asks
// for them.
var RequiredSlots = []string{
	SlotProductName,
	SlotPurchaseLocation,
	SlotPurchasePrice,
	SlotReturnReason,
}

// Has reports whether the named required slot is already filled.
func (d *ReturnDraft) Has(slot string) bool {
	switch slot {
	case SlotProductName:
		return d.ProductName != nil
	case SlotPurchaseLocation:
		return d.PurchaseLocation != nil
	case SlotPurchasePrice:
		return d.PurchasePrice != nil
	case SlotReturnReason:
		return d.ReturnReason != nil
	}
	return false
}

// MissingSlots returns the unfilled required slots in ask order.
func (d *ReturnDraft) MissingSlots() []string {
	var missing []string
	for _, slot := range RequiredSlots {
		if !d.Has(slot) {
			missing = append(missing, slot)
		}
	}
	return missing
}

// IsComplete reports whether every required slot is filled and valid.
// Strings must be non-empty and the price positive.
func (d *ReturnDraft) IsComplete() bool {
	if d.ProductName == nil || *d.ProductName == "" {
		return false
	}
	if d.PurchaseLocation == nil || *d.PurchaseLocation == "" {
		return false
	}
	if d.PurchasePrice == nil || *d.PurchasePrice <= 0 {
		return false
	}
	if d.ReturnReason == nil || *d.ReturnReason == "" {
		return false
	}
	return true
}

// ToRecord materializes the draft as a record. The caller must check
// IsComplete first; zero values stand in for any missing slot.
func (d *ReturnDraft) ToRecord(id, sessionID string, now time.Time) ReturnRecord {
	rec := ReturnRecord{
		ID:        id,
		SessionID: sessionID,
		CreatedAt: now,
	}
	if d.ProductName != nil {
		rec.ProductName = *d.ProductName
	}
	if d.PurchaseLocation != nil {
		rec.PurchaseLocation = *d.PurchaseLocation
	}
	if d.PurchasePrice != nil {
		rec.PurchasePrice = *d.PurchasePrice
	}
	if d.ReturnReason != nil {
		rec.ReturnReason = *d.ReturnReason
	}
	if d.OriginalPrice != nil {
		rec.OriginalPrice = *d.OriginalPrice
	}
	if d.DiscountPercent != nil {
		rec.DiscountPercent = *d.DiscountPercent
	}
	if d.PurchaseDate != nil {
		t := *d.PurchaseDate
		rec.PurchaseDate = &t
	}
	return rec
}
