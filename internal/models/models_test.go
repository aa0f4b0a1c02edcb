// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestReturnDraft_MissingSlots(t *testing.T) {
	tests := []struct {
		name    string
		draft   ReturnDraft
		missing []string
	}{
		{
			name:    "empty draft misses everything in ask order",
			draft:   ReturnDraft{},
			missing: []string{SlotProductName, SlotPurchaseLocation, SlotPurchasePrice, SlotReturnReason},
		},
		{
			name:    "partial draft misses the rest",
			draft:   ReturnDraft{ProductName: strPtr("iphone 13"), PurchasePrice: f64Ptr(650)},
			missing: []string{SlotPurchaseLocation, SlotReturnReason},
		},
		{
			name: "complete draft misses nothing",
			draft: ReturnDraft{
				ProductName:      strPtr("camera"),
				PurchaseLocation: strPtr("online"),
				PurchasePrice:    f64Ptr(300),
				ReturnReason:     strPtr("defective"),
			},
			missing: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, tt.draft.MissingSlots())
			assert.Equal(t, len(tt.missing) == 0, tt.draft.IsComplete())
		})
	}
}

func TestReturnDraft_ToRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	draft := ReturnDraft{
		ProductName:      strPtr("laptop"),
		PurchaseLocation: strPtr("best buy"),
		PurchasePrice:    f64Ptr(899.99),
		ReturnReason:     strPtr("changed mind"),
	}

	rec := draft.ToRecord("rec-1", "sess-1", now)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, "laptop", rec.ProductName)
	assert.Equal(t, "best buy", rec.PurchaseLocation)
	assert.Equal(t, 899.99, rec.PurchasePrice)
	assert.Equal(t, "changed mind", rec.ReturnReason)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestSession_AppendTurn_TrimsToLimit(t *testing.T) {
	now := time.Now()
	s := NewSession("sess-1", now)

	for i := 0; i < 10; i++ {
		s.AppendTurn(Turn{Role: "user", Message: "msg", Timestamp: now}, 4)
	}

	assert.Len(t, s.History, 4)

	// A non-positive limit keeps everything.
	s2 := NewSession("sess-2", now)
	for i := 0; i < 10; i++ {
		s2.AppendTurn(Turn{Role: "user", Message: "msg", Timestamp: now}, 0)
	}
	assert.Len(t, s2.History, 10)
}

func TestSession_ClearDraft(t *testing.T) {
	s := NewSession("sess-1", time.Now())
	s.Draft = &ReturnDraft{ProductName: strPtr("tv")}
	s.PendingSlot = SlotPurchaseLocation

	s.ClearDraft()

	assert.False(t, s.HasDraft())
	assert.Empty(t, s.PendingSlot)
}
