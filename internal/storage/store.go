// internal/storage/store.go
package storage

import (
	"context"
	"errors"

	"returns-insights/internal/models"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("return record not found")

// RecordFilters narrows a Query call. Zero values mean "no filter";
// Limit 0 falls back to the implementation default.
type RecordFilters struct {
	Product    string
	Reason     string
	WindowDays int
	Limit      int
}

// Aggregate is the summary shape consumed by analytics and reports.
type Aggregate struct {
	TotalCount int                  `json:"total_count"`
	TotalValue float64              `json:"total_value"`
	ByProduct  []models.ReasonCount `json:"breakdown_by_product"`
	ByReason   []models.ReasonCount `json:"breakdown_by_reason"`
	WindowDays int                  `json:"window_days"`
}

// Store is the persistence collaborator for finalized return records.
// Callers never issue raw query syntax, only these typed operations.
type Store interface {
	Insert(ctx context.Context, rec models.ReturnRecord) (string, error)
	GetByID(ctx context.Context, id string) (models.ReturnRecord, error)
	Query(ctx context.Context, f RecordFilters) ([]models.ReturnRecord, error)
	Aggregate(ctx context.Context, windowDays int) (Aggregate, error)
}
