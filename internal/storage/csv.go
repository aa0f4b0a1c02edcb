// internal/storage/csv.go
package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
)

// LoadCSV seeds the store from a CSV export. Two header layouts are
// accepted: the official order export (order_id, product, store_name,
// cost, ...) and the legacy dump whose headers match the record fields
// directly. Returns the number of records inserted.
func LoadCSV(ctx context.Context, store Store, path string, log logger.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}

	official := hasColumns(index, "order_id", "cost")
	loaded := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("failed to read csv row: %w", err)
		}

		var rec models.ReturnRecord
		if official {
			rec = mapOfficialRow(index, row)
		} else {
			rec = mapLegacyRow(index, row)
		}

		if rec.ProductName == "" {
			continue
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		if _, err := store.Insert(ctx, rec); err != nil {
			return loaded, fmt.Errorf("failed to insert csv record: %w", err)
		}
		loaded++
	}

	log.Info("csv seed complete", map[string]interface{}{
		"path":    path,
		"records": loaded,
	})
	return loaded, nil
}

func hasColumns(index map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := index[n]; !ok {
			return false
		}
	}
	return true
}

func field(index map[string]int, row []string, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func floatField(index map[string]int, row []string, name string) float64 {
	v, err := strconv.ParseFloat(field(index, row, name), 64)
	if err != nil {
		return 0
	}
	return v
}

func dateField(index map[string]int, row []string, name string) time.Time {
	raw := field(index, row, name)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func mapOfficialRow(index map[string]int, row []string) models.ReturnRecord {
	cost := floatField(index, row, "cost")
	warranty := "Expired"
	if strings.EqualFold(field(index, row, "approved_flag"), "yes") {
		warranty = "Under Warranty"
	}

	category := field(index, row, "category")
	if category == "" {
		category = "Electronics"
	}

	return models.ReturnRecord{
		ProductName:      field(index, row, "product"),
		Category:         category,
		Brand:            inferBrand(field(index, row, "product")),
		PurchaseLocation: field(index, row, "store_name"),
		PurchasePrice:    cost,
		OriginalPrice:    cost,
		ReturnReason:     field(index, row, "return_reason"),
		CustomerID:       "CUST" + field(index, row, "order_id"),
		WarrantyStatus:   warranty,
		CreatedAt:        dateField(index, row, "date"),
	}
}

func mapLegacyRow(index map[string]int, row []string) models.ReturnRecord {
	price := floatField(index, row, "purchase_price")
	original := floatField(index, row, "original_price")
	if original == 0 {
		original = price
	}

	rec := models.ReturnRecord{
		ProductName:      field(index, row, "product_name"),
		Category:         field(index, row, "category"),
		Brand:            field(index, row, "brand"),
		PurchaseLocation: field(index, row, "purchase_location"),
		PurchasePrice:    price,
		OriginalPrice:    original,
		DiscountPercent:  floatField(index, row, "discount_percent"),
		ReturnReason:     field(index, row, "return_reason"),
		CustomerID:       field(index, row, "customer_id"),
		WarrantyStatus:   field(index, row, "warranty_status"),
		CreatedAt:        dateField(index, row, "return_date"),
	}

	if pd := dateField(index, row, "purchase_date"); !pd.IsZero() {
		rec.PurchaseDate = &pd
	}
	return rec
}

var appleProducts = []string{"iphone", "ipad", "macbook", "apple tv", "airpods", "apple watch"}

func inferBrand(product string) string {
	lower := strings.ToLower(product)
	for _, p := range appleProducts {
		if strings.Contains(lower, p) {
			return "Apple"
		}
	}
	return "Unknown"
}
