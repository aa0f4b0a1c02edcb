// internal/report/excel.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	commonerrors "returns-insights/internal/common/errors"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
	"returns-insights/internal/storage"
)

// identifierPattern is the shape of the file identifiers this renderer
// hands out. Open rejects anything else so a caller can never reach
// outside the output directory.
var identifierPattern = regexp.MustCompile(`^returns_report_[0-9a-f-]{36}\.xlsx$`)

// Renderer writes return analytics into xlsx workbooks on local disk
// and hands back opaque file identifiers.
type Renderer struct {
	outputDir string
	maxAge    time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewRenderer(outputDir string, maxAge time.Duration, log logger.Logger) *Renderer {
	return &Renderer{
		outputDir: outputDir,
		maxAge:    maxAge,
		logger:    log.WithFields(map[string]interface{}{"component": "report"}),
		now:       time.Now,
	}
}

// Render writes a workbook with a summary sheet, product and reason
// breakdowns, and the backing records. It returns the file identifier
// used to fetch the workbook later.
func (r *Renderer) Render(agg storage.Aggregate, records []models.ReturnRecord) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummary(f, agg); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}
	if err := writeBreakdown(f, "By Product", "Product", agg.ByProduct); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}
	if err := writeBreakdown(f, "By Reason", "Reason", agg.ByReason); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}
	if err := writeRecords(f, records); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}

	id := fmt.Sprintf("returns_report_%s.xlsx", uuid.NewString())
	if err := f.SaveAs(filepath.Join(r.outputDir, id)); err != nil {
		return "", commonerrors.NewReportGenerationFailedError(err)
	}

	r.logger.Info("report rendered", map[string]interface{}{
		"file_identifier": id,
		"total_count":     agg.TotalCount,
		"records":         len(records),
	})
	return id, nil
}

// Open resolves a previously rendered identifier to its on-disk path.
func (r *Renderer) Open(id string) (string, error) {
	if !identifierPattern.MatchString(id) {
		return "", commonerrors.NewReportNotFoundError(id)
	}
	path := filepath.Join(r.outputDir, id)
	if _, err := os.Stat(path); err != nil {
		return "", commonerrors.NewReportNotFoundError(id)
	}
	return path, nil
}

// Sweep deletes rendered workbooks older than the configured max age.
// It returns how many files were removed.
func (r *Renderer) Sweep() int {
	entries, err := os.ReadDir(r.outputDir)
	if err != nil {
		return 0
	}

	cutoff := r.now().Add(-r.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !identifierPattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(r.outputDir, e.Name())); err != nil {
			r.logger.Warn("report cleanup failed", map[string]interface{}{
				"file_identifier": e.Name(),
				"error":           err.Error(),
			})
			continue
		}
		removed++
	}
	if removed > 0 {
		r.logger.Info("old reports removed", map[string]interface{}{"count": removed})
	}
	return removed
}

func (r *Renderer) writeSummary(f *excelize.File, agg storage.Aggregate) error {
	const sheet = "Summary"
	f.SetSheetName(f.GetSheetName(0), sheet)

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total returns", agg.TotalCount},
		{"Total value", agg.TotalValue},
		{"Window (days)", agg.WindowDays},
		{"Generated at", r.now().Format(time.RFC3339)},
	}
	return writeRows(f, sheet, rows)
}

func writeBreakdown(f *excelize.File, sheet, label string, buckets []models.ReasonCount) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{label, "Count"}}
	for _, b := range buckets {
		rows = append(rows, []interface{}{b.Value, b.Count})
	}
	return writeRows(f, sheet, rows)
}

func writeRecords(f *excelize.File, records []models.ReturnRecord) error {
	const sheet = "Records"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{
		"ID", "Product", "Location", "Price", "Reason", "Warranty", "Created",
	}}
	for _, rec := range records {
		rows = append(rows, []interface{}{
			rec.ID, rec.ProductName, rec.PurchaseLocation, rec.PurchasePrice,
			rec.ReturnReason, rec.WarrantyStatus, rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
