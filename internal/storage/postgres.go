// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"returns-insights/internal/common/logger"
	"returns-insights/internal/models"
)

const defaultQueryLimit = 1000

// PostgresStore persists return records in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres_store"}),
	}
}

// EnsureSchema creates the returns table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS returns (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			customer_id TEXT,
			product_name TEXT NOT NULL,
			category TEXT,
			brand TEXT,
			purchase_location TEXT NOT NULL,
			purchase_price DOUBLE PRECISION NOT NULL,
			original_price DOUBLE PRECISION,
			discount_percent DOUBLE PRECISION DEFAULT 0,
			purchase_date TIMESTAMPTZ,
			return_reason TEXT NOT NULL,
			warranty_status TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create returns table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec models.ReturnRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	var purchaseDate sql.NullTime
	if rec.PurchaseDate != nil {
		purchaseDate = sql.NullTime{Time: *rec.PurchaseDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO returns (
			id, session_id, customer_id, product_name, category, brand,
			purchase_location, purchase_price, original_price, discount_percent,
			purchase_date, return_reason, warranty_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.SessionID, rec.CustomerID, rec.ProductName, rec.Category, rec.Brand,
		rec.PurchaseLocation, rec.PurchasePrice, rec.OriginalPrice, rec.DiscountPercent,
		purchaseDate, rec.ReturnReason, rec.WarrantyStatus, rec.CreatedAt,
	)
	if err != nil {
		s.logger.Error("insert failed", map[string]interface{}{
			"recordId": rec.ID,
			"error":    err.Error(),
		})
		return "", fmt.Errorf("failed to insert return record: %w", err)
	}

	return rec.ID, nil
}

const recordColumns = `id, session_id, customer_id, product_name, category, brand,
	purchase_location, purchase_price, original_price, discount_percent,
	purchase_date, return_reason, warranty_status, created_at`

func (s *PostgresStore) GetByID(ctx context.Context, id string) (models.ReturnRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM returns WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReturnRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ReturnRecord{}, fmt.Errorf("failed to fetch return record %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) Query(ctx context.Context, f RecordFilters) ([]models.ReturnRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if f.Product != "" {
		args = append(args, "%"+f.Product+"%")
		conditions = append(conditions, fmt.Sprintf("product_name ILIKE $%d", len(args)))
	}
	if f.Reason != "" {
		args = append(args, "%"+f.Reason+"%")
		conditions = append(conditions, fmt.Sprintf("return_reason ILIKE $%d", len(args)))
	}
	if f.WindowDays > 0 {
		args = append(args, f.WindowDays)
		conditions = append(conditions, fmt.Sprintf("created_at >= NOW() - ($%d || ' days')::interval", len(args)))
	}

	query := `SELECT ` + recordColumns + ` FROM returns`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query return records: %w", err)
	}
	defer rows.Close()

	var records []models.ReturnRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate return records: %w", err)
	}

	return records, nil
}

func (s *PostgresStore) Aggregate(ctx context.Context, windowDays int) (Aggregate, error) {
	agg := Aggregate{WindowDays: windowDays}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(purchase_price), 0)
		FROM returns
		WHERE created_at >= NOW() - ($1 || ' days')::interval`, windowDays,
	).Scan(&agg.TotalCount, &agg.TotalValue)
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to aggregate totals: %w", err)
	}

	agg.ByProduct, err = s.groupedCounts(ctx, "product_name", windowDays)
	if err != nil {
		return Aggregate{}, err
	}

	agg.ByReason, err = s.groupedCounts(ctx, "return_reason", windowDays)
	if err != nil {
		return Aggregate{}, err
	}

	return agg, nil
}

func (s *PostgresStore) groupedCounts(ctx context.Context, column string, windowDays int) ([]models.ReasonCount, error) {
	// column is one of two compile-time constants, never user input.
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM returns
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY %s
		ORDER BY COUNT(*) DESC, %s ASC
		LIMIT 10`, column, column, column)

	rows, err := s.db.QueryContext(ctx, query, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", column, err)
	}
	defer rows.Close()

	var counts []models.ReasonCount
	for rows.Next() {
		var rc models.ReasonCount
		if err := rows.Scan(&rc.Value, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s bucket: %w", column, err)
		}
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

// Count reports the total number of stored records, used to decide
// whether to seed from CSV on startup.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM returns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count return records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.ReturnRecord, error) {
	var (
		rec          models.ReturnRecord
		purchaseDate sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.CustomerID, &rec.ProductName, &rec.Category, &rec.Brand,
		&rec.PurchaseLocation, &rec.PurchasePrice, &rec.OriginalPrice, &rec.DiscountPercent,
		&purchaseDate, &rec.ReturnReason, &rec.WarrantyStatus, &rec.CreatedAt,
	)
	if err != nil {
		return models.ReturnRecord{}, err
	}
	if purchaseDate.Valid {
		t := purchaseDate.Time
		rec.PurchaseDate = &t
	}
	return rec, nil
}
