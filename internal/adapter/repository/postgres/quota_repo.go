package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simaogato/stockval-backend/internal/domain"
)

// quotaRepository implements domain.QuotaRepository
type quotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new scan quota repository
func NewQuotaRepository(db *DB) domain.QuotaRepository {
	return &quotaRepository{db: db}
}

// WithLock runs fn while holding a row-level lock on the user's quota
// row, inside a single database transaction.
// Logic:
//  1. Lazily create the quota row with the default limit (no-op if present)
//  2. SELECT ... FOR UPDATE pins the row until commit, so concurrent
//     calls for the same user queue behind each other
//  3. fn observes and mutates quota state through the transaction; its
//     error rolls everything back, including any recorded scan
func (r *quotaRepository) WithLock(ctx context.Context, userID string, fn func(tx domain.QuotaTx) error) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin quota transaction: %w", err)
	}
	defer dbTx.Rollback()

	insertQuery := `
		INSERT INTO scan_quotas (user_id, daily_limit)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := dbTx.ExecContext(ctx, insertQuery, userID, domain.DefaultDailyScanLimit); err != nil {
		return fmt.Errorf("failed to ensure quota row: %w", err)
	}

	lockQuery := `SELECT daily_limit FROM scan_quotas WHERE user_id = $1 FOR UPDATE`
	var dailyLimit int
	if err := dbTx.QueryRowContext(ctx, lockQuery, userID).Scan(&dailyLimit); err != nil {
		return fmt.Errorf("failed to lock quota row: %w", err)
	}

	if err := fn(&quotaTx{tx: dbTx, userID: userID, dailyLimit: dailyLimit}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quota transaction: %w", err)
	}

	return nil
}

// CountScansSince returns the user's scan count without taking the lock.
// Display use only.
func (r *quotaRepository) CountScansSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return countScans(ctx, r.db.DB, userID, since)
}

// quotaTx implements domain.QuotaTx over the locked transaction
type quotaTx struct {
	tx         *sql.Tx
	userID     string
	dailyLimit int
}

func (t *quotaTx) DailyLimit() int {
	return t.dailyLimit
}

func (t *quotaTx) CountScansSince(ctx context.Context, since time.Time) (int, error) {
	return countScans(ctx, t.tx, t.userID, since)
}

func (t *quotaTx) RecordScan(ctx context.Context, record *domain.ScanRecord) error {
	query := `
		INSERT INTO scan_records (id, user_id, scan_type, ticker, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := t.tx.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		string(record.ScanType),
		record.Ticker,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan record: %w", err)
	}

	return nil
}

// queryRower covers both *sql.DB and *sql.Tx
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func countScans(ctx context.Context, q queryRower, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM scan_records WHERE user_id = $1 AND created_at >= $2`

	var count int
	if err := q.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scan records: %w", err)
	}

	return count, nil
}
