package domain

import (
	"context"
	"time"
)

// StockRepository defines the interface for curated stock persistence operations
type StockRepository interface {
	// GetByTicker retrieves a stock by its ticker symbol
	GetByTicker(ctx context.Context, ticker string) (*Stock, error)

	// ListActive retrieves all active curated stocks
	ListActive(ctx context.Context) ([]*Stock, error)

	// Create creates a new curated stock
	Create(ctx context.Context, stock *Stock) error

	// UpdateValuation persists a stock's recomputed intrinsic values and
	// calculation timestamp
	UpdateValuation(ctx context.Context, stock *Stock) error

	// UpdatePrice persists a stock's current price and price timestamp
	UpdatePrice(ctx context.Context, stock *Stock) error
}

// SnapshotRepository defines the interface for valuation snapshot persistence
type SnapshotRepository interface {
	// ListByTicker retrieves all snapshots for a ticker, ordered by
	// snapshot date ascending
	ListByTicker(ctx context.Context, ticker string) ([]*ValuationSnapshot, error)

	// GetByTickerAndDate retrieves the snapshot for a (ticker, date) pair,
	// or ErrNotFound if none exists
	GetByTickerAndDate(ctx context.Context, ticker string, date time.Time) (*ValuationSnapshot, error)

	// Create creates a new snapshot. Returns ErrSnapshotExists when a
	// snapshot for the same (ticker, date) pair already exists.
	Create(ctx context.Context, snapshot *ValuationSnapshot) error

	// Delete removes the snapshot for a (ticker, date) pair
	Delete(ctx context.Context, ticker string, date time.Time) error
}

// QuotaTx provides access to one user's quota state while the row lock
// is held. All reads and writes through it belong to a single atomic
// check-and-record operation.
type QuotaTx interface {
	// DailyLimit returns the user's daily scan limit
	DailyLimit() int

	// CountScansSince returns the number of scans the user recorded at or
	// after the given instant
	CountScansSince(ctx context.Context, since time.Time) (int, error)

	// RecordScan appends a scan record for the user
	RecordScan(ctx context.Context, record *ScanRecord) error
}

// QuotaRepository defines the interface for per-user quota persistence.
// Implementations must run fn while holding an exclusive lock on the
// user's quota row (creating the row with the default limit if missing),
// so that concurrent quota checks for the same user serialize rather
// than race.
type QuotaRepository interface {
	WithLock(ctx context.Context, userID string, fn func(tx QuotaTx) error) error

	// CountScansSince returns the user's scan count without taking the
	// lock. Display use only; never a basis for the atomic check.
	CountScansSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Cache defines a generic key-value cache with per-entry TTL, used for
// display-only derived values
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}
