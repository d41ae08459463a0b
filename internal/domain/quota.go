package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScanType represents the kind of scan a user ran
type ScanType string

const (
	ScanTypeIndividual ScanType = "INDIVIDUAL"
	ScanTypeCurated    ScanType = "CURATED"
)

// DefaultDailyScanLimit is the per-user scan limit applied when no
// per-user override exists
const DefaultDailyScanLimit = 25

// ScanRecord represents a single scan attempt in the append-only usage log.
// Records are never mutated or deleted; today's usage count is derived
// from them.
type ScanRecord struct {
	ID        uuid.UUID
	UserID    string
	ScanType  ScanType
	Ticker    string // optional; empty for curated scans
	CreatedAt time.Time
}

// ScanQuota represents a user's daily scan limit, created lazily on the
// first quota check
type ScanQuota struct {
	UserID     string
	DailyLimit int
}

// Validate ensures the scan record adheres to domain rules
func (r *ScanRecord) Validate() error {
	if r.UserID == "" {
		return errors.New("scan record user ID cannot be empty")
	}
	if r.ScanType != ScanTypeIndividual && r.ScanType != ScanTypeCurated {
		return errors.New("scan type must be INDIVIDUAL or CURATED")
	}
	return nil
}
