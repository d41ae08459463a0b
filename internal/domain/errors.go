package domain

import "errors"

var (
	// ErrInvalidInput indicates a structural precondition violation on a
	// valuation calculation (non-positive current metric, projection
	// years < 1). The valuation engine is the only core component that
	// raises it.
	ErrInvalidInput = errors.New("invalid valuation input")

	// ErrNotFound indicates a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrSnapshotExists indicates a snapshot already exists for the
	// (ticker, snapshot date) pair; recreation requires an explicit force
	ErrSnapshotExists = errors.New("snapshot already exists for date")
)
