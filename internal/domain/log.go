package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	// ErrLogNotFound is returned when an activity log cannot be located for the caller.
	ErrLogNotFound = errors.New("activity log not found")
	// ErrInvalidAmount is returned when a payout amount is missing, non-finite, zero, or negative.
	ErrInvalidAmount = errors.New("invalid payout amount")
)

// ActivityLog is a single dated farm-management action reported by a farmer.
// Logs are append-only: once written they are never mutated, only deleted by
// their owner or an administrator.
type ActivityLog struct {
	ID       string
	OwnerID  string
	Type     string
	Date     string // calendar date, YYYY-MM-DD, no time component
	Quantity *float64
	Unit     string
	Notes    string

	CreatedAt time.Time
}

// NormalizeQuantity resolves the quantity used for all calculations. A missing
// or non-finite quantity counts as 1. The fallback is a deliberate rule, not
// an error path: a log with no usable quantity still represents one unit of
// the activity.
func NormalizeQuantity(q *float64) float64 {
	if q == nil {
		return 1
	}
	if math.IsNaN(*q) || math.IsInf(*q, 0) {
		return 1
	}
	return *q
}

// Cursor models the pagination token for log listings.
type Cursor struct {
	Date string
	ID   string
}

// LogRepository captures persistence operations for activity logs.
type LogRepository interface {
	Append(ctx context.Context, log ActivityLog) error
	// ListByOwner returns a page of the owner's logs ordered by date descending.
	ListByOwner(ctx context.Context, ownerID string, cursor *Cursor, limit int) ([]ActivityLog, *Cursor, error)
	// AllByOwner returns every log for the owner; ledger and risk computations
	// always operate on the full history.
	AllByOwner(ctx context.Context, ownerID string) ([]ActivityLog, error)
	// Delete removes a log by ID. An empty ownerID skips the ownership filter
	// (administrative delete). Returns ErrLogNotFound when nothing matched.
	Delete(ctx context.Context, logID, ownerID string) error
}
