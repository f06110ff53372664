package domain

import (
	"context"
	"time"
)

// PayoutStatus is the terminal state assigned when a payout record is created.
// Records never change state inside this service; releasing or rejecting held
// funds happens out-of-band.
type PayoutStatus string

const (
	// PayoutStatusRequested means the request passed screening and awaits payment.
	PayoutStatusRequested PayoutStatus = "requested"
	// PayoutStatusPendingReview holds the request for manual verification.
	PayoutStatusPendingReview PayoutStatus = "pending_review"
	// PayoutStatusFlaggedHighRisk holds the request with a high-risk marker.
	PayoutStatusFlaggedHighRisk PayoutStatus = "flagged_high_risk"
)

// Payout is an immutable record of a credit withdrawal request and the
// screening decision made at creation time.
type Payout struct {
	ID        string
	OwnerID   string
	Amount    float64
	Status    PayoutStatus
	Flagged   bool
	RiskScore float64
	Anomalies []Anomaly
	Notes     string

	CreatedAt time.Time
}

// DecidePayoutStatus applies the screening thresholds to a risk score.
func DecidePayoutStatus(riskScore float64) (PayoutStatus, bool) {
	switch {
	case riskScore > 0.7:
		return PayoutStatusFlaggedHighRisk, true
	case riskScore > 0.4:
		return PayoutStatusPendingReview, true
	default:
		return PayoutStatusRequested, false
	}
}

// PayoutRepository captures persistence operations for payout records.
type PayoutRepository interface {
	Create(ctx context.Context, payout Payout) error
	PayoutsByOwner(ctx context.Context, ownerID string) ([]Payout, error)
}
