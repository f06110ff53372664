// Package events defines the event payloads emitted by the credit ledger service.
package events

import "time"

// LogRecorded represents the message emitted when a new activity log is accepted.
type LogRecorded struct {
	LogID        string    `json:"log_id"`
	OwnerID      string    `json:"owner_id"`
	ActivityType string    `json:"activity_type"`
	Date         string    `json:"date"`
	Quantity     *float64  `json:"quantity,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// PayoutDecided represents the screening decision attached to a new payout record.
type PayoutDecided struct {
	PayoutID  string    `json:"payout_id"`
	OwnerID   string    `json:"owner_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Flagged   bool      `json:"flagged"`
	RiskScore float64   `json:"risk_score"`
	DecidedAt time.Time `json:"decided_at"`
}
