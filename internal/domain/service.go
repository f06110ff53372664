// Package domain implements the carbon-credit ledger and payout screening engine.
package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Messages returned to the caller alongside the payout status.
const (
	msgPayoutRequested  = "Payout requested successfully"
	msgPayoutFlagged    = "Request submitted for review due to unusual activity patterns"
	msgManualReview     = "Request submitted for manual review"
	noteScoringFallback = "automated risk scoring unavailable - manual review required"
)

// Service orchestrates log, ledger, and payout workflows. It is stateless
// between calls: every operation loads the records it needs fresh from the
// repositories.
type Service struct {
	logs    LogRepository
	payouts PayoutRepository
	coeffs  CoefficientTable
	scorer  RiskScorer
	now     func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the evaluation clock used for risk scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service.
func NewService(logs LogRepository, payouts PayoutRepository, coeffs CoefficientTable, scorer RiskScorer, opts ...Option) *Service {
	s := &Service{
		logs:    logs,
		payouts: payouts,
		coeffs:  coeffs,
		scorer:  scorer,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendLogInput captures the payload from the API layer.
type AppendLogInput struct {
	OwnerID  string
	Type     string
	Date     string
	Quantity *float64
	Unit     string
	Notes    string
}

// Validate ensures the input describes a well-formed log entry.
func (in AppendLogInput) Validate() error {
	if strings.TrimSpace(in.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return errors.New("type is required")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %v", err)
	}
	if in.Quantity != nil {
		q := *in.Quantity
		if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
			return errors.New("quantity must be a non-negative number")
		}
	}
	return nil
}

// AppendLog records a new activity log for its owner.
func (s *Service) AppendLog(ctx context.Context, input AppendLogInput) (*ActivityLog, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	log := ActivityLog{
		ID:        uuid.NewString(),
		OwnerID:   input.OwnerID,
		Type:      input.Type,
		Date:      input.Date,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
		Notes:     input.Notes,
		CreatedAt: s.now(),
	}

	if err := s.logs.Append(ctx, log); err != nil {
		return nil, err
	}
	return &log, nil
}

// ListLogs fetches a page of the owner's logs with cursor pagination.
func (s *Service) ListLogs(ctx context.Context, ownerID string, cursor *Cursor, limit int) ([]ActivityLog, *Cursor, error) {
	return s.logs.ListByOwner(ctx, ownerID, cursor, limit)
}

// DeleteLog removes a log owned by ownerID. Administrators pass admin=true
// and may delete any owner's log.
func (s *Service) DeleteLog(ctx context.Context, ownerID, logID string, admin bool) error {
	if admin {
		ownerID = ""
	}
	return s.logs.Delete(ctx, logID, ownerID)
}

// GetLedger recomputes the owner's credit position from the full log and
// payout history. Read-only and idempotent.
func (s *Service) GetLedger(ctx context.Context, ownerID string) (*LedgerSnapshot, error) {
	logs, err := s.logs.AllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payouts.PayoutsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	snapshot := ComputeLedger(logs, payouts, s.coeffs)
	return &snapshot, nil
}

// PayoutDecision reports the outcome of a payout request.
type PayoutDecision struct {
	PayoutID  string
	Status    PayoutStatus
	Flagged   bool
	RiskScore float64
	Message   string
}

// RequestPayout screens and records a credit withdrawal request. The request
// always produces a persisted record: when risk scoring is unavailable the
// payout is held for manual review instead of being rejected. Over-flagging
// is preferred to losing the request.
func (s *Service) RequestPayout(ctx context.Context, ownerID string, amount float64) (*PayoutDecision, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, ErrInvalidAmount
	}

	payout := Payout{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Amount:    amount,
		CreatedAt: s.now(),
	}

	assessment, err := s.assess(ctx, ownerID, amount)
	if err != nil {
		// Scoring failed; hold the request rather than dropping it.
		payout.Status = PayoutStatusPendingReview
		payout.Flagged = true
		payout.Notes = noteScoringFallback

		if createErr := s.payouts.Create(ctx, payout); createErr != nil {
			return nil, createErr
		}
		return &PayoutDecision{
			PayoutID: payout.ID,
			Status:   payout.Status,
			Flagged:  true,
			Message:  msgManualReview,
		}, nil
	}

	payout.Status, payout.Flagged = DecidePayoutStatus(assessment.RiskScore)
	payout.RiskScore = assessment.RiskScore
	payout.Anomalies = assessment.Anomalies
	payout.Notes = strings.Join(assessment.Recommendations, "\n")

	if err := s.payouts.Create(ctx, payout); err != nil {
		return nil, err
	}

	message := msgPayoutRequested
	if payout.Flagged {
		message = msgPayoutFlagged
	}

	return &PayoutDecision{
		PayoutID:  payout.ID,
		Status:    payout.Status,
		Flagged:   payout.Flagged,
		RiskScore: payout.RiskScore,
		Message:   message,
	}, nil
}

// ListPayouts returns the owner's payout history.
func (s *Service) ListPayouts(ctx context.Context, ownerID string) ([]Payout, error) {
	return s.payouts.PayoutsByOwner(ctx, ownerID)
}

// assess loads the owner's history and runs the risk scorer. Both steps are
// part of the recoverable scoring stage of the payout workflow.
func (s *Service) assess(ctx context.Context, ownerID string, amount float64) (Assessment, error) {
	logs, err := s.logs.AllByOwner(ctx, ownerID)
	if err != nil {
		return Assessment{}, fmt.Errorf("load activity history: %w", err)
	}
	return s.scorer.Score(logs, amount, s.now())
}
