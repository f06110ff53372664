package consumer

import (
	"context"
	"encoding/json"
	"log"

	"example.com/credits/internal/events"
	"example.com/credits/internal/notifier"
)

// AlertSender delivers flagged-payout notifications to reviewers.
type AlertSender interface {
	SendReviewAlert(alert notifier.ReviewAlert) error
}

// ReviewAlertHandler emails reviewers when a payout decision arrives flagged.
// Unflagged decisions and other event types pass through untouched.
type ReviewAlertHandler struct {
	sender AlertSender
	to     string
}

// NewReviewAlertHandler constructs the handler. An empty recipient disables it.
func NewReviewAlertHandler(sender AlertSender, to string) *ReviewAlertHandler {
	return &ReviewAlertHandler{sender: sender, to: to}
}

// Handle inspects payout decision events and raises an alert for flagged ones.
func (h *ReviewAlertHandler) Handle(ctx context.Context, msg Message) error {
	if h.to == "" || msg.EventType != "credit.payout_decided" {
		return nil
	}

	var decided events.PayoutDecided
	if err := json.Unmarshal(msg.Payload, &decided); err != nil {
		// Malformed payloads are logged and skipped; the audit trail already
		// holds the raw bytes.
		log.Printf("review alert: undecodable payout payload (owner=%s): %v", msg.OwnerID, err)
		return nil
	}
	if !decided.Flagged {
		return nil
	}

	alert := notifier.ReviewAlert{
		PayoutID:  decided.PayoutID,
		OwnerID:   decided.OwnerID,
		Amount:    decided.Amount,
		Status:    decided.Status,
		RiskScore: decided.RiskScore,
	}
	if err := h.sender.SendReviewAlert(alert); err != nil {
		return err
	}
	recordAlertSent()
	return nil
}
