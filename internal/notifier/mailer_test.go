package notifier

import (
	"strings"
	"testing"
)

func TestRenderReviewAlertIncludesDecisionFields(t *testing.T) {
	body := renderReviewAlert(ReviewAlert{
		PayoutID:  "payout-1",
		OwnerID:   "farm-1",
		Amount:    2.5,
		Status:    "flagged_high_risk",
		RiskScore: 0.75,
	})

	for _, want := range []string{"payout-1", "farm-1", "2.50", "flagged_high_risk", "0.75"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}
