package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeLedgerMixedActivities(t *testing.T) {
	coeffs := DefaultCoefficients()
	logs := []ActivityLog{
		{ID: "l1", OwnerID: "farm-1", Type: "tree_planting", Date: "2024-01-10", Quantity: floatPtr(5)},
		{ID: "l2", OwnerID: "farm-1", Type: "plowing", Date: "2024-01-15", Quantity: floatPtr(2)},
	}

	snapshot := ComputeLedger(logs, nil, coeffs)

	// 5*0.1 + 2*(-0.01)
	require.InDelta(t, 0.48, snapshot.Total, 1e-9)
	require.Len(t, snapshot.Monthly, 1)
	require.InDelta(t, 0.48, snapshot.Monthly["2024-01"], 1e-9)
	require.InDelta(t, snapshot.Total, snapshot.Balance, 1e-9)
	require.Zero(t, snapshot.Paid)
}

func TestComputeLedgerMonthlyBucketsSumToTotal(t *testing.T) {
	coeffs := DefaultCoefficients()
	logs := []ActivityLog{
		{Type: "tree_planting", Date: "2024-01-10", Quantity: floatPtr(3)},
		{Type: "cover_cropping", Date: "2024-02-01", Quantity: floatPtr(10)},
		{Type: "fertilizer", Date: "2024-02-20", Quantity: floatPtr(40)},
		{Type: "machinery", Date: "2024-03-05", Quantity: floatPtr(1)},
	}

	snapshot := ComputeLedger(logs, nil, coeffs)

	var sum float64
	for _, v := range snapshot.Monthly {
		sum += v
	}
	require.InDelta(t, snapshot.Total, sum, 1e-9)
	require.Len(t, snapshot.Monthly, 3)
}

func TestComputeLedgerPaidCountsAllStatuses(t *testing.T) {
	payouts := []Payout{
		{ID: "p1", Amount: 0.2, Status: PayoutStatusRequested},
		{ID: "p2", Amount: 0.3, Status: PayoutStatusPendingReview},
		{ID: "p3", Amount: 0.1, Status: PayoutStatusFlaggedHighRisk},
	}
	logs := []ActivityLog{
		{Type: "tree_planting", Date: "2024-01-10", Quantity: floatPtr(10)},
	}

	snapshot := ComputeLedger(logs, payouts, DefaultCoefficients())

	require.InDelta(t, 0.6, snapshot.Paid, 1e-9)
	require.InDelta(t, 1.0-0.6, snapshot.Balance, 1e-9)
	require.Len(t, snapshot.Payouts, 3)
}

func TestComputeLedgerBalanceCanGoNegative(t *testing.T) {
	payouts := []Payout{{ID: "p1", Amount: 5, Status: PayoutStatusRequested}}
	logs := []ActivityLog{
		{Type: "seeding", Date: "2024-04-02", Quantity: floatPtr(100)},
	}

	snapshot := ComputeLedger(logs, payouts, DefaultCoefficients())

	require.Negative(t, snapshot.Balance)
}

func TestComputeLedgerUnknownTypeContributesNothing(t *testing.T) {
	logs := []ActivityLog{
		{Type: "spelunking", Date: "2024-01-10", Quantity: floatPtr(100)},
		{Type: "tree_planting", Date: "2024-01-11", Quantity: floatPtr(1)},
	}

	snapshot := ComputeLedger(logs, nil, DefaultCoefficients())

	require.InDelta(t, 0.1, snapshot.Total, 1e-9)
}

func TestComputeLedgerIdempotent(t *testing.T) {
	logs := []ActivityLog{
		{Type: "irrigation", Date: "2024-05-01", Quantity: floatPtr(12)},
		{Type: "harvesting", Date: "2024-05-02"},
	}
	payouts := []Payout{{Amount: 0.01}}

	first := ComputeLedger(logs, payouts, DefaultCoefficients())
	second := ComputeLedger(logs, payouts, DefaultCoefficients())

	require.Equal(t, first.Total, second.Total)
	require.Equal(t, first.Monthly, second.Monthly)
	require.Equal(t, first.Balance, second.Balance)
}

func TestNormalizeQuantityFallsBackToOne(t *testing.T) {
	require.Equal(t, 1.0, NormalizeQuantity(nil))
	require.Equal(t, 1.0, NormalizeQuantity(floatPtr(math.NaN())))
	require.Equal(t, 1.0, NormalizeQuantity(floatPtr(math.Inf(1))))
	require.Equal(t, 1.0, NormalizeQuantity(floatPtr(math.Inf(-1))))
	require.Equal(t, 0.0, NormalizeQuantity(floatPtr(0)))
	require.Equal(t, 2.5, NormalizeQuantity(floatPtr(2.5)))
}

func TestCoefficientTableDefaults(t *testing.T) {
	coeffs := DefaultCoefficients()

	require.InDelta(t, 0.1, coeffs.Coefficient("tree_planting"), 1e-9)
	require.InDelta(t, -0.02, coeffs.Coefficient("machinery"), 1e-9)
	require.Zero(t, coeffs.Coefficient("unknown_activity"))
}
