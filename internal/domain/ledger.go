package domain

// LedgerSnapshot is the derived view of an owner's carbon-credit position.
// It is recomputed from the full log and payout history on every read and is
// never stored.
type LedgerSnapshot struct {
	// Total is the net tCO2e across all logs: coefficient * quantity, summed.
	Total float64
	// Monthly partitions Total by "YYYY-MM" bucket. Every log lands in
	// exactly one bucket, so the bucket values always sum to Total.
	Monthly map[string]float64
	// Paid sums the amounts of all payout records regardless of status.
	// A held or flagged request still reduces the visible balance, so an
	// owner cannot stack requests while one is under review.
	Paid float64
	// Balance is Total minus Paid. It can go negative; overdraft is not
	// prevented at request time.
	Balance float64
	// Payouts is the owner's full payout history, newest first as loaded.
	Payouts []Payout
}

// ComputeLedger aggregates logs and payouts into a snapshot. Pure function:
// repository loads happen in the service layer.
func ComputeLedger(logs []ActivityLog, payouts []Payout, coeffs CoefficientTable) LedgerSnapshot {
	snapshot := LedgerSnapshot{
		Monthly: make(map[string]float64),
		Payouts: payouts,
	}

	for _, l := range logs {
		delta := coeffs.Coefficient(l.Type) * NormalizeQuantity(l.Quantity)
		snapshot.Monthly[monthKey(l.Date)] += delta
		snapshot.Total += delta
	}

	for _, p := range payouts {
		snapshot.Paid += p.Amount
	}

	snapshot.Balance = snapshot.Total - snapshot.Paid
	return snapshot
}

// monthKey derives the "YYYY-MM" bucket from a log date string.
func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
