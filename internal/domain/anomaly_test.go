package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var scoringClock = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestScoreEmptyHistory(t *testing.T) {
	assessment, err := RuleScorer{}.Score(nil, 10, scoringClock)
	require.NoError(t, err)

	// No logs still means fewer than three distinct types.
	require.InDelta(t, 0.1, assessment.RiskScore, 1e-9)
	require.Empty(t, assessment.Anomalies)
	require.Equal(t, []string{"Low risk - normal activity pattern detected"}, assessment.Recommendations)
}

func TestScoreHeavyUniformOldHistory(t *testing.T) {
	// 60 logs, two types, all dated months before the evaluation clock and
	// with identical quantities: only the count and diversity rules fire.
	var logs []ActivityLog
	for i := 0; i < 60; i++ {
		activityType := "plowing"
		if i%2 == 0 {
			activityType = "seeding"
		}
		logs = append(logs, ActivityLog{
			ID:       fmt.Sprintf("l%d", i),
			Type:     activityType,
			Date:     "2024-01-15",
			Quantity: floatPtr(2),
		})
	}

	assessment, err := RuleScorer{}.Score(logs, 5, scoringClock)
	require.NoError(t, err)

	require.InDelta(t, 0.3, assessment.RiskScore, 1e-9)
	require.Empty(t, assessment.Anomalies)

	status, flagged := DecidePayoutStatus(assessment.RiskScore)
	require.Equal(t, PayoutStatusRequested, status)
	require.False(t, flagged)
}

func TestScoreRecentSpikeWithVolumeOutlier(t *testing.T) {
	// 60 logs across three types, 90% inside the trailing 30 days, and a
	// single entry far above the average quantity.
	var logs []ActivityLog
	types := []string{"plowing", "seeding", "harvesting"}
	for i := 0; i < 54; i++ {
		logs = append(logs, ActivityLog{
			ID:       fmt.Sprintf("recent%d", i),
			Type:     types[i%3],
			Date:     scoringClock.AddDate(0, 0, -(i % 20)).Format("2006-01-02"),
			Quantity: floatPtr(2),
		})
	}
	for i := 0; i < 5; i++ {
		logs = append(logs, ActivityLog{
			ID:       fmt.Sprintf("old%d", i),
			Type:     types[i%3],
			Date:     "2023-08-01",
			Quantity: floatPtr(2),
		})
	}
	logs = append(logs, ActivityLog{
		ID:       "outlier",
		Type:     "harvesting",
		Date:     scoringClock.AddDate(0, 0, -1).Format("2006-01-02"),
		Quantity: floatPtr(500),
	})

	assessment, err := RuleScorer{}.Score(logs, 5, scoringClock)
	require.NoError(t, err)

	// 0.2 (volume of logs) + 0.7*0.3 (temporal) + 0.6*0.4 (volume spike)
	require.InDelta(t, 0.65, assessment.RiskScore, 1e-9)
	require.Len(t, assessment.Anomalies, 2)
	require.Equal(t, "temporal_spike", assessment.Anomalies[0].Type)
	require.Equal(t, "medium", assessment.Anomalies[0].Severity)
	require.Equal(t, "volume_spike", assessment.Anomalies[1].Type)
	require.Equal(t, "medium", assessment.Anomalies[1].Severity)

	status, flagged := DecidePayoutStatus(assessment.RiskScore)
	require.Equal(t, PayoutStatusPendingReview, status)
	require.True(t, flagged)

	require.Contains(t, assessment.Recommendations, "Medium risk - additional verification may be needed")
	require.Contains(t, assessment.Recommendations, "Recent activity spike detected - verify timing and authenticity")
	require.Contains(t, assessment.Recommendations, "Large quantity entries detected - verify measurements and methods")
}

func TestScoreBoundedByOne(t *testing.T) {
	// Every rule fires: heavy count, single type, all recent, huge outlier.
	var logs []ActivityLog
	for i := 0; i < 60; i++ {
		logs = append(logs, ActivityLog{
			ID:       fmt.Sprintf("l%d", i),
			Type:     "plowing",
			Date:     scoringClock.AddDate(0, 0, -1).Format("2006-01-02"),
			Quantity: floatPtr(1),
		})
	}
	logs = append(logs, ActivityLog{
		ID:       "big",
		Type:     "plowing",
		Date:     scoringClock.AddDate(0, 0, -2).Format("2006-01-02"),
		Quantity: floatPtr(10000),
	})

	assessment, err := RuleScorer{}.Score(logs, 5, scoringClock)
	require.NoError(t, err)

	require.LessOrEqual(t, assessment.RiskScore, 1.0)
	// 0.2 + 0.1 + 0.21 + 0.24
	require.InDelta(t, 0.75, assessment.RiskScore, 1e-9)

	status, flagged := DecidePayoutStatus(assessment.RiskScore)
	require.Equal(t, PayoutStatusFlaggedHighRisk, status)
	require.True(t, flagged)
	require.Contains(t, assessment.Recommendations, "High risk detected - manual review recommended")
	require.Contains(t, assessment.Recommendations, "Verify large quantity entries with supporting documentation")
}

func TestScoreMissingQuantitiesCountAsOne(t *testing.T) {
	// Uniform nil quantities normalize to 1 so the volume rule stays quiet.
	var logs []ActivityLog
	for i := 0; i < 10; i++ {
		logs = append(logs, ActivityLog{
			ID:   fmt.Sprintf("l%d", i),
			Type: []string{"plowing", "seeding", "harvesting"}[i%3],
			Date: "2024-01-10",
		})
	}

	assessment, err := RuleScorer{}.Score(logs, 5, scoringClock)
	require.NoError(t, err)
	require.Zero(t, assessment.RiskScore)
	require.Empty(t, assessment.Anomalies)
}

func TestDecidePayoutStatusBoundaries(t *testing.T) {
	cases := []struct {
		score   float64
		status  PayoutStatus
		flagged bool
	}{
		{0, PayoutStatusRequested, false},
		{0.4, PayoutStatusRequested, false},
		{0.41, PayoutStatusPendingReview, true},
		{0.7, PayoutStatusPendingReview, true},
		{0.71, PayoutStatusFlaggedHighRisk, true},
		{1, PayoutStatusFlaggedHighRisk, true},
	}

	for _, tc := range cases {
		status, flagged := DecidePayoutStatus(tc.score)
		require.Equal(t, tc.status, status, "score %v", tc.score)
		require.Equal(t, tc.flagged, flagged, "score %v", tc.score)
	}
}

func TestSeverityLabelBuckets(t *testing.T) {
	require.Equal(t, "high", severityLabel(0.81))
	require.Equal(t, "medium", severityLabel(0.8))
	require.Equal(t, "medium", severityLabel(0.51))
	require.Equal(t, "low", severityLabel(0.5))
	require.Equal(t, "low", severityLabel(0))
}
