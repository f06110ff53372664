package domain

import (
	"math"
	"time"
)

// Anomaly flags one suspicious pattern found in an owner's activity history.
type Anomaly struct {
	Type        string
	Severity    string
	Description string
}

// Assessment is the outcome of risk scoring a payout request.
type Assessment struct {
	RiskScore       float64 // bounded [0, 1]
	Anomalies       []Anomaly
	Recommendations []string
}

// RiskScorer estimates how likely a payout request reflects fraudulent or
// erroneous activity reporting.
type RiskScorer interface {
	Score(logs []ActivityLog, requestedAmount float64, now time.Time) (Assessment, error)
}

const (
	anomalyTemporalSpike = "temporal_spike"
	anomalyVolumeSpike   = "volume_spike"

	temporalSpikeSeverity = 0.7
	volumeSpikeSeverity   = 0.6

	// Weights applied to anomaly severities in the risk sum.
	temporalWeight = 0.3
	volumeWeight   = 0.4
)

// RuleScorer is the fixed arithmetic rule system used for payout screening.
// Despite the "anomaly detection" framing it is not a learned model: the
// thresholds below are the documented, tested contract.
type RuleScorer struct{}

// Score computes a bounded risk score from temporal and volume statistics of
// the owner's logs. Pure apart from the supplied evaluation clock; it never
// returns an error, but the interface allows remote scorers that can.
func (RuleScorer) Score(logs []ActivityLog, requestedAmount float64, now time.Time) (Assessment, error) {
	risk := 0.0

	// Pattern analysis: heavy reporting and low type diversity.
	types := make(map[string]struct{})
	for _, l := range logs {
		types[l.Type] = struct{}{}
	}
	if len(logs) > 50 {
		risk += 0.2
	}
	if len(types) < 3 {
		risk += 0.1
	}

	var anomalies []Anomaly

	// Temporal: more than 80% of all logs inside the trailing 30 days.
	cutoff := now.AddDate(0, 0, -30)
	recent := 0
	for _, l := range logs {
		if logTime(l).After(cutoff) {
			recent++
		}
	}
	if float64(recent) > float64(len(logs))*0.8 {
		anomalies = append(anomalies, Anomaly{
			Type:        anomalyTemporalSpike,
			Severity:    severityLabel(temporalSpikeSeverity),
			Description: "Unusual concentration of recent activities",
		})
		risk += temporalSpikeSeverity * temporalWeight
	}

	// Volume: a single entry dwarfing the owner's average quantity.
	if len(logs) > 0 {
		sum, max := 0.0, math.Inf(-1)
		for _, l := range logs {
			q := NormalizeQuantity(l.Quantity)
			sum += q
			if q > max {
				max = q
			}
		}
		avg := sum / float64(len(logs))
		if max > avg*5 {
			anomalies = append(anomalies, Anomaly{
				Type:        anomalyVolumeSpike,
				Severity:    severityLabel(volumeSpikeSeverity),
				Description: "Unusually large quantity reported in single entry",
			})
			risk += volumeSpikeSeverity * volumeWeight
		}
	}

	risk = math.Min(1, risk)

	return Assessment{
		RiskScore:       risk,
		Anomalies:       anomalies,
		Recommendations: recommendations(risk, anomalies),
	}, nil
}

// logTime resolves the instant used for temporal comparison, preferring the
// reported calendar date over the ingestion timestamp.
func logTime(l ActivityLog) time.Time {
	if ts, err := time.Parse("2006-01-02", l.Date); err == nil {
		return ts
	}
	return l.CreatedAt
}

// severityLabel buckets an anomaly severity score for output.
func severityLabel(score float64) string {
	switch {
	case score > 0.8:
		return "high"
	case score > 0.5:
		return "medium"
	default:
		return "low"
	}
}

func recommendations(risk float64, anomalies []Anomaly) []string {
	var out []string

	switch {
	case risk > 0.7:
		out = append(out,
			"High risk detected - manual review recommended",
			"Verify large quantity entries with supporting documentation",
		)
	case risk > 0.4:
		out = append(out, "Medium risk - additional verification may be needed")
	default:
		out = append(out, "Low risk - normal activity pattern detected")
	}

	for _, a := range anomalies {
		switch a.Type {
		case anomalyTemporalSpike:
			out = append(out, "Recent activity spike detected - verify timing and authenticity")
		case anomalyVolumeSpike:
			out = append(out, "Large quantity entries detected - verify measurements and methods")
		}
	}

	return out
}
