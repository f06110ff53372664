package domain

// CoefficientTable maps an activity type to its signed tCO2e-per-unit rate.
// Emission-producing activities carry negative rates, sequestration-producing
// activities positive ones. The table is loaded once at startup and treated
// as read-only; callers receive it by injection rather than through a global.
type CoefficientTable map[string]float64

// Coefficient returns the rate for the activity type, or 0 for unknown types.
// Unknown types contribute nothing to the ledger but still count toward
// volume and frequency statistics in risk scoring.
func (t CoefficientTable) Coefficient(activityType string) float64 {
	return t[activityType]
}

// DefaultCoefficients returns the standard agroforestry/rice coefficient set.
func DefaultCoefficients() CoefficientTable {
	return CoefficientTable{
		"plowing":        -0.01,
		"seeding":        -0.002,
		"harvesting":     -0.005,
		"fertilizer":     -0.001,
		"pesticide":      -0.0005,
		"irrigation":     -0.0008,
		"machinery":      -0.02,
		"tree_planting":  0.1,
		"cover_cropping": 0.02,
	}
}
