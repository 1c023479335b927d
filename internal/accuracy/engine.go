// Package accuracy measures how well past due diligence predictions held up.
//
// Compute is pure: it reads a snapshot of historical records, performs no I/O and
// returns the same Metrics for the same Input.
package accuracy

import (
	"math"

	"github.com/ppiankov/diligence/internal/model"
)

// Input is the batch of historical records to analyze
type Input struct {
	Decisions          []model.DecisionRecord          `json:"decisions"`
	ClaimVerifications []model.ClaimVerificationRecord `json:"claimVerifications"`
	SignalHistory      []model.SignalRecord            `json:"signalHistory"`
}

// Metrics holds the seven independent metric groups
type Metrics struct {
	PredictionAccuracy    PredictionAccuracy        `json:"predictionAccuracy"`
	ConfidenceCalibration []CalibrationBucket       `json:"confidenceCalibration"`
	PartnerOverrides      PartnerOverrides          `json:"partnerOverrides"`
	SignalEffectiveness   []SignalEffectiveness     `json:"signalEffectiveness"`
	ClaimVerification     ClaimVerificationAccuracy `json:"claimVerificationAccuracy"`
	DriftMetrics          DriftMetrics              `json:"driftMetrics"`
	PerformanceOverTime   []WeeklyPerformance       `json:"performanceOverTime"`
	TotalDecisions        int                       `json:"totalDecisions"`
	DecisionsWithOutcome  int                       `json:"decisionsWithOutcome"`
}

// Compute derives all metric groups from in
func Compute(in Input) Metrics {
	withOutcome := 0
	for _, d := range in.Decisions {
		if d.Outcome.Recorded() {
			withOutcome++
		}
	}

	return Metrics{
		PredictionAccuracy:    predictionAccuracy(in.Decisions),
		ConfidenceCalibration: confidenceCalibration(in.Decisions),
		PartnerOverrides:      partnerOverrides(in.Decisions),
		SignalEffectiveness:   signalEffectiveness(in.SignalHistory),
		ClaimVerification:     claimVerificationAccuracy(in.ClaimVerifications),
		DriftMetrics:          detectDrift(in.Decisions),
		PerformanceOverTime:   performanceOverTime(in.Decisions),
		TotalDecisions:        len(in.Decisions),
		DecisionsWithOutcome:  withOutcome,
	}
}

// percent returns round(100 * n / d), or 0 when d is 0
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(roundHalfUp(100 * float64(n) / float64(d)))
}

// roundTo rounds x to the given number of decimals, halves rounding up
func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return roundHalfUp(x*p) / p
}

// roundEpsilon absorbs binary representation error so that values such as
// 77.49999999999999 (from 0.775 * 100) still round up.
const roundEpsilon = 1e-9

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5 + roundEpsilon)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
