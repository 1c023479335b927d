package accuracy

import "github.com/ppiankov/diligence/internal/model"

// Scoring dimensions partners can adjust
const (
	DimensionFounder   = "founder"
	DimensionProblem   = "problem"
	DimensionUserValue = "userValue"
	DimensionExecution = "execution"
)

// Dimensions lists the scoring dimensions in reporting order
var Dimensions = []string{DimensionFounder, DimensionProblem, DimensionUserValue, DimensionExecution}

// Override directions
const (
	DirectionAITooLow  = "ai_too_low"
	DirectionAITooHigh = "ai_too_high"
	DirectionBalanced  = "balanced"
)

// directionThreshold is the mean adjustment (in score points) that counts as systematic
const directionThreshold = 2.0

// DimensionOverride describes partner corrections on one dimension
type DimensionOverride struct {
	OverrideRate  int     `json:"overrideRate"`  // Percent of decisions with a non-zero adjustment
	AvgAdjustment float64 `json:"avgAdjustment"` // Mean of the non-zero adjustments
	Direction     string  `json:"direction"`
}

// PartnerOverrides is metric group 3
type PartnerOverrides struct {
	AgreementRate int                          `json:"agreementRate"`
	ByDimension   map[string]DimensionOverride `json:"byDimension"`
}

func partnerOverrides(decisions []model.DecisionRecord) PartnerOverrides {
	total := len(decisions)
	agreed := 0
	nonZero := make(map[string][]float64, len(Dimensions))

	for _, d := range decisions {
		if d.PartnerAgreed {
			agreed++
		}
		for _, dim := range Dimensions {
			if adj := adjustment(d.ScoreAdjustments, dim); adj != 0 {
				nonZero[dim] = append(nonZero[dim], adj)
			}
		}
	}

	byDim := make(map[string]DimensionOverride, len(Dimensions))
	for _, dim := range Dimensions {
		adjustments := nonZero[dim]
		avg := mean(adjustments)
		byDim[dim] = DimensionOverride{
			OverrideRate:  percent(len(adjustments), total),
			AvgAdjustment: roundTo(avg, 1),
			Direction:     direction(avg),
		}
	}

	return PartnerOverrides{
		AgreementRate: percent(agreed, total),
		ByDimension:   byDim,
	}
}

func adjustment(a model.ScoreAdjustments, dim string) float64 {
	switch dim {
	case DimensionFounder:
		return a.Founder
	case DimensionProblem:
		return a.Problem
	case DimensionUserValue:
		return a.UserValue
	case DimensionExecution:
		return a.Execution
	}
	return 0
}

func direction(avg float64) string {
	switch {
	case avg > directionThreshold:
		return DirectionAITooLow
	case avg < -directionThreshold:
		return DirectionAITooHigh
	default:
		return DirectionBalanced
	}
}
