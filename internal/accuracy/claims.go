package accuracy

import "github.com/ppiankov/diligence/internal/model"

// VerdictAccuracy reports how often one AI verdict matched the established outcome
type VerdictAccuracy struct {
	TotalPredictions int     `json:"totalPredictions"`
	WithOutcome      int     `json:"withOutcome"`
	ConfirmedCorrect int     `json:"confirmedCorrect"` // Records whose actual outcome equals the AI verdict
	Accuracy         int     `json:"accuracy"`         // Percent of records with an outcome
	AvgConfidence    float64 `json:"avgConfidence"`
}

// ClaimVerificationAccuracy is metric group 5
type ClaimVerificationAccuracy struct {
	VerdictAccuracy map[string]VerdictAccuracy `json:"verdictAccuracy"`
	Overall         int                        `json:"overall"`
}

func claimVerificationAccuracy(records []model.ClaimVerificationRecord) ClaimVerificationAccuracy {
	byVerdict := make(map[string]VerdictAccuracy)
	confidences := make(map[string][]float64)
	totalWithOutcome, totalCorrect := 0, 0

	for _, r := range records {
		key := string(r.AIVerdict)
		acc := byVerdict[key]
		acc.TotalPredictions++
		if r.ActualOutcome != "" {
			acc.WithOutcome++
			totalWithOutcome++
			if r.ActualOutcome == r.AIVerdict {
				acc.ConfirmedCorrect++
				totalCorrect++
			}
		}
		byVerdict[key] = acc
		confidences[key] = append(confidences[key], r.AIConfidence)
	}

	for key, acc := range byVerdict {
		acc.Accuracy = percent(acc.ConfirmedCorrect, acc.WithOutcome)
		acc.AvgConfidence = roundTo(mean(confidences[key]), 2)
		byVerdict[key] = acc
	}

	return ClaimVerificationAccuracy{
		VerdictAccuracy: byVerdict,
		Overall:         percent(totalCorrect, totalWithOutcome),
	}
}
