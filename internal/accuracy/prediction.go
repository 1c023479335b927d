package accuracy

import "github.com/ppiankov/diligence/internal/model"

// RecommendationAccuracy counts how often one kind of recommendation was borne out
type RecommendationAccuracy struct {
	Total           int `json:"total"`
	CorrectOutcomes int `json:"correctOutcomes"`
	Accuracy        int `json:"accuracy"` // Percent
}

// ConditionalResolution tracks how partners resolved conditional recommendations
type ConditionalResolution struct {
	Total           int `json:"total"`
	PartnerApproved int `json:"partnerApproved"`
	PartnerRejected int `json:"partnerRejected"`
}

// PredictionAccuracy is metric group 1
type PredictionAccuracy struct {
	InvestRecommendations RecommendationAccuracy `json:"investRecommendations"`
	PassRecommendations   RecommendationAccuracy `json:"passRecommendations"`
	ConditionalInvest     ConditionalResolution  `json:"conditionalInvest"`
	Overall               RecommendationAccuracy `json:"overall"`
}

// predictionAccuracy scores invest-like verdicts (invest, conditional_invest) against
// success outcomes and pass verdicts against failure outcomes.
func predictionAccuracy(decisions []model.DecisionRecord) PredictionAccuracy {
	var invest, pass RecommendationAccuracy
	var conditional ConditionalResolution

	for _, d := range decisions {
		switch d.DDVerdict {
		case model.VerdictInvest, model.VerdictConditionalInvest:
			invest.Total++
			if d.Outcome.IsSuccess() {
				invest.CorrectOutcomes++
			}
			if d.DDVerdict == model.VerdictConditionalInvest {
				conditional.Total++
				switch d.PartnerDecision {
				case model.PartnerApproved:
					conditional.PartnerApproved++
				case model.PartnerRejected:
					conditional.PartnerRejected++
				}
			}
		case model.VerdictPass:
			pass.Total++
			if d.Outcome.IsFailure() {
				pass.CorrectOutcomes++
			}
		}
	}

	invest.Accuracy = percent(invest.CorrectOutcomes, invest.Total)
	pass.Accuracy = percent(pass.CorrectOutcomes, pass.Total)

	overall := RecommendationAccuracy{
		Total:           invest.Total + pass.Total,
		CorrectOutcomes: invest.CorrectOutcomes + pass.CorrectOutcomes,
	}
	overall.Accuracy = percent(overall.CorrectOutcomes, overall.Total)

	return PredictionAccuracy{
		InvestRecommendations: invest,
		PassRecommendations:   pass,
		ConditionalInvest:     conditional,
		Overall:               overall,
	}
}
