package model

import "time"

// Outcome is the real-world result observed for an application after the decision
type Outcome string

const (
	OutcomeActive         Outcome = "active"
	OutcomeGraduated      Outcome = "graduated"
	OutcomeAcquired       Outcome = "acquired"
	OutcomeFollowOnRaised Outcome = "follow_on_raised"
	OutcomeFailed         Outcome = "failed"
	OutcomeDroppedOut     Outcome = "dropped_out"
	OutcomeShutDown       Outcome = "shut_down"
)

// IsSuccess reports whether o counts as a good outcome
func (o Outcome) IsSuccess() bool {
	switch o {
	case OutcomeActive, OutcomeGraduated, OutcomeAcquired, OutcomeFollowOnRaised:
		return true
	}
	return false
}

// IsFailure reports whether o counts as a bad outcome
func (o Outcome) IsFailure() bool {
	switch o {
	case OutcomeFailed, OutcomeDroppedOut, OutcomeShutDown:
		return true
	}
	return false
}

// Recorded reports whether an outcome has been observed
func (o Outcome) Recorded() bool {
	return o != ""
}

// PartnerDecision is the human decision taken on an application
type PartnerDecision string

const (
	PartnerApproved PartnerDecision = "approved"
	PartnerRejected PartnerDecision = "rejected"
)

// ScoreAdjustments are partner corrections per scoring dimension (positive = AI scored too low)
type ScoreAdjustments struct {
	Founder   float64 `json:"founder"`
	Problem   float64 `json:"problem"`
	UserValue float64 `json:"user_value"`
	Execution float64 `json:"execution"`
}

// DecisionRecord is one historical DD decision with its partner review and outcome
type DecisionRecord struct {
	ApplicationID    string                `json:"application_id"`
	DDVerdict        RecommendationVerdict `json:"dd_verdict"`
	DDScore          float64               `json:"dd_score"`
	DDConfidence     float64               `json:"dd_confidence"`
	PartnerDecision  PartnerDecision       `json:"partner_decision"`
	PartnerAgreed    bool                  `json:"partner_agreed"`
	ScoreAdjustments ScoreAdjustments      `json:"score_adjustments"`
	Outcome          Outcome               `json:"outcome,omitempty"`
	DecisionDate     time.Time             `json:"decision_date"`
}

// ClaimVerificationRecord pairs an AI verdict with the verdict established later
type ClaimVerificationRecord struct {
	ClaimID       string  `json:"claim_id"`
	AIVerdict     Verdict `json:"ai_verdict"`
	AIConfidence  float64 `json:"ai_confidence"`
	ActualOutcome Verdict `json:"actual_outcome,omitempty"`
}

// SignalRecord is one historical scoring signal and the outcome of its application
type SignalRecord struct {
	SignalType string  `json:"signal_type"`
	Dimension  string  `json:"dimension"`
	Impact     float64 `json:"impact"`
	Outcome    Outcome `json:"outcome,omitempty"`
}
