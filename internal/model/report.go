package model

import "time"

// RecommendationVerdict is the investment recommendation of a report
type RecommendationVerdict string

const (
	VerdictInvest            RecommendationVerdict = "invest"
	VerdictConditionalInvest RecommendationVerdict = "conditional_invest"
	VerdictPass              RecommendationVerdict = "pass"
)

// Report is the synthesized snapshot of one completed pipeline run
type Report struct {
	ID            string                `json:"id"`
	ApplicationID string                `json:"application_id"`
	OverallScore  int                   `json:"overall_score"` // 0-100
	Grade         string                `json:"grade"`         // A-F
	Verdict       RecommendationVerdict `json:"recommendation_verdict"`
	Summary       string                `json:"summary,omitempty"`
	Strengths     []string              `json:"strengths,omitempty"`
	RedFlags      []string              `json:"red_flags,omitempty"`

	TotalClaims          int                 `json:"total_claims"`
	VerifiedClaims       int                 `json:"verified_claims"`
	RefutedClaims        int                 `json:"refuted_claims"`
	DisputedClaims       int                 `json:"disputed_claims"`
	ClaimsByStatus       map[ClaimStatus]int `json:"claims_by_status,omitempty"`
	VerificationCoverage float64             `json:"verification_coverage"` // Percent of claims with a non-pending, non-unverified status
	TotalOmissions       int                 `json:"total_omissions"`

	TeamScore   *int `json:"team_score,omitempty"`
	MarketScore *int `json:"market_score,omitempty"`

	Signals     []Signal  `json:"signals"` // Transparent scoring breakdown
	GeneratedAt time.Time `json:"generated_at"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalVerificationQuality SignalType = "verification_quality"
	SignalCoverage            SignalType = "verification_coverage"
	SignalTeam                SignalType = "team_strength"
	SignalMarket              SignalType = "market_strength"
	SignalRefutedClaims       SignalType = "refuted_claims"
	SignalOmissions           SignalType = "omissions"
	SignalMissingAssessment   SignalType = "missing_assessment"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Omission is information a complete application would be expected to contain
type Omission struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"application_id"`
	Category      ClaimCategory  `json:"category"`
	Description   string         `json:"description"`
	Severity      SignalSeverity `json:"severity"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TeamAssessment is the side-channel analysis of the founding team
type TeamAssessment struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"application_id"`
	Score         int                    `json:"score"` // 0-100
	Grade         string                 `json:"grade"`
	Summary       string                 `json:"summary,omitempty"`
	Strengths     []string               `json:"strengths,omitempty"`
	Concerns      []string               `json:"concerns,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// MarketAssessment is the side-channel analysis of the target market
type MarketAssessment struct {
	ID            string                 `json:"id"`
	ApplicationID string                 `json:"application_id"`
	Score         int                    `json:"score"` // 0-100
	Grade         string                 `json:"grade"`
	Summary       string                 `json:"summary,omitempty"`
	Strengths     []string               `json:"strengths,omitempty"`
	Concerns      []string               `json:"concerns,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// GradeForScore maps a 0-100 score to a letter grade
func GradeForScore(score int) string {
	switch {
	case score >= 85:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}
