package model

import "time"

// StatusSummary answers the status query for one application
type StatusSummary struct {
	ApplicationID string         `json:"application_id"`
	DDStatus      DDStatus       `json:"dd_status"`
	ClaimsCount   int            `json:"claims_count"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	ReportSummary *ReportSummary `json:"report_summary,omitempty"`
}

// ReportSummary is the compact view of the current report
type ReportSummary struct {
	OverallScore         int     `json:"overall_score"`
	Grade                string  `json:"grade"`
	TotalClaims          int     `json:"total_claims"`
	VerifiedClaims       int     `json:"verified_claims"`
	RefutedClaims        int     `json:"refuted_claims"`
	VerificationCoverage float64 `json:"verification_coverage"`
}

// SummarizeReport builds the compact summary of r
func SummarizeReport(r *Report) *ReportSummary {
	if r == nil {
		return nil
	}
	return &ReportSummary{
		OverallScore:         r.OverallScore,
		Grade:                r.Grade,
		TotalClaims:          r.TotalClaims,
		VerifiedClaims:       r.VerifiedClaims,
		RefutedClaims:        r.RefutedClaims,
		VerificationCoverage: r.VerificationCoverage,
	}
}

// RunResult is returned by a pipeline trigger
type RunResult struct {
	ApplicationID string      `json:"application_id"`
	RunID         string      `json:"run_id,omitempty"`
	Status        DDStatus    `json:"dd_status"`
	Skipped       bool        `json:"skipped,omitempty"` // Already completed and not forced
	Report        *Report     `json:"report,omitempty"`
	Metadata      RunMetadata `json:"metadata"`
}

// RunMetadata summarizes what a run produced
type RunMetadata struct {
	TotalClaims           int                   `json:"total_claims"`
	TotalVerifications    int                   `json:"total_verifications"`
	TotalOmissions        int                   `json:"total_omissions"`
	Score                 int                   `json:"score"`
	Grade                 string                `json:"grade"`
	RecommendationVerdict RecommendationVerdict `json:"recommendation_verdict"`
	TeamScore             *int                  `json:"team_score,omitempty"`
	TeamGrade             string                `json:"team_grade,omitempty"`
	MarketScore           *int                  `json:"market_score,omitempty"`
	MarketGrade           string                `json:"market_grade,omitempty"`
}
