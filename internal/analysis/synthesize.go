package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// statusWeight is how much a resolved claim contributes to verification quality
var statusWeight = map[model.ClaimStatus]float64{
	model.ClaimConfirmed:  1.0,
	model.ClaimAIVerified: 0.7,
	model.ClaimUnverified: 0.3,
	model.ClaimDisputed:   0.1,
	model.ClaimRefuted:    0,
}

// Verdict thresholds
const (
	investThreshold      = 70
	conditionalThreshold = 50
	neutralSideScore     = 50 // Assumed when a team or market assessment is missing
)

// Synthesizer builds reports with a transparent weighted score
type Synthesizer struct {
	now func() time.Time
}

// NewSynthesizer creates a new synthesizer
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{now: time.Now}
}

// Synthesize scores the run and assembles the report. Every scoring component
// is recorded as a signal.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var signals []model.Signal

	// 1. Verification quality (0-35 points)
	qualityScore, qualitySignal := s.verificationQuality(in.Claims)
	signals = append(signals, qualitySignal)

	// 2. Coverage (0-15 points)
	coverage := verificationCoverage(in.Claims)
	coverageScore, coverageSignal := s.coverage(coverage, len(in.Claims))
	signals = append(signals, coverageSignal)

	// 3. Team (0-25 points)
	var teamScore *int
	if in.Team != nil {
		teamScore = &in.Team.Score
	}
	teamPoints, teamSignal := s.sideChannel(model.SignalTeam, "Team", teamScore)
	signals = append(signals, teamSignal)

	// 4. Market (0-25 points)
	var marketScore *int
	if in.Market != nil {
		marketScore = &in.Market.Score
	}
	marketPoints, marketSignal := s.sideChannel(model.SignalMarket, "Market", marketScore)
	signals = append(signals, marketSignal)

	total := qualityScore + coverageScore + teamPoints + marketPoints

	// 5. Refuted claims (penalty)
	counts := countByStatus(in.Claims)
	if penalty, signal, ok := s.refutedPenalty(counts[model.ClaimRefuted]); ok {
		total -= penalty
		signals = append(signals, signal)
	}

	// 6. Omissions (penalty)
	if penalty, signal, ok := s.omissionPenalty(in.Omissions); ok {
		total -= penalty
		signals = append(signals, signal)
	}

	total = clamp(total, 0, 100)
	verdict := recommend(total, counts[model.ClaimRefuted])

	report := &model.Report{
		ApplicationID:        in.Application.ID,
		OverallScore:         total,
		Grade:                model.GradeForScore(total),
		Verdict:              verdict,
		TotalClaims:          len(in.Claims),
		VerifiedClaims:       counts[model.ClaimConfirmed] + counts[model.ClaimAIVerified],
		RefutedClaims:        counts[model.ClaimRefuted],
		DisputedClaims:       counts[model.ClaimDisputed],
		ClaimsByStatus:       counts,
		VerificationCoverage: coverage,
		TotalOmissions:       len(in.Omissions),
		TeamScore:            teamScore,
		MarketScore:          marketScore,
		Strengths:            strengths(in),
		RedFlags:             redFlags(in),
		Signals:              signals,
		GeneratedAt:          s.now().UTC(),
	}
	report.Summary = fmt.Sprintf("%s: score %d/100 (grade %s), recommendation %s. %d of %d claims verified, %d disputed, %d refuted.",
		companyName(in.Application), report.OverallScore, report.Grade, report.Verdict,
		report.VerifiedClaims, report.TotalClaims, report.DisputedClaims, report.RefutedClaims)
	return report, nil
}

func (s *Synthesizer) verificationQuality(claims []model.Claim) (int, model.Signal) {
	if len(claims) == 0 {
		return 0, model.Signal{
			Type:        model.SignalVerificationQuality,
			Severity:    model.SeverityCritical,
			Description: "No claims extracted",
			Data:        map[string]interface{}{"claims": 0},
		}
	}

	sum := 0.0
	for _, c := range claims {
		sum += statusWeight[c.Status] // pending weighs 0
	}
	quality := sum / float64(len(claims))
	score := int(math.Round(quality * 35))

	severity := model.SeverityInfo
	if quality < 0.3 {
		severity = model.SeverityCritical
	} else if quality < 0.5 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalVerificationQuality,
		Severity:    severity,
		Description: fmt.Sprintf("Weighted verification quality: %.2f", quality),
		Data: map[string]interface{}{
			"claims":  len(claims),
			"quality": quality,
			"score":   score,
			"formula": "mean(confirmed=1, ai_verified=0.7, unverified=0.3, disputed=0.1, refuted=0, pending=0) * 35",
		},
	}
}

func (s *Synthesizer) coverage(coverage float64, claims int) (int, model.Signal) {
	score := int(math.Round(coverage / 100 * 15))

	severity := model.SeverityInfo
	if coverage < 25 {
		severity = model.SeverityCritical
	} else if coverage < 50 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Verification coverage: %.1f%%", coverage),
		Data: map[string]interface{}{
			"claims":   claims,
			"coverage": coverage,
			"score":    score,
			"formula":  "coverage_percent / 100 * 15",
		},
	}
}

func (s *Synthesizer) sideChannel(typ model.SignalType, label string, score *int) (int, model.Signal) {
	if score == nil {
		points := neutralSideScore * 25 / 100
		return points, model.Signal{
			Type:        model.SignalMissingAssessment,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%s assessment unavailable (assuming neutral)", label),
			Data:        map[string]interface{}{"assessment": label, "score": points},
		}
	}

	points := int(math.Round(float64(*score) * 25 / 100))
	severity := model.SeverityInfo
	if *score < 40 {
		severity = model.SeverityWarning
	}
	return points, model.Signal{
		Type:        typ,
		Severity:    severity,
		Description: fmt.Sprintf("%s score %d/100", label, *score),
		Data: map[string]interface{}{
			"assessment_score": *score,
			"score":            points,
			"formula":          "assessment_score / 100 * 25",
		},
	}
}

func (s *Synthesizer) refutedPenalty(refuted int) (int, model.Signal, bool) {
	if refuted == 0 {
		return 0, model.Signal{}, false
	}
	penalty := min(refuted*10, 30)
	return penalty, model.Signal{
		Type:        model.SignalRefutedClaims,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("%d refuted claim(s)", refuted),
		Data: map[string]interface{}{
			"refuted": refuted,
			"penalty": penalty,
			"formula": "min(refuted * 10, 30)",
		},
	}, true
}

func (s *Synthesizer) omissionPenalty(omissions []model.Omission) (int, model.Signal, bool) {
	if len(omissions) == 0 {
		return 0, model.Signal{}, false
	}
	critical, warning := 0, 0
	for _, o := range omissions {
		switch o.Severity {
		case model.SeverityCritical:
			critical++
		case model.SeverityWarning:
			warning++
		}
	}
	penalty := min(critical*5+warning*2, 15)

	severity := model.SeverityInfo
	if critical > 0 {
		severity = model.SeverityCritical
	} else if warning > 0 {
		severity = model.SeverityWarning
	}
	return penalty, model.Signal{
		Type:        model.SignalOmissions,
		Severity:    severity,
		Description: fmt.Sprintf("%d omission(s): %d critical, %d warning", len(omissions), critical, warning),
		Data: map[string]interface{}{
			"omissions": len(omissions),
			"critical":  critical,
			"warning":   warning,
			"penalty":   penalty,
			"formula":   "min(critical*5 + warning*2, 15)",
		},
	}, true
}

// recommend maps score and refuted count to a verdict
func recommend(score, refuted int) model.RecommendationVerdict {
	switch {
	case refuted >= 2:
		return model.VerdictPass
	case score >= investThreshold && refuted == 0:
		return model.VerdictInvest
	case score >= conditionalThreshold:
		return model.VerdictConditionalInvest
	default:
		return model.VerdictPass
	}
}

// verificationCoverage is the percent of claims resolved to something other
// than pending or unverified, to one decimal
func verificationCoverage(claims []model.Claim) float64 {
	if len(claims) == 0 {
		return 0
	}
	covered := 0
	for _, c := range claims {
		if c.Status != model.ClaimPending && c.Status != model.ClaimUnverified && c.Status != "" {
			covered++
		}
	}
	return math.Round(float64(covered)/float64(len(claims))*1000) / 10
}

func countByStatus(claims []model.Claim) map[model.ClaimStatus]int {
	counts := make(map[model.ClaimStatus]int)
	for _, c := range claims {
		status := c.Status
		if status == "" {
			status = model.ClaimPending
		}
		counts[status]++
	}
	return counts
}

func strengths(in SynthesisInput) []string {
	var out []string
	for _, c := range in.Claims {
		if c.Status == model.ClaimConfirmed && c.Priority == model.PriorityHigh && len(out) < 5 {
			out = append(out, "Verified: "+truncate(c.Text, 120))
		}
	}
	if in.Team != nil {
		out = append(out, in.Team.Strengths...)
	}
	if in.Market != nil {
		out = append(out, in.Market.Strengths...)
	}
	return out
}

func redFlags(in SynthesisInput) []string {
	var out []string
	for _, c := range in.Claims {
		switch c.Status {
		case model.ClaimRefuted:
			out = append(out, "Refuted: "+truncate(c.Text, 120))
		case model.ClaimDisputed:
			out = append(out, "Disputed: "+truncate(c.Text, 120))
		}
	}
	for _, o := range in.Omissions {
		if o.Severity == model.SeverityCritical {
			out = append(out, "Missing: "+o.Description)
		}
	}
	if in.Team != nil {
		out = append(out, in.Team.Concerns...)
	}
	if in.Market != nil {
		out = append(out, in.Market.Concerns...)
	}
	return out
}

func companyName(app model.Application) string {
	if app.CompanyName != "" {
		return app.CompanyName
	}
	return app.ID
}
