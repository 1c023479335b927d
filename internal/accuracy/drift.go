package accuracy

import (
	"math"
	"sort"

	"github.com/ppiankov/diligence/internal/model"
)

// Drift alert levels
const (
	AlertNormal   = "normal"
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// Drift thresholds: score shift in points, confidence drift as an absolute fraction
const (
	criticalScoreShift      = 15.0
	criticalConfidenceDrift = 0.15
	warningScoreShift       = 8.0
	warningConfidenceDrift  = 0.08
)

// PeriodStats summarizes one half of the decision history
type PeriodStats struct {
	Count         int     `json:"count"`
	AvgScore      float64 `json:"avgScore"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// DriftMetrics is metric group 6
type DriftMetrics struct {
	ScoreDistributionShift float64     `json:"scoreDistributionShift"`
	ConfidenceDrift        float64     `json:"confidenceDrift"` // Signed: later minus earlier
	AlertLevel             string      `json:"alertLevel"`
	EarlierPeriod          PeriodStats `json:"earlierPeriod"`
	RecentPeriod           PeriodStats `json:"recentPeriod"`
}

// detectDrift splits date-ordered decisions at the midpoint and compares the halves
func detectDrift(decisions []model.DecisionRecord) DriftMetrics {
	if len(decisions) < 2 {
		return DriftMetrics{AlertLevel: AlertNormal}
	}

	sorted := make([]model.DecisionRecord, len(decisions))
	copy(sorted, decisions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DecisionDate.Before(sorted[j].DecisionDate)
	})

	mid := len(sorted) / 2
	earlyScore, earlyConf := periodMeans(sorted[:mid])
	recentScore, recentConf := periodMeans(sorted[mid:])

	// Only the differences are rounded, never the means they come from.
	shift := roundTo(math.Abs(recentScore-earlyScore), 1)
	confDrift := roundTo(recentConf-earlyConf, 2)

	return DriftMetrics{
		ScoreDistributionShift: shift,
		ConfidenceDrift:        confDrift,
		AlertLevel:             alertLevel(shift, confDrift),
		EarlierPeriod:          periodStats(mid, earlyScore, earlyConf),
		RecentPeriod:           periodStats(len(sorted)-mid, recentScore, recentConf),
	}
}

func periodMeans(decisions []model.DecisionRecord) (score, confidence float64) {
	scores := make([]float64, len(decisions))
	confidences := make([]float64, len(decisions))
	for i, d := range decisions {
		scores[i] = d.DDScore
		confidences[i] = d.DDConfidence
	}
	return mean(scores), mean(confidences)
}

func periodStats(count int, score, confidence float64) PeriodStats {
	return PeriodStats{
		Count:         count,
		AvgScore:      roundTo(score, 1),
		AvgConfidence: roundTo(confidence, 2),
	}
}

func alertLevel(shift, confDrift float64) string {
	absDrift := math.Abs(confDrift)
	switch {
	case shift > criticalScoreShift || absDrift > criticalConfidenceDrift:
		return AlertCritical
	case shift > warningScoreShift || absDrift > warningConfidenceDrift:
		return AlertWarning
	default:
		return AlertNormal
	}
}
