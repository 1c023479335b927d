// Package insight turns accuracy metrics into human-readable findings.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/logging"
)

// Rule thresholds
const (
	minAgreementRate      = 70
	maxCalibrationError   = 20
	minCalibrationSamples = 5
	maxDimensionOverride  = 30
)

// NormalMessage is emitted when no rule fires
const NormalMessage = "All accuracy metrics are within normal ranges."

// Narrator produces narrative insights from metrics (typically an LLM)
type Narrator interface {
	Narrate(ctx context.Context, metrics accuracy.Metrics) ([]string, error)
}

// Generator produces insights, preferring the narrator when one is configured
type Generator struct {
	narrator Narrator
	logger   *slog.Logger
}

// NewGenerator creates a generator; narrator may be nil
func NewGenerator(narrator Narrator) *Generator {
	return &Generator{
		narrator: narrator,
		logger:   logging.New("insight"),
	}
}

// Generate returns narrative insights when the narrator succeeds with a non-empty
// result, and the deterministic rule findings otherwise. It never fails.
func (g *Generator) Generate(ctx context.Context, m accuracy.Metrics) []string {
	if g.narrator != nil {
		insights, err := g.narrator.Narrate(ctx, m)
		switch {
		case err != nil:
			g.logger.Debug("narrative insights unavailable, using rules", "error", err)
		case len(nonBlank(insights)) == 0:
			g.logger.Debug("narrative insights empty, using rules")
		default:
			return nonBlank(insights)
		}
	}
	return Rules(m)
}

// Rules evaluates the deterministic rule set in a fixed order
func Rules(m accuracy.Metrics) []string {
	var insights []string

	if m.TotalDecisions > 0 {
		if s := agreementRule(m.PartnerOverrides); s != "" {
			insights = append(insights, s)
		}
	}
	if s := driftRule(m.DriftMetrics); s != "" {
		insights = append(insights, s)
	}
	insights = append(insights, calibrationRule(m.ConfidenceCalibration)...)
	insights = append(insights, overrideRule(m.PartnerOverrides)...)

	if len(insights) == 0 {
		return []string{NormalMessage}
	}
	return insights
}

func agreementRule(po accuracy.PartnerOverrides) string {
	if po.AgreementRate >= minAgreementRate {
		return ""
	}
	return fmt.Sprintf("Partner agreement is low at %d%% (target %d%%): review where DD recommendations diverge from partner decisions.",
		po.AgreementRate, minAgreementRate)
}

func driftRule(d accuracy.DriftMetrics) string {
	switch d.AlertLevel {
	case accuracy.AlertCritical:
		return fmt.Sprintf("Critical model drift: scores shifted %.1f points and confidence drifted %+.2f between earlier and recent decisions. Recalibrate before relying on new recommendations.",
			d.ScoreDistributionShift, d.ConfidenceDrift)
	case accuracy.AlertWarning:
		return fmt.Sprintf("Possible model drift: scores shifted %.1f points and confidence drifted %+.2f between earlier and recent decisions.",
			d.ScoreDistributionShift, d.ConfidenceDrift)
	}
	return ""
}

func calibrationRule(buckets []accuracy.CalibrationBucket) []string {
	var out []string
	for _, b := range buckets {
		if b.CalibrationError <= maxCalibrationError || b.SampleSize <= minCalibrationSamples {
			continue
		}
		kind := "underconfident"
		if b.PredictedAccuracy > b.ActualAccuracy {
			kind = "overconfident"
		}
		out = append(out, fmt.Sprintf("DD is %s in the %s confidence range: expected %d%% accuracy, observed %d%% (n=%d).",
			kind, b.Range, b.PredictedAccuracy, b.ActualAccuracy, b.SampleSize))
	}
	return out
}

func overrideRule(po accuracy.PartnerOverrides) []string {
	var out []string
	for _, dim := range accuracy.Dimensions {
		o, ok := po.ByDimension[dim]
		if !ok || o.OverrideRate <= maxDimensionOverride {
			continue
		}
		switch o.Direction {
		case accuracy.DirectionAITooLow:
			out = append(out, fmt.Sprintf("DD systematically under-scores %s: partners adjusted %d%% of decisions (avg %+.1f).",
				dim, o.OverrideRate, o.AvgAdjustment))
		case accuracy.DirectionAITooHigh:
			out = append(out, fmt.Sprintf("DD systematically over-scores %s: partners adjusted %d%% of decisions (avg %+.1f).",
				dim, o.OverrideRate, o.AvgAdjustment))
		default:
			out = append(out, fmt.Sprintf("Partners frequently override the %s score (%d%% of decisions) without a consistent direction.",
				dim, o.OverrideRate))
		}
	}
	return out
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
