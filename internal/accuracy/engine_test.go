package accuracy

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/diligence/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// scenarioDecisions is the four-application reference history
func scenarioDecisions() []model.DecisionRecord {
	return []model.DecisionRecord{
		{
			ApplicationID: "app-1", DDVerdict: model.VerdictInvest, DDScore: 75, DDConfidence: 0.85,
			PartnerDecision: model.PartnerApproved, PartnerAgreed: true,
			ScoreAdjustments: model.ScoreAdjustments{Founder: 5},
			Outcome:          model.OutcomeActive, DecisionDate: day("2024-01-08"),
		},
		{
			ApplicationID: "app-2", DDVerdict: model.VerdictPass, DDScore: 35, DDConfidence: 0.7,
			PartnerDecision: model.PartnerRejected, PartnerAgreed: true,
			Outcome: model.OutcomeFailed, DecisionDate: day("2024-01-10"),
		},
		{
			ApplicationID: "app-3", DDVerdict: model.VerdictInvest, DDScore: 68, DDConfidence: 0.6,
			PartnerDecision: model.PartnerApproved, PartnerAgreed: false,
			ScoreAdjustments: model.ScoreAdjustments{Founder: -10, Execution: 4},
			Outcome:          model.OutcomeDroppedOut, DecisionDate: day("2024-01-17"),
		},
		{
			ApplicationID: "app-4", DDVerdict: model.VerdictConditionalInvest, DDScore: 55, DDConfidence: 0.5,
			PartnerDecision: model.PartnerApproved, PartnerAgreed: true,
			DecisionDate: day("2024-01-18"),
		},
	}
}

func TestCompute_PredictionAccuracyScenario(t *testing.T) {
	m := Compute(Input{Decisions: scenarioDecisions()})
	pa := m.PredictionAccuracy

	if pa.InvestRecommendations.Total != 3 || pa.InvestRecommendations.CorrectOutcomes != 1 {
		t.Errorf("invest = %+v, want total 3 correct 1", pa.InvestRecommendations)
	}
	if pa.InvestRecommendations.Accuracy != 33 {
		t.Errorf("invest accuracy = %d, want 33", pa.InvestRecommendations.Accuracy)
	}

	wantPass := RecommendationAccuracy{Total: 1, CorrectOutcomes: 1, Accuracy: 100}
	if diff := cmp.Diff(wantPass, pa.PassRecommendations); diff != "" {
		t.Errorf("pass recommendations mismatch (-want +got):\n%s", diff)
	}

	wantCond := ConditionalResolution{Total: 1, PartnerApproved: 1}
	if diff := cmp.Diff(wantCond, pa.ConditionalInvest); diff != "" {
		t.Errorf("conditional mismatch (-want +got):\n%s", diff)
	}

	if pa.Overall.Total != 4 || pa.Overall.CorrectOutcomes != 2 || pa.Overall.Accuracy != 50 {
		t.Errorf("overall = %+v", pa.Overall)
	}
}

func TestCompute_PartnerOverridesScenario(t *testing.T) {
	m := Compute(Input{Decisions: scenarioDecisions()})
	po := m.PartnerOverrides

	if po.AgreementRate != 75 {
		t.Errorf("agreement rate = %d, want 75", po.AgreementRate)
	}

	founder := po.ByDimension[DimensionFounder]
	if founder.OverrideRate != 50 {
		t.Errorf("founder override rate = %d, want 50", founder.OverrideRate)
	}
	// mean of non-zero adjustments [5, -10]
	if founder.AvgAdjustment != -2.5 {
		t.Errorf("founder avg adjustment = %v, want -2.5", founder.AvgAdjustment)
	}
	if founder.Direction != DirectionAITooHigh {
		t.Errorf("founder direction = %s, want %s", founder.Direction, DirectionAITooHigh)
	}

	execution := po.ByDimension[DimensionExecution]
	if execution.OverrideRate != 25 || execution.Direction != DirectionAITooLow {
		t.Errorf("execution = %+v", execution)
	}

	problem := po.ByDimension[DimensionProblem]
	if problem.OverrideRate != 0 || problem.AvgAdjustment != 0 || problem.Direction != DirectionBalanced {
		t.Errorf("problem = %+v", problem)
	}
}

func TestCompute_CalibrationSampleSizesSumToDecisions(t *testing.T) {
	inputs := [][]model.DecisionRecord{
		nil,
		scenarioDecisions(),
		{
			{DDConfidence: 0}, {DDConfidence: 0.2}, {DDConfidence: 0.399}, {DDConfidence: 0.8},
			{DDConfidence: 1.0}, {DDConfidence: 1.3}, {DDConfidence: -0.1}, {DDConfidence: math.NaN()},
		},
	}

	for i, decisions := range inputs {
		m := Compute(Input{Decisions: decisions})
		if len(m.ConfidenceCalibration) != 5 {
			t.Fatalf("case %d: expected 5 buckets, got %d", i, len(m.ConfidenceCalibration))
		}
		sum := 0
		for _, b := range m.ConfidenceCalibration {
			sum += b.SampleSize
		}
		if sum != len(decisions) {
			t.Errorf("case %d: bucket samples sum to %d, want %d", i, sum, len(decisions))
		}
	}
}

func TestCompute_CalibrationBuckets(t *testing.T) {
	m := Compute(Input{Decisions: scenarioDecisions()})
	b := m.ConfidenceCalibration

	wantPredicted := []int{10, 30, 50, 70, 90}
	for i, want := range wantPredicted {
		if b[i].PredictedAccuracy != want {
			t.Errorf("bucket %d predicted = %d, want %d", i, b[i].PredictedAccuracy, want)
		}
	}

	// 0.5 has no outcome yet
	if b[2].SampleSize != 1 || b[2].ActualAccuracy != 0 || b[2].CalibrationError != 50 {
		t.Errorf("bucket 0.4-0.6 = %+v", b[2])
	}
	// 0.6 disagreed with outcome, 0.7 agreed with outcome -> 50% actual
	if b[3].SampleSize != 2 || b[3].ActualAccuracy != 50 || b[3].CalibrationError != 20 {
		t.Errorf("bucket 0.6-0.8 = %+v", b[3])
	}
	if b[4].SampleSize != 1 || b[4].ActualAccuracy != 100 || b[4].CalibrationError != 10 {
		t.Errorf("bucket 0.8-1.0 = %+v", b[4])
	}
	if b[4].Range != "80-100%" {
		t.Errorf("range label = %q", b[4].Range)
	}
}

func TestCompute_ClaimVerificationScenario(t *testing.T) {
	records := []model.ClaimVerificationRecord{
		{ClaimID: "c1", AIVerdict: model.VerdictConfirmed, AIConfidence: 0.9, ActualOutcome: model.VerdictConfirmed},
		{ClaimID: "c2", AIVerdict: model.VerdictDisputed, AIConfidence: 0.6, ActualOutcome: model.VerdictDisputed},
		{ClaimID: "c3", AIVerdict: model.VerdictConfirmed, AIConfidence: 0.7, ActualOutcome: model.VerdictRefuted},
	}
	m := Compute(Input{ClaimVerifications: records})

	confirmed := m.ClaimVerification.VerdictAccuracy["confirmed"]
	if confirmed.TotalPredictions != 2 || confirmed.ConfirmedCorrect != 1 {
		t.Errorf("confirmed = %+v, want total 2 correct 1", confirmed)
	}
	if confirmed.Accuracy != 50 {
		t.Errorf("confirmed accuracy = %d, want 50", confirmed.Accuracy)
	}
	if confirmed.AvgConfidence != 0.8 {
		t.Errorf("confirmed avg confidence = %v, want 0.8", confirmed.AvgConfidence)
	}

	disputed := m.ClaimVerification.VerdictAccuracy["disputed"]
	if disputed.TotalPredictions != 1 || disputed.ConfirmedCorrect != 1 || disputed.Accuracy != 100 {
		t.Errorf("disputed = %+v", disputed)
	}
	if m.ClaimVerification.Overall != 67 {
		t.Errorf("overall = %d, want 67", m.ClaimVerification.Overall)
	}
}

func TestCompute_ClaimVerificationIgnoresMissingOutcome(t *testing.T) {
	records := []model.ClaimVerificationRecord{
		{AIVerdict: model.VerdictRefuted, AIConfidence: 0.4},
		{AIVerdict: model.VerdictRefuted, AIConfidence: 0.6, ActualOutcome: model.VerdictRefuted},
	}
	m := Compute(Input{ClaimVerifications: records})
	refuted := m.ClaimVerification.VerdictAccuracy["refuted"]
	if refuted.TotalPredictions != 2 || refuted.WithOutcome != 1 || refuted.Accuracy != 100 {
		t.Errorf("refuted = %+v", refuted)
	}
}

func TestCompute_SignalEffectiveness(t *testing.T) {
	history := []model.SignalRecord{
		{SignalType: "repeat_founder", Dimension: "founder", Impact: 8, Outcome: model.OutcomeActive},
		{SignalType: "repeat_founder", Dimension: "founder", Impact: 6, Outcome: model.OutcomeFailed},
		{SignalType: "repeat_founder", Dimension: "founder", Impact: 5, Outcome: model.OutcomeAcquired},
		{SignalType: "repeat_founder", Dimension: "founder", Impact: 4},
		{SignalType: "low_churn", Dimension: "execution", Impact: 3.25},
	}
	m := Compute(Input{SignalHistory: history})

	want := []SignalEffectiveness{
		{SignalType: "low_churn", Dimension: "execution", PredictivePower: 0, Frequency: 1, AvgImpact: 3.3},
		{SignalType: "repeat_founder", Dimension: "founder", PredictivePower: 0.67, Frequency: 4, AvgImpact: 5.8},
	}
	if diff := cmp.Diff(want, m.SignalEffectiveness); diff != "" {
		t.Errorf("signal effectiveness mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_DriftFewDecisions(t *testing.T) {
	for _, decisions := range [][]model.DecisionRecord{nil, scenarioDecisions()[:1]} {
		d := Compute(Input{Decisions: decisions}).DriftMetrics
		if d.AlertLevel != AlertNormal {
			t.Errorf("alert = %s, want normal", d.AlertLevel)
		}
		if d.ScoreDistributionShift != 0 || d.ConfidenceDrift != 0 {
			t.Errorf("expected zero shift, got %+v", d)
		}
	}
}

func TestCompute_DriftLevels(t *testing.T) {
	mk := func(scores []float64, confs []float64) []model.DecisionRecord {
		var out []model.DecisionRecord
		start := day("2024-03-01")
		for i := range scores {
			out = append(out, model.DecisionRecord{
				DDScore:      scores[i],
				DDConfidence: confs[i],
				DecisionDate: start.AddDate(0, 0, i),
			})
		}
		return out
	}

	tests := []struct {
		name      string
		scores    []float64
		confs     []float64
		wantShift float64
		wantDrift float64
		wantLevel string
	}{
		{"stable", []float64{60, 62, 61, 63}, []float64{0.7, 0.7, 0.7, 0.72}, 1, 0.01, AlertNormal},
		{"score warning", []float64{50, 50, 60, 60}, []float64{0.7, 0.7, 0.7, 0.7}, 10, 0, AlertWarning},
		{"confidence warning", []float64{50, 50, 50, 50}, []float64{0.6, 0.6, 0.7, 0.7}, 0, 0.1, AlertWarning},
		{"score critical", []float64{40, 40, 60, 60}, []float64{0.7, 0.7, 0.7, 0.7}, 20, 0, AlertCritical},
		{"confidence critical drop", []float64{50, 50, 50, 50}, []float64{0.9, 0.9, 0.7, 0.7}, 0, -0.2, AlertCritical},
		{"confidence just under warning", []float64{50, 50}, []float64{0.7049, 0.7851}, 0, 0.08, AlertNormal},
		{"score just under warning", []float64{50.04, 58.05}, []float64{0.7, 0.7}, 8, 0, AlertNormal},
		{"score just over warning", []float64{50, 58.06}, []float64{0.7, 0.7}, 8.1, 0, AlertWarning},
		{"confidence just over warning", []float64{50, 50}, []float64{0.70, 0.7851}, 0, 0.09, AlertWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := detectDrift(mk(tt.scores, tt.confs))
			if d.ScoreDistributionShift != tt.wantShift {
				t.Errorf("shift = %v, want %v", d.ScoreDistributionShift, tt.wantShift)
			}
			if math.Abs(d.ConfidenceDrift-tt.wantDrift) > 1e-9 {
				t.Errorf("drift = %v, want %v", d.ConfidenceDrift, tt.wantDrift)
			}
			if d.AlertLevel != tt.wantLevel {
				t.Errorf("level = %s, want %s", d.AlertLevel, tt.wantLevel)
			}
		})
	}
}

func TestCompute_DriftSortsByDate(t *testing.T) {
	// Given out of order; chronologically the low scores come first.
	decisions := []model.DecisionRecord{
		{DDScore: 80, DDConfidence: 0.5, DecisionDate: day("2024-05-01")},
		{DDScore: 40, DDConfidence: 0.5, DecisionDate: day("2024-01-01")},
		{DDScore: 80, DDConfidence: 0.5, DecisionDate: day("2024-06-01")},
		{DDScore: 40, DDConfidence: 0.5, DecisionDate: day("2024-02-01")},
	}
	d := detectDrift(decisions)
	if d.EarlierPeriod.AvgScore != 40 || d.RecentPeriod.AvgScore != 80 {
		t.Errorf("periods = %+v / %+v", d.EarlierPeriod, d.RecentPeriod)
	}
	if d.AlertLevel != AlertCritical {
		t.Errorf("level = %s", d.AlertLevel)
	}
}

func TestCompute_PerformanceOverTime(t *testing.T) {
	m := Compute(Input{Decisions: scenarioDecisions()})

	want := []WeeklyPerformance{
		// app-1 (agreed, outcome) + app-2 (agreed, outcome)
		{Week: "2024-W02", Accuracy: 100, AgreementRate: 100, AvgConfidence: 78, DecisionsCount: 2},
		// app-3 (disagreed, outcome) + app-4 (agreed, no outcome)
		{Week: "2024-W03", Accuracy: 0, AgreementRate: 50, AvgConfidence: 55, DecisionsCount: 2},
	}
	if diff := cmp.Diff(want, m.PerformanceOverTime); diff != "" {
		t.Errorf("performance mismatch (-want +got):\n%s", diff)
	}
}

func TestISOWeek_YearBoundary(t *testing.T) {
	// 2021-01-03 is a Sunday that belongs to ISO week 53 of 2020.
	if got := ISOWeek(day("2021-01-03")); got != "2020-W53" {
		t.Errorf("ISOWeek = %s, want 2020-W53", got)
	}
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(Input{})
	if m.TotalDecisions != 0 || m.PartnerOverrides.AgreementRate != 0 {
		t.Errorf("unexpected metrics for empty input: %+v", m)
	}
	if len(m.SignalEffectiveness) != 0 || len(m.PerformanceOverTime) != 0 {
		t.Error("expected empty groups")
	}
	if len(m.PartnerOverrides.ByDimension) != len(Dimensions) {
		t.Errorf("expected all dimensions reported, got %d", len(m.PartnerOverrides.ByDimension))
	}
}

func TestCompute_Deterministic(t *testing.T) {
	in := Input{Decisions: scenarioDecisions()}
	if diff := cmp.Diff(Compute(in), Compute(in)); diff != "" {
		t.Errorf("Compute is not deterministic:\n%s", diff)
	}
}
