package accuracy

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/diligence/internal/model"
)

// WeeklyPerformance is metric group 7, one entry per ISO week
type WeeklyPerformance struct {
	Week           string `json:"week"` // YYYY-Www
	Accuracy       int    `json:"accuracy"`
	AgreementRate  int    `json:"agreementRate"`
	AvgConfidence  int    `json:"avgConfidence"` // Percent
	DecisionsCount int    `json:"decisionsCount"`
}

// ISOWeek formats t as an ISO-8601 calendar week (e.g. 2024-W03)
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// performanceOverTime groups decisions by ISO week, ordered chronologically
func performanceOverTime(decisions []model.DecisionRecord) []WeeklyPerformance {
	groups := make(map[string][]model.DecisionRecord)
	for _, d := range decisions {
		week := ISOWeek(d.DecisionDate)
		groups[week] = append(groups[week], d)
	}

	weeks := make([]string, 0, len(groups))
	for w := range groups {
		weeks = append(weeks, w)
	}
	// YYYY-Www sorts lexically in calendar order for four-digit years
	sort.Strings(weeks)

	result := make([]WeeklyPerformance, 0, len(weeks))
	for _, w := range weeks {
		members := groups[w]
		agreed, withOutcome, agreedWithOutcome := 0, 0, 0
		confidences := make([]float64, len(members))
		for i, d := range members {
			confidences[i] = d.DDConfidence
			if d.PartnerAgreed {
				agreed++
			}
			if d.Outcome.Recorded() {
				withOutcome++
				if d.PartnerAgreed {
					agreedWithOutcome++
				}
			}
		}

		result = append(result, WeeklyPerformance{
			Week:           w,
			Accuracy:       percent(agreedWithOutcome, withOutcome),
			AgreementRate:  percent(agreed, len(members)),
			AvgConfidence:  int(roundHalfUp(100 * mean(confidences))),
			DecisionsCount: len(members),
		})
	}
	return result
}
