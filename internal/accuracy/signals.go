package accuracy

import (
	"sort"

	"github.com/ppiankov/diligence/internal/model"
)

// SignalEffectiveness reports how predictive one (signal type, dimension) pair has been
type SignalEffectiveness struct {
	SignalType      string  `json:"signalType"`
	Dimension       string  `json:"dimension"`
	PredictivePower float64 `json:"predictivePower"` // Success share among records with an outcome
	Frequency       int     `json:"frequency"`
	AvgImpact       float64 `json:"avgImpact"`
}

type signalKey struct {
	signalType string
	dimension  string
}

// signalEffectiveness groups signal records by (type, dimension), sorted by key
func signalEffectiveness(history []model.SignalRecord) []SignalEffectiveness {
	groups := make(map[signalKey][]model.SignalRecord)
	for _, s := range history {
		k := signalKey{s.SignalType, s.Dimension}
		groups[k] = append(groups[k], s)
	}

	keys := make([]signalKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].signalType != keys[j].signalType {
			return keys[i].signalType < keys[j].signalType
		}
		return keys[i].dimension < keys[j].dimension
	})

	result := make([]SignalEffectiveness, 0, len(keys))
	for _, k := range keys {
		members := groups[k]
		impacts := make([]float64, len(members))
		withOutcome, successes := 0, 0
		for i, s := range members {
			impacts[i] = s.Impact
			if s.Outcome.Recorded() {
				withOutcome++
				if s.Outcome.IsSuccess() {
					successes++
				}
			}
		}

		power := 0.0
		if withOutcome > 0 {
			power = roundTo(float64(successes)/float64(withOutcome), 2)
		}

		result = append(result, SignalEffectiveness{
			SignalType:      k.signalType,
			Dimension:       k.dimension,
			PredictivePower: power,
			Frequency:       len(members),
			AvgImpact:       roundTo(mean(impacts), 1),
		})
	}
	return result
}
