package accuracy

import (
	"fmt"
	"math"

	"github.com/ppiankov/diligence/internal/model"
)

// CalibrationBucket compares stated confidence with observed agreement in one range
type CalibrationBucket struct {
	Range             string  `json:"range"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	PredictedAccuracy int     `json:"predictedAccuracy"`
	ActualAccuracy    int     `json:"actualAccuracy"`
	CalibrationError  int     `json:"calibrationError"`
	SampleSize        int     `json:"sampleSize"`
}

// calibrationBounds are the fixed bucket edges; the last bucket is closed at 1.0
var calibrationBounds = []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0}

// confidenceCalibration buckets decisions by DD confidence. Every decision lands in
// exactly one bucket, so sample sizes sum to len(decisions); out-of-range
// confidences are clamped into the first or last bucket.
func confidenceCalibration(decisions []model.DecisionRecord) []CalibrationBucket {
	n := len(calibrationBounds) - 1
	samples := make([]int, n)
	agreed := make([]int, n)
	withOutcome := make([]int, n)

	for _, d := range decisions {
		i := bucketIndex(d.DDConfidence)
		samples[i]++
		if d.Outcome.Recorded() {
			withOutcome[i]++
			if d.PartnerAgreed {
				agreed[i]++
			}
		}
	}

	buckets := make([]CalibrationBucket, n)
	for i := 0; i < n; i++ {
		lo, hi := calibrationBounds[i], calibrationBounds[i+1]
		predicted := int(roundHalfUp(100 * (lo + hi) / 2))
		actual := percent(agreed[i], withOutcome[i])
		buckets[i] = CalibrationBucket{
			Range:             fmt.Sprintf("%.0f-%.0f%%", lo*100, hi*100),
			Min:               lo,
			Max:               hi,
			PredictedAccuracy: predicted,
			ActualAccuracy:    actual,
			CalibrationError:  int(math.Abs(float64(predicted - actual))),
			SampleSize:        samples[i],
		}
	}
	return buckets
}

func bucketIndex(confidence float64) int {
	last := len(calibrationBounds) - 2
	if math.IsNaN(confidence) || confidence < calibrationBounds[1] {
		return 0
	}
	for i := 1; i < last; i++ {
		if confidence < calibrationBounds[i+1] {
			return i
		}
	}
	return last
}
