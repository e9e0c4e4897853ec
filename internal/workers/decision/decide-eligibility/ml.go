// internal/workers/decision/decide-eligibility/ml.go
package decideeligibility

import "eligibility-workers/internal/models"

// ConfidenceModel scores how confident the pipeline is that an
// application should be approved, on [0,1].
type ConfidenceModel interface {
	Confidence(result *models.ValidationResult) float64
}

// WeightedLinearModel approximates the trained eligibility classifier
// with a fixed linear combination of validation features.
type WeightedLinearModel struct{}

var _ ConfidenceModel = WeightedLinearModel{}

func (WeightedLinearModel) Confidence(result *models.ValidationResult) float64 {
	quality := result.QualityScore
	consistency := result.ConsistencyScore
	completeness := result.CompletenessScore
	assets := result.CategoryScores[models.CategoryAssets]
	employment := result.CategoryScores[models.CategoryEmployment]
	income := result.CategoryScores[models.CategoryIncome]

	// zero scores are treated as unobserved, not as evidence
	observed := filterPositive([]float64{
		quality, consistency, completeness, assets, employment, income,
	})
	variance := populationVariance(observed)
	minScore := minOf(observed)

	confidence := 0.2553*quality +
		0.1489*consistency +
		0.1277*assets +
		0.1277*variance +
		0.1064*minScore +
		0.0638*completeness +
		0.0638*income +
		0.0364*employment

	return models.Clamp01(confidence)
}

// PredictedClass is 1 when the confidence crosses the approval midpoint.
func PredictedClass(confidence float64) int {
	if confidence >= 0.5 {
		return 1
	}
	return 0
}

func filterPositive(values []float64) []float64 {
	filtered := values[:0:0]
	for _, v := range values {
		if v > 0 {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

func populationVariance(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
