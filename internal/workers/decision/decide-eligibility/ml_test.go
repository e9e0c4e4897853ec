// internal/workers/decision/decide-eligibility/ml_test.go
package decideeligibility

import (
	"testing"

	"eligibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestWeightedLinearModelBounds(t *testing.T) {
	model := WeightedLinearModel{}

	perfect := validationResult(1.0, 1.0, 1.0)
	confidence := model.Confidence(perfect)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)

	empty := validationResult(0, 0, 0)
	for _, category := range models.ValidationCategories() {
		empty.CategoryScores[category] = 0
	}
	assert.Zero(t, model.Confidence(empty))
}

func TestWeightedLinearModelMonotoneInQuality(t *testing.T) {
	model := WeightedLinearModel{}
	low := model.Confidence(validationResult(0.40, 0.80, 0.80))
	high := model.Confidence(validationResult(0.90, 0.80, 0.80))
	assert.Greater(t, high, low)
}

func TestWeightedLinearModelPerfectScores(t *testing.T) {
	// all features 1.0, variance 0: 0.2553+0.1489+0.1277+0.1064+0.0638+0.0638+0.0364
	confidence := WeightedLinearModel{}.Confidence(validationResult(1.0, 1.0, 1.0))
	assert.InDelta(t, 0.8023, confidence, 1e-9)
}

func TestPredictedClassBoundary(t *testing.T) {
	assert.Equal(t, 1, PredictedClass(0.5))
	assert.Equal(t, 1, PredictedClass(0.9))
	assert.Equal(t, 0, PredictedClass(0.4999))
}

func TestPopulationVariance(t *testing.T) {
	assert.Zero(t, populationVariance(nil))
	assert.Zero(t, populationVariance([]float64{0.7}))
	// {0.5, 1.0}: mean 0.75, variance 0.0625
	assert.InDelta(t, 0.0625, populationVariance([]float64{0.5, 1.0}), 1e-9)
	// symmetric in argument order
	assert.InDelta(t,
		populationVariance([]float64{0.5, 1.0}),
		populationVariance([]float64{1.0, 0.5}), 1e-12)
}

func TestFilterPositiveDropsUnobserved(t *testing.T) {
	filtered := filterPositive([]float64{0.9, 0, 0.5, -0.1})
	assert.Equal(t, []float64{0.9, 0.5}, filtered)
}
