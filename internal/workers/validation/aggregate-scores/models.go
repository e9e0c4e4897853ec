// internal/workers/validation/aggregate-scores/models.go
package aggregatescores

import "eligibility-workers/internal/models"

type Input struct {
	Application *models.ApplicationExtraction `json:"application"`
	Findings    []models.ValidationFinding    `json:"findings"`
}

type Output struct {
	Result *models.ValidationResult `json:"result"`
}
