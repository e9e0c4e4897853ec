// internal/workers/validation/check-consistency/models.go
package checkconsistency

import (
	"time"

	"eligibility-workers/internal/models"
)

type Input struct {
	Application *models.ApplicationExtraction `json:"application"`

	// AsOf anchors age and employment-duration arithmetic.
	AsOf time.Time `json:"asOf"`
}

type Output struct {
	ApplicationID string                     `json:"applicationId"`
	Findings      []models.ValidationFinding `json:"findings"`
}
