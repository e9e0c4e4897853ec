// internal/workers/extraction/employment-letter/models.go
package employmentletter

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	EmploymentInfo *models.EmploymentInfo    `json:"employmentInfo,omitempty"`
	Metadata       models.ExtractionMetadata `json:"metadata"`
}
