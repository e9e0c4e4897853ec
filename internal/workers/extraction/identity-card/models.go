// internal/workers/extraction/identity-card/models.go
package identitycard

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	PersonalInfo *models.PersonalInfo      `json:"personalInfo,omitempty"`
	Metadata     models.ExtractionMetadata `json:"metadata"`
}
