// internal/workers/extraction/resume/models.go
package resume

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	Resume   *models.Resume            `json:"resume,omitempty"`
	Metadata models.ExtractionMetadata `json:"metadata"`
}
