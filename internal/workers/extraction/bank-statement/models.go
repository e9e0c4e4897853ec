// internal/workers/extraction/bank-statement/models.go
package bankstatement

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	Statement *models.BankStatement     `json:"statement,omitempty"`
	Metadata  models.ExtractionMetadata `json:"metadata"`
}
