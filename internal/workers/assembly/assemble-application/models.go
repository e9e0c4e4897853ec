// internal/workers/assembly/assemble-application/models.go
package assembleapplication

import (
	"time"

	"eligibility-workers/internal/models"
)

// Input carries the six extractor results for one applicant. A nil
// document pointer together with missing metadata means the source file
// was never found.
type Input struct {
	ApplicationID string `json:"applicationId"`

	PersonalInfo      *models.PersonalInfo      `json:"personalInfo,omitempty"`
	EmploymentInfo    *models.EmploymentInfo    `json:"employmentInfo,omitempty"`
	BankStatement     *models.BankStatement     `json:"bankStatement,omitempty"`
	Resume            *models.Resume            `json:"resume,omitempty"`
	AssetsLiabilities *models.AssetsLiabilities `json:"assetsLiabilities,omitempty"`
	CreditReport      *models.CreditReport      `json:"creditReport,omitempty"`

	Metadata map[models.DocumentKind]models.ExtractionMetadata `json:"extractionMetadata"`

	// AsOf anchors date arithmetic for the whole run.
	AsOf time.Time `json:"asOf"`
}

type Output struct {
	Application *models.ApplicationExtraction `json:"application"`
}
