// internal/workers/decision/decide-eligibility/models.go
package decideeligibility

import (
	"time"

	"eligibility-workers/internal/models"
)

// Input carries the validation result for one application. Result may
// be nil when the id was never validated, which produces a manual
// review decision instead of an error.
type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Result        *models.ValidationResult `json:"result,omitempty"`

	// AsOf stamps the decision; the zero value falls back to now.
	AsOf time.Time `json:"asOf"`
}

type Output struct {
	Decision *models.DecisionResult `json:"decision"`
}
