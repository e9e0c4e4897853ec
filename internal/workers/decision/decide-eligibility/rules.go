// internal/workers/decision/decide-eligibility/rules.go
package decideeligibility

import (
	"fmt"
	"strings"

	"eligibility-workers/internal/models"
)

const totalDocuments = 6

// applyBusinessRules walks the fixed rule set, starting from a perfect
// score and deducting per violated rule. The returned findings explain
// each deduction.
func applyBusinessRules(result *models.ValidationResult) (float64, []models.FindingRecord) {
	score := 1.0
	var findings []models.FindingRecord

	quality := result.QualityScore
	switch {
	case quality < 0.70:
		score -= 0.30
		findings = append(findings, models.FindingRecord{
			Category: string(models.CategoryBusinessRule),
			Severity: models.SeverityCritical.String(),
			Message:  fmt.Sprintf("Quality score %.2f is below the acceptable minimum of 0.70", quality),
			Weight:   0.3,
		})
	case quality < 0.85:
		score -= 0.15
		findings = append(findings, models.FindingRecord{
			Category: string(models.CategoryBusinessRule),
			Severity: models.SeverityHigh.String(),
			Message:  fmt.Sprintf("Quality score %.2f is below the target of 0.85", quality),
			Weight:   0.15,
		})
	}

	if income := result.CategoryScores[models.CategoryIncome]; income > 0 && income < 0.70 {
		score -= 0.20
		findings = append(findings, models.FindingRecord{
			Category: string(models.CategoryBusinessRule),
			Severity: models.SeverityHigh.String(),
			Message:  fmt.Sprintf("Income verification score %.2f is below 0.70", income),
			Weight:   0.2,
		})
	}

	if msg, ok := firstDebtBurdenMessage(result.Findings); ok {
		score -= 0.25
		findings = append(findings, models.FindingRecord{
			Category: string(models.CategoryBusinessRule),
			Severity: models.SeverityHigh.String(),
			Message:  fmt.Sprintf("Critical debt burden detected: %s", msg),
			Weight:   0.25,
		})
	}

	if result.DocumentsReviewed < totalDocuments {
		score -= 0.10
		findings = append(findings, models.FindingRecord{
			Category: string(models.CategoryBusinessRule),
			Severity: models.SeverityMedium.String(),
			Message:  fmt.Sprintf("Incomplete documentation: %d/%d documents reviewed", result.DocumentsReviewed, totalDocuments),
			Weight:   0.1,
		})
	}

	if score < 0 {
		score = 0
	}
	return score, findings
}

func firstDebtBurdenMessage(findings []models.ValidationFinding) (string, bool) {
	for _, f := range findings {
		lower := strings.ToLower(f.Message)
		if strings.Contains(lower, "debt") && strings.Contains(lower, "burden") {
			return f.Message, true
		}
	}
	return "", false
}
