// pkg/report/report_test.go
package report

import (
	"testing"

	"eligibility-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func records() []models.DecisionRecord {
	return []models.DecisionRecord{
		{
			ApplicationID: "APP-001", FinalDecision: "APPROVE", ConfidenceLevel: "HIGH",
			ValidationScore: 0.95, MLConfidence: 0.80, BusinessRuleScore: 1.0,
			CombinedScore: 0.93, ApprovalLikelihood: 0.93, ValidationStatus: "passed",
		},
		{
			ApplicationID: "APP-002", FinalDecision: "DENY", ConfidenceLevel: "HIGH",
			ValidationScore: 0.40, MLConfidence: 0.30, BusinessRuleScore: 0.45,
			CombinedScore: 0.38, ApprovalLikelihood: 0.38, ValidationStatus: "failed",
			AppealsEligible: true,
		},
		{
			ApplicationID: "APP-003", FinalDecision: "NEEDS_REVIEW", ConfidenceLevel: "LOW",
			ValidationScore: 0.70, MLConfidence: 0.50, BusinessRuleScore: 0.75,
			CombinedScore: 0.64, ApprovalLikelihood: 0.64, ValidationStatus: "needs_review",
			AppealsEligible: true,
		},
		{
			ApplicationID: "APP-004", FinalDecision: "APPROVE", ConfidenceLevel: "MEDIUM",
			ValidationScore: 0.85, MLConfidence: 0.68, BusinessRuleScore: 0.80,
			CombinedScore: 0.78, ApprovalLikelihood: 0.78, ValidationStatus: "passed_with_warnings",
		},
	}
}

func TestSummarizeCounts(t *testing.T) {
	summary := Summarize(records())

	assert.Equal(t, 4, summary.TotalApplications)
	assert.Equal(t, map[string]int{"APPROVE": 2, "DENY": 1, "NEEDS_REVIEW": 1}, summary.Decisions)
	assert.Equal(t, map[string]int{"HIGH": 2, "MEDIUM": 1, "LOW": 1}, summary.ConfidenceLevels)
	assert.Equal(t, 2, summary.AppealsEligible)
	assert.Equal(t, 1, summary.ValidationStatus["failed"])
}

func TestSummarizeAverages(t *testing.T) {
	summary := Summarize(records())

	assert.InDelta(t, 0.725, summary.AvgValidationScore, 1e-9)
	assert.InDelta(t, 0.57, summary.AvgMLConfidence, 1e-9)
	assert.InDelta(t, 0.75, summary.AvgBusinessRuleScore, 1e-9)
	assert.InDelta(t, 0.6825, summary.AvgCombinedScore, 1e-9)
	assert.InDelta(t, 0.6825, summary.AvgApprovalLikelihood, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalApplications)
	assert.Empty(t, summary.Decisions)
	assert.Zero(t, summary.AvgCombinedScore)
	assert.Contains(t, summary.Render(), "Applications processed: 0")
}

func TestRenderListsDecisions(t *testing.T) {
	out := Summarize(records()).Render()

	assert.Contains(t, out, "APPROVE")
	assert.Contains(t, out, "2 (50.0%)")
	assert.Contains(t, out, "Appeals eligible: 2")
	assert.Contains(t, out, "approval likelihood: 0.6825")
}
