// pkg/report/report.go

// Package report summarizes a batch of eligibility decisions.
package report

import (
	"fmt"
	"sort"
	"strings"

	"eligibility-workers/internal/models"
)

// Summary aggregates one batch of decision records.
type Summary struct {
	TotalApplications int            `json:"total_applications"`
	Decisions         map[string]int `json:"decisions"`
	ConfidenceLevels  map[string]int `json:"confidence_levels"`
	ValidationStatus  map[string]int `json:"validation_status"`
	AppealsEligible   int            `json:"appeals_eligible"`

	AvgValidationScore    float64 `json:"avg_validation_score"`
	AvgMLConfidence       float64 `json:"avg_ml_confidence"`
	AvgBusinessRuleScore  float64 `json:"avg_business_rule_score"`
	AvgCombinedScore      float64 `json:"avg_combined_score"`
	AvgApprovalLikelihood float64 `json:"avg_approval_likelihood"`
}

// Summarize builds a Summary over the given records.
func Summarize(records []models.DecisionRecord) Summary {
	summary := Summary{
		TotalApplications: len(records),
		Decisions:         make(map[string]int),
		ConfidenceLevels:  make(map[string]int),
		ValidationStatus:  make(map[string]int),
	}

	if len(records) == 0 {
		return summary
	}

	var validation, ml, rules, combined, likelihood float64
	for _, record := range records {
		summary.Decisions[record.FinalDecision]++
		summary.ConfidenceLevels[record.ConfidenceLevel]++
		if record.ValidationStatus != "" {
			summary.ValidationStatus[record.ValidationStatus]++
		}
		if record.AppealsEligible {
			summary.AppealsEligible++
		}

		validation += record.ValidationScore
		ml += record.MLConfidence
		rules += record.BusinessRuleScore
		combined += record.CombinedScore
		likelihood += record.ApprovalLikelihood
	}

	n := float64(len(records))
	summary.AvgValidationScore = models.Round4(validation / n)
	summary.AvgMLConfidence = models.Round4(ml / n)
	summary.AvgBusinessRuleScore = models.Round4(rules / n)
	summary.AvgCombinedScore = models.Round4(combined / n)
	summary.AvgApprovalLikelihood = models.Round4(likelihood / n)

	return summary
}

// Render formats the summary for terminal output.
func (s Summary) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Applications processed: %d\n", s.TotalApplications)
	if s.TotalApplications == 0 {
		return b.String()
	}

	b.WriteString("\nDecisions:\n")
	writeCounts(&b, s.Decisions, s.TotalApplications)

	b.WriteString("\nConfidence levels:\n")
	writeCounts(&b, s.ConfidenceLevels, s.TotalApplications)

	if len(s.ValidationStatus) > 0 {
		b.WriteString("\nValidation status:\n")
		writeCounts(&b, s.ValidationStatus, s.TotalApplications)
	}

	fmt.Fprintf(&b, "\nAppeals eligible: %d\n", s.AppealsEligible)
	b.WriteString("\nAverage scores:\n")
	fmt.Fprintf(&b, "  validation:          %.4f\n", s.AvgValidationScore)
	fmt.Fprintf(&b, "  ml confidence:       %.4f\n", s.AvgMLConfidence)
	fmt.Fprintf(&b, "  business rules:      %.4f\n", s.AvgBusinessRuleScore)
	fmt.Fprintf(&b, "  combined:            %.4f\n", s.AvgCombinedScore)
	fmt.Fprintf(&b, "  approval likelihood: %.4f\n", s.AvgApprovalLikelihood)

	return b.String()
}

func writeCounts(b *strings.Builder, counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(b, "  %-14s %d (%.1f%%)\n", key, counts[key], 100*float64(counts[key])/float64(total))
	}
}
