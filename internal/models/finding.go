// internal/models/finding.go
package models

import (
	"encoding/json"
	"fmt"
)

// Severity orders findings from informational to critical.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// AtLeast reports whether s is at or above the given severity.
func (s Severity) AtLeast(min Severity) bool { return s >= min }

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n == name {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// ParseSeverity maps a wire severity name back to its value.
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// FindingCategory groups findings by the check that raised them.
type FindingCategory string

const (
	CategoryPersonalInfo FindingCategory = "personal_info"
	CategoryEmployment   FindingCategory = "employment"
	CategoryIncome       FindingCategory = "income"
	CategoryAssets       FindingCategory = "assets"
	CategoryCredit       FindingCategory = "credit"
	CategoryBusinessRule FindingCategory = "business_rule"
	CategoryDecision     FindingCategory = "decision"
)

// ValidationCategories are the five consistency-check categories, in
// canonical order.
func ValidationCategories() []FindingCategory {
	return []FindingCategory{
		CategoryPersonalInfo,
		CategoryEmployment,
		CategoryIncome,
		CategoryAssets,
		CategoryCredit,
	}
}

// ValidationFinding is one issue raised during consistency checking.
type ValidationFinding struct {
	Category            FindingCategory `json:"category"`
	Severity            Severity        `json:"severity"`
	Message             string          `json:"message"`
	FieldsInvolved      []string        `json:"fieldsInvolved,omitempty"`
	AffectedDocuments   []DocumentKind  `json:"affectedDocuments,omitempty"`
	AutoResolvable      bool            `json:"autoResolvable,omitempty"`
	SuggestedResolution string          `json:"suggestedResolution,omitempty"`
}

// ValidationStatus is the overall verdict of a validation run.
type ValidationStatus string

const (
	ValidationPassed      ValidationStatus = "passed"
	ValidationWarnings    ValidationStatus = "passed_with_warnings"
	ValidationNeedsReview ValidationStatus = "needs_review"
	ValidationFailed      ValidationStatus = "failed"
)

// ValidationResult is the internal validation outcome for one application.
type ValidationResult struct {
	ApplicationID     string
	Status            ValidationStatus
	QualityScore      float64
	ConsistencyScore  float64
	CompletenessScore float64
	CategoryScores    map[FindingCategory]float64
	Findings          []ValidationFinding
	DocumentsReviewed int
}

// HasSeverity reports whether any finding is at or above the severity.
func (r *ValidationResult) HasSeverity(min Severity) bool {
	for _, f := range r.Findings {
		if f.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

// FindingRecord is the wire form of a finding, flattened for reports.
type FindingRecord struct {
	Category string  `json:"category"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Weight   float64 `json:"weight"`
}

// ValidationSummary is the wire form of a validation result. This is
// also the shape the decision engine reads back from validation files.
type ValidationSummary struct {
	ApplicationID     string             `json:"application_id"`
	Status            string             `json:"validation_status"`
	QualityScore      float64            `json:"quality_score"`
	ConsistencyScore  float64            `json:"consistency_score"`
	CompletenessScore float64            `json:"completeness_score"`
	CategoryScores    map[string]float64 `json:"category_scores"`
	Findings          []FindingRecord    `json:"findings"`
	DocumentsReviewed int                `json:"documents_reviewed"`
}

// Result converts a wire summary back into the internal form. Severity
// names that fail to parse degrade to info rather than dropping the
// finding.
func (s ValidationSummary) Result() *ValidationResult {
	findings := make([]ValidationFinding, 0, len(s.Findings))
	for _, record := range s.Findings {
		severity, err := ParseSeverity(record.Severity)
		if err != nil {
			severity = SeverityInfo
		}
		findings = append(findings, ValidationFinding{
			Category: FindingCategory(record.Category),
			Severity: severity,
			Message:  record.Message,
		})
	}
	categories := make(map[FindingCategory]float64, len(s.CategoryScores))
	for name, score := range s.CategoryScores {
		categories[FindingCategory(name)] = score
	}
	return &ValidationResult{
		ApplicationID:     s.ApplicationID,
		Status:            ValidationStatus(s.Status),
		QualityScore:      s.QualityScore,
		ConsistencyScore:  s.ConsistencyScore,
		CompletenessScore: s.CompletenessScore,
		CategoryScores:    categories,
		Findings:          findings,
		DocumentsReviewed: s.DocumentsReviewed,
	}
}

// severityWeights are the consistency penalties by finding severity.
var severityWeights = map[Severity]float64{
	SeverityCritical: 0.30,
	SeverityHigh:     0.20,
	SeverityMedium:   0.10,
	SeverityLow:      0.05,
	SeverityInfo:     0,
}

// SeverityWeight returns the consistency penalty a severity carries.
func SeverityWeight(s Severity) float64 { return severityWeights[s] }

// Summary converts the internal result into its wire form.
func (r *ValidationResult) Summary() ValidationSummary {
	records := make([]FindingRecord, 0, len(r.Findings))
	for _, f := range r.Findings {
		records = append(records, FindingRecord{
			Category: string(f.Category),
			Severity: f.Severity.String(),
			Message:  f.Message,
			Weight:   SeverityWeight(f.Severity),
		})
	}
	categories := make(map[string]float64, len(r.CategoryScores))
	for cat, score := range r.CategoryScores {
		categories[string(cat)] = Round4(score)
	}
	return ValidationSummary{
		ApplicationID:     r.ApplicationID,
		Status:            string(r.Status),
		QualityScore:      Round4(r.QualityScore),
		ConsistencyScore:  Round4(r.ConsistencyScore),
		CompletenessScore: Round4(r.CompletenessScore),
		CategoryScores:    categories,
		Findings:          records,
		DocumentsReviewed: r.DocumentsReviewed,
	}
}
