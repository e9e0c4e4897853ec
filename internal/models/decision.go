// internal/models/decision.go
package models

import (
	"math"
	"time"
)

// DecisionStatus is the final outcome for an application.
type DecisionStatus string

const (
	DecisionApprove     DecisionStatus = "APPROVE"
	DecisionDeny        DecisionStatus = "DENY"
	DecisionNeedsReview DecisionStatus = "NEEDS_REVIEW"
)

// ConfidenceLevel qualifies how firmly the decision engine stands behind
// its outcome.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Critical flags attached to denials.
const (
	FlagFailedBusinessRules     = "FAILED_BUSINESS_RULES"
	FlagInsufficientDataQuality = "INSUFFICIENT_DATA_QUALITY"
)

// DecisionScore bundles the derived scores feeding the decision ladder.
// All values live in [0,1] and are never independently mutated.
type DecisionScore struct {
	ValidationScore    float64 `json:"validationScore"`
	MLConfidence       float64 `json:"mlConfidence"`
	BusinessRuleScore  float64 `json:"businessRuleScore"`
	CombinedScore      float64 `json:"combinedScore"`
	ApprovalLikelihood float64 `json:"approvalLikelihood"`
}

// DecisionResult is the full output of the decision engine for one
// application. Terminal, created once, never mutated.
type DecisionResult struct {
	ApplicationID      string           `json:"applicationId"`
	FinalDecision      DecisionStatus   `json:"finalDecision"`
	Scores             DecisionScore    `json:"decisionScores"`
	Findings           []FindingRecord  `json:"findings,omitempty"`
	Rationale          string           `json:"rationale"`
	ConfidenceLevel    ConfidenceLevel  `json:"confidenceLevel"`
	AppealsEligible    bool             `json:"appealsEligible"`
	RecommendedActions []string         `json:"recommendedActions,omitempty"`
	CriticalFlags      []string         `json:"criticalFlags,omitempty"`
	MLPredictedClass   int              `json:"mlPredictedClass"`
	ValidationStatus   ValidationStatus `json:"validationStatus"`
	Timestamp          time.Time        `json:"timestamp"`
}

// DecisionRecord is the wire form of a decision, scores rounded to 4dp.
type DecisionRecord struct {
	ApplicationID      string          `json:"application_id"`
	FinalDecision      string          `json:"final_decision"`
	ConfidenceLevel    string          `json:"confidence_level"`
	ValidationScore    float64         `json:"validation_score"`
	MLConfidence       float64         `json:"ml_confidence"`
	BusinessRuleScore  float64         `json:"business_rule_score"`
	CombinedScore      float64         `json:"combined_score"`
	ApprovalLikelihood float64         `json:"approval_likelihood"`
	Findings           []FindingRecord `json:"findings,omitempty"`
	Rationale          string          `json:"rationale"`
	AppealsEligible    bool            `json:"appeals_eligible"`
	RecommendedActions []string        `json:"recommended_actions,omitempty"`
	CriticalFlags      []string        `json:"critical_flags,omitempty"`
	MLPredictedClass   int             `json:"ml_prediction_class"`
	ValidationStatus   string          `json:"validation_status"`
	Timestamp          string          `json:"timestamp"`
}

// ToRecord converts the result into its wire form.
func (d *DecisionResult) ToRecord() DecisionRecord {
	return DecisionRecord{
		ApplicationID:      d.ApplicationID,
		FinalDecision:      string(d.FinalDecision),
		ConfidenceLevel:    string(d.ConfidenceLevel),
		ValidationScore:    Round4(d.Scores.ValidationScore),
		MLConfidence:       Round4(d.Scores.MLConfidence),
		BusinessRuleScore:  Round4(d.Scores.BusinessRuleScore),
		CombinedScore:      Round4(d.Scores.CombinedScore),
		ApprovalLikelihood: Round4(d.Scores.ApprovalLikelihood),
		Findings:           d.Findings,
		Rationale:          d.Rationale,
		AppealsEligible:    d.AppealsEligible,
		RecommendedActions: d.RecommendedActions,
		CriticalFlags:      d.CriticalFlags,
		MLPredictedClass:   d.MLPredictedClass,
		ValidationStatus:   string(d.ValidationStatus),
		Timestamp:          d.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Round4 rounds to four decimal places for wire output.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Clamp01 clamps a score into the closed unit interval.
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
