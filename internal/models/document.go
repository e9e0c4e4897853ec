// internal/models/document.go
package models

import "time"

// DocumentKind identifies one of the six documents every application bundles.
type DocumentKind string

const (
	DocBankStatement     DocumentKind = "bank_statement"
	DocEmiratesID        DocumentKind = "emirates_id"
	DocEmploymentLetter  DocumentKind = "employment_letter"
	DocResume            DocumentKind = "resume"
	DocAssetsLiabilities DocumentKind = "assets_liabilities"
	DocCreditReport      DocumentKind = "credit_report"
)

// AllDocumentKinds returns the closed set in canonical order.
func AllDocumentKinds() []DocumentKind {
	return []DocumentKind{
		DocEmiratesID,
		DocBankStatement,
		DocEmploymentLetter,
		DocResume,
		DocAssetsLiabilities,
		DocCreditReport,
	}
}

// ExtractionStatus is the outcome of running one extractor over one document.
type ExtractionStatus string

const (
	ExtractionSuccess ExtractionStatus = "success"
	ExtractionPartial ExtractionStatus = "partial"
	ExtractionFailed  ExtractionStatus = "failed"
	ExtractionMissing ExtractionStatus = "missing"
)

// VerificationStatus summarizes how trustworthy an assembled application is.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationIncomplete VerificationStatus = "incomplete"
	VerificationConflicted VerificationStatus = "conflicted"
	VerificationSuspicious VerificationStatus = "suspicious"
)

// ExtractionMetadata records how a single document extraction went.
// Immutable after its extractor returns.
type ExtractionMetadata struct {
	Kind           DocumentKind     `json:"documentKind"`
	Status         ExtractionStatus `json:"status"`
	Confidence     float64          `json:"confidence"` // 0.0-1.0
	Method         string           `json:"method,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
	ProcessingTime time.Duration    `json:"processingTimeNs"`
}

// FailedMetadata builds the metadata for an extraction that could not run.
func FailedMetadata(kind DocumentKind, reason string) ExtractionMetadata {
	return ExtractionMetadata{
		Kind:       kind,
		Status:     ExtractionFailed,
		Confidence: 0,
		Errors:     []string{reason},
	}
}

// MissingMetadata builds the metadata for a document that was never found.
func MissingMetadata(kind DocumentKind) ExtractionMetadata {
	return ExtractionMetadata{
		Kind:       kind,
		Status:     ExtractionMissing,
		Confidence: 0,
	}
}
