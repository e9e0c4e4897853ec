// internal/workers/extraction/credit-report/models.go
package creditreport

import "eligibility-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
	DocumentPath  string `json:"documentPath"`
}

type Output struct {
	CreditReport *models.CreditReport      `json:"creditReport,omitempty"`
	Metadata     models.ExtractionMetadata `json:"metadata"`
}

// reportDocument is the raw bureau file layout.
type reportDocument struct {
	CreditScore    *int            `json:"credit_score"`
	Score          *int            `json:"score"`
	Rating         string          `json:"rating"`
	Accounts       []accountRecord `json:"accounts"`
	PaymentHistory historyRecord   `json:"payment_history"`
}

type accountRecord struct {
	AccountType    string  `json:"account_type"`
	Balance        float64 `json:"balance"`
	CreditLimit    float64 `json:"credit_limit"`
	MonthlyPayment float64 `json:"monthly_payment"`
	PaymentStatus  string  `json:"payment_status"`
}

type historyRecord struct {
	OnTime int `json:"on_time"`
	Late30 int `json:"late_30"`
	Late60 int `json:"late_60"`
	Missed int `json:"missed"`
}
