// internal/models/application.go
package models

import "time"

// PersonalInfo holds identity fields pulled from the Emirates ID
// (optionally back-filled from the ground-truth table).
type PersonalInfo struct {
	FullName      string     `json:"fullName,omitempty"`
	NationalID    string     `json:"nationalId,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Nationality   string     `json:"nationality,omitempty"`
	MaritalStatus string     `json:"maritalStatus,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
}

// EmploymentInfo holds fields from the employment letter.
type EmploymentInfo struct {
	Employer      string     `json:"employer,omitempty"`
	JobTitle      string     `json:"jobTitle,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	MonthlySalary float64    `json:"monthlySalary,omitempty"`
	Currency      string     `json:"currency,omitempty"`
}

// BankAccount describes the account a statement belongs to.
type BankAccount struct {
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// BankTransaction is one statement row. Amount is always positive;
// Type records whether it was a credit or a debit.
type BankTransaction struct {
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Amount         float64   `json:"amount"`
	Type           string    `json:"type"` // "credit" or "debit"
	RunningBalance float64   `json:"runningBalance,omitempty"`
}

// BankStatement holds everything extracted from the bank statement PDF.
type BankStatement struct {
	Account              BankAccount       `json:"account"`
	PeriodStart          *time.Time        `json:"periodStart,omitempty"`
	PeriodEnd            *time.Time        `json:"periodEnd,omitempty"`
	Transactions         []BankTransaction `json:"transactions,omitempty"`
	SalaryDeposits       []BankTransaction `json:"salaryDeposits,omitempty"`
	ClosingBalance       float64           `json:"closingBalance,omitempty"`
	MonthlyAverageCredit float64           `json:"monthlyAverageCredit,omitempty"`
	MonthlyAverageDebit  float64           `json:"monthlyAverageDebit,omitempty"`
}

// StatementMonths counts months covered by the statement, rounded to the
// nearest whole month, minimum 1.
func (b *BankStatement) StatementMonths() int {
	if b.PeriodStart != nil && b.PeriodEnd != nil {
		days := int(b.PeriodEnd.Sub(*b.PeriodStart).Hours() / 24)
		if m := (days + 15) / 30; m > 1 {
			return m
		}
	}
	return 1
}

// MonthlyIncome averages salary deposits over the statement period.
// Returns 0 when no salary deposits were identified.
func (b *BankStatement) MonthlyIncome() float64 {
	if len(b.SalaryDeposits) == 0 {
		return 0
	}
	var total float64
	for _, t := range b.SalaryDeposits {
		total += t.Amount
	}
	return total / float64(b.StatementMonths())
}

// WorkExperience is one résumé employment entry.
type WorkExperience struct {
	Employer string `json:"employer"`
	JobTitle string `json:"jobTitle"`
	Period   string `json:"period,omitempty"`
	Current  bool   `json:"current,omitempty"`
}

// Resume holds fields parsed from the résumé.
type Resume struct {
	FullName         string           `json:"fullName,omitempty"`
	WorkExperience   []WorkExperience `json:"workExperience,omitempty"`
	Education        []string         `json:"education,omitempty"`
	Skills           []string         `json:"skills,omitempty"`
	EmploymentStatus string           `json:"employmentStatus,omitempty"`
}

// AssetsLiabilities holds the categorized asset/liability sheet.
type AssetsLiabilities struct {
	Properties       []float64 `json:"properties,omitempty"`
	Vehicles         []float64 `json:"vehicles,omitempty"`
	Savings          float64   `json:"savings,omitempty"`
	Investments      float64   `json:"investments,omitempty"`
	Loans            []float64 `json:"loans,omitempty"`
	CreditCardDebt   float64   `json:"creditCardDebt,omitempty"`
	TotalAssets      float64   `json:"totalAssets,omitempty"`
	TotalLiabilities float64   `json:"totalLiabilities,omitempty"`
}

// NetWorth is total assets minus total liabilities.
func (a *AssetsLiabilities) NetWorth() float64 {
	return a.TotalAssets - a.TotalLiabilities
}

// CreditAccount is one tradeline from the credit report.
type CreditAccount struct {
	AccountType    string  `json:"accountType"`
	Balance        float64 `json:"balance"`
	CreditLimit    float64 `json:"creditLimit,omitempty"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
	PaymentStatus  string  `json:"paymentStatus,omitempty"` // "Current", "Late", "Missed"
}

// PaymentHistory counts payments by outcome.
type PaymentHistory struct {
	OnTime int `json:"onTime"`
	Late30 int `json:"late30"`
	Late60 int `json:"late60"`
	Missed int `json:"missed"`
}

// CreditReport holds the structured credit report. Score uses the
// 0-1800 bureau scale.
type CreditReport struct {
	Score          int             `json:"score"`
	Rating         string          `json:"rating,omitempty"`
	Accounts       []CreditAccount `json:"accounts,omitempty"`
	PaymentHistory PaymentHistory  `json:"paymentHistory"`
}

// HasDelinquentAccount reports whether any account is late or missed.
func (c *CreditReport) HasDelinquentAccount() bool {
	for _, acct := range c.Accounts {
		switch acct.PaymentStatus {
		case "Late", "Missed":
			return true
		}
	}
	return c.PaymentHistory.Late60 > 0 || c.PaymentHistory.Missed > 0
}

// ApplicationExtraction is the root aggregate for one applicant.
// Assembled once per run and read-only afterwards.
type ApplicationExtraction struct {
	ApplicationID string `json:"applicationId"`

	PersonalInfo      PersonalInfo       `json:"personalInfo"`
	EmploymentInfo    EmploymentInfo     `json:"employmentInfo"`
	BankStatement     *BankStatement     `json:"bankStatement,omitempty"`
	Resume            *Resume            `json:"resume,omitempty"`
	AssetsLiabilities *AssetsLiabilities `json:"assetsLiabilities,omitempty"`
	CreditReport      *CreditReport      `json:"creditReport,omitempty"`

	Metadata         map[DocumentKind]ExtractionMetadata `json:"extractionMetadata"`
	MissingDocuments []DocumentKind                      `json:"missingDocuments,omitempty"`

	VerificationStatus VerificationStatus `json:"verificationStatus"`
	DataQualityScore   float64            `json:"dataQualityScore"`
}

// DocumentStatus returns the extraction status for a kind, missing if untracked.
func (a *ApplicationExtraction) DocumentStatus(kind DocumentKind) ExtractionStatus {
	if meta, ok := a.Metadata[kind]; ok {
		return meta.Status
	}
	return ExtractionMissing
}

// DocumentPresent reports whether a document was found and decoded at all.
func (a *ApplicationExtraction) DocumentPresent(kind DocumentKind) bool {
	status := a.DocumentStatus(kind)
	return status == ExtractionSuccess || status == ExtractionPartial
}

// DocumentsReviewed counts documents that were present, whatever their outcome.
func (a *ApplicationExtraction) DocumentsReviewed() int {
	return len(AllDocumentKinds()) - len(a.MissingDocuments)
}
