// internal/workers/validation/check-consistency/checkers.go
package checkconsistency

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"eligibility-workers/internal/models"
)

var nationalIDPattern = regexp.MustCompile(`^\d{3}-\d{4}-\d{8}-\d$`)

// checkPersonal flags missing or implausible identity fields.
func (h *Handler) checkPersonal(app *models.ApplicationExtraction, asOf time.Time) []models.ValidationFinding {
	var findings []models.ValidationFinding
	info := app.PersonalInfo

	var missing []string
	if info.FullName == "" {
		missing = append(missing, "fullName")
	}
	if info.NationalID == "" {
		missing = append(missing, "nationalId")
	}
	if info.DateOfBirth == nil {
		missing = append(missing, "dateOfBirth")
	}
	if len(missing) > 0 {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryPersonalInfo,
			Severity:          models.SeverityHigh,
			Message:           fmt.Sprintf("Missing required personal fields: %s", strings.Join(missing, ", ")),
			FieldsInvolved:    missing,
			AffectedDocuments: []models.DocumentKind{models.DocEmiratesID},
		})
	}

	if info.NationalID != "" && !nationalIDPattern.MatchString(info.NationalID) {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryPersonalInfo,
			Severity:          models.SeverityMedium,
			Message:           fmt.Sprintf("National id %q does not match the expected pattern", info.NationalID),
			FieldsInvolved:    []string{"nationalId"},
			AffectedDocuments: []models.DocumentKind{models.DocEmiratesID},
		})
	}

	if info.DateOfBirth != nil {
		age := yearsBetween(*info.DateOfBirth, asOf)
		if age < 18 {
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryPersonalInfo,
				Severity:          models.SeverityCritical,
				Message:           fmt.Sprintf("Applicant age %d is below the minimum of 18", age),
				FieldsInvolved:    []string{"dateOfBirth"},
				AffectedDocuments: []models.DocumentKind{models.DocEmiratesID},
			})
		} else if age > 100 {
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryPersonalInfo,
				Severity:          models.SeverityMedium,
				Message:           fmt.Sprintf("Applicant age %d exceeds 100, likely an extraction error", age),
				FieldsInvolved:    []string{"dateOfBirth"},
				AffectedDocuments: []models.DocumentKind{models.DocEmiratesID},
				AutoResolvable:    true,
			})
		}
	}

	if resumeName := resumeFullName(app); resumeName != "" && info.FullName != "" {
		if similarity := nameSimilarity(info.FullName, resumeName); similarity < h.config.NameSimilarityFloor {
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryPersonalInfo,
				Severity:          models.SeverityMedium,
				Message:           fmt.Sprintf("Identity name %q and resume name %q disagree (similarity %.2f)", info.FullName, resumeName, similarity),
				FieldsInvolved:    []string{"fullName"},
				AffectedDocuments: []models.DocumentKind{models.DocEmiratesID, models.DocResume},
			})
		}
	}

	return findings
}

// checkEmployment flags missing employer data and implausible tenure.
func (h *Handler) checkEmployment(app *models.ApplicationExtraction, asOf time.Time) []models.ValidationFinding {
	var findings []models.ValidationFinding
	info := app.EmploymentInfo

	if info.Employer == "" {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryEmployment,
			Severity:          models.SeverityHigh,
			Message:           "Employer name is missing",
			FieldsInvolved:    []string{"employer"},
			AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter},
		})
	}
	if info.JobTitle == "" {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryEmployment,
			Severity:          models.SeverityMedium,
			Message:           "Job title is missing",
			FieldsInvolved:    []string{"jobTitle"},
			AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter},
		})
	}

	if info.StartDate != nil {
		end := asOf
		if info.EndDate != nil {
			end = *info.EndDate
		}
		if info.EndDate != nil && info.EndDate.Before(*info.StartDate) {
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryEmployment,
				Severity:          models.SeverityCritical,
				Message:           "Employment end date precedes start date",
				FieldsInvolved:    []string{"startDate", "endDate"},
				AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter},
			})
		} else if days := int(end.Sub(*info.StartDate).Hours() / 24); days < h.config.MinEmploymentDays {
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryEmployment,
				Severity:          models.SeverityMedium,
				Message:           fmt.Sprintf("Employment duration of %d days is below %d days", days, h.config.MinEmploymentDays),
				FieldsInvolved:    []string{"startDate"},
				AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter},
			})
		}
	}

	return findings
}

// checkIncome reconciles the declared salary against the bank-derived income.
func (h *Handler) checkIncome(app *models.ApplicationExtraction) []models.ValidationFinding {
	var findings []models.ValidationFinding

	declared := app.EmploymentInfo.MonthlySalary
	var derived float64
	if app.BankStatement != nil {
		derived = app.BankStatement.MonthlyIncome()
	}

	if declared <= 0 && derived <= 0 {
		return append(findings, models.ValidationFinding{
			Category:          models.CategoryIncome,
			Severity:          models.SeverityCritical,
			Message:           "No income source found: neither declared salary nor bank deposits",
			FieldsInvolved:    []string{"monthlySalary"},
			AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter, models.DocBankStatement},
		})
	}

	if declared > 0 && derived > 0 {
		variance := math.Abs(declared-derived) / math.Max(declared, derived)
		switch {
		case variance >= h.config.VarianceHigh:
			findings = append(findings, models.ValidationFinding{
				Category:          models.CategoryIncome,
				Severity:          models.SeverityHigh,
				Message:           fmt.Sprintf("Income mismatch: declared %.2f vs bank-derived %.2f (variance %.2f)", declared, derived, variance),
				FieldsInvolved:    []string{"monthlySalary"},
				AffectedDocuments: []models.DocumentKind{models.DocEmploymentLetter, models.DocBankStatement},
			})
		case variance >= h.config.VarianceMedium:
			findings = append(findings, models.ValidationFinding{
				Category:            models.CategoryIncome,
				Severity:            models.SeverityMedium,
				Message:             fmt.Sprintf("Income variance: declared %.2f vs bank-derived %.2f (variance %.2f)", declared, derived, variance),
				FieldsInvolved:      []string{"monthlySalary"},
				AffectedDocuments:   []models.DocumentKind{models.DocEmploymentLetter, models.DocBankStatement},
				AutoResolvable:      true,
				SuggestedResolution: fmt.Sprintf("Use the average of both sources: %.2f", (declared+derived)/2),
			})
		}
	}

	income := derived
	if income <= 0 {
		income = declared
	}
	if income > 0 && income < h.config.IncomeFloor {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryIncome,
			Severity:          models.SeverityInfo,
			Message:           fmt.Sprintf("Monthly income %.2f is below %.0f", income, h.config.IncomeFloor),
			FieldsInvolved:    []string{"monthlySalary"},
			AffectedDocuments: []models.DocumentKind{models.DocBankStatement},
		})
	}

	return findings
}

// checkAssets flags extremes of net worth and property count.
func (h *Handler) checkAssets(app *models.ApplicationExtraction) []models.ValidationFinding {
	if app.AssetsLiabilities == nil {
		return []models.ValidationFinding{{
			Category:          models.CategoryAssets,
			Severity:          models.SeverityMedium,
			Message:           "Assets and liabilities data is missing",
			AffectedDocuments: []models.DocumentKind{models.DocAssetsLiabilities},
		}}
	}

	var findings []models.ValidationFinding
	sheet := app.AssetsLiabilities
	netWorth := sheet.NetWorth()

	if netWorth > h.config.NetWorthCeiling {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryAssets,
			Severity:          models.SeverityMedium,
			Message:           fmt.Sprintf("Net worth %.2f indicates high net worth, may disqualify from support", netWorth),
			FieldsInvolved:    []string{"totalAssets", "totalLiabilities"},
			AffectedDocuments: []models.DocumentKind{models.DocAssetsLiabilities},
		})
	}
	if netWorth < h.config.DebtBurdenFloor {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryAssets,
			Severity:          models.SeverityHigh,
			Message:           fmt.Sprintf("High debt burden: net worth %.2f", netWorth),
			FieldsInvolved:    []string{"totalLiabilities"},
			AffectedDocuments: []models.DocumentKind{models.DocAssetsLiabilities},
		})
	}
	if len(sheet.Properties) > h.config.MaxProperties {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryAssets,
			Severity:          models.SeverityLow,
			Message:           fmt.Sprintf("Applicant holds %d properties", len(sheet.Properties)),
			FieldsInvolved:    []string{"properties"},
			AffectedDocuments: []models.DocumentKind{models.DocAssetsLiabilities},
		})
	}

	income := app.EmploymentInfo.MonthlySalary
	if app.BankStatement != nil {
		if derived := app.BankStatement.MonthlyIncome(); derived > 0 {
			income = derived
		}
	}
	if income > 0 && sheet.TotalLiabilities > 0 {
		monthlyDebt := sheet.TotalLiabilities * h.config.DebtServiceRate
		if dti := monthlyDebt / income; dti > h.config.DTIRatioMax {
			findings = append(findings, models.ValidationFinding{
				Category:            models.CategoryAssets,
				Severity:            models.SeverityMedium,
				Message:             fmt.Sprintf("High debt-to-income ratio: %.0f%% against a %.0f%% ceiling", dti*100, h.config.DTIRatioMax*100),
				FieldsInvolved:      []string{"totalLiabilities", "monthlySalary"},
				AffectedDocuments:   []models.DocumentKind{models.DocBankStatement, models.DocAssetsLiabilities},
				SuggestedResolution: "Consider debt consolidation or income support programs",
			})
		}
	}

	return findings
}

// checkCredit flags low scores and delinquent accounts.
func (h *Handler) checkCredit(app *models.ApplicationExtraction) []models.ValidationFinding {
	if app.CreditReport == nil {
		return []models.ValidationFinding{{
			Category:          models.CategoryCredit,
			Severity:          models.SeverityMedium,
			Message:           "Credit report is missing",
			AffectedDocuments: []models.DocumentKind{models.DocCreditReport},
		}}
	}

	var findings []models.ValidationFinding
	report := app.CreditReport

	switch {
	case report.Score < h.config.CreditScoreHigh:
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryCredit,
			Severity:          models.SeverityHigh,
			Message:           fmt.Sprintf("Credit score %d is critically low", report.Score),
			FieldsInvolved:    []string{"score"},
			AffectedDocuments: []models.DocumentKind{models.DocCreditReport},
		})
	case report.Score < h.config.CreditScoreMedium:
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryCredit,
			Severity:          models.SeverityMedium,
			Message:           fmt.Sprintf("Credit score %d is low", report.Score),
			FieldsInvolved:    []string{"score"},
			AffectedDocuments: []models.DocumentKind{models.DocCreditReport},
		})
	}

	if report.HasDelinquentAccount() {
		findings = append(findings, models.ValidationFinding{
			Category:          models.CategoryCredit,
			Severity:          models.SeverityHigh,
			Message:           "Credit report shows a delinquent account",
			FieldsInvolved:    []string{"accounts"},
			AffectedDocuments: []models.DocumentKind{models.DocCreditReport},
		})
	}

	return findings
}

func resumeFullName(app *models.ApplicationExtraction) string {
	if app.Resume == nil {
		return ""
	}
	return app.Resume.FullName
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// nameSimilarity is the Jaccard index over lowercased name tokens.
func nameSimilarity(a, b string) float64 {
	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for token := range ta {
		if tb[token] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(name)) {
		tokens[token] = true
	}
	return tokens
}
