// internal/workers/validation/check-consistency/config.go
package checkconsistency

import "time"

type Config struct {
	Timeout time.Duration

	// income reconciliation thresholds
	VarianceHigh   float64
	VarianceMedium float64
	IncomeFloor    float64

	// asset thresholds
	NetWorthCeiling float64
	DebtBurdenFloor float64
	MaxProperties   int

	// debt service: monthly payment estimated as a flat share of total
	// liabilities, compared against monthly income
	DebtServiceRate float64
	DTIRatioMax     float64

	// employment
	MinEmploymentDays int

	// credit score bands on the 0-1800 scale
	CreditScoreHigh   int
	CreditScoreMedium int

	// résumé / identity name agreement
	NameSimilarityFloor float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		VarianceHigh:        0.30,
		VarianceMedium:      0.15,
		IncomeFloor:         1000,
		NetWorthCeiling:     500000,
		DebtBurdenFloor:     -100000,
		MaxProperties:       5,
		DebtServiceRate:     0.05,
		DTIRatioMax:         0.43,
		MinEmploymentDays:   90,
		CreditScoreHigh:     300,
		CreditScoreMedium:   600,
		NameSimilarityFloor: 0.70,
	}
}
