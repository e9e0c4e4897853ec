// internal/workers/extraction/bank-statement/config.go
package bankstatement

import "time"

type Config struct {
	Timeout time.Duration

	// SalaryFloor is the minimum credit amount considered for salary
	// deposit classification.
	SalaryFloor float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		SalaryFloor: 1000,
	}
}
