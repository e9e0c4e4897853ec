// internal/workers/validation/aggregate-scores/config.go
package aggregatescores

import "time"

type Config struct {
	Timeout time.Duration

	// quality_score < ReviewFloor pushes the status to needs_review
	ReviewFloor float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		ReviewFloor: 0.6,
	}
}
