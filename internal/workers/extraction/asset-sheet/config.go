// internal/workers/extraction/asset-sheet/config.go
package assetsheet

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
