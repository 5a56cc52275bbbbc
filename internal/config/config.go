package config

import (
	"os"
	"time"
)

// LedgerConfig tunes the balance-ledger core.
type LedgerConfig struct {
	// BalanceCacheTTL bounds how stale a cached balance read can be.
	BalanceCacheTTL time.Duration
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		BalanceCacheTTL: getEnvAsDuration("BALANCE_CACHE_TTL", 60*time.Second),
	}
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
