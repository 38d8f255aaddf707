package config

import (
	"time"

	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for replaying an operation stream.
type SimulateConfig struct {
	Input           string
	Out             string
	StateFile       string
	PGDSN           string
	StateName       string
	Migrate         bool
	Registry        string
	BaseToken       string
	BatchSize       int
	RPCURL          string
	DefaultDecimals uint8
	MaxRetries      int
	RetryBackoff    time.Duration
	LogLevel        string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":           "./data/receipts.jsonl",
		"state-name":    "default",
		"registry":      "0x00000000000000000000000000000000000000fa",
		"base-token":    "0x00000000000000000000000000000000000000ee",
		"batch-size":    500,
		"decimals":      18,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Input:           v.GetString("in"),
		Out:             v.GetString("out"),
		StateFile:       v.GetString("state-file"),
		PGDSN:           v.GetString("pg-dsn"),
		StateName:       v.GetString("state-name"),
		Migrate:         v.GetBool("migrate"),
		Registry:        v.GetString("registry"),
		BaseToken:       v.GetString("base-token"),
		BatchSize:       v.GetInt("batch-size"),
		RPCURL:          v.GetString("rpc"),
		DefaultDecimals: uint8(v.GetUint("decimals")),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}
