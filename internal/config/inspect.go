package config

import (
	"time"

	"github.com/spf13/pflag"
)

// InspectConfig holds configuration for printing pool state and token data.
type InspectConfig struct {
	StateFile    string
	PGDSN        string
	StateName    string
	RPCURL       string
	Tokens       []string
	Holders      []string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadInspect merges config file, environment variables, and flags into InspectConfig.
func LoadInspect(cfgFile string, flags *pflag.FlagSet) (InspectConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"state-name":    "default",
		"timeout":       30 * time.Second,
		"max-retries":   3,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return InspectConfig{}, err
	}

	return InspectConfig{
		StateFile:    v.GetString("state-file"),
		PGDSN:        v.GetString("pg-dsn"),
		StateName:    v.GetString("state-name"),
		RPCURL:       v.GetString("rpc"),
		Tokens:       getStringSlice(v, "token"),
		Holders:      getStringSlice(v, "holder"),
		Timeout:      v.GetDuration("timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
