package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	DirectionBaseToToken = "base-to-token"
	DirectionTokenToBase = "token-to-base"
)

// QuoteConfig holds the reserves and input of an offline price quote.
// Amounts are decimal strings scaled by Decimals.
type QuoteConfig struct {
	BaseReserve  string
	TokenReserve string
	Amount       string
	Direction    string
	Decimals     uint8
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"direction": DirectionBaseToToken,
		"decimals":  18,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		BaseReserve:  v.GetString("base-reserve"),
		TokenReserve: v.GetString("token-reserve"),
		Amount:       v.GetString("amount"),
		Direction:    v.GetString("direction"),
		Decimals:     uint8(v.GetUint("decimals")),
		LogLevel:     v.GetString("log-level"),
	}
	switch cfg.Direction {
	case DirectionBaseToToken, DirectionTokenToBase:
	default:
		return QuoteConfig{}, fmt.Errorf("unknown direction %q", cfg.Direction)
	}
	return cfg, nil
}
