package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadSimulateDefaults(t *testing.T) {
	cfg, err := LoadSimulate("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BatchSize != 500 || cfg.DefaultDecimals != 18 || cfg.StateName != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadSimulateLayers(t *testing.T) {
	t.Setenv("AMM_BATCH_SIZE", "42")
	t.Setenv("AMM_STATE_FILE", "/tmp/from-env.json")

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.String("state-file", "", "")
	flags.Uint("decimals", 18, "")
	if err := flags.Parse([]string{"--in", "ops.jsonl", "--state-file", "/tmp/from-flag.json", "--decimals", "6"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadSimulate("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Input != "ops.jsonl" || cfg.DefaultDecimals != 6 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.StateFile != "/tmp/from-flag.json" {
		t.Fatalf("flag should win over env: %s", cfg.StateFile)
	}
	if cfg.BatchSize != 42 {
		t.Fatalf("env not applied: %d", cfg.BatchSize)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amm.yaml")
	content := "rpc: http://localhost:8545\ntoken:\n  - \"0xaa\"\n  - \"0xbb\"\nholder: 0x11, 0x22\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadInspect(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://localhost:8545" {
		t.Fatalf("rpc: %s", cfg.RPCURL)
	}
	if len(cfg.Tokens) != 2 || cfg.Tokens[1] != "0xbb" {
		t.Fatalf("tokens: %v", cfg.Tokens)
	}
	if len(cfg.Holders) != 2 || cfg.Holders[0] != "0x11" {
		t.Fatalf("holders: %v", cfg.Holders)
	}

	if _, err := LoadInspect(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadQuoteDirection(t *testing.T) {
	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.String("direction", DirectionBaseToToken, "")
	flags.String("amount", "", "")
	if err := flags.Parse([]string{"--direction", "sideways", "--amount", "1"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := LoadQuote("", flags); err == nil {
		t.Fatalf("expected error for unknown direction")
	}

	if err := flags.Set("direction", DirectionTokenToBase); err != nil {
		t.Fatalf("set: %v", err)
	}
	cfg, err := LoadQuote("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Direction != DirectionTokenToBase || cfg.Amount != "1" || cfg.Decimals != 18 {
		t.Fatalf("unexpected quote config: %+v", cfg)
	}
}
