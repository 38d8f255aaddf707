package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ammSwap/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product exchange simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a JSONL operation stream against the exchange",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("in", "", "input operations JSONL (- for stdin)")
	simulateCmd.Flags().String("out", "./data/receipts.jsonl", "output receipts JSONL")
	simulateCmd.Flags().String("state-file", "", "local state file for resuming")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN for receipts and state")
	simulateCmd.Flags().String("state-name", "default", "state name when stored in Postgres")
	simulateCmd.Flags().Bool("migrate", false, "create Postgres tables before running")
	simulateCmd.Flags().String("registry", "0x00000000000000000000000000000000000000fa", "registry address")
	simulateCmd.Flags().String("base-token", "0x00000000000000000000000000000000000000ee", "base currency address")
	simulateCmd.Flags().Int("batch-size", 500, "receipts per storage batch")
	simulateCmd.Flags().String("rpc", "", "optional RPC URL for token metadata")
	simulateCmd.Flags().Uint("decimals", 18, "decimals of tokens without metadata")
	simulateCmd.Flags().Int("max-retries", 3, "maximum retry attempts for RPC lookups")
	simulateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("base-reserve", "", "base currency reserve (decimal units)")
	quoteCmd.Flags().String("token-reserve", "", "token reserve (decimal units)")
	quoteCmd.Flags().String("amount", "", "input amount (decimal units)")
	quoteCmd.Flags().String("direction", config.DirectionBaseToToken, "base-to-token or token-to-base")
	quoteCmd.Flags().Uint("decimals", 18, "decimals of both assets")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print saved pool state and on-chain token data",
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("state-file", "", "local state file to print")
	inspectCmd.Flags().String("pg-dsn", "", "Postgres DSN to read state from")
	inspectCmd.Flags().String("state-name", "default", "state name when stored in Postgres")
	inspectCmd.Flags().String("rpc", "", "RPC URL for token lookups")
	inspectCmd.Flags().StringSlice("token", nil, "token addresses (comma-separated)")
	inspectCmd.Flags().StringSlice("holder", nil, "holder addresses for balanceOf (comma-separated)")
	inspectCmd.Flags().Duration("timeout", 30*time.Second, "overall RPC timeout")
	inspectCmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	inspectCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	inspectCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(inspectCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
