package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammSwap/internal/config"
	"ammSwap/internal/pricing"
	"ammSwap/internal/units"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	baseReserve, err := units.ParseUnits(cfg.BaseReserve, cfg.Decimals)
	if err != nil {
		return fmt.Errorf("base reserve: %w", err)
	}
	tokenReserve, err := units.ParseUnits(cfg.TokenReserve, cfg.Decimals)
	if err != nil {
		return fmt.Errorf("token reserve: %w", err)
	}
	amount, err := units.ParseUnits(cfg.Amount, cfg.Decimals)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("amount must not be negative")
	}

	inputReserve, outputReserve := baseReserve, tokenReserve
	if cfg.Direction == config.DirectionTokenToBase {
		inputReserve, outputReserve = tokenReserve, baseReserve
	}
	out, err := pricing.QuoteSwapOutput(amount, inputReserve, outputReserve)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}

	logger.Debug("quote",
		zap.String("direction", cfg.Direction),
		zap.Stringer("in", amount),
		zap.Stringer("out", out),
	)
	fmt.Fprintln(cmd.OutOrStdout(), units.FormatTrimmed(out, cfg.Decimals))
	return nil
}
