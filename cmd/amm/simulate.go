package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammSwap/internal/chain"
	"ammSwap/internal/config"
	"ammSwap/internal/sim"
	"ammSwap/internal/state"
	"ammSwap/internal/storage"
	"ammSwap/internal/storage/postgres"
	"ammSwap/internal/tokenmeta"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if !common.IsHexAddress(cfg.Registry) {
		return fmt.Errorf("invalid registry address %q", cfg.Registry)
	}
	if !common.IsHexAddress(cfg.BaseToken) {
		return fmt.Errorf("invalid base token address %q", cfg.BaseToken)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var in io.Reader = cmd.InOrStdin()
	if cfg.Input != "-" {
		file, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		in = file
	}

	var (
		sink       storage.Storage = storage.NewJsonlStorage(cfg.Out)
		stateStore state.Store
	)
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if cfg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		sink = store
		stateStore = &state.DBStore{Store: store, Name: "simulate:" + cfg.StateName}
	}
	if cfg.StateFile != "" {
		stateStore = &state.FileStore{Path: cfg.StateFile}
	}

	var caller tokenmeta.Caller
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		caller = chainClient
	}
	resolver := tokenmeta.NewResolver(caller, tokenmeta.ResolverConfig{
		DefaultDecimals: cfg.DefaultDecimals,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
	}, logger)

	runner := sim.NewRunner(sim.Config{
		Registry:  common.HexToAddress(cfg.Registry),
		BaseToken: common.HexToAddress(cfg.BaseToken),
		BatchSize: cfg.BatchSize,
	}, resolver, sink, stateStore, logger)

	logger.Info("simulate start",
		zap.String("input", cfg.Input),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("state_file", cfg.StateFile),
		zap.String("registry", cfg.Registry),
		zap.String("base_token", cfg.BaseToken),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("rpc", cfg.RPCURL != ""),
	)

	summary, err := runner.Run(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied=%d failed=%d skipped=%d malformed=%d last_seq=%d\n",
		summary.Applied, summary.Failed, summary.Skipped, summary.Malformed, summary.LastSeq)
	return nil
}
