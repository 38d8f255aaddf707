package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammSwap/internal/chain"
	"ammSwap/internal/config"
	"ammSwap/internal/model"
	"ammSwap/internal/state"
	"ammSwap/internal/storage/postgres"
	"ammSwap/internal/tokenmeta"
	"ammSwap/internal/units"
)

func runInspect(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInspect(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.StateFile == "" && cfg.PGDSN == "" && cfg.RPCURL == "" {
		return fmt.Errorf("one of state-file, pg-dsn or rpc is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()

	var stateStore state.Store
	switch {
	case cfg.StateFile != "":
		stateStore = &state.FileStore{Path: cfg.StateFile}
	case cfg.PGDSN != "":
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		stateStore = &state.DBStore{Store: store, Name: "simulate:" + cfg.StateName}
	}
	if stateStore != nil {
		snap, ok, err := stateStore.Load(ctx)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warn("no saved state found")
		} else {
			printSnapshot(out, snap)
		}
	}

	if cfg.RPCURL == "" {
		return nil
	}
	if len(cfg.Tokens) == 0 {
		return fmt.Errorf("token list is required with rpc")
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	logger.Info("inspect tokens", zap.Stringer("chain_id", chainID), zap.Int("tokens", len(cfg.Tokens)))

	holders, err := parseAddresses(cfg.Holders)
	if err != nil {
		return err
	}
	tokens, err := parseAddresses(cfg.Tokens)
	if err != nil {
		return err
	}

	resolver := tokenmeta.NewResolver(chainClient, tokenmeta.ResolverConfig{
		DefaultDecimals: 18,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
	}, logger)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tSYMBOL\tNAME\tDECIMALS\tSUPPLY")
	for _, token := range tokens {
		meta := resolver.Resolve(ctx, token)
		supply := "?"
		if v, err := tokenmeta.TotalSupply(ctx, chainClient, token); err == nil {
			supply = units.FormatTrimmed(v, meta.Decimals)
		} else {
			logger.Warn("totalSupply failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", meta.Address, meta.Symbol, meta.Name, meta.Decimals, supply)

		for _, holder := range holders {
			bal, err := tokenmeta.BalanceOf(ctx, chainClient, token, holder, nil)
			if err != nil {
				logger.Warn("balanceOf failed", zap.String("token", token.Hex()), zap.String("holder", holder.Hex()), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "  %s\t\t\t\t%s\n", holder.Hex(), units.FormatTrimmed(bal, meta.Decimals))
		}
	}
	return w.Flush()
}

func printSnapshot(out io.Writer, snap model.Snapshot) {
	decimals := make(map[string]uint8, len(snap.Tokens))
	symbols := make(map[string]string, len(snap.Tokens))
	for _, tok := range snap.Tokens {
		key := common.HexToAddress(tok.Address).Hex()
		decimals[key] = tok.Decimals
		symbols[key] = tok.Symbol
	}
	baseDecimals := decimals[common.HexToAddress(snap.BaseToken).Hex()]

	fmt.Fprintf(out, "registry %s  base %s  last_seq %d  updated %s\n", snap.Registry, snap.BaseToken, snap.LastSeq, snap.UpdatedAt)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tTOKEN\tBASE\tTOKEN RESERVE\tSHARES\tHOLDERS")
	for _, p := range snap.Pools {
		key := common.HexToAddress(p.Token).Hex()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			p.Address,
			symbolOr(symbols[key], p.Token),
			formatRecord(p.Reserves.Base, baseDecimals),
			formatRecord(p.Reserves.Token, decimals[key]),
			formatRecord(p.Reserves.TotalShares, baseDecimals),
			len(p.Holdings),
		)
	}
	w.Flush()
}

func formatRecord(value string, decimals uint8) string {
	v, err := units.Parse(value)
	if err != nil {
		return value
	}
	return units.FormatTrimmed(v, decimals)
}

func symbolOr(symbol, fallback string) string {
	if symbol == "" {
		return fallback
	}
	return symbol
}

func parseAddresses(values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for _, v := range values {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid address %q", v)
		}
		out = append(out, common.HexToAddress(v))
	}
	return out, nil
}
