// Package sim replays a stream of operations against an in-memory registry
// and asset book, recording a receipt per operation.
package sim

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/asset"
	"ammSwap/internal/exchange"
	"ammSwap/internal/model"
	"ammSwap/internal/registry"
	"ammSwap/internal/state"
	"ammSwap/internal/storage"
)

// MetaResolver supplies metadata for tokens first seen in the stream.
// *tokenmeta.Resolver implements it.
type MetaResolver interface {
	Resolve(ctx context.Context, token common.Address) model.TokenMeta
}

// Config holds runtime settings for the simulator.
type Config struct {
	Registry     common.Address
	BaseToken    common.Address
	BaseSymbol   string
	BaseDecimals uint8
	BatchSize    int
}

// Summary counts what a Run did.
type Summary struct {
	Applied   int
	Failed    int
	Skipped   int
	Malformed int
	LastSeq   uint64
}

// Runner applies operations and writes receipts to storage. Progress is saved
// to the state store after every stored batch.
type Runner struct {
	cfg      Config
	meta     MetaResolver
	storage  storage.Storage
	state    state.Store
	logger   *zap.Logger
	book     *asset.Book
	registry *registry.Registry

	now     time.Time
	lastSeq uint64
}

// NewRunner builds a Runner with an empty registry and asset book. Run loads
// any saved state before applying operations.
func NewRunner(cfg Config, meta MetaResolver, sink storage.Storage, store state.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseSymbol == "" {
		cfg.BaseSymbol = "ETH"
	}
	if cfg.BaseDecimals == 0 {
		cfg.BaseDecimals = 18
	}
	r := &Runner{
		cfg:     cfg,
		meta:    meta,
		storage: sink,
		state:   store,
		logger:  logger,
	}
	r.reset()
	return r
}

func (r *Runner) reset() {
	base := asset.NewToken(r.cfg.BaseToken, r.cfg.BaseSymbol, r.cfg.BaseDecimals)
	r.book = asset.NewBook(base)
	r.registry = registry.New(registry.Config{
		Address:   r.cfg.Registry,
		BaseToken: r.cfg.BaseToken,
		Base:      base,
		Assets:    r.resolveAsset,
		Clock:     exchange.ClockFunc(func() time.Time { return r.now }),
	}, r.logger)
	r.lastSeq = 0
}

func (r *Runner) resolveAsset(token common.Address) (exchange.Asset, bool) {
	tok, ok := r.book.Token(token)
	if !ok {
		return nil, false
	}
	return tok, true
}

func (r *Runner) Registry() *registry.Registry { return r.registry }
func (r *Runner) Book() *asset.Book            { return r.book }

// Run reads JSONL operations from in until EOF. An operation without a
// sequence number is numbered by its 1-based position among the decoded
// operations, so replaying the same input after a restart skips everything at
// or below the last saved sequence number.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	if r.storage == nil {
		return Summary{}, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 500
	}

	if err := r.load(ctx); err != nil {
		return Summary{}, err
	}

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		summary Summary
		decoded uint64
	)
	batch := make([]model.Receipt, 0, r.cfg.BatchSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			summary.Malformed++
			r.logger.Warn("decode operation", zap.Error(err))
			continue
		}
		decoded++
		if op.Seq == 0 {
			op.Seq = decoded
		}
		if op.Seq <= r.lastSeq {
			summary.Skipped++
			continue
		}

		receipt := r.Apply(ctx, op)
		if receipt.Status == model.StatusOK {
			summary.Applied++
		} else {
			summary.Failed++
		}
		batch = append(batch, receipt)

		if len(batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, batch); err != nil {
				return summary, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan input: %w", err)
	}

	if err := r.flush(ctx, batch); err != nil {
		return summary, err
	}
	summary.LastSeq = r.lastSeq
	r.logger.Info("simulation complete",
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("malformed", summary.Malformed),
		zap.Uint64("last_seq", summary.LastSeq),
	)
	return summary, nil
}

func (r *Runner) load(ctx context.Context) error {
	if r.state == nil {
		return nil
	}
	snap, ok, err := r.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !ok {
		return nil
	}
	if err := r.Restore(snap); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	r.logger.Info("resume from state", zap.Uint64("last_seq", r.lastSeq), zap.Int("pools", len(snap.Pools)))
	return nil
}

func (r *Runner) flush(ctx context.Context, batch []model.Receipt) error {
	if len(batch) == 0 {
		return nil
	}
	if err := r.storage.PutReceiptBatch(ctx, batch); err != nil {
		return fmt.Errorf("store receipts: %w", err)
	}
	if r.state != nil {
		if err := r.state.Save(ctx, r.Snapshot()); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	r.logger.Info("batch complete",
		zap.Int("receipts", len(batch)),
		zap.Uint64("from_seq", batch[0].Seq),
		zap.Uint64("to_seq", batch[len(batch)-1].Seq),
	)
	return nil
}
