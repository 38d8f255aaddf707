package tokenmeta

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/model"
)

// ResolverConfig controls lookups and the fallback used without RPC.
type ResolverConfig struct {
	DefaultDecimals uint8
	MaxRetries      int
	RetryBackoff    time.Duration
}

// Resolver returns token metadata from the cache, the chain, or the default.
// A failed lookup is cached as the default so each token is fetched once.
type Resolver struct {
	caller Caller
	cache  *Cache
	cfg    ResolverConfig
	logger *zap.Logger
}

// NewResolver builds a Resolver. A nil caller always yields the default.
func NewResolver(caller Caller, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		caller: caller,
		cache:  NewCache(),
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, token common.Address) model.TokenMeta {
	if meta, ok := r.cache.Get(token); ok {
		return meta
	}

	meta := model.TokenMeta{Address: token.Hex(), Decimals: r.cfg.DefaultDecimals}
	if r.caller != nil {
		var fetched model.TokenMeta
		err := r.withRetry(ctx, func(ctx context.Context) error {
			var err error
			fetched, err = Fetch(ctx, r.caller, token, r.logger)
			return err
		})
		if err == nil {
			meta = fetched
		} else {
			r.logger.Warn("token metadata fetch failed, using default", zap.String("token", token.Hex()), zap.Error(err))
		}
	}

	r.cache.Set(token, meta)
	return meta
}

// withRetry runs fn until it succeeds or MaxRetries retries are spent,
// doubling the delay after each failure.
func (r *Resolver) withRetry(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := r.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := r.cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		r.logger.Debug("retrying token lookup", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
