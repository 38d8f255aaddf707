// Package registry creates and looks up exchanges, one per token.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"ammSwap/internal/exchange"
	"ammSwap/internal/ledger"
)

// AssetResolver returns the asset ledger of a token, false if unknown.
type AssetResolver func(token common.Address) (exchange.Asset, bool)

// Config holds the registry's identity and shared collaborators.
type Config struct {
	Address   common.Address
	BaseToken common.Address
	Base      exchange.Asset
	Assets    AssetResolver
	Clock     exchange.Clock
}

// Registry maps tokens to their exchanges. Entries are never removed.
type Registry struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.RWMutex
	nonce uint64
	pools map[common.Address]*exchange.Exchange
	order []*exchange.Exchange
}

var _ exchange.PoolLocator = (*Registry)(nil)

func New(cfg Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:    cfg,
		logger: logger,
		pools:  make(map[common.Address]*exchange.Exchange),
	}
}

func (r *Registry) Address() common.Address { return r.cfg.Address }

// CreatePool deploys an empty exchange for token.
func (r *Registry) CreatePool(token common.Address) (*exchange.Exchange, error) {
	return r.create(token, nil)
}

func (r *Registry) create(token common.Address, l *ledger.Ledger) (*exchange.Exchange, error) {
	if token == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address", exchange.ErrInvalidTokenIdentity)
	}
	if token == r.cfg.Address {
		return nil, fmt.Errorf("%w: registry address", exchange.ErrInvalidTokenIdentity)
	}
	if token == r.cfg.BaseToken {
		return nil, fmt.Errorf("%w: base currency", exchange.ErrInvalidTokenIdentity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pools[token]; ok {
		return nil, fmt.Errorf("%w: %s at %s", exchange.ErrPoolAlreadyExists, token.Hex(), existing.Address().Hex())
	}
	asset, ok := r.resolve(token)
	if !ok {
		return nil, fmt.Errorf("%w: unknown token %s", exchange.ErrInvalidTokenIdentity, token.Hex())
	}

	address := crypto.CreateAddress(r.cfg.Address, r.nonce)
	pool := exchange.New(exchange.Config{
		Address:    address,
		Token:      token,
		Factory:    r.cfg.Address,
		Base:       r.cfg.Base,
		TokenAsset: asset,
		Pools:      r,
		Clock:      r.cfg.Clock,
		Ledger:     l,
	}, r.logger)

	r.nonce++
	r.pools[token] = pool
	r.order = append(r.order, pool)

	r.logger.Info("pool created", zap.String("token", token.Hex()), zap.String("pool", address.Hex()))
	return pool, nil
}

// GetPool returns the exchange registered for token.
func (r *Registry) GetPool(token common.Address) (*exchange.Exchange, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[token]
	return pool, ok
}

// Pools returns all exchanges in creation order.
func (r *Registry) Pools() []*exchange.Exchange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*exchange.Exchange, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) resolve(token common.Address) (exchange.Asset, bool) {
	if r.cfg.Assets == nil {
		return nil, false
	}
	return r.cfg.Assets(token)
}
