// Package exchange implements a two-asset constant-product pool: a base
// currency paired with one token. Every operation either commits all of its
// transfers and ledger changes or none of them.
package exchange

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/ledger"
	"ammSwap/internal/pricing"
)

var (
	minimumLiquidity = big.NewInt(pricing.MinimumLiquidity)
	maxAmount        = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// PoolLocator finds the sibling pool of a token. The registry implements it.
type PoolLocator interface {
	GetPool(token common.Address) (*Exchange, bool)
}

// Clock supplies the time deadlines are checked against.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Config binds an exchange to its identities and collaborators.
type Config struct {
	Address    common.Address
	Token      common.Address
	Factory    common.Address
	Base       Asset
	TokenAsset Asset
	Pools      PoolLocator
	Clock      Clock
	// Ledger restores persisted state; a nil Ledger starts an empty pool.
	Ledger *ledger.Ledger
}

// Exchange is a single base/token pool.
type Exchange struct {
	address    common.Address
	token      common.Address
	factory    common.Address
	base       Asset
	tokenAsset Asset
	pools      PoolLocator
	clock      Clock
	logger     *zap.Logger

	mu     sync.Mutex
	ledger *ledger.Ledger
}

func New(cfg Config, logger *zap.Logger) *Exchange {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	l := cfg.Ledger
	if l == nil {
		l = ledger.New()
	}

	return &Exchange{
		address:    cfg.Address,
		token:      cfg.Token,
		factory:    cfg.Factory,
		base:       cfg.Base,
		tokenAsset: cfg.TokenAsset,
		pools:      cfg.Pools,
		clock:      clock,
		logger:     logger.With(zap.String("pool", cfg.Address.Hex()), zap.String("token", cfg.Token.Hex())),
		ledger:     l,
	}
}

func (e *Exchange) Address() common.Address { return e.address }
func (e *Exchange) Token() common.Address   { return e.token }

// Factory is the identity of the registry that created the pool.
func (e *Exchange) Factory() common.Address { return e.factory }

func (e *Exchange) BaseReserve() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.BaseReserve()
}

func (e *Exchange) TokenReserve() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TokenReserve()
}

func (e *Exchange) TotalShares() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalShares()
}

func (e *Exchange) ShareBalance(holder common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ShareBalance(holder)
}

// State is a consistent copy of a pool's ledger.
type State struct {
	Address  common.Address
	Token    common.Address
	Reserves ledger.Reserves
	Holdings []ledger.Holding
}

func (e *Exchange) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Address:  e.address,
		Token:    e.token,
		Reserves: e.ledger.Snapshot(),
		Holdings: e.ledger.Holdings(),
	}
}

// QuoteTokenOutput prices selling inputBase of the base currency.
func (e *Exchange) QuoteTokenOutput(inputBase *big.Int) (*big.Int, error) {
	if err := checkAmounts(inputBase); err != nil {
		return nil, err
	}
	e.mu.Lock()
	r := e.ledger.Snapshot()
	e.mu.Unlock()
	return quoteSwap(inputBase, r.Base, r.Token)
}

// QuoteBaseOutput prices selling inputToken of the pool's token.
func (e *Exchange) QuoteBaseOutput(inputToken *big.Int) (*big.Int, error) {
	if err := checkAmounts(inputToken); err != nil {
		return nil, err
	}
	e.mu.Lock()
	r := e.ledger.Snapshot()
	e.mu.Unlock()
	return quoteSwap(inputToken, r.Token, r.Base)
}

func (e *Exchange) checkDeadline(deadline time.Time) error {
	now := e.clock.Now()
	if now.After(deadline) {
		return fmt.Errorf("%w: now %d, deadline %d", ErrExpired, now.Unix(), deadline.Unix())
	}
	return nil
}

func (e *Exchange) commit(d ledger.Delta, s *settlement) error {
	if err := e.ledger.Apply(d); err != nil {
		if rbErr := s.rollback(); rbErr != nil {
			e.logger.Error("rollback after ledger rejection", zap.Error(rbErr))
		}
		return fmt.Errorf("apply ledger: %w", err)
	}
	return nil
}

func quoteSwap(in, inputReserve, outputReserve *big.Int) (*big.Int, error) {
	out, err := pricing.QuoteSwapOutput(in, inputReserve, outputReserve)
	if err != nil {
		return nil, fmt.Errorf("quote swap: %w", err)
	}
	return out, nil
}

func checkAmounts(amounts ...*big.Int) error {
	for _, a := range amounts {
		if a == nil || a.Sign() < 0 || a.Cmp(maxAmount) > 0 {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, a)
		}
	}
	return nil
}

// lockPair locks both pools in address order and returns the unlock func.
func lockPair(a, b *Exchange) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if bytes.Compare(a.address.Bytes(), b.address.Bytes()) > 0 {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

func neg(v *big.Int) *big.Int {
	return new(big.Int).Neg(v)
}
