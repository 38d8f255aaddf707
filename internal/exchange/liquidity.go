package exchange

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/ledger"
	"ammSwap/internal/pricing"
)

// AddLiquidity deposits baseDeposit of the base currency plus the matching
// amount of token, capped by maxTokenDeposit, and mints shares to caller.
// An empty pool takes exactly maxTokenDeposit and sets the initial price.
func (e *Exchange) AddLiquidity(caller common.Address, baseDeposit, maxTokenDeposit *big.Int, deadline time.Time) (*big.Int, error) {
	if err := checkAmounts(baseDeposit, maxTokenDeposit); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}

	r := e.ledger.Snapshot()
	var tokenDeposit, shares *big.Int
	if r.Empty() {
		if baseDeposit.Cmp(minimumLiquidity) <= 0 {
			return nil, fmt.Errorf("%w: need more than %s base units to create pool", ErrBelowMinimumLiquidity, minimumLiquidity)
		}
		if maxTokenDeposit.Sign() == 0 {
			return nil, fmt.Errorf("%w: empty pool needs a token deposit", ErrInsufficientTokenAmount)
		}
		tokenDeposit = new(big.Int).Set(maxTokenDeposit)
		shares = pricing.QuoteInitialShares(baseDeposit)
	} else {
		var err error
		tokenDeposit, err = pricing.QuoteProportionalUp(baseDeposit, r.Base, r.Token)
		if err != nil {
			return nil, fmt.Errorf("quote deposit: %w", err)
		}
		if tokenDeposit.Cmp(maxTokenDeposit) > 0 {
			return nil, fmt.Errorf("%w: need %s, max %s", ErrInsufficientTokenAmount, tokenDeposit, maxTokenDeposit)
		}
		shares, err = pricing.QuoteAdditionalShares(baseDeposit, r.Base, r.TotalShares)
		if err != nil {
			return nil, fmt.Errorf("quote shares: %w", err)
		}
	}

	delta := ledger.Delta{Base: baseDeposit, Token: tokenDeposit, Holder: caller, Shares: shares}
	if err := e.ledger.Check(delta); err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	var s settlement
	if err := s.run(
		e.pullBase(caller, baseDeposit),
		e.pullToken(caller, tokenDeposit),
	); err != nil {
		return nil, err
	}
	if err := e.commit(delta, &s); err != nil {
		return nil, err
	}

	e.logger.Debug("add liquidity",
		zap.String("caller", caller.Hex()),
		zap.Stringer("base", baseDeposit),
		zap.Stringer("token", tokenDeposit),
		zap.Stringer("shares", shares),
	)
	return shares, nil
}

// RemoveLiquidity burns burnShares of caller and pays out the same fraction of
// both reserves.
func (e *Exchange) RemoveLiquidity(caller common.Address, burnShares, minBaseOut, minTokenOut *big.Int, deadline time.Time) (*big.Int, *big.Int, error) {
	if err := checkAmounts(burnShares, minBaseOut, minTokenOut); err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}

	balance := e.ledger.ShareBalance(caller)
	if balance.Cmp(burnShares) < 0 {
		return nil, nil, fmt.Errorf("%w: burn %s, balance %s", ErrInsufficientShareBalance, burnShares, balance)
	}

	r := e.ledger.Snapshot()
	baseOut, err := pricing.QuoteWithdrawal(burnShares, r.Base, r.TotalShares)
	if err != nil {
		return nil, nil, fmt.Errorf("quote withdrawal: %w", err)
	}
	tokenOut, err := pricing.QuoteWithdrawal(burnShares, r.Token, r.TotalShares)
	if err != nil {
		return nil, nil, fmt.Errorf("quote withdrawal: %w", err)
	}
	if baseOut.Cmp(minBaseOut) < 0 || tokenOut.Cmp(minTokenOut) < 0 {
		return nil, nil, fmt.Errorf("%w: got %s/%s, want at least %s/%s", ErrInsufficientOutputAmount, baseOut, tokenOut, minBaseOut, minTokenOut)
	}

	delta := ledger.Delta{Base: neg(baseOut), Token: neg(tokenOut), Holder: caller, Shares: neg(burnShares)}
	if err := e.ledger.Check(delta); err != nil {
		return nil, nil, fmt.Errorf("check ledger: %w", err)
	}

	var s settlement
	if err := s.run(
		e.sendBase(caller, baseOut),
		e.sendToken(caller, tokenOut),
	); err != nil {
		return nil, nil, err
	}
	if err := e.commit(delta, &s); err != nil {
		return nil, nil, err
	}

	e.logger.Debug("remove liquidity",
		zap.String("caller", caller.Hex()),
		zap.Stringer("shares", burnShares),
		zap.Stringer("base", baseOut),
		zap.Stringer("token", tokenOut),
	)
	return baseOut, tokenOut, nil
}

// TransferShares moves amount of from's pool shares to to. Reserves are
// untouched.
func (e *Exchange) TransferShares(from, to common.Address, amount *big.Int) error {
	if err := checkAmounts(amount); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	balance := e.ledger.ShareBalance(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: transfer %s, balance %s", ErrInsufficientShareBalance, amount, balance)
	}
	if err := e.ledger.Transfer(from, to, amount); err != nil {
		return fmt.Errorf("apply ledger: %w", err)
	}

	e.logger.Debug("transfer shares",
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Stringer("shares", amount),
	)
	return nil
}

func (e *Exchange) pullBase(owner common.Address, amount *big.Int) movement {
	return movement{label: "pull base", asset: e.base, spender: e.address, owner: owner, recipient: e.address, amount: amount, pull: true}
}

func (e *Exchange) pullToken(owner common.Address, amount *big.Int) movement {
	return movement{label: "pull token", asset: e.tokenAsset, spender: e.address, owner: owner, recipient: e.address, amount: amount, pull: true}
}

func (e *Exchange) sendBase(recipient common.Address, amount *big.Int) movement {
	return movement{label: "send base", asset: e.base, owner: e.address, recipient: recipient, amount: amount}
}

func (e *Exchange) sendToken(recipient common.Address, amount *big.Int) movement {
	return movement{label: "send token", asset: e.tokenAsset, owner: e.address, recipient: recipient, amount: amount}
}
