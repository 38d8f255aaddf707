package exchange

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/ledger"
)

// SwapBaseForToken sells inputBase of the base currency from caller and sends
// the bought token to recipient.
func (e *Exchange) SwapBaseForToken(caller common.Address, inputBase, minTokenOut *big.Int, recipient common.Address, deadline time.Time) (*big.Int, error) {
	if err := checkAmounts(inputBase, minTokenOut); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}

	r := e.ledger.Snapshot()
	tokenOut, err := quoteSwap(inputBase, r.Base, r.Token)
	if err != nil {
		return nil, err
	}
	if tokenOut.Cmp(minTokenOut) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutputAmount, tokenOut, minTokenOut)
	}

	delta := ledger.Delta{Base: inputBase, Token: neg(tokenOut)}
	if err := e.ledger.Check(delta); err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	var s settlement
	if err := s.run(
		e.pullBase(caller, inputBase),
		e.sendToken(recipient, tokenOut),
	); err != nil {
		return nil, err
	}
	if err := e.commit(delta, &s); err != nil {
		return nil, err
	}

	e.logger.Debug("swap base for token",
		zap.String("caller", caller.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.Stringer("in", inputBase),
		zap.Stringer("out", tokenOut),
	)
	return tokenOut, nil
}

// SwapTokenForBase sells inputToken from caller for the base currency.
func (e *Exchange) SwapTokenForBase(caller common.Address, inputToken, minBaseOut *big.Int, deadline time.Time) (*big.Int, error) {
	if err := checkAmounts(inputToken, minBaseOut); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}

	r := e.ledger.Snapshot()
	baseOut, err := quoteSwap(inputToken, r.Token, r.Base)
	if err != nil {
		return nil, err
	}
	if baseOut.Cmp(minBaseOut) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutputAmount, baseOut, minBaseOut)
	}

	delta := ledger.Delta{Base: neg(baseOut), Token: inputToken}
	if err := e.ledger.Check(delta); err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}

	var s settlement
	if err := s.run(
		e.pullToken(caller, inputToken),
		e.sendBase(caller, baseOut),
	); err != nil {
		return nil, err
	}
	if err := e.commit(delta, &s); err != nil {
		return nil, err
	}

	e.logger.Debug("swap token for base",
		zap.String("caller", caller.Hex()),
		zap.Stringer("in", inputToken),
		zap.Stringer("out", baseOut),
	)
	return baseOut, nil
}

// SwapTokenForToken sells input of this pool's token and buys otherToken with
// the proceeds through otherToken's pool. The intermediate base currency moves
// pool to pool. minOutput bounds only the final amount.
func (e *Exchange) SwapTokenForToken(caller common.Address, input, minOutput *big.Int, otherToken common.Address, deadline time.Time) (*big.Int, error) {
	if err := checkAmounts(input, minOutput); err != nil {
		return nil, err
	}
	if e.pools == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchPool, otherToken.Hex())
	}
	other, ok := e.pools.GetPool(otherToken)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchPool, otherToken.Hex())
	}

	unlock := lockPair(e, other)
	defer unlock()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}

	// Both legs are priced against snapshots before anything moves. When the
	// route comes back to this pool, the second leg sees the first leg's
	// reserves.
	first := e.ledger.Snapshot()
	baseOut, err := quoteSwap(input, first.Token, first.Base)
	if err != nil {
		return nil, err
	}
	sell := ledger.Delta{Base: neg(baseOut), Token: input}

	second := other.ledger.Snapshot()
	if other == e {
		second = first.Then(sell)
	}
	output, err := quoteSwap(baseOut, second.Base, second.Token)
	if err != nil {
		return nil, err
	}
	if output.Cmp(minOutput) < 0 {
		return nil, fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutputAmount, output, minOutput)
	}
	buy := ledger.Delta{Base: baseOut, Token: neg(output)}

	if other == e {
		sell, buy = sell.Plus(buy), ledger.Delta{}
	}
	if err := e.ledger.Check(sell); err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}
	if err := other.ledger.Check(buy); err != nil {
		return nil, fmt.Errorf("check sibling ledger: %w", err)
	}

	var s settlement
	if err := s.run(
		e.pullToken(caller, input),
		movement{label: "route base", asset: e.base, owner: e.address, recipient: other.address, amount: baseOut},
		other.sendToken(caller, output),
	); err != nil {
		return nil, err
	}
	if err := e.commit(sell, &s); err != nil {
		return nil, err
	}
	if err := other.ledger.Apply(buy); err != nil {
		if undoErr := e.ledger.Apply(invert(sell)); undoErr != nil {
			e.logger.Error("undo first leg", zap.Error(undoErr))
		}
		if rbErr := s.rollback(); rbErr != nil {
			e.logger.Error("rollback after sibling rejection", zap.Error(rbErr))
		}
		return nil, fmt.Errorf("apply sibling ledger: %w", err)
	}

	e.logger.Debug("swap token for token",
		zap.String("caller", caller.Hex()),
		zap.String("other_pool", other.address.Hex()),
		zap.Stringer("in", input),
		zap.Stringer("base", baseOut),
		zap.Stringer("out", output),
	)
	return output, nil
}

func invert(d ledger.Delta) ledger.Delta {
	out := ledger.Delta{Holder: d.Holder}
	if d.Base != nil {
		out.Base = neg(d.Base)
	}
	if d.Token != nil {
		out.Token = neg(d.Token)
	}
	if d.Shares != nil {
		out.Shares = neg(d.Shares)
	}
	return out
}
