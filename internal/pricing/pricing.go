// Package pricing holds the pure reserve math of the exchange. Every function
// allocates its result and never mutates its arguments.
package pricing

import (
	"errors"
	"math/big"
)

// fee: 1% => multiplier 99/100
const (
	FeeNumerator   = 99
	FeeDenominator = 100
)

// MinimumLiquidity is the exclusive lower bound for the base deposit that
// bootstraps an empty pool.
const MinimumLiquidity = 1_000_000_000

var (
	ErrInvalidReserves = errors.New("invalid reserves")

	feeMul = big.NewInt(FeeNumerator)
	feeDen = big.NewInt(FeeDenominator)
)

// QuoteProportional returns floor(amount * outputReserve / inputReserve).
func QuoteProportional(amount, inputReserve, outputReserve *big.Int) (*big.Int, error) {
	if inputReserve.Sign() <= 0 {
		return nil, ErrInvalidReserves
	}
	out := new(big.Int).Mul(amount, outputReserve)
	return out.Quo(out, inputReserve), nil
}

// QuoteProportionalUp is QuoteProportional rounded up. It prices the
// dependent side of a deposit so that truncation never costs the pool.
func QuoteProportionalUp(amount, inputReserve, outputReserve *big.Int) (*big.Int, error) {
	if inputReserve.Sign() <= 0 {
		return nil, ErrInvalidReserves
	}
	return ceilDiv(new(big.Int).Mul(amount, outputReserve), inputReserve), nil
}

// QuoteSwapOutput applies the constant-product formula with the 1% fee kept
// in the pool:
//
//	out = floor(in*99*outRes / (inRes*100 + in*99))
func QuoteSwapOutput(amountIn, inputReserve, outputReserve *big.Int) (*big.Int, error) {
	if inputReserve.Sign() <= 0 || outputReserve.Sign() <= 0 {
		return nil, ErrInvalidReserves
	}
	withFee := new(big.Int).Mul(amountIn, feeMul)
	numerator := new(big.Int).Mul(withFee, outputReserve)
	denominator := new(big.Int).Mul(inputReserve, feeDen)
	denominator.Add(denominator, withFee)
	return numerator.Quo(numerator, denominator), nil
}

// QuoteInitialShares mints shares 1:1 with the base deposit of an empty pool.
func QuoteInitialShares(baseDeposit *big.Int) *big.Int {
	return new(big.Int).Set(baseDeposit)
}

// QuoteAdditionalShares returns floor(baseDeposit * totalShares / baseReserve).
func QuoteAdditionalShares(baseDeposit, baseReserve, totalShares *big.Int) (*big.Int, error) {
	if baseReserve.Sign() <= 0 {
		return nil, ErrInvalidReserves
	}
	out := new(big.Int).Mul(baseDeposit, totalShares)
	return out.Quo(out, baseReserve), nil
}

// QuoteWithdrawal returns floor(burnShares * reserve / totalShares). It is
// applied to each reserve independently.
func QuoteWithdrawal(burnShares, reserve, totalShares *big.Int) (*big.Int, error) {
	if totalShares.Sign() <= 0 {
		return nil, ErrInvalidReserves
	}
	out := new(big.Int).Mul(burnShares, reserve)
	return out.Quo(out, totalShares), nil
}

func ceilDiv(numerator, denominator *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
