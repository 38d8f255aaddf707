package exchange

import (
	"errors"

	"ammSwap/internal/pricing"
)

var (
	ErrExpired                  = errors.New("expired")
	ErrBelowMinimumLiquidity    = errors.New("below minimum liquidity")
	ErrInsufficientTokenAmount  = errors.New("insufficient token amount")
	ErrInsufficientShareBalance = errors.New("insufficient share balance")
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	ErrInvalidTokenIdentity     = errors.New("invalid token identity")
	ErrPoolAlreadyExists        = errors.New("pool already exists")
	ErrNoSuchPool               = errors.New("no such pool")
	ErrTransferFailed           = errors.New("transfer failed")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidReserves          = pricing.ErrInvalidReserves
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrExpired, "Expired"},
	{ErrBelowMinimumLiquidity, "BelowMinimumLiquidity"},
	{ErrInsufficientTokenAmount, "InsufficientTokenAmount"},
	{ErrInsufficientShareBalance, "InsufficientShareBalance"},
	{ErrInsufficientOutputAmount, "InsufficientOutputAmount"},
	{ErrInvalidTokenIdentity, "InvalidTokenIdentity"},
	{ErrPoolAlreadyExists, "PoolAlreadyExists"},
	{ErrNoSuchPool, "NoSuchPool"},
	{ErrTransferFailed, "TransferFailed"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInvalidReserves, "InvalidReserves"},
}

// Kind returns the stable name of the error kind wrapped by err, "" for nil
// and "Unknown" for errors outside the exchange's set.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}
