package exchange_test

import (
	"errors"
	"math/big"
	"testing"

	"ammSwap/internal/exchange"
)

func TestAddLiquidityEmptyPool(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.fund(f.base, owner, pool, ether("100"))
	f.fund(token, owner, pool, ether("200"))

	shares, err := pool.AddLiquidity(owner, ether("100"), ether("200"), f.deadline())
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	assertAmount(t, "shares", shares, ether("100"))
	assertAmount(t, "base reserve", pool.BaseReserve(), ether("100"))
	assertAmount(t, "token reserve", pool.TokenReserve(), ether("200"))
	assertAmount(t, "total shares", pool.TotalShares(), ether("100"))
	assertAmount(t, "owner shares", pool.ShareBalance(owner), ether("100"))
	f.assertBacked(pool, token)
	assertInvariants(t, pool)
}

func TestAddLiquidityWholeUnits(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, big.NewInt(100_000_000_000), big.NewInt(200_000_000_000))
	assertAmount(t, "shares", pool.TotalShares(), big.NewInt(100_000_000_000))
}

func TestAddLiquidityBelowMinimum(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.fund(f.base, owner, pool, ether("1"))
	f.fund(token, owner, pool, ether("1"))

	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(1_000_000_000)} {
		_, err := pool.AddLiquidity(owner, amount, amount, f.deadline())
		if !errors.Is(err, exchange.ErrBelowMinimumLiquidity) {
			t.Fatalf("deposit %s: expected ErrBelowMinimumLiquidity, got %v", amount, err)
		}
	}
	if f.base.BalanceOf(pool.Address()).Sign() != 0 {
		t.Fatalf("pool should hold no base currency")
	}

	if _, err := pool.AddLiquidity(owner, big.NewInt(1_000_000_001), big.NewInt(0), f.deadline()); !errors.Is(err, exchange.ErrInsufficientTokenAmount) {
		t.Fatalf("expected ErrInsufficientTokenAmount for zero token deposit, got %v", err)
	}
	assertInvariants(t, pool)
}

func TestAddLiquidityExistingReserves(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))
	f.fund(f.base, owner, pool, ether("50"))
	f.fund(token, owner, pool, ether("200"))

	shares, err := pool.AddLiquidity(owner, ether("50"), ether("200"), f.deadline())
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	assertAmount(t, "shares", shares, ether("50"))
	assertAmount(t, "base reserve", pool.BaseReserve(), ether("150"))
	assertAmount(t, "token reserve", pool.TokenReserve(), ether("300"))
	assertAmount(t, "total shares", pool.TotalShares(), ether("150"))
	assertAmount(t, "owner shares", pool.ShareBalance(owner), ether("150"))
	assertAmount(t, "unspent token", token.BalanceOf(owner), ether("100"))
	f.assertBacked(pool, token)
	assertInvariants(t, pool)
}

func TestAddLiquidityRoundsDepositUp(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, big.NewInt(3_000_000_000), big.NewInt(2_000_000_000))
	f.fund(f.base, user, pool, big.NewInt(1))
	f.fund(token, user, pool, big.NewInt(1))

	shares, err := pool.AddLiquidity(user, big.NewInt(1), big.NewInt(1), f.deadline())
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	assertAmount(t, "shares", shares, big.NewInt(1))
	assertAmount(t, "token reserve", pool.TokenReserve(), big.NewInt(2_000_000_001))
	f.assertBacked(pool, token)

	f.fund(f.base, user, pool, big.NewInt(2))
	if _, err := pool.AddLiquidity(user, big.NewInt(2), big.NewInt(1), f.deadline()); !errors.Is(err, exchange.ErrInsufficientTokenAmount) {
		t.Fatalf("expected ErrInsufficientTokenAmount, got %v", err)
	}
	assertInvariants(t, pool)
}

func TestAddLiquidityTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.fund(f.base, owner, pool, ether("100"))
	if err := token.Mint(owner, ether("200")); err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err := pool.AddLiquidity(owner, ether("100"), ether("200"), f.deadline())
	if !errors.Is(err, exchange.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	assertAmount(t, "owner base", f.base.BalanceOf(owner), ether("100"))
	assertAmount(t, "pool base", f.base.BalanceOf(pool.Address()), big.NewInt(0))
	assertAmount(t, "allowance", f.base.Allowance(owner, pool.Address()), ether("100"))
	assertAmount(t, "total shares", pool.TotalShares(), big.NewInt(0))
	assertInvariants(t, pool)
}

func TestRemoveSomeLiquidity(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))

	baseOut, tokenOut, err := pool.RemoveLiquidity(owner, ether("25"), ether("25"), ether("50"), f.deadline())
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	assertAmount(t, "base out", baseOut, ether("25"))
	assertAmount(t, "token out", tokenOut, ether("50"))
	assertAmount(t, "base reserve", pool.BaseReserve(), ether("75"))
	assertAmount(t, "token reserve", pool.TokenReserve(), ether("150"))
	assertAmount(t, "total shares", pool.TotalShares(), ether("75"))
	assertAmount(t, "owner shares", pool.ShareBalance(owner), ether("75"))
	assertAmount(t, "owner base", f.base.BalanceOf(owner), ether("25"))
	f.assertBacked(pool, token)
	assertInvariants(t, pool)
}

func TestRemoveAllLiquidity(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))

	if _, _, err := pool.RemoveLiquidity(owner, ether("100"), ether("100"), ether("200"), f.deadline()); err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	assertAmount(t, "base reserve", pool.BaseReserve(), big.NewInt(0))
	assertAmount(t, "token reserve", pool.TokenReserve(), big.NewInt(0))
	assertAmount(t, "total shares", pool.TotalShares(), big.NewInt(0))
	f.assertBacked(pool, token)
	assertInvariants(t, pool)

	// An emptied pool bootstraps again at a new price.
	f.seed(pool, token, user, ether("10"), ether("1"))
	assertAmount(t, "user shares", pool.ShareBalance(user), ether("10"))
}

func TestRemoveLiquidityRejections(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))

	_, _, err := pool.RemoveLiquidity(owner, ether("100.1"), big.NewInt(0), big.NewInt(0), f.deadline())
	if !errors.Is(err, exchange.ErrInsufficientShareBalance) {
		t.Fatalf("expected ErrInsufficientShareBalance, got %v", err)
	}
	_, _, err = pool.RemoveLiquidity(user, big.NewInt(1), big.NewInt(0), big.NewInt(0), f.deadline())
	if !errors.Is(err, exchange.ErrInsufficientShareBalance) {
		t.Fatalf("expected ErrInsufficientShareBalance for non-holder, got %v", err)
	}
	_, _, err = pool.RemoveLiquidity(owner, ether("25"), ether("25"), ether("50.000000000000000001"), f.deadline())
	if !errors.Is(err, exchange.ErrInsufficientOutputAmount) {
		t.Fatalf("expected ErrInsufficientOutputAmount, got %v", err)
	}

	assertAmount(t, "total shares", pool.TotalShares(), ether("100"))
	assertAmount(t, "base reserve", pool.BaseReserve(), ether("100"))
	f.assertBacked(pool, token)
}

func TestLiquidityRoundTripNeverProfits(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, big.NewInt(3_000_000_007), big.NewInt(7_000_000_003))

	base, tok := big.NewInt(1_234_567), big.NewInt(10_000_000)
	f.fund(f.base, user, pool, base)
	f.fund(token, user, pool, tok)
	shares, err := pool.AddLiquidity(user, base, tok, f.deadline())
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	deposited := new(big.Int).Sub(tok, token.BalanceOf(user))

	baseOut, tokenOut, err := pool.RemoveLiquidity(user, shares, big.NewInt(0), big.NewInt(0), f.deadline())
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	if baseOut.Cmp(base) > 0 || tokenOut.Cmp(deposited) > 0 {
		t.Fatalf("round trip returned %s/%s for deposit %s/%s", baseOut, tokenOut, base, deposited)
	}
	assertInvariants(t, pool)
}

func TestExpiredOperations(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))
	past := f.now.Add(-1)

	if _, err := pool.AddLiquidity(owner, ether("1"), ether("2"), past); !errors.Is(err, exchange.ErrExpired) {
		t.Fatalf("add: expected ErrExpired, got %v", err)
	}
	if _, _, err := pool.RemoveLiquidity(owner, ether("1"), big.NewInt(0), big.NewInt(0), past); !errors.Is(err, exchange.ErrExpired) {
		t.Fatalf("remove: expected ErrExpired, got %v", err)
	}
	if _, err := pool.SwapBaseForToken(owner, ether("1"), big.NewInt(0), owner, past); !errors.Is(err, exchange.ErrExpired) {
		t.Fatalf("swap base: expected ErrExpired, got %v", err)
	}
	if _, err := pool.SwapTokenForBase(owner, ether("1"), big.NewInt(0), past); !errors.Is(err, exchange.ErrExpired) {
		t.Fatalf("swap token: expected ErrExpired, got %v", err)
	}

	// The deadline itself is still valid.
	f.fund(f.base, owner, pool, ether("1"))
	f.fund(token, owner, pool, ether("2"))
	if _, err := pool.AddLiquidity(owner, ether("1"), ether("2"), f.now); err != nil {
		t.Fatalf("add at deadline: %v", err)
	}
}

func TestInvalidAmounts(t *testing.T) {
	f := newFixture(t)
	pool, _ := f.newPool(tokenAAddr, "TKN")
	huge := new(big.Int).Lsh(big.NewInt(1), 256)

	if _, err := pool.AddLiquidity(owner, big.NewInt(-1), big.NewInt(0), f.deadline()); !errors.Is(err, exchange.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := pool.QuoteTokenOutput(nil); !errors.Is(err, exchange.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := pool.SwapBaseForToken(owner, huge, big.NewInt(0), owner, f.deadline()); !errors.Is(err, exchange.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransferShares(t *testing.T) {
	f := newFixture(t)
	pool, token := f.newPool(tokenAAddr, "TKN")
	f.seed(pool, token, owner, ether("100"), ether("200"))
	before := pool.State().Reserves

	if err := pool.TransferShares(owner, user, ether("40")); err != nil {
		t.Fatalf("transfer shares: %v", err)
	}
	assertAmount(t, "owner shares", pool.ShareBalance(owner), ether("60"))
	assertAmount(t, "user shares", pool.ShareBalance(user), ether("40"))
	assertAmount(t, "base reserve", pool.BaseReserve(), before.Base)
	assertAmount(t, "token reserve", pool.TokenReserve(), before.Token)
	assertAmount(t, "total shares", pool.TotalShares(), before.TotalShares)
	assertInvariants(t, pool)

	if err := pool.TransferShares(user, carol, ether("41")); !errors.Is(err, exchange.ErrInsufficientShareBalance) {
		t.Fatalf("expected ErrInsufficientShareBalance, got %v", err)
	}
	if err := pool.TransferShares(user, carol, big.NewInt(-1)); !errors.Is(err, exchange.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	assertAmount(t, "user shares after rejection", pool.ShareBalance(user), ether("40"))

	baseOut, tokenOut, err := pool.RemoveLiquidity(user, ether("40"), big.NewInt(0), big.NewInt(0), f.deadline())
	if err != nil {
		t.Fatalf("remove transferred shares: %v", err)
	}
	assertAmount(t, "base out", baseOut, ether("40"))
	assertAmount(t, "token out", tokenOut, ether("80"))
	f.assertBacked(pool, token)
	assertInvariants(t, pool)
}
