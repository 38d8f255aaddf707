package exchange_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammSwap/internal/asset"
	"ammSwap/internal/exchange"
	"ammSwap/internal/registry"
	"ammSwap/internal/units"
)

var (
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	baseAddr    = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	tokenAAddr  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenBAddr  = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	owner       = common.HexToAddress("0x1111111111111111111111111111111111111111")
	user        = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol       = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fixture struct {
	t        *testing.T
	now      time.Time
	base     *asset.Token
	book     *asset.Book
	registry *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		now:  time.Unix(1_700_000_000, 0).UTC(),
		base: asset.NewToken(baseAddr, "ETH", 18),
	}
	f.book = asset.NewBook(f.base)
	f.registry = registry.New(registry.Config{
		Address:   factoryAddr,
		BaseToken: baseAddr,
		Base:      f.base,
		Assets: func(token common.Address) (exchange.Asset, bool) {
			tok, ok := f.book.Token(token)
			if !ok {
				return nil, false
			}
			return tok, true
		},
		Clock: exchange.ClockFunc(func() time.Time { return f.now }),
	}, zap.NewNop())
	return f
}

func (f *fixture) deadline() time.Time {
	return f.now.Add(24 * time.Hour)
}

func (f *fixture) newPool(address common.Address, symbol string) (*exchange.Exchange, *asset.Token) {
	f.t.Helper()
	token := asset.NewToken(address, symbol, 18)
	if err := f.book.Register(token); err != nil {
		f.t.Fatalf("register token: %v", err)
	}
	pool, err := f.registry.CreatePool(address)
	if err != nil {
		f.t.Fatalf("create pool: %v", err)
	}
	return pool, token
}

// fund mints amount of token to holder and approves pool to pull it.
func (f *fixture) fund(token *asset.Token, holder common.Address, pool *exchange.Exchange, amount *big.Int) {
	f.t.Helper()
	if err := token.Mint(holder, amount); err != nil {
		f.t.Fatalf("mint: %v", err)
	}
	allowance := token.Allowance(holder, pool.Address())
	if err := token.Approve(holder, pool.Address(), allowance.Add(allowance, amount)); err != nil {
		f.t.Fatalf("approve: %v", err)
	}
}

// seed funds holder and adds base/token liquidity to an empty pool.
func (f *fixture) seed(pool *exchange.Exchange, token *asset.Token, holder common.Address, base, tok *big.Int) {
	f.t.Helper()
	f.fund(f.base, holder, pool, base)
	f.fund(token, holder, pool, tok)
	if _, err := pool.AddLiquidity(holder, base, tok, f.deadline()); err != nil {
		f.t.Fatalf("seed liquidity: %v", err)
	}
}

// assertBacked checks the asset balances of the pool match its ledger.
func (f *fixture) assertBacked(pool *exchange.Exchange, token *asset.Token) {
	f.t.Helper()
	if got := f.base.BalanceOf(pool.Address()); got.Cmp(pool.BaseReserve()) != 0 {
		f.t.Fatalf("base balance %s != reserve %s", got, pool.BaseReserve())
	}
	if got := token.BalanceOf(pool.Address()); got.Cmp(pool.TokenReserve()) != 0 {
		f.t.Fatalf("token balance %s != reserve %s", got, pool.TokenReserve())
	}
}

func assertInvariants(t *testing.T, pool *exchange.Exchange) {
	t.Helper()
	st := pool.State()
	sum := big.NewInt(0)
	for _, h := range st.Holdings {
		sum.Add(sum, h.Shares)
	}
	if sum.Cmp(st.Reserves.TotalShares) != 0 {
		t.Fatalf("share sum %s != total shares %s", sum, st.Reserves.TotalShares)
	}
	zb, zt, zs := st.Reserves.Base.Sign() == 0, st.Reserves.Token.Sign() == 0, st.Reserves.TotalShares.Sign() == 0
	if zb != zt || zt != zs {
		t.Fatalf("emptiness invariant broken: %+v", st.Reserves)
	}
}

func ether(value string) *big.Int {
	return units.MustParseUnits(value, 18)
}

func assertAmount(t *testing.T, name string, got, want *big.Int) {
	t.Helper()
	if got == nil || got.Cmp(want) != 0 {
		t.Fatalf("%s: got %v want %s", name, got, want)
	}
}
