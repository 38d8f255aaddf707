// Package ledger keeps the reserve and ownership-share accounting of a single
// pool. It has no pricing logic; callers compute a Delta and Apply it.
package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNegativeBalance = errors.New("balance would become negative")
	ErrEmptiness       = errors.New("reserves and shares must be all zero or all positive")
)

// Reserves is an immutable view of a ledger's totals.
type Reserves struct {
	Base        *big.Int
	Token       *big.Int
	TotalShares *big.Int
}

// Empty reports whether the pool holds nothing.
func (r Reserves) Empty() bool {
	return r.TotalShares.Sign() == 0
}

// Delta is a buffered set of changes to a ledger. Base and Token are signed
// reserve changes; Shares is a signed mint (positive) or burn (negative)
// against Holder.
type Delta struct {
	Base   *big.Int
	Token  *big.Int
	Holder common.Address
	Shares *big.Int
}

// Plus merges two reserve-only deltas, or two deltas for the same holder.
func (d Delta) Plus(o Delta) Delta {
	holder := d.Holder
	if d.Shares == nil {
		holder = o.Holder
	}
	return Delta{
		Base:   addSigned(zeroIfNil(d.Base), o.Base),
		Token:  addSigned(zeroIfNil(d.Token), o.Token),
		Holder: holder,
		Shares: addSigned(zeroIfNil(d.Shares), o.Shares),
	}
}

// Then returns the reserves that would result from applying d.
func (r Reserves) Then(d Delta) Reserves {
	return Reserves{
		Base:        addSigned(r.Base, d.Base),
		Token:       addSigned(r.Token, d.Token),
		TotalShares: addSigned(r.TotalShares, d.Shares),
	}
}

// Ledger holds reserves, total shares and per-holder share balances.
type Ledger struct {
	base        *big.Int
	token       *big.Int
	totalShares *big.Int
	shares      map[common.Address]*big.Int
}

func New() *Ledger {
	return &Ledger{
		base:        big.NewInt(0),
		token:       big.NewInt(0),
		totalShares: big.NewInt(0),
		shares:      make(map[common.Address]*big.Int),
	}
}

func (l *Ledger) BaseReserve() *big.Int  { return new(big.Int).Set(l.base) }
func (l *Ledger) TokenReserve() *big.Int { return new(big.Int).Set(l.token) }
func (l *Ledger) TotalShares() *big.Int  { return new(big.Int).Set(l.totalShares) }

// ShareBalance returns the shares held by holder, zero if none.
func (l *Ledger) ShareBalance(holder common.Address) *big.Int {
	if bal, ok := l.shares[holder]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Snapshot returns a copy of the current totals.
func (l *Ledger) Snapshot() Reserves {
	return Reserves{
		Base:        l.BaseReserve(),
		Token:       l.TokenReserve(),
		TotalShares: l.TotalShares(),
	}
}

// Check validates d against the current state without applying it.
func (l *Ledger) Check(d Delta) error {
	_, err := l.validate(d)
	return err
}

// Apply validates d in full and commits it. A rejected delta changes nothing.
func (l *Ledger) Apply(d Delta) error {
	holderBal, err := l.validate(d)
	if err != nil {
		return err
	}

	next := l.Snapshot().Then(d)
	l.base = next.Base
	l.token = next.Token
	l.totalShares = next.TotalShares
	if d.Shares != nil && d.Shares.Sign() != 0 {
		l.setShares(d.Holder, holderBal)
	}
	return nil
}

func (l *Ledger) validate(d Delta) (*big.Int, error) {
	next := l.Snapshot().Then(d)
	if next.Base.Sign() < 0 {
		return nil, fmt.Errorf("%w: base reserve", ErrNegativeBalance)
	}
	if next.Token.Sign() < 0 {
		return nil, fmt.Errorf("%w: token reserve", ErrNegativeBalance)
	}
	if next.TotalShares.Sign() < 0 {
		return nil, fmt.Errorf("%w: total shares", ErrNegativeBalance)
	}

	holderBal := addSigned(l.ShareBalance(d.Holder), d.Shares)
	if holderBal.Sign() < 0 {
		return nil, fmt.Errorf("%w: shares of %s", ErrNegativeBalance, d.Holder.Hex())
	}

	zeros := 0
	for _, v := range []*big.Int{next.Base, next.Token, next.TotalShares} {
		if v.Sign() == 0 {
			zeros++
		}
	}
	if zeros != 0 && zeros != 3 {
		return nil, ErrEmptiness
	}
	return holderBal, nil
}

// Transfer moves amount shares from one holder to another. Reserves and the
// total share supply are unchanged.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: transfer amount %v", ErrNegativeBalance, amount)
	}
	fromBal := l.ShareBalance(from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: shares of %s", ErrNegativeBalance, from.Hex())
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	l.setShares(from, fromBal.Sub(fromBal, amount))
	toBal := l.ShareBalance(to)
	l.setShares(to, toBal.Add(toBal, amount))
	return nil
}

func (l *Ledger) setShares(holder common.Address, bal *big.Int) {
	if bal.Sign() == 0 {
		delete(l.shares, holder)
		return
	}
	l.shares[holder] = bal
}

// Holding is one holder's share balance.
type Holding struct {
	Holder common.Address
	Shares *big.Int
}

// Holdings returns all non-zero share balances sorted by holder.
func (l *Ledger) Holdings() []Holding {
	out := make([]Holding, 0, len(l.shares))
	for holder, bal := range l.shares {
		out = append(out, Holding{Holder: holder, Shares: new(big.Int).Set(bal)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Holder.Cmp(out[j].Holder) < 0
	})
	return out
}

// Restore rebuilds a ledger from persisted totals and holdings. The holdings
// must add up to the total share supply.
func Restore(r Reserves, holdings []Holding) (*Ledger, error) {
	l := New()
	sum := big.NewInt(0)
	for _, h := range holdings {
		if h.Shares == nil || h.Shares.Sign() < 0 {
			return nil, fmt.Errorf("%w: shares of %s", ErrNegativeBalance, h.Holder.Hex())
		}
		if h.Shares.Sign() == 0 {
			continue
		}
		l.shares[h.Holder] = new(big.Int).Set(h.Shares)
		sum.Add(sum, h.Shares)
	}
	if sum.Cmp(r.TotalShares) != 0 {
		return nil, fmt.Errorf("holdings sum %s != total shares %s", sum, r.TotalShares)
	}

	l.base = new(big.Int).Set(r.Base)
	l.token = new(big.Int).Set(r.Token)
	l.totalShares = new(big.Int).Set(r.TotalShares)
	if err := l.Check(Delta{}); err != nil {
		return nil, err
	}
	return l, nil
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func addSigned(value, delta *big.Int) *big.Int {
	if delta == nil {
		return new(big.Int).Set(value)
	}
	return new(big.Int).Add(value, delta)
}
