// Package asset is an in-memory fungible-token ledger with ERC20 transfer and
// allowance semantics. It stands in for the external asset ledgers the
// exchange moves value through.
package asset

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrZeroAddress           = errors.New("zero address")
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Token is a single fungible asset.
type Token struct {
	address  common.Address
	symbol   string
	decimals uint8

	mu         sync.RWMutex
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
}

func NewToken(address common.Address, symbol string, decimals uint8) *Token {
	return &Token{
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		supply:     big.NewInt(0),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Symbol() string          { return t.symbol }
func (t *Token) Decimals() uint8         { return t.decimals }

func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.supply)
}

func (t *Token) BalanceOf(holder common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceLocked(holder)
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.allowances[allowanceKey{owner, spender}]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

// Mint credits amount to holder and grows the supply.
func (t *Token) Mint(holder common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if holder == (common.Address{}) {
		return fmt.Errorf("mint: %w", ErrZeroAddress)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.supply.Add(t.supply, amount)
	t.balances[holder] = new(big.Int).Add(t.balanceLocked(holder), amount)
	return nil
}

// Approve sets the allowance of spender over owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[allowanceKey{owner, spender}] = new(big.Int).Set(amount)
	return nil
}

// Transfer moves amount from owner to recipient.
func (t *Token) Transfer(owner, recipient common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(owner, recipient, amount)
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming spender's allowance.
func (t *Token) TransferFrom(spender, owner, recipient common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := allowanceKey{owner, spender}
	allowed, ok := t.allowances[key]
	if !ok {
		allowed = big.NewInt(0)
	}
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowed %s for %s", ErrInsufficientAllowance, t.symbol, allowed, spender.Hex())
	}
	if err := t.moveLocked(owner, recipient, amount); err != nil {
		return err
	}
	t.allowances[key] = new(big.Int).Sub(allowed, amount)
	return nil
}

func (t *Token) moveLocked(owner, recipient common.Address, amount *big.Int) error {
	if recipient == (common.Address{}) {
		return fmt.Errorf("transfer: %w", ErrZeroAddress)
	}
	bal := t.balanceLocked(owner)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s balance %s of %s", ErrInsufficientBalance, t.symbol, bal, owner.Hex())
	}
	if owner == recipient {
		return nil
	}
	t.balances[owner] = bal.Sub(bal, amount)
	t.balances[recipient] = new(big.Int).Add(t.balanceLocked(recipient), amount)
	return nil
}

func (t *Token) balanceLocked(holder common.Address) *big.Int {
	if v, ok := t.balances[holder]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

// Balance is one holder's balance of a token.
type Balance struct {
	Holder common.Address
	Amount *big.Int
}

// Balances returns all non-zero balances sorted by holder.
func (t *Token) Balances() []Balance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Balance, 0, len(t.balances))
	for holder, amount := range t.balances {
		if amount.Sign() == 0 {
			continue
		}
		out = append(out, Balance{Holder: holder, Amount: new(big.Int).Set(amount)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Holder.Cmp(out[j].Holder) < 0
	})
	return out
}

// Grant is one owner's allowance to a spender.
type Grant struct {
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// Allowances returns all non-zero allowances sorted by owner, then spender.
func (t *Token) Allowances() []Grant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Grant, 0, len(t.allowances))
	for key, amount := range t.allowances {
		if amount.Sign() == 0 {
			continue
		}
		out = append(out, Grant{Owner: key.owner, Spender: key.spender, Amount: new(big.Int).Set(amount)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Owner.Cmp(out[j].Owner); c != 0 {
			return c < 0
		}
		return out[i].Spender.Cmp(out[j].Spender) < 0
	})
	return out
}

// Restore replaces the token's balances and allowances. The supply becomes the
// sum of the balances.
func (t *Token) Restore(balances []Balance, grants []Grant) error {
	nextBalances := make(map[common.Address]*big.Int, len(balances))
	supply := big.NewInt(0)
	for _, b := range balances {
		if err := checkAmount(b.Amount); err != nil {
			return fmt.Errorf("restore %s balance of %s: %w", t.symbol, b.Holder.Hex(), err)
		}
		nextBalances[b.Holder] = new(big.Int).Set(b.Amount)
		supply.Add(supply, b.Amount)
	}
	nextAllowances := make(map[allowanceKey]*big.Int, len(grants))
	for _, g := range grants {
		if err := checkAmount(g.Amount); err != nil {
			return fmt.Errorf("restore %s allowance of %s: %w", t.symbol, g.Owner.Hex(), err)
		}
		nextAllowances[allowanceKey{g.Owner, g.Spender}] = new(big.Int).Set(g.Amount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances = nextBalances
	t.allowances = nextAllowances
	t.supply = supply
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
