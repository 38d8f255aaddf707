package sim

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ammSwap/internal/asset"
	"ammSwap/internal/exchange"
	"ammSwap/internal/ledger"
	"ammSwap/internal/model"
	"ammSwap/internal/units"
)

// Snapshot captures every asset ledger and pool. The base currency is the
// first token.
func (r *Runner) Snapshot() model.Snapshot {
	tokens := append([]*asset.Token{r.book.Base()}, r.book.Tokens()...)
	snap := model.Snapshot{
		Registry:  r.cfg.Registry.Hex(),
		BaseToken: r.cfg.BaseToken.Hex(),
		LastSeq:   r.lastSeq,
		Tokens:    make([]model.TokenState, 0, len(tokens)),
	}

	for _, tok := range tokens {
		ts := model.TokenState{TokenMeta: model.TokenMeta{
			Address:  tok.Address().Hex(),
			Decimals: tok.Decimals(),
			Symbol:   tok.Symbol(),
		}}
		for _, b := range tok.Balances() {
			ts.Balances = append(ts.Balances, model.BalanceRecord{Holder: b.Holder.Hex(), Amount: b.Amount.String()})
		}
		for _, g := range tok.Allowances() {
			ts.Allowances = append(ts.Allowances, model.AllowanceRecord{
				Owner:   g.Owner.Hex(),
				Spender: g.Spender.Hex(),
				Amount:  g.Amount.String(),
			})
		}
		snap.Tokens = append(snap.Tokens, ts)
	}

	for _, st := range r.registry.States() {
		ps := model.PoolState{
			Address: st.Address.Hex(),
			Token:   st.Token.Hex(),
			Reserves: model.PoolReserves{
				Base:        st.Reserves.Base.String(),
				Token:       st.Reserves.Token.String(),
				TotalShares: st.Reserves.TotalShares.String(),
			},
		}
		for _, h := range st.Holdings {
			ps.Holdings = append(ps.Holdings, model.ShareRecord{Holder: h.Holder.Hex(), Shares: h.Shares.String()})
		}
		snap.Pools = append(snap.Pools, ps)
	}
	return snap
}

// Restore replaces the runner's book and registry with snap. The snapshot
// must belong to the same registry and base currency.
func (r *Runner) Restore(snap model.Snapshot) error {
	if !sameAddress(snap.Registry, r.cfg.Registry) {
		return fmt.Errorf("snapshot registry %s, configured %s", snap.Registry, r.cfg.Registry.Hex())
	}
	if !sameAddress(snap.BaseToken, r.cfg.BaseToken) {
		return fmt.Errorf("snapshot base token %s, configured %s", snap.BaseToken, r.cfg.BaseToken.Hex())
	}

	r.reset()
	for _, ts := range snap.Tokens {
		if err := r.restoreToken(ts); err != nil {
			r.reset()
			return err
		}
	}

	states := make([]exchange.State, 0, len(snap.Pools))
	for _, ps := range snap.Pools {
		st, err := poolState(ps)
		if err != nil {
			r.reset()
			return err
		}
		states = append(states, st)
	}
	if err := r.registry.Restore(states); err != nil {
		r.reset()
		return err
	}
	r.lastSeq = snap.LastSeq
	return nil
}

func (r *Runner) restoreToken(ts model.TokenState) error {
	if !common.IsHexAddress(ts.Address) {
		return fmt.Errorf("token address %q", ts.Address)
	}
	address := common.HexToAddress(ts.Address)

	balances := make([]asset.Balance, 0, len(ts.Balances))
	for _, b := range ts.Balances {
		amount, err := parseRecord(b.Holder, b.Amount)
		if err != nil {
			return fmt.Errorf("token %s balance: %w", ts.Address, err)
		}
		balances = append(balances, asset.Balance{Holder: common.HexToAddress(b.Holder), Amount: amount})
	}
	grants := make([]asset.Grant, 0, len(ts.Allowances))
	for _, g := range ts.Allowances {
		amount, err := parseRecord(g.Owner, g.Amount)
		if err != nil {
			return fmt.Errorf("token %s allowance: %w", ts.Address, err)
		}
		if !common.IsHexAddress(g.Spender) {
			return fmt.Errorf("token %s allowance: spender %q", ts.Address, g.Spender)
		}
		grants = append(grants, asset.Grant{
			Owner:   common.HexToAddress(g.Owner),
			Spender: common.HexToAddress(g.Spender),
			Amount:  amount,
		})
	}

	token := r.book.Base()
	if address != r.cfg.BaseToken {
		token = asset.NewToken(address, ts.Symbol, ts.Decimals)
		if err := r.book.Register(token); err != nil {
			return err
		}
	}
	return token.Restore(balances, grants)
}

func poolState(ps model.PoolState) (exchange.State, error) {
	if !common.IsHexAddress(ps.Address) || !common.IsHexAddress(ps.Token) {
		return exchange.State{}, fmt.Errorf("pool %q token %q: invalid address", ps.Address, ps.Token)
	}
	st := exchange.State{
		Address: common.HexToAddress(ps.Address),
		Token:   common.HexToAddress(ps.Token),
	}

	var err error
	if st.Reserves.Base, err = units.Parse(ps.Reserves.Base); err != nil {
		return exchange.State{}, fmt.Errorf("pool %s base reserve: %w", ps.Address, err)
	}
	if st.Reserves.Token, err = units.Parse(ps.Reserves.Token); err != nil {
		return exchange.State{}, fmt.Errorf("pool %s token reserve: %w", ps.Address, err)
	}
	if st.Reserves.TotalShares, err = units.Parse(ps.Reserves.TotalShares); err != nil {
		return exchange.State{}, fmt.Errorf("pool %s total shares: %w", ps.Address, err)
	}
	for _, h := range ps.Holdings {
		shares, err := parseRecord(h.Holder, h.Shares)
		if err != nil {
			return exchange.State{}, fmt.Errorf("pool %s holding: %w", ps.Address, err)
		}
		st.Holdings = append(st.Holdings, ledger.Holding{Holder: common.HexToAddress(h.Holder), Shares: shares})
	}
	return st, nil
}

func parseRecord(holder, amount string) (*big.Int, error) {
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("holder %q", holder)
	}
	return units.Parse(amount)
}

func sameAddress(value string, want common.Address) bool {
	return common.IsHexAddress(value) && common.HexToAddress(value) == want
}
