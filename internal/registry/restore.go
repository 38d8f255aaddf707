package registry

import (
	"fmt"

	"ammSwap/internal/exchange"
	"ammSwap/internal/ledger"
)

// Restore recreates pools from persisted states, in creation order. Each
// state's pool address must match the address the registry derives for it.
func (r *Registry) Restore(states []exchange.State) error {
	for _, st := range states {
		l, err := ledger.Restore(st.Reserves, st.Holdings)
		if err != nil {
			return fmt.Errorf("restore pool %s: %w", st.Address.Hex(), err)
		}
		pool, err := r.create(st.Token, l)
		if err != nil {
			return fmt.Errorf("restore pool %s: %w", st.Address.Hex(), err)
		}
		if pool.Address() != st.Address {
			return fmt.Errorf("restore pool %s: derived address %s", st.Address.Hex(), pool.Address().Hex())
		}
	}
	return nil
}

// States returns the state of every pool in creation order.
func (r *Registry) States() []exchange.State {
	pools := r.Pools()
	out := make([]exchange.State, 0, len(pools))
	for _, pool := range pools {
		out = append(out, pool.State())
	}
	return out
}
