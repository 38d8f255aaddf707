package exchange

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is the external fungible-asset ledger an exchange moves value
// through. A returned error means the transfer did not happen.
type Asset interface {
	TransferFrom(spender, owner, recipient common.Address, amount *big.Int) error
	Transfer(owner, recipient common.Address, amount *big.Int) error
	BalanceOf(holder common.Address) *big.Int
}

// movement is one transfer of an operation. A pull spends the allowance the
// owner granted to spender; otherwise owner sends its own balance.
type movement struct {
	label     string
	asset     Asset
	spender   common.Address
	owner     common.Address
	recipient common.Address
	amount    *big.Int
	pull      bool
}

func (m movement) exec() error {
	if m.pull {
		return m.asset.TransferFrom(m.spender, m.owner, m.recipient, m.amount)
	}
	return m.asset.Transfer(m.owner, m.recipient, m.amount)
}

// Approver is implemented by assets that expose allowances. A reversed pull
// re-grants the allowance it consumed.
type Approver interface {
	Allowance(owner, spender common.Address) *big.Int
	Approve(owner, spender common.Address, amount *big.Int) error
}

// reverse returns the value a movement credited to its recipient.
func (m movement) reverse() error {
	if err := m.asset.Transfer(m.recipient, m.owner, m.amount); err != nil {
		return err
	}
	if !m.pull {
		return nil
	}
	approver, ok := m.asset.(Approver)
	if !ok {
		return nil
	}
	allowance := approver.Allowance(m.owner, m.spender)
	return approver.Approve(m.owner, m.spender, allowance.Add(allowance, m.amount))
}

// settlement executes movements in order and reverses the completed ones,
// newest first, when a later one fails.
type settlement struct {
	done []movement
}

func (s *settlement) run(moves ...movement) error {
	for _, m := range moves {
		if err := m.exec(); err != nil {
			failed := fmt.Errorf("%w: %s: %v", ErrTransferFailed, m.label, err)
			if rbErr := s.rollback(); rbErr != nil {
				return errors.Join(failed, rbErr)
			}
			return failed
		}
		s.done = append(s.done, m)
	}
	return nil
}

func (s *settlement) rollback() error {
	var errs []error
	for i := len(s.done) - 1; i >= 0; i-- {
		m := s.done[i]
		if err := m.reverse(); err != nil {
			errs = append(errs, fmt.Errorf("reverse %s: %w", m.label, err))
		}
	}
	s.done = nil
	return errors.Join(errs...)
}
