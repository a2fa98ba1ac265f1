package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"synthvault/crypto"
)

var (
	ErrInvalidAmount          = errors.New("ledger: amount must be positive")
	ErrUnregisteredAsset      = errors.New("ledger: asset not registered")
	ErrInsufficientCollateral = errors.New("ledger: collateral balance too low")
	ErrNilState               = errors.New("ledger: state not configured")
)

// Asset identifies a collateral-eligible token type by symbol.
type Asset string

// DebtUnderflowError reports a debt decrease that exceeds the outstanding
// balance. Both values are carried so callers can surface them.
type DebtUnderflowError struct {
	Requested *big.Int
	Available *big.Int
}

func (e *DebtUnderflowError) Error() string {
	return fmt.Sprintf("ledger: debt underflow: requested %s, available %s", e.Requested, e.Available)
}

// Position aggregates the ledger entries for a single actor: one collateral
// balance per registered asset and one outstanding debt balance denominated in
// the stable unit. Entries default to zero and are never explicitly removed.
type Position struct {
	Address    crypto.Address
	Collateral map[Asset]*big.Int
	Debt       *big.Int
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{Address: p.Address}
	if p.Collateral != nil {
		clone.Collateral = make(map[Asset]*big.Int, len(p.Collateral))
		for asset, amount := range p.Collateral {
			if amount != nil {
				clone.Collateral[asset] = new(big.Int).Set(amount)
			}
		}
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	return clone
}

// CollateralBalance returns the deposited amount for the asset, defaulting to
// zero. The returned value is a copy.
func (p *Position) CollateralBalance(asset Asset) *big.Int {
	if p == nil || p.Collateral == nil {
		return big.NewInt(0)
	}
	amount, ok := p.Collateral[asset]
	if !ok || amount == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(amount)
}

// State is the persistence boundary for ledger entries. Implementations must
// return nil (not an error) for positions that have never been written.
type State interface {
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(pos *Position) error
}

// EnsurePosition loads the actor's position, materialising a zeroed one when
// absent and backfilling nil balances so callers can mutate without nil checks.
func EnsurePosition(state State, addr crypto.Address) (*Position, error) {
	if state == nil {
		return nil, ErrNilState
	}
	pos, err := state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	if pos.Collateral == nil {
		pos.Collateral = make(map[Asset]*big.Int)
	}
	if pos.Debt == nil {
		pos.Debt = big.NewInt(0)
	}
	return pos, nil
}
