package ledger

import (
	"math/big"

	"synthvault/crypto"
)

// CollateralLedger maintains the per-actor, per-asset deposit table. It has no
// solvency awareness; callers gate every mutation with their own checks.
type CollateralLedger struct {
	state    State
	registry *Registry
}

func NewCollateralLedger(state State, registry *Registry) *CollateralLedger {
	return &CollateralLedger{state: state, registry: registry}
}

// Deposit increases the actor's position unconditionally. The amount must be
// positive and the asset registered.
func (l *CollateralLedger) Deposit(actor crypto.Address, asset Asset, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !l.registry.Contains(asset) {
		return ErrUnregisteredAsset
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return err
	}
	current := pos.CollateralBalance(asset)
	pos.Collateral[asset] = new(big.Int).Add(current, amount)
	return l.state.PutPosition(pos)
}

// Withdraw decreases the actor's position, failing when the requested amount
// exceeds the deposited balance.
func (l *CollateralLedger) Withdraw(actor crypto.Address, asset Asset, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !l.registry.Contains(asset) {
		return ErrUnregisteredAsset
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return err
	}
	current := pos.CollateralBalance(asset)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	pos.Collateral[asset] = new(big.Int).Sub(current, amount)
	return l.state.PutPosition(pos)
}

// Balance returns the deposited amount for (actor, asset).
func (l *CollateralLedger) Balance(actor crypto.Address, asset Asset) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return nil, err
	}
	return pos.CollateralBalance(asset), nil
}
