package ledger

import (
	"math/big"

	"synthvault/crypto"
)

// DebtLedger maintains the per-actor outstanding stable-unit balance. Like the
// collateral ledger it enforces no solvency rule of its own.
type DebtLedger struct {
	state State
}

func NewDebtLedger(state State) *DebtLedger {
	return &DebtLedger{state: state}
}

// Increase adds to the actor's outstanding debt. The amount must be positive.
func (l *DebtLedger) Increase(actor crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return err
	}
	pos.Debt = new(big.Int).Add(pos.Debt, amount)
	return l.state.PutPosition(pos)
}

// Decrease reduces the actor's outstanding debt. Requests exceeding the
// current balance fail with a DebtUnderflowError naming both amounts.
func (l *DebtLedger) Decrease(actor crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return err
	}
	if pos.Debt.Cmp(amount) < 0 {
		return &DebtUnderflowError{
			Requested: new(big.Int).Set(amount),
			Available: new(big.Int).Set(pos.Debt),
		}
	}
	pos.Debt = new(big.Int).Sub(pos.Debt, amount)
	return l.state.PutPosition(pos)
}

// Outstanding returns the actor's current debt balance.
func (l *DebtLedger) Outstanding(actor crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	pos, err := EnsurePosition(l.state, actor)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(pos.Debt), nil
}
