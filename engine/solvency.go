package engine

import (
	"math/big"

	"synthvault/crypto"
	"synthvault/ledger"
)

// CalculateHealthFactor is the pure solvency formula: collateral value
// discounted by the liquidation threshold, divided by debt, both in fixed
// point with truncating division. A debt-free position is infinitely healthy
// and reports MaxHealthFactor. Exposed for auditability independent of live
// ledger state.
func CalculateHealthFactor(debt, collateralValueUsd *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor)
	}
	if collateralValueUsd == nil {
		collateralValueUsd = big.NewInt(0)
	}
	adjusted := new(big.Int).Mul(collateralValueUsd, LiquidationThreshold)
	adjusted.Quo(adjusted, LiquidationPrecision)
	ratio := new(big.Int).Mul(adjusted, Precision)
	return ratio.Quo(ratio, debt)
}

// HealthFactor recomputes the actor's solvency ratio from the ledgers and
// current prices. It is never persisted.
func (e *Engine) HealthFactor(actor crypto.Address) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.healthFactorLocked(actor)
}

// AccountSnapshot returns the actor's outstanding debt and the USD value of
// their collateral across every registered asset.
func (e *Engine) AccountSnapshot(actor crypto.Address) (debt *big.Int, collateralValueUsd *big.Int, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accountSnapshotLocked(actor)
}

func (e *Engine) healthFactorLocked(actor crypto.Address) (*big.Int, error) {
	debt, collateralValue, err := e.accountSnapshotLocked(actor)
	if err != nil {
		return nil, err
	}
	return CalculateHealthFactor(debt, collateralValue), nil
}

func (e *Engine) accountSnapshotLocked(actor crypto.Address) (*big.Int, *big.Int, error) {
	pos, err := ledger.EnsurePosition(e.state, actor)
	if err != nil {
		return nil, nil, err
	}
	total := big.NewInt(0)
	// Zero balances contribute zero; every registered asset is visited so
	// enumeration stays deterministic.
	for _, asset := range e.registry.Assets() {
		amount := pos.CollateralBalance(asset)
		value, err := e.prices.UsdValue(asset, amount)
		if err != nil {
			return nil, nil, err
		}
		total.Add(total, value)
	}
	return new(big.Int).Set(pos.Debt), total, nil
}

// revertIfUnhealthy is the trailing solvency assertion shared by every
// actor-initiated mutation.
func (e *Engine) revertIfUnhealthy(actor crypto.Address) error {
	hf, err := e.healthFactorLocked(actor)
	if err != nil {
		return err
	}
	if hf.Cmp(MinHealthFactor) < 0 {
		return ErrHealthFactorBelowThreshold
	}
	return nil
}
