package engine

import (
	"errors"
	"fmt"
	"math/big"

	"synthvault/crypto"
	"synthvault/events"
	"synthvault/ledger"
)

var (
	// ErrHealthFactorOk rejects liquidation of a target that is not actually
	// unhealthy.
	ErrHealthFactorOk = errors.New("engine: target health factor not below minimum")
	// ErrHealthFactorNotImproved aborts a liquidation whose mechanics
	// completed without strictly raising the target's health factor.
	ErrHealthFactorNotImproved = errors.New("engine: liquidation did not improve target health factor")
	// ErrLiquidationShortfall aborts a liquidation whose computed payout
	// exceeds the target's deposited collateral. The position stays
	// unresolved; partial fulfilment is never attempted.
	ErrLiquidationShortfall = errors.New("engine: liquidation payout exceeds target collateral")
)

// Liquidate lets a solvent third party repay part of an unhealthy target's
// debt and claim a bonus-adjusted portion of the target's collateral. The
// operation verifies the repair strictly improved the target's health factor
// and that the liquidator itself remains solvent, otherwise everything is
// unwound.
func (e *Engine) Liquidate(liquidator crypto.Address, asset ledger.Asset, target crypto.Address, debtToCover *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpLiquidate); err != nil {
		return err
	}
	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return ledger.ErrInvalidAmount
	}
	if !e.registry.Contains(asset) {
		return ledger.ErrUnregisteredAsset
	}

	startingHealth, err := e.healthFactorLocked(target)
	if err != nil {
		return err
	}
	if startingHealth.Cmp(MinHealthFactor) >= 0 {
		return ErrHealthFactorOk
	}

	// The stable unit is pegged 1:1, so debtToCover doubles as a USD value.
	tokenAmount, err := e.prices.AmountForUsd(asset, debtToCover)
	if err != nil {
		return err
	}
	bonus := new(big.Int).Mul(tokenAmount, LiquidationBonus)
	bonus.Quo(bonus, LiquidationPrecision)
	seizeAmount := new(big.Int).Add(tokenAmount, bonus)

	if err := e.redeemLocked(target, liquidator, asset, seizeAmount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientCollateral) {
			return fmt.Errorf("%w: need %s %s", ErrLiquidationShortfall, seizeAmount, asset)
		}
		return err
	}
	unwindSeizure := func() {
		_ = e.vault[asset].Transfer(liquidator, e.custody, seizeAmount)
		_ = e.collateral.Deposit(target, asset, seizeAmount)
	}

	if err := e.burnLocked(target, liquidator, debtToCover); err != nil {
		unwindSeizure()
		return err
	}
	unwindRepayment := func() {
		_ = e.stable.Mint(liquidator, debtToCover)
		_ = e.debt.Increase(target, debtToCover)
	}

	endingHealth, err := e.healthFactorLocked(target)
	if err != nil {
		unwindRepayment()
		unwindSeizure()
		return err
	}
	if endingHealth.Cmp(startingHealth) <= 0 {
		unwindRepayment()
		unwindSeizure()
		return ErrHealthFactorNotImproved
	}
	if err := e.revertIfUnhealthy(liquidator); err != nil {
		unwindRepayment()
		unwindSeizure()
		return err
	}

	e.emitter.Emit(events.CollateralRedeemed{From: target, To: liquidator, Asset: asset, Amount: new(big.Int).Set(seizeAmount)})
	e.emitter.Emit(events.StableBurned{Actor: target, Payer: liquidator, Amount: new(big.Int).Set(debtToCover)})
	e.emitter.Emit(events.PositionLiquidated{
		Liquidator:  liquidator,
		Target:      target,
		Asset:       asset,
		DebtCovered: new(big.Int).Set(debtToCover),
		Seized:      new(big.Int).Set(seizeAmount),
	})
	return nil
}
