package engine

import (
	"errors"
	"math/big"
	"testing"

	"synthvault/crypto"
	"synthvault/events"
	"synthvault/ledger"
)

// openPosition deposits collateral and mints against it in one step.
func (fix *engineFixture) openPosition(t *testing.T, actor crypto.Address, collateral, debt *big.Int) {
	t.Helper()
	fix.fundAndDeposit(t, actor, "WETH", collateral)
	if err := fix.engine.Mint(actor, debt); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func TestLiquidateRepairsUnderwaterPosition(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	// 10 WETH at $3000 supports exactly 15000 of debt.
	fix.openPosition(t, target, units(10), units(15000))

	// The price drops to $1650: adjusted collateral 8250 against 15000 debt.
	fix.wethFeed.SetPrice(big.NewInt(165_000_000_000))
	startingHealth, err := fix.engine.HealthFactor(target)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	wantStart, _ := new(big.Int).SetString("550000000000000000", 10)
	if startingHealth.Cmp(wantStart) != 0 {
		t.Fatalf("starting health factor = %s, want %s", startingHealth, wantStart)
	}

	if err := fix.stable.Mint(liquidator, units(15000)); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}
	if err := fix.engine.Liquidate(liquidator, "WETH", target, units(15000)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// 15000 / 1650 of WETH plus the 10% bonus, truncating at each step.
	wantSeized, _ := new(big.Int).SetString("9999999999999999999", 10)
	if got := fix.weth.BalanceOf(liquidator); got.Cmp(wantSeized) != 0 {
		t.Fatalf("seized = %s, want %s", got, wantSeized)
	}
	if got := fix.mustBalance(t, target, "WETH"); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("target residual collateral = %s, want 1", got)
	}
	if got := fix.mustDebt(t, target); got.Sign() != 0 {
		t.Fatalf("target debt = %s, want 0", got)
	}
	if got := fix.stable.BalanceOf(liquidator); got.Sign() != 0 {
		t.Fatalf("liquidator stable balance = %s, want 0", got)
	}
	if got := fix.stable.TotalSupply(); got.Sign() != 0 {
		t.Fatalf("stable supply = %s, want 0", got)
	}

	endingHealth, err := fix.engine.HealthFactor(target)
	if err != nil {
		t.Fatalf("ending health factor: %v", err)
	}
	if endingHealth.Cmp(MaxHealthFactor) != 0 {
		t.Fatalf("debt-free target should report max health, got %s", endingHealth)
	}

	recent := fix.recorder.Recent()
	last, ok := recent[len(recent)-1].(events.PositionLiquidated)
	if !ok {
		t.Fatalf("expected liquidation event, got %T", recent[len(recent)-1])
	}
	if last.DebtCovered.Cmp(units(15000)) != 0 || last.Seized.Cmp(wantSeized) != 0 {
		t.Fatalf("unexpected liquidation payload: %+v", last)
	}
	if !last.Liquidator.Equal(liquidator) || !last.Target.Equal(target) {
		t.Fatalf("unexpected liquidation parties: %+v", last)
	}
}

func TestLiquidateHealthyTarget(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)
	fix.openPosition(t, target, units(10), units(7500))

	err := fix.engine.Liquidate(liquidator, "WETH", target, units(1000))
	if !errors.Is(err, ErrHealthFactorOk) {
		t.Fatalf("expected healthy-target rejection, got %v", err)
	}
}

func TestLiquidateValidation(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := fix.engine.Liquidate(liquidator, "WETH", target, big.NewInt(0)); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := fix.engine.Liquidate(liquidator, "DOGE", target, units(1)); !errors.Is(err, ledger.ErrUnregisteredAsset) {
		t.Fatalf("expected unregistered asset, got %v", err)
	}
}

func TestLiquidateShortfallAborts(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)
	fix.openPosition(t, target, units(10), units(15000))

	// At $1000 the full repayment would claim 16.5 WETH from a 10 WETH
	// position. The engine refuses rather than partially fill.
	fix.wethFeed.SetPrice(big.NewInt(100_000_000_000))
	if err := fix.stable.Mint(liquidator, units(15000)); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}

	err := fix.engine.Liquidate(liquidator, "WETH", target, units(15000))
	if !errors.Is(err, ErrLiquidationShortfall) {
		t.Fatalf("expected shortfall, got %v", err)
	}
	if got := fix.mustBalance(t, target, "WETH"); got.Cmp(units(10)) != 0 {
		t.Fatalf("target collateral changed: %s", got)
	}
	if got := fix.mustDebt(t, target); got.Cmp(units(15000)) != 0 {
		t.Fatalf("target debt changed: %s", got)
	}
	if got := fix.stable.BalanceOf(liquidator); got.Cmp(units(15000)) != 0 {
		t.Fatalf("liquidator stable balance changed: %s", got)
	}
}

func TestLiquidateMustStrictlyImprove(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)
	fix.openPosition(t, target, units(10), units(15000))

	// At $1650 the collateral is worth exactly 1.1x the debt, so a partial
	// repayment pays out value at the same rate it retires debt and leaves
	// the ratio where it was. Only the full close improves it.
	fix.wethFeed.SetPrice(big.NewInt(165_000_000_000))
	if err := fix.stable.Mint(liquidator, units(15000)); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}

	err := fix.engine.Liquidate(liquidator, "WETH", target, units(5000))
	if !errors.Is(err, ErrHealthFactorNotImproved) {
		t.Fatalf("expected no-improvement rejection, got %v", err)
	}
	if got := fix.mustBalance(t, target, "WETH"); got.Cmp(units(10)) != 0 {
		t.Fatalf("target collateral should be restored, got %s", got)
	}
	if got := fix.mustDebt(t, target); got.Cmp(units(15000)) != 0 {
		t.Fatalf("target debt should be restored, got %s", got)
	}
	if got := fix.stable.BalanceOf(liquidator); got.Cmp(units(15000)) != 0 {
		t.Fatalf("liquidator stable balance should be restored, got %s", got)
	}
	if got := fix.weth.BalanceOf(liquidator); got.Sign() != 0 {
		t.Fatalf("seized collateral should be returned, liquidator holds %s", got)
	}
	if got := fix.weth.BalanceOf(fix.custody); got.Cmp(units(10)) != 0 {
		t.Fatalf("custody balance = %s, want %s", got, units(10))
	}
}

func TestLiquidatorMustRemainSolvent(t *testing.T) {
	fix := newEngineFixture(t)
	target := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	fix.openPosition(t, target, units(10), units(15000))
	fix.openPosition(t, liquidator, units(1), units(900))

	// The drop to $1650 puts both positions under water. Seized collateral
	// lands in the liquidator's wallet, not their ledger position, so the
	// liquidation cannot repair the liquidator's own insolvency.
	fix.wethFeed.SetPrice(big.NewInt(165_000_000_000))
	if err := fix.stable.Mint(liquidator, units(15000)); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}

	err := fix.engine.Liquidate(liquidator, "WETH", target, units(15000))
	if !errors.Is(err, ErrHealthFactorBelowThreshold) {
		t.Fatalf("expected liquidator solvency rejection, got %v", err)
	}
	if got := fix.mustBalance(t, target, "WETH"); got.Cmp(units(10)) != 0 {
		t.Fatalf("target collateral should be restored, got %s", got)
	}
	if got := fix.mustDebt(t, target); got.Cmp(units(15000)) != 0 {
		t.Fatalf("target debt should be restored, got %s", got)
	}
	if got := fix.weth.BalanceOf(liquidator); got.Sign() != 0 {
		t.Fatalf("seized collateral should be returned, liquidator holds %s", got)
	}
}
