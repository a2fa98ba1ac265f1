package events

import (
	"math/big"

	"synthvault/crypto"
	"synthvault/ledger"
)

const (
	// TypeCollateralDeposited is emitted every time collateral enters an
	// actor's position.
	TypeCollateralDeposited = "vault.collateral_deposited"
	// TypeCollateralRedeemed is emitted on every collateral-decreasing
	// transfer, withdrawals and liquidation seizures alike.
	TypeCollateralRedeemed = "vault.collateral_redeemed"
	// TypeStableMinted is emitted when stable units are minted against a
	// position.
	TypeStableMinted = "vault.stable_minted"
	// TypeStableBurned is emitted when stable units are repaid and destroyed.
	TypeStableBurned = "vault.stable_burned"
	// TypePositionLiquidated is emitted after a completed liquidation.
	TypePositionLiquidated = "vault.position_liquidated"
)

// CollateralDeposited records a deposit into an actor's collateral position.
type CollateralDeposited struct {
	Actor  crypto.Address
	Asset  ledger.Asset
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

// CollateralRedeemed records collateral leaving a position. From and To
// differ when a liquidator claims a target's collateral.
type CollateralRedeemed struct {
	From   crypto.Address
	To     crypto.Address
	Asset  ledger.Asset
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

// StableMinted records newly minted stable units.
type StableMinted struct {
	Actor  crypto.Address
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (StableMinted) EventType() string { return TypeStableMinted }

// StableBurned records repaid and destroyed stable units. Payer differs from
// Actor when a liquidator covers the target's debt.
type StableBurned struct {
	Actor  crypto.Address
	Payer  crypto.Address
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (StableBurned) EventType() string { return TypeStableBurned }

// PositionLiquidated summarises a completed liquidation.
type PositionLiquidated struct {
	Liquidator  crypto.Address
	Target      crypto.Address
	Asset       ledger.Asset
	DebtCovered *big.Int
	Seized      *big.Int
}

// EventType satisfies the events.Event interface.
func (PositionLiquidated) EventType() string { return TypePositionLiquidated }
