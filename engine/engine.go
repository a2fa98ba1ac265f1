package engine

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"synthvault/crypto"
	"synthvault/events"
	"synthvault/ledger"
	"synthvault/oracle"
	"synthvault/token"
)

var (
	ErrNilState              = errors.New("engine: state not configured")
	ErrNilStableToken        = errors.New("engine: stable token not configured")
	ErrAssetSequenceMismatch = errors.New("engine: asset, feed, and token sequences must have equal length")

	// ErrHealthFactorBelowThreshold rejects an actor-initiated operation that
	// would leave the actor's own health factor under the minimum.
	ErrHealthFactorBelowThreshold = errors.New("engine: health factor below minimum")
	// ErrMintFailed and ErrTransferFailed surface failures reported by the
	// external token collaborators.
	ErrMintFailed     = errors.New("engine: stable token mint failed")
	ErrTransferFailed = errors.New("engine: token transfer failed")
)

// Engine is the accounting, solvency, and liquidation core. Users deposit
// approved collateral, mint the unit-pegged stable token against it, and the
// engine enforces that every actor-initiated state change leaves the actor at
// or above the minimum health factor.
//
// Every public operation runs under the engine mutex and either commits fully
// or unwinds every ledger mutation and token transfer it performed. External
// token interactions happen after the corresponding ledger effect.
type Engine struct {
	mu         sync.RWMutex
	state      ledger.State
	registry   *ledger.Registry
	collateral *ledger.CollateralLedger
	debt       *ledger.DebtLedger
	prices     *oracle.Adapter
	stable     token.Token
	vault      map[ledger.Asset]token.Token
	custody    crypto.Address
	emitter    events.Emitter
	pauses     PauseView
}

// New constructs an engine over three parallel sequences: the registered
// assets, their price feeds, and their token collaborators. The sequences
// must have equal length; a mismatch fails before any state is established.
func New(
	assets []ledger.Asset,
	feeds []oracle.Feed,
	tokens []token.Token,
	stable token.Token,
	custody crypto.Address,
	state ledger.State,
	oracleCfg oracle.Config,
) (*Engine, error) {
	if len(assets) != len(feeds) || len(assets) != len(tokens) {
		return nil, ErrAssetSequenceMismatch
	}
	if stable == nil {
		return nil, ErrNilStableToken
	}
	if state == nil {
		return nil, ErrNilState
	}
	registry, err := ledger.NewRegistry(assets)
	if err != nil {
		return nil, err
	}
	prices, err := oracle.NewAdapter(assets, feeds, oracleCfg)
	if err != nil {
		return nil, err
	}
	vault := make(map[ledger.Asset]token.Token, len(assets))
	for i, asset := range assets {
		if tokens[i] == nil {
			return nil, fmt.Errorf("engine: nil token for asset %s", asset)
		}
		vault[asset] = tokens[i]
	}
	return &Engine{
		state:      state,
		registry:   registry,
		collateral: ledger.NewCollateralLedger(state, registry),
		debt:       ledger.NewDebtLedger(state),
		prices:     prices,
		stable:     stable,
		vault:      vault,
		custody:    custody,
		emitter:    events.NoopEmitter{},
	}, nil
}

// SetEmitter wires the engine to a downstream event subscriber.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the operator pause switches.
func (e *Engine) SetPauses(p PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Custody returns the address holding deposited collateral and in-flight
// stable units.
func (e *Engine) Custody() crypto.Address {
	return e.custody
}

// DepositCollateral records the deposit and pulls the asset from the actor
// into custody. The transfer failure check is defense in depth: by the token
// collaborator's contract a failed pull reports its own error, but the engine
// still verifies and unwinds the recorded deposit.
func (e *Engine) DepositCollateral(actor crypto.Address, asset ledger.Asset, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpDeposit); err != nil {
		return err
	}
	if err := e.depositLocked(actor, asset, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.CollateralDeposited{Actor: actor, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) depositLocked(actor crypto.Address, asset ledger.Asset, amount *big.Int) error {
	snap, err := e.snapshot(actor)
	if err != nil {
		return err
	}
	if err := e.collateral.Deposit(actor, asset, amount); err != nil {
		return err
	}
	if err := e.vault[asset].Transfer(actor, e.custody, amount); err != nil {
		e.restore(snap)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// RedeemCollateral decreases the ledger, pays the asset out to the actor, and
// then asserts the actor's post-withdrawal health factor. A violation unwinds
// the payout and the ledger mutation atomically.
func (e *Engine) RedeemCollateral(actor crypto.Address, asset ledger.Asset, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpRedeem); err != nil {
		return err
	}
	if err := e.redeemLocked(actor, actor, asset, amount); err != nil {
		return err
	}
	if err := e.revertIfUnhealthy(actor); err != nil {
		// The actor holds exactly the paid-out amount, so the claw-back
		// cannot underflow.
		_ = e.vault[asset].Transfer(actor, e.custody, amount)
		_ = e.collateral.Deposit(actor, asset, amount)
		return err
	}
	e.emitter.Emit(events.CollateralRedeemed{From: actor, To: actor, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

// redeemLocked moves collateral out of from's position and pays the asset to
// the recipient. Callers run their own solvency assertions and emit events.
func (e *Engine) redeemLocked(from, to crypto.Address, asset ledger.Asset, amount *big.Int) error {
	snap, err := e.snapshot(from)
	if err != nil {
		return err
	}
	if err := e.collateral.Withdraw(from, asset, amount); err != nil {
		return err
	}
	if err := e.vault[asset].Transfer(e.custody, to, amount); err != nil {
		e.restore(snap)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// Mint increases the actor's debt, asserts solvency against the new debt, and
// instructs the stable token to mint to the actor.
func (e *Engine) Mint(actor crypto.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpMint); err != nil {
		return err
	}
	if err := e.mintLocked(actor, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.StableMinted{Actor: actor, Amount: new(big.Int).Set(amount)})
	return nil
}

func (e *Engine) mintLocked(actor crypto.Address, amount *big.Int) error {
	snap, err := e.snapshot(actor)
	if err != nil {
		return err
	}
	if err := e.debt.Increase(actor, amount); err != nil {
		return err
	}
	if err := e.revertIfUnhealthy(actor); err != nil {
		e.restore(snap)
		return err
	}
	if err := e.stable.Mint(actor, amount); err != nil {
		e.restore(snap)
		return fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	return nil
}

// Burn reduces the actor's debt, pulls the stable unit from the actor into
// custody, and destroys it. Requests exceeding the outstanding debt fail with
// a DebtUnderflowError carrying both amounts.
func (e *Engine) Burn(actor crypto.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpBurn); err != nil {
		return err
	}
	if err := e.burnLocked(actor, actor, amount); err != nil {
		return err
	}
	// Burning can only improve the ratio; the trailing assertion is defense
	// in depth.
	if err := e.revertIfUnhealthy(actor); err != nil {
		_ = e.stable.Mint(actor, amount)
		_ = e.debt.Increase(actor, amount)
		return err
	}
	e.emitter.Emit(events.StableBurned{Actor: actor, Payer: actor, Amount: new(big.Int).Set(amount)})
	return nil
}

// burnLocked retires debt recorded against onBehalf, pulling the stable unit
// from the payer. Callers emit events and run trailing solvency checks.
func (e *Engine) burnLocked(onBehalf, payer crypto.Address, amount *big.Int) error {
	snap, err := e.snapshot(onBehalf)
	if err != nil {
		return err
	}
	if err := e.debt.Decrease(onBehalf, amount); err != nil {
		return err
	}
	if err := e.stable.Transfer(payer, e.custody, amount); err != nil {
		e.restore(snap)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.stable.Burn(e.custody, amount); err != nil {
		_ = e.stable.Transfer(e.custody, payer, amount)
		e.restore(snap)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// DepositCollateralAndMint runs the two primitives in fixed order: deposit
// before mint. A mint failure unwinds the deposit.
func (e *Engine) DepositCollateralAndMint(actor crypto.Address, asset ledger.Asset, collateralAmount, debtAmount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpDeposit); err != nil {
		return err
	}
	if err := guardPause(e.pauses, OpMint); err != nil {
		return err
	}
	if err := e.depositLocked(actor, asset, collateralAmount); err != nil {
		return err
	}
	if err := e.mintLocked(actor, debtAmount); err != nil {
		_ = e.vault[asset].Transfer(e.custody, actor, collateralAmount)
		_ = e.collateral.Withdraw(actor, asset, collateralAmount)
		return err
	}
	e.emitter.Emit(events.CollateralDeposited{Actor: actor, Asset: asset, Amount: new(big.Int).Set(collateralAmount)})
	e.emitter.Emit(events.StableMinted{Actor: actor, Amount: new(big.Int).Set(debtAmount)})
	return nil
}

// RedeemCollateralForStable runs burn before redeem so the redeem-side
// solvency check observes the already-reduced debt.
func (e *Engine) RedeemCollateralForStable(actor crypto.Address, asset ledger.Asset, collateralAmount, burnAmount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := guardPause(e.pauses, OpBurn); err != nil {
		return err
	}
	if err := guardPause(e.pauses, OpRedeem); err != nil {
		return err
	}
	if err := e.burnLocked(actor, actor, burnAmount); err != nil {
		return err
	}
	unwindBurn := func() {
		_ = e.stable.Mint(actor, burnAmount)
		_ = e.debt.Increase(actor, burnAmount)
	}
	if err := e.redeemLocked(actor, actor, asset, collateralAmount); err != nil {
		unwindBurn()
		return err
	}
	if err := e.revertIfUnhealthy(actor); err != nil {
		_ = e.vault[asset].Transfer(actor, e.custody, collateralAmount)
		_ = e.collateral.Deposit(actor, asset, collateralAmount)
		unwindBurn()
		return err
	}
	e.emitter.Emit(events.StableBurned{Actor: actor, Payer: actor, Amount: new(big.Int).Set(burnAmount)})
	e.emitter.Emit(events.CollateralRedeemed{From: actor, To: actor, Asset: asset, Amount: new(big.Int).Set(collateralAmount)})
	return nil
}

// RegisteredAssets returns the asset set in construction order.
func (e *Engine) RegisteredAssets() []ledger.Asset {
	return e.registry.Assets()
}

// CollateralBalance returns the deposited amount for (actor, asset).
func (e *Engine) CollateralBalance(actor crypto.Address, asset ledger.Asset) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.collateral.Balance(actor, asset)
}

// UsdValue converts an asset amount to its 18-decimal USD value at the
// current oracle price.
func (e *Engine) UsdValue(asset ledger.Asset, amount *big.Int) (*big.Int, error) {
	return e.prices.UsdValue(asset, amount)
}

// AmountForUsd converts an 18-decimal USD value to the equivalent asset
// amount at the current oracle price.
func (e *Engine) AmountForUsd(asset ledger.Asset, usdValue *big.Int) (*big.Int, error) {
	return e.prices.AmountForUsd(asset, usdValue)
}

func (e *Engine) snapshot(actor crypto.Address) (*ledger.Position, error) {
	pos, err := ledger.EnsurePosition(e.state, actor)
	if err != nil {
		return nil, err
	}
	return pos.Clone(), nil
}

func (e *Engine) restore(snap *ledger.Position) {
	if snap == nil {
		return
	}
	_ = e.state.PutPosition(snap)
}
