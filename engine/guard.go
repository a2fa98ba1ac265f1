package engine

import "errors"

// ErrOperationPaused is returned when a flow has been halted by the operator.
var ErrOperationPaused = errors.New("engine: operation paused")

// Operation names accepted by PauseView implementations.
const (
	OpDeposit   = "deposit"
	OpRedeem    = "redeem"
	OpMint      = "mint"
	OpBurn      = "burn"
	OpLiquidate = "liquidate"
)

// PauseView exposes fine-grained switches for halting individual flows.
type PauseView interface {
	IsPaused(op string) bool
}

func guardPause(p PauseView, op string) error {
	if p == nil || op == "" {
		return nil
	}
	if p.IsPaused(op) {
		return ErrOperationPaused
	}
	return nil
}
