package engine

import (
	"math/big"

	"synthvault/oracle"
)

// Protocol constants. These are bit-exact: changing any of them changes which
// positions are solvent and which liquidations are economically valid.
var (
	// Precision is the canonical 18-decimal fixed-point scale shared with the
	// oracle adapter and the stable unit.
	Precision = oracle.Precision
	// LiquidationThreshold and LiquidationPrecision discount collateral to
	// 50% of its oracle value for solvency purposes.
	LiquidationThreshold = big.NewInt(50)
	LiquidationPrecision = big.NewInt(100)
	// LiquidationBonus is the percentage premium paid to liquidators out of
	// the target's collateral.
	LiquidationBonus = big.NewInt(10)
	// MinHealthFactor is the solvency floor, a ratio of 1.0 in fixed point.
	MinHealthFactor = mustBigInt("1000000000000000000")
	// MaxHealthFactor is the sentinel for debt-free positions, the maximum
	// value representable in a 256-bit word.
	MaxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// Constants bundles the configured protocol parameters for the read-only
// query surface. Values are copies.
type Constants struct {
	Precision               *big.Int
	AdditionalFeedPrecision *big.Int
	LiquidationThreshold    *big.Int
	LiquidationPrecision    *big.Int
	LiquidationBonus        *big.Int
	MinHealthFactor         *big.Int
}

// ProtocolConstants returns the engine's numeric parameters.
func ProtocolConstants() Constants {
	return Constants{
		Precision:               new(big.Int).Set(Precision),
		AdditionalFeedPrecision: new(big.Int).Set(oracle.AdditionalFeedPrecision),
		LiquidationThreshold:    new(big.Int).Set(LiquidationThreshold),
		LiquidationPrecision:    new(big.Int).Set(LiquidationPrecision),
		LiquidationBonus:        new(big.Int).Set(LiquidationBonus),
		MinHealthFactor:         new(big.Int).Set(MinHealthFactor),
	}
}
