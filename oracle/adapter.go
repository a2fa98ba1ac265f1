package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"synthvault/ledger"
)

var (
	// Precision is the canonical fixed-point scale: all USD values and the
	// stable unit itself carry 18 decimals.
	Precision = mustBigInt("1000000000000000000")
	// AdditionalFeedPrecision lifts the 8-decimal feed convention to the
	// canonical 18-decimal scale before combining with amounts.
	AdditionalFeedPrecision = mustBigInt("10000000000")

	// ErrFeedCountMismatch indicates the asset and feed sequences passed at
	// construction differ in length.
	ErrFeedCountMismatch = errors.New("oracle: asset and feed counts differ")
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// Adapter normalizes raw feed readings into canonical 18-decimal USD values
// and converts between asset amounts and USD values. The asset-to-feed
// mapping is fixed at construction.
type Adapter struct {
	feeds map[ledger.Asset]Feed
	cfg   Config
	now   func() time.Time
}

// NewAdapter binds each asset to its price feed. The two sequences are
// parallel and must have equal, non-zero length.
func NewAdapter(assets []ledger.Asset, feeds []Feed, cfg Config) (*Adapter, error) {
	if len(assets) == 0 || len(assets) != len(feeds) {
		return nil, ErrFeedCountMismatch
	}
	a := &Adapter{
		feeds: make(map[ledger.Asset]Feed, len(assets)),
		cfg:   cfg,
		now:   time.Now,
	}
	for i, asset := range assets {
		if feeds[i] == nil {
			return nil, fmt.Errorf("oracle: nil feed for asset %s", asset)
		}
		if _, ok := a.feeds[asset]; ok {
			return nil, fmt.Errorf("oracle: duplicate feed registration for asset %s", asset)
		}
		a.feeds[asset] = feeds[i]
	}
	return a, nil
}

// UsdValue converts an asset amount (in the asset's native smallest unit) to
// an 18-decimal USD value: normalizedPrice * amount / Precision, truncating
// toward zero.
func (a *Adapter) UsdValue(asset ledger.Asset, amount *big.Int) (*big.Int, error) {
	price, err := a.normalizedPrice(asset)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	value := new(big.Int).Mul(price, amount)
	return value.Quo(value, Precision), nil
}

// AmountForUsd is the inverse conversion: the asset amount worth the given
// 18-decimal USD value at the current price, truncating toward zero.
func (a *Adapter) AmountForUsd(asset ledger.Asset, usdValue *big.Int) (*big.Int, error) {
	price, err := a.normalizedPrice(asset)
	if err != nil {
		return nil, err
	}
	if usdValue == nil {
		return big.NewInt(0), nil
	}
	amount := new(big.Int).Mul(usdValue, Precision)
	return amount.Quo(amount, price), nil
}

func (a *Adapter) normalizedPrice(asset ledger.Asset) (*big.Int, error) {
	if a == nil {
		return nil, ErrPriceUnavailable
	}
	feed, ok := a.feeds[asset]
	if !ok {
		return nil, ErrUnknownAsset
	}
	reading, err := feed.Latest()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, asset, err)
	}
	if reading.Price == nil || reading.Price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPositivePrice, asset)
	}
	if a.cfg.MaxAge > 0 {
		age := a.now().Sub(reading.UpdatedAt)
		if age > a.cfg.MaxAge {
			return nil, fmt.Errorf("%w: %s: age %s", ErrStaleReading, asset, age)
		}
	}
	return new(big.Int).Mul(reading.Price, AdditionalFeedPrecision), nil
}
