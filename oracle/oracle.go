package oracle

import (
	"errors"
	"math/big"
	"sync"
	"time"
)

var (
	// ErrPriceUnavailable indicates the feed produced no usable reading.
	ErrPriceUnavailable = errors.New("oracle: price unavailable")
	// ErrNonPositivePrice indicates a zero or negative feed value. The
	// adapter trusts feeds for everything else, but dividing by a zero price
	// must fail explicitly rather than produce an undefined result.
	ErrNonPositivePrice = errors.New("oracle: price must be positive")
	// ErrStaleReading indicates the reading exceeded the configured max age.
	ErrStaleReading = errors.New("oracle: reading is stale")
	// ErrUnknownAsset indicates no feed is registered for the asset.
	ErrUnknownAsset = errors.New("oracle: no feed registered for asset")
)

// Reading is one observation from a price feed: a fixed-point USD price with
// its decimal precision and the moment the upstream source reported it.
type Reading struct {
	Price     *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// Feed resolves the latest USD price for a single asset.
type Feed interface {
	Latest() (Reading, error)
}

// Config tunes adapter-level validation applied to every reading.
type Config struct {
	// MaxAge rejects readings older than the window. Zero disables the
	// check and accepts readings of any age.
	MaxAge time.Duration
}

// ManualFeed is a Feed whose price is set programmatically. It backs tests and
// dev deployments where no live upstream exists.
type ManualFeed struct {
	mu      sync.RWMutex
	reading Reading
	err     error
}

// NewManualFeed seeds a feed with an 8-decimal price, the convention used by
// the reference deployments.
func NewManualFeed(price *big.Int) *ManualFeed {
	f := &ManualFeed{}
	f.SetPrice(price)
	return f
}

// SetPrice replaces the current reading, stamping it with the present time.
func (f *ManualFeed) SetPrice(price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
	f.reading = Reading{Decimals: 8, UpdatedAt: time.Now()}
	if price != nil {
		f.reading.Price = new(big.Int).Set(price)
	}
}

// SetReading replaces the full reading, timestamp included.
func (f *ManualFeed) SetReading(r Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
	f.reading = Reading{Decimals: r.Decimals, UpdatedAt: r.UpdatedAt}
	if r.Price != nil {
		f.reading.Price = new(big.Int).Set(r.Price)
	}
}

// Fail makes every subsequent Latest call return the supplied error.
func (f *ManualFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *ManualFeed) Latest() (Reading, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return Reading{}, f.err
	}
	if f.reading.Price == nil {
		return Reading{}, ErrPriceUnavailable
	}
	clone := Reading{Decimals: f.reading.Decimals, UpdatedAt: f.reading.UpdatedAt}
	clone.Price = new(big.Int).Set(f.reading.Price)
	return clone, nil
}
