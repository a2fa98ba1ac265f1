package token

import (
	"errors"
	"math/big"
	"strings"
	"sync"

	"synthvault/crypto"
)

var (
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// Token is the fungible-token surface the engine depends on. The stable unit
// uses the full interface; collateral assets only need Transfer and BalanceOf.
// Implementations report failure through errors; the engine treats any error
// as a failed external interaction and unwinds the operation.
type Token interface {
	Mint(to crypto.Address, amount *big.Int) error
	Burn(from crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
	BalanceOf(addr crypto.Address) *big.Int
}

// Basic is an in-memory Token used by the bundled service wiring and tests.
// Balance bookkeeping follows standard fungible-token semantics; there is no
// allowance layer because the engine is the sole trusted operator.
type Basic struct {
	mu       sync.RWMutex
	symbol   string
	balances map[string]*big.Int
	supply   *big.Int
}

func NewBasic(symbol string) *Basic {
	return &Basic{
		symbol:   strings.TrimSpace(symbol),
		balances: make(map[string]*big.Int),
		supply:   big.NewInt(0),
	}
}

// Symbol returns the token's display symbol.
func (b *Basic) Symbol() string { return b.symbol }

func (b *Basic) Mint(to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := to.String()
	current := b.balanceLocked(key)
	b.balances[key] = new(big.Int).Add(current, amount)
	b.supply = new(big.Int).Add(b.supply, amount)
	return nil
}

func (b *Basic) Burn(from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := from.String()
	current := b.balanceLocked(key)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.balances[key] = new(big.Int).Sub(current, amount)
	b.supply = new(big.Int).Sub(b.supply, amount)
	return nil
}

func (b *Basic) Transfer(from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fromKey := from.String()
	current := b.balanceLocked(fromKey)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	b.balances[fromKey] = new(big.Int).Sub(current, amount)
	toKey := to.String()
	b.balances[toKey] = new(big.Int).Add(b.balanceLocked(toKey), amount)
	return nil
}

func (b *Basic) BalanceOf(addr crypto.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.balanceLocked(addr.String()))
}

// TotalSupply returns the outstanding minted amount.
func (b *Basic) TotalSupply() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.supply)
}

func (b *Basic) balanceLocked(key string) *big.Int {
	if balance, ok := b.balances[key]; ok && balance != nil {
		return balance
	}
	return big.NewInt(0)
}
