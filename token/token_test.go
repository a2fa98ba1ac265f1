package token

import (
	"math/big"
	"testing"

	"synthvault/crypto"
)

func makeAddress(seed byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = seed
	return crypto.NewAddress(crypto.ActorPrefix, raw)
}

func TestMintBurnSupply(t *testing.T) {
	tok := NewBasic("SVUSD")
	holder := makeAddress(0x01)

	if err := tok.Mint(holder, big.NewInt(0)); err != ErrInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := tok.Mint(holder, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := tok.BalanceOf(holder); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("balance = %s, want 1000", got)
	}
	if got := tok.TotalSupply(); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("supply = %s, want 1000", got)
	}

	if err := tok.Burn(holder, big.NewInt(1200)); err != ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := tok.Burn(holder, big.NewInt(400)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := tok.BalanceOf(holder); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("balance = %s, want 600", got)
	}
	if got := tok.TotalSupply(); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("supply = %s, want 600", got)
	}
}

func TestTransfer(t *testing.T) {
	tok := NewBasic("WETH")
	from := makeAddress(0x01)
	to := makeAddress(0x02)

	if err := tok.Transfer(from, to, big.NewInt(10)); err != ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if err := tok.Mint(from, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := tok.Transfer(from, to, big.NewInt(30)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := tok.BalanceOf(from); got.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("from balance = %s, want 70", got)
	}
	if got := tok.BalanceOf(to); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("to balance = %s, want 30", got)
	}
	// Supply is unchanged by transfers.
	if got := tok.TotalSupply(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply = %s, want 100", got)
	}
}

func TestBalanceCopiesAreIndependent(t *testing.T) {
	tok := NewBasic("WBTC")
	holder := makeAddress(0x03)
	if err := tok.Mint(holder, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance := tok.BalanceOf(holder)
	balance.SetInt64(0)
	if got := tok.BalanceOf(holder); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("balance shares memory with callers")
	}
}

func TestSymbol(t *testing.T) {
	if got := NewBasic("  SVUSD  ").Symbol(); got != "SVUSD" {
		t.Fatalf("symbol = %q", got)
	}
}
