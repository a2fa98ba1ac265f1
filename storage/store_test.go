package storage

import (
	"math/big"
	"path/filepath"
	"testing"

	"synthvault/crypto"
	"synthvault/ledger"
)

func makeAddress(seed byte) crypto.Address {
	raw := make([]byte, 20)
	raw[0] = seed
	return crypto.NewAddress(crypto.ActorPrefix, raw)
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestPositionRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	actor := makeAddress(0x01)

	debt, _ := new(big.Int).SetString("15000000000000000000000", 10)
	collateral, _ := new(big.Int).SetString("9999999999999999999", 10)
	pos := &ledger.Position{
		Address: actor,
		Collateral: map[ledger.Asset]*big.Int{
			"WETH": collateral,
			"WBTC": big.NewInt(0),
		},
		Debt: debt,
	}
	if err := store.PutPosition(pos); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, err := store.GetPosition(actor)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected stored position")
	}
	if !loaded.Address.Equal(actor) {
		t.Fatalf("address = %s, want %s", loaded.Address, actor)
	}
	if loaded.Debt.Cmp(debt) != 0 {
		t.Fatalf("debt = %s, want %s", loaded.Debt, debt)
	}
	if loaded.Collateral["WETH"].Cmp(collateral) != 0 {
		t.Fatalf("collateral = %s, want %s", loaded.Collateral["WETH"], collateral)
	}
}

func TestMissingPositionIsNil(t *testing.T) {
	store, _ := openTestStore(t)
	loaded, err := store.GetPosition(makeAddress(0x42))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil for an absent position, got %+v", loaded)
	}
}

func TestPositionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	actor := makeAddress(0x07)
	pos := &ledger.Position{
		Address:    actor,
		Collateral: map[ledger.Asset]*big.Int{"WETH": big.NewInt(123)},
		Debt:       big.NewInt(45),
	}
	if err := store.PutPosition(pos); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	loaded, err := reopened.GetPosition(actor)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if loaded == nil || loaded.Collateral["WETH"].Cmp(big.NewInt(123)) != 0 || loaded.Debt.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("position did not survive reopen: %+v", loaded)
	}
}

func TestPutRejectsNil(t *testing.T) {
	store, _ := openTestStore(t)
	if err := store.PutPosition(nil); err == nil {
		t.Fatalf("expected error for nil position")
	}
}

func TestStoreWorksAsEngineState(t *testing.T) {
	store, _ := openTestStore(t)
	registry, err := ledger.NewRegistry([]ledger.Asset{"WETH"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	collateral := ledger.NewCollateralLedger(store, registry)
	debt := ledger.NewDebtLedger(store)
	actor := makeAddress(0x09)

	if err := collateral.Deposit(actor, "WETH", big.NewInt(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := debt.Increase(actor, big.NewInt(200)); err != nil {
		t.Fatalf("increase: %v", err)
	}
	balance, err := collateral.Balance(actor, "WETH")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance = %s, want 500", balance)
	}
	outstanding, err := debt.Outstanding(actor)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if outstanding.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("debt = %s, want 200", outstanding)
	}
}
