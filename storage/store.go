package storage

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	bolt "go.etcd.io/bbolt"

	"synthvault/crypto"
	"synthvault/ledger"
)

var bucketPositions = []byte("positions")

// Store is a BoltDB-backed ledger.State. Positions are stored as JSON records
// keyed by the actor's bech32 address, with balances rendered as decimal
// strings so precision survives the round trip.
type Store struct {
	db *bolt.DB
}

type positionRecord struct {
	Address    string            `json:"address"`
	Collateral map[string]string `json:"collateral,omitempty"`
	Debt       string            `json:"debt"`
}

// Open initialises (and migrates) the Bolt-backed store.
func Open(path string, options *bolt.Options) (*Store, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPositions)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying Bolt database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetPosition implements ledger.State.
func (s *Store) GetPosition(addr crypto.Address) (*ledger.Position, error) {
	if s == nil || s.db == nil {
		return nil, ledger.ErrNilState
	}
	var record *positionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPositions).Get([]byte(addr.String()))
		if raw == nil {
			return nil
		}
		record = &positionRecord{}
		return json.Unmarshal(raw, record)
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return decodePosition(record)
}

// PutPosition implements ledger.State.
func (s *Store) PutPosition(pos *ledger.Position) error {
	if s == nil || s.db == nil {
		return ledger.ErrNilState
	}
	if pos == nil {
		return fmt.Errorf("storage: nil position")
	}
	record := encodePosition(pos)
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPositions).Put([]byte(pos.Address.String()), raw)
	})
}

func encodePosition(pos *ledger.Position) *positionRecord {
	record := &positionRecord{Address: pos.Address.String(), Debt: "0"}
	if pos.Debt != nil {
		record.Debt = pos.Debt.String()
	}
	if len(pos.Collateral) > 0 {
		record.Collateral = make(map[string]string, len(pos.Collateral))
		for asset, amount := range pos.Collateral {
			if amount == nil {
				continue
			}
			record.Collateral[string(asset)] = amount.String()
		}
	}
	return record
}

func decodePosition(record *positionRecord) (*ledger.Position, error) {
	addr, err := crypto.DecodeAddress(record.Address)
	if err != nil {
		return nil, fmt.Errorf("storage: corrupt position key: %w", err)
	}
	pos := &ledger.Position{
		Address:    addr,
		Collateral: make(map[ledger.Asset]*big.Int, len(record.Collateral)),
	}
	pos.Debt, err = parseAmount(record.Debt)
	if err != nil {
		return nil, err
	}
	for asset, raw := range record.Collateral {
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, err
		}
		pos.Collateral[ledger.Asset(asset)] = amount
	}
	return pos, nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("storage: corrupt amount %q", raw)
	}
	return amount, nil
}
