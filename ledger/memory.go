package ledger

import (
	"sync"

	"synthvault/crypto"
)

// MemoryState is an in-memory State implementation. It is the default backing
// store for tests and for deployments that do not need durability.
type MemoryState struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

func NewMemoryState() *MemoryState {
	return &MemoryState{positions: make(map[string]*Position)}
}

func (m *MemoryState) GetPosition(addr crypto.Address) (*Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[addr.String()]
	if !ok {
		return nil, nil
	}
	return pos.Clone(), nil
}

func (m *MemoryState) PutPosition(pos *Position) error {
	if pos == nil {
		return ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.Address.String()] = pos.Clone()
	return nil
}
