package ledger

import (
	"errors"
	"strings"
)

var (
	ErrEmptyRegistry   = errors.New("ledger: registry requires at least one asset")
	ErrDuplicateAsset  = errors.New("ledger: duplicate asset symbol")
	ErrBlankAssetLabel = errors.New("ledger: asset symbol must not be blank")
)

// Registry is the ordered set of assets eligible as collateral. It is fixed at
// construction; the order is significant only for deterministic enumeration.
type Registry struct {
	order   []Asset
	members map[Asset]struct{}
}

// NewRegistry builds the immutable asset set. Symbols must be non-blank and
// unique.
func NewRegistry(assets []Asset) (*Registry, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyRegistry
	}
	r := &Registry{
		order:   make([]Asset, 0, len(assets)),
		members: make(map[Asset]struct{}, len(assets)),
	}
	for _, asset := range assets {
		if strings.TrimSpace(string(asset)) == "" {
			return nil, ErrBlankAssetLabel
		}
		if _, ok := r.members[asset]; ok {
			return nil, ErrDuplicateAsset
		}
		r.order = append(r.order, asset)
		r.members[asset] = struct{}{}
	}
	return r, nil
}

// Contains reports membership.
func (r *Registry) Contains(asset Asset) bool {
	if r == nil {
		return false
	}
	_, ok := r.members[asset]
	return ok
}

// Assets returns the registered assets in construction order.
func (r *Registry) Assets() []Asset {
	if r == nil {
		return nil
	}
	return append([]Asset(nil), r.order...)
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
