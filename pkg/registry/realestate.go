// Package registry provides the reference implementations of the
// marketplace's external collaborators: the real-estate asset registry, the
// eligibility verifier, and the referral registry. Each mirrors the
// deployment it stands in for: owner-administered, with the mutating surface
// gated to the accounts entitled to it.
package registry

import (
	"context"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// RealEstate records custody of unique property titles. Each property ID is
// minted exactly once, and only by the linked marketplace account.
type RealEstate struct {
	mu          sync.RWMutex
	owner       domain.Address
	marketplace domain.Address
	holders     map[uint64]domain.Address
}

// NewRealEstate builds an empty title registry administered by owner.
func NewRealEstate(owner domain.Address) *RealEstate {
	return &RealEstate{owner: owner, holders: make(map[uint64]domain.Address)}
}

// SetMarketplace links the marketplace account allowed to mint titles.
// Owner only, immutable once set.
func (r *RealEstate) SetMarketplace(caller, marketplace domain.Address) error {
	if caller != r.owner {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not the registry owner", caller)
	}
	if marketplace.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "marketplace address is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.marketplace.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "marketplace link is already set")
	}
	r.marketplace = marketplace
	return nil
}

// MintTo records a new title held by owner. Only the linked marketplace may
// mint, and an ID is minted at most once.
func (r *RealEstate) MintTo(caller, owner domain.Address, propertyID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.marketplace.IsZero() || caller != r.marketplace {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not the linked marketplace", caller)
	}
	if _, exists := r.holders[propertyID]; exists {
		return domain.Errorf(domain.CodeInvalidConfig, "property %d is already minted", propertyID)
	}
	r.holders[propertyID] = owner
	return nil
}

// BalanceOf reports whether owner holds the title for propertyID: 1 if held,
// 0 otherwise.
func (r *RealEstate) BalanceOf(owner domain.Address, propertyID uint64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.holders[propertyID] == owner && !owner.IsZero() {
		return 1
	}
	return 0
}

// BoundRealEstate is a registry view with the calling account fixed,
// satisfying the marketplace's asset-registry boundary.
type BoundRealEstate struct {
	r      *RealEstate
	caller domain.Address
}

// Bind fixes the calling account for subsequent mints.
func (r *RealEstate) Bind(caller domain.Address) *BoundRealEstate {
	return &BoundRealEstate{r: r, caller: caller}
}

// MintTo mints a title on behalf of the bound caller.
func (b *BoundRealEstate) MintTo(ctx context.Context, owner domain.Address, propertyID uint64) error {
	return b.r.MintTo(b.caller, owner, propertyID)
}

// BalanceOf reports title custody.
func (b *BoundRealEstate) BalanceOf(ctx context.Context, owner domain.Address, propertyID uint64) uint64 {
	return b.r.BalanceOf(owner, propertyID)
}
