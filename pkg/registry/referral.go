package registry

import (
	"context"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// Referral is the attribution registry: owner-appointed services record
// which referrer brought in a buyer. Attribution is first-write-wins; a
// buyer is never re-attributed.
type Referral struct {
	mu        sync.RWMutex
	owner     domain.Address
	services  map[domain.Address]bool
	referrers map[domain.Address]domain.Address
}

// NewReferral builds an empty referral registry administered by owner.
func NewReferral(owner domain.Address) *Referral {
	return &Referral{
		owner:     owner,
		services:  make(map[domain.Address]bool),
		referrers: make(map[domain.Address]domain.Address),
	}
}

// SetService grants or revokes the recording role. Owner only.
func (r *Referral) SetService(caller, addr domain.Address, enabled bool) error {
	if caller != r.owner {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not the referral owner", caller)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[addr] = enabled
	return nil
}

// RecordReferral attributes buyer to referrer. Service only; self-referral
// is rejected and an existing attribution is kept.
func (r *Referral) RecordReferral(caller, buyer, referrer domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.services[caller] {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not a referral service", caller)
	}
	if buyer.IsZero() || referrer.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "buyer and referrer are required")
	}
	if buyer == referrer {
		return domain.E(domain.CodeInvalidConfig, "self-referral is not allowed")
	}
	if _, exists := r.referrers[buyer]; exists {
		return domain.Errorf(domain.CodeInvalidConfig, "buyer %q already has an attribution", buyer)
	}
	r.referrers[buyer] = referrer
	return nil
}

// ReferrerOf returns the recorded referrer for a buyer, if any.
func (r *Referral) ReferrerOf(buyer domain.Address) (domain.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.referrers[buyer]
	return ref, ok
}

// BoundReferral is a registry view with the calling service fixed,
// satisfying the marketplace's referral boundary.
type BoundReferral struct {
	r      *Referral
	caller domain.Address
}

// Bind fixes the calling service for subsequent recordings.
func (r *Referral) Bind(caller domain.Address) *BoundReferral {
	return &BoundReferral{r: r, caller: caller}
}

// RecordReferral records an attribution on behalf of the bound service.
func (b *BoundReferral) RecordReferral(ctx context.Context, buyer, referrer domain.Address) error {
	return b.r.RecordReferral(b.caller, buyer, referrer)
}
