package registry

import (
	"context"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// Verifier is the identity/eligibility registry: owner-appointed verifiers
// flag which accounts may act as buyers and which as agencies.
type Verifier struct {
	mu        sync.RWMutex
	owner     domain.Address
	verifiers map[domain.Address]bool
	buyers    map[domain.Address]bool
	agencies  map[domain.Address]bool
}

// NewVerifier builds an empty eligibility registry administered by owner.
func NewVerifier(owner domain.Address) *Verifier {
	return &Verifier{
		owner:     owner,
		verifiers: make(map[domain.Address]bool),
		buyers:    make(map[domain.Address]bool),
		agencies:  make(map[domain.Address]bool),
	}
}

// SetVerifier grants or revokes the verifier role. Owner only.
func (v *Verifier) SetVerifier(caller, addr domain.Address, enabled bool) error {
	if caller != v.owner {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not the verifier owner", caller)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.verifiers[addr] = enabled
	return nil
}

// SetVerificationUser flags an account as an eligible buyer. Verifier only.
func (v *Verifier) SetVerificationUser(caller, addr domain.Address, verified bool) error {
	if err := v.requireVerifier(caller); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buyers[addr] = verified
	return nil
}

// SetVerificationAgency flags an account as an eligible agency. Verifier
// only.
func (v *Verifier) SetVerificationAgency(caller, addr domain.Address, verified bool) error {
	if err := v.requireVerifier(caller); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.agencies[addr] = verified
	return nil
}

func (v *Verifier) requireVerifier(caller domain.Address) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.verifiers[caller] {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not a verifier", caller)
	}
	return nil
}

// IsEligibleBuyer reports whether addr may book and buy properties.
func (v *Verifier) IsEligibleBuyer(ctx context.Context, addr domain.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.buyers[addr]
}

// IsEligibleAgency reports whether addr may create listings.
func (v *Verifier) IsEligibleAgency(ctx context.Context, addr domain.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.agencies[addr]
}
