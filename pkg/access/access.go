// Package access holds the administrative role registries for the
// marketplace: a single owner fixed at construction, the fee-changer set,
// and the platform-operator set. A Roles value is injected into every
// component that gates an action on a role; there is no ambient singleton.
package access

import (
	"sync"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// Roles tracks who may perform administrative actions.
type Roles struct {
	mu          sync.RWMutex
	owner       domain.Address
	feeChangers map[domain.Address]bool
	operators   map[domain.Address]bool
}

// New builds a role registry owned by the given address. The owner cannot be
// reassigned.
func New(owner domain.Address) (*Roles, error) {
	if owner.IsZero() {
		return nil, domain.E(domain.CodeInvalidConfig, "owner address is required")
	}
	return &Roles{
		owner:       owner,
		feeChangers: make(map[domain.Address]bool),
		operators:   make(map[domain.Address]bool),
	}, nil
}

// Owner returns the owning address.
func (r *Roles) Owner() domain.Address { return r.owner }

// SetFeeChanger grants or revokes the fee-changer role. Owner only.
func (r *Roles) SetFeeChanger(caller, addr domain.Address, enabled bool) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "fee changer address is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeChangers[addr] = enabled
	return nil
}

// SetOperator grants or revokes the platform-operator role. Owner only.
func (r *Roles) SetOperator(caller, addr domain.Address, enabled bool) error {
	if err := r.RequireOwner(caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "operator address is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[addr] = enabled
	return nil
}

// IsFeeChanger reports whether addr holds the fee-changer role.
func (r *Roles) IsFeeChanger(addr domain.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeChangers[addr]
}

// IsOperator reports whether addr holds the platform-operator role.
func (r *Roles) IsOperator(addr domain.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.operators[addr]
}

// RequireOwner fails with an authorization error unless caller is the owner.
func (r *Roles) RequireOwner(caller domain.Address) error {
	if caller != r.owner {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not the owner", caller)
	}
	return nil
}

// RequireFeeChanger fails unless caller holds the fee-changer role.
func (r *Roles) RequireFeeChanger(caller domain.Address) error {
	if !r.IsFeeChanger(caller) {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not a fee changer", caller)
	}
	return nil
}

// RequireOperator fails unless caller holds the platform-operator role.
func (r *Roles) RequireOperator(caller domain.Address) error {
	if !r.IsOperator(caller) {
		return domain.Errorf(domain.CodeUnauthorized, "caller %q is not a platform operator", caller)
	}
	return nil
}
