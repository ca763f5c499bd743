// Package ledger is an in-memory stable-value ledger with pre-authorization
// (allowance) semantics. The marketplace charges buyers by spending the
// allowance they granted to its escrow account, and disburses proceeds from
// that account at fulfillment. Every movement either fully applies or fails
// with a typed error and no balance change.
package ledger

import (
	"context"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/domain"
	"github.com/apartchain/smartcontracts/pkg/fee"
)

// Ledger tracks balances and owner->spender allowances.
type Ledger struct {
	mu         sync.Mutex
	balances   map[domain.Address]uint64
	allowances map[domain.Address]map[domain.Address]uint64
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:   make(map[domain.Address]uint64),
		allowances: make(map[domain.Address]map[domain.Address]uint64),
	}
}

// Mint credits freshly issued units to an account.
func (l *Ledger) Mint(to domain.Address, amount uint64) error {
	if to.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "mint recipient is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	next, err := fee.Add(l.balances[to], amount)
	if err != nil {
		return err
	}
	l.balances[to] = next
	return nil
}

// BalanceOf returns the balance of an account.
func (l *Ledger) BalanceOf(account domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// IncreaseAllowance raises the amount spender may move out of owner's
// balance.
func (l *Ledger) IncreaseAllowance(owner, spender domain.Address, amount uint64) error {
	if owner.IsZero() || spender.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "owner and spender are required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	grants := l.allowances[owner]
	if grants == nil {
		grants = make(map[domain.Address]uint64)
		l.allowances[owner] = grants
	}
	next, err := fee.Add(grants[spender], amount)
	if err != nil {
		return err
	}
	grants[spender] = next
	return nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (l *Ledger) Allowance(owner, spender domain.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// TransferFrom moves amount from one account to another on behalf of
// spender. Spending another account's balance consumes allowance; an account
// moving its own funds needs none. The transfer is atomic: on any failure no
// balance or allowance changes.
func (l *Ledger) TransferFrom(spender, from, to domain.Address, amount uint64) error {
	if from.IsZero() || to.IsZero() {
		return domain.E(domain.CodeInvalidConfig, "transfer endpoints are required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if spender != from {
		granted := l.allowances[from][spender]
		if granted < amount {
			return domain.Errorf(domain.CodeInsufficientFunds, "allowance %d below transfer of %d", granted, amount)
		}
	}
	if l.balances[from] < amount {
		return domain.Errorf(domain.CodeInsufficientFunds, "balance %d below transfer of %d", l.balances[from], amount)
	}
	// Credit is computed against the payee's balance as it stands after the
	// debit, so a self-transfer nets to zero instead of minting.
	debited := l.balances[from] - amount
	toBalance := l.balances[to]
	if from == to {
		toBalance = debited
	}
	credited, err := fee.Add(toBalance, amount)
	if err != nil {
		return err
	}

	if spender != from {
		l.allowances[from][spender] -= amount
	}
	l.balances[from] = debited
	l.balances[to] = credited
	return nil
}

// Bound is a ledger view with the spender fixed, satisfying the
// marketplace's value-ledger boundary.
type Bound struct {
	l       *Ledger
	spender domain.Address
}

// Bind fixes the spender for subsequent transfers.
func (l *Ledger) Bind(spender domain.Address) *Bound {
	return &Bound{l: l, spender: spender}
}

// TransferFrom moves amount from payer to payee on behalf of the bound
// spender.
func (b *Bound) TransferFrom(ctx context.Context, payer, payee domain.Address, amount uint64) error {
	return b.l.TransferFrom(b.spender, payer, payee, amount)
}

// BalanceOf returns the balance of an account.
func (b *Bound) BalanceOf(ctx context.Context, account domain.Address) uint64 {
	return b.l.BalanceOf(account)
}
