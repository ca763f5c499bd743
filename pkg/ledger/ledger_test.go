package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

const (
	buyer  = domain.Address("acct_buyer")
	escrow = domain.Address("acct_marketplace")
	holder = domain.Address("acct_holder")
)

func TestAllowanceSpend(t *testing.T) {
	l := New()
	if err := l.Mint(buyer, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.IncreaseAllowance(buyer, escrow, 400); err != nil {
		t.Fatalf("allowance: %v", err)
	}

	if err := l.TransferFrom(escrow, buyer, escrow, 300); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.BalanceOf(buyer); got != 700 {
		t.Fatalf("buyer balance = %d, want 700", got)
	}
	if got := l.BalanceOf(escrow); got != 300 {
		t.Fatalf("escrow balance = %d, want 300", got)
	}
	if got := l.Allowance(buyer, escrow); got != 100 {
		t.Fatalf("remaining allowance = %d, want 100", got)
	}

	// Remaining allowance no longer covers another 300.
	err := l.TransferFrom(escrow, buyer, escrow, 300)
	if !domain.IsCode(err, domain.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if got := l.BalanceOf(buyer); got != 700 {
		t.Fatalf("failed transfer moved funds, balance = %d", got)
	}
}

func TestTransferWithoutAllowanceFails(t *testing.T) {
	l := New()
	_ = l.Mint(buyer, 1_000)
	err := l.TransferFrom(escrow, buyer, escrow, 1)
	if !domain.IsCode(err, domain.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
}

func TestOwnFundsNeedNoAllowance(t *testing.T) {
	l := New()
	_ = l.Mint(escrow, 500)
	if err := l.TransferFrom(escrow, escrow, holder, 500); err != nil {
		t.Fatalf("self-spend: %v", err)
	}
	if got := l.BalanceOf(holder); got != 500 {
		t.Fatalf("holder balance = %d, want 500", got)
	}
	if got := l.BalanceOf(escrow); got != 0 {
		t.Fatalf("escrow balance = %d, want 0", got)
	}
}

func TestSelfTransferConservesBalance(t *testing.T) {
	ctx := context.Background()
	l := New()
	_ = l.Mint(escrow, 1000)

	b := l.Bind(escrow)
	if err := b.TransferFrom(ctx, escrow, escrow, 400); err != nil {
		t.Fatalf("self-transfer: %v", err)
	}
	if got := l.BalanceOf(escrow); got != 1000 {
		t.Fatalf("escrow balance = %d, want 1000", got)
	}

	// Spending another account's funds back to itself also nets to zero.
	_ = l.Mint(buyer, 300)
	_ = l.IncreaseAllowance(buyer, escrow, 300)
	if err := l.TransferFrom(escrow, buyer, buyer, 200); err != nil {
		t.Fatalf("payer-is-payee transfer: %v", err)
	}
	if got := l.BalanceOf(buyer); got != 300 {
		t.Fatalf("buyer balance = %d, want 300", got)
	}
	if got := l.Allowance(buyer, escrow); got != 100 {
		t.Fatalf("allowance = %d, want 100", got)
	}
}

func TestInsufficientBalance(t *testing.T) {
	l := New()
	_ = l.Mint(buyer, 10)
	_ = l.IncreaseAllowance(buyer, escrow, 100)
	err := l.TransferFrom(escrow, buyer, escrow, 50)
	if !domain.IsCode(err, domain.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if got := l.Allowance(buyer, escrow); got != 100 {
		t.Fatalf("failed transfer consumed allowance: %d", got)
	}
}

func TestMintOverflowRejected(t *testing.T) {
	l := New()
	_ = l.Mint(buyer, math.MaxUint64)
	if err := l.Mint(buyer, 1); !domain.IsCode(err, domain.CodeOverflow) {
		t.Fatalf("expected ARITHMETIC_OVERFLOW, got %v", err)
	}
}

func TestBoundView(t *testing.T) {
	ctx := context.Background()
	l := New()
	_ = l.Mint(buyer, 100)
	_ = l.IncreaseAllowance(buyer, escrow, 100)

	b := l.Bind(escrow)
	if err := b.TransferFrom(ctx, buyer, escrow, 60); err != nil {
		t.Fatalf("bound transfer: %v", err)
	}
	if got := b.BalanceOf(ctx, escrow); got != 60 {
		t.Fatalf("escrow balance = %d, want 60", got)
	}
	// The bound spender identity is what consumes allowance.
	if got := l.Allowance(buyer, escrow); got != 40 {
		t.Fatalf("allowance = %d, want 40", got)
	}
}
