package registry

import (
	"context"
	"testing"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

const (
	owner       = domain.Address("acct_owner")
	marketplace = domain.Address("acct_marketplace")
	verifier    = domain.Address("acct_multisig")
	agency      = domain.Address("acct_agency")
	buyer       = domain.Address("acct_buyer")
	referrer    = domain.Address("acct_referrer")
	stranger    = domain.Address("acct_stranger")
)

func TestRealEstateMintGating(t *testing.T) {
	r := NewRealEstate(owner)

	// Mint before the marketplace link is set must fail.
	if err := r.MintTo(marketplace, marketplace, 1); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED before link, got %v", err)
	}

	if err := r.SetMarketplace(stranger, marketplace); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("non-owner link should fail, got %v", err)
	}
	if err := r.SetMarketplace(owner, marketplace); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := r.SetMarketplace(owner, stranger); !domain.IsCode(err, domain.CodeInvalidConfig) {
		t.Fatalf("link must be immutable, got %v", err)
	}

	if err := r.MintTo(marketplace, marketplace, 1); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := r.BalanceOf(marketplace, 1); got != 1 {
		t.Fatalf("marketplace custody = %d, want 1", got)
	}
	if got := r.BalanceOf(agency, 1); got != 0 {
		t.Fatalf("agency custody = %d, want 0", got)
	}

	if err := r.MintTo(marketplace, marketplace, 1); !domain.IsCode(err, domain.CodeInvalidConfig) {
		t.Fatalf("double mint should fail, got %v", err)
	}
	if err := r.MintTo(stranger, stranger, 2); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("unlinked caller mint should fail, got %v", err)
	}
}

func TestVerifierRoles(t *testing.T) {
	ctx := context.Background()
	v := NewVerifier(owner)

	if err := v.SetVerifier(stranger, verifier, true); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("non-owner verifier grant should fail, got %v", err)
	}
	if err := v.SetVerifier(owner, verifier, true); err != nil {
		t.Fatalf("set verifier: %v", err)
	}

	if err := v.SetVerificationUser(stranger, buyer, true); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("non-verifier flag should fail, got %v", err)
	}
	if err := v.SetVerificationUser(verifier, buyer, true); err != nil {
		t.Fatalf("verify buyer: %v", err)
	}
	if err := v.SetVerificationAgency(verifier, agency, true); err != nil {
		t.Fatalf("verify agency: %v", err)
	}

	if !v.IsEligibleBuyer(ctx, buyer) {
		t.Fatalf("buyer should be eligible")
	}
	if v.IsEligibleBuyer(ctx, agency) {
		t.Fatalf("agency eligibility must not spill into buyer eligibility")
	}
	if !v.IsEligibleAgency(ctx, agency) {
		t.Fatalf("agency should be eligible")
	}

	if err := v.SetVerificationUser(verifier, buyer, false); err != nil {
		t.Fatalf("revoke buyer: %v", err)
	}
	if v.IsEligibleBuyer(ctx, buyer) {
		t.Fatalf("revoked buyer still eligible")
	}
}

func TestReferralRecording(t *testing.T) {
	ctx := context.Background()
	r := NewReferral(owner)
	if err := r.SetService(owner, marketplace, true); err != nil {
		t.Fatalf("set service: %v", err)
	}

	b := r.Bind(marketplace)
	if err := b.RecordReferral(ctx, buyer, referrer); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got, ok := r.ReferrerOf(buyer); !ok || got != referrer {
		t.Fatalf("referrer = %q, %v", got, ok)
	}

	// First attribution wins.
	if err := b.RecordReferral(ctx, buyer, stranger); !domain.IsCode(err, domain.CodeInvalidConfig) {
		t.Fatalf("re-attribution should fail, got %v", err)
	}
	if got, _ := r.ReferrerOf(buyer); got != referrer {
		t.Fatalf("attribution overwritten to %q", got)
	}

	if err := b.RecordReferral(ctx, stranger, stranger); !domain.IsCode(err, domain.CodeInvalidConfig) {
		t.Fatalf("self-referral should fail, got %v", err)
	}
	if err := r.RecordReferral(stranger, buyer, referrer); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("non-service recording should fail, got %v", err)
	}
}
