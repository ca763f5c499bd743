package marketplace

import (
	"context"

	"github.com/apartchain/smartcontracts/pkg/domain"
)

// AssetRegistry records custody of unique property titles. The marketplace
// mints each new title to its own escrow account and never burns.
type AssetRegistry interface {
	MintTo(ctx context.Context, owner domain.Address, propertyID uint64) error
	BalanceOf(ctx context.Context, owner domain.Address, propertyID uint64) uint64
}

// ValueLedger moves the stable-value currency. A transfer either fully
// succeeds or returns an error; the marketplace treats any error as a hard
// abort of the enclosing transition.
type ValueLedger interface {
	TransferFrom(ctx context.Context, payer, payee domain.Address, amount uint64) error
	BalanceOf(ctx context.Context, account domain.Address) uint64
}

// EligibilityRegistry answers whether a principal may act as buyer or
// agency.
type EligibilityRegistry interface {
	IsEligibleBuyer(ctx context.Context, addr domain.Address) bool
	IsEligibleAgency(ctx context.Context, addr domain.Address) bool
}

// ReferralRegistry records buyer attribution. Recording is fire-and-forget
// bookkeeping; its failure never blocks a booking.
type ReferralRegistry interface {
	RecordReferral(ctx context.Context, buyer, referrer domain.Address) error
}

// EventSink receives a record of each applied transition. Like referral
// recording it is bookkeeping: a sink failure is logged, never propagated.
type EventSink interface {
	RecordEvent(ctx context.Context, propertyID uint64, eventType string, actor domain.Address, payload map[string]any) error
}
