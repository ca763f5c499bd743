// Package marketplace owns the property sale lifecycle: an agency lists a
// property, an eligible buyer books it by paying a booking fee, the platform
// operator confirms the paperwork, the same buyer pays the remainder plus
// the buyer fee, and the operator fulfills the sale by splitting the
// escrowed funds among token holder, agency, and platform.
//
// Each operation applies as a single indivisible unit per property: it
// either fully succeeds or fails with a typed error and no state or fund
// movement. Operations on different properties proceed independently.
package marketplace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/access"
	"github.com/apartchain/smartcontracts/pkg/domain"
	"github.com/apartchain/smartcontracts/pkg/fee"
)

// Event types reported to the configured EventSink.
const (
	EventCreated    = "PROPERTY_CREATED"
	EventBooked     = "PROPERTY_BOOKED"
	EventDocsSigned = "DOCS_SIGNED"
	EventBought     = "PROPERTY_BOUGHT"
	EventFulfilled  = "PROPERTY_FULFILLED"
)

// Deps are the collaborators a Marketplace is wired with. Roles, Fees,
// Assets, Ledger, Eligibility, Referrals, Escrow, and Platform are required;
// Events and Logger are optional.
type Deps struct {
	Roles       *access.Roles
	Fees        *fee.Schedule
	Assets      AssetRegistry
	Ledger      ValueLedger
	Eligibility EligibilityRegistry
	Referrals   ReferralRegistry
	Events      EventSink
	Logger      *slog.Logger

	// Escrow is the marketplace's own account on the value ledger and the
	// asset registry; all custodied funds and titles sit there.
	Escrow domain.Address
	// Platform is the account that receives the retained platform fees at
	// fulfillment.
	Platform domain.Address
}

// Marketplace is the sale state machine. Property IDs are assigned
// sequentially starting at 1 and never reused.
type Marketplace struct {
	roles       *access.Roles
	fees        *fee.Schedule
	assets      AssetRegistry
	ledger      ValueLedger
	eligibility EligibilityRegistry
	referrals   ReferralRegistry
	events      EventSink
	log         *slog.Logger
	escrow      domain.Address
	platform    domain.Address

	mu     sync.RWMutex
	nextID uint64
	props  map[uint64]*propEntry
}

// propEntry pairs a property with its own lock so transitions on different
// properties never contend.
type propEntry struct {
	mu sync.Mutex
	p  Property
}

// New validates the wiring and returns an empty marketplace.
func New(deps Deps) (*Marketplace, error) {
	switch {
	case deps.Roles == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "role registry is required")
	case deps.Fees == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "fee schedule is required")
	case deps.Assets == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "asset registry is required")
	case deps.Ledger == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "value ledger is required")
	case deps.Eligibility == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "eligibility registry is required")
	case deps.Referrals == nil:
		return nil, domain.E(domain.CodeInvalidConfig, "referral registry is required")
	case deps.Escrow.IsZero():
		return nil, domain.E(domain.CodeInvalidConfig, "escrow account is required")
	case deps.Platform.IsZero():
		return nil, domain.E(domain.CodeInvalidConfig, "platform account is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Marketplace{
		roles:       deps.Roles,
		fees:        deps.Fees,
		assets:      deps.Assets,
		ledger:      deps.Ledger,
		eligibility: deps.Eligibility,
		referrals:   deps.Referrals,
		events:      deps.Events,
		log:         logger,
		escrow:      deps.Escrow,
		platform:    deps.Platform,
		props:       make(map[uint64]*propEntry),
	}, nil
}

// Escrow returns the marketplace's custody account address.
func (m *Marketplace) Escrow() domain.Address { return m.escrow }

// CreateProperty lists a new property. Caller must be an eligible agency and
// price must be positive. The title is minted into marketplace custody and
// the property starts in CREATED.
func (m *Marketplace) CreateProperty(ctx context.Context, caller domain.Address, uri string, tokenHolder domain.Address, price uint64) (uint64, error) {
	if price == 0 {
		return 0, domain.E(domain.CodeInvalidConfig, "price must be positive")
	}
	if tokenHolder.IsZero() {
		return 0, domain.E(domain.CodeInvalidConfig, "token holder is required")
	}
	if tokenHolder == m.escrow || tokenHolder == m.platform {
		return 0, domain.Errorf(domain.CodeInvalidConfig, "token holder %q may not be a platform custody account", tokenHolder)
	}
	if !m.eligibility.IsEligibleAgency(ctx, caller) {
		return 0, domain.Errorf(domain.CodeNotEligible, "%q is not a verified agency", caller)
	}

	m.mu.Lock()
	id := m.nextID + 1
	if err := m.assets.MintTo(ctx, m.escrow, id); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	m.nextID = id
	m.props[id] = &propEntry{p: Property{
		ID:          id,
		URI:         uri,
		PriceListed: price,
		TokenHolder: tokenHolder,
		Agency:      caller,
		State:       StateCreated,
	}}
	// Emit outside the registry lock; the sink may be a database write and
	// must not stall lookups of unrelated properties.
	m.mu.Unlock()

	m.emit(ctx, id, EventCreated, caller, map[string]any{
		"price":        price,
		"token_holder": string(tokenHolder),
	})
	return id, nil
}

// BookProperty reserves a CREATED property for the caller by charging the
// booking fee out of the caller's pre-authorized allowance. A non-zero
// referrer records attribution; attribution failure is logged and ignored.
func (m *Marketplace) BookProperty(ctx context.Context, caller domain.Address, id uint64, referrer domain.Address) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.p.State != StateCreated {
		return domain.Errorf(domain.CodeStateMismatch, "property %d is %s, not %s", id, e.p.State, StateCreated)
	}
	if !m.eligibility.IsEligibleBuyer(ctx, caller) {
		return domain.Errorf(domain.CodeNotEligible, "%q is not a verified buyer", caller)
	}

	bookingFee, err := m.fees.BookingFee(e.p.PriceListed)
	if err != nil {
		return err
	}
	held, err := fee.Add(e.p.EscrowHeld, bookingFee)
	if err != nil {
		return err
	}
	if err := m.ledger.TransferFrom(ctx, caller, m.escrow, bookingFee); err != nil {
		return err
	}

	e.p.Buyer = caller
	e.p.BookingFeePaid = bookingFee
	e.p.EscrowHeld = held
	e.p.State = StateBooked

	if !referrer.IsZero() {
		if err := m.referrals.RecordReferral(ctx, caller, referrer); err != nil {
			m.log.Warn("referral recording failed",
				"property_id", id, "buyer", caller, "referrer", referrer, "error", err)
		}
	}
	m.emit(ctx, id, EventBooked, caller, map[string]any{
		"booking_fee": bookingFee,
		"referrer":    string(referrer),
	})
	return nil
}

// SignedAllDoc records the operator's confirmation that all sale documents
// are signed, advancing a BOOKED property to DOCS_SIGNED. Platform operator
// only; signed must be true.
func (m *Marketplace) SignedAllDoc(ctx context.Context, caller domain.Address, id uint64, signed bool) error {
	if err := m.roles.RequireOperator(caller); err != nil {
		return err
	}
	if !signed {
		return domain.E(domain.CodeInvalidConfig, "documents must be confirmed signed to advance")
	}
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.p.State != StateBooked {
		return domain.Errorf(domain.CodeStateMismatch, "property %d is %s, not %s", id, e.p.State, StateBooked)
	}
	e.p.State = StateDocsSigned

	m.emit(ctx, id, EventDocsSigned, caller, nil)
	return nil
}

// BuyProperty completes the purchase of a DOCS_SIGNED property: only the
// recorded buyer may call, and is charged the remaining price plus the buyer
// fee.
func (m *Marketplace) BuyProperty(ctx context.Context, caller domain.Address, id uint64) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.p.State != StateDocsSigned {
		return domain.Errorf(domain.CodeStateMismatch, "property %d is %s, not %s", id, e.p.State, StateDocsSigned)
	}
	if caller != e.p.Buyer {
		return domain.Errorf(domain.CodeUnauthorized, "property %d is booked by %q, not %q", id, e.p.Buyer, caller)
	}

	buyerFee, err := m.fees.BuyerFee(e.p.PriceListed)
	if err != nil {
		return err
	}
	remainder, err := fee.Sub(e.p.PriceListed, e.p.BookingFeePaid)
	if err != nil {
		return err
	}
	due, err := fee.Add(remainder, buyerFee)
	if err != nil {
		return err
	}
	held, err := fee.Add(e.p.EscrowHeld, due)
	if err != nil {
		return err
	}
	if err := m.ledger.TransferFrom(ctx, caller, m.escrow, due); err != nil {
		return err
	}

	e.p.BuyerFeePaid = buyerFee
	e.p.EscrowHeld = held
	e.p.State = StateBought

	m.emit(ctx, id, EventBought, caller, map[string]any{
		"charged":   due,
		"buyer_fee": buyerFee,
	})
	return nil
}

// FulfillBuy settles a BOUGHT property: the token holder receives the price
// minus the seller fee and the fixed 2% agency commission, the agency
// receives the commission, and the platform account receives the buyer fee
// charged at purchase plus the seller fee. Afterwards the property's
// attributable escrow balance is exactly zero. Platform operator only.
func (m *Marketplace) FulfillBuy(ctx context.Context, caller domain.Address, id uint64) error {
	if err := m.roles.RequireOperator(caller); err != nil {
		return err
	}
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.p.State != StateBought {
		return domain.Errorf(domain.CodeStateMismatch, "property %d is %s, not %s", id, e.p.State, StateBought)
	}

	price := e.p.PriceListed
	sellerFee, err := m.fees.SellerFee(price)
	if err != nil {
		return err
	}
	commission, err := fee.AgencyCommission(price)
	if err != nil {
		return err
	}
	holderShare, err := fee.Sub(price, sellerFee)
	if err != nil {
		return err
	}
	holderShare, err = fee.Sub(holderShare, commission)
	if err != nil {
		return err
	}
	platformShare, err := fee.Add(e.p.BuyerFeePaid, sellerFee)
	if err != nil {
		return err
	}

	// The split must account for every unit held for this property before
	// anything moves.
	total, err := fee.Add(holderShare, commission)
	if err != nil {
		return err
	}
	total, err = fee.Add(total, platformShare)
	if err != nil {
		return err
	}
	if total != e.p.EscrowHeld {
		return domain.Errorf(domain.CodeInternal, "property %d settlement of %d does not match escrow of %d", id, total, e.p.EscrowHeld)
	}

	if err := m.ledger.TransferFrom(ctx, m.escrow, e.p.TokenHolder, holderShare); err != nil {
		return err
	}
	if err := m.ledger.TransferFrom(ctx, m.escrow, e.p.Agency, commission); err != nil {
		return domain.Errorf(domain.CodeInternal, "property %d agency payout failed after holder payout: %v", id, err)
	}
	if err := m.ledger.TransferFrom(ctx, m.escrow, m.platform, platformShare); err != nil {
		return domain.Errorf(domain.CodeInternal, "property %d platform payout failed after holder payout: %v", id, err)
	}

	e.p.EscrowHeld = 0
	e.p.State = StateFulfilled

	m.emit(ctx, id, EventFulfilled, caller, map[string]any{
		"token_holder_share": holderShare,
		"agency_commission":  commission,
		"platform_share":     platformShare,
	})
	return nil
}

// GetProperty returns a snapshot of one property.
func (m *Marketplace) GetProperty(id uint64) (Property, error) {
	e, err := m.entry(id)
	if err != nil {
		return Property{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p, nil
}

// Properties returns a snapshot of every property, ordered by ID.
func (m *Marketplace) Properties() []Property {
	m.mu.RLock()
	last := m.nextID
	m.mu.RUnlock()

	out := make([]Property, 0, last)
	for id := uint64(1); id <= last; id++ {
		p, err := m.GetProperty(id)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *Marketplace) entry(id uint64) (*propEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.props[id]
	if !ok {
		return nil, domain.Errorf(domain.CodeStateMismatch, "property %d does not exist", id)
	}
	return e, nil
}

func (m *Marketplace) emit(ctx context.Context, id uint64, eventType string, actor domain.Address, payload map[string]any) {
	if m.events == nil {
		return
	}
	if err := m.events.RecordEvent(ctx, id, eventType, actor, payload); err != nil {
		m.log.Warn("event journaling failed", "property_id", id, "event", eventType, "error", err)
	}
}
