package marketplace

import "github.com/apartchain/smartcontracts/pkg/domain"

// State is a property's position in the sale lifecycle. Transitions only
// move forward: CREATED → BOOKED → DOCS_SIGNED → BOUGHT → FULFILLED.
type State string

const (
	StateCreated    State = "CREATED"
	StateBooked     State = "BOOKED"
	StateDocsSigned State = "DOCS_SIGNED"
	StateBought     State = "BOUGHT"
	StateFulfilled  State = "FULFILLED"
)

// Property is one listing. PriceListed is immutable after creation; the fee
// amounts are captured when charged so that settlement uses the figures the
// buyer actually paid, not a recomputation under whatever configuration is
// live at fulfillment.
type Property struct {
	ID          uint64         `json:"id"`
	URI         string         `json:"uri"`
	PriceListed uint64         `json:"price_listed"`
	TokenHolder domain.Address `json:"token_holder"`
	Agency      domain.Address `json:"agency"`
	Buyer       domain.Address `json:"buyer,omitempty"`
	State       State          `json:"state"`

	// BookingFeePaid and BuyerFeePaid are the amounts actually charged at
	// booking and purchase time.
	BookingFeePaid uint64 `json:"booking_fee_paid"`
	BuyerFeePaid   uint64 `json:"buyer_fee_paid"`

	// EscrowHeld is the custody balance attributable to this property:
	// everything collected for it minus everything disbursed. It is exactly
	// zero once the property is FULFILLED.
	EscrowHeld uint64 `json:"escrow_held"`
}
