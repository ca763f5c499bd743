// Package fee computes the marketplace's charges: the booking fee, the flat
// proof-of-address fee, and the buyer/seller platform fees derived from a
// tiered fee base. All arithmetic is integer, floor-dividing, and checked;
// anything that would wrap fails with an arithmetic-overflow error.
package fee

import (
	"math/bits"
	"sync"

	"github.com/apartchain/smartcontracts/pkg/access"
	"github.com/apartchain/smartcontracts/pkg/domain"
)

// BasisPoints is the denominator for percentage fees: 10000 = 100%.
const BasisPoints uint64 = 10_000

// maxTierScan bounds the fee-base scaling loop at the largest power of ten
// representable for currency magnitudes in use.
const maxTierScan = 18

// Config holds the four fee parameters.
type Config struct {
	// BookingFeeBps is applied to the raw listed price.
	BookingFeeBps uint64 `json:"booking_fee_bps"`
	// PoaFee is the flat proof-of-address fee, independent of price.
	PoaFee uint64 `json:"poa_fee"`
	// BuyerFeeNumerator and SellerFeeNumerator are applied to the tiered
	// platform fee base, not to the raw price.
	BuyerFeeNumerator  uint64 `json:"buyer_fee_numerator"`
	SellerFeeNumerator uint64 `json:"seller_fee_numerator"`
}

// Validate rejects out-of-range parameters.
func (c Config) Validate() error {
	if c.BookingFeeBps > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "booking fee %d exceeds %d basis points", c.BookingFeeBps, BasisPoints)
	}
	if c.BuyerFeeNumerator > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "buyer fee numerator %d exceeds %d basis points", c.BuyerFeeNumerator, BasisPoints)
	}
	if c.SellerFeeNumerator > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "seller fee numerator %d exceeds %d basis points", c.SellerFeeNumerator, BasisPoints)
	}
	return nil
}

// BookingFee computes floor(price * bps / BasisPoints). Zero price yields
// zero.
func BookingFee(price, bps uint64) (uint64, error) {
	if price == 0 {
		return 0, nil
	}
	return mulDiv(price, bps, BasisPoints)
}

// PlatformFeeBase rounds price up to the next leading-digit boundary: the
// largest power of ten factor with price > factor*10 is found by bounded
// scaling, then the base is (price/factor + 1) * factor. The base changes
// only at order-of-magnitude boundaries, so buyer and seller fees cannot be
// gamed by micro-adjusting the price. Zero price yields zero.
func PlatformFeeBase(price uint64) (uint64, error) {
	if price == 0 {
		return 0, nil
	}
	factor := uint64(1)
	for i := 0; i < maxTierScan && price > factor*10; i++ {
		factor *= 10
	}
	hi, base := bits.Mul64(price/factor+1, factor)
	if hi != 0 {
		return 0, domain.Errorf(domain.CodeOverflow, "platform fee base overflows for price %d", price)
	}
	return base, nil
}

// BuyerFee computes floor(PlatformFeeBase(price) * numerator / BasisPoints).
func BuyerFee(price, numerator uint64) (uint64, error) {
	base, err := PlatformFeeBase(price)
	if err != nil {
		return 0, err
	}
	return mulDiv(base, numerator, BasisPoints)
}

// SellerFee computes floor(PlatformFeeBase(price) * numerator / BasisPoints).
func SellerFee(price, numerator uint64) (uint64, error) {
	base, err := PlatformFeeBase(price)
	if err != nil {
		return 0, err
	}
	return mulDiv(base, numerator, BasisPoints)
}

// AgencyCommission is the fixed 2% of the raw listed price paid to the
// listing agency at fulfillment. Unlike the buyer and seller fees it is
// never derived from the tiered fee base.
func AgencyCommission(price uint64) (uint64, error) {
	return mulDiv(price, 2, 100)
}

// Add returns a+b, failing instead of wrapping.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domain.Errorf(domain.CodeOverflow, "%d + %d overflows uint64", a, b)
	}
	return sum, nil
}

// Sub returns a-b, failing instead of wrapping when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, domain.Errorf(domain.CodeOverflow, "%d - %d underflows", a, b)
	}
	return a - b, nil
}

// mulDiv computes floor(a*b/den) over the full 128-bit intermediate product.
func mulDiv(a, b, den uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, domain.Errorf(domain.CodeOverflow, "%d * %d / %d overflows uint64", a, b, den)
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// Schedule is the mutable fee configuration. Reads are lock-shared; writes
// require the fee-changer role on the injected role registry.
type Schedule struct {
	mu    sync.RWMutex
	cfg   Config
	roles *access.Roles
}

// NewSchedule validates the initial configuration and binds the schedule to
// a role registry.
func NewSchedule(cfg Config, roles *access.Roles) (*Schedule, error) {
	if roles == nil {
		return nil, domain.E(domain.CodeInvalidConfig, "role registry is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{cfg: cfg, roles: roles}, nil
}

// Config returns a snapshot of the current parameters.
func (s *Schedule) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// BookingFee quotes the booking fee for a price under the current config.
func (s *Schedule) BookingFee(price uint64) (uint64, error) {
	s.mu.RLock()
	bps := s.cfg.BookingFeeBps
	s.mu.RUnlock()
	return BookingFee(price, bps)
}

// PoaFee returns the flat proof-of-address fee.
func (s *Schedule) PoaFee() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.PoaFee
}

// BuyerFee quotes the buyer fee for a price under the current config.
func (s *Schedule) BuyerFee(price uint64) (uint64, error) {
	s.mu.RLock()
	num := s.cfg.BuyerFeeNumerator
	s.mu.RUnlock()
	return BuyerFee(price, num)
}

// SellerFee quotes the seller fee for a price under the current config.
func (s *Schedule) SellerFee(price uint64) (uint64, error) {
	s.mu.RLock()
	num := s.cfg.SellerFeeNumerator
	s.mu.RUnlock()
	return SellerFee(price, num)
}

// SetBookingFeeBps updates the booking fee rate. Fee-changer only.
func (s *Schedule) SetBookingFeeBps(caller domain.Address, bps uint64) error {
	if err := s.roles.RequireFeeChanger(caller); err != nil {
		return err
	}
	if bps > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "booking fee %d exceeds %d basis points", bps, BasisPoints)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.BookingFeeBps = bps
	return nil
}

// SetPoaFee updates the flat proof-of-address fee. Fee-changer only.
func (s *Schedule) SetPoaFee(caller domain.Address, amount uint64) error {
	if err := s.roles.RequireFeeChanger(caller); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.PoaFee = amount
	return nil
}

// SetBuyerFeeNumerator updates the buyer fee rate. Fee-changer only.
func (s *Schedule) SetBuyerFeeNumerator(caller domain.Address, numerator uint64) error {
	if err := s.roles.RequireFeeChanger(caller); err != nil {
		return err
	}
	if numerator > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "buyer fee numerator %d exceeds %d basis points", numerator, BasisPoints)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.BuyerFeeNumerator = numerator
	return nil
}

// SetSellerFeeNumerator updates the seller fee rate. Fee-changer only.
func (s *Schedule) SetSellerFeeNumerator(caller domain.Address, numerator uint64) error {
	if err := s.roles.RequireFeeChanger(caller); err != nil {
		return err
	}
	if numerator > BasisPoints {
		return domain.Errorf(domain.CodeInvalidConfig, "seller fee numerator %d exceeds %d basis points", numerator, BasisPoints)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SellerFeeNumerator = numerator
	return nil
}
