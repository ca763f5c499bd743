package fee

import (
	"math"
	"testing"

	"github.com/apartchain/smartcontracts/pkg/access"
	"github.com/apartchain/smartcontracts/pkg/domain"
)

const oneDollar = uint64(1_000_000)

func testSchedule(t *testing.T, cfg Config) (*Schedule, *access.Roles) {
	t.Helper()
	roles, err := access.New("acct_owner")
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	s, err := NewSchedule(cfg, roles)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return s, roles
}

func TestBookingFee(t *testing.T) {
	cases := []struct {
		name  string
		price uint64
		bps   uint64
		want  uint64
	}{
		{"zero price", 0, 1000, 0},
		{"zero rate", 500_000 * oneDollar, 0, 0},
		{"ten percent of 500k", 500_000 * oneDollar, 1000, 50_000 * oneDollar},
		{"floor division", 999, 1000, 99},
		{"one unit below rate granularity", 9, 1000, 0},
		{"full rate", 12_345, 10_000, 12_345},
	}
	for _, tc := range cases {
		got, err := BookingFee(tc.price, tc.bps)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: BookingFee(%d, %d) = %d, want %d", tc.name, tc.price, tc.bps, got, tc.want)
		}
	}
}

func TestPlatformFeeBaseTiers(t *testing.T) {
	cases := []struct {
		price uint64
		want  uint64
	}{
		{0, 0},
		{1, 2},
		{9, 10},
		{10, 11},
		{11, 20},
		{99, 100},
		{100, 110},
		{101, 200},
		{109, 200},
		{110, 200},
		{999, 1_000},
		{1_000, 1_100},
		{123_456, 200_000},
		{500_000 * oneDollar, 600_000_000_000},
		{999_999_999_999_999_999, 1_000_000_000_000_000_000},
	}
	for _, tc := range cases {
		got, err := PlatformFeeBase(tc.price)
		if err != nil {
			t.Fatalf("PlatformFeeBase(%d): unexpected error %v", tc.price, err)
		}
		if got != tc.want {
			t.Fatalf("PlatformFeeBase(%d) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestPlatformFeeBaseDominatesPrice(t *testing.T) {
	// The base is a conservative quantization: never below the price itself,
	// for every magnitude tier the bounded scan supports.
	price := uint64(1)
	for i := 0; i < 18; i++ {
		for _, p := range []uint64{price, price + 1, price*10 - 1} {
			base, err := PlatformFeeBase(p)
			if err != nil {
				t.Fatalf("PlatformFeeBase(%d): %v", p, err)
			}
			if base < p {
				t.Fatalf("PlatformFeeBase(%d) = %d is below the price", p, base)
			}
		}
		price *= 10
	}
}

func TestPlatformFeeBaseOverflow(t *testing.T) {
	_, err := PlatformFeeBase(math.MaxUint64)
	if !domain.IsCode(err, domain.CodeOverflow) {
		t.Fatalf("expected ARITHMETIC_OVERFLOW, got %v", err)
	}
}

func TestBuyerAndSellerFeeUseTieredBase(t *testing.T) {
	price := 500_000 * oneDollar // base rounds up to 600,000 * 10^6
	buyer, err := BuyerFee(price, 200)
	if err != nil {
		t.Fatalf("buyer fee: %v", err)
	}
	if want := uint64(12_000 * oneDollar); buyer != want {
		t.Fatalf("BuyerFee = %d, want %d", buyer, want)
	}
	seller, err := SellerFee(price, 200)
	if err != nil {
		t.Fatalf("seller fee: %v", err)
	}
	if seller != buyer {
		t.Fatalf("equal numerators must quote equal fees: %d vs %d", seller, buyer)
	}
	// Raw price at 2% would be 10,000 * 10^6; the tiered base must differ.
	if buyer == price*200/BasisPoints {
		t.Fatalf("buyer fee must derive from the tiered base, not raw price")
	}
}

func TestAgencyCommissionIsRawPricePercent(t *testing.T) {
	got, err := AgencyCommission(500_000 * oneDollar)
	if err != nil {
		t.Fatalf("commission: %v", err)
	}
	if want := uint64(10_000 * oneDollar); got != want {
		t.Fatalf("AgencyCommission = %d, want %d", got, want)
	}
	if got, _ := AgencyCommission(0); got != 0 {
		t.Fatalf("AgencyCommission(0) = %d, want 0", got)
	}
	// 2% of 149 floors to 2, not 2.98.
	if got, _ := AgencyCommission(149); got != 2 {
		t.Fatalf("AgencyCommission(149) = %d, want 2", got)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := Add(math.MaxUint64, 1); !domain.IsCode(err, domain.CodeOverflow) {
		t.Fatalf("Add must reject overflow, got %v", err)
	}
	if _, err := Sub(1, 2); !domain.IsCode(err, domain.CodeOverflow) {
		t.Fatalf("Sub must reject underflow, got %v", err)
	}
	sum, err := Add(40, 2)
	if err != nil || sum != 42 {
		t.Fatalf("Add(40,2) = %d, %v", sum, err)
	}
	diff, err := Sub(44, 2)
	if err != nil || diff != 42 {
		t.Fatalf("Sub(44,2) = %d, %v", diff, err)
	}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{BookingFeeBps: 10_001},
		{BuyerFeeNumerator: 20_000},
		{SellerFeeNumerator: 10_001},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); !domain.IsCode(err, domain.CodeInvalidConfig) {
			t.Fatalf("config %+v should be rejected, got %v", cfg, err)
		}
	}
	good := Config{BookingFeeBps: 1000, PoaFee: 2_000 * oneDollar, BuyerFeeNumerator: 200, SellerFeeNumerator: 200}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestScheduleGetterIdempotence(t *testing.T) {
	s, _ := testSchedule(t, Config{BookingFeeBps: 1000, PoaFee: 0, BuyerFeeNumerator: 500, SellerFeeNumerator: 500})
	price := 500_000 * oneDollar
	first, err := s.BookingFee(price)
	if err != nil {
		t.Fatalf("booking fee: %v", err)
	}
	second, err := s.BookingFee(price)
	if err != nil {
		t.Fatalf("booking fee: %v", err)
	}
	if first != second {
		t.Fatalf("getter not idempotent: %d then %d", first, second)
	}
	if s.PoaFee() != s.PoaFee() {
		t.Fatalf("poa fee getter not idempotent")
	}
}

func TestScheduleSettersRequireFeeChanger(t *testing.T) {
	s, roles := testSchedule(t, Config{BookingFeeBps: 1000})

	if err := s.SetPoaFee("acct_stranger", 100_000); !domain.IsCode(err, domain.CodeUnauthorized) {
		t.Fatalf("stranger mutation should fail, got %v", err)
	}

	if err := roles.SetFeeChanger("acct_owner", "acct_changer", true); err != nil {
		t.Fatalf("grant fee changer: %v", err)
	}
	if err := s.SetPoaFee("acct_changer", 100_000); err != nil {
		t.Fatalf("fee changer mutation failed: %v", err)
	}
	if got := s.PoaFee(); got != 100_000 {
		t.Fatalf("poa fee = %d, want 100000", got)
	}

	if err := s.SetBookingFeeBps("acct_changer", 10_001); !domain.IsCode(err, domain.CodeInvalidConfig) {
		t.Fatalf("out-of-range bps should fail, got %v", err)
	}
	if got := s.Config().BookingFeeBps; got != 1000 {
		t.Fatalf("failed update must not apply, bps = %d", got)
	}
}
