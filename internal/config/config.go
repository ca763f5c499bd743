// Package config loads the service configuration from environment
// variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the marketplace service configuration. The account defaults are
// development placeholders; deployments set real addresses.
type Config struct {
	Port        string `env:"SERVICE_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	OwnerAddress    string `env:"OWNER_ADDRESS" envDefault:"acct_owner"`
	PlatformAddress string `env:"PLATFORM_ADDRESS" envDefault:"acct_platform"`
	EscrowAddress   string `env:"MARKETPLACE_ADDRESS" envDefault:"acct_marketplace"`

	BookingFeeBps      uint64 `env:"BOOKING_FEE_BPS" envDefault:"1000"`
	PoaFee             uint64 `env:"POA_FEE" envDefault:"0"`
	BuyerFeeNumerator  uint64 `env:"BUYER_FEE_NUMERATOR" envDefault:"200"`
	SellerFeeNumerator uint64 `env:"SELLER_FEE_NUMERATOR" envDefault:"200"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
