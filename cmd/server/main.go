// Command server runs the property marketplace as a JSON HTTP service. The
// sale state machine and its collaborators live in pkg/; this binary only
// wires them together and exposes them on the network.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/apartchain/smartcontracts/internal/config"
	"github.com/apartchain/smartcontracts/internal/store"
	"github.com/apartchain/smartcontracts/pkg/access"
	"github.com/apartchain/smartcontracts/pkg/db"
	"github.com/apartchain/smartcontracts/pkg/domain"
	"github.com/apartchain/smartcontracts/pkg/fee"
	"github.com/apartchain/smartcontracts/pkg/ledger"
	"github.com/apartchain/smartcontracts/pkg/marketplace"
	"github.com/apartchain/smartcontracts/pkg/registry"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	a, err := buildApp(context.Background(), cfg, log)
	if err != nil {
		log.Error("wire marketplace", "error", err)
		os.Exit(1)
	}

	log.Info("marketplace listening", "port", cfg.Port, "journal", a.journal != nil)
	if err := http.ListenAndServe(":"+cfg.Port, newRouter(a)); err != nil {
		log.Error("serve", "error", err)
		os.Exit(1)
	}
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	owner := domain.Address(cfg.OwnerAddress)
	escrow := domain.Address(cfg.EscrowAddress)
	platform := domain.Address(cfg.PlatformAddress)

	roles, err := access.New(owner)
	if err != nil {
		return nil, err
	}
	fees, err := fee.NewSchedule(fee.Config{
		BookingFeeBps:      cfg.BookingFeeBps,
		PoaFee:             cfg.PoaFee,
		BuyerFeeNumerator:  cfg.BuyerFeeNumerator,
		SellerFeeNumerator: cfg.SellerFeeNumerator,
	}, roles)
	if err != nil {
		return nil, err
	}

	l := ledger.New()
	assets := registry.NewRealEstate(owner)
	if err := assets.SetMarketplace(owner, escrow); err != nil {
		return nil, err
	}
	verifier := registry.NewVerifier(owner)
	referral := registry.NewReferral(owner)
	if err := referral.SetService(owner, escrow, true); err != nil {
		return nil, err
	}

	var journal *store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		journal = store.New(pool)
		if err := journal.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	var events marketplace.EventSink
	if journal != nil {
		events = journal
	}
	mkt, err := marketplace.New(marketplace.Deps{
		Roles:       roles,
		Fees:        fees,
		Assets:      assets.Bind(escrow),
		Ledger:      l.Bind(escrow),
		Eligibility: verifier,
		Referrals:   referral.Bind(escrow),
		Events:      events,
		Logger:      log,
		Escrow:      escrow,
		Platform:    platform,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		log:      log,
		roles:    roles,
		fees:     fees,
		ledger:   l,
		assets:   assets,
		verifier: verifier,
		referral: referral,
		mkt:      mkt,
		journal:  journal,
		escrow:   escrow,
	}, nil
}
