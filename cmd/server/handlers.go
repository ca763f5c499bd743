package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/apartchain/smartcontracts/internal/store"
	"github.com/apartchain/smartcontracts/pkg/access"
	"github.com/apartchain/smartcontracts/pkg/domain"
	"github.com/apartchain/smartcontracts/pkg/fee"
	"github.com/apartchain/smartcontracts/pkg/httpx"
	"github.com/apartchain/smartcontracts/pkg/ledger"
	"github.com/apartchain/smartcontracts/pkg/marketplace"
	"github.com/apartchain/smartcontracts/pkg/registry"

	"github.com/go-chi/chi/v5"
)

type app struct {
	log      *slog.Logger
	roles    *access.Roles
	fees     *fee.Schedule
	ledger   *ledger.Ledger
	assets   *registry.RealEstate
	verifier *registry.Verifier
	referral *registry.Referral
	mkt      *marketplace.Marketplace
	journal  *store.Store
	escrow   domain.Address
}

func actor(s string) (domain.Address, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.ZeroAddress, false
	}
	return domain.Address(s), true
}

func propertyID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "property_id"), 10, 64)
	return id, err == nil
}

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/marketplace/v1", func(api chi.Router) {
		api.Post("/properties", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Actor       string `json:"actor"`
				URI         string `json:"uri"`
				TokenHolder string `json:"token_holder"`
				Price       uint64 `json:"price"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			id, err := a.mkt.CreateProperty(r.Context(), caller, strings.TrimSpace(req.URI), domain.Address(strings.TrimSpace(req.TokenHolder)), req.Price)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			p, err := a.mkt.GetProperty(id)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 201, map[string]any{"request_id": httpx.NewRequestID(), "property": p})
		})

		api.Get("/properties", func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"properties": a.mkt.Properties(),
			})
		})

		api.Get("/properties/{property_id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			p, err := a.mkt.GetProperty(id)
			if err != nil {
				httpx.WriteError(w, 404, "NOT_FOUND", "property not found", nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "property": p})
		})

		api.Post("/properties/{property_id}:book", func(w http.ResponseWriter, r *http.Request) {
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			var req struct {
				Actor    string `json:"actor"`
				Referrer string `json:"referrer"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if err := a.mkt.BookProperty(r.Context(), caller, id, domain.Address(strings.TrimSpace(req.Referrer))); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			a.writeProperty(w, id)
		})

		api.Post("/properties/{property_id}:signDocs", func(w http.ResponseWriter, r *http.Request) {
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			var req struct {
				Actor  string `json:"actor"`
				Signed bool   `json:"signed"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if err := a.mkt.SignedAllDoc(r.Context(), caller, id, req.Signed); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			a.writeProperty(w, id)
		})

		api.Post("/properties/{property_id}:buy", func(w http.ResponseWriter, r *http.Request) {
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			var req struct {
				Actor string `json:"actor"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if err := a.mkt.BuyProperty(r.Context(), caller, id); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			a.writeProperty(w, id)
		})

		api.Post("/properties/{property_id}:fulfill", func(w http.ResponseWriter, r *http.Request) {
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			var req struct {
				Actor string `json:"actor"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if err := a.mkt.FulfillBuy(r.Context(), caller, id); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			a.writeProperty(w, id)
		})

		api.Get("/properties/{property_id}/events", func(w http.ResponseWriter, r *http.Request) {
			if a.journal == nil {
				httpx.WriteError(w, 404, "NOT_FOUND", "event journal is not configured", nil)
				return
			}
			id, ok := propertyID(r)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "property_id must be an integer", nil)
				return
			}
			events, err := a.journal.ListEvents(r.Context(), id)
			if err != nil {
				httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "events": events})
		})

		api.Get("/fees", func(w http.ResponseWriter, r *http.Request) {
			cfg := a.fees.Config()
			resp := map[string]any{
				"request_id":           httpx.NewRequestID(),
				"booking_fee_bps":      cfg.BookingFeeBps,
				"poa_fee":              cfg.PoaFee,
				"buyer_fee_numerator":  cfg.BuyerFeeNumerator,
				"seller_fee_numerator": cfg.SellerFeeNumerator,
			}
			if raw := strings.TrimSpace(r.URL.Query().Get("price")); raw != "" {
				price, err := strconv.ParseUint(raw, 10, 64)
				if err != nil {
					httpx.WriteError(w, 400, "BAD_REQUEST", "price must be an integer", nil)
					return
				}
				quote, err := quoteFees(a.fees, price)
				if err != nil {
					httpx.WriteDomainError(w, err)
					return
				}
				resp["quote"] = quote
			}
			httpx.WriteJSON(w, 200, resp)
		})

		api.Post("/fees", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Actor              string  `json:"actor"`
				BookingFeeBps      *uint64 `json:"booking_fee_bps"`
				PoaFee             *uint64 `json:"poa_fee"`
				BuyerFeeNumerator  *uint64 `json:"buyer_fee_numerator"`
				SellerFeeNumerator *uint64 `json:"seller_fee_numerator"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if req.BookingFeeBps != nil {
				if err := a.fees.SetBookingFeeBps(caller, *req.BookingFeeBps); err != nil {
					httpx.WriteDomainError(w, err)
					return
				}
			}
			if req.PoaFee != nil {
				if err := a.fees.SetPoaFee(caller, *req.PoaFee); err != nil {
					httpx.WriteDomainError(w, err)
					return
				}
			}
			if req.BuyerFeeNumerator != nil {
				if err := a.fees.SetBuyerFeeNumerator(caller, *req.BuyerFeeNumerator); err != nil {
					httpx.WriteDomainError(w, err)
					return
				}
			}
			if req.SellerFeeNumerator != nil {
				if err := a.fees.SetSellerFeeNumerator(caller, *req.SellerFeeNumerator); err != nil {
					httpx.WriteDomainError(w, err)
					return
				}
			}
			cfg := a.fees.Config()
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id":           httpx.NewRequestID(),
				"booking_fee_bps":      cfg.BookingFeeBps,
				"poa_fee":              cfg.PoaFee,
				"buyer_fee_numerator":  cfg.BuyerFeeNumerator,
				"seller_fee_numerator": cfg.SellerFeeNumerator,
			})
		})

		api.Post("/roles/fee-changers", a.handleRoleGrant(func(caller, addr domain.Address, enabled bool) error {
			return a.roles.SetFeeChanger(caller, addr, enabled)
		}))
		api.Post("/roles/operators", a.handleRoleGrant(func(caller, addr domain.Address, enabled bool) error {
			return a.roles.SetOperator(caller, addr, enabled)
		}))

		api.Post("/eligibility/verifiers", a.handleRoleGrant(func(caller, addr domain.Address, enabled bool) error {
			return a.verifier.SetVerifier(caller, addr, enabled)
		}))
		api.Post("/eligibility/buyers", a.handleRoleGrant(func(caller, addr domain.Address, enabled bool) error {
			return a.verifier.SetVerificationUser(caller, addr, enabled)
		}))
		api.Post("/eligibility/agencies", a.handleRoleGrant(func(caller, addr domain.Address, enabled bool) error {
			return a.verifier.SetVerificationAgency(caller, addr, enabled)
		}))
	})

	r.Route("/ledger/v1", func(api chi.Router) {
		api.Get("/accounts/{account}", func(w http.ResponseWriter, r *http.Request) {
			acct := domain.Address(chi.URLParam(r, "account"))
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"account":    acct,
				"balance":    a.ledger.BalanceOf(acct),
			})
		})

		// Grants the marketplace escrow account spending power over the
		// caller's funds, mirroring a token approval.
		api.Post("/allowances", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Actor  string `json:"actor"`
				Amount uint64 `json:"amount"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			caller, ok := actor(req.Actor)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
				return
			}
			if err := a.ledger.IncreaseAllowance(caller, a.escrow, req.Amount); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"owner":      caller,
				"spender":    a.escrow,
				"allowance":  a.ledger.Allowance(caller, a.escrow),
			})
		})

		// Development helper. Real deployments credit accounts out of band.
		api.Post("/dev/faucet", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Account string `json:"account"`
				Amount  uint64 `json:"amount"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			acct, ok := actor(req.Account)
			if !ok {
				httpx.WriteError(w, 400, "BAD_REQUEST", "account is required", nil)
				return
			}
			if err := a.ledger.Mint(acct, req.Amount); err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"account":    acct,
				"balance":    a.ledger.BalanceOf(acct),
			})
		})
	})

	return r
}

func (a *app) writeProperty(w http.ResponseWriter, id uint64) {
	p, err := a.mkt.GetProperty(id)
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "property": p})
}

// handleRoleGrant covers the uniform grant/revoke endpoints: every role and
// eligibility toggle takes the same {actor, address, enabled} body.
func (a *app) handleRoleGrant(set func(caller, addr domain.Address, enabled bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Actor   string `json:"actor"`
			Address string `json:"address"`
			Enabled bool   `json:"enabled"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		caller, ok := actor(req.Actor)
		if !ok {
			httpx.WriteError(w, 400, "BAD_REQUEST", "actor is required", nil)
			return
		}
		addr, ok := actor(req.Address)
		if !ok {
			httpx.WriteError(w, 400, "BAD_REQUEST", "address is required", nil)
			return
		}
		if err := set(caller, addr, req.Enabled); err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"address":    addr,
			"enabled":    req.Enabled,
		})
	}
}

func quoteFees(s *fee.Schedule, price uint64) (map[string]any, error) {
	booking, err := s.BookingFee(price)
	if err != nil {
		return nil, err
	}
	buyer, err := s.BuyerFee(price)
	if err != nil {
		return nil, err
	}
	seller, err := s.SellerFee(price)
	if err != nil {
		return nil, err
	}
	base, err := fee.PlatformFeeBase(price)
	if err != nil {
		return nil, err
	}
	commission, err := fee.AgencyCommission(price)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"price":             price,
		"platform_fee_base": base,
		"booking_fee":       booking,
		"buyer_fee":         buyer,
		"seller_fee":        seller,
		"agency_commission": commission,
	}, nil
}
