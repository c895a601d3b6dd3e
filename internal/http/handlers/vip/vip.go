// Package vip contains the HTTP handler for the VIP allowlist check.
//
// HANDLER PATTERN
// ───────────────
// CheckVIP is a factory: it receives the registry once at startup and
// returns the handler the router calls on every request.
//
//	r.With(middleware.RequireAuth(verifier, logger)).
//	    Post("/api/check-vip", vip.CheckVIP(reg, m, logger))
package vip

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/registry"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

const (
	msgFieldsRequired  = "All fields (name, rollNumber, walletAddress) are required."
	msgNotAuthorized   = "Not authorized to access VIP features."
	msgUnavailable     = "VIP list is temporarily unavailable. Please try again later."
	msgVerifyingFailed = "Error verifying VIP status"
)

// Registry answers allowlist lookups. *registry.Registry implements it.
type Registry interface {
	Lookup(name, rollNumber, walletAddress string) (string, error)
}

// Observer records the status code of every check.
type Observer interface {
	ObserveCheckVIP(status int)
}

var validate = validator.New()

// CheckVIP handles POST /api/check-vip.
//
// Request body (JSON):
//
//	{ "name": "Ada", "rollNumber": "001", "walletAddress": "0xAAA" }
//
// Responses:
//
//	200 { "isVIP": true, "walletAddress": "0xAAA" }   on the list
//	200 { "isVIP": false, "message": "..." }          not on the list
//	400 { "isVIP": false, "message": "..." }          missing field or bad JSON
//	503 { "isVIP": false, "message": "..." }          list could not be read
//	500 { "isVIP": false, "message": "..." }          anything else
func CheckVIP(reg Registry, obs Observer, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))
		if id := auth.FromContext(r.Context()); id != nil {
			log = log.With(slog.String("uid", id.UID))
		}

		reply := func(status int, body types.CheckVIPResponse) {
			if obs != nil {
				obs.ObserveCheckVIP(status)
			}
			_ = response.WriteJSON(w, status, body)
		}

		// ── Step 1: decode and validate ───────────────────────────────
		// An empty body, malformed JSON and a missing field all get the
		// same 400 body.
		var req types.CheckVIPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug("check-vip body rejected", slog.String("error", err.Error()))
			reply(http.StatusBadRequest, types.CheckVIPResponse{Message: msgFieldsRequired})
			return
		}
		if err := validate.Struct(req); err != nil {
			log.Debug("check-vip body rejected", slog.String("error", err.Error()))
			reply(http.StatusBadRequest, types.CheckVIPResponse{Message: msgFieldsRequired})
			return
		}

		// ── Step 2: look up ───────────────────────────────────────────
		wallet, err := reg.Lookup(req.Name, req.RollNumber, req.WalletAddress)
		switch {
		case err == nil:
			log.Info("vip check matched")
			reply(http.StatusOK, types.CheckVIPResponse{IsVIP: true, WalletAddress: wallet})
		case errors.Is(err, registry.ErrNotFound):
			log.Info("vip check not on list")
			reply(http.StatusOK, types.CheckVIPResponse{Message: msgNotAuthorized})
		case errors.Is(err, registry.ErrCacheUnavailable):
			log.Warn("vip check while list unavailable")
			reply(http.StatusServiceUnavailable, types.CheckVIPResponse{Message: msgUnavailable})
		default:
			log.Error("vip check failed", slog.String("error", err.Error()))
			reply(http.StatusInternalServerError, types.CheckVIPResponse{Message: msgVerifyingFailed})
		}
	}
}
