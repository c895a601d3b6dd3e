// Package ticket contains the read-only ledger handlers: the admin ticket
// listing and the public event snapshot.
package ticket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
	"github.com/aanand-mishra/blockfest-backend/internal/utils/response"
)

var (
	errTicketData = errors.New("Failed to retrieve ticket data from the smart contract.")
	errEventData  = errors.New("Failed to retrieve event data from the smart contract.")
	errNoLedger   = errors.New("Blockchain functionality is unavailable.")
)

// Ledger is the read side of the ledger these handlers use.
// *ledger.Client implements it.
type Ledger interface {
	AllTickets(ctx context.Context) ([]types.Ticket, error)
	EventDetails(ctx context.Context) (types.EventDetails, error)
}

// Event is the body of GET /api/event. Prices are in ether.
type Event struct {
	IsActive            bool                `json:"isActive"`
	MaxTickets          uint64              `json:"maxTickets"`
	TicketCount         uint64              `json:"ticketCount"`
	TicketPriceInsider  decimal.NullDecimal `json:"ticketPriceInsider"`
	TicketPriceOutsider decimal.NullDecimal `json:"ticketPriceOutsider"`
}

// GetAll handles GET /api/get-all-tickets (admin only).
//
// Success response (200 OK), sorted by tokenId:
//
//	[ { "tokenId": 0, "owner": "0x...", "tokenURI": "ipfs://...", "qrHash": "qr-0-..." } ]
//
// A nil ledger means the server runs without one; the list is then empty.
func GetAll(l Ledger, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))
		if id := auth.FromContext(r.Context()); id != nil {
			log.Info("admin requesting all ticket data", slog.String("uid", id.UID))
		}

		if l == nil {
			log.Warn("ticket listing without a ledger")
			_ = response.WriteJSON(w, http.StatusOK, []types.Ticket{})
			return
		}

		tickets, err := l.AllTickets(r.Context())
		if err != nil {
			log.Error("fetching ticket data failed", slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errTicketData))
			return
		}

		log.Info("ticket data fetched", slog.Int("tickets", len(tickets)))
		_ = response.WriteJSON(w, http.StatusOK, tickets)
	}
}

// GetEvent handles GET /api/event.
//
// Success response (200 OK):
//
//	{ "isActive": true, "maxTickets": 100, "ticketCount": 12,
//	  "ticketPriceInsider": "0.0005", "ticketPriceOutsider": "0.001" }
func GetEvent(l Ledger, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if l == nil {
			_ = response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(errNoLedger))
			return
		}

		details, err := l.EventDetails(r.Context())
		if err != nil {
			logger.Error("fetching event details failed",
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("error", err.Error()))
			_ = response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errEventData))
			return
		}

		_ = response.WriteJSON(w, http.StatusOK, Event{
			IsActive:            details.IsActive,
			MaxTickets:          details.MaxTickets,
			TicketCount:         details.TicketCount,
			TicketPriceInsider:  details.Prices.Insider,
			TicketPriceOutsider: details.Prices.Outsider,
		})
	}
}
