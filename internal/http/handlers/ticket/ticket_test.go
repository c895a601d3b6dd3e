package ticket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

type stubLedger struct {
	tickets []types.Ticket
	details types.EventDetails
	err     error
}

func (s stubLedger) AllTickets(context.Context) ([]types.Ticket, error) { return s.tickets, s.err }

func (s stubLedger) EventDetails(context.Context) (types.EventDetails, error) {
	return s.details, s.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetAll(t *testing.T) {
	l := stubLedger{tickets: []types.Ticket{
		{ID: 0, Owner: "0xAAA", TokenURI: "ipfs://0", QRHash: "qr-0-a"},
		{ID: 1, Owner: "0xBBB", TokenURI: "ipfs://1", QRHash: "qr-1-b"},
	}}

	rec := get(GetAll(l, discard()), "/api/get-all-tickets")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"tokenId":0,"owner":"0xAAA","tokenURI":"ipfs://0","qrHash":"qr-0-a"},
		{"tokenId":1,"owner":"0xBBB","tokenURI":"ipfs://1","qrHash":"qr-1-b"}
	]`, rec.Body.String())
}

func TestGetAllLedgerDown(t *testing.T) {
	rec := get(GetAll(stubLedger{err: errors.New("dial tcp: refused")}, discard()), "/api/get-all-tickets")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"Failed to retrieve ticket data from the smart contract."}`, rec.Body.String())
}

func TestGetAllWithoutLedger(t *testing.T) {
	rec := get(GetAll(nil, discard()), "/api/get-all-tickets")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetEvent(t *testing.T) {
	l := stubLedger{details: types.EventDetails{
		IsActive:    true,
		MaxTickets:  100,
		TicketCount: 12,
		Prices: types.EventPrices{
			Insider:  decimal.NewNullDecimal(decimal.RequireFromString("0.0005")),
			Outsider: decimal.NewNullDecimal(decimal.RequireFromString("0.001")),
		},
	}}

	rec := get(GetEvent(l, discard()), "/api/event")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"isActive": true,
		"maxTickets": 100,
		"ticketCount": 12,
		"ticketPriceInsider": "0.0005",
		"ticketPriceOutsider": "0.001"
	}`, rec.Body.String())
}

func TestGetEventMissingPrice(t *testing.T) {
	l := stubLedger{details: types.EventDetails{IsActive: false}}

	rec := get(GetEvent(l, discard()), "/api/event")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isActive":false,"maxTickets":0,"ticketCount":0,"ticketPriceInsider":null,"ticketPriceOutsider":null}`, rec.Body.String())
}

func TestGetEventErrors(t *testing.T) {
	rec := get(GetEvent(nil, discard()), "/api/event")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(GetEvent(stubLedger{err: errors.New("timeout")}, discard()), "/api/event")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"Failed to retrieve event data from the smart contract."}`, rec.Body.String())
}
