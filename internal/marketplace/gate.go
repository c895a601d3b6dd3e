// Package marketplace is the purchase eligibility and pricing gate plus
// the purchase flow built on it.
//
// The gate is advisory. It stops submissions the ledger would obviously
// refuse and picks the price tier, but the ledger stays the only source
// of truth: a submission that passed the gate can still be rejected.
// Nothing here retries; every attempt re-reads the ledger from scratch.
package marketplace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

var (
	ErrEventInactive     = errors.New("event is not active")
	ErrAlreadyOwnsTicket = errors.New("vip wallet already owns a ticket")
	ErrMissingField      = errors.New("missing field")

	// ErrPriceMismatch means the price quoted to the buyer is not the
	// price of their tier at submission time.
	ErrPriceMismatch = errors.New("quoted price does not match the tier price")
)

// FieldError names the field a submission is missing. It matches
// ErrMissingField.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return fmt.Sprintf("missing field: %s", e.Field) }

func (e *FieldError) Is(target error) bool { return target == ErrMissingField }

var validate = validator.New()

// ResolvePrice returns the insider price for a VIP and the outsider
// price for everybody else.
func ResolvePrice(isVIP bool, prices types.EventPrices) decimal.NullDecimal {
	if isVIP {
		return prices.Insider
	}
	return prices.Outsider
}

// CheckEligibility fails with ErrEventInactive when the event is closed,
// checked first, and with ErrAlreadyOwnsTicket when a VIP wallet already
// holds a ticket. Non-VIP wallets have no ticket cap here.
func CheckEligibility(walletAddress string, isVIP bool, ownedTicketIDs []uint64, eventIsActive bool) error {
	if !eventIsActive {
		return ErrEventInactive
	}
	if isVIP && len(ownedTicketIDs) > 0 {
		return fmt.Errorf("%w: %s holds ticket %d", ErrAlreadyOwnsTicket, walletAddress, ownedTicketIDs[0])
	}
	return nil
}

// BuildPurchaseSubmission assembles the ledger payload. It fails with a
// *FieldError when the token URI, the QR token or the resolved price is
// absent.
func BuildPurchaseSubmission(ticket types.Ticket, isVIP bool, prices types.EventPrices, qrToken string) (types.PurchaseSubmission, error) {
	price := ResolvePrice(isVIP, prices)
	if !price.Valid {
		return types.PurchaseSubmission{}, &FieldError{Field: "price"}
	}

	sub := types.PurchaseSubmission{
		TokenURI: strings.TrimSpace(ticket.TokenURI),
		QRToken:  strings.TrimSpace(qrToken),
		Outsider: !isVIP,
		Value:    price.Decimal,
	}

	if err := validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return types.PurchaseSubmission{}, &FieldError{Field: fieldName(verrs[0].Field())}
		}
		return types.PurchaseSubmission{}, fmt.Errorf("marketplace.BuildPurchaseSubmission: %w", err)
	}

	return sub, nil
}

func fieldName(structField string) string {
	switch structField {
	case "TokenURI":
		return "tokenURI"
	case "QRToken":
		return "qrToken"
	default:
		return structField
	}
}

// ValidateIntent checks that the price quoted to the buyer equals the
// price of their tier in prices, the snapshot read for this attempt.
func ValidateIntent(intent types.PurchaseIntent, prices types.EventPrices) error {
	want := ResolvePrice(intent.IsVIP, prices)
	if !intent.QuotedPrice.Valid || !want.Valid {
		return &FieldError{Field: "price"}
	}
	if !intent.QuotedPrice.Decimal.Equal(want.Decimal) {
		return fmt.Errorf("%w: quoted %s, tier price %s", ErrPriceMismatch, intent.QuotedPrice.Decimal, want.Decimal)
	}
	return nil
}

// NewQRToken returns a fresh entry token for ticket id.
func NewQRToken(ticketID uint64) string {
	return fmt.Sprintf("qr-%d-%s", ticketID, uuid.NewString())
}
