// Package types holds all shared data structures (models) used across
// the application. Handlers, the registry, the ledger client and the
// marketplace gate all import types without depending on each other.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// VIPRecord is one parsed row of the VIP allowlist file.
//
// Only WalletAddress is ever returned to callers; Name and RollNumber
// exist so the composite key can be rebuilt and so diagnostics can name
// the row that was loaded.
type VIPRecord struct {
	Name          string `json:"name"`
	RollNumber    string `json:"rollNumber"`
	WalletAddress string `json:"walletAddress"`
}

// CheckVIPRequest is the body of POST /api/check-vip.
//
// validate:"required" rejects missing AND empty strings.
type CheckVIPRequest struct {
	Name          string `json:"name"          validate:"required"`
	RollNumber    string `json:"rollNumber"    validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

// CheckVIPResponse is the body returned by POST /api/check-vip.
// walletAddress is only present on a positive match.
type CheckVIPResponse struct {
	IsVIP         bool   `json:"isVIP"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Message       string `json:"message,omitempty"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /auth/login. Only the address is
// looked up; the password is checked by the client-side Firebase SDK.
type LoginRequest struct {
	Email string `json:"email" validate:"required"`
}

// AccountResponse is the success body of the /auth routes.
type AccountResponse struct {
	Message string `json:"message,omitempty"`
	UID     string `json:"uid,omitempty"`
}

// EventPrices holds the two price tiers an event configures, in ether.
//
// NullDecimal lets "the ledger did not give us a price" be told apart
// from a legitimately free ticket.
type EventPrices struct {
	Insider  decimal.NullDecimal `json:"insider"`
	Outsider decimal.NullDecimal `json:"outsider"`
}

// EventDetails is a point-in-time snapshot of the event manager contract.
type EventDetails struct {
	IsActive    bool        `json:"isActive"`
	MaxTickets  uint64      `json:"maxTickets"`
	TicketCount uint64      `json:"ticketCount"`
	Prices      EventPrices `json:"prices"`
}

// Ticket is one minted NFT ticket as seen on the ledger.
type Ticket struct {
	ID       uint64 `json:"tokenId"`
	Owner    string `json:"owner,omitempty"`
	TokenURI string `json:"tokenURI,omitempty"`
	QRHash   string `json:"qrHash,omitempty"`
}

// PurchaseIntent is the transient value built for exactly one purchase
// attempt. It is never persisted; a retry builds a new one.
type PurchaseIntent struct {
	TicketID        uint64
	TokenURI        string
	RequesterWallet string
	IsVIP           bool
	QuotedPrice     decimal.NullDecimal
	QRToken         string
}

// PurchaseSubmission is the payload handed to the ledger writer.
// Outsider is always !isVIP; Value is the resolved tier price in ether.
type PurchaseSubmission struct {
	TokenURI string          `validate:"required"`
	QRToken  string          `validate:"required"`
	Outsider bool
	Value    decimal.Decimal
}

// AttemptKind tells a purchase from a resale in the local journal.
type AttemptKind string

const (
	AttemptPurchase AttemptKind = "purchase"
	AttemptResale   AttemptKind = "resale"
)

// AttemptStatus is the last known outcome of a ledger submission.
type AttemptStatus string

const (
	// StatusPending is written before the transaction is sent.
	StatusPending AttemptStatus = "pending"
	// StatusConfirmed means a successful receipt was observed.
	StatusConfirmed AttemptStatus = "confirmed"
	// StatusRejected means the ledger refused the submission.
	StatusRejected AttemptStatus = "rejected"
	// StatusFailed means the transaction could not be built or signed,
	// so nothing was broadcast.
	StatusFailed AttemptStatus = "failed"
	// StatusUnknown means the broadcast or the confirmation timed out;
	// the transaction may still land. `ticketctl reconcile` settles these rows later.
	StatusUnknown AttemptStatus = "unknown"
)

// Attempt is one row of the local purchase journal.
type Attempt struct {
	ID        string        `json:"id"`
	Kind      AttemptKind   `json:"kind"`
	TicketID  uint64        `json:"ticketId"`
	Wallet    string        `json:"wallet"`
	TokenURI  string        `json:"tokenURI,omitempty"`
	QRToken   string        `json:"qrToken,omitempty"`
	IsVIP     bool          `json:"isVIP"`
	Value     string        `json:"value"`
	TxHash    string        `json:"txHash,omitempty"`
	Status    AttemptStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
