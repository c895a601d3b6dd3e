// Package storage defines the Journal interface: the local record of
// every ledger submission ticketctl makes.
//
// WHY A JOURNAL?
// ──────────────
// A purchase whose confirmation times out may still land on the ledger
// minutes later. Without a record of the transaction hash the user has no
// way to find out what happened. Every attempt is therefore written
// before it is sent and settled once its outcome is known; `ticketctl
// reconcile` settles the rows that were left "unknown".
//
// The marketplace depends only on this interface, so tests pass a mock
// and the binary passes the SQLite implementation.
package storage

import "github.com/aanand-mishra/blockfest-backend/internal/types"

// Journal is the attempt-log contract.
type Journal interface {
	// RecordAttempt inserts a new attempt in StatusPending and returns
	// its generated id.
	RecordAttempt(attempt types.Attempt) (string, error)

	// SettleAttempt stores the outcome of an attempt: its final (or
	// unknown) status, the transaction hash if one was produced and the
	// ledger-supplied reason for a rejection.
	SettleAttempt(id string, status types.AttemptStatus, txHash, reason string) error

	// GetAttempt fetches one attempt by id.
	GetAttempt(id string) (types.Attempt, error)

	// GetAttempts returns every attempt, newest first.
	GetAttempts() ([]types.Attempt, error)

	// GetAttemptsByStatus returns the attempts currently in status,
	// oldest first.
	GetAttemptsByStatus(status types.AttemptStatus) ([]types.Attempt, error)
}
