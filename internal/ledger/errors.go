package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrLedgerRejected matches every *RejectedError.
	ErrLedgerRejected = errors.New("ledger rejected the submission")

	// ErrLedgerTimeout matches every *TimeoutError. The transaction may
	// still be mined later; it must not be treated as failed.
	ErrLedgerTimeout = errors.New("ledger confirmation timed out")

	// ErrReadOnly is returned by writes on a client built without a key.
	ErrReadOnly = errors.New("ledger client has no signing key")

	// ErrNoTicketContract is returned by reads that need the TicketNFT
	// contract before its address is known.
	ErrNoTicketContract = errors.New("ticket nft address is not configured")
)

// RejectedError is a submission the ledger refused. Reason is the raw
// revert string as the node reported it.
type RejectedError struct {
	Reason string
	TxHash string
}

func (e *RejectedError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("ledger rejected transaction %s: %s", e.TxHash, e.Reason)
	}
	return "ledger rejected submission: " + e.Reason
}

func (e *RejectedError) Is(target error) bool { return target == ErrLedgerRejected }

// TimeoutError means the outcome of TxHash is unknown: no receipt was
// observed in time, or the broadcast failed in a way that does not prove
// the node dropped it. Cause is the broadcast error, if any.
type TimeoutError struct {
	TxHash string
	Cause  error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("broadcast of transaction %s failed, outcome unknown: %v", e.TxHash, e.Cause)
	}
	return fmt.Sprintf("no receipt for transaction %s yet, outcome unknown", e.TxHash)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrLedgerTimeout }

func (e *TimeoutError) Unwrap() error { return e.Cause }

// isRevert reports whether err is the node refusing to execute the call,
// as opposed to a transport or signing failure.
func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// poolRejections are the txpool errors a node returns when it refuses a
// transaction outright.
var poolRejections = []string{
	"insufficient funds",
	"nonce too low",
	"intrinsic gas too low",
	"exceeds block gas limit",
	"max fee per gas less than block base fee",
}

// isPoolRejection reports whether the node refused to admit the
// transaction to its pool.
func isPoolRejection(err error) bool {
	msg := err.Error()
	for _, r := range poolRejections {
		if strings.Contains(msg, r) {
			return true
		}
	}
	return false
}

// revertReason decodes the Error(string) payload carried by a revert, and
// falls back to the node's message when there is none.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}
