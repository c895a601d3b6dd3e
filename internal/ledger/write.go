package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

// PendingTx is a signed write. Its hash is known before it is broadcast,
// so callers can record it first.
type PendingTx interface {
	Hash() string
	Send(ctx context.Context) error
	Wait(ctx context.Context) error
}

// Transaction is a signed write. Send broadcasts it; Wait resolves it to
// confirmed or rejected, and a Wait that times out leaves it unknown.
type Transaction struct {
	tx          *gethtypes.Transaction
	backend     Backend
	sendTimeout time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

// Hash is the 0x-prefixed transaction hash.
func (t *Transaction) Hash() string { return t.tx.Hash().Hex() }

// Send broadcasts the transaction. A node that refuses it returns a
// *RejectedError. Any other failure, a timeout included, returns a
// *TimeoutError: the transaction may have reached the mempool anyway.
func (t *Transaction) Send(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	err := t.backend.SendTransaction(ctx, t.tx)
	switch {
	case err == nil:
		t.logger.Info("transaction broadcast", slog.String("tx", t.Hash()))
		return nil
	case isRevert(err) || isPoolRejection(err):
		return &RejectedError{Reason: revertReason(err), TxHash: t.Hash()}
	default:
		t.logger.Warn("transaction broadcast failed, outcome unknown",
			slog.String("tx", t.Hash()),
			slog.String("error", err.Error()))
		return &TimeoutError{TxHash: t.Hash(), Cause: err}
	}
}

// Wait polls for the receipt until it appears or the confirm timeout
// elapses. It returns nil for a successful receipt, a *RejectedError for a
// reverted one and a *TimeoutError when no receipt was seen.
func (t *Transaction) Wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, t.backend, t.tx)
	if err != nil {
		if ctx.Err() != nil {
			t.logger.Warn("transaction confirmation timed out",
				slog.String("tx", t.Hash()),
				slog.Duration("timeout", t.timeout))
			return &TimeoutError{TxHash: t.Hash()}
		}
		return fmt.Errorf("ledger.Wait: %w", err)
	}

	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return &RejectedError{Reason: "transaction reverted", TxHash: t.Hash()}
	}

	t.logger.Info("transaction confirmed",
		slog.String("tx", t.Hash()),
		slog.Uint64("gas_used", receipt.GasUsed))
	return nil
}

// transact builds and signs method with value attached without sending
// it. Gas estimation and nonce lookup share one call timeout; a failure
// here means nothing left the client.
func (c *Client) transact(ctx context.Context, value *big.Int, method string, args ...any) (PendingTx, error) {
	if c.key == nil {
		return nil, ErrReadOnly
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("ledger.%s: build transactor: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	opts.Context = ctx
	opts.Value = value
	opts.NoSend = true

	tx, err := c.eventManager.Transact(opts, method, args...)
	if err != nil {
		if isRevert(err) {
			return nil, &RejectedError{Reason: revertReason(err)}
		}
		return nil, fmt.Errorf("ledger.%s: %w", method, err)
	}

	c.logger.Debug("transaction signed",
		slog.String("method", method),
		slog.String("tx", tx.Hash().Hex()))
	return &Transaction{
		tx:          tx,
		backend:     c.backend,
		sendTimeout: c.callTimeout,
		timeout:     c.confirmTimeout,
		logger:      c.logger,
	}, nil
}

// SubmitPurchase signs buyTicket(tokenURI, qrHash, outsider) paying
// sub.Value ether. A revert during gas estimation is a *RejectedError.
func (c *Client) SubmitPurchase(ctx context.Context, sub types.PurchaseSubmission) (PendingTx, error) {
	return c.transact(ctx, EtherToWei(sub.Value), "buyTicket", sub.TokenURI, sub.QRToken, sub.Outsider)
}

// SubmitResale signs sellTicketBack(ticketID).
func (c *Client) SubmitResale(ctx context.Context, ticketID uint64) (PendingTx, error) {
	return c.transact(ctx, nil, "sellTicketBack", new(big.Int).SetUint64(ticketID))
}

// ReceiptStatus looks up the receipt of an earlier submission. A
// transaction with no receipt yet is StatusUnknown.
func (c *Client) ReceiptStatus(ctx context.Context, txHash string) (types.AttemptStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	receipt, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return types.StatusUnknown, nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger.ReceiptStatus: %w", err)
	}
	if receipt.Status == gethtypes.ReceiptStatusSuccessful {
		return types.StatusConfirmed, nil
	}
	return types.StatusRejected, nil
}
