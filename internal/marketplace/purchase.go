package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aanand-mishra/blockfest-backend/internal/ledger"
	"github.com/aanand-mishra/blockfest-backend/internal/storage"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

// ErrNotTicketOwner is returned by Resell when the wallet does not hold
// the ticket it tries to sell back.
var ErrNotTicketOwner = errors.New("wallet does not own the ticket")

// VIPChecker asks the backend whether the buyer is on the VIP list.
type VIPChecker interface {
	CheckVIP(ctx context.Context, req types.CheckVIPRequest) (types.CheckVIPResponse, error)
}

// Catalog supplies the metadata URI a ticket on sale is minted with.
type Catalog interface {
	TokenURI(ticketID uint64) (string, error)
}

// LedgerReader is the read side of the ledger the purchase flow needs.
type LedgerReader interface {
	IsEventActive(ctx context.Context) (bool, error)
	GetPrices(ctx context.Context) (types.EventPrices, error)
	GetOwnedTicketIDs(ctx context.Context, wallet string) ([]uint64, error)
}

// LedgerWriter signs transactions and looks up their receipts.
type LedgerWriter interface {
	SubmitPurchase(ctx context.Context, sub types.PurchaseSubmission) (ledger.PendingTx, error)
	SubmitResale(ctx context.Context, ticketID uint64) (ledger.PendingTx, error)
	ReceiptStatus(ctx context.Context, txHash string) (types.AttemptStatus, error)
}

// BuyRequest describes one purchase. Name and RollNumber are optional;
// without them the buyer is treated as an outsider. QuotedPrice is the
// price shown to the buyer; when unset the tier price read for this
// attempt is used. TokenURI overrides the catalog entry for TicketID.
type BuyRequest struct {
	TicketID    uint64
	TokenURI    string
	Wallet      string
	Name        string
	RollNumber  string
	QuotedPrice decimal.NullDecimal
}

// Result is the journaled outcome of one submission.
type Result struct {
	AttemptID string              `json:"attemptId"`
	TicketID  uint64              `json:"ticketId"`
	IsVIP     bool                `json:"isVIP"`
	Value     string              `json:"value"`
	TxHash    string              `json:"txHash,omitempty"`
	Status    types.AttemptStatus `json:"status"`
	Reason    string              `json:"reason,omitempty"`
}

// Purchaser runs purchases and resales against the ledger and records
// every submission in the journal.
type Purchaser struct {
	vip     VIPChecker
	catalog Catalog
	reader  LedgerReader
	writer  LedgerWriter
	journal storage.Journal
	logger  *slog.Logger
}

// NewPurchaser wires the purchase flow. vip may be nil, in which case
// every buyer is an outsider. catalog may be nil when every BuyRequest
// carries its own TokenURI.
func NewPurchaser(vip VIPChecker, catalog Catalog, reader LedgerReader, writer LedgerWriter, journal storage.Journal, logger *slog.Logger) *Purchaser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Purchaser{
		vip:     vip,
		catalog: catalog,
		reader:  reader,
		writer:  writer,
		journal: journal,
		logger:  logger,
	}
}

func (p *Purchaser) isVIP(ctx context.Context, req BuyRequest) (bool, error) {
	if p.vip == nil || req.Name == "" || req.RollNumber == "" {
		return false, nil
	}
	resp, err := p.vip.CheckVIP(ctx, types.CheckVIPRequest{
		Name:          req.Name,
		RollNumber:    req.RollNumber,
		WalletAddress: req.Wallet,
	})
	if err != nil {
		return false, fmt.Errorf("marketplace.Buy: vip check: %w", err)
	}
	return resp.IsVIP, nil
}

// Buy runs the gate on fresh ledger reads and, when it passes, submits the
// purchase and waits for its outcome. Gate failures return before anything
// is journaled. Once submitted, the returned Result is always populated;
// the error is a *ledger.RejectedError or *ledger.TimeoutError when the
// ledger refused or did not confirm in time.
func (p *Purchaser) Buy(ctx context.Context, req BuyRequest) (Result, error) {
	wallet := strings.TrimSpace(req.Wallet)
	if wallet == "" {
		return Result{}, &FieldError{Field: "wallet"}
	}
	req.Wallet = wallet

	vip, err := p.isVIP(ctx, req)
	if err != nil {
		return Result{}, err
	}

	active, err := p.reader.IsEventActive(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("marketplace.Buy: event status: %w", err)
	}
	prices, err := p.reader.GetPrices(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("marketplace.Buy: prices: %w", err)
	}
	owned, err := p.reader.GetOwnedTicketIDs(ctx, wallet)
	if err != nil {
		return Result{}, fmt.Errorf("marketplace.Buy: owned tickets: %w", err)
	}

	if err := CheckEligibility(wallet, vip, owned, active); err != nil {
		return Result{}, err
	}

	uri, err := p.tokenURI(req)
	if err != nil {
		return Result{}, err
	}

	intent := types.PurchaseIntent{
		TicketID:        req.TicketID,
		TokenURI:        uri,
		RequesterWallet: wallet,
		IsVIP:           vip,
		QuotedPrice:     req.QuotedPrice,
		QRToken:         NewQRToken(req.TicketID),
	}
	if !intent.QuotedPrice.Valid {
		intent.QuotedPrice = ResolvePrice(vip, prices)
	}
	if err := ValidateIntent(intent, prices); err != nil {
		return Result{}, err
	}

	sub, err := BuildPurchaseSubmission(types.Ticket{ID: req.TicketID, TokenURI: uri}, vip, prices, intent.QRToken)
	if err != nil {
		return Result{}, err
	}

	attempt := types.Attempt{
		Kind:     types.AttemptPurchase,
		TicketID: req.TicketID,
		Wallet:   wallet,
		TokenURI: sub.TokenURI,
		QRToken:  sub.QRToken,
		IsVIP:    vip,
		Value:    sub.Value.String(),
	}

	return p.submit(ctx, attempt, func(ctx context.Context) (ledger.PendingTx, error) {
		return p.writer.SubmitPurchase(ctx, sub)
	})
}

// tokenURI picks the URI the new token is minted with. The ticket is not
// minted yet, so it cannot come from the ledger.
func (p *Purchaser) tokenURI(req BuyRequest) (string, error) {
	if uri := strings.TrimSpace(req.TokenURI); uri != "" {
		return uri, nil
	}
	if p.catalog == nil {
		return "", nil
	}
	uri, err := p.catalog.TokenURI(req.TicketID)
	if err != nil {
		return "", fmt.Errorf("marketplace.Buy: %w", err)
	}
	return uri, nil
}

// Resell sells ticketID back to the event. The ownership check is
// advisory; the ledger decides.
func (p *Purchaser) Resell(ctx context.Context, wallet string, ticketID uint64) (Result, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return Result{}, &FieldError{Field: "wallet"}
	}

	owned, err := p.reader.GetOwnedTicketIDs(ctx, wallet)
	if err != nil {
		return Result{}, fmt.Errorf("marketplace.Resell: owned tickets: %w", err)
	}
	if !slices.Contains(owned, ticketID) {
		return Result{}, fmt.Errorf("%w: %s does not hold ticket %d", ErrNotTicketOwner, wallet, ticketID)
	}

	attempt := types.Attempt{
		Kind:     types.AttemptResale,
		TicketID: ticketID,
		Wallet:   wallet,
	}

	return p.submit(ctx, attempt, func(ctx context.Context) (ledger.PendingTx, error) {
		return p.writer.SubmitResale(ctx, ticketID)
	})
}

// submit journals attempt, signs it, records its hash, broadcasts it and
// settles the journal row with the outcome. The hash is on record before
// the broadcast, so a broadcast that times out can be reconciled later.
func (p *Purchaser) submit(ctx context.Context, attempt types.Attempt, prepare func(context.Context) (ledger.PendingTx, error)) (Result, error) {
	id, err := p.journal.RecordAttempt(attempt)
	if err != nil {
		return Result{}, fmt.Errorf("marketplace.submit: journal: %w", err)
	}

	res := Result{
		AttemptID: id,
		TicketID:  attempt.TicketID,
		IsVIP:     attempt.IsVIP,
		Value:     attempt.Value,
		Status:    types.StatusPending,
	}
	if res.Value == "" {
		res.Value = "0"
	}

	logger := p.logger.With(
		slog.String("attempt_id", id),
		slog.String("kind", string(attempt.Kind)),
		slog.Uint64("ticket_id", attempt.TicketID),
	)

	pending, err := prepare(ctx)
	if err != nil {
		// Nothing was broadcast: the ledger refused during estimation, or
		// the transaction could not be built.
		res.Status = types.StatusFailed
		res.Reason = err.Error()
		var rejected *ledger.RejectedError
		if errors.As(err, &rejected) {
			res.Status = types.StatusRejected
			res.Reason = rejected.Reason
		}
		logger.Warn("submission refused", slog.String("status", string(res.Status)), slog.String("reason", res.Reason))
		return p.settle(res, err)
	}

	res.TxHash = pending.Hash()
	logger = logger.With(slog.String("tx_hash", res.TxHash))
	if err := p.journal.SettleAttempt(id, types.StatusPending, res.TxHash, ""); err != nil {
		// Without the hash on record a lost broadcast could never be
		// reconciled, so do not send.
		res.Status = types.StatusFailed
		res.Reason = "journal unavailable"
		return res, fmt.Errorf("marketplace.submit: journal: %w", err)
	}

	if err := pending.Send(ctx); err != nil {
		var rejected *ledger.RejectedError
		if errors.As(err, &rejected) {
			res.Status = types.StatusRejected
			res.Reason = rejected.Reason
		} else {
			res.Status = types.StatusUnknown
			res.Reason = err.Error()
		}
		logger.Warn("broadcast failed", slog.String("status", string(res.Status)), slog.String("reason", res.Reason))
		return p.settle(res, err)
	}
	logger.Info("submission sent")

	waitErr := pending.Wait(ctx)
	var rejected *ledger.RejectedError
	switch {
	case waitErr == nil:
		res.Status = types.StatusConfirmed
	case errors.As(waitErr, &rejected):
		res.Status = types.StatusRejected
		res.Reason = rejected.Reason
	default:
		// Timeout or a lost connection: the transaction may still land.
		res.Status = types.StatusUnknown
		res.Reason = waitErr.Error()
	}
	logger.Info("submission settled", slog.String("status", string(res.Status)))
	return p.settle(res, waitErr)
}

// settle stores the outcome in res and returns it with cause.
func (p *Purchaser) settle(res Result, cause error) (Result, error) {
	if err := p.journal.SettleAttempt(res.AttemptID, res.Status, res.TxHash, res.Reason); err != nil {
		return res, errors.Join(cause, err)
	}
	return res, cause
}

// Reconcile re-checks the receipt of every journaled attempt whose outcome
// is still open and settles the ones the ledger has decided. It returns
// the attempts it settled.
func (p *Purchaser) Reconcile(ctx context.Context) ([]types.Attempt, error) {
	var open []types.Attempt
	for _, status := range []types.AttemptStatus{types.StatusPending, types.StatusUnknown} {
		attempts, err := p.journal.GetAttemptsByStatus(status)
		if err != nil {
			return nil, fmt.Errorf("marketplace.Reconcile: %w", err)
		}
		open = append(open, attempts...)
	}

	settled := make([]types.Attempt, 0, len(open))
	for _, attempt := range open {
		if attempt.TxHash == "" {
			// Never reached the ledger as far as the journal knows.
			continue
		}
		status, err := p.writer.ReceiptStatus(ctx, attempt.TxHash)
		if err != nil {
			return settled, fmt.Errorf("marketplace.Reconcile: receipt %s: %w", attempt.TxHash, err)
		}
		if status == types.StatusUnknown || status == types.StatusPending {
			continue
		}

		reason := ""
		if status == types.StatusRejected {
			reason = "transaction reverted"
		}
		if err := p.journal.SettleAttempt(attempt.ID, status, attempt.TxHash, reason); err != nil {
			return settled, fmt.Errorf("marketplace.Reconcile: %w", err)
		}
		attempt.Status = status
		attempt.Reason = reason
		settled = append(settled, attempt)
		p.logger.Info("attempt reconciled",
			slog.String("attempt_id", attempt.ID),
			slog.String("tx_hash", attempt.TxHash),
			slog.String("status", string(status)),
		)
	}

	return settled, nil
}

// History returns every journaled attempt, newest first.
func (p *Purchaser) History() ([]types.Attempt, error) {
	return p.journal.GetAttempts()
}
