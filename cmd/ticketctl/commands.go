package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/aanand-mishra/blockfest-backend/internal/auth"
	"github.com/aanand-mishra/blockfest-backend/internal/catalog"
	"github.com/aanand-mishra/blockfest-backend/internal/ledger"
	"github.com/aanand-mishra/blockfest-backend/internal/marketplace"
	"github.com/aanand-mishra/blockfest-backend/internal/registry"
	"github.com/aanand-mishra/blockfest-backend/internal/storage/sqlite"
	"github.com/aanand-mishra/blockfest-backend/internal/types"
	"github.com/aanand-mishra/blockfest-backend/internal/vipclient"
)

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("ticketctl "+name, pflag.ContinueOnError)
}

func (e *env) signingKey() (*ecdsa.PrivateKey, error) {
	if e.cfg.PrivateKey == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(e.cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("WALLET_PRIVATE_KEY: %w", err)
	}
	return key, nil
}

// wallet picks the --wallet flag, else the address of the signing key.
func (e *env) wallet(flagValue string) (string, error) {
	if flagValue != "" {
		if !common.IsHexAddress(flagValue) {
			return "", fmt.Errorf("invalid wallet address %q", flagValue)
		}
		return flagValue, nil
	}
	key, err := e.signingKey()
	if err != nil {
		return "", err
	}
	if key == nil {
		return "", errors.New("no wallet: pass --wallet or set WALLET_PRIVATE_KEY")
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (e *env) dial(ctx context.Context, signer bool) (*ledger.Client, error) {
	lc := e.cfg.Ledger
	if !lc.Enabled() || lc.EventManagerAddress == "" {
		return nil, errors.New("no ledger: set ETH_RPC_URL and CONTRACT_ADDRESS")
	}

	opts := []ledger.Option{
		ledger.WithLogger(e.logger),
		ledger.WithCallTimeout(lc.CallTimeout),
		ledger.WithConfirmTimeout(e.cfg.ConfirmTimeout),
		ledger.WithFetchConcurrency(lc.FetchConcurrency),
	}
	if lc.TicketNFTAddress != "" {
		opts = append(opts, ledger.WithTicketNFT(common.HexToAddress(lc.TicketNFTAddress)))
	}
	if signer {
		key, err := e.signingKey()
		if err != nil {
			return nil, err
		}
		if key == nil {
			return nil, errors.New("no signer: set WALLET_PRIVATE_KEY")
		}
		opts = append(opts, ledger.WithSigner(key, big.NewInt(e.cfg.ChainID)))
	}

	return ledger.Dial(ctx, lc.RPCURL, lc.EventManagerAddress, opts...)
}

func (e *env) openJournal() (*sqlite.SQLite, error) {
	return sqlite.New(e.cfg.JournalPath)
}

func (e *env) catalog() (*catalog.Catalog, error) {
	if e.cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(e.cfg.CatalogPath)
}

func parseTicketID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one ticket id")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ticket id %q", args[0])
	}
	return id, nil
}

// ── vip-check ────────────────────────────────────────────────────────────

func runVIPCheck(ctx context.Context, e *env, args []string) error {
	fs := newFlags("vip-check")
	name := fs.String("name", "", "registered name")
	roll := fs.String("roll", "", "roll number")
	walletFlag := fs.String("wallet", "", "wallet address (default: signer address)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wallet, err := e.wallet(*walletFlag)
	if err != nil {
		return err
	}

	client := vipclient.New(e.cfg.APIURL, e.cfg.IDToken, nil)
	resp, err := client.CheckVIP(ctx, types.CheckVIPRequest{Name: *name, RollNumber: *roll, WalletAddress: wallet})
	if err != nil {
		return err
	}
	return e.print(resp)
}

// ── event ────────────────────────────────────────────────────────────────

func runEvent(ctx context.Context, e *env, args []string) error {
	if err := newFlags("event").Parse(args); err != nil {
		return err
	}
	client, err := e.dial(ctx, false)
	if err != nil {
		return err
	}
	details, err := client.EventDetails(ctx)
	if err != nil {
		return err
	}
	return e.print(details)
}

// ── tickets ──────────────────────────────────────────────────────────────

type listedTicket struct {
	ID       uint64 `json:"tokenId"`
	TokenURI string `json:"tokenURI"`
}

func runTickets(ctx context.Context, e *env, args []string) error {
	fs := newFlags("tickets")
	walletFlag := fs.String("wallet", "", "wallet address (default: signer address)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wallet, err := e.wallet(*walletFlag)
	if err != nil {
		return err
	}
	client, err := e.dial(ctx, false)
	if err != nil {
		return err
	}

	ids, err := client.GetOwnedTicketIDs(ctx, wallet)
	if err != nil {
		return err
	}
	owned := make([]listedTicket, 0, len(ids))
	for _, id := range ids {
		uri, err := client.GetTicketMetadataURI(ctx, id)
		if err != nil {
			return err
		}
		owned = append(owned, listedTicket{ID: id, TokenURI: uri})
	}

	issued, err := client.IssuedTicketIDs(ctx)
	if err != nil {
		return err
	}

	tickets, err := e.catalog()
	if err != nil {
		return err
	}
	available := make([]listedTicket, 0)
	for _, id := range tickets.IDs() {
		uri, _ := tickets.TokenURI(id)
		available = append(available, listedTicket{ID: id, TokenURI: uri})
	}

	return e.print(struct {
		Wallet    string         `json:"wallet"`
		Owned     []listedTicket `json:"owned"`
		Issued    []uint64       `json:"issued"`
		Available []listedTicket `json:"available"`
	}{wallet, owned, issued, available})
}

// ── buy / resell ─────────────────────────────────────────────────────────

// purchaseCooldownWait bounds how long buy waits for the check-vip cooldown.
const purchaseCooldownWait = 30 * time.Second

func (e *env) purchaser(ctx context.Context, withVIP bool) (*marketplace.Purchaser, *sqlite.SQLite, error) {
	client, err := e.dial(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	journal, err := e.openJournal()
	if err != nil {
		return nil, nil, err
	}

	tickets, err := e.catalog()
	if err != nil {
		journal.Close()
		return nil, nil, err
	}

	var vip marketplace.VIPChecker
	if withVIP {
		// The server throttles checks per subject; a buy straight after
		// vip-check waits out the rest of that window.
		vip = vipclient.New(e.cfg.APIURL, e.cfg.IDToken, nil).WaitOutCooldown(purchaseCooldownWait)
	}
	return marketplace.NewPurchaser(vip, tickets, client, client, journal, e.logger), journal, nil
}

// settled prints a submission result. The result is printed even when
// the ledger refused it, so the attempt id and reason are visible.
func (e *env) settled(res marketplace.Result, err error) error {
	if res.AttemptID != "" {
		if perr := e.print(res); perr != nil {
			return perr
		}
	}
	var timeout *ledger.TimeoutError
	if errors.As(err, &timeout) {
		return fmt.Errorf("%w; run `ticketctl reconcile` later to settle it", err)
	}
	return err
}

func runBuy(ctx context.Context, e *env, args []string) error {
	fs := newFlags("buy")
	name := fs.String("name", "", "registered name, for VIP pricing")
	roll := fs.String("roll", "", "roll number, for VIP pricing")
	quoted := fs.String("price", "", "price in ether you expect to pay; refused if it is not your tier price")
	uri := fs.String("uri", "", "metadata uri to mint with (default: the catalog entry for <id>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := parseTicketID(fs.Args())
	if err != nil {
		return err
	}

	req := marketplace.BuyRequest{TicketID: id, TokenURI: *uri, Name: *name, RollNumber: *roll}
	if *quoted != "" {
		d, err := decimal.NewFromString(*quoted)
		if err != nil {
			return fmt.Errorf("invalid --price: %w", err)
		}
		req.QuotedPrice = decimal.NewNullDecimal(d)
	}
	if req.Wallet, err = e.wallet(""); err != nil {
		return err
	}

	p, journal, err := e.purchaser(ctx, *name != "" && *roll != "")
	if err != nil {
		return err
	}
	defer journal.Close()

	return e.settled(p.Buy(ctx, req))
}

func runResell(ctx context.Context, e *env, args []string) error {
	fs := newFlags("resell")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseTicketID(fs.Args())
	if err != nil {
		return err
	}
	wallet, err := e.wallet("")
	if err != nil {
		return err
	}

	p, journal, err := e.purchaser(ctx, false)
	if err != nil {
		return err
	}
	defer journal.Close()

	return e.settled(p.Resell(ctx, wallet, id))
}

// ── history / reconcile ──────────────────────────────────────────────────

func runHistory(_ context.Context, e *env, args []string) error {
	fs := newFlags("history")
	status := fs.String("status", "", "only attempts in this status (pending, confirmed, rejected, failed, unknown)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	journal, err := e.openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	var attempts []types.Attempt
	if *status != "" {
		attempts, err = journal.GetAttemptsByStatus(types.AttemptStatus(*status))
	} else {
		attempts, err = journal.GetAttempts()
	}
	if err != nil {
		return err
	}
	return e.print(attempts)
}

func runReconcile(ctx context.Context, e *env, args []string) error {
	if err := newFlags("reconcile").Parse(args); err != nil {
		return err
	}

	client, err := e.dial(ctx, false)
	if err != nil {
		return err
	}
	journal, err := e.openJournal()
	if err != nil {
		return err
	}
	defer journal.Close()

	p := marketplace.NewPurchaser(nil, nil, client, client, journal, e.logger)
	settled, err := p.Reconcile(ctx)
	if perr := e.print(settled); perr != nil && err == nil {
		err = perr
	}
	return err
}

// ── registry ─────────────────────────────────────────────────────────────

func runRegistry(_ context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: ticketctl registry lint <file> | lookup <file> --name --roll --wallet")
	}

	switch args[0] {
	case "lint":
		return registryLint(e, args[1:])
	case "lookup":
		return registryLookup(e, args[1:])
	default:
		return fmt.Errorf("unknown registry command %q", args[0])
	}
}

func loadRegistry(e *env, path string) (*registry.Registry, error) {
	reg := registry.New(&registry.FileSource{Path: path}, registry.WithLogger(e.logger))
	if err := reg.Load(); err != nil {
		return nil, err
	}
	return reg, nil
}

func registryLint(e *env, args []string) error {
	fs := newFlags("registry lint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one file")
	}

	reg, err := loadRegistry(e, fs.Arg(0))
	if err != nil {
		return err
	}
	skipped := reg.Diagnostics()
	if err := e.print(struct {
		Entries int                   `json:"entries"`
		Skipped []registry.SkippedRow `json:"skipped"`
	}{reg.Len(), skipped}); err != nil {
		return err
	}
	if len(skipped) > 0 {
		return fmt.Errorf("%d row(s) skipped", len(skipped))
	}
	return nil
}

func registryLookup(e *env, args []string) error {
	fs := newFlags("registry lookup")
	name := fs.String("name", "", "registered name")
	roll := fs.String("roll", "", "roll number")
	wallet := fs.String("wallet", "", "wallet address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one file")
	}

	reg, err := loadRegistry(e, fs.Arg(0))
	if err != nil {
		return err
	}

	stored, err := reg.Lookup(*name, *roll, *wallet)
	switch {
	case err == nil:
		return e.print(types.CheckVIPResponse{IsVIP: true, WalletAddress: stored})
	case errors.Is(err, registry.ErrNotFound):
		return e.print(types.CheckVIPResponse{Message: "not on the VIP list"})
	default:
		return err
	}
}

// ── token ────────────────────────────────────────────────────────────────

func runToken(_ context.Context, e *env, args []string) error {
	fs := newFlags("token")
	uid := fs.String("uid", "", "subject of the credential")
	email := fs.String("email", "", "email claim")
	admin := fs.Bool("admin", false, "grant the admin claim")
	ttl := fs.Duration("ttl", time.Hour, "lifetime of the credential")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" {
		return errors.New("--uid is required")
	}

	verifier, err := auth.NewHMACVerifier(e.cfg.HMACSecret, "")
	if err != nil {
		return fmt.Errorf("set AUTH_HMAC_SECRET: %w", err)
	}
	token, err := verifier.Issue(auth.Identity{UID: *uid, Email: *email, Admin: *admin}, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, token)
	return err
}
