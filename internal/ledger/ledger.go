// Package ledger talks to the BlockFest contracts over JSON-RPC.
//
// Two contracts are involved:
//
//   - EventManager holds the event state (active flag, capacity, the
//     insider and outsider prices) and takes buyTicket/sellTicketBack.
//   - TicketNFT is the ERC-721 that holds the minted tickets.
//
// Every read is a point-in-time snapshot bounded by the call timeout;
// separate reads are not consistent with each other.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/blockfest-backend/internal/types"
)

const (
	defaultCallTimeout      = 5 * time.Second
	defaultConfirmTimeout   = 2 * time.Minute
	defaultFetchConcurrency = 8
)

// Backend is what the client needs from a node. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// CallObserver receives the duration of the aggregate reads.
type CallObserver interface {
	ObserveLedgerCall(call string, start time.Time)
}

// Client reads the event contracts and, when given a key, submits
// purchases and resales.
type Client struct {
	backend Backend
	logger  *slog.Logger
	obs     CallObserver

	eventManagerAddr common.Address
	ticketNFTAddr    common.Address
	eventManager     *bind.BoundContract
	ticketNFT        *bind.BoundContract
	nftABI           abi.ABI

	callTimeout      time.Duration
	confirmTimeout   time.Duration
	fetchConcurrency int

	key     *ecdsa.PrivateKey
	chainID *big.Int
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTicketNFT sets the TicketNFT address. Without it Dial asks the
// EventManager for it.
func WithTicketNFT(address common.Address) Option {
	return func(c *Client) { c.ticketNFTAddr = address }
}

// WithCallTimeout bounds every individual read.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithConfirmTimeout bounds how long Transaction.Wait polls for a receipt.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.confirmTimeout = d
		}
	}
}

// WithFetchConcurrency caps the parallel reads of AllTickets.
func WithFetchConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.fetchConcurrency = n
		}
	}
}

// WithSigner enables writes, signed with key for chainID.
func WithSigner(key *ecdsa.PrivateKey, chainID *big.Int) Option {
	return func(c *Client) {
		c.key = key
		c.chainID = chainID
	}
}

func WithCallObserver(obs CallObserver) Option {
	return func(c *Client) { c.obs = obs }
}

// New binds the contracts on backend. It performs no network I/O.
func New(backend Backend, eventManager common.Address, opts ...Option) (*Client, error) {
	emABI, err := abi.JSON(strings.NewReader(eventManagerABI))
	if err != nil {
		return nil, fmt.Errorf("ledger.New: parse event manager abi: %w", err)
	}
	nftABI, err := abi.JSON(strings.NewReader(ticketNFTABI))
	if err != nil {
		return nil, fmt.Errorf("ledger.New: parse ticket nft abi: %w", err)
	}

	c := &Client{
		backend:          backend,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		eventManagerAddr: eventManager,
		nftABI:           nftABI,
		callTimeout:      defaultCallTimeout,
		confirmTimeout:   defaultConfirmTimeout,
		fetchConcurrency: defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.key != nil && c.chainID == nil {
		return nil, errors.New("ledger.New: a signing key needs a chain id")
	}

	c.eventManager = bind.NewBoundContract(eventManager, emABI, backend, backend, backend)
	if c.ticketNFTAddr != (common.Address{}) {
		c.ticketNFT = bind.NewBoundContract(c.ticketNFTAddr, nftABI, backend, backend, backend)
	}
	return c, nil
}

// Dial connects to rpcURL and builds a Client. When no TicketNFT address
// was given it is read from the EventManager.
func Dial(ctx context.Context, rpcURL, eventManager string, opts ...Option) (*Client, error) {
	if !common.IsHexAddress(eventManager) {
		return nil, fmt.Errorf("ledger.Dial: invalid event manager address %q", eventManager)
	}

	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("ledger.Dial: connect: %w", err)
	}

	c, err := New(backend, common.HexToAddress(eventManager), opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	if c.ticketNFT == nil {
		if err := c.ResolveTicketNFT(ctx); err != nil {
			backend.Close()
			return nil, err
		}
	}
	return c, nil
}

// ResolveTicketNFT reads the TicketNFT address from the EventManager.
func (c *Client) ResolveTicketNFT(ctx context.Context) error {
	out, err := c.call(ctx, c.eventManager, "ticketNFT")
	if err != nil {
		return err
	}
	addr := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	if addr == (common.Address{}) {
		return fmt.Errorf("ledger.ResolveTicketNFT: %w", ErrNoTicketContract)
	}

	c.ticketNFTAddr = addr
	c.ticketNFT = bind.NewBoundContract(addr, c.nftABI, c.backend, c.backend, c.backend)
	c.logger.Debug("resolved ticket nft contract", slog.String("address", addr.Hex()))
	return nil
}

// Address is the signer's wallet, or "" for a read-only client.
func (c *Client) Address() string {
	if c.key == nil {
		return ""
	}
	return crypto.PubkeyToAddress(c.key.PublicKey).Hex()
}

func (c *Client) call(ctx context.Context, contract *bind.BoundContract, method string, args ...any) ([]any, error) {
	if contract == nil {
		return nil, fmt.Errorf("ledger.%s: %w", method, ErrNoTicketContract)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("ledger.%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ledger.%s: empty result", method)
	}
	return out, nil
}

func (c *Client) callUint(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) callUint64(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (uint64, error) {
	v, err := c.callUint(ctx, contract, method, args...)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("ledger.%s: value %s overflows uint64", method, v)
	}
	return v.Uint64(), nil
}

func (c *Client) callString(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (string, error) {
	out, err := c.call(ctx, contract, method, args...)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// IsEventActive reads EventManager.eventActive.
func (c *Client) IsEventActive(ctx context.Context) (bool, error) {
	out, err := c.call(ctx, c.eventManager, "eventActive")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GetPrices reads both price tiers, converted to ether.
func (c *Client) GetPrices(ctx context.Context) (types.EventPrices, error) {
	insider, err := c.callUint(ctx, c.eventManager, "ticketPriceInsider")
	if err != nil {
		return types.EventPrices{}, err
	}
	outsider, err := c.callUint(ctx, c.eventManager, "ticketPriceOutsider")
	if err != nil {
		return types.EventPrices{}, err
	}
	return types.EventPrices{
		Insider:  decimalOf(insider),
		Outsider: decimalOf(outsider),
	}, nil
}

// GetOwnedTicketIDs lists the ticket ids the EventManager records for wallet.
func (c *Client) GetOwnedTicketIDs(ctx context.Context, wallet string) ([]uint64, error) {
	if !common.IsHexAddress(wallet) {
		return nil, fmt.Errorf("ledger.getOwnedTickets: invalid wallet address %q", wallet)
	}
	out, err := c.call(ctx, c.eventManager, "getOwnedTickets", common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)

	ids := make([]uint64, 0, len(raw))
	for _, id := range raw {
		if !id.IsUint64() {
			return nil, fmt.Errorf("ledger.getOwnedTickets: ticket id %s overflows uint64", id)
		}
		ids = append(ids, id.Uint64())
	}
	return ids, nil
}

// GetTicketMetadataURI reads TicketNFT.tokenURI.
func (c *Client) GetTicketMetadataURI(ctx context.Context, id uint64) (string, error) {
	return c.callString(ctx, c.ticketNFT, "tokenURI", new(big.Int).SetUint64(id))
}

// EventDetails reads the whole event snapshot.
func (c *Client) EventDetails(ctx context.Context) (types.EventDetails, error) {
	if c.obs != nil {
		defer c.obs.ObserveLedgerCall("event_details", time.Now())
	}

	active, err := c.IsEventActive(ctx)
	if err != nil {
		return types.EventDetails{}, err
	}
	maxTickets, err := c.callUint64(ctx, c.eventManager, "maxTickets")
	if err != nil {
		return types.EventDetails{}, err
	}
	count, err := c.callUint64(ctx, c.eventManager, "ticketCount")
	if err != nil {
		return types.EventDetails{}, err
	}
	prices, err := c.GetPrices(ctx)
	if err != nil {
		return types.EventDetails{}, err
	}

	return types.EventDetails{
		IsActive:    active,
		MaxTickets:  maxTickets,
		TicketCount: count,
		Prices:      prices,
	}, nil
}

// IssuedTicketIDs lists issuedTickets(0..ticketCount-1) in order.
func (c *Client) IssuedTicketIDs(ctx context.Context) ([]uint64, error) {
	count, err := c.callUint64(ctx, c.eventManager, "ticketCount")
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchConcurrency)
	for i := range count {
		g.Go(func() error {
			id, err := c.callUint64(gctx, c.eventManager, "issuedTickets", new(big.Int).SetUint64(i))
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AllTickets enumerates token ids 0..totalSupply-1 and reads owner, URI
// and QR hash for each. Ids whose reads fail (burned tokens, flaky node)
// are logged and left out. The result is ordered by id.
func (c *Client) AllTickets(ctx context.Context) ([]types.Ticket, error) {
	if c.obs != nil {
		defer c.obs.ObserveLedgerCall("all_tickets", time.Now())
	}

	total, err := c.callUint64(ctx, c.eventManager, "totalSupply")
	if err != nil {
		return nil, err
	}

	found := make([]*types.Ticket, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchConcurrency)
	for i := range total {
		g.Go(func() error {
			ticket, err := c.ticket(gctx, i)
			if err != nil {
				c.logger.Warn("could not fetch ticket details",
					slog.Uint64("token_id", i),
					slog.String("error", err.Error()))
				return nil
			}
			found[i] = &ticket
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ledger.AllTickets: %w", err)
	}

	tickets := make([]types.Ticket, 0, len(found))
	for _, t := range found {
		if t != nil {
			tickets = append(tickets, *t)
		}
	}
	c.logger.Info("fetched ticket data",
		slog.Int("tickets", len(tickets)),
		slog.Uint64("total_supply", total))
	return tickets, nil
}

func (c *Client) ticket(ctx context.Context, id uint64) (types.Ticket, error) {
	tokenID := new(big.Int).SetUint64(id)

	out, err := c.call(ctx, c.ticketNFT, "ownerOf", tokenID)
	if err != nil {
		return types.Ticket{}, err
	}
	owner := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	uri, err := c.callString(ctx, c.ticketNFT, "tokenURI", tokenID)
	if err != nil {
		return types.Ticket{}, err
	}
	qrHash, err := c.callString(ctx, c.ticketNFT, "getQRHash", tokenID)
	if err != nil {
		return types.Ticket{}, err
	}

	return types.Ticket{ID: id, Owner: owner.Hex(), TokenURI: uri, QRHash: qrHash}, nil
}
