// Package chain is the JSON-RPC side of the distributor: contract calls,
// ERC-20 reads and writes, receipt polling and fee reads. One rpc.Client
// backs both the ethclient and the w3 batch client.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

// Options tunes the client. Zero values take the defaults below.
type Options struct {
	Distributor common.Address

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
	// Attempts and Backoff drive the retry of transient RPC failures.
	// Backoff doubles on rate limiting.
	Attempts uint
	Backoff  time.Duration
	// MaxConcurrency caps in-flight RPC calls.
	MaxConcurrency int
	// RPCDelay is the minimum spacing between calls. Zero disables throttling.
	RPCDelay time.Duration
	// PollInterval is how often Confirm asks for a receipt.
	PollInterval time.Duration
	// GasBufferPercent is added on top of gas estimates.
	GasBufferPercent int
}

const (
	defaultTimeout        = 30 * time.Second
	defaultAttempts       = 3
	defaultBackoff        = 200 * time.Millisecond
	defaultMaxConcurrency = 16
	defaultPollInterval   = 2 * time.Second
	defaultGasBuffer      = 10
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Attempts == 0 {
		o.Attempts = defaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = defaultBackoff
	}
	if o.MaxConcurrency <= 0 || o.MaxConcurrency > 256 {
		o.MaxConcurrency = defaultMaxConcurrency
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.GasBufferPercent <= 0 {
		o.GasBufferPercent = defaultGasBuffer
	}
	return o
}

// Client implements airdropcore.Chain and airdropcore.FeeReader.
type Client struct {
	rpc  *rpc.Client
	eth  *ethclient.Client
	w3   *w3.Client
	opts Options
	log  *zap.Logger

	gate    chan struct{}
	limiter *rate.Limiter
}

var (
	_ airdropcore.Chain     = (*Client)(nil)
	_ airdropcore.FeeReader = (*Client)(nil)
)

// Dial connects over HTTP with keep-alives and a per-request timeout.
func Dial(ctx context.Context, url string, opts Options, log *zap.Logger) (*Client, error) {
	opts = opts.withDefaults()
	transport := &http.Transport{
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(rc, opts, log), nil
}

// New wraps an existing RPC connection.
func New(rc *rpc.Client, opts Options, log *zap.Logger) *Client {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if opts.RPCDelay > 0 {
		limit = rate.Every(opts.RPCDelay)
	}
	return &Client{
		rpc:     rc,
		eth:     ethclient.NewClient(rc),
		w3:      w3.NewClient(rc),
		opts:    opts,
		log:     log.Named("chain"),
		gate:    make(chan struct{}, opts.MaxConcurrency),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Distributor is the airdrop contract this client targets.
func (c *Client) Distributor() common.Address { return c.opts.Distributor }

// ForDistributor returns a client targeting addr. The copy shares the
// connection, gate and limiter with c.
func (c *Client) ForDistributor(addr common.Address) *Client {
	cp := *c
	cp.opts.Distributor = addr
	return &cp
}

// Eth exposes the underlying ethclient for callers that need raw access.
func (c *Client) Eth() *ethclient.Client { return c.eth }

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.do(ctx, "chain_id", func(ctx context.Context) (err error) {
		id, err = c.eth.ChainID(ctx)
		return err
	})
	return id, err
}

func (c *Client) Balance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var bal *big.Int
	err := c.do(ctx, "balance", func(ctx context.Context) (err error) {
		bal, err = c.eth.BalanceAt(ctx, owner, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", owner.Hex(), err)
	}
	return bal, nil
}

// Close releases the connection.
func (c *Client) Close() { c.rpc.Close() }
