// Package node provides an instrumented JSON-RPC client for EVM nodes.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goodnatureofminers/transferscan/internal/clock"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxRetryBackoff       = 10 * time.Second

	maxTokenDecimals = 255
)

// decimals()
var decimalsSelector = []byte{0x31, 0x3c, 0xe5, 0x67}

// ErrNoDecimals is returned when a contract does not answer decimals() with a value.
var ErrNoDecimals = errors.New("contract returned no decimals")

// Config controls request timeouts and retries.
type Config struct {
	// RequestTimeout bounds every single request. Zero means 30s.
	RequestTimeout time.Duration
	// Retries is the number of extra attempts after a failed request.
	Retries int
	// RetryBackoff is the delay before the first retry; it doubles per attempt.
	RetryBackoff time.Duration
}

// Client is an EVM node client instrumented with metrics, timeouts and retries.
// It is safe for concurrent use.
type Client struct {
	eth     EthClient
	raw     RawCaller
	cfg     Config
	metrics RPCMetrics
	logger  *zap.Logger
	closeFn func()
}

// Dial connects to the node at url over HTTP(S), WS or IPC.
func Dial(ctx context.Context, url string, cfg Config, metrics RPCMetrics, logger *zap.Logger) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial node: %w", err)
	}
	c := NewClient(ethclient.NewClient(rc), rc, cfg, metrics, logger)
	c.closeFn = rc.Close
	return c, nil
}

// NewClient constructs a Client over already connected transports.
func NewClient(eth EthClient, raw RawCaller, cfg Config, metrics RPCMetrics, logger *zap.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		eth:     eth,
		raw:     raw,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.do(ctx, "chain_id", func(ctx context.Context) (err error) {
		id, err = c.eth.ChainID(ctx)
		return err
	})
	return id, err
}

// BlockNumber returns the current chain head.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var head uint64
	err := c.do(ctx, "block_number", func(ctx context.Context) (err error) {
		head, err = c.eth.BlockNumber(ctx)
		return err
	})
	return head, err
}

// BlockTimestamp returns the header timestamp of a block in Unix seconds.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var ts uint64
	err := c.do(ctx, "block_timestamp", func(ctx context.Context) error {
		header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return err
		}
		if header == nil {
			return ethereum.NotFound
		}
		ts = header.Time
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("block %d timestamp: %w", number, err)
	}
	return ts, nil
}

// BlockWithTransactions returns a block with its full, ordered transaction bodies.
func (c *Client) BlockWithTransactions(ctx context.Context, number uint64) (model.Block, error) {
	var block model.Block
	err := c.do(ctx, "block_with_transactions", func(ctx context.Context) error {
		var raw json.RawMessage
		if err := c.raw.CallContext(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true); err != nil {
			return err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return ethereum.NotFound
		}
		var err error
		block, err = decodeBlock(raw, number)
		return err
	})
	if err != nil {
		return model.Block{}, fmt.Errorf("block %d: %w", number, err)
	}
	return block, nil
}

// TokenDecimals calls decimals() on an ERC-20 contract at the latest block.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (int32, error) {
	var out []byte
	err := c.do(ctx, "token_decimals", func(ctx context.Context) (err error) {
		out, err = c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: decimalsSelector}, nil)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("decimals of %s: %w", token.Hex(), err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("decimals of %s: %w", token.Hex(), ErrNoDecimals)
	}
	if len(out) > 32 {
		out = out[:32]
	}
	v := new(big.Int).SetBytes(out)
	if !v.IsInt64() || v.Int64() > maxTokenDecimals {
		return 0, fmt.Errorf("decimals of %s: value %s out of range", token.Hex(), v)
	}
	return int32(v.Int64()), nil
}

// do runs call under a per-request timeout, retrying transient failures.
func (c *Client) do(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, operation, call)
		if err == nil {
			return nil
		}
		if attempt >= c.cfg.Retries || !c.retryable(ctx, err) {
			return err
		}

		delay := clock.Backoff(c.cfg.RetryBackoff, attempt, maxRetryBackoff)
		c.logger.Debug("retrying node request",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if sleepErr := clock.SleepWithContext(ctx, delay); sleepErr != nil {
			return err
		}
	}
}

func (c *Client) attempt(ctx context.Context, operation string, call func(ctx context.Context) error) (err error) {
	started := time.Now()
	defer func() {
		c.observe(operation, err, started)
	}()

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return call(reqCtx)
}

func (c *Client) retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ethereum.NotFound) || errors.Is(err, ErrMalformedBlock) {
		return false
	}
	// The node answered with a JSON-RPC error such as a revert.
	var rpcErr rpc.Error
	return !errors.As(err, &rpcErr)
}

func (c *Client) observe(operation string, err error, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.Observe(operation, err, started)
}
