// Package token resolves ERC-20 token metadata.
package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DecimalsSource looks up decimals() on a token contract.
type DecimalsSource interface {
	TokenDecimals(ctx context.Context, token common.Address) (int32, error)
}

// Fixed resolves every token to the same precision.
type Fixed int32

// Decimals returns the fixed precision.
func (f Fixed) Decimals(context.Context, common.Address) int32 {
	return int32(f)
}

type entry struct {
	once     sync.Once
	decimals int32
}

// Resolver looks up token decimals on chain once per contract and falls back to
// a default when the contract does not answer. It is safe for concurrent use.
type Resolver struct {
	source   DecimalsSource
	fallback int32
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[common.Address]*entry
}

// NewResolver constructs a Resolver.
func NewResolver(source DecimalsSource, fallback int32, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source:   source,
		fallback: fallback,
		logger:   logger,
		entries:  make(map[common.Address]*entry),
	}
}

// Decimals returns the precision of token. Concurrent callers asking for the same
// token share a single lookup; the outcome, including the fallback, is cached.
func (r *Resolver) Decimals(ctx context.Context, token common.Address) int32 {
	r.mu.Lock()
	e, ok := r.entries[token]
	if !ok {
		e = &entry{}
		r.entries[token] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		decimals, err := r.source.TokenDecimals(ctx, token)
		if err != nil {
			r.logger.Warn("token decimals lookup failed, using fallback",
				zap.String("token", token.Hex()),
				zap.Int32("fallback", r.fallback),
				zap.Error(err),
			)
			decimals = r.fallback
		}
		e.decimals = decimals
	})
	return e.decimals
}

// Len returns the number of tokens resolved so far.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
