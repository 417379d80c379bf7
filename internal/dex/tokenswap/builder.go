// internal/dex/tokenswap/builder.go
package tokenswap

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// BuilderOptions настраивает сборку инструкций.
type BuilderOptions struct {
	// Slippage is the fractional tolerance applied to minimum outputs and
	// maximum inputs.
	Slippage float64
	// HostFeeOwner receives the host fee of swaps when set.
	HostFeeOwner solana.PublicKey
	// ProgramOwnerFeeAccount owns the fee account of new pools; the wallet
	// owns it when zero.
	ProgramOwnerFeeAccount solana.PublicKey
	Programs               Programs
}

// DefaultBuilderOptions возвращает настройки по умолчанию для сети.
func DefaultBuilderOptions(programs Programs) BuilderOptions {
	return BuilderOptions{
		Slippage: DefaultSlippage,
		Programs: programs,
	}
}

// Builder turns user requests into unsigned instruction sets. It reads pool
// and account state through the cache and never submits anything.
type Builder struct {
	cache    *cache.Cache
	accessor blockchain.Accessor
	metrics  *metrics.Collector
	logger   *zap.Logger
	opts     BuilderOptions

	rentMu sync.Mutex
	rent   map[uint64]uint64
}

// NewBuilder создает сборщик инструкций.
func NewBuilder(c *cache.Cache, accessor blockchain.Accessor, logger *zap.Logger, m *metrics.Collector, opts BuilderOptions) *Builder {
	if opts.Slippage < 0 || opts.Slippage >= 1 {
		opts.Slippage = DefaultSlippage
	}
	if opts.Programs.Token.IsZero() {
		opts.Programs.Token = solana.TokenProgramID
	}
	return &Builder{
		cache:    c,
		accessor: accessor,
		metrics:  m,
		logger:   logger.Named("tokenswap-builder"),
		opts:     opts,
		rent:     make(map[uint64]uint64),
	}
}

// Options returns the settings the builder was created with.
func (b *Builder) Options() BuilderOptions {
	return b.opts
}

// rentExempt returns the rent-exempt minimum for size bytes, memoized per size.
func (b *Builder) rentExempt(ctx context.Context, size uint64) (uint64, error) {
	b.rentMu.Lock()
	v, ok := b.rent[size]
	b.rentMu.Unlock()
	if ok {
		return v, nil
	}

	v, err := b.accessor.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, fmt.Errorf("rent for %d bytes: %w", size, err)
	}

	b.rentMu.Lock()
	b.rent[size] = v
	b.rentMu.Unlock()
	return v, nil
}

// poolAuthority loads the pool state and returns it with the liquidity mint's
// authority.
func (b *Builder) poolAuthority(ctx context.Context, pool *Pool) (*poolSnapshot, solana.PublicKey, error) {
	if pool == nil {
		return nil, solana.PublicKey{}, ErrPoolRequired
	}
	snap, err := loadSnapshot(ctx, b.cache, pool, false)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return snap, *snap.poolMint.MintAuthority, nil
}

func (b *Builder) finish(action *Action, fields ...zap.Field) *Action {
	b.metrics.ActionBuilt(action.Name)
	b.logger.Debug("Action built", append([]zap.Field{
		zap.String("action", action.Name),
		zap.Int("instructions", len(action.Instructions)),
		zap.Int("cleanup", len(action.Cleanup)),
		zap.Int("signers", len(action.Signers)),
	}, fields...)...)
	return action
}
