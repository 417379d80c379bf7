// internal/dex/tokenswap/dependent.go
package tokenswap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// poolSnapshot is the cached state a quote or a build depends on.
type poolSnapshot struct {
	poolMint *layout.Mint
	holdings [2]*layout.TokenAccount
	mints    [2]*layout.Mint
}

func (s *poolSnapshot) reserves() [2]uint64 {
	return [2]uint64{s.holdings[0].Amount, s.holdings[1].Amount}
}

func (s *poolSnapshot) decimals() [2]uint8 {
	return [2]uint8{s.mints[0].Decimals, s.mints[1].Decimals}
}

// loadSnapshot resolves the liquidity mint, both holding accounts and their
// mints through the cache, concurrently.
func loadSnapshot(ctx context.Context, c *cache.Cache, pool *Pool, withMints bool) (*poolSnapshot, error) {
	snap := &poolSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := c.QueryMint(gctx, pool.PoolMint)
		snap.poolMint = m
		return err
	})
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			acc, err := c.QueryTokenAccount(gctx, pool.HoldingAccounts[i])
			snap.holdings[i] = acc
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snap.poolMint.MintAuthority == nil {
		return nil, ErrMissingAuthority
	}
	if pool.HasHoldingMints() {
		for i := 0; i < 2; i++ {
			if !snap.holdings[i].Mint.Equals(pool.HoldingMints[i]) {
				return nil, &PoolStateError{Pool: pool.Address, Reason: "holding account mint does not match pool"}
			}
		}
	}
	if !withMints {
		return snap, nil
	}

	g, gctx = errgroup.WithContext(ctx)
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			m, err := c.QueryMint(gctx, snap.holdings[i].Mint)
			snap.mints[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// CalculateDependentAmount resolves the pool's reserves, decimals and
// liquidity supply through the cache and quotes the dependent amount.
func CalculateDependentAmount(
	ctx context.Context,
	c *cache.Cache,
	pool *Pool,
	independent solana.PublicKey,
	amount decimal.Decimal,
	op Operation,
) (QuoteResult, error) {
	if pool == nil {
		return QuoteResult{}, ErrPoolRequired
	}
	if !pool.HasHoldingMints() {
		return QuoteResult{}, &PoolStateError{Pool: pool.Address, Reason: "holding mints unresolved"}
	}

	snap, err := loadSnapshot(ctx, c, pool, true)
	if err != nil {
		return QuoteResult{}, err
	}

	return Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: independent,
		Amount:          amount,
		Operation:       op,
		Reserves:        snap.reserves(),
		Decimals:        snap.decimals(),
		LiquiditySupply: snap.poolMint.Supply,
	}), nil
}
