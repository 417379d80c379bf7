// internal/dex/tokenswap/basket.go
package tokenswap

import (
	"context"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// Resolver picks the pool serving an unordered pair of mints.
type Resolver struct {
	registry *Registry
	cache    *cache.Cache
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewResolver creates a resolver over the registry's pools.
func NewResolver(registry *Registry, c *cache.Cache, logger *zap.Logger, m *metrics.Collector) *Resolver {
	return &Resolver{
		registry: registry,
		cache:    c,
		metrics:  m,
		logger:   logger.Named("basket-resolver"),
	}
}

// Candidates returns the routable pools for {mintA, mintB} in registry order.
// Legacy pools and pools with unresolved holding mints never match.
func (r *Resolver) Candidates(mintA, mintB solana.PublicKey) []*Pool {
	var out []*Pool
	for _, p := range r.registry.Pools() {
		if p.Legacy {
			continue
		}
		if p.Matches(mintA, mintB) {
			out = append(out, p)
		}
	}
	return out
}

// Resolve returns the candidate with the largest combined raw reserves. Ties
// keep the earlier candidate. It returns nil, nil when no candidate holds
// any reserves.
func (r *Resolver) Resolve(ctx context.Context, mintA, mintB solana.PublicKey) (*Pool, error) {
	candidates := r.Candidates(mintA, mintB)
	if len(candidates) == 0 {
		return nil, nil
	}

	totals := make([]*big.Int, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range candidates {
		i, p := i, p
		g.Go(func() error {
			var reserves [2]uint64
			for side := 0; side < 2; side++ {
				acc, err := r.cache.QueryTokenAccount(gctx, p.HoldingAccounts[side])
				if err != nil {
					return err
				}
				reserves[side] = acc.Amount
			}
			r.metrics.SetPoolReserves(p.Address.String(), reserves)

			sum := new(big.Int).SetUint64(reserves[0])
			totals[i] = sum.Add(sum, new(big.Int).SetUint64(reserves[1]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		best     *Pool
		bestSize = new(big.Int)
	)
	for i, p := range candidates {
		if totals[i].Cmp(bestSize) > 0 {
			best = p
			bestSize = totals[i]
		}
	}

	if best != nil {
		r.logger.Debug("Basket resolved",
			zap.String("pool", best.Address.String()),
			zap.Int("candidates", len(candidates)),
			zap.String("reserves", bestSize.String()))
	}
	return best, nil
}
