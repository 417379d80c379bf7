// internal/dex/tokenswap/registry.go
package tokenswap

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

// Registry holds the pools discovered for one session.
type Registry struct {
	cache    *cache.Cache
	accessor blockchain.Accessor
	metrics  *metrics.Collector
	logger   *zap.Logger

	mu        sync.RWMutex
	pools     []*Pool
	index     map[solana.PublicKey]int
	programID solana.PublicKey

	subMu sync.Mutex
	sub   blockchain.Subscription
}

// NewRegistry creates an empty registry reading through c.
func NewRegistry(c *cache.Cache, accessor blockchain.Accessor, logger *zap.Logger, m *metrics.Collector) *Registry {
	return &Registry{
		cache:    c,
		accessor: accessor,
		metrics:  m,
		logger:   logger.Named("pool-registry"),
		index:    make(map[solana.PublicKey]int),
	}
}

// Discover loads every pool owned by programID and the legacy ids. A failure
// on the current program fails discovery; a failing legacy program is
// logged and skipped. Legacy-v0 holding mints are resolved before returning;
// pools whose resolution fails stay in the registry without mints.
func (r *Registry) Discover(ctx context.Context, programID solana.PublicKey, legacyIDs []solana.PublicKey) ([]*Pool, error) {
	ids := append([]solana.PublicKey{programID}, legacyIDs...)
	found := make([][]*Pool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		legacy := i > 0
		g.Go(func() error {
			pools, err := r.discoverProgram(gctx, id, legacy)
			if err != nil {
				if legacy && gctx.Err() == nil {
					r.logger.Warn("Legacy program discovery failed",
						zap.String("program", id.String()),
						zap.Error(err))
					return nil
				}
				return fmt.Errorf("discover %s: %w", id, err)
			}
			found[i] = pools
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*Pool
	for _, pools := range found {
		all = append(all, pools...)
	}

	r.resolveHoldingMints(ctx, all)

	r.mu.Lock()
	r.programID = programID
	r.pools = all
	r.reindex()
	out := append([]*Pool(nil), r.pools...)
	r.mu.Unlock()

	legacy := 0
	for _, p := range out {
		if p.Legacy {
			legacy++
		}
	}
	r.logger.Info("Pools discovered",
		zap.Int("total", len(out)),
		zap.Int("legacy", legacy))
	r.publish(events.NewPoolsDiscovered(len(out), legacy))
	return out, nil
}

// discoverProgram fetches and decodes the pools of one program, one request
// per known pool layout size.
func (r *Registry) discoverProgram(ctx context.Context, program solana.PublicKey, legacy bool) ([]*Pool, error) {
	var pools []*Pool
	for _, size := range layout.PoolSizes() {
		infos, err := r.accessor.GetProgramAccounts(ctx, program, uint64(size))
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			rec, err := r.cache.Add(info.Address, info, cache.ParserPool)
			if err != nil {
				r.logger.Debug("Skipping undecodable pool",
					zap.String("address", info.Address.String()),
					zap.Error(err))
				continue
			}
			pools = append(pools, newPool(info.Address, program, rec.Pool, legacy))
		}
	}

	sort.Slice(pools, func(i, j int) bool {
		return bytes.Compare(pools[i].Address[:], pools[j].Address[:]) < 0
	})
	return pools, nil
}

// resolveHoldingMints fills the holding mints of legacy-v0 pools from their
// holding accounts. Failures are logged and leave the pool unmatched.
func (r *Registry) resolveHoldingMints(ctx context.Context, pools []*Pool) {
	var wg sync.WaitGroup
	for i, p := range pools {
		if p.HasHoldingMints() {
			continue
		}
		wg.Add(1)
		go func(i int, p *Pool) {
			defer wg.Done()

			var mints [2]solana.PublicKey
			for side := 0; side < 2; side++ {
				acc, err := r.cache.QueryTokenAccount(ctx, p.HoldingAccounts[side])
				if err != nil {
					r.logger.Warn("Holding mint resolution failed",
						zap.String("pool", p.Address.String()),
						zap.String("holding", p.HoldingAccounts[side].String()),
						zap.Error(err))
					return
				}
				mints[side] = acc.Mint
			}

			resolved := p.clone()
			resolved.HoldingMints = mints
			pools[i] = resolved
		}(i, p)
	}
	wg.Wait()
}

// Prewarm bulk-fetches every account the known pools reference and that is
// not cached yet. It returns the number of records stored.
func (r *Registry) Prewarm(ctx context.Context) (int, error) {
	var addrs []solana.PublicKey
	for _, p := range r.Pools() {
		addrs = append(addrs, p.HoldingAccounts[0], p.HoldingAccounts[1], p.PoolMint)
		if p.HasHoldingMints() {
			addrs = append(addrs, p.HoldingMints[0], p.HoldingMints[1])
		}
		if p.HasFeeAccount() {
			addrs = append(addrs, p.FeeAccount)
		}
	}

	missing := r.cache.Missing(addrs)
	sort.Slice(missing, func(i, j int) bool {
		return bytes.Compare(missing[i][:], missing[j][:]) < 0
	})
	if len(missing) == 0 {
		return 0, nil
	}

	got, err := r.cache.FetchMultiple(ctx, missing)
	r.logger.Debug("Pool accounts prewarmed",
		zap.Int("requested", len(missing)),
		zap.Int("stored", len(got)))
	return len(got), err
}

// Subscribe listens to the current swap program and replaces the matching
// pool record on every push decoded with the current layout. Calling it
// again replaces the previous listener; the old one is stopped first so a
// push is never applied twice.
func (r *Registry) Subscribe(ctx context.Context, sub blockchain.Subscriber) error {
	r.mu.RLock()
	program := r.programID
	r.mu.RUnlock()
	if program.IsZero() {
		return fmt.Errorf("subscribe before discovery")
	}

	r.subMu.Lock()
	defer r.subMu.Unlock()
	if r.sub != nil {
		r.sub.Unsubscribe()
		r.sub = nil
	}

	next, err := sub.SubscribeProgram(ctx, program, func(info *blockchain.AccountInfo) {
		r.applyUpdate(program, info)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", program, err)
	}
	r.sub = next
	return nil
}

// Unsubscribe stops the pool listener. Registry contents are kept.
func (r *Registry) Unsubscribe() {
	r.subMu.Lock()
	prev := r.sub
	r.sub = nil
	r.subMu.Unlock()

	if prev != nil {
		prev.Unsubscribe()
	}
}

func (r *Registry) applyUpdate(program solana.PublicKey, info *blockchain.AccountInfo) {
	if len(info.Data) != layout.PoolCurrentSize {
		return
	}
	state, err := layout.DecodePoolState(info.Data)
	if err != nil {
		r.logger.Debug("Pool push rejected", zap.String("address", info.Address.String()), zap.Error(err))
		return
	}
	if _, err := r.cache.Add(info.Address, info, cache.ParserPool); err != nil {
		r.logger.Debug("Pool push not cached", zap.Error(err))
	}

	updated := newPool(info.Address, program, state, false)

	r.mu.Lock()
	if i, ok := r.index[info.Address]; ok {
		r.pools[i] = updated
	} else {
		r.index[info.Address] = len(r.pools)
		r.pools = append(r.pools, updated)
	}
	r.mu.Unlock()

	r.publish(events.NewPoolUpdated(info.Address.String()))
}

// Pools returns a snapshot of the registry in discovery order.
func (r *Registry) Pools() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Pool(nil), r.pools...)
}

// Pool returns the pool at address.
func (r *Registry) Pool(address solana.PublicKey) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[address]
	if !ok {
		return nil, false
	}
	return r.pools[i], true
}

// OwnedPool is a liquidity position of a wallet.
type OwnedPool struct {
	Pool    *Pool
	Account *cache.Record
	// IsFeeAccount marks the pool's fee account, which accrues owner fees.
	IsFeeAccount bool
}

// OwnedPools lists cached liquidity-token accounts of owner with a positive
// balance, grouped by pool.
func (r *Registry) OwnedPools(owner solana.PublicKey) []OwnedPool {
	byMint := make(map[solana.PublicKey][]*cache.Record)
	for _, rec := range r.cache.AccountsByOwner(owner) {
		if rec.Synthetic || rec.Account == nil || rec.Account.Amount == 0 {
			continue
		}
		byMint[rec.Account.Mint] = append(byMint[rec.Account.Mint], rec)
	}

	var out []OwnedPool
	for _, p := range r.Pools() {
		for _, rec := range byMint[p.PoolMint] {
			out = append(out, OwnedPool{
				Pool:         p,
				Account:      rec,
				IsFeeAccount: p.HasFeeAccount() && rec.Address.Equals(p.FeeAccount),
			})
		}
	}
	return out
}

func (r *Registry) reindex() {
	r.index = make(map[solana.PublicKey]int, len(r.pools))
	for i, p := range r.pools {
		r.index[p.Address] = i
	}
}

func (r *Registry) publish(e events.Event) {
	if err := r.cache.Bus().PublishSync(context.Background(), e); err != nil {
		r.logger.Debug("Pool event handler failed", zap.Error(err))
	}
}
