// internal/dex/tokenswap/registry_test.go
package tokenswap

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain"
	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain/blockchaintest"
	"github.com/rovshanmuradov/tokenswap-client/internal/events"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
	"github.com/rovshanmuradov/tokenswap-client/internal/utils/metrics"
)

var testLegacyProgram = solana.MustPublicKeyFromBase58("9tdctNJuFsYZ6VrKfKEuwwbPp4SFdFw3jYBZU8QUtzeX")

func (f *fixture) registry() *Registry {
	return NewRegistry(f.cache, f.chain, zap.NewNop(), metrics.NewCollector())
}

func countEvents(f *fixture, typ events.EventType) *atomic.Int64 {
	var n atomic.Int64
	f.cache.Bus().SubscribeFunc(typ, func(context.Context, events.Event) error {
		n.Add(1)
		return nil
	})
	return &n
}

func TestDiscoverCurrentAndLegacyPools(t *testing.T) {
	f := newFixture(t)
	current := f.pool(poolSpec{reserves: [2]uint64{10, 10}, supply: 1})
	legacyV0 := f.pool(poolSpec{version: layout.PoolVersionLegacyV0, program: testLegacyProgram, reserves: [2]uint64{5, 5}, supply: 1})
	legacyV1 := f.pool(poolSpec{version: layout.PoolVersionV1, program: testLegacyProgram, reserves: [2]uint64{5, 5}, supply: 1})
	discovered := countEvents(f, events.PoolsDiscovered)

	r := f.registry()
	pools, err := r.Discover(context.Background(), testProgram, []solana.PublicKey{testLegacyProgram})
	require.NoError(t, err)
	require.Len(t, pools, 3)
	assert.Equal(t, int64(1), discovered.Load())

	// Current program first, legacy programs after it.
	assert.Equal(t, current.Address, pools[0].Address)
	assert.False(t, pools[0].Legacy)
	assert.True(t, pools[0].IsLatest())

	v0, ok := r.Pool(legacyV0.Address)
	require.True(t, ok)
	assert.True(t, v0.Legacy)
	assert.Equal(t, layout.PoolVersionLegacyV0, v0.Version)
	assert.Equal(t, legacyV0.HoldingMints, v0.HoldingMints, "legacy-v0 mints come from the holding accounts")
	assert.False(t, v0.HasFeeAccount())

	v1, ok := r.Pool(legacyV1.Address)
	require.True(t, ok)
	assert.Equal(t, layout.PoolVersionV1, v1.Version)
	assert.Equal(t, legacyV1.HoldingMints, v1.HoldingMints)
}

func TestDiscoverUnresolvedLegacyPoolStays(t *testing.T) {
	f := newFixture(t)
	legacy := f.pool(poolSpec{version: layout.PoolVersionLegacyV0, program: testLegacyProgram, supply: 1})
	f.chain.Remove(legacy.HoldingAccounts[1])

	r := f.registry()
	_, err := r.Discover(context.Background(), testProgram, []solana.PublicKey{testLegacyProgram})
	require.NoError(t, err)

	got, ok := r.Pool(legacy.Address)
	require.True(t, ok)
	assert.False(t, got.HasHoldingMints())
	assert.False(t, got.Matches(legacy.HoldingMints[0], legacy.HoldingMints[1]))
}

func TestDiscoverFailures(t *testing.T) {
	f := newFixture(t)
	current := f.pool(poolSpec{supply: 1})
	boom := errors.New("rpc down")

	f.chain.Fail(testLegacyProgram, boom)
	pools, err := f.registry().Discover(context.Background(), testProgram, []solana.PublicKey{testLegacyProgram})
	require.NoError(t, err, "a failing legacy program is skipped")
	require.Len(t, pools, 1)
	assert.Equal(t, current.Address, pools[0].Address)

	f.chain.Fail(testProgram, boom)
	_, err = f.registry().Discover(context.Background(), testProgram, nil)
	assert.ErrorIs(t, err, boom)
}

func TestPrewarmFetchesMissingOnce(t *testing.T) {
	f := newFixture(t)
	f.pool(poolSpec{supply: 1})

	r := f.registry()
	_, err := r.Discover(context.Background(), testProgram, nil)
	require.NoError(t, err)

	// Two holdings, two holding mints, the liquidity mint and the fee account.
	n, err := r.Prewarm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, int64(1), f.chain.MultipleCalls.Load())

	n, err = r.Prewarm(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), f.chain.MultipleCalls.Load())
}

func TestSubscribeReplacesPoolRecords(t *testing.T) {
	f := newFixture(t)
	pool := f.pool(poolSpec{supply: 1})
	r := f.registry()

	require.Error(t, r.Subscribe(context.Background(), f.chain), "subscribing needs a discovered program")

	_, err := r.Discover(context.Background(), testProgram, nil)
	require.NoError(t, err)
	before, _ := r.Pool(pool.Address)

	updated := countEvents(f, events.PoolUpdated)
	require.NoError(t, r.Subscribe(context.Background(), f.chain))

	state := &layout.PoolState{
		Version:        layout.PoolVersionCurrent,
		IsInitialized:  true,
		Nonce:          pool.Nonce,
		TokenProgramID: solana.TokenProgramID,
		TokenAccountA:  pool.HoldingAccounts[0],
		TokenAccountB:  pool.HoldingAccounts[1],
		PoolMint:       pool.PoolMint,
		MintA:          pool.HoldingMints[0],
		MintB:          pool.HoldingMints[1],
		FeeAccount:     pool.FeeAccount,
		Fees:           layout.Fees{TradeFeeNumerator: 30, TradeFeeDenominator: 10000},
	}
	raw, err := layout.EncodePoolState(state)
	require.NoError(t, err)
	f.chain.Push(pool.Address, testProgram, raw)

	after, ok := r.Pool(pool.Address)
	require.True(t, ok)
	assert.Equal(t, uint64(30), after.Fees.TradeFeeNumerator)
	assert.Equal(t, uint64(25), before.Fees.TradeFeeNumerator, "published records are never mutated")
	assert.Equal(t, int64(1), updated.Load())
	assert.Len(t, r.Pools(), 1)

	// Older layouts pushed on the program are ignored.
	state.Version = layout.PoolVersionV1
	oldRaw, err := layout.EncodePoolState(state)
	require.NoError(t, err)
	f.chain.Push(newKey(), testProgram, oldRaw)
	assert.Len(t, r.Pools(), 1)

	// A second subscription replaces the first; pushes are delivered once.
	require.NoError(t, r.Subscribe(context.Background(), f.chain))
	assert.Equal(t, int64(1), f.chain.UnsubscribeCalls.Load())
	f.chain.Push(pool.Address, testProgram, raw)
	assert.Equal(t, int64(2), updated.Load())

	r.Unsubscribe()
	f.chain.Push(pool.Address, testProgram, raw)
	assert.Equal(t, int64(2), updated.Load())
}

func TestOwnedPools(t *testing.T) {
	f := newFixture(t)
	pool := f.pool(poolSpec{supply: 100})
	r := f.registry()
	_, err := r.Discover(context.Background(), testProgram, nil)
	require.NoError(t, err)

	lp := f.walletAccount(pool.PoolMint, 40)
	f.walletAccount(pool.PoolMint, 0)
	f.walletAccount(pool.HoldingMints[0], 7)

	owned := r.OwnedPools(f.wallet)
	require.Len(t, owned, 1, "empty liquidity accounts are not positions")
	assert.Equal(t, pool.Address, owned[0].Pool.Address)
	assert.Equal(t, lp, owned[0].Account.Address)
	assert.False(t, owned[0].IsFeeAccount)

	fee, err := f.cache.QueryTokenAccount(context.Background(), pool.FeeAccount)
	require.NoError(t, err)
	assert.Empty(t, r.OwnedPools(fee.Owner))

	funded := *fee
	funded.Amount = 3
	raw, err := layout.EncodeTokenAccount(&funded)
	require.NoError(t, err)
	_, err = f.cache.AddRaw(pool.FeeAccount, raw)
	require.NoError(t, err)

	owned = r.OwnedPools(fee.Owner)
	require.Len(t, owned, 1)
	assert.True(t, owned[0].IsFeeAccount)
}

// pushingSubscriber delivers a push as soon as each program listener is
// installed.
type pushingSubscriber struct {
	*blockchaintest.Chain
	push func()
}

func (p *pushingSubscriber) SubscribeProgram(ctx context.Context, program solana.PublicKey, handler blockchain.AccountHandler) (blockchain.Subscription, error) {
	sub, err := p.Chain.SubscribeProgram(ctx, program, handler)
	if err == nil && p.push != nil {
		p.push()
	}
	return sub, err
}

func TestResubscribeDeliversPushOnce(t *testing.T) {
	f := newFixture(t)
	pool := f.pool(poolSpec{supply: 1})
	r := f.registry()
	_, err := r.Discover(context.Background(), testProgram, nil)
	require.NoError(t, err)

	current, err := f.chain.GetAccount(context.Background(), pool.Address)
	require.NoError(t, err)

	updated := countEvents(f, events.PoolUpdated)
	sub := &pushingSubscriber{Chain: f.chain}
	require.NoError(t, r.Subscribe(context.Background(), sub))
	assert.Zero(t, updated.Load())

	sub.push = func() { f.chain.Push(pool.Address, testProgram, current.Data) }
	require.NoError(t, r.Subscribe(context.Background(), sub))
	assert.Equal(t, int64(1), updated.Load(), "the replaced listener is gone before the new one starts")
	assert.Equal(t, int64(1), f.chain.UnsubscribeCalls.Load())

	f.chain.Fail(testProgram, errors.New("ws down"))
	assert.Error(t, r.Subscribe(context.Background(), sub))
	f.chain.Push(pool.Address, testProgram, current.Data)
	assert.Equal(t, int64(1), updated.Load(), "a failed resubscribe leaves no listener")
}
