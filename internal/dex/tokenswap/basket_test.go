// internal/dex/tokenswap/basket_test.go
package tokenswap

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// basketFixture discovers every pool stored on the fixture chain.
func basketFixture(t *testing.T, f *fixture) *Resolver {
	t.Helper()
	r := f.registry()
	_, err := r.Discover(context.Background(), testProgram, []solana.PublicKey{testLegacyProgram})
	require.NoError(t, err)
	return NewResolver(r, f.cache, zap.NewNop(), nil)
}

func TestResolvePicksLargestReserves(t *testing.T) {
	f := newFixture(t)
	a, b := f.mint(0, 6, nil), f.mint(0, 6, nil)

	f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, reserves: [2]uint64{50, 50}, supply: 1})
	big := f.pool(poolSpec{mints: [2]solana.PublicKey{b, a}, reserves: [2]uint64{250, 250}, supply: 1})
	f.pool(poolSpec{mints: [2]solana.PublicKey{a, newKey()}, reserves: [2]uint64{9000, 9000}, supply: 1})

	res := basketFixture(t, f)
	require.Len(t, res.Candidates(a, b), 2)

	got, err := res.Resolve(context.Background(), a, b)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, big.Address, got.Address)

	// The pair is unordered.
	got, err = res.Resolve(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, big.Address, got.Address)
}

func TestResolveTieKeepsFirstCandidate(t *testing.T) {
	f := newFixture(t)
	a, b := f.mint(0, 6, nil), f.mint(0, 6, nil)
	f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, reserves: [2]uint64{100, 200}, supply: 1})
	f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, reserves: [2]uint64{200, 100}, supply: 1})

	res := basketFixture(t, f)
	candidates := res.Candidates(a, b)
	require.Len(t, candidates, 2)

	got, err := res.Resolve(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, candidates[0].Address, got.Address)
}

func TestResolveExcludesLegacyPools(t *testing.T) {
	f := newFixture(t)
	a, b := f.mint(0, 6, nil), f.mint(0, 6, nil)
	current := f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, reserves: [2]uint64{100, 100}, supply: 1})
	f.pool(poolSpec{
		version:  layout.PoolVersionV1,
		program:  testLegacyProgram,
		mints:    [2]solana.PublicKey{a, b},
		reserves: [2]uint64{1_000_000, 1_000_000},
		supply:   1,
	})

	res := basketFixture(t, f)
	require.Len(t, res.Candidates(a, b), 1)

	got, err := res.Resolve(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, current.Address, got.Address)
}

func TestResolveWithoutReserves(t *testing.T) {
	f := newFixture(t)
	a, b := f.mint(0, 6, nil), f.mint(0, 6, nil)
	f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, supply: 1})

	res := basketFixture(t, f)

	got, err := res.Resolve(context.Background(), a, b)
	require.NoError(t, err)
	assert.Nil(t, got, "empty pools never win")

	got, err = res.Resolve(context.Background(), a, newKey())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolvePropagatesFetchErrors(t *testing.T) {
	f := newFixture(t)
	a, b := f.mint(0, 6, nil), f.mint(0, 6, nil)
	pool := f.pool(poolSpec{mints: [2]solana.PublicKey{a, b}, reserves: [2]uint64{1, 1}, supply: 1})
	res := basketFixture(t, f)

	f.chain.Remove(pool.HoldingAccounts[0])
	_, err := res.Resolve(context.Background(), a, b)
	assert.Error(t, err)
}
