// internal/dex/tokenswap/fixture_test.go
package tokenswap

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/tokenswap-client/internal/blockchain/blockchaintest"
	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

var testProgram = solana.MustPublicKeyFromBase58("SwaPpA9LAaLfeLi3a68M4DjnLqgtticKg6CnyNwgAC8")

type fixture struct {
	t      *testing.T
	chain  *blockchaintest.Chain
	cache  *cache.Cache
	wallet solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chain := blockchaintest.NewChain()
	return &fixture{
		t:      t,
		chain:  chain,
		cache:  cache.New(chain, nil, zap.NewNop(), cache.Options{}),
		wallet: solana.NewWallet().PublicKey(),
	}
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func (f *fixture) tokenAccount(mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	f.t.Helper()
	raw, err := layout.EncodeTokenAccount(&layout.TokenAccount{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  layout.AccountInitialized,
	})
	require.NoError(f.t, err)
	addr := newKey()
	f.chain.Set(addr, solana.TokenProgramID, raw)
	return addr
}

// walletAccount stores a token account of the wallet and caches it, the way
// PrecacheOwner would.
func (f *fixture) walletAccount(mint solana.PublicKey, amount uint64) solana.PublicKey {
	f.t.Helper()
	addr := f.tokenAccount(mint, f.wallet, amount)
	_, err := f.cache.QueryTokenAccount(context.Background(), addr)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) mint(supply uint64, decimals uint8, authority *solana.PublicKey) solana.PublicKey {
	f.t.Helper()
	raw, err := layout.EncodeMint(&layout.Mint{
		MintAuthority: authority,
		Supply:        supply,
		Decimals:      decimals,
		IsInitialized: true,
	})
	require.NoError(f.t, err)
	addr := newKey()
	f.chain.Set(addr, solana.TokenProgramID, raw)
	return addr
}

type poolSpec struct {
	version  layout.PoolVersion
	reserves [2]uint64
	decimals [2]uint8
	supply   uint64
	mints    [2]solana.PublicKey // random when zero
	curve    layout.Curve
	program  solana.PublicKey // testProgram when zero
	// noAuthority leaves the liquidity mint without a mint authority.
	noAuthority bool
}

// pool stores a complete pool on the chain: both mints, both holdings, the
// liquidity mint, the fee account and the swap account itself.
func (f *fixture) pool(ps poolSpec) *Pool {
	f.t.Helper()
	if ps.version == layout.PoolVersionUnknown {
		ps.version = layout.PoolVersionCurrent
	}
	if ps.program.IsZero() {
		ps.program = testProgram
	}

	authority := newKey()
	var auth *solana.PublicKey
	if !ps.noAuthority {
		auth = &authority
	}

	state := &layout.PoolState{
		Version:       ps.version,
		IsInitialized: true,
		Nonce:         255,
		Curve:         ps.curve,
		Fees:          layout.Fees{TradeFeeNumerator: 25, TradeFeeDenominator: 10000},
	}
	var mints [2]solana.PublicKey
	for i := 0; i < 2; i++ {
		mints[i] = ps.mints[i]
		if mints[i].IsZero() {
			mints[i] = f.mint(1_000_000_000, ps.decimals[i], nil)
		}
	}
	state.TokenAccountA = f.tokenAccount(mints[0], authority, ps.reserves[0])
	state.TokenAccountB = f.tokenAccount(mints[1], authority, ps.reserves[1])
	state.PoolMint = f.mint(ps.supply, LiquidityTokenPrecision, auth)

	if ps.version != layout.PoolVersionLegacyV0 {
		state.TokenProgramID = solana.TokenProgramID
		state.MintA = mints[0]
		state.MintB = mints[1]
		state.FeeAccount = f.tokenAccount(state.PoolMint, newKey(), 0)
	}

	raw, err := layout.EncodePoolState(state)
	require.NoError(f.t, err)
	addr := newKey()
	f.chain.Set(addr, ps.program, raw)

	p := newPool(addr, ps.program, state, !ps.program.Equals(testProgram))
	p.HoldingMints = mints
	return p
}

func (f *fixture) builder(opts BuilderOptions) *Builder {
	if opts.Programs.Swap.IsZero() {
		opts.Programs.Swap = testProgram
	}
	if opts.Slippage == 0 {
		opts.Slippage = DefaultSlippage
	}
	return NewBuilder(f.cache, f.chain, zap.NewNop(), nil, opts)
}
