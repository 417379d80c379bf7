// internal/dex/tokenswap/calculations_test.go
package tokenswap

import (
	"context"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

func quotePool(curve layout.Curve) *Pool {
	return &Pool{
		Address:      newKey(),
		HoldingMints: [2]solana.PublicKey{newKey(), newKey()},
		Curve:        curve,
		Version:      layout.PoolVersionCurrent,
	}
}

func TestQuoteSwapGivenInput(t *testing.T) {
	pool := quotePool(layout.Curve{})
	res := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.NewFromInt(1000),
		Operation:       OperationSwapGivenInput,
		Reserves:        [2]uint64{1_000_000, 500_000},
		LiquiditySupply: 1,
	})

	require.True(t, res.OK())
	want := big.NewRat(500_000*1000, 1_001_000)
	assert.Zero(t, want.Cmp(res.Raw), "got %s", res.Raw.RatString())
	assert.Equal(t, pool.HoldingMints[1], res.DependentMint)
	assert.Equal(t, uint64(499), res.RawFloor())
	assert.True(t, res.Amount.Sub(decimal.RequireFromString("499.5004995004995005")).Abs().LessThan(decimal.New(1, -15)))
}

func TestQuoteInverseConsistency(t *testing.T) {
	pool := quotePool(layout.Curve{})
	reserves := [2]uint64{1_000_000, 500_000}

	out := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.NewFromInt(1000),
		Operation:       OperationSwapGivenInput,
		Reserves:        reserves,
		LiquiditySupply: 1,
	})
	require.True(t, out.OK())

	// Buying back exactly those proceeds against the same reserves costs the original input.
	back := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[1],
		Amount:          out.Amount,
		Operation:       OperationSwapGivenProceeds,
		Reserves:        reserves,
		LiquiditySupply: 1,
	})
	require.True(t, back.OK())
	assert.True(t, back.Amount.Sub(decimal.NewFromInt(1000)).Abs().LessThan(decimal.New(1, -9)), "got %s", back.Amount)

	// Against post-trade reserves the inverse still quotes, within half a percent.
	after := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[1],
		Amount:          out.Amount,
		Operation:       OperationSwapGivenProceeds,
		Reserves:        [2]uint64{1_001_000, 500_000 - out.RawFloor()},
		LiquiditySupply: 1,
	})
	require.True(t, after.OK())
	diff := after.Amount.Sub(decimal.NewFromInt(1000)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromInt(5)), "got %s", after.Amount)
}

func TestQuoteAddUsesOffset(t *testing.T) {
	pool := quotePool(layout.NewCurve(layout.CurveConstantProductWithOffset, 1000))

	res := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.NewFromInt(10),
		Operation:       OperationAdd,
		Reserves:        [2]uint64{1000, 0},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(10)), "got %s", res.Amount)

	plain := quotePool(layout.Curve{})
	res = Quote(QuoteInput{
		Pool:            plain,
		IndependentMint: plain.HoldingMints[0],
		Amount:          decimal.NewFromInt(10),
		Operation:       OperationAdd,
		Reserves:        [2]uint64{1000, 0},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	assert.True(t, res.Amount.IsZero())
}

func TestQuoteAddOffsetStacksOnReserve(t *testing.T) {
	pool := quotePool(layout.NewCurve(layout.CurveConstantProductWithOffset, 200_000))

	// 10 · (50_000 + 200_000) / 1_000; y alone gives 500, the offset alone 2_000.
	res := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.NewFromInt(10),
		Operation:       OperationAdd,
		Reserves:        [2]uint64{1_000, 50_000},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(2_500)), "got %s", res.Amount)
	assert.Zero(t, big.NewRat(2_500, 1).Cmp(res.Raw))

	// From the B side the offset sits on the independent reserve.
	res = Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[1],
		Amount:          decimal.NewFromInt(2_500),
		Operation:       OperationAdd,
		Reserves:        [2]uint64{1_000, 50_000},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(10)), "got %s", res.Amount)
}

func TestQuoteStatuses(t *testing.T) {
	pool := quotePool(layout.Curve{})

	tests := []struct {
		name   string
		in     QuoteInput
		status QuoteStatus
	}{
		{
			name: "proceeds equal to reserve",
			in: QuoteInput{
				IndependentMint: pool.HoldingMints[1],
				Amount:          decimal.NewFromInt(500_000),
				Operation:       OperationSwapGivenProceeds,
				Reserves:        [2]uint64{1_000_000, 500_000},
				LiquiditySupply: 1,
			},
			status: QuoteImpossible,
		},
		{
			name: "proceeds above reserve",
			in: QuoteInput{
				IndependentMint: pool.HoldingMints[1],
				Amount:          decimal.NewFromInt(600_000),
				Operation:       OperationSwapGivenProceeds,
				Reserves:        [2]uint64{1_000_000, 500_000},
				LiquiditySupply: 1,
			},
			status: QuoteImpossible,
		},
		{
			name: "empty liquidity supply",
			in: QuoteInput{
				IndependentMint: pool.HoldingMints[0],
				Amount:          decimal.NewFromInt(1),
				Operation:       OperationSwapGivenInput,
				Reserves:        [2]uint64{1_000_000, 500_000},
			},
			status: QuoteNoQuote,
		},
		{
			name: "foreign mint",
			in: QuoteInput{
				IndependentMint: newKey(),
				Amount:          decimal.NewFromInt(1),
				Operation:       OperationSwapGivenInput,
				Reserves:        [2]uint64{1_000_000, 500_000},
				LiquiditySupply: 1,
			},
			status: QuoteNoQuote,
		},
		{
			name: "add into empty reserve",
			in: QuoteInput{
				IndependentMint: pool.HoldingMints[0],
				Amount:          decimal.NewFromInt(1),
				Operation:       OperationAdd,
				Reserves:        [2]uint64{0, 500_000},
				LiquiditySupply: 1,
			},
			status: QuoteNoQuote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Pool = pool
			res := Quote(tt.in)
			assert.Equal(t, tt.status, res.Status)
			assert.Nil(t, res.Raw)
			assert.True(t, res.Amount.IsZero())
			if tt.status == QuoteImpossible {
				assert.ErrorIs(t, res.Err(), ErrInsufficientReserve)
			} else {
				assert.NoError(t, res.Err())
			}
		})
	}
}

func TestQuoteConstantPrice(t *testing.T) {
	pool := quotePool(layout.NewCurve(layout.CurveConstantPrice, 200))
	res := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.NewFromInt(3),
		Operation:       OperationSwapGivenInput,
		Reserves:        [2]uint64{1000, 1000},
		Decimals:        [2]uint8{0, 2},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	// 3 * 10^2 / 200 raw units of B.
	assert.Zero(t, big.NewRat(3, 2).Cmp(res.Raw))
	assert.True(t, res.Amount.Equal(decimal.RequireFromString("0.015")), "got %s", res.Amount)
}

func TestQuoteHumanUnits(t *testing.T) {
	pool := quotePool(layout.Curve{})
	res := Quote(QuoteInput{
		Pool:            pool,
		IndependentMint: pool.HoldingMints[0],
		Amount:          decimal.RequireFromString("1.5"),
		Operation:       OperationAdd,
		Reserves:        [2]uint64{1_000_000_000, 2_000_000},
		Decimals:        [2]uint8{9, 6},
		LiquiditySupply: 1,
	})
	require.True(t, res.OK())
	assert.Equal(t, uint64(3_000_000), res.RawFloor())
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(3)), "got %s", res.Amount)
}

func TestSlippageBounds(t *testing.T) {
	assert.Equal(t, uint64(750), MinimumAmountOut(1000, 0.25))
	assert.Equal(t, uint64(1250), MaximumAmountIn(1000, 0.25))
	assert.Equal(t, uint64(999), MinimumAmountOut(1000, 0.0005))
	assert.Equal(t, uint64(1001), MaximumAmountIn(1000, 0.0005))
	assert.Equal(t, uint64(0), MinimumAmountOut(1000, 1.5))
}

func TestLiquidityForDeposit(t *testing.T) {
	got, err := LiquidityForDeposit([2]uint64{100, 50}, [2]uint64{1000, 500}, 10_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got)

	got, err = LiquidityForDeposit([2]uint64{100, 50}, [2]uint64{1000, 500}, 10_000, 0.25)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), got)

	// The scarcer leg bounds the result.
	got, err = LiquidityForDeposit([2]uint64{100, 10}, [2]uint64{1000, 500}, 10_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got)

	_, err = LiquidityForDeposit([2]uint64{100, 10}, [2]uint64{0, 500}, 10_000, 0)
	assert.ErrorIs(t, err, ErrInsufficientReserve)
}

func TestEstimateWithdraw(t *testing.T) {
	got, err := EstimateWithdraw(100, 1000, [2]uint64{1000, 500})
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{100, 50}, got)

	_, err = EstimateWithdraw(2000, 1000, [2]uint64{1000, 500})
	var balErr *BalanceError
	require.ErrorAs(t, err, &balErr)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = EstimateWithdraw(1, 0, [2]uint64{1000, 500})
	assert.ErrorIs(t, err, ErrInsufficientReserve)
}

func TestEstimateExactOneLiquidity(t *testing.T) {
	// 1 - sqrt(1 - 75/100) = 0.5 of the supply.
	got, err := EstimateExactOneLiquidity(75, 100, 1000, layout.Fees{})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)

	withFee, err := EstimateExactOneLiquidity(75, 100, 1000, layout.Fees{TradeFeeNumerator: 25, TradeFeeDenominator: 10000})
	require.NoError(t, err)
	assert.Greater(t, withFee, got)

	_, err = EstimateExactOneLiquidity(100, 100, 1000, layout.Fees{})
	assert.ErrorIs(t, err, ErrInsufficientReserve)
}

func TestCalculateDependentAmount(t *testing.T) {
	f := newFixture(t)
	pool := f.pool(poolSpec{
		reserves: [2]uint64{1_000_000, 500_000},
		supply:   1_000,
	})

	res, err := CalculateDependentAmount(context.Background(), f.cache, pool, pool.HoldingMints[0], decimal.NewFromInt(1000), OperationSwapGivenInput)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Zero(t, big.NewRat(500_000*1000, 1_001_000).Cmp(res.Raw))

	_, err = CalculateDependentAmount(context.Background(), f.cache, nil, pool.HoldingMints[0], decimal.NewFromInt(1), OperationAdd)
	assert.ErrorIs(t, err, ErrPoolRequired)

	unresolved := pool.clone()
	unresolved.HoldingMints = [2]solana.PublicKey{}
	_, err = CalculateDependentAmount(context.Background(), f.cache, unresolved, pool.HoldingMints[0], decimal.NewFromInt(1), OperationAdd)
	assert.ErrorIs(t, err, ErrStateInconsistent)
}
