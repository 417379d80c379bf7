// cmd/swapctl/format_test.go
package main

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

func TestParseOperation(t *testing.T) {
	tests := map[string]tokenswap.Operation{
		"swap":                tokenswap.OperationSwapGivenInput,
		"SELL":                tokenswap.OperationSwapGivenInput,
		"buy":                 tokenswap.OperationSwapGivenProceeds,
		"swap-given-proceeds": tokenswap.OperationSwapGivenProceeds,
		"deposit":             tokenswap.OperationAdd,
	}
	for in, want := range tests {
		got, err := parseOperation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseOperation("borrow")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount(" 1.5 ")
	require.NoError(t, err)
	assert.Equal(t, "1.5", d.String())

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := parseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCurve(t *testing.T) {
	c, err := parseCurve("", 0)
	require.NoError(t, err)
	assert.Equal(t, layout.CurveConstantProduct, c.Type)

	c, err = parseCurve("constant-price", 2_000)
	require.NoError(t, err)
	assert.Equal(t, layout.CurveConstantPrice, c.Type)
	assert.EqualValues(t, 2_000, c.TokenBPrice())

	c, err = parseCurve("offset", 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, c.TokenBOffset())

	_, err = parseCurve("constant-price", 0)
	assert.Error(t, err)
	_, err = parseCurve("stable", 0)
	assert.Error(t, err)
	_, err = parseCurve("quadratic", 1)
	assert.Error(t, err)
}

func TestFeesFromBps(t *testing.T) {
	fees := feesFromBps(25, 5, 1)
	assert.EqualValues(t, 25, fees.TradeFeeNumerator)
	assert.EqualValues(t, feeDenominator, fees.TradeFeeDenominator)
	assert.EqualValues(t, 5, fees.OwnerTradeFeeNumerator)
	assert.EqualValues(t, 1, fees.OwnerWithdrawFeeNumerator)
	assert.Zero(t, fees.HostFeeNumerator)
}

func TestHumanAndShort(t *testing.T) {
	assert.Equal(t, "1.5", human(150_000_000, 8))
	assert.Equal(t, "-", short(solana.PublicKey{}))
}
