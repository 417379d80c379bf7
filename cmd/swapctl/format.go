// cmd/swapctl/format.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/tokenswap-client/internal/cache"
	"github.com/rovshanmuradov/tokenswap-client/internal/dex/tokenswap"
	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

const feeDenominator = 10_000

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive: %s", s)
	}
	return d, nil
}

func parseOperation(s string) (tokenswap.Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "swap", "sell", "swap-given-input":
		return tokenswap.OperationSwapGivenInput, nil
	case "buy", "proceeds", "swap-given-proceeds":
		return tokenswap.OperationSwapGivenProceeds, nil
	case "add", "deposit":
		return tokenswap.OperationAdd, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

func parseCurve(name string, param uint64) (layout.Curve, error) {
	switch strings.ToLower(name) {
	case "constant-product", "":
		return layout.NewCurve(layout.CurveConstantProduct, 0), nil
	case "constant-price":
		if param == 0 {
			return layout.Curve{}, errors.New("constant-price needs --curve-param (token B price)")
		}
		return layout.NewCurve(layout.CurveConstantPrice, param), nil
	case "offset":
		return layout.NewCurve(layout.CurveConstantProductWithOffset, param), nil
	case "stable":
		if param == 0 {
			return layout.Curve{}, errors.New("stable needs --curve-param (amp)")
		}
		return layout.NewCurve(layout.CurveStable, param), nil
	default:
		return layout.Curve{}, fmt.Errorf("unknown curve %q", name)
	}
}

// feesFromBps expresses trade and owner fees in basis points.
func feesFromBps(tradeBps, ownerTradeBps, ownerWithdrawBps uint64) layout.Fees {
	return layout.Fees{
		TradeFeeNumerator:           tradeBps,
		TradeFeeDenominator:         feeDenominator,
		OwnerTradeFeeNumerator:      ownerTradeBps,
		OwnerTradeFeeDenominator:    feeDenominator,
		OwnerWithdrawFeeNumerator:   ownerWithdrawBps,
		OwnerWithdrawFeeDenominator: feeDenominator,
	}
}

// toRaw converts a human amount of mint into raw units.
func toRaw(ctx context.Context, c *cache.Cache, mint solana.PublicKey, amount decimal.Decimal) (uint64, uint8, error) {
	m, err := c.QueryMint(ctx, mint)
	if err != nil {
		return 0, 0, fmt.Errorf("mint %s: %w", mint, err)
	}
	return tokenswap.ToRaw(amount, m.Decimals), m.Decimals, nil
}

func human(raw uint64, decimals uint8) string {
	return tokenswap.FromRaw(raw, decimals).String()
}

func short(pk solana.PublicKey) string {
	s := pk.String()
	if pk.IsZero() {
		return "-"
	}
	if len(s) <= 12 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}
