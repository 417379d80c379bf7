// internal/dex/tokenswap/calculations.go
package tokenswap

import (
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// QuoteStatus distinguishes a number from the two non-numeric outcomes.
type QuoteStatus int

const (
	// QuoteOK carries a dependent amount.
	QuoteOK QuoteStatus = iota
	// QuoteNoQuote means the pool cannot be priced (empty supply or reserves).
	QuoteNoQuote
	// QuoteImpossible means the requested proceeds meet or exceed the reserve.
	QuoteImpossible
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteOK:
		return "ok"
	case QuoteNoQuote:
		return "no_quote"
	case QuoteImpossible:
		return "impossible"
	default:
		return "unknown"
	}
}

// quotePrecision is the number of fractional digits kept in human amounts.
const quotePrecision = 18

// QuoteInput holds everything Quote needs; reserves and decimals are in
// holding-account order.
type QuoteInput struct {
	Pool            *Pool
	IndependentMint solana.PublicKey
	// Amount is in human units of the independent mint.
	Amount          decimal.Decimal
	Operation       Operation
	Reserves        [2]uint64
	Decimals        [2]uint8
	LiquiditySupply uint64
}

// QuoteResult is the dependent side of a quote.
type QuoteResult struct {
	Status        QuoteStatus
	DependentMint solana.PublicKey
	// Amount is in human units of the dependent mint; zero unless Status is QuoteOK.
	Amount decimal.Decimal
	// Raw is the exact dependent amount in raw units; nil unless Status is QuoteOK.
	Raw *big.Rat
}

// OK reports whether the result carries an amount.
func (q QuoteResult) OK() bool {
	return q.Status == QuoteOK
}

// Err maps the impossible status to ErrInsufficientReserve.
func (q QuoteResult) Err() error {
	if q.Status == QuoteImpossible {
		return ErrInsufficientReserve
	}
	return nil
}

// RawFloor returns the raw amount rounded down, saturating at MaxUint64.
func (q QuoteResult) RawFloor() uint64 {
	if q.Raw == nil || q.Raw.Sign() <= 0 {
		return 0
	}
	i := new(big.Int).Quo(q.Raw.Num(), q.Raw.Denom())
	if !i.IsUint64() {
		return math.MaxUint64
	}
	return i.Uint64()
}

func noQuote(status QuoteStatus) QuoteResult {
	return QuoteResult{Status: status}
}

// Quote computes the dependent amount for one operation. It is pure: all
// reserves, decimals and the liquidity supply must be resolved by the caller.
func Quote(in QuoteInput) QuoteResult {
	if in.Pool == nil || in.LiquiditySupply == 0 || in.Amount.IsNegative() {
		return noQuote(QuoteNoQuote)
	}
	ind := in.Pool.MintIndex(in.IndependentMint)
	if ind < 0 {
		return noQuote(QuoteNoQuote)
	}
	dep := 1 - ind

	reserves := [2]*big.Rat{ratU64(in.Reserves[0]), ratU64(in.Reserves[1])}
	if offset := in.Pool.Curve.TokenBOffset(); offset > 0 {
		reserves[1].Add(reserves[1], ratU64(offset))
	}

	rawIndependent := toRaw(in.Amount, in.Decimals[ind])

	var dependentRaw *big.Rat
	if in.Pool.Curve.Type == layout.CurveConstantPrice {
		price := in.Pool.Curve.TokenBPrice()
		if price == 0 {
			return noQuote(QuoteNoQuote)
		}
		dependentRaw = new(big.Rat).Mul(rawIndependent, pow10(in.Decimals[dep]))
		dependentRaw.Quo(dependentRaw, ratU64(price))
	} else {
		var status QuoteStatus
		dependentRaw, status = curveAmount(in.Operation, reserves[ind], reserves[dep], rawIndependent)
		if status != QuoteOK {
			return noQuote(status)
		}
	}

	return QuoteResult{
		Status:        QuoteOK,
		DependentMint: in.Pool.HoldingMints[dep],
		Amount:        fromRaw(dependentRaw, in.Decimals[dep]),
		Raw:           dependentRaw,
	}
}

// curveAmount applies the constant-product formulas. For SwapGivenProceeds
// the independent amount is the desired proceeds, paid out of the
// independent reserve; the result is the input required on the dependent side.
func curveAmount(op Operation, indReserve, depReserve, amount *big.Rat) (*big.Rat, QuoteStatus) {
	switch op {
	case OperationAdd:
		if indReserve.Sign() == 0 {
			return nil, QuoteNoQuote
		}
		out := new(big.Rat).Quo(depReserve, indReserve)
		return out.Mul(out, amount), QuoteOK

	case OperationSwapGivenInput:
		den := new(big.Rat).Add(indReserve, amount)
		if den.Sign() == 0 {
			return nil, QuoteNoQuote
		}
		out := new(big.Rat).Mul(depReserve, amount)
		return out.Quo(out, den), QuoteOK

	case OperationSwapGivenProceeds:
		if amount.Cmp(indReserve) >= 0 {
			return nil, QuoteImpossible
		}
		den := new(big.Rat).Sub(indReserve, amount)
		out := new(big.Rat).Mul(depReserve, amount)
		return out.Quo(out, den), QuoteOK

	default:
		return nil, QuoteNoQuote
	}
}

// MinimumAmountOut returns floor(amount * (1 - slippage)).
func MinimumAmountOut(amount uint64, slippage float64) uint64 {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(slippage))
	return decimalToU64(decimal.NewFromUint64(amount).Mul(factor).Floor())
}

// MaximumAmountIn returns ceil(amount * (1 + slippage)).
func MaximumAmountIn(amount uint64, slippage float64) uint64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(slippage))
	return decimalToU64(decimal.NewFromUint64(amount).Mul(factor).Ceil())
}

// LiquidityForDeposit returns the liquidity tokens minted for a proportional
// deposit: min over legs of amount·(1−slippage)·supply/reserve.
func LiquidityForDeposit(amounts, reserves [2]uint64, supply uint64, slippage float64) (uint64, error) {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(slippage))
	if factor.IsNegative() {
		factor = decimal.Zero
	}

	var best decimal.Decimal
	for i := 0; i < 2; i++ {
		if reserves[i] == 0 {
			return 0, ErrInsufficientReserve
		}
		leg := decimal.NewFromUint64(amounts[i]).
			Mul(factor).
			Mul(decimal.NewFromUint64(supply)).
			DivRound(decimal.NewFromUint64(reserves[i]), quotePrecision)
		if i == 0 || leg.LessThan(best) {
			best = leg
		}
	}
	return decimalToU64(best.Floor()), nil
}

// EstimateWithdraw returns the share of each reserve redeemed by liquidity.
func EstimateWithdraw(liquidity, supply uint64, reserves [2]uint64) ([2]uint64, error) {
	var out [2]uint64
	if supply == 0 {
		return out, ErrInsufficientReserve
	}
	if liquidity > supply {
		return out, &BalanceError{Have: supply, Need: liquidity}
	}
	for i, r := range reserves {
		v := new(big.Int).Mul(new(big.Int).SetUint64(liquidity), new(big.Int).SetUint64(r))
		v.Quo(v, new(big.Int).SetUint64(supply))
		out[i] = v.Uint64()
	}
	return out, nil
}

// EstimateExactOneLiquidity returns the liquidity tokens burned to withdraw
// amountOut of one side. Half the trade fee is charged, since a single-sided
// withdrawal swaps half of its value.
func EstimateExactOneLiquidity(amountOut, reserve, supply uint64, fees layout.Fees) (uint64, error) {
	if reserve == 0 || supply == 0 {
		return 0, ErrInsufficientReserve
	}

	withFee := new(big.Int).SetUint64(amountOut)
	if fees.TradeFeeDenominator > 0 && fees.TradeFeeNumerator > 0 {
		fee := new(big.Int).Mul(new(big.Int).SetUint64(amountOut), new(big.Int).SetUint64(fees.TradeFeeNumerator))
		den := new(big.Int).Mul(new(big.Int).SetUint64(fees.TradeFeeDenominator), big.NewInt(2))
		fee = ceilDiv(fee, den)
		withFee.Add(withFee, fee)
	}
	if withFee.Cmp(new(big.Int).SetUint64(reserve)) >= 0 {
		return 0, ErrInsufficientReserve
	}

	// pool = supply * (1 - sqrt(1 - out/reserve))
	const prec = 256
	ratio := new(big.Float).SetPrec(prec).Quo(
		new(big.Float).SetPrec(prec).SetInt(withFee),
		new(big.Float).SetPrec(prec).SetUint64(reserve),
	)
	base := new(big.Float).SetPrec(prec).Sub(big.NewFloat(1).SetPrec(prec), ratio)
	root := new(big.Float).SetPrec(prec).Sqrt(base)
	share := new(big.Float).SetPrec(prec).Sub(big.NewFloat(1).SetPrec(prec), root)
	pool := share.Mul(share, new(big.Float).SetPrec(prec).SetUint64(supply))

	whole, _ := pool.Int(nil)
	if new(big.Float).SetPrec(prec).SetInt(whole).Cmp(pool) < 0 {
		whole.Add(whole, big.NewInt(1))
	}
	if !whole.IsUint64() {
		return 0, ErrInsufficientReserve
	}
	return whole.Uint64(), nil
}

func ratU64(v uint64) *big.Rat {
	return new(big.Rat).SetInt(new(big.Int).SetUint64(v))
}

func pow10(n uint8) *big.Rat {
	return new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
}

// toRaw scales a human amount to raw units.
func toRaw(amount decimal.Decimal, decimals uint8) *big.Rat {
	return amount.Shift(int32(decimals)).Rat()
}

// fromRaw scales a raw amount down to human units.
func fromRaw(raw *big.Rat, decimals uint8) decimal.Decimal {
	num := decimal.NewFromBigInt(raw.Num(), -int32(decimals))
	return num.DivRound(decimal.NewFromBigInt(raw.Denom(), 0), quotePrecision)
}

// ToRaw converts a human amount to raw units, rounding down.
func ToRaw(amount decimal.Decimal, decimals uint8) uint64 {
	return decimalToU64(amount.Shift(int32(decimals)).Floor())
}

// FromRaw converts a raw amount to human units.
func FromRaw(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}

func decimalToU64(d decimal.Decimal) uint64 {
	if d.Sign() <= 0 {
		return 0
	}
	i := d.BigInt()
	if !i.IsUint64() {
		return math.MaxUint64
	}
	return i.Uint64()
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
