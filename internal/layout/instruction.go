// internal/layout/instruction.go
package layout

import (
	"fmt"

	"github.com/rovshanmuradov/tokenswap-client/internal/utils/binary"
)

// Opcode is the first byte of every swap-program instruction.
type Opcode uint8

const (
	OpInitialize       Opcode = 0
	OpSwap             Opcode = 1
	OpDeposit          Opcode = 2
	OpWithdraw         Opcode = 3
	OpWithdrawExactOne Opcode = 5
)

func (o Opcode) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpSwap:
		return "swap"
	case OpDeposit:
		return "deposit"
	case OpWithdraw:
		return "withdraw"
	case OpWithdrawExactOne:
		return "withdraw_exact_one"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// InitializeDataSize is opcode, nonce, curve type, six fee u64 and the curve blob.
const InitializeDataSize = 1 + 1 + 1 + 6*8 + CurveParametersSize

// EncodeInitialize encodes the init-pool payload.
func EncodeInitialize(nonce uint8, fees Fees, curve Curve) ([]byte, error) {
	e := newEncoder(InitializeDataSize)
	e.u8(uint8(OpInitialize))
	e.u8(nonce)
	e.u8(uint8(curve.Type))
	writeFees(e, fees, false)
	e.raw(curve.Parameters[:])
	return e.bytes()
}

// EncodeSwap encodes amountIn and minimumAmountOut.
func EncodeSwap(amountIn, minimumAmountOut uint64) ([]byte, error) {
	return encodeAmounts(OpSwap, amountIn, minimumAmountOut)
}

// EncodeDeposit encodes the pool-token amount and the per-leg maximums.
func EncodeDeposit(poolTokenAmount, maximumTokenA, maximumTokenB uint64) ([]byte, error) {
	return encodeAmounts(OpDeposit, poolTokenAmount, maximumTokenA, maximumTokenB)
}

// EncodeWithdraw encodes the pool-token amount and the per-leg minimums.
func EncodeWithdraw(poolTokenAmount, minimumTokenA, minimumTokenB uint64) ([]byte, error) {
	return encodeAmounts(OpWithdraw, poolTokenAmount, minimumTokenA, minimumTokenB)
}

// EncodeWithdrawExactOne encodes the single-leg amount and the pool-token cap.
func EncodeWithdrawExactOne(sourceTokenAmount, maximumPoolTokenAmount uint64) ([]byte, error) {
	return encodeAmounts(OpWithdrawExactOne, sourceTokenAmount, maximumPoolTokenAmount)
}

func encodeAmounts(op Opcode, amounts ...uint64) ([]byte, error) {
	e := newEncoder(1 + 8*len(amounts))
	e.u8(uint8(op))
	for _, a := range amounts {
		e.u64(a)
	}
	return e.bytes()
}

// DecodeAmounts splits an amount-only payload (swap, deposit, withdraw,
// withdraw-exact-one) into its opcode and u64 arguments.
func DecodeAmounts(data []byte) (Opcode, []uint64, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty instruction data", ErrDecode)
	}

	op := Opcode(data[0])
	var want int
	switch op {
	case OpSwap, OpWithdrawExactOne:
		want = 2
	case OpDeposit, OpWithdraw:
		want = 3
	default:
		return op, nil, fmt.Errorf("%w: %s has no amount layout", ErrDecode, op)
	}
	if len(data) != 1+8*want {
		return op, nil, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrDecode, op, 1+8*want, len(data))
	}

	r := binary.NewReader(data[1:])
	out := make([]uint64, want)
	for i := range out {
		out[i] = r.U64()
	}
	return op, out, r.Err()
}
