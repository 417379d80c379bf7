// internal/layout/pool.go
package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	bin "github.com/rovshanmuradov/tokenswap-client/internal/utils/binary"
)

// CurveType selects the pricing formula family of a pool.
type CurveType uint8

const (
	CurveConstantProduct CurveType = iota
	CurveConstantPrice
	CurveStable
	CurveConstantProductWithOffset
)

func (c CurveType) String() string {
	switch c {
	case CurveConstantProduct:
		return "constant_product"
	case CurveConstantPrice:
		return "constant_price"
	case CurveStable:
		return "stable"
	case CurveConstantProductWithOffset:
		return "offset"
	default:
		return fmt.Sprintf("curve(%d)", uint8(c))
	}
}

// CurveParametersSize is the width of the curve calculator blob.
const CurveParametersSize = 32

// Curve is the curve type plus its packed calculator parameters.
type Curve struct {
	Type       CurveType
	Parameters [CurveParametersSize]byte
}

func (c Curve) firstU64() uint64 {
	return binary.LittleEndian.Uint64(c.Parameters[:8])
}

// TokenBPrice is the fixed B price of a constant-price curve.
func (c Curve) TokenBPrice() uint64 {
	if c.Type != CurveConstantPrice {
		return 0
	}
	return c.firstU64()
}

// TokenBOffset is the virtual B reserve of an offset curve.
func (c Curve) TokenBOffset() uint64 {
	if c.Type != CurveConstantProductWithOffset {
		return 0
	}
	return c.firstU64()
}

// Amp is the amplification coefficient of a stable curve.
func (c Curve) Amp() uint64 {
	if c.Type != CurveStable {
		return 0
	}
	return c.firstU64()
}

// NewCurve packs a single u64 parameter (price, offset or amp) into a curve.
func NewCurve(t CurveType, param uint64) Curve {
	c := Curve{Type: t}
	binary.LittleEndian.PutUint64(c.Parameters[:8], param)
	return c
}

// Fees holds the fee fractions of a pool. Host fees only exist in the
// current layout; the legacy-v0 layout carries a single trade fee.
type Fees struct {
	TradeFeeNumerator           uint64
	TradeFeeDenominator         uint64
	OwnerTradeFeeNumerator      uint64
	OwnerTradeFeeDenominator    uint64
	OwnerWithdrawFeeNumerator   uint64
	OwnerWithdrawFeeDenominator uint64
	HostFeeNumerator            uint64
	HostFeeDenominator          uint64
}

// PoolState is the decoded swap account, normalized across layouts.
type PoolState struct {
	Version        PoolVersion
	IsInitialized  bool
	Nonce          uint8
	TokenProgramID solana.PublicKey
	TokenAccountA  solana.PublicKey
	TokenAccountB  solana.PublicKey
	PoolMint       solana.PublicKey
	MintA          solana.PublicKey // zero for legacy-v0
	MintB          solana.PublicKey // zero for legacy-v0
	FeeAccount     solana.PublicKey // zero for legacy-v0
	Fees           Fees
	Curve          Curve
}

// HasMints reports whether the layout carried the holding mints.
func (p *PoolState) HasMints() bool {
	return p.Version == PoolVersionCurrent || p.Version == PoolVersionV1
}

// DecodePoolState decodes any known pool layout, selected by length.
func DecodePoolState(data []byte) (*PoolState, error) {
	version := PoolVersionForSize(len(data))
	r := bin.NewReader(data)
	p := &PoolState{Version: version}

	switch version {
	case PoolVersionCurrent:
		r.Skip(1) // layout version byte
		p.IsInitialized = r.Bool()
		p.Nonce = r.U8()
		p.TokenProgramID = r.PubKey()
		p.TokenAccountA = r.PubKey()
		p.TokenAccountB = r.PubKey()
		p.PoolMint = r.PubKey()
		p.MintA = r.PubKey()
		p.MintB = r.PubKey()
		p.FeeAccount = r.PubKey()
		p.Fees = readFees(r, true)
		p.Curve.Type = CurveType(r.U8())
		copy(p.Curve.Parameters[:], r.Bytes(CurveParametersSize))

	case PoolVersionV1:
		p.IsInitialized = r.Bool()
		p.Nonce = r.U8()
		p.TokenProgramID = r.PubKey()
		p.TokenAccountA = r.PubKey()
		p.TokenAccountB = r.PubKey()
		p.PoolMint = r.PubKey()
		p.MintA = r.PubKey()
		p.MintB = r.PubKey()
		p.FeeAccount = r.PubKey()
		p.Curve.Type = CurveType(r.U8())
		p.Fees = readFees(r, false)
		r.Skip(16)

	case PoolVersionLegacyV0:
		p.IsInitialized = r.Bool()
		p.Nonce = r.U8()
		p.TokenAccountA = r.PubKey()
		p.TokenAccountB = r.PubKey()
		p.PoolMint = r.PubKey()
		p.Fees.TradeFeeNumerator = r.U64()
		p.Fees.TradeFeeDenominator = r.U64()

	default:
		return nil, decodeErr(KindPool, len(data), nil)
	}

	if err := r.Err(); err != nil {
		return nil, decodeErr(KindPool, len(data), err)
	}
	return p, nil
}

func readFees(r *bin.Reader, withHost bool) Fees {
	f := Fees{
		TradeFeeNumerator:           r.U64(),
		TradeFeeDenominator:         r.U64(),
		OwnerTradeFeeNumerator:      r.U64(),
		OwnerTradeFeeDenominator:    r.U64(),
		OwnerWithdrawFeeNumerator:   r.U64(),
		OwnerWithdrawFeeDenominator: r.U64(),
	}
	if withHost {
		f.HostFeeNumerator = r.U64()
		f.HostFeeDenominator = r.U64()
	}
	return f
}

// EncodePoolState writes p in the layout named by p.Version.
func EncodePoolState(p *PoolState) ([]byte, error) {
	size := p.Version.Size()
	if size == 0 {
		return nil, fmt.Errorf("encode pool: unknown layout version %d", p.Version)
	}

	e := newEncoder(size)
	switch p.Version {
	case PoolVersionCurrent:
		e.u8(1)
		e.boolean(p.IsInitialized)
		e.u8(p.Nonce)
		writePoolKeys(e, p)
		writeFees(e, p.Fees, true)
		e.u8(uint8(p.Curve.Type))
		e.raw(p.Curve.Parameters[:])
	case PoolVersionV1:
		e.boolean(p.IsInitialized)
		e.u8(p.Nonce)
		writePoolKeys(e, p)
		e.u8(uint8(p.Curve.Type))
		writeFees(e, p.Fees, false)
		e.zeros(16)
	case PoolVersionLegacyV0:
		e.boolean(p.IsInitialized)
		e.u8(p.Nonce)
		e.pubkey(p.TokenAccountA)
		e.pubkey(p.TokenAccountB)
		e.pubkey(p.PoolMint)
		e.u64(p.Fees.TradeFeeNumerator)
		e.u64(p.Fees.TradeFeeDenominator)
	}
	return e.bytes()
}

func writePoolKeys(e *encoder, p *PoolState) {
	e.pubkey(p.TokenProgramID)
	e.pubkey(p.TokenAccountA)
	e.pubkey(p.TokenAccountB)
	e.pubkey(p.PoolMint)
	e.pubkey(p.MintA)
	e.pubkey(p.MintB)
	e.pubkey(p.FeeAccount)
}

func writeFees(e *encoder, f Fees, withHost bool) {
	e.u64(f.TradeFeeNumerator)
	e.u64(f.TradeFeeDenominator)
	e.u64(f.OwnerTradeFeeNumerator)
	e.u64(f.OwnerTradeFeeDenominator)
	e.u64(f.OwnerWithdrawFeeNumerator)
	e.u64(f.OwnerWithdrawFeeDenominator)
	if withHost {
		e.u64(f.HostFeeNumerator)
		e.u64(f.HostFeeDenominator)
	}
}
