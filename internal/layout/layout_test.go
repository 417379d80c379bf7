package layout

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		size int
		want Kind
	}{
		{"token account", TokenAccountSize, KindTokenAccount},
		{"mint", MintSize, KindMint},
		{"pool current", PoolCurrentSize, KindPool},
		{"pool v1", PoolV1Size, KindPool},
		{"pool legacy", PoolLegacyV0Size, KindPool},
		{"unknown", 100, KindUnknown},
		{"empty", 0, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.size))
		})
	}
}

func TestPoolVersionIsLatest(t *testing.T) {
	assert.True(t, PoolVersionForSize(PoolCurrentSize).IsLatest())
	assert.False(t, PoolVersionForSize(PoolV1Size).IsLatest())
	assert.False(t, PoolVersionForSize(PoolLegacyV0Size).IsLatest())
	assert.Equal(t, PoolVersionUnknown, PoolVersionForSize(42))
}

func TestTokenAccountRoundTrip(t *testing.T) {
	delegate := solana.NewWallet().PublicKey()
	reserve := uint64(2039280)
	acc := &TokenAccount{
		Mint:            solana.WrappedSol,
		Owner:           solana.NewWallet().PublicKey(),
		Amount:          1_500_000,
		Delegate:        &delegate,
		State:           AccountInitialized,
		RentReserve:     &reserve,
		DelegatedAmount: 700,
	}

	raw, err := EncodeTokenAccount(acc)
	require.NoError(t, err)
	require.Len(t, raw, TokenAccountSize)

	// amount lives right after mint and owner
	assert.Equal(t, uint64(1_500_000), binary.LittleEndian.Uint64(raw[64:72]))

	got, err := DecodeTokenAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, acc, got)
	assert.True(t, got.IsNative())
	assert.True(t, got.IsInitialized())
	assert.False(t, got.IsFrozen())
	assert.Nil(t, got.CloseAuthority)
}

func TestDecodeTokenAccountWrongLength(t *testing.T) {
	_, err := DecodeTokenAccount(make([]byte, MintSize))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindTokenAccount, de.Kind)
	assert.Equal(t, MintSize, de.Length)
}

func TestMintRoundTrip(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	m := &Mint{
		MintAuthority: &authority,
		Supply:        42_000_000,
		Decimals:      8,
		IsInitialized: true,
	}

	raw, err := EncodeMint(m)
	require.NoError(t, err)
	require.Len(t, raw, MintSize)

	got, err := DecodeMint(raw)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Nil(t, got.FreezeAuthority)
}

func samplePool(version PoolVersion) *PoolState {
	p := &PoolState{
		Version:        version,
		IsInitialized:  true,
		Nonce:          254,
		TokenProgramID: solana.TokenProgramID,
		TokenAccountA:  solana.NewWallet().PublicKey(),
		TokenAccountB:  solana.NewWallet().PublicKey(),
		PoolMint:       solana.NewWallet().PublicKey(),
		Fees: Fees{
			TradeFeeNumerator:   25,
			TradeFeeDenominator: 10000,
		},
	}
	if version == PoolVersionLegacyV0 {
		p.TokenProgramID = solana.PublicKey{}
	} else {
		p.MintA = solana.NewWallet().PublicKey()
		p.MintB = solana.NewWallet().PublicKey()
		p.FeeAccount = solana.NewWallet().PublicKey()
		p.Fees.OwnerTradeFeeNumerator = 5
		p.Fees.OwnerTradeFeeDenominator = 10000
		p.Fees.OwnerWithdrawFeeDenominator = 1
	}
	return p
}

func TestPoolStateRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		version PoolVersion
		curve   Curve
		host    bool
	}{
		{"current offset curve", PoolVersionCurrent, NewCurve(CurveConstantProductWithOffset, 200_000), true},
		{"current constant price", PoolVersionCurrent, NewCurve(CurveConstantPrice, 3), true},
		{"v1", PoolVersionV1, Curve{Type: CurveConstantProduct}, false},
		{"legacy v0", PoolVersionLegacyV0, Curve{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePool(tt.version)
			p.Curve = tt.curve
			if tt.host {
				p.Fees.HostFeeNumerator = 20
				p.Fees.HostFeeDenominator = 100
			}

			raw, err := EncodePoolState(p)
			require.NoError(t, err)
			require.Len(t, raw, tt.version.Size())

			got, err := DecodePoolState(raw)
			require.NoError(t, err)
			assert.Equal(t, p, got)
			assert.Equal(t, tt.version == PoolVersionCurrent, got.Version.IsLatest())
			assert.Equal(t, tt.version != PoolVersionLegacyV0, got.HasMints())
		})
	}
}

func TestCurveParameters(t *testing.T) {
	offset := NewCurve(CurveConstantProductWithOffset, 200_000)
	assert.Equal(t, uint64(200_000), offset.TokenBOffset())
	assert.Zero(t, offset.TokenBPrice())

	price := NewCurve(CurveConstantPrice, 7)
	assert.Equal(t, uint64(7), price.TokenBPrice())
	assert.Zero(t, price.TokenBOffset())

	assert.Equal(t, uint64(100), NewCurve(CurveStable, 100).Amp())
}

func TestDecodePoolStateUnknownLength(t *testing.T) {
	_, err := DecodePoolState(make([]byte, 200))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEncodeAmountPayloads(t *testing.T) {
	tests := []struct {
		name    string
		encode  func() ([]byte, error)
		op      Opcode
		amounts []uint64
	}{
		{"swap", func() ([]byte, error) { return EncodeSwap(1000, 499) }, OpSwap, []uint64{1000, 499}},
		{"deposit", func() ([]byte, error) { return EncodeDeposit(10, 20, 30) }, OpDeposit, []uint64{10, 20, 30}},
		{"withdraw", func() ([]byte, error) { return EncodeWithdraw(10, 1, 2) }, OpWithdraw, []uint64{10, 1, 2}},
		{"withdraw exact one", func() ([]byte, error) { return EncodeWithdrawExactOne(5, 6) }, OpWithdrawExactOne, []uint64{5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.encode()
			require.NoError(t, err)
			require.Len(t, data, 1+8*len(tt.amounts))
			assert.Equal(t, byte(tt.op), data[0])
			for i, a := range tt.amounts {
				assert.Equal(t, a, binary.LittleEndian.Uint64(data[1+8*i:]))
			}

			op, amounts, err := DecodeAmounts(data)
			require.NoError(t, err)
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.amounts, amounts)
		})
	}
}

func TestEncodeInitialize(t *testing.T) {
	fees := Fees{
		TradeFeeNumerator:           25,
		TradeFeeDenominator:         10000,
		OwnerTradeFeeNumerator:      5,
		OwnerTradeFeeDenominator:    10000,
		OwnerWithdrawFeeNumerator:   0,
		OwnerWithdrawFeeDenominator: 1,
	}
	data, err := EncodeInitialize(253, fees, NewCurve(CurveConstantProductWithOffset, 9))
	require.NoError(t, err)
	require.Len(t, data, InitializeDataSize)

	assert.Equal(t, byte(OpInitialize), data[0])
	assert.Equal(t, byte(253), data[1])
	assert.Equal(t, byte(CurveConstantProductWithOffset), data[2])
	assert.Equal(t, uint64(25), binary.LittleEndian.Uint64(data[3:]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[3+5*8:]))
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(data[3+6*8:]))
}

func TestDecodeAmountsRejectsBadPayload(t *testing.T) {
	_, _, err := DecodeAmounts(nil)
	assert.ErrorIs(t, err, ErrDecode)

	_, _, err = DecodeAmounts([]byte{byte(OpSwap), 1, 2})
	assert.ErrorIs(t, err, ErrDecode)

	_, _, err = DecodeAmounts([]byte{byte(OpInitialize)})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestParseAddress(t *testing.T) {
	pk, err := ParseAddress("So11111111111111111111111111111111111111112")
	require.NoError(t, err)
	assert.Equal(t, solana.WrappedSol, pk)

	_, err = ParseAddress("abc")
	assert.Error(t, err)

	_, err = ParseAddress("0OIl")
	assert.Error(t, err)
}
