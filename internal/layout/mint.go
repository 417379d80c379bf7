// internal/layout/mint.go
package layout

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/utils/binary"
)

// Mint is a decoded SPL mint (82 bytes).
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// DecodeMint decodes an SPL mint.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, decodeErr(KindMint, len(data), nil)
	}

	r := binary.NewReader(data)
	m := &Mint{}
	m.MintAuthority = r.OptionPubKey()
	m.Supply = r.U64()
	m.Decimals = r.U8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = r.OptionPubKey()

	if err := r.Err(); err != nil {
		return nil, decodeErr(KindMint, len(data), err)
	}
	return m, nil
}

// EncodeMint writes the mint into its 82-byte layout.
func EncodeMint(m *Mint) ([]byte, error) {
	e := newEncoder(MintSize)
	e.optionPubKey(m.MintAuthority)
	e.u64(m.Supply)
	e.u8(m.Decimals)
	e.boolean(m.IsInitialized)
	e.optionPubKey(m.FreezeAuthority)
	return e.bytes()
}
