// internal/layout/encoder.go
package layout

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// encoder wraps bin.Encoder and keeps the first write error so layouts can be
// written field by field without checking each call.
type encoder struct {
	buf *bytes.Buffer
	enc *bin.Encoder
	err error
}

func newEncoder(size int) *encoder {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	return &encoder{buf: buf, enc: bin.NewBinEncoder(buf)}
}

func (e *encoder) u8(v uint8) {
	if e.err == nil {
		e.err = e.enc.WriteUint8(v)
	}
}

func (e *encoder) boolean(v bool) {
	if v {
		e.u8(1)
		return
	}
	e.u8(0)
}

func (e *encoder) u32(v uint32) {
	if e.err == nil {
		e.err = e.enc.WriteUint32(v, bin.LE)
	}
}

func (e *encoder) u64(v uint64) {
	if e.err == nil {
		e.err = e.enc.WriteUint64(v, bin.LE)
	}
}

func (e *encoder) raw(b []byte) {
	if e.err == nil {
		e.err = e.enc.WriteBytes(b, false)
	}
}

func (e *encoder) pubkey(pk solana.PublicKey) {
	e.raw(pk[:])
}

func (e *encoder) optionPubKey(pk *solana.PublicKey) {
	if pk == nil {
		e.u32(0)
		e.pubkey(solana.PublicKey{})
		return
	}
	e.u32(1)
	e.pubkey(*pk)
}

func (e *encoder) optionU64(v *uint64) {
	if v == nil {
		e.u32(0)
		e.u64(0)
		return
	}
	e.u32(1)
	e.u64(*v)
}

func (e *encoder) zeros(n int) {
	e.raw(make([]byte, n))
}

func (e *encoder) bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}
