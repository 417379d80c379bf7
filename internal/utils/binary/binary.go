// internal/utils/binary/binary.go
package binary

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Reader последовательно читает little-endian поля фиксированной ширины.
// Первая ошибка запоминается, последующие чтения возвращают нулевые значения.
type Reader struct {
	data   []byte
	offset int
	err    error
}

// NewReader создаёт reader поверх data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err возвращает первую ошибку чтения.
func (r *Reader) Err() error {
	return r.err
}

// Offset возвращает текущую позицию.
func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.offset+n > len(r.data) {
		r.err = fmt.Errorf("read %d bytes at offset %d: buffer has %d", n, r.offset, len(r.data))
		return nil
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b
}

// Skip пропускает n байт (padding).
func (r *Reader) Skip(n int) {
	r.take(n)
}

// U8 reads a single byte.
func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool reads a byte, non-zero is true.
func (r *Reader) Bool() bool {
	return r.U8() != 0
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// PubKey reads a 32-byte public key.
func (r *Reader) PubKey() solana.PublicKey {
	b := r.take(solana.PublicKeyLength)
	if b == nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// OptionPubKey reads a COption<Pubkey>: u32 tag followed by the key.
// The key bytes are always present on the wire.
func (r *Reader) OptionPubKey() *solana.PublicKey {
	tag := r.U32()
	key := r.PubKey()
	if tag == 0 || r.err != nil {
		return nil
	}
	return &key
}

// OptionU64 reads a COption<u64>.
func (r *Reader) OptionU64() *uint64 {
	tag := r.U32()
	v := r.U64()
	if tag == 0 || r.err != nil {
		return nil
	}
	return &v
}
