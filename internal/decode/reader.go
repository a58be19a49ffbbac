package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Reader walks a little-endian, Borsh-style byte buffer the way Anchor
// serializes account and instruction data: fixed-width integers, a
// u32 length prefix ahead of vecs and strings, raw bytes for fixed arrays.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("decode: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) take(n int) []byte {
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	return r.take(n), nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.take(1)[0], nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.take(2)), nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.take(4)), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.take(8)), nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadU128 reads an unsigned 128-bit little-endian integer into a big.Int.
func (r *Reader) ReadU128() (*big.Int, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	return leBytesToBigInt(b, false), nil
}

// ReadI128 reads a signed 128-bit little-endian (two's complement) integer.
func (r *Reader) ReadI128() (*big.Int, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	return leBytesToBigInt(b, true), nil
}

func leBytesToBigInt(le []byte, signed bool) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if signed && len(be) > 0 && be[0]&0x80 != 0 {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(len(be)*8))
		v.Sub(v, bound)
	}
	return v
}

// ReadString reads a Borsh string: u32 byte length followed by UTF-8 bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", fmt.Errorf("decode: string body: %w", err)
	}
	return string(b), nil
}

// ReadPubkey reads a fixed 32-byte public key.
func (r *Reader) ReadPubkey() (solana.PublicKey, error) {
	b, err := r.ReadBytes(32)
	if err != nil {
		return solana.PublicKey{}, err
	}
	var pk solana.PublicKey
	copy(pk[:], b)
	return pk, nil
}

// ReadVecLen reads the u32 element-count prefix ahead of a Borsh vec.
func (r *Reader) ReadVecLen() (int, error) {
	n, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
