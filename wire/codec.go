// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the canonical big-endian byte encoding shared by
// every on-chain entity. Determinism is mandatory here: hashes and
// signatures are computed over exactly these bytes, so every multi-byte
// integer is big-endian and every variable-size field carries an explicit,
// fixed-width length prefix documented by its caller.
package wire

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// U128 is a 128-bit unsigned integer stored as 16 big-endian bytes, used by
// ConfigParams entries and reward accumulators that can exceed a u64.
type U128 [16]byte

// NewU128FromUint256 narrows a uint256.Int down to its low 128 bits in
// big-endian wire form.
func NewU128FromUint256(v *uint256.Int) U128 {
	b := v.Bytes32()
	var out U128
	copy(out[:], b[16:])
	return out
}

// Uint256 widens the U128 back out to a uint256.Int for arithmetic.
func (u U128) Uint256() *uint256.Int {
	var b32 [32]byte
	copy(b32[16:], u[:])
	return new(uint256.Int).SetBytes32(b32[:])
}

// Reader is a cursor over an in-memory byte slice that decodes canonical
// big-endian primitives. It never allocates beyond what GetBytes returns.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential canonical decoding. The slice is not
// copied; callers must not mutate it while the Reader is in use.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// GetBytes reads exactly n bytes, failing with ErrNotEnough if fewer remain.
func (r *Reader) GetBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, errNotEnough(n, r.Remaining())
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// GetSliceUntilEnd returns every remaining byte without consuming a length
// prefix; used for the final, unsized field of a message (e.g. block body).
func (r *Reader) GetSliceUntilEnd() []byte {
	out := r.buf[r.pos:]
	r.pos = len(r.buf)
	return out
}

// GetU8 reads a single byte.
func (r *Reader) GetU8() (uint8, error) {
	b, err := r.GetBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// GetU16 reads a big-endian uint16.
func (r *Reader) GetU16() (uint16, error) {
	b, err := r.GetBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// GetU32 reads a big-endian uint32.
func (r *Reader) GetU32() (uint32, error) {
	b, err := r.GetBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// GetU64 reads a big-endian uint64.
func (r *Reader) GetU64() (uint64, error) {
	b, err := r.GetBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// GetU128 reads a big-endian 128-bit value.
func (r *Reader) GetU128() (U128, error) {
	b, err := r.GetBytes(16)
	if err != nil {
		return U128{}, err
	}
	var out U128
	copy(out[:], b)
	return out, nil
}

// GetBool reads a single 0/1 byte as a boolean. Any non-zero byte other than
// 1 is rejected so the wire form stays unambiguous.
func (r *Reader) GetBool() (bool, error) {
	b, err := r.GetU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, codecError(ErrSizeMismatch, "boolean byte must be 0 or 1")
	}
}

// GetHash32 reads a fixed 32-byte hash-shaped field. Callers that need a
// chainhash.Hash wrap the returned bytes themselves to avoid an import
// cycle between wire and chainhash.
func (r *Reader) GetHash32() ([32]byte, error) {
	b, err := r.GetBytes(32)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}

// Writer accumulates canonical big-endian bytes for a single message. The
// zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with cap preallocated as a hint.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated canonical encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// PutBytes appends b verbatim, with no length prefix; callers that need one
// write it themselves via PutU8/PutU16 first.
func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutU8 appends a single byte.
func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutU16 appends a big-endian uint16.
func (w *Writer) PutU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU32 appends a big-endian uint32.
func (w *Writer) PutU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU64 appends a big-endian uint64.
func (w *Writer) PutU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutU128 appends a big-endian 128-bit value.
func (w *Writer) PutU128(v U128) {
	w.buf = append(w.buf, v[:]...)
}

// PutBool appends a single 0/1 byte.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutU8(1)
	} else {
		w.PutU8(0)
	}
}
