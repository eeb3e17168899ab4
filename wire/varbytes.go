// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// LenWidth is the width, in bytes, of a length prefix. The wire format never
// infers a prefix width; every caller states it explicitly per field, per
// spec (u8 for input/output counts, u16 for fragment counts, and so on).
type LenWidth int

// Supported length-prefix widths.
const (
	LenWidth8 LenWidth = 1
	LenWidth16 LenWidth = 2
	LenWidth32 LenWidth = 4
)

// GetVarBytes reads a length-prefixed byte string whose prefix has the given
// width, rejecting any declared length that exceeds maxLen.
func (r *Reader) GetVarBytes(width LenWidth, maxLen int, what string) ([]byte, error) {
	n, err := r.getLen(width)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, codecError(ErrSizeMismatch,
			fmt.Sprintf("%s: declared length %d exceeds max %d", what, n, maxLen))
	}
	return r.GetBytes(n)
}

// PutVarBytes writes b preceded by a length prefix of the given width.
func (w *Writer) PutVarBytes(width LenWidth, b []byte) error {
	if err := putLen(w, width, len(b)); err != nil {
		return err
	}
	w.PutBytes(b)
	return nil
}

func (r *Reader) getLen(width LenWidth) (int, error) {
	switch width {
	case LenWidth8:
		v, err := r.GetU8()
		return int(v), err
	case LenWidth16:
		v, err := r.GetU16()
		return int(v), err
	case LenWidth32:
		v, err := r.GetU32()
		return int(v), err
	default:
		return 0, codecError(ErrSizeMismatch, "unsupported length-prefix width")
	}
}

func putLen(w *Writer, width LenWidth, n int) error {
	switch width {
	case LenWidth8:
		if n > 0xff {
			return codecError(ErrSizeMismatch, "length exceeds u8 width")
		}
		w.PutU8(uint8(n))
	case LenWidth16:
		if n > 0xffff {
			return codecError(ErrSizeMismatch, "length exceeds u16 width")
		}
		w.PutU16(uint16(n))
	case LenWidth32:
		if n > 0xffffffff {
			return codecError(ErrSizeMismatch, "length exceeds u32 width")
		}
		w.PutU32(uint32(n))
	default:
		return codecError(ErrSizeMismatch, "unsupported length-prefix width")
	}
	return nil
}
