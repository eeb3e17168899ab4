// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package amount defines Value, the checked non-negative u64 unit quantity
// used for every monetary total in the core. It is kept as its own leaf
// package (rather than folded into ledgertypes) because both chaincfg
// (fee/reward/treasury parameters) and ledgertypes (UtxoPointer/Input/
// Output amounts) need it without creating an import cycle between them.
package amount

import (
	"errors"

	"github.com/ogprotocol/ogpnode/wire"
)

// ErrValueOverflow is returned by Value.Add when the sum would exceed the
// range of a u64.
var ErrValueOverflow = errors.New("ledgertypes: value addition overflows u64")

// ErrValueUnderflow is returned by Value.Sub when the difference would be
// negative.
var ErrValueUnderflow = errors.New("ledgertypes: value subtraction underflows")

// Value is a non-negative u64 unit quantity. Every arithmetic operation on a
// Value is checked; there is no silent wraparound anywhere monetary totals
// are computed.
type Value uint64

// Add returns v+other, failing on u64 overflow.
func (v Value) Add(other Value) (Value, error) {
	sum := v + other
	if sum < v {
		return 0, ErrValueOverflow
	}
	return sum, nil
}

// Sub returns v-other, failing if other > v.
func (v Value) Sub(other Value) (Value, error) {
	if other > v {
		return 0, ErrValueUnderflow
	}
	return v - other, nil
}

// SumValues adds every value in vs, failing on the first overflow.
func SumValues(vs ...Value) (Value, error) {
	var total Value
	var err error
	for _, v := range vs {
		total, err = total.Add(v)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// GetValue reads a Value as a canonical big-endian u64.
func GetValue(r *wire.Reader) (Value, error) {
	v, err := r.GetU64()
	return Value(v), err
}

// PutValue writes v as a canonical big-endian u64.
func PutValue(w *wire.Writer, v Value) {
	w.PutU64(uint64(v))
}
