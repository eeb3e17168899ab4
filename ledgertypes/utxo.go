// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/wire"
)

// UtxoPointer uniquely identifies one transaction output in the UTxO set:
// the transaction that created it, its position among that transaction's
// outputs, and the value it carries (so removing it requires an exact
// value and index match, not just the pointer).
type UtxoPointer struct {
	TransactionID chainhash.Hash
	OutputIndex   uint8
	Value         amount.Value
}

// Less orders two pointers by (transaction_id, output_index), the
// canonical byte ordering the spec requires for deterministic UTxO
// iteration when hashing a ledger state.
func (p UtxoPointer) Less(other UtxoPointer) bool {
	for i := 0; i < chainhash.HashSize; i++ {
		if p.TransactionID[i] != other.TransactionID[i] {
			return p.TransactionID[i] < other.TransactionID[i]
		}
	}
	return p.OutputIndex < other.OutputIndex
}

// Encode writes the pointer's canonical bytes (used as the map key bytes,
// not part of any message on its own).
func (p UtxoPointer) Encode(w *wire.Writer) {
	w.PutBytes(p.TransactionID[:])
	w.PutU8(p.OutputIndex)
	amount.PutValue(w, p.Value)
}
