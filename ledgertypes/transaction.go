// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/wire"
)

// MaxTransactionIO bounds a transaction's input and output counts: each is
// a single wire byte, so 255 is the hard ceiling independent of any policy
// decision.
const MaxTransactionIO = 255

// Transaction is the unwitnessed body of a value transfer: an ordered list
// of inputs and outputs. Its id is computed over exactly this body, which
// is why witnesses live alongside it in a Fragment rather than inside the
// Transaction itself - re-signing never changes a transaction's identity.
type Transaction struct {
	Inputs  []Input
	Outputs []Output
}

// Encode writes the transaction's canonical bytes: a one-byte input count,
// a one-byte output count, then the inputs and outputs in order.
func (tx Transaction) Encode(w *wire.Writer) error {
	if len(tx.Inputs) > MaxTransactionIO {
		return fmt.Errorf("ledgertypes: transaction has %d inputs, max %d", len(tx.Inputs), MaxTransactionIO)
	}
	if len(tx.Outputs) > MaxTransactionIO {
		return fmt.Errorf("ledgertypes: transaction has %d outputs, max %d", len(tx.Outputs), MaxTransactionIO)
	}
	w.PutU8(uint8(len(tx.Inputs)))
	w.PutU8(uint8(len(tx.Outputs)))
	for _, in := range tx.Inputs {
		if err := in.Encode(w); err != nil {
			return err
		}
	}
	for _, out := range tx.Outputs {
		if err := out.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTransaction reads a canonical-wire transaction body.
func DecodeTransaction(r *wire.Reader) (Transaction, error) {
	inCount, err := r.GetU8()
	if err != nil {
		return Transaction{}, err
	}
	outCount, err := r.GetU8()
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		Inputs:  make([]Input, 0, inCount),
		Outputs: make([]Output, 0, outCount),
	}
	for i := 0; i < int(inCount); i++ {
		in, err := DecodeInput(r)
		if err != nil {
			return Transaction{}, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	for i := 0; i < int(outCount); i++ {
		out, err := DecodeOutput(r)
		if err != nil {
			return Transaction{}, err
		}
		tx.Outputs = append(tx.Outputs, out)
	}
	return tx, nil
}

// ID is the transaction's content-addressed identifier: the Blake2b-256
// hash of its canonical encoding. Two transactions with identical inputs
// and outputs (even signed by different witnesses) share an ID, since the
// ID commits only to the body.
func (tx Transaction) ID() (chainhash.Hash, error) {
	w := wire.NewWriter(256)
	if err := tx.Encode(w); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.HashH(w.Bytes()), nil
}

// TotalInputValue sums every input's declared value, failing on overflow.
func (tx Transaction) TotalInputValue() (uint64, error) {
	var total uint64
	for _, in := range tx.Inputs {
		sum := total + uint64(in.Value)
		if sum < total {
			return 0, fmt.Errorf("ledgertypes: input value sum overflows u64")
		}
		total = sum
	}
	return total, nil
}

// TotalOutputValue sums every output's declared value, failing on overflow.
func (tx Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		sum := total + uint64(out.Value)
		if sum < total {
			return 0, fmt.Errorf("ledgertypes: output value sum overflows u64")
		}
		total = sum
	}
	return total, nil
}
