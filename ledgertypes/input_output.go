// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/wire"
)

// accountSentinel is the index_or_account byte value that marks an Input as
// spending from an account balance rather than a UTxO entry. A UTxO output
// index can never reach this value since a transaction is capped at 255
// outputs and indices 0-254 are the addressable range, leaving 0xff free as
// an unambiguous tag.
const accountSentinel = 0xff

// InputKind discriminates what an Input spends from.
type InputKind uint8

// The two ways a transaction can source value.
const (
	InputKindUtxo    InputKind = 0
	InputKindAccount InputKind = 1
)

// Input spends either a single UTxO entry or debits an account. The wire
// encoding is uniform across both: a one-byte index_or_account field (0xff
// for account, otherwise the spent output's index), an amount, and a
// 32-byte payload whose meaning depends on the tag (a transaction id for
// UTxO spends, an account id for account spends).
type Input struct {
	Kind           InputKind
	IndexOrAccount uint8 // meaningful only when Kind == InputKindUtxo
	Value          amount.Value
	UtxoTxID       chainhash.Hash   // Kind == InputKindUtxo
	AccountID      address.AccountID // Kind == InputKindAccount
}

// NewUtxoInput builds an Input spending one output of a prior transaction.
func NewUtxoInput(ptr UtxoPointer) Input {
	return Input{
		Kind:           InputKindUtxo,
		IndexOrAccount: ptr.OutputIndex,
		Value:          ptr.Value,
		UtxoTxID:       ptr.TransactionID,
	}
}

// NewAccountInput builds an Input debiting an account by value.
func NewAccountInput(account address.AccountID, value amount.Value) Input {
	return Input{
		Kind:      InputKindAccount,
		Value:     value,
		AccountID: account,
	}
}

// UtxoPointer recovers the spent output pointer. It panics if the input is
// not a UTxO input; callers must branch on Kind first.
func (in Input) UtxoPointer() UtxoPointer {
	if in.Kind != InputKindUtxo {
		panic("ledgertypes: UtxoPointer called on account input")
	}
	return UtxoPointer{TransactionID: in.UtxoTxID, OutputIndex: in.IndexOrAccount, Value: in.Value}
}

// Encode writes the input's canonical bytes.
func (in Input) Encode(w *wire.Writer) error {
	switch in.Kind {
	case InputKindUtxo:
		w.PutU8(in.IndexOrAccount)
		amount.PutValue(w, in.Value)
		w.PutBytes(in.UtxoTxID[:])
	case InputKindAccount:
		w.PutU8(accountSentinel)
		amount.PutValue(w, in.Value)
		w.PutBytes(in.AccountID[:])
	default:
		return fmt.Errorf("ledgertypes: unknown input kind %d", in.Kind)
	}
	return nil
}

// DecodeInput reads a canonical-wire input.
func DecodeInput(r *wire.Reader) (Input, error) {
	tag, err := r.GetU8()
	if err != nil {
		return Input{}, err
	}
	value, err := amount.GetValue(r)
	if err != nil {
		return Input{}, err
	}
	payload, err := r.GetHash32()
	if err != nil {
		return Input{}, err
	}
	if tag == accountSentinel {
		return Input{Kind: InputKindAccount, Value: value, AccountID: address.AccountID(payload)}, nil
	}
	return Input{Kind: InputKindUtxo, IndexOrAccount: tag, Value: value, UtxoTxID: chainhash.Hash(payload)}, nil
}

// Output is a destination address and the value sent to it.
type Output struct {
	Address address.Address
	Value   amount.Value
}

// Encode writes the output's canonical bytes: the address followed by its
// value.
func (o Output) Encode(w *wire.Writer) error {
	if err := o.Address.Encode(w); err != nil {
		return err
	}
	amount.PutValue(w, o.Value)
	return nil
}

// DecodeOutput reads a canonical-wire output.
func DecodeOutput(r *wire.Reader) (Output, error) {
	addr, err := address.Decode(r)
	if err != nil {
		return Output{}, err
	}
	value, err := amount.GetValue(r)
	if err != nil {
		return Output{}, err
	}
	return Output{Address: addr, Value: value}, nil
}
