// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/wire"
)

// MaxMultisigSignatures bounds a multisig witness's signature list. It
// mirrors the maximum number of owners a multisig declaration can name.
const MaxMultisigSignatures = 255

// WitnessKind discriminates what proves authorization for a transaction
// input.
type WitnessKind uint8

// The three ways an input can be authorized.
const (
	WitnessKindUtxo     WitnessKind = 0
	WitnessKindAccount  WitnessKind = 1
	WitnessKindMultisig WitnessKind = 2
)

// Witness proves the right to spend the input it corresponds to
// positionally (witness i authorizes input i). Account witnesses carry a
// lane and a spending counter: accounts partition their monotonic
// anti-replay counter across a small fixed number of independent lanes so
// that unrelated transactions issued concurrently from the same account do
// not have to serialize on a single counter.
type Witness struct {
	Kind WitnessKind

	// Utxo, Account
	Signature crypto.Signature[crypto.TransactionRole]

	// Account only
	Lane           uint8
	SpendingCounter uint32

	// Multisig only
	MultisigSignatures []crypto.Signature[crypto.TransactionRole]
}

// NewUtxoWitness builds a Utxo-kind witness from a transaction signature.
func NewUtxoWitness(sig crypto.Signature[crypto.TransactionRole]) Witness {
	return Witness{Kind: WitnessKindUtxo, Signature: sig}
}

// NewAccountWitness builds an Account-kind witness, binding the signature
// to the lane and counter value it was produced against.
func NewAccountWitness(lane uint8, counter uint32, sig crypto.Signature[crypto.TransactionRole]) Witness {
	return Witness{Kind: WitnessKindAccount, Signature: sig, Lane: lane, SpendingCounter: counter}
}

// NewMultisigWitness builds a Multisig-kind witness from an ordered list of
// owner signatures.
func NewMultisigWitness(sigs []crypto.Signature[crypto.TransactionRole]) Witness {
	return Witness{Kind: WitnessKindMultisig, MultisigSignatures: sigs}
}

// Encode writes the witness's canonical bytes.
func (w2 Witness) Encode(w *wire.Writer) error {
	w.PutU8(uint8(w2.Kind))
	switch w2.Kind {
	case WitnessKindUtxo:
		sig := w2.Signature.Bytes()
		w.PutBytes(sig[:])
	case WitnessKindAccount:
		w.PutU8(w2.Lane)
		w.PutU32(w2.SpendingCounter)
		sig := w2.Signature.Bytes()
		w.PutBytes(sig[:])
	case WitnessKindMultisig:
		if len(w2.MultisigSignatures) > MaxMultisigSignatures {
			return fmt.Errorf("ledgertypes: multisig witness carries %d signatures, max %d",
				len(w2.MultisigSignatures), MaxMultisigSignatures)
		}
		w.PutU8(uint8(len(w2.MultisigSignatures)))
		for _, sig := range w2.MultisigSignatures {
			b := sig.Bytes()
			w.PutBytes(b[:])
		}
	default:
		return fmt.Errorf("ledgertypes: unknown witness kind %d", w2.Kind)
	}
	return nil
}

// DecodeWitness reads a canonical-wire witness.
func DecodeWitness(r *wire.Reader) (Witness, error) {
	tag, err := r.GetU8()
	if err != nil {
		return Witness{}, err
	}
	switch WitnessKind(tag) {
	case WitnessKindUtxo:
		b, err := r.GetBytes(crypto.SignatureSize)
		if err != nil {
			return Witness{}, err
		}
		sig, err := crypto.SignatureFromBytes[crypto.TransactionRole](b)
		if err != nil {
			return Witness{}, err
		}
		return NewUtxoWitness(sig), nil
	case WitnessKindAccount:
		lane, err := r.GetU8()
		if err != nil {
			return Witness{}, err
		}
		counter, err := r.GetU32()
		if err != nil {
			return Witness{}, err
		}
		b, err := r.GetBytes(crypto.SignatureSize)
		if err != nil {
			return Witness{}, err
		}
		sig, err := crypto.SignatureFromBytes[crypto.TransactionRole](b)
		if err != nil {
			return Witness{}, err
		}
		return NewAccountWitness(lane, counter, sig), nil
	case WitnessKindMultisig:
		count, err := r.GetU8()
		if err != nil {
			return Witness{}, err
		}
		sigs := make([]crypto.Signature[crypto.TransactionRole], 0, count)
		for i := 0; i < int(count); i++ {
			b, err := r.GetBytes(crypto.SignatureSize)
			if err != nil {
				return Witness{}, err
			}
			sig, err := crypto.SignatureFromBytes[crypto.TransactionRole](b)
			if err != nil {
				return Witness{}, err
			}
			sigs = append(sigs, sig)
		}
		return NewMultisigWitness(sigs), nil
	default:
		return Witness{}, fmt.Errorf("ledgertypes: unknown witness kind tag %d", tag)
	}
}
