// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address implements the tagged discriminated address scheme: the
// wire-level discrimination-aware encode/decode this spec requires, adapted
// from the standard-address encoding conventions in the teacher's
// txscript/stdaddr package (itself a hash160/script-template scheme) to the
// spec's closed four-variant, Ed25519-keyed address model.
package address

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/wire"
)

// Kind discriminates an address's variant.
type Kind uint8

// The closed address-kind space.
const (
	KindSingle   Kind = 0 // spending key only
	KindGroup    Kind = 1 // spending + delegation key
	KindAccount  Kind = 2 // account-keyed balance
	KindMultisig Kind = 3 // references a multisig declaration
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindGroup:
		return "group"
	case KindAccount:
		return "account"
	case KindMultisig:
		return "multisig"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ErrInvalidDiscrimination is returned when an address's discrimination
// does not match the chain it is being used on.
var ErrInvalidDiscrimination = fmt.Errorf("address: invalid discrimination for this chain")

// Address is a tagged, discrimination-aware spending/delegation target.
// Only the fields relevant to its Kind are meaningful; callers must branch
// on Kind before reading SpendKey/StakeKey/AccountKey/MultisigHash.
type Address struct {
	Discrimination chaincfg.Discrimination
	Kind           Kind
	SpendKey       crypto.PublicKey // Single, Group
	StakeKey       crypto.PublicKey // Group only
	AccountKey     crypto.PublicKey // Account only
	MultisigHash   [32]byte         // Multisig only
}

// NewSingle builds a Single-kind address.
func NewSingle(disc chaincfg.Discrimination, spend crypto.PublicKey) Address {
	return Address{Discrimination: disc, Kind: KindSingle, SpendKey: spend}
}

// NewGroup builds a Group-kind address (spending + delegation key).
func NewGroup(disc chaincfg.Discrimination, spend, stake crypto.PublicKey) Address {
	return Address{Discrimination: disc, Kind: KindGroup, SpendKey: spend, StakeKey: stake}
}

// NewAccount builds an Account-kind address.
func NewAccount(disc chaincfg.Discrimination, account crypto.PublicKey) Address {
	return Address{Discrimination: disc, Kind: KindAccount, AccountKey: account}
}

// NewMultisig builds a Multisig-kind address referencing a multisig
// declaration by hash.
func NewMultisig(disc chaincfg.Discrimination, declarationHash [32]byte) Address {
	return Address{Discrimination: disc, Kind: KindMultisig, MultisigHash: declarationHash}
}

// tagByte packs discrimination into the top bit and kind into the low three
// bits, the way the teacher's stdaddr packs a version/hash-type byte ahead
// of the payload.
func (a Address) tagByte() byte {
	var discBit byte
	if a.Discrimination == chaincfg.DiscriminationTest {
		discBit = 1
	}
	return (discBit << 7) | byte(a.Kind)
}

// Encode writes the address's canonical wire bytes: a tag byte followed by
// the variant's key material.
func (a Address) Encode(w *wire.Writer) error {
	w.PutU8(a.tagByte())
	switch a.Kind {
	case KindSingle:
		w.PutBytes(a.SpendKey[:])
	case KindGroup:
		w.PutBytes(a.SpendKey[:])
		w.PutBytes(a.StakeKey[:])
	case KindAccount:
		w.PutBytes(a.AccountKey[:])
	case KindMultisig:
		w.PutBytes(a.MultisigHash[:])
	default:
		return fmt.Errorf("address: unknown kind %d", a.Kind)
	}
	return nil
}

// Decode reads a canonical-wire address.
func Decode(r *wire.Reader) (Address, error) {
	tag, err := r.GetU8()
	if err != nil {
		return Address{}, err
	}
	disc := chaincfg.DiscriminationProduction
	if tag&0x80 != 0 {
		disc = chaincfg.DiscriminationTest
	}
	kind := Kind(tag & 0x7f)

	var a Address
	a.Discrimination = disc
	a.Kind = kind
	switch kind {
	case KindSingle:
		b, err := r.GetBytes(crypto.PublicKeySize)
		if err != nil {
			return Address{}, err
		}
		copy(a.SpendKey[:], b)
	case KindGroup:
		b, err := r.GetBytes(crypto.PublicKeySize)
		if err != nil {
			return Address{}, err
		}
		copy(a.SpendKey[:], b)
		b2, err := r.GetBytes(crypto.PublicKeySize)
		if err != nil {
			return Address{}, err
		}
		copy(a.StakeKey[:], b2)
	case KindAccount:
		b, err := r.GetBytes(crypto.PublicKeySize)
		if err != nil {
			return Address{}, err
		}
		copy(a.AccountKey[:], b)
	case KindMultisig:
		h, err := r.GetHash32()
		if err != nil {
			return Address{}, err
		}
		a.MultisigHash = h
	default:
		return Address{}, fmt.Errorf("address: unknown kind tag %d", kind)
	}
	return a, nil
}

// RequireDiscrimination fails with ErrInvalidDiscrimination if a's
// discrimination does not match want - the check every ledger operation
// consuming an address runs before anything else.
func (a Address) RequireDiscrimination(want chaincfg.Discrimination) error {
	if a.Discrimination != want {
		return ErrInvalidDiscrimination
	}
	return nil
}

// Bech32 encodes the address for human display, using the production or
// test HRP depending on discrimination.
func (a Address) Bech32() (string, error) {
	w := wire.NewWriter(65)
	if err := a.Encode(w); err != nil {
		return "", err
	}
	kind := crypto.HRPAddress
	if a.Discrimination == chaincfg.DiscriminationTest {
		kind = crypto.HRPTestAddress
	}
	return crypto.Bech32Encode(kind, w.Bytes())
}

// AccountID identifies an account in the ledger's account set; it is simply
// the account address's spending key, since the spec keys accounts directly
// by their Ed25519 public key rather than a derived hash.
type AccountID [crypto.PublicKeySize]byte

// AccountID returns the account identifier for an Account-kind address. It
// panics if a is not Account-kind; callers must branch on Kind first.
func (a Address) AccountID() AccountID {
	if a.Kind != KindAccount {
		panic("address: AccountID called on non-account address")
	}
	return AccountID(a.AccountKey)
}
