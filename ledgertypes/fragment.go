// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/wire"
)

// FragmentKind discriminates the kind of content a Fragment carries. A
// fragment is the unit a block body is a sequence of; every kind besides
// Initial and OldUtxoDeclaration wraps an AuthenticatedTransaction, tagged
// by which certificate (if any) rides alongside the value transfer.
type FragmentKind uint8

const (
	FragmentInitial            FragmentKind = 0
	FragmentOldUtxoDeclaration FragmentKind = 1
	FragmentTransaction        FragmentKind = 2
	FragmentStakeDelegation    FragmentKind = 3
	FragmentOwnerStakeDelegation FragmentKind = 4
	FragmentPoolRegistration   FragmentKind = 5
	FragmentPoolRetirement     FragmentKind = 6
	FragmentPoolUpdate         FragmentKind = 7
	FragmentVotePlan           FragmentKind = 8
	FragmentVoteCast           FragmentKind = 9
	FragmentVoteTally          FragmentKind = 10
	FragmentUpdateProposal     FragmentKind = 11
	FragmentUpdateVote         FragmentKind = 12
	FragmentMintToken          FragmentKind = 13
)

// certificateKindForFragment maps every certificate-carrying fragment kind
// to the certificate kind it must carry, so decode can reject a
// fragment/certificate kind mismatch rather than trusting the certificate's
// own tag.
var certificateKindForFragment = map[FragmentKind]CertificateKind{
	FragmentStakeDelegation:      CertStakeDelegation,
	FragmentOwnerStakeDelegation: CertOwnerStakeDelegation,
	FragmentPoolRegistration:     CertPoolRegistration,
	FragmentPoolRetirement:       CertPoolRetirement,
	FragmentPoolUpdate:           CertPoolUpdate,
	FragmentVotePlan:             CertVotePlan,
	FragmentVoteCast:             CertVoteCast,
	FragmentVoteTally:            CertVoteTally,
	FragmentUpdateProposal:       CertUpdateProposal,
	FragmentUpdateVote:           CertUpdateVote,
	FragmentMintToken:            CertMintToken,
}

// MaxOldUtxoEntries bounds a block0 legacy UTxO declaration.
const MaxOldUtxoEntries = 0xffff

// OldUtxoEntry is one legacy balance carried forward from a predecessor
// chain's UTxO set at genesis.
type OldUtxoEntry struct {
	LegacyAddress [32]byte
	Value         amount.Value
}

// OldUtxoDeclarationFragment seeds the ledger with legacy balances; it may
// only appear in block 0.
type OldUtxoDeclarationFragment struct {
	Entries []OldUtxoEntry
}

// AuthenticatedTransaction pairs a transaction body with the witnesses
// authorizing its inputs and, for certificate-carrying fragments, the
// certificate the transaction's outputs fund or accompany.
type AuthenticatedTransaction struct {
	Transaction Transaction
	Certificate *Certificate // nil for a plain FragmentTransaction
	Witnesses   []Witness
}

// Encode writes the authenticated transaction's canonical bytes: the body,
// then the optional certificate, then the witnesses (one per input, in
// order).
func (at AuthenticatedTransaction) Encode(w *wire.Writer) error {
	if err := at.Transaction.Encode(w); err != nil {
		return err
	}
	if at.Certificate != nil {
		if err := at.Certificate.Encode(w); err != nil {
			return err
		}
	}
	if len(at.Witnesses) != len(at.Transaction.Inputs) {
		return fmt.Errorf("ledgertypes: %d witnesses for %d inputs", len(at.Witnesses), len(at.Transaction.Inputs))
	}
	for _, wit := range at.Witnesses {
		if err := wit.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func decodeAuthenticatedTransaction(r *wire.Reader, certKind *CertificateKind) (AuthenticatedTransaction, error) {
	tx, err := DecodeTransaction(r)
	if err != nil {
		return AuthenticatedTransaction{}, err
	}
	var cert *Certificate
	if certKind != nil {
		c, err := DecodeCertificate(r)
		if err != nil {
			return AuthenticatedTransaction{}, err
		}
		if c.Kind != *certKind {
			return AuthenticatedTransaction{}, fmt.Errorf("ledgertypes: fragment declares certificate kind %d, body has %d", *certKind, c.Kind)
		}
		cert = &c
	}
	witnesses := make([]Witness, 0, len(tx.Inputs))
	for i := 0; i < len(tx.Inputs); i++ {
		wit, err := DecodeWitness(r)
		if err != nil {
			return AuthenticatedTransaction{}, err
		}
		witnesses = append(witnesses, wit)
	}
	return AuthenticatedTransaction{Transaction: tx, Certificate: cert, Witnesses: witnesses}, nil
}

// Fragment is one entry of a block's body: exactly one of Initial, OldUtxo
// or AuthTx is populated, selected by Kind.
type Fragment struct {
	Kind FragmentKind

	Initial *chaincfg.ConfigParams
	OldUtxo *OldUtxoDeclarationFragment
	AuthTx  *AuthenticatedTransaction
}

// Encode writes the fragment's canonical bytes: a one-byte kind tag
// followed by its payload.
func (f Fragment) Encode(w *wire.Writer) error {
	w.PutU8(uint8(f.Kind))
	switch f.Kind {
	case FragmentInitial:
		return f.Initial.Encode(w)
	case FragmentOldUtxoDeclaration:
		if len(f.OldUtxo.Entries) > MaxOldUtxoEntries {
			return fmt.Errorf("ledgertypes: old utxo declaration has %d entries, max %d", len(f.OldUtxo.Entries), MaxOldUtxoEntries)
		}
		w.PutU16(uint16(len(f.OldUtxo.Entries)))
		for _, e := range f.OldUtxo.Entries {
			w.PutBytes(e.LegacyAddress[:])
			amount.PutValue(w, e.Value)
		}
		return nil
	case FragmentTransaction:
		return f.AuthTx.Encode(w)
	default:
		if _, ok := certificateKindForFragment[f.Kind]; !ok {
			return fmt.Errorf("ledgertypes: unknown fragment kind %d", f.Kind)
		}
		return f.AuthTx.Encode(w)
	}
}

// DecodeFragment reads a canonical-wire fragment.
func DecodeFragment(r *wire.Reader) (Fragment, error) {
	tag, err := r.GetU8()
	if err != nil {
		return Fragment{}, err
	}
	kind := FragmentKind(tag)
	switch kind {
	case FragmentInitial:
		params, err := chaincfg.Decode(r)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{Kind: kind, Initial: params}, nil
	case FragmentOldUtxoDeclaration:
		count, err := r.GetU16()
		if err != nil {
			return Fragment{}, err
		}
		entries := make([]OldUtxoEntry, 0, count)
		for i := 0; i < int(count); i++ {
			addr, err := r.GetHash32()
			if err != nil {
				return Fragment{}, err
			}
			value, err := amount.GetValue(r)
			if err != nil {
				return Fragment{}, err
			}
			entries = append(entries, OldUtxoEntry{LegacyAddress: addr, Value: value})
		}
		return Fragment{Kind: kind, OldUtxo: &OldUtxoDeclarationFragment{Entries: entries}}, nil
	case FragmentTransaction:
		at, err := decodeAuthenticatedTransaction(r, nil)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{Kind: kind, AuthTx: &at}, nil
	default:
		certKind, ok := certificateKindForFragment[kind]
		if !ok {
			return Fragment{}, fmt.Errorf("ledgertypes: unknown fragment kind tag %d", tag)
		}
		at, err := decodeAuthenticatedTransaction(r, &certKind)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{Kind: kind, AuthTx: &at}, nil
	}
}

// ID is the fragment's content-addressed identifier: the Blake2b-256 hash
// of its canonical encoding, tag byte included, so fragments of different
// kinds never collide even if their payloads happen to coincide.
func (f Fragment) ID() (chainhash.Hash, error) {
	w := wire.NewWriter(512)
	if err := f.Encode(w); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.HashH(w.Bytes()), nil
}
