// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"fmt"

	"github.com/decred/dcrd/bech32"
)

// Bech32Kind discriminates what a bech32-encoded payload is, so decoding can
// reject a string encoded under the wrong human-readable part outright
// rather than accepting bytes from a different key class.
type Bech32Kind string

// HRPs for every payload kind the core round-trips through bech32. These
// match chain-crypto's per-role HRP convention (distinct prefixes per key
// class and per certificate/witness kind) rather than using one blanket
// prefix for everything.
const (
	HRPEd25519Secret      Bech32Kind = "ed25519_sk"
	HRPEd25519Public      Bech32Kind = "ed25519_pk"
	HRPEd25519ExtendedSec Bech32Kind = "ed25519e_sk"
	HRPVRFSecret          Bech32Kind = "vrf_sk"
	HRPVRFPublic          Bech32Kind = "vrf_pk"
	HRPKESSecret          Bech32Kind = "kes_sk"
	HRPKESPublic          Bech32Kind = "kes_pk"
	HRPCertificate        Bech32Kind = "cert"
	HRPWitness            Bech32Kind = "witness"
	HRPBlockHash          Bech32Kind = "block"
	HRPAddress            Bech32Kind = "addr"
	HRPTestAddress        Bech32Kind = "taddr"
)

// Bech32Encode encodes payload under the given kind's HRP.
func Bech32Encode(kind Bech32Kind, payload []byte) (string, error) {
	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("crypto: bech32 convert bits: %w", err)
	}
	return bech32.Encode(string(kind), converted)
}

// Bech32Decode decodes s, requiring it to carry the expected kind's HRP; any
// other HRP - including a structurally valid bech32 string for a different
// payload kind - fails with InvalidDiscrimination-shaped behavior rather
// than silently returning bytes of the wrong kind.
func Bech32Decode(kind Bech32Kind, s string) ([]byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: bech32 decode: %w", err)
	}
	if hrp != string(kind) {
		return nil, fmt.Errorf("crypto: bech32 hrp mismatch: want %q, got %q", kind, hrp)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("crypto: bech32 convert bits: %w", err)
	}
	return payload, nil
}
