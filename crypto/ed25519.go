// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	stded25519 "crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
)

// SignatureSize is the fixed byte length of an Ed25519 signature.
const SignatureSize = stded25519.SignatureSize

// PublicKeySize is the fixed byte length of an Ed25519 public key.
const PublicKeySize = stded25519.PublicKeySize

// SecretKeySize is the fixed byte length of an Ed25519 private key.
const SecretKeySize = stded25519.PrivateKeySize

// PublicKey is a raw Ed25519 public key.
type PublicKey [PublicKeySize]byte

// SecretKey is a raw Ed25519 expanded private key.
type SecretKey [SecretKeySize]byte

// Signature is a 64-byte Ed25519 signature tagged with the Role it was
// produced for. Two signatures with identical bytes but different Role type
// parameters are different Go types and cannot be substituted for each
// other at a call site without an explicit conversion.
type Signature[R Role] struct {
	bytes [SignatureSize]byte
}

// Bytes returns the raw signature bytes.
func (s Signature[R]) Bytes() [SignatureSize]byte {
	return s.bytes
}

// SignatureFromBytes builds a role-tagged signature from raw wire bytes.
func SignatureFromBytes[R Role](b []byte) (Signature[R], error) {
	var s Signature[R]
	if len(b) != SignatureSize {
		return s, fmt.Errorf("crypto: signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	copy(s.bytes[:], b)
	return s, nil
}

// Sign produces a role-tagged Ed25519 signature over msg.
func Sign[R Role](sk SecretKey, msg []byte) Signature[R] {
	sig := stded25519.Sign(stded25519.PrivateKey(sk[:]), msg)
	var s Signature[R]
	copy(s.bytes[:], sig)
	return s
}

// Verify checks a role-tagged Ed25519 signature against a public key and
// message. The Role type parameter must match the role the signature was
// constructed under; the compiler enforces this at call sites that thread
// typed Signature values, while SignatureFromBytes callers are responsible
// for decoding into the expected role.
func Verify[R Role](pk PublicKey, msg []byte, sig Signature[R]) bool {
	return stded25519.Verify(stded25519.PublicKey(pk[:]), msg, sig.bytes[:])
}

// GenerateKeyPair returns a fresh Ed25519 key pair. Key custody (storage,
// rotation, wallet export) is out of scope for the core; this exists only
// for tests and genesis tooling that need a key to sign with.
func GenerateKeyPair(seed [32]byte) (PublicKey, SecretKey) {
	sk := stded25519.NewKeyFromSeed(seed[:])
	pub := sk.Public().(stded25519.PublicKey)
	var pk PublicKey
	var secret SecretKey
	copy(pk[:], pub)
	copy(secret[:], sk)
	return pk, secret
}

// ExtendedSecretKey is a BIP32-style Ed25519 extended private key: a 32-byte
// scalar plus a 32-byte chain code, enabling hardened-independent child key
// derivation the way ed25519-bip32 does for hierarchical wallets. The core
// only needs the scalar/point arithmetic to validate derived public keys
// carried in genesis or delegation material; it does not perform custody.
type ExtendedSecretKey struct {
	scalarBytes [32]byte
	chainCode   [32]byte
}

// NewExtendedSecretKey builds an extended secret key from a 64-byte seed,
// clamping the scalar the way RFC 8032 / ed25519-bip32 clamp a seed-derived
// scalar before use.
func NewExtendedSecretKey(seed [64]byte) ExtendedSecretKey {
	var scalarBytes [32]byte
	copy(scalarBytes[:], seed[:32])
	scalarBytes[0] &= 248
	scalarBytes[31] &= 127
	scalarBytes[31] |= 64

	var ext ExtendedSecretKey
	copy(ext.scalarBytes[:], scalarBytes[:])
	copy(ext.chainCode[:], seed[32:])
	return ext
}

// PublicKey derives the Ed25519 public key for the extended secret by
// multiplying the clamped scalar against the curve base point.
func (e ExtendedSecretKey) PublicKey() (PublicKey, error) {
	s, err := edwards25519.NewScalar().SetBytesWithClamping(e.scalarBytes[:])
	if err != nil {
		return PublicKey{}, fmt.Errorf("crypto: clamp extended scalar: %w", err)
	}
	point := new(edwards25519.Point).ScalarBaseMult(s)
	var pk PublicKey
	copy(pk[:], point.Bytes())
	return pk, nil
}

// DeriveChild derives a non-hardened child extended key at the given index
// by mixing the chain code and index into a new chain code and adding a
// tweak scalar to the parent scalar, following the ed25519-bip32 additive
// derivation scheme rather than the secp256k1 BIP32 construction. PublicKey
// clamps the stored child scalar again before the base-point
// multiplication, so a child's public key is not simply the parent's public
// key plus tweak times the base point.
func (e ExtendedSecretKey) DeriveChild(index uint32, tweak [32]byte) (ExtendedSecretKey, error) {
	parentScalar, err := edwards25519.NewScalar().SetBytesWithClamping(e.scalarBytes[:])
	if err != nil {
		return ExtendedSecretKey{}, fmt.Errorf("crypto: clamp parent scalar: %w", err)
	}
	tweakScalar, err := edwards25519.NewScalar().SetUniformBytes(padTo64(tweak[:]))
	if err != nil {
		return ExtendedSecretKey{}, fmt.Errorf("crypto: tweak scalar: %w", err)
	}
	childScalar := edwards25519.NewScalar().Add(parentScalar, tweakScalar)

	var child ExtendedSecretKey
	copy(child.scalarBytes[:], childScalar.Bytes())
	child.chainCode = chainCodeHash(e.chainCode, index)
	return child, nil
}

func padTo64(b []byte) []byte {
	out := make([]byte, 64)
	copy(out, b)
	return out
}

func chainCodeHash(parent [32]byte, index uint32) [32]byte {
	h := Blake2b256(append(parent[:], byte(index), byte(index>>8), byte(index>>16), byte(index>>24)))
	return h
}
