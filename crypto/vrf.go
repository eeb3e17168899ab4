// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/vechain/go-ecvrf"
)

// vrfSuite is the single ECVRF ciphersuite the core speaks. Every pool uses
// the same suite so that a header's vrf_proof is self-describing: verifying
// it only needs the pool's public key, never an out-of-band suite id.
var vrfSuite = ecvrf.NewSecp256k1Sha256Tai()

// maxVRFProofSize bounds a proof to what fits the OGP header's vrf_proof
// field: 96 bytes on the wire, one of them a length prefix, leaving 95 for
// the proof itself.
const maxVRFProofSize = 95

// VRFPublicKeyBytesSize is the length of a VRF public key's compressed
// secp256k1 point encoding, the form it takes in a pool certificate.
const VRFPublicKeyBytesSize = 33

// VRFPublicKeyBytes is a VRF public key in its compressed wire form.
type VRFPublicKeyBytes [VRFPublicKeyBytesSize]byte

// VRFSecretKey is a pool's VRF signing key, distinct from its Ed25519 KES
// signing key: the lottery and the header authentication use independent
// key material.
type VRFSecretKey struct {
	key *ecdsa.PrivateKey
}

// VRFPublicKey is a pool's VRF verification key.
type VRFPublicKey struct {
	key *ecdsa.PublicKey
}

// VRFProof is a proof of correct VRF evaluation, carried on the wire as a
// length-prefixed (max 95 byte) blob.
type VRFProof struct {
	Bytes []byte
}

// ProvenOutputSeed is the 32-byte deterministic output a verified VRF proof
// yields, consumed by the leadership lottery and epoch nonce evolution.
type ProvenOutputSeed [32]byte

// GenerateVRFKeyPair derives a deterministic secp256k1 VRF key pair from a
// 32-byte seed, for genesis tooling and tests; production key custody is
// out of scope for the core.
func GenerateVRFKeyPair(seed [32]byte) (VRFPublicKey, VRFSecretKey, error) {
	priv := secp256k1.PrivKeyFromBytes(seed[:])
	if priv == nil {
		return VRFPublicKey{}, VRFSecretKey{}, fmt.Errorf("crypto: vrf seed does not yield a valid scalar")
	}
	ecdsaPriv := priv.ToECDSA()
	return VRFPublicKey{key: &ecdsaPriv.PublicKey}, VRFSecretKey{key: ecdsaPriv}, nil
}

// VRFEvaluate evaluates the VRF over msg and returns both the proof to put
// on the wire and the seed the lottery consumes.
func VRFEvaluate(sk VRFSecretKey, msg []byte) (VRFProof, ProvenOutputSeed, error) {
	pi, beta, err := vrfSuite.Prove(sk.key, msg)
	if err != nil {
		return VRFProof{}, ProvenOutputSeed{}, fmt.Errorf("crypto: vrf prove: %w", err)
	}
	if len(pi) > maxVRFProofSize {
		return VRFProof{}, ProvenOutputSeed{}, fmt.Errorf("crypto: vrf proof %d bytes exceeds wire slot of %d", len(pi), maxVRFProofSize)
	}
	return VRFProof{Bytes: pi}, seedFromBeta(beta), nil
}

// VRFVerify checks a proof against a public key and message, returning the
// proven seed on success. Leadership re-derives the eligibility threshold
// from the seed returned here, never from the caller-supplied proof bytes
// directly, so a forged proof that merely decodes cannot smuggle a seed
// that was not actually proven.
func VRFVerify(pk VRFPublicKey, msg []byte, proof VRFProof) (ProvenOutputSeed, bool) {
	beta, err := vrfSuite.Verify(pk.key, msg, proof.Bytes)
	if err != nil {
		return ProvenOutputSeed{}, false
	}
	return seedFromBeta(beta), true
}

func seedFromBeta(beta []byte) ProvenOutputSeed {
	return Blake2b256(beta)
}

// Bytes returns pk's compressed secp256k1 point encoding, for embedding in
// a pool certificate.
func (pk VRFPublicKey) Bytes() VRFPublicKeyBytes {
	pub := secp256k1.PublicKey{X: *new(secp256k1.FieldVal).SetByteSlice(pk.key.X.Bytes()), Y: *new(secp256k1.FieldVal).SetByteSlice(pk.key.Y.Bytes())}
	var out VRFPublicKeyBytes
	copy(out[:], pub.SerializeCompressed())
	return out
}

// VRFPublicKeyFromBytes parses a compressed secp256k1 point back into a
// VRFPublicKey.
func VRFPublicKeyFromBytes(b VRFPublicKeyBytes) (VRFPublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b[:])
	if err != nil {
		return VRFPublicKey{}, fmt.Errorf("crypto: parse vrf public key: %w", err)
	}
	return VRFPublicKey{key: pub.ToECDSA()}, nil
}
