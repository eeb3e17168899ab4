// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b256 returns the 32-byte Blake2b-256 digest of b. This is the
// primary hash used for Hash/HeaderId/FragmentId everywhere in the core;
// chainhash.HashB is the canonical entry point for callers outside crypto,
// this copy exists to avoid an import cycle from crypto back into
// chainhash.
func Blake2b256(b []byte) [32]byte {
	return blake2b.Sum256(b)
}

// Blake2b224 returns the 28-byte Blake2b-224 digest of b, used for the
// shorter pool-id-class digests some certificate fields reference.
func Blake2b224(b []byte) [28]byte {
	h, err := blake2b.New(28, nil)
	if err != nil {
		panic("crypto: blake2b-224 init: " + err.Error())
	}
	h.Write(b)
	var out [28]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SHA3_256 returns the 32-byte SHA3-256 digest of b.
func SHA3_256(b []byte) [32]byte {
	return sha3.Sum256(b)
}

// SHA256 returns the 32-byte SHA-256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}
