// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto is the minimal typed cryptographic surface the core
// depends on: role-tagged Ed25519 signatures, a VRF lottery primitive, a
// forward-secure KES scheme for OGP headers, and the hash/bech32 helpers
// every other package needs. Nothing here is a general-purpose crypto
// toolkit; every primitive exists because a specific wire field needs it.
package crypto

// Role is a zero-sized marker type identifying what a Signature was made
// over, so a header signature and a transaction witness signature - both
// nominally 64 raw bytes - can never be passed to the wrong Verify call by
// mistake. This mirrors the original role.rs phantom-type discriminator,
// expressed with a Go generic type parameter instead of a Rust trait bound.
type Role interface {
	roleName() string
}

// BlockRole tags signatures authenticating a BFT block header.
type BlockRole struct{}

func (BlockRole) roleName() string { return "block" }

// TransactionRole tags signatures witnessing a transaction input.
type TransactionRole struct{}

func (TransactionRole) roleName() string { return "transaction" }

// CertificateRole tags owner/pool signatures over a certificate body.
type CertificateRole struct{}

func (CertificateRole) roleName() string { return "certificate" }
