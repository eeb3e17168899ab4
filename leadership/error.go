// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leadership decides who may produce the block at a given slot,
// and authenticates that a produced header's claim to do so is genuine.
// It implements both the BFT leader-rotation schedule and the OGP
// VRF-lottery/KES schedule the chain can run under, selected by a
// header's consensus version.
package leadership

// ErrorKind identifies a kind of error returned by this package.
type ErrorKind string

// Error satisfies the error interface.
func (e ErrorKind) Error() string {
	return string(e)
}

const (
	// ErrNoBFTLeaders indicates a BFT schedule was built with no leaders.
	ErrNoBFTLeaders = ErrorKind("ErrNoBFTLeaders")

	// ErrUnknownLeader indicates a BFT header's leader_id does not appear
	// in the configured leader set.
	ErrUnknownLeader = ErrorKind("ErrUnknownLeader")

	// ErrWrongSlotLeader indicates a BFT header's leader_id does not match
	// the leader scheduled for its slot.
	ErrWrongSlotLeader = ErrorKind("ErrWrongSlotLeader")

	// ErrBadBFTSignature indicates a BFT header's signature does not
	// verify against its claimed leader and signed content.
	ErrBadBFTSignature = ErrorKind("ErrBadBFTSignature")

	// ErrPoolNotEligible indicates an OGP header's pool did not win the
	// slot lottery under its proven VRF output.
	ErrPoolNotEligible = ErrorKind("ErrPoolNotEligible")

	// ErrBadVRFProof indicates an OGP header's VRF proof failed to verify
	// against the pool's registered VRF public key.
	ErrBadVRFProof = ErrorKind("ErrBadVRFProof")

	// ErrBadKESSignature indicates an OGP header's KES signature failed to
	// verify against the pool's registered KES public key.
	ErrBadKESSignature = ErrorKind("ErrBadKESSignature")

	// ErrWrongKESPeriod indicates a structurally valid KES signature was
	// produced for a period other than the one the header's slot implies.
	ErrWrongKESPeriod = ErrorKind("ErrWrongKESPeriod")

	// ErrUnknownPool indicates an OGP header named a pool id with no
	// active registration.
	ErrUnknownPool = ErrorKind("ErrUnknownPool")
)

// RuleError identifies a leadership authentication failure.
type RuleError struct {
	ErrorCode   ErrorKind
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// Is implements errors.Is support against both RuleError and ErrorKind.
func (e RuleError) Is(target error) bool {
	switch other := target.(type) {
	case RuleError:
		return e.ErrorCode == other.ErrorCode
	case ErrorKind:
		return e.ErrorCode == other
	}
	return false
}

func ruleError(c ErrorKind, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
