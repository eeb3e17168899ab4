// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leadership

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"github.com/ogprotocol/ogpnode/stake"
)

// OGPSchedule evaluates the Genesis-Praos VRF lottery and authenticates
// OGP-version headers against the pool registry and delegated stake
// snapshot for one epoch.
type OGPSchedule struct {
	Registry           *stake.Registry
	PoolStake          stake.PoolStake
	TotalStake         amount.Value
	ActiveSlotCoeff    float64 // f, the probability any single pool leads an average slot
	SlotsPerKESPeriod  uint64
	Epoch              uint32
}

// phi is the Genesis-Praos leader-eligibility function: the probability
// that a pool holding relativeStake of total active stake leads at least
// one of the f-weighted coin flips for a given slot.
func phi(relativeStake, f float64) float64 {
	return 1 - math.Pow(1-f, relativeStake)
}

// eligibilityThreshold returns the probability threshold a pool's VRF
// output must fall under to win a slot, given its share of total stake.
func (s *OGPSchedule) eligibilityThreshold(poolID ledgertypes.PoolID) float64 {
	if s.TotalStake == 0 {
		return 0
	}
	relative := float64(s.PoolStake[poolID]) / float64(s.TotalStake)
	return phi(relative, s.ActiveSlotCoeff)
}

// seedToUnitInterval maps a 32-byte VRF output to a float uniformly
// distributed over [0, 1], reading the first 8 bytes as the numerator of
// a base-2^64 fraction - enough precision that no realistic stake
// distribution can be gamed by the truncated low-order bits.
func seedToUnitInterval(seed crypto.ProvenOutputSeed) float64 {
	n := binary.BigEndian.Uint64(seed[:8])
	return float64(n) / float64(math.MaxUint64)
}

// IsSlotLeader reports whether a pool's VRF output wins the lottery for a
// slot, given its current stake share.
func (s *OGPSchedule) IsSlotLeader(poolID ledgertypes.PoolID, seed crypto.ProvenOutputSeed) bool {
	threshold := s.eligibilityThreshold(poolID)
	return seedToUnitInterval(seed) < threshold
}

// vrfMessage builds the canonical message a pool's VRF proof is computed
// over for a given slot: the epoch nonce concatenated with the absolute
// slot number, so a proof from one slot can never be replayed at another.
func vrfMessage(epochNonce [32]byte, absoluteSlot uint64) []byte {
	msg := make([]byte, 0, 40)
	msg = append(msg, epochNonce[:]...)
	var slotBytes [8]byte
	binary.BigEndian.PutUint64(slotBytes[:], absoluteSlot)
	return append(msg, slotBytes[:]...)
}

// AuthenticateOGP checks that header's pool is registered and active,
// that its VRF proof verifies and wins the slot lottery under the pool's
// current stake share, and that its KES signature verifies at the period
// implied by the slot.
func (s *OGPSchedule) AuthenticateOGP(header ledgertypes.Header, absoluteSlot uint64, epochNonce [32]byte) error {
	if header.OGP == nil {
		return fmt.Errorf("leadership: header has no ogp auth region")
	}
	entry, ok := s.Registry.Get(header.OGP.PoolID)
	if !ok {
		return ruleError(ErrUnknownPool, fmt.Sprintf("pool %x is not registered", header.OGP.PoolID))
	}
	if !entry.IsActiveAt(s.Epoch) {
		return ruleError(ErrUnknownPool, fmt.Sprintf("pool %x is not active in epoch %d", header.OGP.PoolID, s.Epoch))
	}

	vrfPK, err := crypto.VRFPublicKeyFromBytes(entry.Registration.VRFPublicKey)
	if err != nil {
		return fmt.Errorf("leadership: parse pool vrf public key: %w", err)
	}
	seed, ok := crypto.VRFVerify(vrfPK, vrfMessage(epochNonce, absoluteSlot), header.OGP.VRFProof)
	if !ok {
		return ruleError(ErrBadVRFProof, "vrf proof does not verify against registered pool key")
	}
	if !s.IsSlotLeader(header.OGP.PoolID, seed) {
		return ruleError(ErrPoolNotEligible, fmt.Sprintf("pool %x did not win the lottery for slot %d", header.OGP.PoolID, absoluteSlot))
	}

	wantPeriod := crypto.KESPeriodForSlot(absoluteSlot, s.SlotsPerKESPeriod)
	if header.OGP.KESSignature.Period != wantPeriod {
		return ruleError(ErrWrongKESPeriod,
			fmt.Sprintf("kes signature period %d, slot %d implies period %d", header.OGP.KESSignature.Period, absoluteSlot, wantPeriod))
	}
	if !crypto.KESVerify(entry.Registration.KESPublicKey, header.SignedBytes(), header.OGP.KESSignature) {
		return ruleError(ErrBadKESSignature, "kes signature does not verify against registered pool key")
	}
	return nil
}
