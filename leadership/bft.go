// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leadership

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// BFTSchedule is the leader-rotation schedule for the BFT consensus
// version: a fixed, ordered list of leader public keys, cycled through by
// absolute slot number.
type BFTSchedule struct {
	Leaders []crypto.PublicKey
}

// NewBFTSchedule builds a schedule from an ordered leader list.
func NewBFTSchedule(leaders []crypto.PublicKey) (*BFTSchedule, error) {
	if len(leaders) == 0 {
		return nil, ruleError(ErrNoBFTLeaders, "bft schedule requires at least one leader")
	}
	return &BFTSchedule{Leaders: leaders}, nil
}

// LeaderForSlot returns the public key scheduled to lead the given
// absolute slot number.
func (s *BFTSchedule) LeaderForSlot(slot uint64) crypto.PublicKey {
	return s.Leaders[slot%uint64(len(s.Leaders))]
}

// AuthenticateBFT checks that header was produced by the leader scheduled
// for its slot and carries a valid signature from that leader over the
// header's signed prefix.
func (s *BFTSchedule) AuthenticateBFT(header ledgertypes.Header, absoluteSlot uint64) error {
	if header.BFT == nil {
		return fmt.Errorf("leadership: header has no bft auth region")
	}
	want := s.LeaderForSlot(absoluteSlot)
	if header.BFT.LeaderID != want {
		return ruleError(ErrWrongSlotLeader,
			fmt.Sprintf("slot %d scheduled leader %x, header claims %x", absoluteSlot, want, header.BFT.LeaderID))
	}
	if !crypto.Verify[crypto.BlockRole](header.BFT.LeaderID, header.SignedBytes(), header.BFT.Signature) {
		return ruleError(ErrBadBFTSignature, "bft header signature does not verify")
	}
	return nil
}
