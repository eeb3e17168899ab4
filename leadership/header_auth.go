// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leadership

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// Schedule is whichever of BFTSchedule or OGPSchedule applies to the
// header being authenticated, selected by its consensus version.
type Schedule struct {
	BFT *BFTSchedule
	OGP *OGPSchedule
}

// Authenticate dispatches header to the matching sub-schedule's
// authentication routine based on its declared consensus version.
func (s Schedule) Authenticate(header ledgertypes.Header, absoluteSlot uint64, epochNonce [32]byte) error {
	switch header.Version {
	case ledgertypes.ConsensusBFT:
		if s.BFT == nil {
			return fmt.Errorf("leadership: no bft schedule configured for this epoch")
		}
		return s.BFT.AuthenticateBFT(header, absoluteSlot)
	case ledgertypes.ConsensusOGP:
		if s.OGP == nil {
			return fmt.Errorf("leadership: no ogp schedule configured for this epoch")
		}
		return s.OGP.AuthenticateOGP(header, absoluteSlot, epochNonce)
	default:
		return fmt.Errorf("leadership: unknown header consensus version %d", header.Version)
	}
}
