// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/jrick/bitset"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"github.com/ogprotocol/ogpnode/stake"
)

// SpendingLanes is the number of independent anti-replay counter lanes an
// account partitions its spending counter across, letting unrelated
// transactions issued concurrently from the same account avoid
// serializing on one counter.
const SpendingLanes = 8

// UtxoKey identifies a UTxO set entry by the coordinates alone (the
// transaction that created it and its output index), independent of the
// value carried - unlike ledgertypes.UtxoPointer, which bundles the value
// into the wire-level spend reference so a witness can be checked without
// a separate ledger lookup.
type UtxoKey struct {
	TxID  chainhash.Hash
	Index uint8
}

// KeyOf narrows a wire-level UtxoPointer down to its set key.
func KeyOf(ptr ledgertypes.UtxoPointer) UtxoKey {
	return UtxoKey{TxID: ptr.TransactionID, Index: ptr.OutputIndex}
}

// AccountState is one account's ledger-tracked balance, anti-replay
// counters and delegation.
type AccountState struct {
	Balance     amount.Value
	Counters    [SpendingLanes]uint32
	LaneActive  bitset.Bytes // marks which of the 8 lanes have been spent from at least once
	Delegation  *ledgertypes.DelegationDistribution
}

// NewAccountState returns a freshly-opened account with a zero balance and
// untouched counters.
func NewAccountState() *AccountState {
	return &AccountState{LaneActive: bitset.New(SpendingLanes)}
}

// VotePlanState tracks one open governance vote plan's lifecycle.
type VotePlanState struct {
	Cert    ledgertypes.VotePlanCert
	Tallied bool
	Votes   map[address.AccountID]uint8 // accountID -> chosen proposal index's choice
}

// UpdateProposalState tracks a pending ConfigParams change proposal until
// it reaches quorum and is applied.
type UpdateProposalState struct {
	Cert    ledgertypes.UpdateProposalCert
	Votes   map[address.AccountID]bool
	Applied bool
}

// State is a complete, immutable ledger snapshot. Every mutation made by
// ApplyBlock happens on a Clone, never on the receiver, so a cancelled or
// failed application leaves the original State untouched.
type State struct {
	Utxos    map[UtxoKey]ledgertypes.Output
	Accounts map[address.AccountID]*AccountState

	Pools       *stake.Registry
	Delegations *stake.Book

	Settings *chaincfg.ConfigParams

	Epoch       uint32
	Slot        uint32
	ChainLength uint32

	Treasury   amount.Value
	RewardsPot amount.Value

	VotePlans      map[chainhash.Hash]*VotePlanState
	PendingUpdates map[chainhash.Hash]*UpdateProposalState

	// PrevEpochStake is the stake distribution frozen at the last epoch
	// boundary, the snapshot the leadership schedule for the current
	// epoch is derived from.
	PrevEpochStake stake.PoolStake
	EpochNonce     [32]byte
}

// NewGenesisState returns an empty state ready to apply block 0 to.
func NewGenesisState() *State {
	return &State{
		Utxos:          make(map[UtxoKey]ledgertypes.Output),
		Accounts:       make(map[address.AccountID]*AccountState),
		Pools:          stake.NewRegistry(),
		Delegations:    stake.NewBook(),
		VotePlans:      make(map[chainhash.Hash]*VotePlanState),
		PendingUpdates: make(map[chainhash.Hash]*UpdateProposalState),
	}
}

// Clone returns a deep-enough copy of s for ApplyBlock to mutate in
// isolation: every map is copied, and account/vote-plan/proposal entries
// are copied by value before being re-pointed to, so mutating a cloned
// entry never touches the original graph.
func (s *State) Clone() *State {
	clone := &State{
		Utxos:          make(map[UtxoKey]ledgertypes.Output, len(s.Utxos)),
		Accounts:       make(map[address.AccountID]*AccountState, len(s.Accounts)),
		Pools:          s.Pools,
		Delegations:    s.Delegations,
		Settings:       s.Settings,
		Epoch:          s.Epoch,
		Slot:           s.Slot,
		ChainLength:    s.ChainLength,
		Treasury:       s.Treasury,
		RewardsPot:     s.RewardsPot,
		VotePlans:      make(map[chainhash.Hash]*VotePlanState, len(s.VotePlans)),
		PendingUpdates: make(map[chainhash.Hash]*UpdateProposalState, len(s.PendingUpdates)),
		PrevEpochStake: s.PrevEpochStake,
		EpochNonce:     s.EpochNonce,
	}
	for k, v := range s.Utxos {
		clone.Utxos[k] = v
	}
	for k, v := range s.Accounts {
		cp := *v
		cp.LaneActive = append(bitset.Bytes(nil), v.LaneActive...)
		clone.Accounts[k] = &cp
	}
	for k, v := range s.VotePlans {
		cp := *v
		cp.Votes = make(map[address.AccountID]uint8, len(v.Votes))
		for a, c := range v.Votes {
			cp.Votes[a] = c
		}
		clone.VotePlans[k] = &cp
	}
	for k, v := range s.PendingUpdates {
		cp := *v
		cp.Votes = make(map[address.AccountID]bool, len(v.Votes))
		for a, c := range v.Votes {
			cp.Votes[a] = c
		}
		clone.PendingUpdates[k] = &cp
	}
	return clone
}

// SumValue totals every unit of value the state currently holds: UTxO
// outputs, account balances, the treasury and the rewards pot. Used by
// the value-conservation property across block application.
func (s *State) SumValue() (amount.Value, error) {
	var total amount.Value
	var err error
	for _, out := range s.Utxos {
		if total, err = total.Add(out.Value); err != nil {
			return 0, err
		}
	}
	for _, acc := range s.Accounts {
		if total, err = total.Add(acc.Balance); err != nil {
			return 0, err
		}
	}
	if total, err = total.Add(s.Treasury); err != nil {
		return 0, err
	}
	if total, err = total.Add(s.RewardsPot); err != nil {
		return 0, err
	}
	return total, nil
}

// markLaneActive records that lane has been used at least once.
func (a *AccountState) markLaneActive(lane uint8) {
	if int(lane) >= SpendingLanes {
		return
	}
	a.LaneActive.Set(int(lane))
}
