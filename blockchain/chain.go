// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/leadership"
	"github.com/ogprotocol/ogpnode/ledger"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"github.com/ogprotocol/ogpnode/multiverse"
)

// scheduleCacheEpochs bounds how many epochs' leadership schedules stay
// memoized at once; recent headers only ever need the current and
// immediately preceding epoch.
const scheduleCacheEpochs = 8

// ReorgEvent describes a branch switch: the preferred tip moved from OldTip
// to NewTip, and every fragment applied between CommonAncestor and OldTip
// exclusive should be considered for re-application by downstream consumers
// (mempool, indexers) against the new branch.
type ReorgEvent struct {
	CommonAncestor chainhash.Hash
	OldTip         chainhash.Hash
	NewTip         chainhash.Hash
}

// BlockChain orchestrates header/block processing over a multiverse: it
// authenticates headers against the leadership schedule derived from their
// parent's ledger state, applies bodies, and tracks the preferred tip.
type BlockChain struct {
	mv        *multiverse.Multiverse
	schedules *leadership.ScheduleCache

	mu             sync.Mutex
	pendingHeaders map[chainhash.Hash]ledgertypes.Header
	preferred      chainhash.Hash
}

// New builds a chain from a validated block 0, installing its genesis
// state as the sole initial tip.
func New(block0 ledgertypes.Block) (*BlockChain, error) {
	genesis := ledger.NewGenesisState()
	applied, err := ledger.ApplyBlock(genesis, block0, leadership.Schedule{}, 0)
	if err != nil {
		return nil, err
	}
	hash, err := block0.Hash()
	if err != nil {
		return nil, err
	}

	mv := multiverse.New()
	ref := &multiverse.Ref{
		Hash:        hash,
		ParentHash:  chainhash.Hash{},
		Header:      block0.Header,
		State:       applied,
		ChainLength: 0,
		Epoch:       applied.Epoch,
	}
	if err := mv.Insert(ref); err != nil {
		return nil, err
	}

	return &BlockChain{
		mv:             mv,
		schedules:      leadership.NewScheduleCache(scheduleCacheEpochs),
		pendingHeaders: make(map[chainhash.Hash]ledgertypes.Header),
		preferred:      hash,
	}, nil
}

// Multiverse exposes the underlying ref forest, for sync and query layers
// that need Tips/Get/Checkpoints directly.
func (bc *BlockChain) Multiverse() *multiverse.Multiverse {
	return bc.mv
}

// PreferredBranch returns the hash of the currently preferred tip.
func (bc *BlockChain) PreferredBranch() chainhash.Hash {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.preferred
}

// ProcessHeader locates h's parent Ref and authenticates h against the
// leadership schedule derived from the parent's ledger state, without
// requiring the block body. A header that authenticates is recorded as
// pending; a later ProcessBlock call only clears that record and still
// validates the block in full.
func (bc *BlockChain) ProcessHeader(h ledgertypes.Header) error {
	parent, ok := bc.mv.Get(h.ParentHash)
	if !ok {
		return ruleError(ErrMissingParent, fmt.Sprintf("header's parent %s is not known", h.ParentHash))
	}

	state, err := bc.epochAdvancedState(parent, h.Date.Epoch)
	if err != nil {
		return err
	}
	schedule, err := bc.scheduleForEpoch(state, h.Date.Epoch)
	if err != nil {
		return err
	}
	absSlot := absoluteSlot(state.Settings, h.Date)
	if err := schedule.Authenticate(h, absSlot, state.EpochNonce); err != nil {
		return err
	}

	hash, err := h.Hash()
	if err != nil {
		return err
	}
	bc.mu.Lock()
	bc.pendingHeaders[hash] = h
	bc.mu.Unlock()
	return nil
}

// ProcessBlock applies b to its parent's ledger state and, on success,
// records the resulting Ref in the multiverse. b's header need not have
// been seen by a prior ProcessHeader call; if it was, that entry is simply
// cleared here since application re-validates everything authoritatively.
// The returned ReorgEvent is non-nil only when b's new Ref displaced the
// previously preferred tip for a different branch.
func (bc *BlockChain) ProcessBlock(b ledgertypes.Block) (*multiverse.Ref, *ReorgEvent, error) {
	hash, err := b.Hash()
	if err != nil {
		return nil, nil, err
	}
	bc.mu.Lock()
	delete(bc.pendingHeaders, hash)
	bc.mu.Unlock()

	parent, ok := bc.mv.Get(b.Header.ParentHash)
	if !ok {
		return nil, nil, ruleError(ErrMissingParent, fmt.Sprintf("block's parent %s is not known", b.Header.ParentHash))
	}

	base, err := bc.epochAdvancedState(parent, b.Header.Date.Epoch)
	if err != nil {
		return nil, nil, err
	}
	schedule, err := bc.scheduleForEpoch(base, b.Header.Date.Epoch)
	if err != nil {
		return nil, nil, err
	}
	absSlot := absoluteSlot(base.Settings, b.Header.Date)

	next, err := ledger.ApplyBlock(base, b, schedule, absSlot)
	if err != nil {
		return nil, nil, err
	}

	ref := &multiverse.Ref{
		Hash:        hash,
		ParentHash:  b.Header.ParentHash,
		Header:      b.Header,
		State:       next,
		ChainLength: b.Header.ChainLength,
		Epoch:       b.Header.Date.Epoch,
	}
	if err := bc.mv.Insert(ref); err != nil {
		return nil, nil, err
	}

	reorg, err := bc.updatePreferred(ref)
	if err != nil {
		return nil, nil, err
	}
	return ref, reorg, nil
}

// updatePreferred compares candidate against the current preferred tip,
// adopting it (and reporting a ReorgEvent) when it wins the ordering.
func (bc *BlockChain) updatePreferred(candidate *multiverse.Ref) (*ReorgEvent, error) {
	bc.mu.Lock()
	oldTip := bc.preferred
	bc.mu.Unlock()

	if candidate.Hash == oldTip {
		return nil, nil
	}
	old, ok := bc.mv.Get(oldTip)
	if ok && !preferOver(candidate, old) {
		return nil, nil
	}

	bc.mu.Lock()
	bc.preferred = candidate.Hash
	bc.mu.Unlock()

	if !ok || candidate.ParentHash == oldTip {
		// candidate directly extends the old tip: no branch switch.
		return nil, nil
	}
	ancestor, err := bc.commonAncestor(oldTip, candidate.Hash)
	if err != nil {
		return nil, err
	}
	return &ReorgEvent{CommonAncestor: ancestor, OldTip: oldTip, NewTip: candidate.Hash}, nil
}

// preferOver reports whether a is strictly preferred over b: the longer
// chain wins, ties broken by interpreting the block hash as a big-endian
// integer (a deterministic rule every peer computes identically).
func preferOver(a, b *multiverse.Ref) bool {
	if a.ChainLength != b.ChainLength {
		return a.ChainLength > b.ChainLength
	}
	return bytes.Compare(a.Hash[:], b.Hash[:]) > 0
}

// commonAncestor walks both branches back by ChainLength until they meet.
func (bc *BlockChain) commonAncestor(a, b chainhash.Hash) (chainhash.Hash, error) {
	refA, ok := bc.mv.Get(a)
	if !ok {
		return chainhash.Hash{}, fmt.Errorf("blockchain: ref %s not found", a)
	}
	refB, ok := bc.mv.Get(b)
	if !ok {
		return chainhash.Hash{}, fmt.Errorf("blockchain: ref %s not found", b)
	}

	for refA.ChainLength > refB.ChainLength {
		refA, ok = bc.mv.Get(refA.ParentHash)
		if !ok {
			return chainhash.Hash{}, fmt.Errorf("blockchain: ancestry of %s is incomplete", a)
		}
	}
	for refB.ChainLength > refA.ChainLength {
		refB, ok = bc.mv.Get(refB.ParentHash)
		if !ok {
			return chainhash.Hash{}, fmt.Errorf("blockchain: ancestry of %s is incomplete", b)
		}
	}
	for refA.Hash != refB.Hash {
		refA, ok = bc.mv.Get(refA.ParentHash)
		if !ok {
			return chainhash.Hash{}, fmt.Errorf("blockchain: no common ancestor found for %s and %s", a, b)
		}
		refB, ok = bc.mv.Get(refB.ParentHash)
		if !ok {
			return chainhash.Hash{}, fmt.Errorf("blockchain: no common ancestor found for %s and %s", a, b)
		}
	}
	return refA.Hash, nil
}

// epochAdvancedState walks parent's ledger state forward through
// AdvanceEpoch once per epoch boundary between parent's own epoch and
// targetEpoch, so a header or block dated into a new epoch is authenticated
// and applied against the post-reward-distribution, freshly-snapshotted
// stake state rather than parent's raw end-of-epoch state. Within a single
// epoch (targetEpoch == parent.Epoch) this is a no-op returning parent.State
// unchanged.
func (bc *BlockChain) epochAdvancedState(parent *multiverse.Ref, targetEpoch uint32) (*ledger.State, error) {
	state := parent.State
	for epoch := parent.Epoch; epoch < targetEpoch; epoch++ {
		var err error
		state, err = ledger.AdvanceEpoch(state)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// scheduleForEpoch returns the memoized leadership schedule for epoch,
// building it from state (the epoch-advanced snapshot the schedule is
// always derived from) on a cache miss.
func (bc *BlockChain) scheduleForEpoch(state *ledger.State, epoch uint32) (leadership.Schedule, error) {
	if s, ok := bc.schedules.Get(epoch); ok {
		return s, nil
	}

	var sched leadership.Schedule
	switch state.Settings.Consensus {
	case chaincfg.ConsensusBFT:
		leaders := make([]crypto.PublicKey, len(state.Settings.Committee))
		for i, m := range state.Settings.Committee {
			leaders[i] = crypto.PublicKey(m)
		}
		bft, err := leadership.NewBFTSchedule(leaders)
		if err != nil {
			return leadership.Schedule{}, err
		}
		sched = leadership.Schedule{BFT: bft}
	case chaincfg.ConsensusOGP:
		var total amount.Value
		var err error
		for _, v := range state.PrevEpochStake {
			total, err = total.Add(v)
			if err != nil {
				return leadership.Schedule{}, err
			}
		}
		sched = leadership.Schedule{OGP: &leadership.OGPSchedule{
			Registry:          state.Pools,
			PoolStake:         state.PrevEpochStake,
			TotalStake:        total,
			ActiveSlotCoeff:   float64(state.Settings.ActiveSlotCoeff) / 1000,
			SlotsPerKESPeriod: slotsPerKESPeriod(state.Settings),
			Epoch:             epoch,
		}}
	default:
		return leadership.Schedule{}, fmt.Errorf("blockchain: unknown consensus version %d", state.Settings.Consensus)
	}

	bc.schedules.Put(epoch, sched)
	return sched, nil
}

// slotsPerKESPeriod derives how many slots make up one KES key-evolution
// period from the two independently configured seconds-based rates.
func slotsPerKESPeriod(cfg *chaincfg.ConfigParams) uint64 {
	if cfg.SlotDuration == 0 {
		return 1
	}
	return uint64(cfg.KESUpdateSpeed) / uint64(cfg.SlotDuration)
}

// absoluteSlot flattens a (epoch, slot) date into the single monotonically
// increasing slot number leadership schedules and KES periods are indexed
// by.
func absoluteSlot(cfg *chaincfg.ConfigParams, date ledgertypes.BlockDate) uint64 {
	return uint64(date.Epoch)*uint64(cfg.SlotsPerEpoch) + uint64(date.Slot)
}
