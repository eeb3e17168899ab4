// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiverse

import (
	"sync"

	"github.com/decred/dcrd/container/apbf"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/ledger"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// seenFilterElements bounds the age-partitioned Bloom filter's capacity: a
// generous multiple of the stability depth most deployments run with, since
// the filter only needs to outlive the refs GC would otherwise have to
// consult the backing map for.
const seenFilterElements = 1 << 20

// seenFilterFalsePositiveRate is the false-positive rate the "have we seen
// this hash" pre-check tolerates; a false positive merely costs one extra
// map lookup, never an incorrect answer.
const seenFilterFalsePositiveRate = 0.001

// Ref is one block's place in the multiverse: its identity, its parent's
// identity, the header it was produced under, and the ledger state that
// results from applying it. Refs form a forest via ParentHash, rooted at
// block 0.
type Ref struct {
	Hash        chainhash.Hash
	ParentHash  chainhash.Hash
	Header      ledgertypes.Header
	State       *ledger.State
	ChainLength uint32
	Epoch       uint32
}

// Multiverse is a forest of ledger-state Refs keyed by block hash, tracking
// every tip (a block with no known child) reachable from genesis. Readers
// may call Get/Tips concurrently with a writer; Insert/GC serialize through
// mu, matching the single-writer-many-readers model the core ledger is
// built around.
type Multiverse struct {
	mu   sync.Mutex
	refs map[chainhash.Hash]*Ref
	tips map[chainhash.Hash]struct{}
	seen *apbf.Filter
}

// New returns an empty multiverse ready to accept a genesis Ref.
func New() *Multiverse {
	return &Multiverse{
		refs: make(map[chainhash.Hash]*Ref),
		tips: make(map[chainhash.Hash]struct{}),
		seen: apbf.NewFilter(seenFilterElements, seenFilterFalsePositiveRate),
	}
}

// Insert adds ref to the multiverse. If ref.Hash is already known, Insert is
// a silent no-op: an existing Ref is never replaced or demoted from the tip
// set by a later, possibly stale, copy of the same block. A non-genesis ref
// (one with a non-zero ChainLength) must have a parent already
// present, or ErrUnknownParent is returned.
func (m *Multiverse) Insert(ref *Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// The filter is a fast "definitely new" pre-check ahead of the
	// authoritative map lookup below: a false positive just costs an extra
	// map hit, never an incorrect answer.
	if m.seen.Contains(ref.Hash[:]) {
		if _, ok := m.refs[ref.Hash]; ok {
			return nil
		}
	}

	isGenesis := ref.ChainLength == 0
	if !isGenesis {
		if _, ok := m.refs[ref.ParentHash]; !ok {
			return ruleError(ErrUnknownParent,
				"ref's parent hash has no corresponding entry in the multiverse")
		}
	}

	m.refs[ref.Hash] = ref
	m.seen.Add(ref.Hash[:])
	delete(m.tips, ref.ParentHash)
	m.tips[ref.Hash] = struct{}{}
	return nil
}

// Get returns the ref stored under hash, if any.
func (m *Multiverse) Get(hash chainhash.Hash) (*Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.refs[hash]
	return ref, ok
}

// Tips returns every current tip hash, in no particular order.
func (m *Multiverse) Tips() []chainhash.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chainhash.Hash, 0, len(m.tips))
	for h := range m.tips {
		out = append(out, h)
	}
	return out
}

// LastRefPreviousEpoch returns the final ref of the epoch preceding ref's
// epoch, walking ref's own ancestry via ParentHash. It reports false if
// ref's entire ancestry lies within a single epoch (e.g. ref is in or
// before epoch 0).
func (m *Multiverse) LastRefPreviousEpoch(ref *Ref) (*Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRefPreviousEpochLocked(ref)
}

func (m *Multiverse) lastRefPreviousEpochLocked(ref *Ref) (*Ref, bool) {
	current := ref
	for {
		parent, ok := m.refs[current.ParentHash]
		if !ok {
			return nil, false
		}
		if parent.Epoch < ref.Epoch {
			return parent, true
		}
		current = parent
	}
}

// GC drops every ref more than stabilityDepth chain-lengths behind the
// deepest known tip that is not an ancestor of preferred (the current
// canonical tip). Genesis (chain length 0) is never dropped.
func (m *Multiverse) GC(stabilityDepth uint32, preferred chainhash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deepest uint32
	for h := range m.tips {
		if ref := m.refs[h]; ref.ChainLength > deepest {
			deepest = ref.ChainLength
		}
	}
	if deepest <= stabilityDepth {
		return
	}
	floor := deepest - stabilityDepth

	keep := make(map[chainhash.Hash]struct{})
	for h, ok := m.refs[preferred]; ok; h, ok = m.refs[h.ParentHash] {
		keep[h.Hash] = struct{}{}
		if h.ChainLength == 0 {
			break
		}
	}

	for hash, ref := range m.refs {
		if ref.ChainLength == 0 {
			continue
		}
		if ref.ChainLength >= floor {
			continue
		}
		if _, ok := keep[hash]; ok {
			continue
		}
		delete(m.refs, hash)
		delete(m.tips, hash)
	}
}
