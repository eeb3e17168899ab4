// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiverse

import "github.com/ogprotocol/ogpnode/chainhash"

// Checkpoints derives a sparse set of interestingly-spaced ancestor hashes
// from tip, suitable for a sync peer to offer as "here's what I already
// have" without walking the full chain: the tip itself, its parent, the
// last ref of the epoch before tip's, then progressively further back with
// the gap between successive epoch-anchors doubling each step (skip 0, 1,
// 3, 7, 15 epochs, ...). The walk stops once genesis's ancestry is
// exhausted.
func (m *Multiverse) Checkpoints(tip *Ref) []chainhash.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoints := []chainhash.Hash{tip.Hash, tip.ParentHash}

	steps := 1
	current := tip
	for {
		next := current
		reached := true
		for i := 0; i < steps; i++ {
			prev, ok := m.lastRefPreviousEpochLocked(next)
			if !ok {
				reached = false
				break
			}
			next = prev
		}
		if !reached {
			break
		}
		if next.Hash != checkpoints[len(checkpoints)-1] {
			checkpoints = append(checkpoints, next.Hash)
		}
		current = next
		steps *= 2
	}

	return checkpoints
}
