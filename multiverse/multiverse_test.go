// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiverse

import (
	"errors"
	"testing"

	"github.com/ogprotocol/ogpnode/chainhash"
)

func hashFor(label string) chainhash.Hash {
	return chainhash.HashH([]byte(label))
}

func refFor(label string, parent chainhash.Hash, chainLength, epoch uint32) *Ref {
	return &Ref{
		Hash:        hashFor(label),
		ParentHash:  parent,
		ChainLength: chainLength,
		Epoch:       epoch,
	}
}

func TestInsertRejectsUnknownParent(t *testing.T) {
	m := New()
	orphan := refFor("orphan", hashFor("nowhere"), 1, 0)
	err := m.Insert(orphan)
	if !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
}

func TestInsertBuildsTipsAcrossBranches(t *testing.T) {
	m := New()
	genesis := refFor("genesis", chainhash.Hash{}, 0, 0)
	if err := m.Insert(genesis); err != nil {
		t.Fatal(err)
	}

	a1 := refFor("a1", genesis.Hash, 1, 0)
	b1 := refFor("b1", genesis.Hash, 1, 0)
	if err := m.Insert(a1); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(b1); err != nil {
		t.Fatal(err)
	}

	tips := m.Tips()
	if len(tips) != 2 {
		t.Fatalf("expected 2 tips after a fork, got %d", len(tips))
	}

	a2 := refFor("a2", a1.Hash, 2, 0)
	if err := m.Insert(a2); err != nil {
		t.Fatal(err)
	}
	tips = m.Tips()
	if len(tips) != 2 {
		t.Fatalf("expected 2 tips after extending one branch, got %d", len(tips))
	}
	for _, h := range tips {
		if h == a1.Hash {
			t.Fatal("a1 should no longer be a tip once a2 extends it")
		}
	}
}

func TestInsertExistingHashIsNoOp(t *testing.T) {
	m := New()
	genesis := refFor("genesis", chainhash.Hash{}, 0, 0)
	if err := m.Insert(genesis); err != nil {
		t.Fatal(err)
	}
	a1 := refFor("a1", genesis.Hash, 1, 0)
	if err := m.Insert(a1); err != nil {
		t.Fatal(err)
	}

	// Re-inserting genesis under a different (wrong) parent must not move
	// it, and must not disturb the existing tip set.
	staleGenesis := refFor("genesis", hashFor("bogus"), 0, 0)
	if err := m.Insert(staleGenesis); err != nil {
		t.Fatal(err)
	}
	got, ok := m.Get(genesis.Hash)
	if !ok || got.ParentHash != (chainhash.Hash{}) {
		t.Fatal("re-insertion under a different parent should be a no-op")
	}
	tips := m.Tips()
	if len(tips) != 1 || tips[0] != a1.Hash {
		t.Fatalf("expected only a1 as tip, got %v", tips)
	}
}

func TestLastRefPreviousEpochWalksAncestry(t *testing.T) {
	m := New()
	genesis := refFor("genesis", chainhash.Hash{}, 0, 0)
	e0b := refFor("e0b", genesis.Hash, 1, 0)
	e1a := refFor("e1a", e0b.Hash, 2, 1)
	e1b := refFor("e1b", e1a.Hash, 3, 1)
	e2a := refFor("e2a", e1b.Hash, 4, 2)
	for _, r := range []*Ref{genesis, e0b, e1a, e1b, e2a} {
		if err := m.Insert(r); err != nil {
			t.Fatal(err)
		}
	}

	prev, ok := m.LastRefPreviousEpoch(e2a)
	if !ok || prev.Hash != e1b.Hash {
		t.Fatalf("expected e1b as last ref of epoch 1, got %+v ok=%v", prev, ok)
	}

	prev, ok = m.LastRefPreviousEpoch(e1a)
	if !ok || prev.Hash != e0b.Hash {
		t.Fatalf("expected e0b as last ref of epoch 0, got %+v ok=%v", prev, ok)
	}

	if _, ok := m.LastRefPreviousEpoch(genesis); ok {
		t.Fatal("genesis has no previous epoch")
	}
}

func TestGCDropsStaleBranchesKeepingPreferred(t *testing.T) {
	m := New()
	genesis := refFor("genesis", chainhash.Hash{}, 0, 0)
	if err := m.Insert(genesis); err != nil {
		t.Fatal(err)
	}

	// Stale branch: forks at genesis, stops at chain length 1.
	stale := refFor("stale", genesis.Hash, 1, 0)
	if err := m.Insert(stale); err != nil {
		t.Fatal(err)
	}

	// Preferred branch: extends to chain length 5.
	prevHash := genesis.Hash
	var preferred *Ref
	for i := uint32(1); i <= 5; i++ {
		r := refFor(labelFor(i), prevHash, i, 0)
		if err := m.Insert(r); err != nil {
			t.Fatal(err)
		}
		prevHash = r.Hash
		preferred = r
	}

	m.GC(2, preferred.Hash)

	if _, ok := m.Get(stale.Hash); ok {
		t.Fatal("stale branch should have been garbage collected")
	}
	if _, ok := m.Get(genesis.Hash); !ok {
		t.Fatal("genesis must never be garbage collected")
	}
	if _, ok := m.Get(preferred.Hash); !ok {
		t.Fatal("the preferred tip must survive GC")
	}
}

func labelFor(i uint32) string {
	return string(rune('a' + i))
}

func TestCheckpointsIncludesTipParentAndEpochAnchors(t *testing.T) {
	m := New()
	genesis := refFor("genesis", chainhash.Hash{}, 0, 0)
	if err := m.Insert(genesis); err != nil {
		t.Fatal(err)
	}
	prevHash := genesis.Hash
	var last *Ref
	for epoch := uint32(1); epoch <= 4; epoch++ {
		r := refFor(labelFor(epoch), prevHash, epoch, epoch)
		if err := m.Insert(r); err != nil {
			t.Fatal(err)
		}
		prevHash = r.Hash
		last = r
	}

	cps := m.Checkpoints(last)
	if len(cps) < 2 || cps[0] != last.Hash || cps[1] != last.ParentHash {
		t.Fatalf("checkpoints must begin with tip then its parent, got %v", cps)
	}
}
