// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"testing"

	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"github.com/ogprotocol/ogpnode/multiverse"
)

func testConfigParams(leaderPK crypto.PublicKey) *chaincfg.ConfigParams {
	c := &chaincfg.ConfigParams{
		Discrimination:      chaincfg.DiscriminationTest,
		Block0Date:          1,
		Consensus:           chaincfg.ConsensusBFT,
		SlotsPerEpoch:       100,
		SlotDuration:        1,
		BlockContentMaxSize: 1 << 20,
		Treasury:            1000,
		Committee:           [][32]byte{[32]byte(leaderPK)},
	}
	c.Set(chaincfg.TagDiscrimination)
	c.Set(chaincfg.TagBlock0Date)
	c.Set(chaincfg.TagConsensusVersion)
	c.Set(chaincfg.TagSlotsPerEpoch)
	c.Set(chaincfg.TagSlotDuration)
	c.Set(chaincfg.TagTreasury)
	c.Set(chaincfg.TagCommittee)
	return c
}

func buildBlock0(t *testing.T, cfg *chaincfg.ConfigParams) ledgertypes.Block {
	t.Helper()
	h := ledgertypes.Header{Version: ledgertypes.ConsensusBFT, ChainLength: 0}
	block, err := ledgertypes.NewBlock(h, []ledgertypes.Fragment{
		{Kind: ledgertypes.FragmentInitial, Initial: cfg},
	})
	if err != nil {
		t.Fatalf("build block0: %v", err)
	}
	return block
}

func signedBlock(t *testing.T, parentHash chainhash.Hash, chainLength uint32, slot uint32, leaderPK crypto.PublicKey, leaderSK crypto.SecretKey) ledgertypes.Block {
	t.Helper()
	h := ledgertypes.Header{
		Version:     ledgertypes.ConsensusBFT,
		Date:        ledgertypes.BlockDate{Epoch: 0, Slot: slot},
		ChainLength: chainLength,
		ParentHash:  parentHash,
	}
	block, err := ledgertypes.NewBlock(h, nil)
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	sig := crypto.Sign[crypto.BlockRole](leaderSK, block.Header.SignedBytes())
	block.Header.BFT = &ledgertypes.BFTAuth{LeaderID: leaderPK, Signature: sig}
	return block
}

func signedBlockAtDate(t *testing.T, parentHash chainhash.Hash, chainLength uint32, epoch, slot uint32, leaderPK crypto.PublicKey, leaderSK crypto.SecretKey) ledgertypes.Block {
	t.Helper()
	h := ledgertypes.Header{
		Version:     ledgertypes.ConsensusBFT,
		Date:        ledgertypes.BlockDate{Epoch: epoch, Slot: slot},
		ChainLength: chainLength,
		ParentHash:  parentHash,
	}
	block, err := ledgertypes.NewBlock(h, nil)
	if err != nil {
		t.Fatalf("build block: %v", err)
	}
	sig := crypto.Sign[crypto.BlockRole](leaderSK, block.Header.SignedBytes())
	block.Header.BFT = &ledgertypes.BFTAuth{LeaderID: leaderPK, Signature: sig}
	return block
}

func newTestChain(t *testing.T) (*BlockChain, chainhash.Hash, crypto.PublicKey, crypto.SecretKey) {
	t.Helper()
	leaderPK, leaderSK := crypto.GenerateKeyPair([32]byte{1})
	cfg := testConfigParams(leaderPK)
	block0 := buildBlock0(t, cfg)
	bc, err := New(block0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	genesisHash, err := block0.Hash()
	if err != nil {
		t.Fatal(err)
	}
	return bc, genesisHash, leaderPK, leaderSK
}

func TestNewInstallsGenesisAsPreferredTip(t *testing.T) {
	bc, genesisHash, _, _ := newTestChain(t)
	if bc.PreferredBranch() != genesisHash {
		t.Fatal("preferred branch should start at genesis")
	}
	if _, ok := bc.Multiverse().Get(genesisHash); !ok {
		t.Fatal("genesis ref should be stored in the multiverse")
	}
}

func TestProcessHeaderRejectsMissingParent(t *testing.T) {
	bc, _, leaderPK, _ := newTestChain(t)
	h := ledgertypes.Header{
		Version:     ledgertypes.ConsensusBFT,
		ChainLength: 1,
		ParentHash:  chainhash.HashH([]byte("nowhere")),
		BFT:         &ledgertypes.BFTAuth{LeaderID: leaderPK},
	}
	err := bc.ProcessHeader(h)
	if !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

func TestProcessBlockExtendsPreferredTipWithoutReorg(t *testing.T) {
	bc, genesisHash, leaderPK, leaderSK := newTestChain(t)
	block1 := signedBlock(t, genesisHash, 1, 1, leaderPK, leaderSK)

	ref, reorg, err := bc.ProcessBlock(block1)
	if err != nil {
		t.Fatalf("process block1: %v", err)
	}
	if reorg != nil {
		t.Fatalf("expected no reorg extending the tip, got %+v", reorg)
	}
	if bc.PreferredBranch() != ref.Hash {
		t.Fatal("preferred branch did not advance to the new tip")
	}
	if ref.ChainLength != 1 {
		t.Fatalf("ref chain length = %d, want 1", ref.ChainLength)
	}
}

// TestProcessBlockReorgsToLongerBranch builds two branches forking at
// genesis: a-branch reaches chain length 2, b-branch reaches chain length
// 3. Exactly one step along the b-branch must cross over as strictly
// preferred (by chain length alone, no hash tie-break ambiguity at the
// final length), and that step's reorg event must trace back to genesis.
func TestProcessBlockReorgsToLongerBranch(t *testing.T) {
	bc, genesisHash, leaderPK, leaderSK := newTestChain(t)

	a1 := signedBlock(t, genesisHash, 1, 1, leaderPK, leaderSK)
	if _, _, err := bc.ProcessBlock(a1); err != nil {
		t.Fatalf("process a1: %v", err)
	}
	a1Hash, err := a1.Hash()
	if err != nil {
		t.Fatal(err)
	}
	a2 := signedBlock(t, a1Hash, 2, 2, leaderPK, leaderSK)
	if _, _, err := bc.ProcessBlock(a2); err != nil {
		t.Fatalf("process a2: %v", err)
	}

	b1 := signedBlock(t, genesisHash, 1, 3, leaderPK, leaderSK)
	b1Hash, err := b1.Hash()
	if err != nil {
		t.Fatal(err)
	}
	b2 := signedBlock(t, b1Hash, 2, 4, leaderPK, leaderSK)
	b2Hash, err := b2.Hash()
	if err != nil {
		t.Fatal(err)
	}
	b3 := signedBlock(t, b2Hash, 3, 5, leaderPK, leaderSK)

	var reorgs []*ReorgEvent
	var finalRef *multiverse.Ref
	for _, blk := range []ledgertypes.Block{b1, b2, b3} {
		ref, reorg, err := bc.ProcessBlock(blk)
		if err != nil {
			t.Fatalf("process b-branch block: %v", err)
		}
		if reorg != nil {
			reorgs = append(reorgs, reorg)
		}
		finalRef = ref
	}

	if len(reorgs) != 1 {
		t.Fatalf("expected exactly one branch-switch reorg across the b-branch, got %d", len(reorgs))
	}
	if reorgs[0].CommonAncestor != genesisHash {
		t.Fatalf("reorg common ancestor = %v, want genesis %v", reorgs[0].CommonAncestor, genesisHash)
	}
	if bc.PreferredBranch() != finalRef.Hash {
		t.Fatal("preferred branch did not end on the longer b-branch tip")
	}
}

// TestProcessBlockCrossingEpochBoundaryAdvancesState builds block0 with a
// 100-slot epoch, then a block landing in epoch 1; ProcessBlock must run the
// end-of-epoch bookkeeping against the epoch-0 state before authenticating
// and applying the epoch-1 block, rather than leaving the new Ref's state
// stuck with the raw unsnapshotted parent state.
func TestProcessBlockCrossingEpochBoundaryAdvancesState(t *testing.T) {
	bc, genesisHash, leaderPK, leaderSK := newTestChain(t)

	block1 := signedBlockAtDate(t, genesisHash, 1, 0, 99, leaderPK, leaderSK)
	ref1, _, err := bc.ProcessBlock(block1)
	if err != nil {
		t.Fatalf("process block1: %v", err)
	}

	block2 := signedBlockAtDate(t, ref1.Hash, 2, 1, 0, leaderPK, leaderSK)
	ref2, _, err := bc.ProcessBlock(block2)
	if err != nil {
		t.Fatalf("process block2 crossing into epoch 1: %v", err)
	}
	if ref2.Epoch != 1 {
		t.Fatalf("ref2.Epoch = %d, want 1", ref2.Epoch)
	}
	if ref2.State.Epoch != 1 {
		t.Fatalf("ref2.State.Epoch = %d, want 1", ref2.State.Epoch)
	}
}
