// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/ogprotocol/ogpnode/chaincfg"
)

const sampleGenesisYAML = `
discrimination: test
block0_date: 1700000000
consensus: bft
slots_per_epoch: 100
slot_duration: 5
epoch_stability_depth: 10
consensus_genesis_praos_active_slot_coeff: 100
kes_update_speed: 43200
linear_fees:
  constant: 1
  coefficient: 0
  certificate: 0
treasury: 1000
committees:
  - "0101010101010101010101010101010101010101010101010101010101010101"
initial:
  - fund:
      - address: "0202020202020202020202020202020202020202020202020202020202020202"
        value: 1000
`

func writeGenesisFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "block0.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write genesis file: %v", err)
	}
	return path
}

func TestParseGenesisFileDefaultsAndFields(t *testing.T) {
	// Only mandatory fields are set, so the optional ones checked below
	// come from their defaults.
	happy := `
discrimination: production
block0_date: 1700000000
consensus: genesis_praos
slots_per_epoch: 21600
slot_duration: 20
linear_fees:
  constant: 2
  coefficient: 1
  certificate: 4
treasury: 500000
`
	path := writeGenesisFile(t, happy)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}
	if g.ActiveSlotCoeff != defaultActiveSlotCoeff {
		t.Fatalf("ActiveSlotCoeff default = %d, want %d", g.ActiveSlotCoeff, defaultActiveSlotCoeff)
	}
	if g.KESUpdateSpeed != defaultKESUpdateSpeed {
		t.Fatalf("KESUpdateSpeed default = %d, want %d", g.KESUpdateSpeed, defaultKESUpdateSpeed)
	}

	cfg, err := g.ToConfigParams()
	if err != nil {
		t.Fatalf("ToConfigParams: %v", err)
	}
	if cfg.Discrimination != chaincfg.DiscriminationProduction {
		t.Fatalf("Discrimination = %v, want production", cfg.Discrimination)
	}
	if cfg.Consensus != chaincfg.ConsensusOGP {
		t.Fatalf("Consensus = %v, want OGP", cfg.Consensus)
	}
	if cfg.SlotsPerEpoch != 21600 || cfg.SlotDuration != 20 {
		t.Fatalf("unexpected slot params:\n%s", spew.Sdump(cfg))
	}
}

func TestToConfigParamsRejectsUnknownDiscrimination(t *testing.T) {
	path := writeGenesisFile(t, `
discrimination: bogus
block0_date: 1
consensus: bft
slots_per_epoch: 10
slot_duration: 1
linear_fees:
  constant: 0
  coefficient: 0
  certificate: 0
treasury: 0
`)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}
	_, err = g.ToConfigParams()
	if !errors.Is(err, ErrUnknownDiscrimination) {
		t.Fatalf("expected ErrUnknownDiscrimination, got %v", err)
	}
}

func TestToConfigParamsRejectsOutOfRangeActiveSlotCoeff(t *testing.T) {
	path := writeGenesisFile(t, `
discrimination: test
block0_date: 1
consensus: bft
slots_per_epoch: 10
slot_duration: 1
consensus_genesis_praos_active_slot_coeff: 5000
linear_fees:
  constant: 0
  coefficient: 0
  certificate: 0
treasury: 0
`)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}
	_, err = g.ToConfigParams()
	if !errors.Is(err, ErrMalformedGenesis) {
		t.Fatalf("expected ErrMalformedGenesis, got %v", err)
	}
}

func TestBlock0BuildsInitialAndOldUtxoFragments(t *testing.T) {
	path := writeGenesisFile(t, sampleGenesisYAML)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}

	block, err := g.Block0()
	if err != nil {
		t.Fatalf("Block0: %v", err)
	}
	if len(block.Fragments) != 2 {
		t.Fatalf("expected 2 fragments (Initial + OldUtxoDeclaration), got %d", len(block.Fragments))
	}
	if block.Fragments[1].OldUtxo == nil || len(block.Fragments[1].OldUtxo.Entries) != 1 {
		t.Fatalf("expected one legacy balance entry, got %+v", block.Fragments[1].OldUtxo)
	}
	if block.Fragments[1].OldUtxo.Entries[0].Value != 1000 {
		t.Fatalf("legacy balance value = %d, want 1000", block.Fragments[1].OldUtxo.Entries[0].Value)
	}

	if _, err := block.Hash(); err != nil {
		t.Fatalf("block0 hash: %v", err)
	}
}

func TestBlock0RejectsUnsupportedInitialCert(t *testing.T) {
	path := writeGenesisFile(t, `
discrimination: test
block0_date: 1
consensus: bft
slots_per_epoch: 10
slot_duration: 1
linear_fees:
  constant: 0
  coefficient: 0
  certificate: 0
treasury: 0
initial:
  - cert: "deadbeef"
`)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}
	_, err = g.Block0()
	if !errors.Is(err, ErrMalformedGenesis) {
		t.Fatalf("expected ErrMalformedGenesis for unsupported cert, got %v", err)
	}
}

func TestToConfigParamsDecodesCommitteeHex(t *testing.T) {
	path := writeGenesisFile(t, sampleGenesisYAML)
	g, err := ParseGenesisFile(path)
	if err != nil {
		t.Fatalf("ParseGenesisFile: %v", err)
	}
	cfg, err := g.ToConfigParams()
	if err != nil {
		t.Fatalf("ToConfigParams: %v", err)
	}
	if len(cfg.Committee) != 1 {
		t.Fatalf("expected 1 committee member, got %d", len(cfg.Committee))
	}
	want := [32]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	if cfg.Committee[0] != want {
		t.Fatalf("committee[0] = %x, want %x", cfg.Committee[0], want)
	}
}
