// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"gopkg.in/yaml.v3"
)

// defaultActiveSlotCoeff is consensus_genesis_praos_active_slot_coeff's
// documented default, in milli (so 100 == 0.1).
const defaultActiveSlotCoeff = 100

// defaultKESUpdateSpeed is kes_update_speed's documented default, seconds.
const defaultKESUpdateSpeed = 43200

// Genesis is the human-authored block-0 source document: network
// discrimination and consensus choice, epoch/slot timing, the fee and
// reward schedule, the treasury seed, the initial committee, and the
// faucet/legacy balances block-0 installs.
type Genesis struct {
	Discrimination      string                `yaml:"discrimination"`
	Block0Date          uint64                `yaml:"block0_date"`
	Consensus           string                `yaml:"consensus"`
	SlotsPerEpoch       uint32                `yaml:"slots_per_epoch"`
	SlotDuration        uint8                 `yaml:"slot_duration"`
	EpochStabilityDepth uint32                `yaml:"epoch_stability_depth"`
	ActiveSlotCoeff     uint16                `yaml:"consensus_genesis_praos_active_slot_coeff"`
	KESUpdateSpeed      uint32                `yaml:"kes_update_speed"`
	BlockContentMaxSize uint32                `yaml:"block_content_max_size"`
	LinearFees          LinearFeesYAML        `yaml:"linear_fees"`
	RewardParameters    *RewardParametersYAML `yaml:"reward_parameters,omitempty"`
	Treasury            uint64                `yaml:"treasury"`
	Committees          []string              `yaml:"committees"`
	Initial             []InitialEntryYAML    `yaml:"initial"`
}

// LinearFeesYAML is the linear_fees genesis section: a constant term, a
// per-input/output coefficient, a flat certificate fee, and optional
// per-certificate-kind overrides.
type LinearFeesYAML struct {
	Constant           uint64            `yaml:"constant"`
	Coefficient        uint64            `yaml:"coefficient"`
	Certificate        uint64            `yaml:"certificate"`
	PerCertificateFees map[string]uint64 `yaml:"per_certificate_fees,omitempty"`
}

// RewardParametersYAML is the reward_parameters genesis section: exactly
// one of Linear or Halving must be set, selecting how the epoch reward pot
// is drawn down over time.
type RewardParametersYAML struct {
	Linear  *RewardScheduleYAML `yaml:"linear,omitempty"`
	Halving *RewardScheduleYAML `yaml:"halving,omitempty"`
}

// RewardScheduleYAML is shared by both reward_parameters variants: a
// starting value, a per-epoch_rate ratio (the halving factor, or the
// fraction of the starting value the linear variant subtracts per step),
// and the epoch window the schedule takes effect over.
type RewardScheduleYAML struct {
	Constant   uint64  `yaml:"constant"`
	Ratio      float64 `yaml:"ratio"`
	EpochStart uint32  `yaml:"epoch_start"`
	EpochRate  uint32  `yaml:"epoch_rate"`
}

// InitialEntryYAML is one entry of the initial[] list: either a batch of
// legacy faucet balances or a certificate to install at genesis.
type InitialEntryYAML struct {
	Fund []FundEntryYAML `yaml:"fund,omitempty"`
	Cert string          `yaml:"cert,omitempty"`
}

// FundEntryYAML seeds one legacy balance, keyed by a hex-encoded 32-byte
// legacy address.
type FundEntryYAML struct {
	Address string `yaml:"address"`
	Value   uint64 `yaml:"value"`
}

var certFeeKindByName = map[string]chaincfg.FeeCertKind{
	"pool_registration":       chaincfg.CertPoolRegistration,
	"stake_delegation":        chaincfg.CertStakeDelegation,
	"owner_stake_delegation":  chaincfg.CertOwnerStakeDelegation,
}

// ParseGenesisFile reads and decodes the block-0 genesis document at path.
func ParseGenesisFile(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading genesis file: %w", err)
	}
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("config: parsing genesis file: %w", err)
	}
	if g.ActiveSlotCoeff == 0 {
		g.ActiveSlotCoeff = defaultActiveSlotCoeff
	}
	if g.KESUpdateSpeed == 0 {
		g.KESUpdateSpeed = defaultKESUpdateSpeed
	}
	return &g, nil
}

// ToConfigParams converts the parsed genesis document into the
// ConfigParams block-0's Initial fragment installs, validating every field
// along the way.
func (g *Genesis) ToConfigParams() (*chaincfg.ConfigParams, error) {
	c := &chaincfg.ConfigParams{}

	switch g.Discrimination {
	case "production":
		c.Discrimination = chaincfg.DiscriminationProduction
	case "test":
		c.Discrimination = chaincfg.DiscriminationTest
	default:
		return nil, genesisError(ErrUnknownDiscrimination,
			fmt.Sprintf("config: unknown discrimination %q", g.Discrimination))
	}
	c.Set(chaincfg.TagDiscrimination)

	if g.Block0Date == 0 {
		return nil, genesisError(ErrMalformedGenesis, "config: block0_date is required")
	}
	c.Block0Date = chaincfg.Block0Date(g.Block0Date)
	c.Set(chaincfg.TagBlock0Date)

	switch g.Consensus {
	case "bft":
		c.Consensus = chaincfg.ConsensusBFT
	case "genesis_praos", "ogp":
		c.Consensus = chaincfg.ConsensusOGP
	default:
		return nil, genesisError(ErrUnknownConsensus,
			fmt.Sprintf("config: unknown consensus %q", g.Consensus))
	}
	c.Set(chaincfg.TagConsensusVersion)

	if g.SlotsPerEpoch == 0 {
		return nil, genesisError(ErrMalformedGenesis, "config: slots_per_epoch is required")
	}
	c.SlotsPerEpoch = g.SlotsPerEpoch
	c.Set(chaincfg.TagSlotsPerEpoch)

	if g.SlotDuration == 0 {
		return nil, genesisError(ErrMalformedGenesis, "config: slot_duration is required")
	}
	c.SlotDuration = g.SlotDuration
	c.Set(chaincfg.TagSlotDuration)

	if g.EpochStabilityDepth > 0 {
		c.EpochStabilityDepth = g.EpochStabilityDepth
		c.Set(chaincfg.TagEpochStabilityDepth)
	}

	if g.ActiveSlotCoeff < 1 || g.ActiveSlotCoeff > 1000 {
		return nil, genesisError(ErrMalformedGenesis,
			fmt.Sprintf("config: consensus_genesis_praos_active_slot_coeff %d out of range 1..1000", g.ActiveSlotCoeff))
	}
	c.ActiveSlotCoeff = g.ActiveSlotCoeff
	c.Set(chaincfg.TagActiveSlotCoeff)

	if g.KESUpdateSpeed < 60 || g.KESUpdateSpeed > 31_536_000 {
		return nil, genesisError(ErrMalformedGenesis,
			fmt.Sprintf("config: kes_update_speed %d out of range 60..31536000", g.KESUpdateSpeed))
	}
	c.KESUpdateSpeed = g.KESUpdateSpeed
	c.Set(chaincfg.TagKESUpdateSpeed)

	if g.BlockContentMaxSize > 0 {
		c.BlockContentMaxSize = g.BlockContentMaxSize
		c.Set(chaincfg.TagBlockContentMaxSize)
	}

	c.LinearFeeSet = chaincfg.LinearFee{
		Constant:    amount.Value(g.LinearFees.Constant),
		Coefficient: amount.Value(g.LinearFees.Coefficient),
		Certificate: amount.Value(g.LinearFees.Certificate),
	}
	c.Set(chaincfg.TagLinearFee)

	if len(g.LinearFees.PerCertificateFees) > 0 {
		fees := make(map[chaincfg.FeeCertKind]amount.Value, len(g.LinearFees.PerCertificateFees))
		for name, v := range g.LinearFees.PerCertificateFees {
			kind, ok := certFeeKindByName[name]
			if !ok {
				return nil, genesisError(ErrUnknownCertFeeKind,
					fmt.Sprintf("config: unknown per_certificate_fees entry %q", name))
			}
			fees[kind] = amount.Value(v)
		}
		c.PerCertFee = chaincfg.PerCertificateFee{Fees: fees}
		c.Set(chaincfg.TagPerCertificateFee)
	}

	if g.RewardParameters != nil {
		reward, err := g.RewardParameters.toRewardParameters()
		if err != nil {
			return nil, err
		}
		c.Reward = reward
		c.Set(chaincfg.TagRewardParams)
	}

	c.Treasury = amount.Value(g.Treasury)
	c.Set(chaincfg.TagTreasury)

	if len(g.Committees) > 0 {
		committee := make([][32]byte, len(g.Committees))
		for i, h := range g.Committees {
			member, err := decodeHash32(h)
			if err != nil {
				return nil, genesisError(ErrInvalidHexField,
					fmt.Sprintf("config: committees[%d]: %v", i, err))
			}
			committee[i] = member
		}
		c.Committee = committee
		c.Set(chaincfg.TagCommittee)
	}

	return c, nil
}

func (r *RewardParametersYAML) toRewardParameters() (chaincfg.RewardParameters, error) {
	switch {
	case r.Linear != nil && r.Halving != nil:
		return chaincfg.RewardParameters{}, genesisError(ErrMalformedGenesis,
			"config: reward_parameters carries both linear and halving")
	case r.Linear != nil:
		return chaincfg.RewardParameters{
			Method:           chaincfg.RewardDrawingLinear,
			InitialValue:     amount.Value(r.Linear.Constant),
			CompoundingRatio: r.Linear.Ratio,
			EpochStart:       r.Linear.EpochStart,
			EpochRate:        r.Linear.EpochRate,
		}, nil
	case r.Halving != nil:
		return chaincfg.RewardParameters{
			Method:           chaincfg.RewardDrawingHalving,
			InitialValue:     amount.Value(r.Halving.Constant),
			CompoundingRatio: r.Halving.Ratio,
			EpochStart:       r.Halving.EpochStart,
			EpochRate:        r.Halving.EpochRate,
		}, nil
	default:
		return chaincfg.RewardParameters{}, genesisError(ErrMalformedGenesis,
			"config: reward_parameters carries neither linear nor halving")
	}
}

// Block0Fragments builds the fragment sequence block-0 installs: the
// Initial fragment carrying cfg, followed by one OldUtxoDeclaration
// fragment per initial[] entry carrying fund balances.
//
// The ledger's block-0 purity rule (spec §8 property 10) rejects any
// transaction-shaped fragment in block 0 that carries outputs, not only
// inputs or witnesses - so an initial[] entry's "cert" field (a
// certificate the original source installs outside the normal transaction
// path) has no fragment this ledger can apply it through and is rejected
// here rather than silently dropped.
func (g *Genesis) Block0Fragments(cfg *chaincfg.ConfigParams) ([]ledgertypes.Fragment, error) {
	fragments := []ledgertypes.Fragment{
		{Kind: ledgertypes.FragmentInitial, Initial: cfg},
	}

	for i, entry := range g.Initial {
		if entry.Cert != "" {
			return nil, genesisError(ErrMalformedGenesis,
				fmt.Sprintf("config: initial[%d].cert is not installable in block 0", i))
		}
		if len(entry.Fund) == 0 {
			continue
		}
		entries := make([]ledgertypes.OldUtxoEntry, len(entry.Fund))
		for j, f := range entry.Fund {
			addr, err := decodeHash32(f.Address)
			if err != nil {
				return nil, genesisError(ErrInvalidHexField,
					fmt.Sprintf("config: initial[%d].fund[%d].address: %v", i, j, err))
			}
			entries[j] = ledgertypes.OldUtxoEntry{
				LegacyAddress: addr,
				Value:         amount.Value(f.Value),
			}
		}
		fragments = append(fragments, ledgertypes.Fragment{
			Kind:    ledgertypes.FragmentOldUtxoDeclaration,
			OldUtxo: &ledgertypes.OldUtxoDeclarationFragment{Entries: entries},
		})
	}

	return fragments, nil
}

// Block0 assembles the genesis document into the Block block-0 consists
// of: an unsigned, unauthenticated header (block-0 carries no leadership
// proof) followed by the fragments ToConfigParams/Block0Fragments build.
func (g *Genesis) Block0() (ledgertypes.Block, error) {
	cfg, err := g.ToConfigParams()
	if err != nil {
		return ledgertypes.Block{}, err
	}
	fragments, err := g.Block0Fragments(cfg)
	if err != nil {
		return ledgertypes.Block{}, err
	}
	header := ledgertypes.Header{
		Version:     ledgertypes.ConsensusBFT,
		ChainLength: 0,
	}
	return ledgertypes.NewBlock(header, fragments)
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
