// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/wire"
)

// Tag identifies a single ConfigParams entry. The sketch this spec was
// distilled from carries a FIXME about canonical ordering; per spec §9 this
// implementation resolves that open question by requiring tags to decode in
// strictly increasing order and rejecting anything else, rather than
// preserving the ambiguous "whatever order they were serialized in"
// behavior of the source text.
type Tag uint16

// The closed tag space for ConfigParams entries, in the increasing order
// decode enforces.
const (
	TagDiscrimination       Tag = 1
	TagBlock0Date           Tag = 2
	TagConsensusVersion     Tag = 3
	TagSlotsPerEpoch        Tag = 4
	TagSlotDuration         Tag = 5
	TagEpochStabilityDepth  Tag = 6
	TagActiveSlotCoeff      Tag = 7
	TagKESUpdateSpeed       Tag = 8
	TagBlockContentMaxSize  Tag = 9
	TagLinearFee            Tag = 10
	TagPerCertificateFee    Tag = 11
	TagRewardParams         Tag = 12
	TagTreasury             Tag = 13
	TagRewardLimit          Tag = 14
	TagPoolCapping          Tag = 15
	TagCommittee            Tag = 16
	TagFeesGoTo             Tag = 17
)

// LinearFee is the base transaction fee schedule: constant + coefficient *
// (inputs+outputs count) + certificate, plus an optional per-certificate-kind
// override table.
type LinearFee struct {
	Constant    amount.Value
	Coefficient amount.Value
	Certificate amount.Value
}

// FeeCertKind identifies which certificate a PerCertificateFee override
// applies to.
type FeeCertKind uint8

// Certificate kinds a fee override may target.
const (
	CertPoolRegistration FeeCertKind = iota
	CertStakeDelegation
	CertOwnerStakeDelegation
)

// PerCertificateFee overrides LinearFee.Certificate for specific
// certificate kinds.
type PerCertificateFee struct {
	Fees map[FeeCertKind]amount.Value
}

// Fee returns the override for kind if present, otherwise ok is false and
// the caller should fall back to LinearFee.Certificate.
func (p PerCertificateFee) Fee(kind FeeCertKind) (amount.Value, bool) {
	if p.Fees == nil {
		return 0, false
	}
	v, ok := p.Fees[kind]
	return v, ok
}

// RewardDrawingMethod selects how the epoch reward pot shrinks over time.
type RewardDrawingMethod uint8

// Supported reward drawing methods.
const (
	RewardDrawingLinear RewardDrawingMethod = 0
	RewardDrawingHalving RewardDrawingMethod = 1
)

// RewardParameters configures the per-epoch reward compounding schedule.
type RewardParameters struct {
	Method          RewardDrawingMethod
	InitialValue    amount.Value
	CompoundingRatio float64 // ratio per epoch_rate epochs, e.g. 0.5 for halving
	EpochStart      uint32
	EpochRate       uint32
}

// TaxType is a pool's take from its share of the epoch reward: a fixed
// amount plus a ratio of the remainder, capped at Max.
type TaxType struct {
	Fixed amount.Value
	Ratio float64
	Max   amount.Value
}

// Block0Date is the genesis timestamp, unix seconds.
type Block0Date uint64

// ConfigParams is the ordered set of on-chain configuration parameters
// installed by block-0's Initial fragment and, for the subset that the
// update-proposal mechanism allows to change, mutated at epoch boundaries
// thereafter.
type ConfigParams struct {
	Discrimination      Discrimination
	Block0Date          Block0Date
	Consensus           ConsensusVersion
	SlotsPerEpoch       uint32
	SlotDuration        uint8 // seconds
	EpochStabilityDepth uint32
	ActiveSlotCoeff     uint16 // milli, 1..1000
	KESUpdateSpeed      uint32 // seconds, 60..31_536_000
	BlockContentMaxSize uint32
	LinearFeeSet        LinearFee
	PerCertFee          PerCertificateFee
	Reward              RewardParameters
	Treasury            amount.Value
	RewardDrawingLimit  amount.Value
	PoolCapping         float64 // fraction of total active stake a single pool may draw reward for
	Committee           [][32]byte
	FeesGoTo            FeesGoTo

	// set tracks which tags were actually present, so Block0 mandatory
	// field checks can tell "defaulted" from "explicitly configured".
	set map[Tag]bool
}

func (c *ConfigParams) markSet(t Tag) {
	if c.set == nil {
		c.set = make(map[Tag]bool)
	}
	c.set[t] = true
}

// Has reports whether tag t was present when this ConfigParams was decoded
// or explicitly set by a builder.
func (c *ConfigParams) Has(t Tag) bool {
	return c.set != nil && c.set[t]
}

// Block0 mandatory-field errors, per spec §4.4 "Block0 MUST carry
// discrimination, block0-date, consensus, slot-duration, slots-per-epoch".
var (
	ErrMissingDiscrimination = fmt.Errorf("chaincfg: block0 missing discrimination")
	ErrMissingStartTime      = fmt.Errorf("chaincfg: block0 missing block0-date")
	ErrMissingConsensus      = fmt.Errorf("chaincfg: block0 missing consensus version")
	ErrMissingSlotDuration   = fmt.Errorf("chaincfg: block0 missing slot-duration")
	ErrMissingSlotsPerEpoch  = fmt.Errorf("chaincfg: block0 missing slots-per-epoch")
)

// ValidateBlock0Mandatory checks the fields block-0 MUST carry.
func (c *ConfigParams) ValidateBlock0Mandatory() error {
	if !c.Has(TagDiscrimination) {
		return ErrMissingDiscrimination
	}
	if !c.Has(TagBlock0Date) {
		return ErrMissingStartTime
	}
	if !c.Has(TagConsensusVersion) {
		return ErrMissingConsensus
	}
	if !c.Has(TagSlotDuration) {
		return ErrMissingSlotDuration
	}
	if !c.Has(TagSlotsPerEpoch) {
		return ErrMissingSlotsPerEpoch
	}
	return nil
}

// Encode writes the ConfigParams as a u16-count-prefixed list of
// tag-length-value entries, always in strictly increasing tag order so
// decode's monotonicity check round-trips.
func (c *ConfigParams) Encode(w *wire.Writer) error {
	entries := c.encodeEntries()
	w.PutU16(uint16(len(entries)))
	for _, e := range entries {
		w.PutU16(uint16(e.tag))
		if err := w.PutVarBytes(wire.LenWidth16, e.value); err != nil {
			return err
		}
	}
	return nil
}

type tlvEntry struct {
	tag   Tag
	value []byte
}

func (c *ConfigParams) encodeEntries() []tlvEntry {
	var entries []tlvEntry
	put := func(t Tag, enc func(w *wire.Writer)) {
		if !c.Has(t) {
			return
		}
		w := wire.NewWriter(32)
		enc(w)
		entries = append(entries, tlvEntry{tag: t, value: w.Bytes()})
	}

	put(TagDiscrimination, func(w *wire.Writer) { w.PutU8(uint8(c.Discrimination)) })
	put(TagBlock0Date, func(w *wire.Writer) { w.PutU64(uint64(c.Block0Date)) })
	put(TagConsensusVersion, func(w *wire.Writer) { w.PutU16(uint16(c.Consensus)) })
	put(TagSlotsPerEpoch, func(w *wire.Writer) { w.PutU32(c.SlotsPerEpoch) })
	put(TagSlotDuration, func(w *wire.Writer) { w.PutU8(c.SlotDuration) })
	put(TagEpochStabilityDepth, func(w *wire.Writer) { w.PutU32(c.EpochStabilityDepth) })
	put(TagActiveSlotCoeff, func(w *wire.Writer) { w.PutU16(c.ActiveSlotCoeff) })
	put(TagKESUpdateSpeed, func(w *wire.Writer) { w.PutU32(c.KESUpdateSpeed) })
	put(TagBlockContentMaxSize, func(w *wire.Writer) { w.PutU32(c.BlockContentMaxSize) })
	put(TagLinearFee, func(w *wire.Writer) {
		amount.PutValue(w, c.LinearFeeSet.Constant)
		amount.PutValue(w, c.LinearFeeSet.Coefficient)
		amount.PutValue(w, c.LinearFeeSet.Certificate)
	})
	put(TagPerCertificateFee, func(w *wire.Writer) {
		w.PutU8(uint8(len(c.PerCertFee.Fees)))
		for k, v := range c.PerCertFee.Fees {
			w.PutU8(uint8(k))
			amount.PutValue(w, v)
		}
	})
	put(TagRewardParams, func(w *wire.Writer) {
		w.PutU8(uint8(c.Reward.Method))
		amount.PutValue(w, c.Reward.InitialValue)
		putFloat(w, c.Reward.CompoundingRatio)
		w.PutU32(c.Reward.EpochStart)
		w.PutU32(c.Reward.EpochRate)
	})
	put(TagTreasury, func(w *wire.Writer) { amount.PutValue(w, c.Treasury) })
	put(TagRewardLimit, func(w *wire.Writer) { amount.PutValue(w, c.RewardDrawingLimit) })
	put(TagPoolCapping, func(w *wire.Writer) { putFloat(w, c.PoolCapping) })
	put(TagCommittee, func(w *wire.Writer) {
		w.PutU16(uint16(len(c.Committee)))
		for _, m := range c.Committee {
			w.PutBytes(m[:])
		}
	})
	put(TagFeesGoTo, func(w *wire.Writer) { w.PutU8(uint8(c.FeesGoTo)) })

	return entries
}

// Decode reads a u16-count-prefixed list of tag-length-value entries. Tags
// must be strictly increasing; a repeated or out-of-order tag fails with
// ErrUnknownTag-shaped behavior since it indicates either a corrupted
// stream or a producer older than this canonical-ordering rule.
func Decode(r *wire.Reader) (*ConfigParams, error) {
	count, err := r.GetU16()
	if err != nil {
		return nil, err
	}

	c := &ConfigParams{}
	var lastTag Tag
	for i := uint16(0); i < count; i++ {
		tagNum, err := r.GetU16()
		if err != nil {
			return nil, err
		}
		tag := Tag(tagNum)
		if i > 0 && tag <= lastTag {
			return nil, fmt.Errorf("chaincfg: config tags must strictly increase, got %d after %d", tag, lastTag)
		}
		lastTag = tag

		valBytes, err := r.GetVarBytes(wire.LenWidth16, 1<<16-1, "config-param value")
		if err != nil {
			return nil, err
		}
		if err := c.decodeEntry(tag, valBytes); err != nil {
			return nil, err
		}
		c.markSet(tag)
	}
	return c, nil
}

func (c *ConfigParams) decodeEntry(tag Tag, b []byte) error {
	vr := wire.NewReader(b)
	switch tag {
	case TagDiscrimination:
		v, err := vr.GetU8()
		if err != nil {
			return err
		}
		c.Discrimination = Discrimination(v)
	case TagBlock0Date:
		v, err := vr.GetU64()
		if err != nil {
			return err
		}
		c.Block0Date = Block0Date(v)
	case TagConsensusVersion:
		v, err := vr.GetU16()
		if err != nil {
			return err
		}
		c.Consensus = ConsensusVersion(v)
	case TagSlotsPerEpoch:
		v, err := vr.GetU32()
		if err != nil {
			return err
		}
		c.SlotsPerEpoch = v
	case TagSlotDuration:
		v, err := vr.GetU8()
		if err != nil {
			return err
		}
		c.SlotDuration = v
	case TagEpochStabilityDepth:
		v, err := vr.GetU32()
		if err != nil {
			return err
		}
		c.EpochStabilityDepth = v
	case TagActiveSlotCoeff:
		v, err := vr.GetU16()
		if err != nil {
			return err
		}
		c.ActiveSlotCoeff = v
	case TagKESUpdateSpeed:
		v, err := vr.GetU32()
		if err != nil {
			return err
		}
		c.KESUpdateSpeed = v
	case TagBlockContentMaxSize:
		v, err := vr.GetU32()
		if err != nil {
			return err
		}
		c.BlockContentMaxSize = v
	case TagLinearFee:
		constant, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		coeff, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		cert, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		c.LinearFeeSet = LinearFee{Constant: constant, Coefficient: coeff, Certificate: cert}
	case TagPerCertificateFee:
		n, err := vr.GetU8()
		if err != nil {
			return err
		}
		fees := make(map[FeeCertKind]amount.Value, n)
		for i := uint8(0); i < n; i++ {
			kind, err := vr.GetU8()
			if err != nil {
				return err
			}
			v, err := amount.GetValue(vr)
			if err != nil {
				return err
			}
			fees[FeeCertKind(kind)] = v
		}
		c.PerCertFee = PerCertificateFee{Fees: fees}
	case TagRewardParams:
		method, err := vr.GetU8()
		if err != nil {
			return err
		}
		initial, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		ratio, err := getFloat(vr)
		if err != nil {
			return err
		}
		epochStart, err := vr.GetU32()
		if err != nil {
			return err
		}
		epochRate, err := vr.GetU32()
		if err != nil {
			return err
		}
		c.Reward = RewardParameters{
			Method:           RewardDrawingMethod(method),
			InitialValue:     initial,
			CompoundingRatio: ratio,
			EpochStart:       epochStart,
			EpochRate:        epochRate,
		}
	case TagTreasury:
		v, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		c.Treasury = v
	case TagPoolCapping:
		v, err := getFloat(vr)
		if err != nil {
			return err
		}
		c.PoolCapping = v
	case TagRewardLimit:
		v, err := amount.GetValue(vr)
		if err != nil {
			return err
		}
		c.RewardDrawingLimit = v
	case TagFeesGoTo:
		v, err := vr.GetU8()
		if err != nil {
			return err
		}
		c.FeesGoTo = FeesGoTo(v)
	case TagCommittee:
		n, err := vr.GetU16()
		if err != nil {
			return err
		}
		committee := make([][32]byte, n)
		for i := range committee {
			h, err := vr.GetHash32()
			if err != nil {
				return err
			}
			committee[i] = h
		}
		c.Committee = committee
	default:
		return fmt.Errorf("chaincfg: unknown config tag %d", tag)
	}
	return nil
}

// ratioScale fixes ratios (reward compounding ratio, pool capping fraction,
// tax ratio) to a u32 numerator over a 1e9 denominator, so the wire form
// stays purely integer and big-endian rather than embedding an IEEE-754
// float whose bit pattern is a poor fit for a hash-relevant canonical
// encoding.
const ratioScale = 1_000_000_000

func putFloat(w *wire.Writer, f float64) {
	w.PutU32(uint32(f * ratioScale))
}

func getFloat(r *wire.Reader) (float64, error) {
	v, err := r.GetU32()
	if err != nil {
		return 0, err
	}
	return float64(v) / ratioScale, nil
}

// Set installs a single field via its builder form, used by genesis tooling
// assembling a ConfigParams programmatically instead of decoding one.
func (c *ConfigParams) Set(t Tag) {
	c.markSet(t)
}
