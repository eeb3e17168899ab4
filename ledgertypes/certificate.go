// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/wire"
)

// PoolID identifies a stake pool: the 32-byte id its registration
// certificate declares. The id is taken as given; it is not derived from,
// or checked against, the certificate's other contents.
type PoolID chainhash.Hash

// MaxDelegationParts bounds a ratio delegation's part count at 8. The
// parts' weights (each 1-255) are checked separately to sum to at most
// 255, so the sum fits a u8.
const MaxDelegationParts = 8

// DelegationKind discriminates whether an account's stake goes entirely to
// one pool or is split by weight across several.
type DelegationKind uint8

const (
	DelegationKindFull  DelegationKind = 0
	DelegationKindRatio DelegationKind = 1
)

// RatioPart is one weighted share of a ratio delegation.
type RatioPart struct {
	Pool   PoolID
	Weight uint8 // 1-255
}

// DelegationDistribution describes where an account's stake is delegated.
type DelegationDistribution struct {
	Kind     DelegationKind
	FullPool PoolID      // Kind == DelegationKindFull
	Parts    []RatioPart // Kind == DelegationKindRatio, 1-8 entries, weights summing within a u8
}

// Encode writes the distribution's canonical bytes.
func (d DelegationDistribution) Encode(w *wire.Writer) error {
	w.PutU8(uint8(d.Kind))
	switch d.Kind {
	case DelegationKindFull:
		w.PutBytes(d.FullPool[:])
	case DelegationKindRatio:
		if len(d.Parts) == 0 || len(d.Parts) > MaxDelegationParts {
			return fmt.Errorf("ledgertypes: ratio delegation has %d parts, want 1-%d", len(d.Parts), MaxDelegationParts)
		}
		var sum int
		w.PutU8(uint8(len(d.Parts)))
		for _, p := range d.Parts {
			if p.Weight == 0 {
				return fmt.Errorf("ledgertypes: ratio delegation part has zero weight")
			}
			sum += int(p.Weight)
			if sum > 0xff {
				return fmt.Errorf("ledgertypes: ratio delegation weights sum %d exceeds u8", sum)
			}
			w.PutBytes(p.Pool[:])
			w.PutU8(p.Weight)
		}
	default:
		return fmt.Errorf("ledgertypes: unknown delegation kind %d", d.Kind)
	}
	return nil
}

// decodeDelegationDistribution reads a canonical-wire distribution.
func decodeDelegationDistribution(r *wire.Reader) (DelegationDistribution, error) {
	tag, err := r.GetU8()
	if err != nil {
		return DelegationDistribution{}, err
	}
	switch DelegationKind(tag) {
	case DelegationKindFull:
		h, err := r.GetHash32()
		if err != nil {
			return DelegationDistribution{}, err
		}
		return DelegationDistribution{Kind: DelegationKindFull, FullPool: PoolID(h)}, nil
	case DelegationKindRatio:
		count, err := r.GetU8()
		if err != nil {
			return DelegationDistribution{}, err
		}
		if count == 0 || int(count) > MaxDelegationParts {
			return DelegationDistribution{}, fmt.Errorf("ledgertypes: ratio delegation declares %d parts, want 1-%d", count, MaxDelegationParts)
		}
		parts := make([]RatioPart, 0, count)
		var sum int
		for i := 0; i < int(count); i++ {
			h, err := r.GetHash32()
			if err != nil {
				return DelegationDistribution{}, err
			}
			weight, err := r.GetU8()
			if err != nil {
				return DelegationDistribution{}, err
			}
			if weight == 0 {
				return DelegationDistribution{}, fmt.Errorf("ledgertypes: ratio delegation part has zero weight")
			}
			sum += int(weight)
			if sum > 0xff {
				return DelegationDistribution{}, fmt.Errorf("ledgertypes: ratio delegation weights sum %d exceeds u8", sum)
			}
			parts = append(parts, RatioPart{Pool: PoolID(h), Weight: weight})
		}
		return DelegationDistribution{Kind: DelegationKindRatio, Parts: parts}, nil
	default:
		return DelegationDistribution{}, fmt.Errorf("ledgertypes: unknown delegation kind tag %d", tag)
	}
}

// CertificateKind discriminates the eleven certificate variants a fragment can
// carry.
type CertificateKind uint8

// The closed certificate-kind space.
const (
	CertStakeDelegation      CertificateKind = 0
	CertOwnerStakeDelegation CertificateKind = 1
	CertPoolRegistration     CertificateKind = 2
	CertPoolRetirement       CertificateKind = 3
	CertPoolUpdate           CertificateKind = 4
	CertVotePlan             CertificateKind = 5
	CertVoteCast             CertificateKind = 6
	CertVoteTally            CertificateKind = 7
	CertUpdateProposal       CertificateKind = 8
	CertUpdateVote           CertificateKind = 9
	CertMintToken            CertificateKind = 10
)

// StakeDelegation redirects an account's stake to one or more pools.
type StakeDelegationCert struct {
	AccountID    address.AccountID
	Distribution DelegationDistribution
}

// OwnerStakeDelegation redirects stake for the account that owns the
// witness authorizing the enclosing fragment. Unlike StakeDelegation it
// names no account directly: the account is inferred at application time
// from the fragment's single account witness, which is why the wire form
// carries only the distribution.
type OwnerStakeDelegationCert struct {
	Distribution DelegationDistribution
}

// PoolTax is a pool operator's take from its pool's epoch reward share: a
// fixed amount plus a ratio of the remainder, capped at Max. The ratio is
// carried on the wire as a fixed-point numerator over rewardRatioScale
// rather than an IEEE-754 bit pattern, keeping certificate bytes portable
// across platforms the way every other ratio in this codebase is encoded.
type PoolTax struct {
	Fixed amount.Value
	Ratio float64
	Max   amount.Value
}

// rewardRatioScale fixes PoolTax.Ratio to a u32 numerator over a 1e9
// denominator on the wire.
const rewardRatioScale = 1_000_000_000

// PoolRegistrationCert registers a new stake pool.
type PoolRegistrationCert struct {
	PoolID              PoolID
	VRFPublicKey        crypto.VRFPublicKeyBytes
	KESPublicKey        crypto.KESPublicKey
	Owners              []address.AccountID
	ManagementThreshold uint8
	RewardAccount       *address.AccountID // nil: rewards accrue to the pool itself
	StartValidity       uint32             // epoch
	Tax                 PoolTax            // operator's cut of the pool's epoch reward share
}

// PoolRetirementCert schedules a pool's retirement at a future epoch.
type PoolRetirementCert struct {
	PoolID          PoolID
	RetirementEpoch uint32
}

// PoolUpdateCert rotates a pool's operational keys without changing its
// identity or owners.
type PoolUpdateCert struct {
	PoolID       PoolID
	NewVRFPublicKey crypto.VRFPublicKeyBytes
	NewKESPublicKey crypto.KESPublicKey
}

// VotePlanCert opens a governance vote plan naming its proposals and the
// epoch windows in which voting and tallying are permitted.
type VotePlanCert struct {
	VotePlanID   chainhash.Hash
	VoteStart    uint32 // epoch
	VoteEnd      uint32 // epoch
	CommitteeEnd uint32 // epoch, tally deadline
	NumProposals uint8
}

// VoteCastCert casts one account's vote on one proposal of a vote plan.
type VoteCastCert struct {
	VotePlanID    chainhash.Hash
	ProposalIndex uint8
	Choice        uint8
}

// VoteTallyCert closes a vote plan and requests its tally be computed.
type VoteTallyCert struct {
	VotePlanID chainhash.Hash
}

// UpdateProposalCert proposes a ConfigParams change for governance vote.
type UpdateProposalCert struct {
	ProposerID  address.AccountID
	ChangesHash chainhash.Hash
}

// UpdateVoteCert votes in favor of a pending update proposal.
type UpdateVoteCert struct {
	ProposalID chainhash.Hash
	VoterID    address.AccountID
}

// MintTokenCert mints a quantity of a user-defined token into an account.
type MintTokenCert struct {
	TokenID   chainhash.Hash
	ToAccount address.AccountID
	Value     amount.Value
}

// Certificate is the closed tagged union of every certificate variant a
// fragment may carry. Exactly one of the named fields is meaningful,
// selected by Kind.
type Certificate struct {
	Kind CertificateKind

	StakeDelegation      *StakeDelegationCert
	OwnerStakeDelegation *OwnerStakeDelegationCert
	PoolRegistration     *PoolRegistrationCert
	PoolRetirement       *PoolRetirementCert
	PoolUpdate           *PoolUpdateCert
	VotePlan             *VotePlanCert
	VoteCast             *VoteCastCert
	VoteTally            *VoteTallyCert
	UpdateProposal       *UpdateProposalCert
	UpdateVote           *UpdateVoteCert
	MintToken            *MintTokenCert
}

// Encode writes the certificate's canonical bytes: a one-byte kind tag
// followed by the selected variant's payload.
func (c Certificate) Encode(w *wire.Writer) error {
	w.PutU8(uint8(c.Kind))
	switch c.Kind {
	case CertStakeDelegation:
		cert := c.StakeDelegation
		w.PutBytes(cert.AccountID[:])
		return cert.Distribution.Encode(w)
	case CertOwnerStakeDelegation:
		return c.OwnerStakeDelegation.Distribution.Encode(w)
	case CertPoolRegistration:
		cert := c.PoolRegistration
		w.PutBytes(cert.PoolID[:])
		w.PutBytes(cert.VRFPublicKey[:])
		w.PutBytes(cert.KESPublicKey[:])
		if len(cert.Owners) > 0xff {
			return fmt.Errorf("ledgertypes: pool registration has %d owners, max 255", len(cert.Owners))
		}
		w.PutU8(uint8(len(cert.Owners)))
		for _, o := range cert.Owners {
			w.PutBytes(o[:])
		}
		w.PutU8(cert.ManagementThreshold)
		w.PutBool(cert.RewardAccount != nil)
		if cert.RewardAccount != nil {
			w.PutBytes(cert.RewardAccount[:])
		}
		w.PutU32(cert.StartValidity)
		amount.PutValue(w, cert.Tax.Fixed)
		w.PutU32(uint32(cert.Tax.Ratio * rewardRatioScale))
		amount.PutValue(w, cert.Tax.Max)
	case CertPoolRetirement:
		cert := c.PoolRetirement
		w.PutBytes(cert.PoolID[:])
		w.PutU32(cert.RetirementEpoch)
	case CertPoolUpdate:
		cert := c.PoolUpdate
		w.PutBytes(cert.PoolID[:])
		w.PutBytes(cert.NewVRFPublicKey[:])
		w.PutBytes(cert.NewKESPublicKey[:])
	case CertVotePlan:
		cert := c.VotePlan
		w.PutBytes(cert.VotePlanID[:])
		w.PutU32(cert.VoteStart)
		w.PutU32(cert.VoteEnd)
		w.PutU32(cert.CommitteeEnd)
		w.PutU8(cert.NumProposals)
	case CertVoteCast:
		cert := c.VoteCast
		w.PutBytes(cert.VotePlanID[:])
		w.PutU8(cert.ProposalIndex)
		w.PutU8(cert.Choice)
	case CertVoteTally:
		w.PutBytes(c.VoteTally.VotePlanID[:])
	case CertUpdateProposal:
		cert := c.UpdateProposal
		w.PutBytes(cert.ProposerID[:])
		w.PutBytes(cert.ChangesHash[:])
	case CertUpdateVote:
		cert := c.UpdateVote
		w.PutBytes(cert.ProposalID[:])
		w.PutBytes(cert.VoterID[:])
	case CertMintToken:
		cert := c.MintToken
		w.PutBytes(cert.TokenID[:])
		w.PutBytes(cert.ToAccount[:])
		amount.PutValue(w, cert.Value)
	default:
		return fmt.Errorf("ledgertypes: unknown certificate kind %d", c.Kind)
	}
	return nil
}

// DecodeCertificate reads a canonical-wire certificate.
func DecodeCertificate(r *wire.Reader) (Certificate, error) {
	tag, err := r.GetU8()
	if err != nil {
		return Certificate{}, err
	}
	kind := CertificateKind(tag)
	switch kind {
	case CertStakeDelegation:
		accB, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		dist, err := decodeDelegationDistribution(r)
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, StakeDelegation: &StakeDelegationCert{
			AccountID: address.AccountID(accB), Distribution: dist,
		}}, nil
	case CertOwnerStakeDelegation:
		dist, err := decodeDelegationDistribution(r)
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, OwnerStakeDelegation: &OwnerStakeDelegationCert{Distribution: dist}}, nil
	case CertPoolRegistration:
		poolID, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		vrfB, err := r.GetBytes(crypto.VRFPublicKeyBytesSize)
		if err != nil {
			return Certificate{}, err
		}
		var vrfPK crypto.VRFPublicKeyBytes
		copy(vrfPK[:], vrfB)
		kesB, err := r.GetBytes(32)
		if err != nil {
			return Certificate{}, err
		}
		var kesPK crypto.KESPublicKey
		copy(kesPK[:], kesB)
		ownerCount, err := r.GetU8()
		if err != nil {
			return Certificate{}, err
		}
		owners := make([]address.AccountID, 0, ownerCount)
		for i := 0; i < int(ownerCount); i++ {
			ownerB, err := r.GetHash32()
			if err != nil {
				return Certificate{}, err
			}
			owners = append(owners, address.AccountID(ownerB))
		}
		threshold, err := r.GetU8()
		if err != nil {
			return Certificate{}, err
		}
		hasReward, err := r.GetBool()
		if err != nil {
			return Certificate{}, err
		}
		var rewardAccount *address.AccountID
		if hasReward {
			rB, err := r.GetHash32()
			if err != nil {
				return Certificate{}, err
			}
			acc := address.AccountID(rB)
			rewardAccount = &acc
		}
		startValidity, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		taxFixed, err := amount.GetValue(r)
		if err != nil {
			return Certificate{}, err
		}
		taxRatioBits, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		taxMax, err := amount.GetValue(r)
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, PoolRegistration: &PoolRegistrationCert{
			PoolID:              PoolID(poolID),
			VRFPublicKey:        vrfPK,
			KESPublicKey:        kesPK,
			Owners:              owners,
			ManagementThreshold: threshold,
			RewardAccount:       rewardAccount,
			StartValidity:       startValidity,
			Tax: PoolTax{
				Fixed: taxFixed,
				Ratio: float64(taxRatioBits) / rewardRatioScale,
				Max:   taxMax,
			},
		}}, nil
	case CertPoolRetirement:
		poolID, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		epoch, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, PoolRetirement: &PoolRetirementCert{PoolID: PoolID(poolID), RetirementEpoch: epoch}}, nil
	case CertPoolUpdate:
		poolID, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		vrfB, err := r.GetBytes(crypto.VRFPublicKeyBytesSize)
		if err != nil {
			return Certificate{}, err
		}
		var vrfPK crypto.VRFPublicKeyBytes
		copy(vrfPK[:], vrfB)
		kesB, err := r.GetBytes(32)
		if err != nil {
			return Certificate{}, err
		}
		var kesPK crypto.KESPublicKey
		copy(kesPK[:], kesB)
		return Certificate{Kind: kind, PoolUpdate: &PoolUpdateCert{
			PoolID: PoolID(poolID), NewVRFPublicKey: vrfPK, NewKESPublicKey: kesPK,
		}}, nil
	case CertVotePlan:
		id, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		start, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		end, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		committeeEnd, err := r.GetU32()
		if err != nil {
			return Certificate{}, err
		}
		numProposals, err := r.GetU8()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, VotePlan: &VotePlanCert{
			VotePlanID: chainhash.Hash(id), VoteStart: start, VoteEnd: end,
			CommitteeEnd: committeeEnd, NumProposals: numProposals,
		}}, nil
	case CertVoteCast:
		id, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		idx, err := r.GetU8()
		if err != nil {
			return Certificate{}, err
		}
		choice, err := r.GetU8()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, VoteCast: &VoteCastCert{
			VotePlanID: chainhash.Hash(id), ProposalIndex: idx, Choice: choice,
		}}, nil
	case CertVoteTally:
		id, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, VoteTally: &VoteTallyCert{VotePlanID: chainhash.Hash(id)}}, nil
	case CertUpdateProposal:
		proposer, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		changesHash, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, UpdateProposal: &UpdateProposalCert{
			ProposerID: address.AccountID(proposer), ChangesHash: chainhash.Hash(changesHash),
		}}, nil
	case CertUpdateVote:
		proposalID, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		voter, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, UpdateVote: &UpdateVoteCert{
			ProposalID: chainhash.Hash(proposalID), VoterID: address.AccountID(voter),
		}}, nil
	case CertMintToken:
		tokenID, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		toAccount, err := r.GetHash32()
		if err != nil {
			return Certificate{}, err
		}
		value, err := amount.GetValue(r)
		if err != nil {
			return Certificate{}, err
		}
		return Certificate{Kind: kind, MintToken: &MintTokenCert{
			TokenID: chainhash.Hash(tokenID), ToAccount: address.AccountID(toAccount), Value: value,
		}}, nil
	default:
		return Certificate{}, fmt.Errorf("ledgertypes: unknown certificate kind tag %d", tag)
	}
}
