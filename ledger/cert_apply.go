// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// applyCertificate applies the certificate riding alongside an
// authenticated transaction, once its value transfer has already balanced
// and been applied. signers is the set of accounts that authorized the
// enclosing transaction's inputs, in input order; sawUtxoInput reports
// whether any input spent a UTxO rather than an account.
func applyCertificate(s *State, kind ledgertypes.FragmentKind, cert ledgertypes.Certificate, signers []address.AccountID, sawUtxoInput bool) error {
	switch cert.Kind {
	case ledgertypes.CertStakeDelegation:
		return applyStakeDelegation(s, cert.StakeDelegation)
	case ledgertypes.CertOwnerStakeDelegation:
		return applyOwnerStakeDelegation(s, cert.OwnerStakeDelegation, signers, sawUtxoInput)
	case ledgertypes.CertPoolRegistration:
		return applyPoolRegistration(s, cert.PoolRegistration, signers)
	case ledgertypes.CertPoolRetirement:
		return applyPoolRetirement(s, cert.PoolRetirement, signers)
	case ledgertypes.CertPoolUpdate:
		return applyPoolUpdate(s, cert.PoolUpdate, signers)
	case ledgertypes.CertVotePlan:
		return applyVotePlan(s, cert.VotePlan)
	case ledgertypes.CertVoteCast:
		return applyVoteCast(s, cert.VoteCast, signers)
	case ledgertypes.CertVoteTally:
		return applyVoteTally(s, cert.VoteTally)
	case ledgertypes.CertUpdateProposal:
		return applyUpdateProposal(s, cert.UpdateProposal)
	case ledgertypes.CertUpdateVote:
		return applyUpdateVote(s, cert.UpdateVote)
	case ledgertypes.CertMintToken:
		return applyMintToken(s, cert.MintToken)
	default:
		return fmt.Errorf("ledger: unknown certificate kind %d", cert.Kind)
	}
}

// countOwnerSigners reports how many of owners appear among signers.
func countOwnerSigners(owners []address.AccountID, signers []address.AccountID) int {
	signerSet := make(map[address.AccountID]bool, len(signers))
	for _, s := range signers {
		signerSet[s] = true
	}
	var n int
	for _, o := range owners {
		if signerSet[o] {
			n++
		}
	}
	return n
}

func applyStakeDelegation(s *State, cert *ledgertypes.StakeDelegationCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: stake delegation certificate is nil")
	}
	if err := s.Delegations.Delegate(s.Pools, cert.AccountID, cert.Distribution, s.Epoch); err != nil {
		return err
	}
	s.accountOrNew(cert.AccountID).Delegation = &cert.Distribution
	return nil
}

// applyOwnerStakeDelegation redirects the stake of the single account that
// authorized this transaction's inputs; the certificate carries no account
// id of its own, since it is always interpreted relative to the signer.
func applyOwnerStakeDelegation(s *State, cert *ledgertypes.OwnerStakeDelegationCert, signers []address.AccountID, sawUtxoInput bool) error {
	if cert == nil {
		return fmt.Errorf("ledger: owner stake delegation certificate is nil")
	}
	if sawUtxoInput || len(signers) != 1 {
		return ruleError(ErrOwnerStakeDelegationInvalidTransaction,
			"owner stake delegation requires exactly one account input and no utxo inputs")
	}
	owner := signers[0]
	if err := s.Delegations.Delegate(s.Pools, owner, cert.Distribution, s.Epoch); err != nil {
		return err
	}
	s.accountOrNew(owner).Delegation = &cert.Distribution
	return nil
}

func applyPoolRegistration(s *State, cert *ledgertypes.PoolRegistrationCert, signers []address.AccountID) error {
	if cert == nil {
		return fmt.Errorf("ledger: pool registration certificate is nil")
	}
	if int(countOwnerSigners(cert.Owners, signers)) < int(cert.ManagementThreshold) {
		return ruleError(ErrPoolOwnerSigThresholdNotReached,
			fmt.Sprintf("pool %x registration needs %d owner signatures, transaction has %d",
				cert.PoolID, cert.ManagementThreshold, countOwnerSigners(cert.Owners, signers)))
	}
	return s.Pools.Register(*cert)
}

func applyPoolRetirement(s *State, cert *ledgertypes.PoolRetirementCert, signers []address.AccountID) error {
	if cert == nil {
		return fmt.Errorf("ledger: pool retirement certificate is nil")
	}
	entry, ok := s.Pools.Get(cert.PoolID)
	if !ok {
		return ruleError(ErrPoolNotFound, fmt.Sprintf("pool %x not found", cert.PoolID))
	}
	if int(countOwnerSigners(entry.Registration.Owners, signers)) < int(entry.Registration.ManagementThreshold) {
		return ruleError(ErrPoolOwnerSigThresholdNotReached,
			fmt.Sprintf("pool %x retirement needs %d owner signatures", cert.PoolID, entry.Registration.ManagementThreshold))
	}
	return s.Pools.Retire(cert.PoolID, cert.RetirementEpoch)
}

func applyPoolUpdate(s *State, cert *ledgertypes.PoolUpdateCert, signers []address.AccountID) error {
	if cert == nil {
		return fmt.Errorf("ledger: pool update certificate is nil")
	}
	entry, ok := s.Pools.Get(cert.PoolID)
	if !ok {
		return ruleError(ErrPoolNotFound, fmt.Sprintf("pool %x not found", cert.PoolID))
	}
	if int(countOwnerSigners(entry.Registration.Owners, signers)) < int(entry.Registration.ManagementThreshold) {
		return ruleError(ErrPoolOwnerSigThresholdNotReached,
			fmt.Sprintf("pool %x update needs %d owner signatures", cert.PoolID, entry.Registration.ManagementThreshold))
	}
	return s.Pools.Update(cert.PoolID, cert.NewVRFPublicKey, cert.NewKESPublicKey)
}

func applyVotePlan(s *State, cert *ledgertypes.VotePlanCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: vote plan certificate is nil")
	}
	if _, exists := s.VotePlans[cert.VotePlanID]; exists {
		return fmt.Errorf("ledger: vote plan %x already exists", cert.VotePlanID)
	}
	s.VotePlans[cert.VotePlanID] = &VotePlanState{
		Cert:  *cert,
		Votes: make(map[address.AccountID]uint8),
	}
	return nil
}

func applyVoteCast(s *State, cert *ledgertypes.VoteCastCert, signers []address.AccountID) error {
	if cert == nil {
		return fmt.Errorf("ledger: vote cast certificate is nil")
	}
	plan, ok := s.VotePlans[cert.VotePlanID]
	if !ok {
		return ruleError(ErrUnknownVotePlan, fmt.Sprintf("vote plan %x not found", cert.VotePlanID))
	}
	if s.Epoch < plan.Cert.VoteStart || s.Epoch >= plan.Cert.VoteEnd {
		return ruleError(ErrVoteOutsideWindow,
			fmt.Sprintf("vote plan %x voting window is [%d,%d), current epoch %d",
				cert.VotePlanID, plan.Cert.VoteStart, plan.Cert.VoteEnd, s.Epoch))
	}
	if cert.ProposalIndex >= plan.Cert.NumProposals {
		return fmt.Errorf("ledger: vote plan %x has %d proposals, vote names index %d",
			cert.VotePlanID, plan.Cert.NumProposals, cert.ProposalIndex)
	}
	if len(signers) != 1 {
		return fmt.Errorf("ledger: vote cast requires exactly one account signer")
	}
	plan.Votes[signers[0]] = cert.Choice
	return nil
}

func applyVoteTally(s *State, cert *ledgertypes.VoteTallyCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: vote tally certificate is nil")
	}
	plan, ok := s.VotePlans[cert.VotePlanID]
	if !ok {
		return ruleError(ErrUnknownVotePlan, fmt.Sprintf("vote plan %x not found", cert.VotePlanID))
	}
	if s.Epoch < plan.Cert.VoteEnd || s.Epoch > plan.Cert.CommitteeEnd {
		return ruleError(ErrTallyOutsideWindow,
			fmt.Sprintf("vote plan %x tally window is [%d,%d], current epoch %d",
				cert.VotePlanID, plan.Cert.VoteEnd, plan.Cert.CommitteeEnd, s.Epoch))
	}
	plan.Tallied = true
	return nil
}

func applyUpdateProposal(s *State, cert *ledgertypes.UpdateProposalCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: update proposal certificate is nil")
	}
	if _, exists := s.PendingUpdates[cert.ChangesHash]; exists {
		return fmt.Errorf("ledger: update proposal %x already exists", cert.ChangesHash)
	}
	s.PendingUpdates[cert.ChangesHash] = &UpdateProposalState{
		Cert:  *cert,
		Votes: make(map[address.AccountID]bool),
	}
	return nil
}

func applyUpdateVote(s *State, cert *ledgertypes.UpdateVoteCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: update vote certificate is nil")
	}
	proposal, ok := s.PendingUpdates[cert.ProposalID]
	if !ok {
		return fmt.Errorf("ledger: update proposal %x not found", cert.ProposalID)
	}
	if proposal.Applied {
		return fmt.Errorf("ledger: update proposal %x already applied", cert.ProposalID)
	}
	proposal.Votes[cert.VoterID] = true
	return nil
}

func applyMintToken(s *State, cert *ledgertypes.MintTokenCert) error {
	if cert == nil {
		return fmt.Errorf("ledger: mint token certificate is nil")
	}
	acc := s.accountOrNew(cert.ToAccount)
	var err error
	acc.Balance, err = acc.Balance.Add(cert.Value)
	return err
}
