// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// AdvanceEpoch applies the end-of-epoch bookkeeping: freezing the current
// delegated-stake distribution (the snapshot the next epoch's leadership
// schedule is derived from), drawing that epoch's reward into the rewards
// pot, and splitting it across pools and their delegators. It operates on
// a Clone, matching ApplyBlock's own never-mutate-the-receiver discipline.
func AdvanceEpoch(state *State) (*State, error) {
	next := state.Clone()

	balances := make(map[address.AccountID]amount.Value, len(next.Accounts))
	for id, acc := range next.Accounts {
		balances[id] = acc.Balance
	}
	poolStake, err := next.Delegations.StakePerPool(balances)
	if err != nil {
		return nil, err
	}
	next.PrevEpochStake = poolStake

	var totalStake amount.Value
	for _, v := range poolStake {
		totalStake, err = totalStake.Add(v)
		if err != nil {
			return nil, err
		}
	}

	drawn := EpochReward(next.Settings.Reward, next.Epoch)
	if next.Settings.RewardDrawingLimit > 0 && drawn > next.Settings.RewardDrawingLimit {
		drawn = next.Settings.RewardDrawingLimit
	}
	next.RewardsPot, err = next.RewardsPot.Add(drawn)
	if err != nil {
		return nil, err
	}

	shares := AllocatePoolRewards(poolStake, totalStake, next.RewardsPot, next.Settings.PoolCapping)
	var spent amount.Value
	for _, share := range shares {
		entry, ok := next.Pools.Get(share.Pool)
		if !ok {
			continue
		}
		operatorCut, delegatorRemainder := ApplyPoolTax(share.Total, entry.Registration.Tax)

		rewardAccount := address.AccountID(share.Pool)
		if entry.Registration.RewardAccount != nil {
			rewardAccount = *entry.Registration.RewardAccount
		}
		acc := next.accountOrNew(rewardAccount)
		acc.Balance, err = acc.Balance.Add(operatorCut)
		if err != nil {
			return nil, err
		}

		delegatorStake := delegatorStakeForPool(next, share.Pool, balances)
		for account, amt := range SplitAmongDelegators(delegatorRemainder, delegatorStake) {
			dacc := next.accountOrNew(account)
			dacc.Balance, err = dacc.Balance.Add(amt)
			if err != nil {
				return nil, err
			}
		}

		spent, err = spent.Add(share.Total)
		if err != nil {
			return nil, err
		}
	}
	next.RewardsPot, err = next.RewardsPot.Sub(spent)
	if err != nil {
		return nil, err
	}

	applyQuorumUpdates(next)

	return next, nil
}

// delegatorStakeForPool narrows the full balance map down to the accounts
// that delegate (in whole or in part) to pool, weighted by the share of
// their balance actually assigned to it.
func delegatorStakeForPool(s *State, pool ledgertypes.PoolID, balances map[address.AccountID]amount.Value) map[address.AccountID]amount.Value {
	out := make(map[address.AccountID]amount.Value)
	for account, balance := range balances {
		dist, ok := s.Delegations.Get(account)
		if !ok || balance == 0 {
			continue
		}
		switch dist.Kind {
		case ledgertypes.DelegationKindFull:
			if dist.FullPool == pool {
				out[account] = balance
			}
		case ledgertypes.DelegationKindRatio:
			var weightSum int
			for _, p := range dist.Parts {
				weightSum += int(p.Weight)
			}
			var distributed amount.Value
			for i, p := range dist.Parts {
				var part amount.Value
				if i == len(dist.Parts)-1 {
					part = balance - distributed
				} else {
					part = amount.Value(uint64(balance) * uint64(p.Weight) / uint64(weightSum))
					distributed += part
				}
				if p.Pool == pool {
					out[account] = part
				}
			}
		}
	}
	return out
}

// applyQuorumUpdates resolves pending configuration update proposals that
// have reached a majority of the configured committee's votes, marking
// them applied. Installing the new ConfigParams values themselves is left
// to the caller's genesis/update tooling, which builds the successor
// ConfigParams from the proposal's declared changes; this step only
// advances the vote bookkeeping.
func applyQuorumUpdates(s *State) {
	committeeSize := len(s.Settings.Committee)
	if committeeSize == 0 {
		return
	}
	quorum := committeeSize/2 + 1
	for _, p := range s.PendingUpdates {
		if !p.Applied && len(p.Votes) >= quorum {
			p.Applied = true
		}
	}
}
