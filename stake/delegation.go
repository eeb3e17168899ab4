// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stake

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// Book tracks which accounts delegate their stake to which pools, and by
// what distribution. The zero value is an empty book ready to use.
type Book struct {
	delegations map[address.AccountID]ledgertypes.DelegationDistribution
}

// NewBook returns an empty delegation book.
func NewBook() *Book {
	return &Book{delegations: make(map[address.AccountID]ledgertypes.DelegationDistribution)}
}

// validateDistribution checks a distribution's internal shape and that
// every pool it names is registered and not retired as of epoch.
func validateDistribution(registry *Registry, d ledgertypes.DelegationDistribution, epoch uint32) error {
	switch d.Kind {
	case ledgertypes.DelegationKindFull:
		return requireActivePool(registry, d.FullPool, epoch)
	case ledgertypes.DelegationKindRatio:
		if len(d.Parts) == 0 {
			return ruleError(ErrEmptyDelegationDistribution, "ratio delegation names no pools")
		}
		if len(d.Parts) > ledgertypes.MaxDelegationParts {
			return ruleError(ErrTooManyDelegationParts,
				fmt.Sprintf("ratio delegation names %d pools, max %d", len(d.Parts), ledgertypes.MaxDelegationParts))
		}
		var sum int
		seen := make(map[ledgertypes.PoolID]bool, len(d.Parts))
		for _, part := range d.Parts {
			if part.Weight == 0 {
				return ruleError(ErrZeroDelegationWeight, "ratio delegation part has zero weight")
			}
			sum += int(part.Weight)
			if sum > 0xff {
				return ruleError(ErrDelegationWeightOverflow,
					fmt.Sprintf("ratio delegation weights sum %d exceeds u8", sum))
			}
			if seen[part.Pool] {
				return fmt.Errorf("stake: ratio delegation names pool %x more than once", part.Pool)
			}
			seen[part.Pool] = true
			if err := requireActivePool(registry, part.Pool, epoch); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("stake: unknown delegation kind %d", d.Kind)
	}
}

func requireActivePool(registry *Registry, id ledgertypes.PoolID, epoch uint32) error {
	entry, ok := registry.Get(id)
	if !ok {
		return ruleError(ErrDelegationTargetsUnregisteredPool, fmt.Sprintf("pool %x is not registered", id))
	}
	if !entry.IsActiveAt(epoch) {
		return ruleError(ErrPoolRetired, fmt.Sprintf("pool %x has retired as of epoch %d", id, epoch))
	}
	return nil
}

// Delegate records account's delegation distribution, replacing any prior
// one, after validating it against the pool registry's state at epoch.
func (b *Book) Delegate(registry *Registry, account address.AccountID, d ledgertypes.DelegationDistribution, epoch uint32) error {
	if err := validateDistribution(registry, d, epoch); err != nil {
		return err
	}
	if b.delegations == nil {
		b.delegations = make(map[address.AccountID]ledgertypes.DelegationDistribution)
	}
	b.delegations[account] = d
	return nil
}

// Get returns account's current delegation distribution, if any.
func (b *Book) Get(account address.AccountID) (ledgertypes.DelegationDistribution, bool) {
	d, ok := b.delegations[account]
	return d, ok
}

// PoolStake is the total value delegated to each pool, as derived by
// StakePerPool from account balances and their delegation distributions.
type PoolStake map[ledgertypes.PoolID]amount.Value

// StakePerPool computes each pool's total delegated stake given the
// account balances it is computed over. A ratio delegation splits an
// account's balance across its parts in proportion to weight, using
// integer division with any remainder credited to the first part - the
// same largest-remainder-adjacent convention the reward splitter uses, so
// the two never disagree by more than a handful of base units across a
// whole epoch.
func (b *Book) StakePerPool(balances map[address.AccountID]amount.Value) (PoolStake, error) {
	totals := make(PoolStake)
	for account, dist := range b.delegations {
		balance, ok := balances[account]
		if !ok || balance == 0 {
			continue
		}
		switch dist.Kind {
		case ledgertypes.DelegationKindFull:
			sum, err := totals[dist.FullPool].Add(balance)
			if err != nil {
				return nil, err
			}
			totals[dist.FullPool] = sum
		case ledgertypes.DelegationKindRatio:
			var weightSum int
			for _, p := range dist.Parts {
				weightSum += int(p.Weight)
			}
			var distributed amount.Value
			for i, p := range dist.Parts {
				var share amount.Value
				if i == len(dist.Parts)-1 {
					share = balance - distributed
				} else {
					share = amount.Value(uint64(balance) * uint64(p.Weight) / uint64(weightSum))
					distributed += share
				}
				sum, err := totals[p.Pool].Add(share)
				if err != nil {
					return nil, err
				}
				totals[p.Pool] = sum
			}
		}
	}
	return totals, nil
}
