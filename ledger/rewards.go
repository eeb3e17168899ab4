// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"math"
	"sort"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chaincfg"
	"github.com/ogprotocol/ogpnode/ledgertypes"
	"github.com/ogprotocol/ogpnode/stake"
)

// EpochReward computes the total reward drawn from the rewards pot for the
// absolute epoch index epoch, per the configured compounding schedule.
// Epochs before reward.EpochStart draw nothing. From EpochStart on, the
// schedule steps once every EpochRate epochs (halving multiplies by
// CompoundingRatio per step; linear subtracts InitialValue*CompoundingRatio
// per step, floored at zero), and an epoch between two steps draws the
// amount of the last step reached. An EpochRate of 0 always draws
// InitialValue.
func EpochReward(reward chaincfg.RewardParameters, epoch uint32) amount.Value {
	if epoch < reward.EpochStart {
		return 0
	}
	elapsed := epoch - reward.EpochStart
	if reward.EpochRate == 0 {
		return reward.InitialValue
	}
	steps := elapsed / reward.EpochRate
	switch reward.Method {
	case chaincfg.RewardDrawingHalving:
		factor := math.Pow(reward.CompoundingRatio, float64(steps))
		return amount.Value(float64(reward.InitialValue) * factor)
	case chaincfg.RewardDrawingLinear:
		delta := float64(reward.InitialValue) * reward.CompoundingRatio * float64(steps)
		v := float64(reward.InitialValue) - delta
		if v < 0 {
			v = 0
		}
		return amount.Value(v)
	default:
		return reward.InitialValue
	}
}

// PoolRewardShare is one pool's reward draw for an epoch, before tax.
type PoolRewardShare struct {
	Pool  ledgertypes.PoolID
	Total amount.Value
}

// AllocatePoolRewards splits totalReward across active pools in
// proportion to their stake share, with each pool's share capped at
// poolCapping fraction of the total reward; capped remainder is not
// redistributed (per spec §4.4, capping simply reduces what that pool
// draws). Ties in the largest-remainder rounding are broken by pool id,
// ascending.
func AllocatePoolRewards(poolStake stake.PoolStake, totalStake amount.Value, totalReward amount.Value, poolCapping float64) []PoolRewardShare {
	if totalStake == 0 || totalReward == 0 {
		return nil
	}
	pools := make([]ledgertypes.PoolID, 0, len(poolStake))
	for p := range poolStake {
		pools = append(pools, p)
	}
	sort.Slice(pools, func(i, j int) bool { return bytes.Compare(pools[i][:], pools[j][:]) < 0 })

	type raw struct {
		pool      ledgertypes.PoolID
		floorPart amount.Value
		remainder float64
	}
	raws := make([]raw, 0, len(pools))
	var distributed amount.Value
	for _, p := range pools {
		share := float64(poolStake[p]) / float64(totalStake) * float64(totalReward)
		if poolCapping > 0 {
			cap := poolCapping * float64(totalReward)
			if share > cap {
				share = cap
			}
		}
		floor := amount.Value(math.Floor(share))
		raws = append(raws, raw{pool: p, floorPart: floor, remainder: share - math.Floor(share)})
		distributed += floor
	}

	leftover := totalReward - distributed
	sort.SliceStable(raws, func(i, j int) bool {
		if raws[i].remainder != raws[j].remainder {
			return raws[i].remainder > raws[j].remainder
		}
		return bytes.Compare(raws[i].pool[:], raws[j].pool[:]) < 0
	})
	for i := 0; i < int(leftover) && i < len(raws); i++ {
		raws[i].floorPart++
	}

	out := make([]PoolRewardShare, len(raws))
	for i, r := range raws {
		out[i] = PoolRewardShare{Pool: r.pool, Total: r.floorPart}
	}
	return out
}

// ApplyPoolTax splits a pool's gross reward into the operator's tax cut
// and the remainder due to delegators.
func ApplyPoolTax(gross amount.Value, tax ledgertypes.PoolTax) (operatorCut, delegatorRemainder amount.Value) {
	if gross <= tax.Fixed {
		return gross, 0
	}
	afterFixed := gross - tax.Fixed
	ratioCut := amount.Value(float64(afterFixed) * tax.Ratio)
	if tax.Max > 0 {
		total := tax.Fixed + ratioCut
		if total > tax.Max {
			ratioCut = tax.Max - tax.Fixed
			if ratioCut < 0 {
				ratioCut = 0
			}
		}
	}
	operatorCut = tax.Fixed + ratioCut
	delegatorRemainder = gross - operatorCut
	return operatorCut, delegatorRemainder
}

// SplitAmongDelegators divides remainder across a pool's delegators in
// proportion to their stake in that pool, assigning truncation remainders
// by largest remainder first, ties broken by account id order.
func SplitAmongDelegators(remainder amount.Value, delegatorStake map[address.AccountID]amount.Value) map[address.AccountID]amount.Value {
	out := make(map[address.AccountID]amount.Value, len(delegatorStake))
	if remainder == 0 || len(delegatorStake) == 0 {
		return out
	}
	var total amount.Value
	for _, v := range delegatorStake {
		total += v
	}
	if total == 0 {
		return out
	}

	type raw struct {
		account   address.AccountID
		floorPart amount.Value
		remainder float64
	}
	accounts := make([]address.AccountID, 0, len(delegatorStake))
	for a := range delegatorStake {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return bytes.Compare(accounts[i][:], accounts[j][:]) < 0 })

	raws := make([]raw, 0, len(accounts))
	var distributed amount.Value
	for _, a := range accounts {
		share := float64(delegatorStake[a]) / float64(total) * float64(remainder)
		floor := amount.Value(math.Floor(share))
		raws = append(raws, raw{account: a, floorPart: floor, remainder: share - math.Floor(share)})
		distributed += floor
	}
	leftover := remainder - distributed
	sort.SliceStable(raws, func(i, j int) bool {
		if raws[i].remainder != raws[j].remainder {
			return raws[i].remainder > raws[j].remainder
		}
		return bytes.Compare(raws[i].account[:], raws[j].account[:]) < 0
	})
	for i := 0; i < int(leftover) && i < len(raws); i++ {
		raws[i].floorPart++
	}
	for _, r := range raws {
		out[r.account] = r.floorPart
	}
	return out
}
