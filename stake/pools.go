// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stake tracks stake pool lifecycle and delegated stake
// distribution, the two pieces of state the leadership lottery and reward
// distribution both read from but neither owns outright.
package stake

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

// PoolState is a pool's position in its registration lifecycle.
type PoolState uint8

const (
	// PoolNotRegistered is the implicit state of any pool id with no entry
	// in the registry; it is never stored explicitly.
	PoolNotRegistered PoolState = 0
	PoolRegistered     PoolState = 1
	PoolRetired         PoolState = 2
)

// PoolEntry is one pool's current registration state.
type PoolEntry struct {
	State           PoolState
	Registration    ledgertypes.PoolRegistrationCert
	RetirementEpoch uint32 // meaningful only when State == PoolRetired
}

// IsActiveAt reports whether the pool is eligible to lead blocks or receive
// delegation at the given epoch: registered and, if retirement has been
// scheduled, not yet reached its retirement epoch.
func (e PoolEntry) IsActiveAt(epoch uint32) bool {
	switch e.State {
	case PoolRegistered:
		return true
	case PoolRetired:
		return epoch < e.RetirementEpoch
	default:
		return false
	}
}

// Registry tracks every pool's lifecycle state, keyed by pool id. The zero
// value is an empty registry ready to use.
type Registry struct {
	pools map[ledgertypes.PoolID]*PoolEntry
}

// NewRegistry returns an empty pool registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[ledgertypes.PoolID]*PoolEntry)}
}

// Get returns the pool's entry and whether one exists.
func (r *Registry) Get(id ledgertypes.PoolID) (PoolEntry, bool) {
	e, ok := r.pools[id]
	if !ok {
		return PoolEntry{}, false
	}
	return *e, true
}

// Register applies a pool registration certificate, rejecting a
// registration for a pool id that is already registered (whether or not
// it has since retired - the id is permanently claimed once used, since
// reusing it would let a new operator inherit an old pool's delegator
// base by id collision).
func (r *Registry) Register(cert ledgertypes.PoolRegistrationCert) error {
	if _, exists := r.pools[cert.PoolID]; exists {
		return ruleError(ErrPoolAlreadyRegistered,
			fmt.Sprintf("pool %x is already registered", cert.PoolID))
	}
	if cert.ManagementThreshold == 0 || int(cert.ManagementThreshold) > len(cert.Owners) {
		return ruleError(ErrInvalidManagementThreshold,
			fmt.Sprintf("pool %x management threshold %d invalid for %d owners",
				cert.PoolID, cert.ManagementThreshold, len(cert.Owners)))
	}
	if r.pools == nil {
		r.pools = make(map[ledgertypes.PoolID]*PoolEntry)
	}
	r.pools[cert.PoolID] = &PoolEntry{State: PoolRegistered, Registration: cert}
	return nil
}

// Retire schedules a registered pool's retirement at retirementEpoch, which
// must be strictly after the pool's declared StartValidity epoch.
func (r *Registry) Retire(poolID ledgertypes.PoolID, retirementEpoch uint32) error {
	e, ok := r.pools[poolID]
	if !ok {
		return ruleError(ErrPoolUnknown, fmt.Sprintf("pool %x is not registered", poolID))
	}
	if e.State == PoolRetired {
		return ruleError(ErrPoolRetired, fmt.Sprintf("pool %x has already retired", poolID))
	}
	if retirementEpoch <= e.Registration.StartValidity {
		return ruleError(ErrPoolRetirementInPast,
			fmt.Sprintf("pool %x retirement epoch %d is not after start validity %d",
				poolID, retirementEpoch, e.Registration.StartValidity))
	}
	e.State = PoolRetired
	e.RetirementEpoch = retirementEpoch
	return nil
}

// Update rotates a pool's VRF and KES operational keys in place. A retired
// pool can no longer be updated.
func (r *Registry) Update(poolID ledgertypes.PoolID, newVRF crypto.VRFPublicKeyBytes, newKES crypto.KESPublicKey) error {
	e, ok := r.pools[poolID]
	if !ok {
		return ruleError(ErrPoolUnknown, fmt.Sprintf("pool %x is not registered", poolID))
	}
	if e.State == PoolRetired {
		return ruleError(ErrPoolRetired, fmt.Sprintf("pool %x has retired and cannot be updated", poolID))
	}
	e.Registration.VRFPublicKey = newVRF
	e.Registration.KESPublicKey = newKES
	return nil
}

// ActivePoolsAt returns every pool id active at the given epoch, in no
// particular order; callers needing determinism sort the result
// themselves.
func (r *Registry) ActivePoolsAt(epoch uint32) []ledgertypes.PoolID {
	var ids []ledgertypes.PoolID
	for id, e := range r.pools {
		if e.IsActiveAt(epoch) {
			ids = append(ids, id)
		}
	}
	return ids
}
