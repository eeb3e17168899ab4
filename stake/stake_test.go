// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stake

import (
	"errors"
	"testing"

	"github.com/ogprotocol/ogpnode/address"
	"github.com/ogprotocol/ogpnode/amount"
	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/ledgertypes"
)

func poolID(s string) ledgertypes.PoolID {
	return ledgertypes.PoolID(chainhash.HashH([]byte(s)))
}

func accountID(b byte) address.AccountID {
	var id address.AccountID
	for i := range id {
		id[i] = b
	}
	return id
}

func registerPool(t *testing.T, r *Registry, id ledgertypes.PoolID, owners int, threshold uint8) {
	t.Helper()
	cert := ledgertypes.PoolRegistrationCert{
		PoolID:              id,
		Owners:              make([]address.AccountID, owners),
		ManagementThreshold: threshold,
		StartValidity:       0,
	}
	if err := r.Register(cert); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestRegistryRejectsDoubleRegistration(t *testing.T) {
	r := NewRegistry()
	id := poolID("a")
	registerPool(t, r, id, 1, 1)
	err := r.Register(ledgertypes.PoolRegistrationCert{PoolID: id, Owners: []address.AccountID{{}}, ManagementThreshold: 1})
	if !errors.Is(err, ErrPoolAlreadyRegistered) {
		t.Fatalf("expected ErrPoolAlreadyRegistered, got %v", err)
	}
}

func TestRegistryRejectsInvalidThreshold(t *testing.T) {
	r := NewRegistry()
	err := r.Register(ledgertypes.PoolRegistrationCert{PoolID: poolID("a"), Owners: []address.AccountID{{}}, ManagementThreshold: 2})
	if !errors.Is(err, ErrInvalidManagementThreshold) {
		t.Fatalf("expected ErrInvalidManagementThreshold, got %v", err)
	}
}

func TestRetirementLifecycle(t *testing.T) {
	r := NewRegistry()
	id := poolID("a")
	registerPool(t, r, id, 1, 1)

	if err := r.Retire(id, 10); err != nil {
		t.Fatalf("retire: %v", err)
	}
	entry, ok := r.Get(id)
	if !ok || entry.State != PoolRetired {
		t.Fatalf("expected pool to be retired, got %+v", entry)
	}
	if !entry.IsActiveAt(9) {
		t.Fatal("pool should remain active before its retirement epoch")
	}
	if entry.IsActiveAt(10) {
		t.Fatal("pool should not be active at its retirement epoch")
	}

	if err := r.Retire(id, 20); !errors.Is(err, ErrPoolRetired) {
		t.Fatalf("expected ErrPoolRetired on double retirement, got %v", err)
	}
}

func TestStakePerPoolFullDelegation(t *testing.T) {
	r := NewRegistry()
	pA := poolID("a")
	registerPool(t, r, pA, 1, 1)

	book := NewBook()
	acc := accountID(1)
	dist := ledgertypes.DelegationDistribution{Kind: ledgertypes.DelegationKindFull, FullPool: pA}
	if err := book.Delegate(r, acc, dist, 0); err != nil {
		t.Fatalf("delegate: %v", err)
	}

	balances := map[address.AccountID]amount.Value{acc: 1000}
	totals, err := book.StakePerPool(balances)
	if err != nil {
		t.Fatal(err)
	}
	if totals[pA] != 1000 {
		t.Fatalf("expected pool a to hold 1000, got %d", totals[pA])
	}
}

func TestStakePerPoolRatioDelegationConservesValue(t *testing.T) {
	r := NewRegistry()
	pA, pB := poolID("a"), poolID("b")
	registerPool(t, r, pA, 1, 1)
	registerPool(t, r, pB, 1, 1)

	book := NewBook()
	acc := accountID(2)
	dist := ledgertypes.DelegationDistribution{
		Kind: ledgertypes.DelegationKindRatio,
		Parts: []ledgertypes.RatioPart{
			{Pool: pA, Weight: 3},
			{Pool: pB, Weight: 1},
		},
	}
	if err := book.Delegate(r, acc, dist, 0); err != nil {
		t.Fatalf("delegate: %v", err)
	}

	balances := map[address.AccountID]amount.Value{acc: 1001}
	totals, err := book.StakePerPool(balances)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := totals[pA].Add(totals[pB])
	if err != nil {
		t.Fatal(err)
	}
	if sum != 1001 {
		t.Fatalf("ratio delegation must conserve total value: got %d, want 1001", sum)
	}
}

func TestDelegationRejectsUnregisteredPool(t *testing.T) {
	r := NewRegistry()
	book := NewBook()
	dist := ledgertypes.DelegationDistribution{Kind: ledgertypes.DelegationKindFull, FullPool: poolID("ghost")}
	err := book.Delegate(r, accountID(3), dist, 0)
	if !errors.Is(err, ErrDelegationTargetsUnregisteredPool) {
		t.Fatalf("expected ErrDelegationTargetsUnregisteredPool, got %v", err)
	}
}
