// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// fakeRepo is a minimal in-memory core.Repository for unit tests that
// don't need a real go-ethereum state.StateDB underneath — repository's
// own package has that coverage. StartTracking returns a child sharing
// the same maps (mutations visible immediately, matching StateRepository's
// semantics), and Rollback replays a captured diff to undo them.
type fakeRepo struct {
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	root     common.Hash

	parent *fakeRepo
	// diff records balance deltas applied while this handle was open, so
	// Rollback can undo exactly what this handle (and its descendants) did.
	diff map[common.Address]*big.Int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
	}
}

func (r *fakeRepo) GetRoot() common.Hash { return r.root }

func (r *fakeRepo) GetSnapshotTo(root common.Hash) Repository {
	clone := newFakeRepo()
	for k, v := range r.balances {
		clone.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range r.nonces {
		clone.nonces[k] = v
	}
	clone.root = root
	return clone
}

func (r *fakeRepo) StartTracking() Repository {
	return &fakeRepo{
		balances: r.balances,
		nonces:   r.nonces,
		root:     r.root,
		parent:   r,
		diff:     make(map[common.Address]*big.Int),
	}
}

func (r *fakeRepo) Commit() error {
	return nil
}

func (r *fakeRepo) Rollback() error {
	for addr, delta := range r.diff {
		cur := r.balances[addr]
		if cur == nil {
			cur = new(big.Int)
		}
		r.balances[addr] = new(big.Int).Sub(cur, delta)
	}
	return nil
}

func (r *fakeRepo) GetNonce(addr common.Address) *big.Int {
	return new(big.Int).SetUint64(r.nonces[addr])
}

func (r *fakeRepo) GetBalance(addr common.Address) *big.Int {
	if v, ok := r.balances[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (r *fakeRepo) AddBalance(addr common.Address, delta *big.Int) error {
	cur := r.balances[addr]
	if cur == nil {
		cur = new(big.Int)
	}
	r.balances[addr] = new(big.Int).Add(cur, delta)
	if r.diff != nil {
		existing := r.diff[addr]
		if existing == nil {
			existing = new(big.Int)
		}
		r.diff[addr] = new(big.Int).Add(existing, delta)
	}
	return nil
}

var _ Repository = (*fakeRepo)(nil)
