// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package repository

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"

	"github.com/ethermind/chaincore/core"
)

// StateRepository implements core.Repository over a go-ethereum
// state.StateDB, mapping ethereumj's startTracking/commit/rollback onto
// the StateDB's own Snapshot()/RevertToSnapshot journal: a "root" handle
// owns a StateDB rooted via state.New, and every StartTracking call
// beneath it shares that same StateDB pointer, distinguished only by the
// snapshot id RevertToSnapshot would restore.
type StateRepository struct {
	db      state.Database
	stateDB *state.StateDB

	// hasSnapshot is false for a root handle (produced by GetSnapshotTo or
	// NewRootRepository) and true for a StartTracking view sharing the
	// root's StateDB.
	hasSnapshot bool
	snapshotID  int
}

// NewRootRepository opens a Repository at root over db. Pass
// common.Hash{} for a brand-new, empty state (genesis).
func NewRootRepository(db state.Database, root common.Hash) (*StateRepository, error) {
	stateDB, err := state.New(root, db, nil)
	if err != nil {
		return nil, fmt.Errorf("open state at %s: %w", root, err)
	}
	return &StateRepository{db: db, stateDB: stateDB}, nil
}

// GetRoot hashes a copy of the StateDB, leaving the shared StateDB's
// snapshot journal intact for tracking views that later Rollback.
func (r *StateRepository) GetRoot() common.Hash {
	return r.stateDB.Copy().IntermediateRoot(true)
}

func (r *StateRepository) GetSnapshotTo(root common.Hash) core.Repository {
	stateDB, err := state.New(root, r.db, nil)
	if err != nil {
		// Repository's interface has no error return here, matching
		// ethereumj's getSnapshotTo; a bad root surfaces on first use
		// instead, exactly as an empty/failed trie lookup would there.
		stateDB, _ = state.New(common.Hash{}, r.db, nil)
	}
	return &StateRepository{db: r.db, stateDB: stateDB}
}

func (r *StateRepository) StartTracking() core.Repository {
	id := r.stateDB.Snapshot()
	return &StateRepository{db: r.db, stateDB: r.stateDB, hasSnapshot: true, snapshotID: id}
}

// Commit folds a tracking view back (a no-op: its mutations already live
// in the shared StateDB) or, for a root handle, commits the trie to the
// underlying database so a later GetSnapshotTo(root) can read it back.
func (r *StateRepository) Commit() error {
	if r.hasSnapshot {
		return nil
	}
	root, err := r.stateDB.Commit(true)
	if err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	if err := r.db.TrieDB().Commit(root, false); err != nil {
		return fmt.Errorf("commit trie: %w", err)
	}
	return nil
}

// Rollback discards a tracking view's mutations via RevertToSnapshot; a
// root handle that never had Commit called has nothing to discard.
func (r *StateRepository) Rollback() error {
	if r.hasSnapshot {
		r.stateDB.RevertToSnapshot(r.snapshotID)
	}
	return nil
}

func (r *StateRepository) GetNonce(addr common.Address) *big.Int {
	return new(big.Int).SetUint64(r.stateDB.GetNonce(addr))
}

func (r *StateRepository) GetBalance(addr common.Address) *big.Int {
	return r.stateDB.GetBalance(addr)
}

func (r *StateRepository) AddBalance(addr common.Address, delta *big.Int) error {
	if delta == nil {
		return nil
	}
	if delta.Sign() < 0 {
		r.stateDB.SubBalance(addr, new(big.Int).Neg(delta))
		return nil
	}
	r.stateDB.AddBalance(addr, delta)
	return nil
}

var _ core.Repository = (*StateRepository)(nil)
