// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package repository implements core.Repository over go-ethereum's own
// state.StateDB, the concrete grounding for the world-state external
// collaborator spec.md §1 names. This is a reference/test backing
// (SPEC_FULL.md §F): production deployments would swap memorydb for a
// disk-backed ethdb.Database without touching core at all.
package repository

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
)

// NewMemoryStateDatabase builds a state.Database backed by an in-memory
// KV store, grounded on graft/coreth/core's use of state.NewDatabase over
// an ethdb.Database. rawdb.NewMemoryDatabase is the same in-memory
// ethdb.Database construction go-ethereum's own tests use, layered over
// the ethdb/memorydb key-value store SPEC_FULL.md §C names.
func NewMemoryStateDatabase() state.Database {
	return state.NewDatabase(rawdb.NewMemoryDatabase())
}
