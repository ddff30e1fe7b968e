// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package prune implements core.PruneManager: a best-effort hook that
// reclaims trie nodes superseded by newer commits. BlockCommitted runs on
// the caller's goroutine, inside the importer's storeBlock, so a prune
// pass is part of the block import's write path (spec.md §5, §6).
package prune

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethermind/chaincore/core"
)

// retainDepth is how many recent state roots are kept eligible for a
// GetSnapshotTo call (e.g. by tryConnectAndFork investigating a recent
// side branch) before their trie nodes are candidates for reclamation.
const retainDepth = 128

// Manager tracks committed headers and asks the state.Database to
// dereference roots that have fallen more than retainDepth blocks behind
// the newest one seen, the same generation-count trick
// graft/coreth uses for its own trie-node cache eviction, simplified to a
// single retained-depth window since this repository's persistent-store
// concerns are out of scope (SPEC_FULL.md §F).
type Manager struct {
	mu      sync.Mutex
	db      state.Database
	seen    []common.Hash
	pruned  map[common.Hash]bool
}

// NewManager builds a PruneManager pruning against db.
func NewManager(db state.Database) *Manager {
	return &Manager{db: db, pruned: make(map[common.Hash]bool)}
}

// BlockCommitted records header.Root as newly live and, once more than
// retainDepth roots have been seen, asks the trie database to drop the
// oldest one's reference.
func (m *Manager) BlockCommitted(header *core.Header) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = append(m.seen, header.Root)
	if len(m.seen) <= retainDepth {
		return
	}
	stale := m.seen[0]
	m.seen = m.seen[1:]
	if m.pruned[stale] {
		return
	}
	m.pruned[stale] = true
	m.db.TrieDB().Dereference(stale)
	log.Debug("pruned superseded state root", "root", stale)
}

var _ core.PruneManager = (*Manager)(nil)
