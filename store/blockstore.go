// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package store provides in-memory reference implementations of the
// core's BlockStore and TransactionStore collaborators (spec.md §1 names
// persistent storage an external collaborator; these are the demo/test
// backing used by cmd/chaincore and this repo's own tests).
package store

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ethermind/chaincore/core"
)

// BlockStore is an in-memory core.BlockStore: hash and number indices, a
// total-difficulty ledger keyed by hash, and a rebranch operation walking
// both branches back to their common ancestor. Grounded on
// other_examples/ava-labs-coreth__blockchain.go's header/body LRU caches
// and canonical-number index, simplified to unbounded maps since this
// implementation is a reference/test backing rather than a production
// store (SPEC_FULL.md §F).
type BlockStore struct {
	mu sync.RWMutex

	byHash        map[common.Hash]*types.Block
	byNumber      map[uint64][]*types.Block
	canonicalHash map[uint64]common.Hash
	totalDiff     map[common.Hash]*big.Int
	best          *types.Block
	maxNumber     uint64
}

// NewBlockStore returns an empty BlockStore. Call SaveBlock with the
// genesis block before using it for anything else.
func NewBlockStore() *BlockStore {
	return &BlockStore{
		byHash:        make(map[common.Hash]*types.Block),
		byNumber:      make(map[uint64][]*types.Block),
		canonicalHash: make(map[uint64]common.Hash),
		totalDiff:     make(map[common.Hash]*big.Int),
	}
}

func (s *BlockStore) IsBlockExist(hash common.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[hash]
	return ok
}

func (s *BlockStore) GetBlockByHash(hash common.Hash) *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byHash[hash]
}

func (s *BlockStore) GetChainBlockByNumber(number uint64) *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.canonicalHash[number]
	if !ok {
		return nil
	}
	return s.byHash[hash]
}

func (s *BlockStore) GetBlocksByNumber(number uint64) []*types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Block, len(s.byNumber[number]))
	copy(out, s.byNumber[number])
	return out
}

func (s *BlockStore) GetBestBlock() *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best
}

func (s *BlockStore) GetMaxNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxNumber
}

func (s *BlockStore) GetTotalDifficultyForHash(hash common.Hash) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.totalDiff[hash]
	if !ok || td == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(td)
}

// SaveBlock indexes block by hash and number, records its total
// difficulty, and — if onMainChain — updates the canonical-number index
// and best-block pointer.
func (s *BlockStore) SaveBlock(block *types.Block, totalDifficulty *big.Int, onMainChain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.Hash()
	number := block.NumberU64()

	if _, exists := s.byHash[hash]; !exists {
		s.byNumber[number] = append(s.byNumber[number], block)
	}
	s.byHash[hash] = block
	s.totalDiff[hash] = new(big.Int).Set(totalDifficulty)

	if number > s.maxNumber {
		s.maxNumber = number
	}

	if onMainChain {
		s.canonicalHash[number] = hash
		if s.best == nil || number >= s.best.NumberU64() {
			s.best = block
		}
	}
}

// ReBranch flips the canonical-number index from the current best branch
// to the branch ending at block, walking both branches back to their
// lowest common ancestor exactly as
// other_examples/ava-labs-coreth__blockchain.go's reorg does for its
// old/new chain reduction.
func (s *BlockStore) ReBranch(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBranch := block
	oldBranch := s.best

	newChain := []*types.Block{newBranch}
	oldChain := []*types.Block{oldBranch}

	for newBranch != nil && oldBranch != nil && newBranch.NumberU64() > oldBranch.NumberU64() {
		newBranch = s.byHash[newBranch.ParentHash()]
		if newBranch != nil {
			newChain = append(newChain, newBranch)
		}
	}
	for oldBranch != nil && newBranch != nil && oldBranch.NumberU64() > newBranch.NumberU64() {
		oldBranch = s.byHash[oldBranch.ParentHash()]
		if oldBranch != nil {
			oldChain = append(oldChain, oldBranch)
		}
	}
	for newBranch != nil && oldBranch != nil && newBranch.Hash() != oldBranch.Hash() {
		newBranch = s.byHash[newBranch.ParentHash()]
		oldBranch = s.byHash[oldBranch.ParentHash()]
		if newBranch != nil {
			newChain = append(newChain, newBranch)
		}
		if oldBranch != nil {
			oldChain = append(oldChain, oldBranch)
		}
	}

	for _, b := range newChain {
		s.canonicalHash[b.NumberU64()] = b.Hash()
	}
	s.best = block
	if block.NumberU64() > s.maxNumber {
		s.maxNumber = block.NumberU64()
	}
	return nil
}

// GetListHashesEndWith returns up to qty hashes descending from hash by
// following parent pointers, spec.md §4.6.
func (s *BlockStore) GetListHashesEndWith(hash common.Hash, qty int) []common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Hash, 0, qty)
	cursor, ok := s.byHash[hash]
	for i := 0; i < qty && ok; i++ {
		out = append(out, cursor.Hash())
		if cursor.NumberU64() == 0 {
			break
		}
		cursor, ok = s.byHash[cursor.ParentHash()]
	}
	return out
}

var _ core.BlockStore = (*BlockStore)(nil)
