// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBlockStore is a minimal in-memory core.BlockStore for tests that
// only exercise C2/C5/C6 logic and don't need store.BlockStore's fuller
// rebranch/persistence behaviour (which has its own package tests).
type fakeBlockStore struct {
	byHash        map[common.Hash]*Block
	canonicalByNo map[uint64]*Block
	totalDiff     map[common.Hash]*big.Int
	best          *Block
}

func newFakeBlockStore() *fakeBlockStore {
	return &fakeBlockStore{
		byHash:        make(map[common.Hash]*Block),
		canonicalByNo: make(map[uint64]*Block),
		totalDiff:     make(map[common.Hash]*big.Int),
	}
}

func (s *fakeBlockStore) addCanonical(block *Block, td int64) {
	s.byHash[block.Hash()] = block
	s.canonicalByNo[block.NumberU64()] = block
	s.totalDiff[block.Hash()] = big.NewInt(td)
	if s.best == nil || block.NumberU64() >= s.best.NumberU64() {
		s.best = block
	}
}

func (s *fakeBlockStore) IsBlockExist(hash common.Hash) bool {
	_, ok := s.byHash[hash]
	return ok
}

func (s *fakeBlockStore) GetBlockByHash(hash common.Hash) *Block { return s.byHash[hash] }

func (s *fakeBlockStore) GetChainBlockByNumber(number uint64) *Block { return s.canonicalByNo[number] }

func (s *fakeBlockStore) GetBlocksByNumber(number uint64) []*Block {
	if b, ok := s.canonicalByNo[number]; ok {
		return []*Block{b}
	}
	return nil
}

func (s *fakeBlockStore) GetBestBlock() *Block { return s.best }

func (s *fakeBlockStore) GetMaxNumber() uint64 {
	if s.best == nil {
		return 0
	}
	return s.best.NumberU64()
}

func (s *fakeBlockStore) GetTotalDifficultyForHash(hash common.Hash) *big.Int {
	if td, ok := s.totalDiff[hash]; ok {
		return td
	}
	return new(big.Int)
}

func (s *fakeBlockStore) SaveBlock(block *Block, totalDifficulty *big.Int, onMainChain bool) {
	s.byHash[block.Hash()] = block
	s.totalDiff[block.Hash()] = totalDifficulty
	if onMainChain {
		s.canonicalByNo[block.NumberU64()] = block
		s.best = block
	}
}

func (s *fakeBlockStore) ReBranch(block *Block) error {
	s.canonicalByNo[block.NumberU64()] = block
	s.best = block
	return nil
}

func (s *fakeBlockStore) GetListHashesEndWith(hash common.Hash, qty int) []common.Hash {
	out := make([]common.Hash, 0, qty)
	cursor, ok := s.byHash[hash]
	for i := 0; i < qty && ok; i++ {
		out = append(out, cursor.Hash())
		cursor, ok = s.byHash[cursor.ParentHash()]
	}
	return out
}

var _ BlockStore = (*fakeBlockStore)(nil)

// chainOfHeaders builds n linked headers (genesis..n-1) with strictly
// increasing number/time and a fixed difficulty, wired as parent/child via
// ParentHash, and returns the resulting blocks.
func chainOfHeaders(n int) []*Block {
	blocks := make([]*Block, n)
	var parentHash common.Hash
	for i := 0; i < n; i++ {
		h := &types.Header{
			Number:     big.NewInt(int64(i)),
			ParentHash: parentHash,
			Time:       uint64(i + 1),
			Difficulty: big.NewInt(1),
			GasLimit:   5000,
			Extra:      []byte{byte(i)},
		}
		b := types.NewBlockWithHeader(h)
		blocks[i] = b
		parentHash = b.Hash()
	}
	return blocks
}
