// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package store

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/ethermind/chaincore/core"
)

// Key prefixes for the flat goleveldb keyspace DiskBlockStore uses, in the
// same single-database-many-prefixes style graft/coreth's own chain
// database layers on top of goleveldb.
const (
	prefixHeader    = 'h' // h + hash -> RLP(block)
	prefixCanonical = 'n' // n + number(8) -> canonical hash
	prefixByNumber  = 'b' // b + number(8) + hash -> struct{}{}, every block at that height
	prefixTotalDiff = 't' // t + hash -> RLP(total difficulty)
	keyBest         = "best"
	keyMaxNumber    = "max"
)

// DiskBlockStore is a goleveldb-backed core.BlockStore: every write is
// durable, with an in-memory mutex serializing access the way
// BlockStore's own sync.RWMutex does, so the two stores are interchangeable
// collaborators for core.Blockchain. It exists for SPEC_FULL.md's
// on-disk persistence variant of the block store; the pure in-memory
// BlockStore remains the default for cmd/chaincore and this repo's own
// tests, where discarding state between runs is what's wanted.
type DiskBlockStore struct {
	mu sync.RWMutex
	db *leveldb.DB
}

// OpenDiskBlockStore opens (creating if necessary) a goleveldb database at
// path for use as a persistent core.BlockStore.
func OpenDiskBlockStore(path string) (*DiskBlockStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open block store: %w", err)
	}
	return &DiskBlockStore{db: db}, nil
}

func (s *DiskBlockStore) Close() error {
	return s.db.Close()
}

func numberKey(prefix byte, number uint64) []byte {
	key := make([]byte, 9)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:], number)
	return key
}

func hashKey(prefix byte, hash common.Hash) []byte {
	key := make([]byte, 1+common.HashLength)
	key[0] = prefix
	copy(key[1:], hash.Bytes())
	return key
}

func byNumberKey(number uint64, hash common.Hash) []byte {
	key := make([]byte, 9+common.HashLength)
	key[0] = prefixByNumber
	binary.BigEndian.PutUint64(key[1:9], number)
	copy(key[9:], hash.Bytes())
	return key
}

func (s *DiskBlockStore) getBlock(hash common.Hash) *types.Block {
	data, err := s.db.Get(hashKey(prefixHeader, hash), nil)
	if err != nil {
		return nil
	}
	var block types.Block
	if err := rlp.DecodeBytes(data, &block); err != nil {
		return nil
	}
	return &block
}

func (s *DiskBlockStore) IsBlockExist(hash common.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ok, _ := s.db.Has(hashKey(prefixHeader, hash), nil)
	return ok
}

func (s *DiskBlockStore) GetBlockByHash(hash common.Hash) *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBlock(hash)
}

func (s *DiskBlockStore) GetChainBlockByNumber(number uint64) *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.db.Get(numberKey(prefixCanonical, number), nil)
	if err != nil {
		return nil
	}
	return s.getBlock(common.BytesToHash(data))
}

func (s *DiskBlockStore) GetBlocksByNumber(number uint64) []*types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := numberKey(prefixByNumber, number)[:9]
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var out []*types.Block
	for ok := iter.Seek(prefix); ok; ok = iter.Next() {
		key := iter.Key()
		if len(key) < 9 || key[0] != prefixByNumber || !hasPrefix(key, prefix) {
			break
		}
		hash := common.BytesToHash(key[9:])
		if block := s.getBlock(hash); block != nil {
			out = append(out, block)
		}
	}
	return out
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (s *DiskBlockStore) GetBestBlock() *types.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.db.Get([]byte(keyBest), nil)
	if err != nil {
		return nil
	}
	return s.getBlock(common.BytesToHash(data))
}

func (s *DiskBlockStore) GetMaxNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.db.Get([]byte(keyMaxNumber), nil)
	if err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func (s *DiskBlockStore) GetTotalDifficultyForHash(hash common.Hash) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.db.Get(hashKey(prefixTotalDiff, hash), nil)
	if err != nil {
		return new(big.Int)
	}
	td := new(big.Int)
	if err := rlp.DecodeBytes(data, td); err != nil {
		return new(big.Int)
	}
	return td
}

// SaveBlock persists block, its total difficulty, and its membership in
// the by-number index in one batch, updating the canonical index and
// best-block/max-number markers when onMainChain is set.
func (s *DiskBlockStore) SaveBlock(block *types.Block, totalDifficulty *big.Int, onMainChain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)

	encoded, err := rlp.EncodeToBytes(block)
	if err != nil {
		return
	}
	hash := block.Hash()
	number := block.NumberU64()

	batch.Put(hashKey(prefixHeader, hash), encoded)
	batch.Put(byNumberKey(number, hash), []byte{})

	tdEncoded, err := rlp.EncodeToBytes(totalDifficulty)
	if err == nil {
		batch.Put(hashKey(prefixTotalDiff, hash), tdEncoded)
	}

	if max := s.rawMaxNumber(); number > max {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, number)
		batch.Put([]byte(keyMaxNumber), buf)
	}

	if onMainChain {
		batch.Put(numberKey(prefixCanonical, number), hash.Bytes())
		best := s.rawBestBlock()
		if best == nil || number >= best.NumberU64() {
			batch.Put([]byte(keyBest), hash.Bytes())
		}
	}

	_ = s.db.Write(batch, nil)
}

func (s *DiskBlockStore) rawMaxNumber() uint64 {
	data, err := s.db.Get([]byte(keyMaxNumber), nil)
	if err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func (s *DiskBlockStore) rawBestBlock() *types.Block {
	data, err := s.db.Get([]byte(keyBest), nil)
	if err != nil {
		return nil
	}
	return s.getBlock(common.BytesToHash(data))
}

// ReBranch flips the canonical-number index onto the branch ending at
// block, walking both branches back to their common ancestor exactly as
// BlockStore.ReBranch does.
func (s *DiskBlockStore) ReBranch(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBranch := block
	oldBranch := s.rawBestBlock()
	if oldBranch == nil {
		return fmt.Errorf("rebranch: %w", errors.ErrNotFound)
	}

	newChain := []*types.Block{newBranch}
	oldChain := []*types.Block{oldBranch}

	for newBranch != nil && oldBranch != nil && newBranch.NumberU64() > oldBranch.NumberU64() {
		newBranch = s.getBlock(newBranch.ParentHash())
		if newBranch != nil {
			newChain = append(newChain, newBranch)
		}
	}
	for oldBranch != nil && newBranch != nil && oldBranch.NumberU64() > newBranch.NumberU64() {
		oldBranch = s.getBlock(oldBranch.ParentHash())
		if oldBranch != nil {
			oldChain = append(oldChain, oldBranch)
		}
	}
	for newBranch != nil && oldBranch != nil && newBranch.Hash() != oldBranch.Hash() {
		newBranch = s.getBlock(newBranch.ParentHash())
		oldBranch = s.getBlock(oldBranch.ParentHash())
		if newBranch != nil {
			newChain = append(newChain, newBranch)
		}
		if oldBranch != nil {
			oldChain = append(oldChain, oldBranch)
		}
	}

	batch := new(leveldb.Batch)
	for _, b := range newChain {
		batch.Put(numberKey(prefixCanonical, b.NumberU64()), b.Hash().Bytes())
	}
	batch.Put([]byte(keyBest), block.Hash().Bytes())
	if block.NumberU64() > s.rawMaxNumber() {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, block.NumberU64())
		batch.Put([]byte(keyMaxNumber), buf)
	}
	return s.db.Write(batch, nil)
}

// GetListHashesEndWith returns up to qty hashes descending from hash by
// following parent pointers.
func (s *DiskBlockStore) GetListHashesEndWith(hash common.Hash, qty int) []common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Hash, 0, qty)
	cursor := s.getBlock(hash)
	for i := 0; i < qty && cursor != nil; i++ {
		out = append(out, cursor.Hash())
		if cursor.NumberU64() == 0 {
			break
		}
		cursor = s.getBlock(cursor.ParentHash())
	}
	return out
}

var _ core.BlockStore = (*DiskBlockStore)(nil)
