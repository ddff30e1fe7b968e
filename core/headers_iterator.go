// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ethereum/go-ethereum/common"
)

// HeaderIdentifier names the block a BlockHeadersIterator starts from: by
// canonical number, or by hash (which must resolve to a block currently on
// the canonical chain at its number, per spec.md §4.6).
type HeaderIdentifier struct {
	byHash bool
	hash   common.Hash
	number uint64
}

// HeaderIdentifierByNumber starts an iterator at the canonical block at
// number.
func HeaderIdentifierByNumber(number uint64) HeaderIdentifier {
	return HeaderIdentifier{number: number}
}

// HeaderIdentifierByHash starts an iterator at the block with hash, which
// must be canonical at its own number or the iterator is empty.
func HeaderIdentifierByHash(hash common.Hash) HeaderIdentifier {
	return HeaderIdentifier{byHash: true, hash: hash}
}

// BlockHeadersIterator is C6: getIteratorOfHeadersStartFrom, a lazy,
// stable enumeration of canonical headers starting at identifier and
// stepping by skip+1 headers at a time, ascending or descending, up to
// limit headers total, grounded on BlockchainImpl.java's
// BlockHeadersIterator/getIteratorOfHeadersStartFrom (spec.md §4.6). It
// caches the header at the next position on HasNext so a caller can peek
// before consuming, and detects a rebranch that invalidated that cached
// position — the Go analogue of the original's
// ConcurrentModificationException — by re-checking the canonical hash at
// that number when Next is finally called.
type BlockHeadersIterator struct {
	blockStore BlockStore

	step    uint64
	limit   int
	reverse bool

	yielded  int
	haveNext bool
	done     bool

	nextNumber uint64
	cached     *Header
	cachedHash common.Hash
}

// NewBlockHeadersIterator resolves identifier against blockStore and
// builds an iterator over up to limit headers, stepping by skip+1 in the
// direction reverse selects. A limit of zero, or a start that cannot be
// resolved to a canonical block, yields an iterator whose HasNext is
// always false.
func NewBlockHeadersIterator(blockStore BlockStore, identifier HeaderIdentifier, skip int, limit int, reverse bool) *BlockHeadersIterator {
	it := &BlockHeadersIterator{
		blockStore: blockStore,
		step:       uint64(skip) + 1,
		limit:      limit,
		reverse:    reverse,
	}
	if limit <= 0 {
		it.done = true
		return it
	}

	var start *Block
	if identifier.byHash {
		start = blockStore.GetBlockByHash(identifier.hash)
		if start == nil {
			it.done = true
			return it
		}
		canonical := blockStore.GetChainBlockByNumber(start.NumberU64())
		if canonical == nil || canonical.Hash() != identifier.hash {
			it.done = true
			return it
		}
	} else {
		start = blockStore.GetChainBlockByNumber(identifier.number)
		if start == nil {
			it.done = true
			return it
		}
	}

	it.nextNumber = start.NumberU64()
	it.haveNext = true
	return it
}

// HasNext reports whether another header exists at the current position,
// caching it for the following Next call.
func (it *BlockHeadersIterator) HasNext() bool {
	if it.done {
		return false
	}
	if it.cached != nil {
		return true
	}
	if !it.haveNext || it.yielded >= it.limit {
		it.done = true
		return false
	}
	block := it.blockStore.GetChainBlockByNumber(it.nextNumber)
	if block == nil {
		it.done = true
		return false
	}
	it.cached = block.Header()
	it.cachedHash = block.Hash()
	return true
}

// Next returns the cached header, advances the position by step in the
// configured direction, and terminates the iterator once the next
// position would fall outside [0, bestBlock.number]. It fails with
// ErrStaleIterator if the canonical chain at this position no longer
// matches what HasNext cached — i.e. a rebranch moved the tip out from
// under this iterator between the peek and the consume.
func (it *BlockHeadersIterator) Next() (*Header, error) {
	if it.cached == nil && !it.HasNext() {
		return nil, ErrStaleIterator
	}
	current := it.blockStore.GetChainBlockByNumber(it.nextNumber)
	if current == nil || current.Hash() != it.cachedHash {
		return nil, ErrStaleIterator
	}

	header := it.cached
	number := it.nextNumber
	it.cached = nil
	it.yielded++

	var bestNumber uint64
	if best := it.blockStore.GetBestBlock(); best != nil {
		bestNumber = best.NumberU64()
	}

	it.haveNext = false
	if it.reverse {
		if number >= it.step {
			candidate := number - it.step
			if candidate <= bestNumber {
				it.nextNumber = candidate
				it.haveNext = true
			}
		}
	} else {
		candidate := number + it.step
		if candidate <= bestNumber {
			it.nextNumber = candidate
			it.haveNext = true
		}
	}

	return header, nil
}

// BlockBodiesIterator is getIteratorOfBodiesByHashes: yields full blocks
// for an explicit, caller-supplied ordered list of hashes, stopping at the
// first hash no longer resolvable to a block (spec.md §4.6). Unlike
// BlockHeadersIterator it walks no chain of its own — a peer-serving
// caller already knows exactly which hashes it wants bodies for.
type BlockBodiesIterator struct {
	blockStore BlockStore
	hashes     []common.Hash
	pos        int
	done       bool
}

// NewBlockBodiesIterator iterates hashes in order, yielding the block at
// each.
func NewBlockBodiesIterator(blockStore BlockStore, hashes []common.Hash) *BlockBodiesIterator {
	return &BlockBodiesIterator{blockStore: blockStore, hashes: hashes}
}

func (it *BlockBodiesIterator) HasNext() bool {
	if it.done || it.pos >= len(it.hashes) {
		return false
	}
	if it.blockStore.GetBlockByHash(it.hashes[it.pos]) == nil {
		it.done = true
		return false
	}
	return true
}

func (it *BlockBodiesIterator) Next() (*Block, error) {
	if !it.HasNext() {
		return nil, ErrStaleIterator
	}
	block := it.blockStore.GetBlockByHash(it.hashes[it.pos])
	if block == nil {
		it.done = true
		return nil, ErrStaleIterator
	}
	it.pos++
	return block, nil
}

// GetListHashesEndWith is spec.md §4.6's descending-from-hash query,
// delegated straight to BlockStore, which owns the parent-hash index this
// walk needs.
func GetListHashesEndWith(blockStore BlockStore, hash common.Hash, qty int) []common.Hash {
	return blockStore.GetListHashesEndWith(hash, qty)
}
