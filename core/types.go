// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package core implements the block-import and chain-management core of
// an Ethereum-style client: validating candidate blocks, executing their
// transactions against a Merkle-Patricia-Trie world state, deciding
// whether a block extends, forks or is rejected from the canonical
// chain, and persisting the resulting state transition atomically.
package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block, Header, Transaction and Receipt are the consensus data types this
// core operates on. They are aliases onto go-ethereum's RLP-encodable,
// keccak-hashed types rather than a bespoke reimplementation: the teacher's
// own fork of go-ethereum (graft/coreth) consumes these same types, and the
// wire formats spec.md §6 demands (RLP trie keys, keccak256 hashes, MPT
// roots) are exactly what these types already carry.
type (
	Block       = types.Block
	Header      = types.Header
	Transaction = types.Transaction
	Receipt     = types.Receipt
	Receipts    = types.Receipts
)

// ExecutionSummary is the Go-native stand-in for ethereumj's
// TransactionExecutionSummary. The EVM interpreter is an external
// collaborator (spec.md §1); all the core needs back from it is the paying
// sender and the fee it collected, which is what reward accounting (C4)
// consumes.
type ExecutionSummary struct {
	From common.Address
	Fee  *big.Int
}

// BlockSummary is the outcome of executing a block: the block itself, the
// reward credited per coinbase, the ordered receipts and execution
// summaries, and — once the import commits — the post-import total
// difficulty. See spec.md §3.
type BlockSummary struct {
	Block           *Block
	Rewards         map[common.Address]*big.Int
	Receipts        Receipts
	Summaries       []*ExecutionSummary
	TotalDifficulty *big.Int
}

// NewBlockSummary builds an empty-rewards BlockSummary, as processBlock
// does for the genesis block or chain-only mode (spec.md §4.3).
func NewBlockSummary(block *Block) *BlockSummary {
	return &BlockSummary{
		Block:     block,
		Rewards:   make(map[common.Address]*big.Int),
		Receipts:  Receipts{},
		Summaries: nil,
	}
}

// BetterThan reports whether this summary's total difficulty exceeds td,
// the fork-choice comparison spec.md §3 names explicitly.
func (s *BlockSummary) BetterThan(td *big.Int) bool {
	return s.TotalDifficulty != nil && s.TotalDifficulty.Cmp(td) > 0
}

// ImportResult is the terminal outcome of tryToConnect, spec.md §7.
type ImportResult int

const (
	// ImportInvalidBlock means the block failed validation or a
	// post-execution sanity check; the repository is unchanged.
	ImportInvalidBlock ImportResult = iota
	// ImportExist means the block is already known; no work was done.
	ImportExist
	// ImportedNotBest means the block (or its fork) was stored on a side
	// branch; the canonical tip is unchanged.
	ImportedNotBest
	// ImportedBest means the block (or its fork) is now the canonical tip.
	ImportedBest
	// NoParent means the parent is unknown; the block was not stored.
	NoParent
)

func (r ImportResult) String() string {
	switch r {
	case ImportExist:
		return "EXIST"
	case ImportedBest:
		return "IMPORTED_BEST"
	case ImportedNotBest:
		return "IMPORTED_NOT_BEST"
	case ImportInvalidBlock:
		return "INVALID_BLOCK"
	case NoParent:
		return "NO_PARENT"
	default:
		return "UNKNOWN"
	}
}

// IsSuccessful mirrors ImportResult.isSuccessful() in the original: only
// these two outcomes fire listener notifications (spec.md §4.5).
func (r ImportResult) IsSuccessful() bool {
	return r == ImportedBest || r == ImportedNotBest
}

// TransactionInfo is the persisted (blockHash, index) location of a
// transaction, plus its receipt, as stored by a TransactionStore. See
// SPEC_FULL.md §D.2 / BlockchainImpl.java TransactionInfo usage.
type TransactionInfo struct {
	Receipt     *Receipt
	BlockHash   common.Hash
	Index       int
	Transaction *Transaction
}
