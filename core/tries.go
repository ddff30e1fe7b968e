// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
)

// calcTxTrie computes the transactions-trie root spec.md §4.2 checks
// candidate blocks against: each transaction keyed by RLP(i), exactly as
// go-ethereum's own block validator computes it
// (graft/coreth/core/block_validator.go's types.DeriveSha(block.Transactions(), ...)).
func calcTxTrie(txs types.Transactions) common.Hash {
	return types.DeriveSha(txs, trie.NewStackTrie(nil))
}

// calcReceiptsTrie computes the receipts-trie root the same way, keyed by
// RLP(i) over the consensus-encoded receipts (post-byzantium: status bit,
// cumulative gas, bloom, logs).
func calcReceiptsTrie(receipts types.Receipts) common.Hash {
	return types.DeriveSha(receipts, trie.NewStackTrie(nil))
}

// calcLogBloom ORs together every receipt's bloom filter, spec.md §4.2's
// "logs bloom (OR of receipt blooms)".
func calcLogBloom(receipts types.Receipts) types.Bloom {
	return types.CreateBloom(receipts)
}

// calcUncleHash computes the uncle-list hash a header's UncleHash field is
// checked against, spec.md §4.2.
func calcUncleHash(uncles []*types.Header) common.Hash {
	return types.CalcUncleHash(uncles)
}

// NewBlockFromHeaderAndBody assembles a block from a header whose
// TxHash/UncleHash the caller has already computed, and its body, without
// go-ethereum's types.NewBlock re-deriving those roots itself — used by
// CreateBlockTemplate, where the header is filled in incrementally as
// applyBlock runs.
func NewBlockFromHeaderAndBody(header *types.Header, txs []*types.Transaction, uncles []*types.Header) *types.Block {
	return types.NewBlockWithHeader(header).WithBody(txs, uncles)
}
