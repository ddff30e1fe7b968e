// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// Validator is C2: block-shape validation (parent linkage, transaction
// trie, uncle set) and post-execution state validation, grounded on
// graft/coreth/core/block_validator.go's BlockValidator.ValidateBody /
// ValidateState, generalized to the sender/nonce and uncle-ancestry checks
// spec.md §4.2 and BlockchainImpl.java's isValid/validateUncles specify.
type Validator struct {
	blockStore BlockStore
	parentVal  ParentHeaderValidator
	configs    ConfigProvider
}

// NewValidator builds a Validator over its collaborators (spec.md §6).
func NewValidator(blockStore BlockStore, parentVal ParentHeaderValidator, configs ConfigProvider) *Validator {
	return &Validator{blockStore: blockStore, parentVal: parentVal, configs: configs}
}

// IsValid runs the full pre-execution validation pass spec.md §4.2
// describes: genesis exception, parent-header rule, per-sender nonce
// ordering within the block, transaction-trie root, and uncle validation.
// track is the repository view rooted at the parent's post-state, used to
// resolve each sender's starting nonce.
func (v *Validator) IsValid(track Repository, block *Block) bool {
	header := block.Header()

	if header.Number.Sign() == 0 {
		// Genesis carries no parent to validate against.
		return true
	}

	parent := v.blockStore.GetBlockByHash(header.ParentHash)
	if parent == nil {
		log.Warn("block validation: parent not found", "hash", block.Hash(), "parentHash", header.ParentHash)
		return false
	}
	if !v.parentVal.Validate(header, parent.Header()) {
		log.Warn("block validation: parent header rule failed", "hash", block.Hash())
		return false
	}

	if !v.validateSenderNonces(track, block) {
		log.Warn("block validation: sender nonce ordering failed", "hash", block.Hash())
		return false
	}

	if calc := calcTxTrie(block.Transactions()); calc != header.TxHash {
		log.Warn("block validation: tx trie root mismatch", "hash", block.Hash(), "have", calc, "want", header.TxHash)
		return false
	}

	if calc := calcUncleHash(block.Uncles()); calc != header.UncleHash {
		log.Warn("block validation: uncle hash mismatch", "hash", block.Hash(), "have", calc, "want", header.UncleHash)
		return false
	}

	if !v.validateUncles(block) {
		log.Warn("block validation: uncle set invalid", "hash", block.Hash())
		return false
	}

	return true
}

// validateSenderNonces walks the block's transactions in order, tracking
// each sender's expected next nonce in a scratch map seeded from track:
// the second transaction from the same sender within one block must use
// nonce+1 of the first, not a fresh lookup against the repository
// (BlockchainImpl.java's isValid curNonce map).
func (v *Validator) validateSenderNonces(track Repository, block *Block) bool {
	seen := make(map[common.Address]*big.Int)
	signer := types.LatestSignerForChainID(block.Header().Number)
	for _, tx := range block.Transactions() {
		sender, err := types.Sender(signer, tx)
		if err != nil {
			log.Warn("block validation: cannot recover sender", "tx", tx.Hash(), "err", err)
			return false
		}
		expected, ok := seen[sender]
		if !ok {
			expected = track.GetNonce(sender)
		}
		if new(big.Int).SetUint64(tx.Nonce()).Cmp(expected) != 0 {
			return false
		}
		seen[sender] = new(big.Int).Add(expected, big.NewInt(1))
	}
	return true
}

// validateUncles is BlockchainImpl.java's validateUncles: a candidate
// block's uncles must (a) not exceed the per-fork list limit, (b) not be
// one of the block's own ancestors, (c) each be an ancestor's direct
// child whose parent's number is no lower than
// block.number-UNCLE_GENERATION_LIMIT, (d) not already have been included
// as an uncle by an earlier block in that window, and (e) each
// individually satisfy the parent-header rule against its own parent.
func (v *Validator) validateUncles(block *Block) bool {
	cfg := v.configs.ConfigForBlock(block.NumberU64())
	if cfg == nil {
		return false
	}
	if len(block.Uncles()) > cfg.UncleListLimit() {
		return false
	}

	generationLimit := cfg.UncleGenerationLimit()
	ancestors := v.getAncestors(block, generationLimit+1)
	usedUncles := v.getUsedUncles(block, generationLimit+1)

	ancestorByHash := make(map[common.Hash]*Block, len(ancestors))
	for _, a := range ancestors {
		ancestorByHash[a.Hash()] = a
	}

	var oldestAllowed uint64
	if block.NumberU64() > generationLimit {
		oldestAllowed = block.NumberU64() - generationLimit
	}

	seenInBlock := make(map[common.Hash]bool, len(block.Uncles()))
	for _, uncle := range block.Uncles() {
		uh := uncle.Hash()
		if seenInBlock[uh] {
			return false
		}
		seenInBlock[uh] = true

		if _, isAncestor := ancestorByHash[uh]; isAncestor {
			// "Uncle is direct ancestor" (BlockchainImpl.java).
			return false
		}

		if usedUncles[uh] {
			return false
		}
		uncleParent, ok := ancestorByHash[uncle.ParentHash]
		if !ok {
			return false
		}
		if uncleParent.NumberU64() < oldestAllowed {
			return false
		}
		if !v.parentVal.Validate(uncle, uncleParent.Header()) {
			return false
		}
	}
	return true
}

// getAncestors walks up to limit generations of direct parents starting
// from block's parent, following the canonical chain via BlockStore.
func (v *Validator) getAncestors(block *Block, limit uint64) []*Block {
	var out []*Block
	cursor := v.blockStore.GetBlockByHash(block.ParentHash())
	for i := uint64(0); i < limit && cursor != nil; i++ {
		out = append(out, cursor)
		if cursor.NumberU64() == 0 {
			break
		}
		cursor = v.blockStore.GetBlockByHash(cursor.ParentHash())
	}
	return out
}

// getUsedUncles collects the uncle hashes already claimed by ancestor
// blocks within the same generation window, so a later block cannot reuse
// an uncle another block already claimed credit for.
func (v *Validator) getUsedUncles(block *Block, limit uint64) map[common.Hash]bool {
	used := make(map[common.Hash]bool)
	cursor := v.blockStore.GetBlockByHash(block.ParentHash())
	for i := uint64(0); i < limit && cursor != nil; i++ {
		for _, u := range cursor.Uncles() {
			used[u.Hash()] = true
		}
		if cursor.NumberU64() == 0 {
			break
		}
		cursor = v.blockStore.GetBlockByHash(cursor.ParentHash())
	}
	return used
}

// ValidateState is the post-execution check spec.md §4.3 runs after
// applyBlock: gas used, logs bloom and receipts-trie root must match the
// header, and the repository's post-state root must match too (grounded
// on BlockValidator.ValidateState).
func ValidateState(header *Header, receipts types.Receipts, gasUsed uint64, postStateRoot common.Hash) bool {
	if header.GasUsed != gasUsed {
		log.Warn("state validation: gas used mismatch", "have", gasUsed, "want", header.GasUsed)
		return false
	}
	if bloom := calcLogBloom(receipts); bloom != header.Bloom {
		log.Warn("state validation: bloom mismatch")
		return false
	}
	if root := calcReceiptsTrie(receipts); root != header.ReceiptHash {
		log.Warn("state validation: receipts root mismatch", "have", root, "want", header.ReceiptHash)
		return false
	}
	if postStateRoot != header.Root {
		log.Warn("state validation: state root mismatch", "have", postStateRoot, "want", header.Root)
		return false
	}
	return true
}
