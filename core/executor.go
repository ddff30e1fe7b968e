// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
)

// ExecutionResult is what applyBlock hands back to its caller (C5): the
// receipts produced, the per-transaction execution summaries reward
// accounting needs, and the total gas the block consumed.
type ExecutionResult struct {
	Receipts  types.Receipts
	Summaries []*ExecutionSummary
	GasUsed   uint64
}

// applyBlock is C3, the executor driver: for each transaction in the
// block, in order, run it through the staged TransactionExecutor lifecycle
// (Init, Execute, Go, Finalization) against its own StartTracking view of
// the repository, folding the result into a receipt exactly the way
// BlockchainImpl.java's applyBlock does — including the EIP-658 branch
// between a status bit and a post-transaction state root.
func applyBlock(track Repository, block *Block, factory TransactionExecutorFactory, cfg BlockchainConfig) (*ExecutionResult, error) {
	if err := cfg.HardForkTransfers(block, track); err != nil {
		return nil, fmt.Errorf("hard fork transfer: %w", err)
	}

	receipts := make(types.Receipts, 0, len(block.Transactions()))
	summaries := make([]*ExecutionSummary, 0, len(block.Transactions()))
	var cumulativeGasUsed uint64

	for i, tx := range block.Transactions() {
		txTrack := track.StartTracking()

		executor := factory.NewExecutor(tx, block.Coinbase(), txTrack, block, cumulativeGasUsed)

		receipt, summary, err := runExecutor(executor, tx, cfg)
		if err != nil {
			if rbErr := txTrack.Rollback(); rbErr != nil {
				log.Warn("applyBlock: rollback after executor failure also failed", "tx", tx.Hash(), "err", rbErr)
			}
			return nil, fmt.Errorf("tx %d (%s): %w", i, tx.Hash(), err)
		}

		if err := txTrack.Commit(); err != nil {
			return nil, fmt.Errorf("tx %d (%s): commit: %w", i, tx.Hash(), err)
		}

		cumulativeGasUsed += receipt.GasUsed
		receipt.CumulativeGasUsed = cumulativeGasUsed
		receipt.TxHash = tx.Hash()
		receipt.Bloom = types.CreateBloom(types.Receipts{receipt})

		if !cfg.EIP658() {
			receipt.PostState = track.GetRoot().Bytes()
		}

		receipts = append(receipts, receipt)
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}

	return &ExecutionResult{Receipts: receipts, Summaries: summaries, GasUsed: cumulativeGasUsed}, nil
}

// runExecutor drives one TransactionExecutor through its four stages,
// stopping at the first failing stage (spec.md §4.3's init/execute/go/
// finalization lifecycle).
func runExecutor(executor TransactionExecutor, tx *Transaction, cfg BlockchainConfig) (*Receipt, *ExecutionSummary, error) {
	if err := executor.Init(); err != nil {
		return nil, nil, fmt.Errorf("%w: init: %v", ErrExecutorFailed, err)
	}
	if err := executor.Execute(); err != nil {
		return nil, nil, fmt.Errorf("%w: execute: %v", ErrExecutorFailed, err)
	}
	if err := executor.Go(); err != nil {
		return nil, nil, fmt.Errorf("%w: go: %v", ErrExecutorFailed, err)
	}
	summary, err := executor.Finalization()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: finalization: %v", ErrExecutorFailed, err)
	}

	receipt := executor.GetReceipt()
	if receipt == nil {
		receipt = &types.Receipt{}
	}
	receipt.GasUsed = executor.GasUsed()
	if cfg.EIP658() {
		if executor.Successful() {
			receipt.Status = types.ReceiptStatusSuccessful
		} else {
			receipt.Status = types.ReceiptStatusFailed
		}
	}
	return receipt, summary, nil
}
