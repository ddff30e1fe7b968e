// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package executor supplies a minimal core.TransactionExecutor: a plain
// value transfer plus flat intrinsic-gas fee, standing in for the EVM
// interpreter spec.md §1 names an out-of-scope external collaborator.
// Gas/value arithmetic uses holiman/uint256, the same library
// graft/coreth's own EVM uses for balance and gas accounting.
package executor

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/ethermind/chaincore/core"
)

// SimpleExecutor implements core.TransactionExecutor's four-stage
// lifecycle over a track (per-transaction StartTracking view): Init
// recovers the sender, Execute debits sender and credits recipient plus
// the block's coinbase, Go is a no-op extension point, Finalization
// reports what happened for reward accounting.
type SimpleExecutor struct {
	tx       *types.Transaction
	coinbase common.Address
	track    core.Repository
	block    *core.Block

	sender     common.Address
	fee        *big.Int
	gasUsed    uint64
	receipt    *types.Receipt
	successful bool
}

// NewSimpleExecutor builds a SimpleExecutor for one transaction.
func NewSimpleExecutor(tx *types.Transaction, coinbase common.Address, track core.Repository, block *core.Block) *SimpleExecutor {
	return &SimpleExecutor{tx: tx, coinbase: coinbase, track: track, block: block}
}

func (e *SimpleExecutor) Init() error {
	signer := types.LatestSignerForChainID(e.block.Number())
	sender, err := types.Sender(signer, e.tx)
	if err != nil {
		return err
	}
	e.sender = sender
	return nil
}

// Execute performs the state transition: sender pays value + gas fee,
// recipient receives value, coinbase receives the gas fee. Contract
// creation and calldata execution are out of scope (spec.md §1); a
// transaction with no recipient is treated as a no-op transfer of value
// to nobody, its fee still collected.
//
// A sender that cannot cover value+fee does not abort the block: the
// transaction is included with no balance changes applied and its receipt
// marked unsuccessful (Successful), mirroring an EVM revert that still
// consumes the block slot without mutating state.
func (e *SimpleExecutor) Execute() error {
	e.gasUsed = params.TxGas

	gasPrice, overflow := uint256.FromBig(e.tx.GasPrice())
	if overflow {
		return errors.New("executor: gas price overflow")
	}
	fee := new(uint256.Int).Mul(gasPrice, uint256.NewInt(e.gasUsed))
	e.fee = fee.ToBig()

	value := e.tx.Value()
	debit := new(big.Int).Add(value, e.fee)

	if e.track.GetBalance(e.sender).Cmp(debit) < 0 {
		e.successful = false
		return nil
	}

	if err := e.track.AddBalance(e.sender, new(big.Int).Neg(debit)); err != nil {
		return err
	}
	if to := e.tx.To(); to != nil {
		if err := e.track.AddBalance(*to, value); err != nil {
			return err
		}
	}
	if err := e.track.AddBalance(e.coinbase, e.fee); err != nil {
		return err
	}
	e.successful = true
	return nil
}

// Go is the post-transfer extension point (log emission, contract calls);
// the value-transfer stand-in has nothing further to do here.
func (e *SimpleExecutor) Go() error {
	return nil
}

func (e *SimpleExecutor) Finalization() (*core.ExecutionSummary, error) {
	e.receipt = &types.Receipt{
		Type: e.tx.Type(),
		Logs: []*types.Log{},
	}
	fee := e.fee
	if !e.successful {
		// No balance changes were applied, so there is nothing to record
		// for the reward accounting pass: the coinbase never received this
		// fee.
		fee = new(big.Int)
	}
	return &core.ExecutionSummary{From: e.sender, Fee: fee}, nil
}

func (e *SimpleExecutor) GasUsed() uint64 {
	return e.gasUsed
}

func (e *SimpleExecutor) GetReceipt() *types.Receipt {
	return e.receipt
}

func (e *SimpleExecutor) Successful() bool {
	return e.successful
}

// Factory is the core.TransactionExecutorFactory building SimpleExecutors.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) NewExecutor(tx *types.Transaction, coinbase common.Address, track core.Repository, block *core.Block, totalGasUsedSoFar uint64) core.TransactionExecutor {
	return NewSimpleExecutor(tx, coinbase, track, block)
}

var (
	_ core.TransactionExecutor        = (*SimpleExecutor)(nil)
	_ core.TransactionExecutorFactory = (*Factory)(nil)
)
