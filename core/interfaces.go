// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Repository is the world-state collaborator the core drives but does not
// implement: a persistent, snapshot-able Merkle-Patricia-Trie view over
// accounts, balances, storage and code. spec.md §1 names the trie/KV
// implementation behind it an external collaborator; this interface is the
// boundary. repository/memrepo.go supplies the reference implementation
// used by this repo's own tests, built over go-ethereum's state.StateDB.
type Repository interface {
	// GetRoot returns the current state root.
	GetRoot() common.Hash
	// GetSnapshotTo returns a Repository handle rooted at root, isolated
	// from the caller's mutations until Commit.
	GetSnapshotTo(root common.Hash) Repository
	// StartTracking returns a nested, speculative view of this Repository;
	// its mutations are visible to callers holding it but are only
	// folded back on Commit, and discarded entirely on Rollback.
	StartTracking() Repository
	// Commit folds this handle's mutations into its parent (or disk, for
	// the root handle).
	Commit() error
	// Rollback discards this handle's mutations.
	Rollback() error
	// GetNonce returns the next expected nonce for addr.
	GetNonce(addr common.Address) *big.Int
	// GetBalance returns addr's current balance.
	GetBalance(addr common.Address) *big.Int
	// AddBalance credits addr by delta; a negative delta debits (the core
	// debits this way for hard-fork transfers).
	AddBalance(addr common.Address, delta *big.Int) error
}

// BlockStore is the persistent block-index collaborator: hash/number
// lookups, total-difficulty ledger, and the rebranch operation that flips
// the main-chain flag from one branch to another. spec.md §6.
type BlockStore interface {
	IsBlockExist(hash common.Hash) bool
	GetBlockByHash(hash common.Hash) *Block
	GetChainBlockByNumber(number uint64) *Block
	GetBlocksByNumber(number uint64) []*Block
	GetBestBlock() *Block
	GetMaxNumber() uint64
	GetTotalDifficultyForHash(hash common.Hash) *big.Int
	SaveBlock(block *Block, totalDifficulty *big.Int, onMainChain bool)
	// ReBranch flips the "on main chain" designation from the current
	// main branch to the branch ending at block, up to their lowest
	// common ancestor.
	ReBranch(block *Block) error
	GetListHashesEndWith(hash common.Hash, qty int) []common.Hash
}

// TransactionStore is the persistent transaction-index collaborator:
// tx-hash to (block, receipt) lookups. spec.md §6.
type TransactionStore interface {
	Put(info *TransactionInfo)
	Get(hash common.Hash) []*TransactionInfo
}

// TransactionExecutor is the staged lifecycle the external EVM invokes a
// transaction through: Init, Execute, Go, Finalization, in that order
// (spec.md §4.3). The EVM interpreter itself is out of scope (spec.md §1);
// executor/simpleexecutor.go supplies a minimal value-transfer stand-in
// used by this repo's own tests.
type TransactionExecutor interface {
	Init() error
	Execute() error
	Go() error
	// Finalization returns the execution summary (fee, sender), or nil if
	// the transaction produced none worth reporting.
	Finalization() (*ExecutionSummary, error)
	GasUsed() uint64
	GetReceipt() *Receipt
	// Successful reports the transaction's own outcome, independent of the
	// Init/Execute/Go/Finalization stages returning without error: a stage
	// can complete cleanly and still leave the transaction itself failed
	// (spec.md §4.3(e), receipt.isSuccessful()), e.g. a sender that cannot
	// cover value+fee.
	Successful() bool
}

// TransactionExecutorFactory constructs a TransactionExecutor for one
// transaction within one block, given the running total gas used so far in
// the block (needed for the cumulative-gas field of the receipt).
type TransactionExecutorFactory interface {
	NewExecutor(tx *Transaction, coinbase common.Address, track Repository, block *Block, totalGasUsedSoFar uint64) TransactionExecutor
}

// EthereumListener is notified of accepted blocks and free-form trace
// messages. spec.md §6; delivery semantics are in spec.md §5 and
// listener/dispatcher.go.
type EthereumListener interface {
	OnBlock(summary *BlockSummary, isBest bool)
	Trace(msg string)
}

// PendingPool is the subset of the pending-transaction pool the core talks
// to: once a block becomes the new best block, ProcessBest is scheduled on
// the event-dispatch executor (spec.md §4.5). The rest of the pending
// pool's behaviour is out of scope (spec.md §1).
type PendingPool interface {
	ProcessBest(block *Block, receipts Receipts)
}

// DbFlushManager batches the post-commit disk writes (block/receipt
// storage plus the repository's own commit) into one flush unit, per
// spec.md §5 ("the core does not observe partial flush states").
type DbFlushManager interface {
	// Commit enqueues task to run as part of the next flush.
	Commit(task func())
	// FlushSync forces a synchronous flush of anything queued, used by
	// the exitOn shutdown path (spec.md §5).
	FlushSync()
}

// PruneManager is notified of committed blocks so it can reclaim
// superseded trie nodes. BlockCommitted is called synchronously from
// storeBlock. spec.md §6.
type PruneManager interface {
	BlockCommitted(header *Header)
}

// ParentHeaderValidator checks a header against its parent under the
// active consensus rules (difficulty progression, timestamp ordering,
// gas-limit bounds, extra-data policy, ...). spec.md §4.2 step 2. This is
// the "ParentBlockHeaderValidator" named in spec.md §2.
type ParentHeaderValidator interface {
	Validate(header, parent *Header) bool
}

// BlockchainConfig supplies the per-fork constants and behaviour spec.md
// §2/§6 name: block-reward schedule, the EIP-658 receipt-encoding switch,
// scheduled hard-fork state transfers, uncle limits, and extra-data
// policy. ConfigProvider resolves the BlockchainConfig active for a given
// block number, mirroring ethereumj's getConfigForBlock.
type BlockchainConfig interface {
	// BlockReward is the base miner reward for a block under this fork.
	BlockReward() *big.Int
	// EIP658 reports whether receipts encode a status bit instead of a
	// post-transaction state root.
	EIP658() bool
	// HardForkTransfers applies any scheduled state transfers (e.g. a
	// DAO-style balance migration) that fire at this fork's activation,
	// exactly once per block via the executor driver (spec.md §4.3 step 1).
	HardForkTransfers(block *Block, track Repository) error
	// ExtraData returns the miner extra-data policy-compliant payload for
	// a block at the given number, used by block-template construction.
	ExtraData(minerExtraData []byte, blockNumber uint64) []byte
	// UncleListLimit and UncleGenerationLimit are the per-fork uncle
	// validation tunables (spec.md §6).
	UncleListLimit() int
	UncleGenerationLimit() uint64
}

// ConfigProvider resolves the BlockchainConfig active at a given block
// number. Configuration loading itself — where the fork schedule comes
// from — is an external collaborator (spec.md §1); config/config.go
// supplies this repo's concrete loader.
type ConfigProvider interface {
	ConfigForBlock(blockNumber uint64) BlockchainConfig
}

// BlockRecorder is the optional append-only hex dump of imported block
// encodings (spec.md §6 "recordBlocks"). It is an external collaborator;
// recorder/recorder.go supplies the concrete implementation.
type BlockRecorder interface {
	RecordBlock(block *Block, isGenesis bool)
}
