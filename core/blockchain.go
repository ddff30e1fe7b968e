// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Blockchain is C5: the single writer that decides whether a candidate
// block extends, forks, or is rejected from the canonical chain, and owns
// the mutex serializing every import (spec.md §5). It is grounded on
// BlockchainImpl.java's tryToConnect/add/addImpl/tryConnectAndFork, and on
// the single chainmu-guarded writer path in
// other_examples/ava-labs-coreth__blockchain.go's InsertChain/insertBlock.
type Blockchain struct {
	mu sync.Mutex

	blockStore BlockStore
	txStore    TransactionStore
	repository Repository
	validator  *Validator
	configs    ConfigProvider
	factory    TransactionExecutorFactory
	listener   EthereumListener
	flush      DbFlushManager
	prune      PruneManager
	recorder   BlockRecorder
	stack      *stateStack
	metrics    *metrics

	diagnosticRetry bool

	exitOnBlockNumber   *uint64
	exitOnBlockConflict bool
	shutdown            func(reason string)
}

// BlockchainDeps bundles Blockchain's collaborators (spec.md §6);
// BlockStore, TransactionStore, Repository, Validator, Configs and Factory
// are required, while Listener, Flush, Prune, Recorder and Metrics may be
// nil.
type BlockchainDeps struct {
	BlockStore      BlockStore
	TransactionStore TransactionStore
	Repository      Repository
	Validator       *Validator
	Configs         ConfigProvider
	Factory         TransactionExecutorFactory
	Listener        EthereumListener
	Flush           DbFlushManager
	Prune           PruneManager
	Recorder        BlockRecorder
	Metrics         *metrics
	DiagnosticRetry bool
}

// NewBlockchain builds a Blockchain over its collaborators. deps.Repository
// must already be rooted at the genesis block's post-state.
func NewBlockchain(deps BlockchainDeps) *Blockchain {
	return &Blockchain{
		blockStore: deps.BlockStore,
		txStore:    deps.TransactionStore,
		repository: deps.Repository,
		validator:  deps.Validator,
		configs:    deps.Configs,
		factory:    deps.Factory,
		listener:   deps.Listener,
		flush:      deps.Flush,
		prune:      deps.Prune,
		recorder:   deps.Recorder,
		stack:      newStateStack(),
		metrics:    deps.Metrics,

		diagnosticRetry: deps.DiagnosticRetry,
	}
}

// SetExitOn installs a block-number watermark: once a block at exactly
// that number commits, Blockchain forces a synchronous flush and invokes
// shutdown, redesigned from BlockchainImpl.java's exitOn/setExitOn to call
// an injected callback rather than os.Exit directly (SPEC_FULL.md §D.5).
func (bc *Blockchain) SetExitOn(blockNumber uint64, shutdown func(reason string)) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	n := blockNumber
	bc.exitOnBlockNumber = &n
	bc.shutdown = shutdown
}

// SetExitOnBlockConflict enables escalation to shutdown when a candidate
// block's post-execution state root disagrees with the root its header
// claims — a conflict serious enough that continuing to import against a
// possibly-corrupt world state is worse than stopping, redesigned from
// BlockchainImpl.java's exitOn conflict path to call an injected callback
// rather than os.Exit directly (SPEC_FULL.md §D.5). Never triggered by
// ordinary validation failures (bad nonce, bad trie root, ...), only by a
// state-root mismatch surviving execution.
func (bc *Blockchain) SetExitOnBlockConflict(shutdown func(reason string)) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.exitOnBlockConflict = true
	bc.shutdown = shutdown
}

// TryToConnect is the sole entry point for importing one candidate block
// (spec.md §4.5, §7). It acquires the single writer lock for its entire
// duration.
func (bc *Blockchain) TryToConnect(block *Block) (ImportResult, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	start := time.Now()
	result, err := bc.tryToConnect(block)
	if bc.metrics != nil {
		bc.metrics.recordImport(result, time.Since(start).Seconds())
	}
	return result, err
}

func (bc *Blockchain) tryToConnect(block *Block) (ImportResult, error) {
	if bc.blockStore.IsBlockExist(block.Hash()) {
		return ImportExist, nil
	}

	parent := bc.blockStore.GetBlockByHash(block.ParentHash())
	if parent == nil {
		return NoParent, nil
	}

	best := bc.blockStore.GetBestBlock()
	if best == nil {
		return ImportInvalidBlock, ErrNoGenesis
	}

	if block.ParentHash() == best.Hash() {
		return bc.addWithRetry(block)
	}
	return bc.tryConnectAndFork(block)
}

// addWithRetry wraps addImpl with BlockchainImpl.java's retry-on-null
// heuristic: a nil summary with no error is treated as a possibly
// transient validation race and retried once after a short sleep. Whether
// a retried success is accepted or treated as a hard error is gated by
// diagnosticRetry (SPEC_FULL.md §E, spec.md §9 open question 2).
func (bc *Blockchain) addWithRetry(block *Block) (ImportResult, error) {
	summary, err := bc.addImpl(block)
	if err != nil {
		return ImportInvalidBlock, err
	}
	retried := false
	if summary == nil {
		retried = true
		time.Sleep(50 * time.Millisecond)
		summary, err = bc.addImpl(block)
		if err != nil {
			return ImportInvalidBlock, err
		}
	}
	if summary == nil {
		return ImportInvalidBlock, nil
	}
	if retried {
		if !bc.diagnosticRetry {
			log.Error("import succeeded only on retry, rejecting", "hash", block.Hash())
			return ImportInvalidBlock, ErrDiagnosticRetry
		}
		log.Warn("import succeeded only on retry", "hash", block.Hash())
	}

	parentTD := bc.blockStore.GetTotalDifficultyForHash(block.ParentHash())
	totalDifficulty := new(big.Int).Add(parentTD, block.Difficulty())
	summary.TotalDifficulty = totalDifficulty

	bc.storeBlock(block, summary, totalDifficulty, true)
	return ImportedBest, nil
}

// tryConnectAndFork attempts a block that does not extend the current
// canonical tip: it is executed against its own parent's already-known
// post-state (every stored block's header carries its state root, so no
// replay is needed), and the result either overtakes the current best by
// total difficulty — triggering ReBranch — or is stored as a non-canonical
// side branch. Grounded on BlockchainImpl.java's tryConnectAndFork and the
// State push/pop stack of spec.md §4.1.
func (bc *Blockchain) tryConnectAndFork(block *Block) (ImportResult, error) {
	best := bc.blockStore.GetBestBlock()
	bestTD := bc.blockStore.GetTotalDifficultyForHash(best.Hash())

	txn := beginImportTransaction(bc.stack, best.Root(), best, bestTD)

	summary, err := bc.addImpl(block)
	if err != nil {
		txn.abort()
		return ImportInvalidBlock, err
	}
	if summary == nil {
		txn.abort()
		return ImportInvalidBlock, nil
	}

	parentTD := bc.blockStore.GetTotalDifficultyForHash(block.ParentHash())
	totalDifficulty := new(big.Int).Add(parentTD, block.Difficulty())
	summary.TotalDifficulty = totalDifficulty

	if summary.BetterThan(bestTD) {
		txn.commit()
		if err := bc.blockStore.ReBranch(block); err != nil {
			return ImportInvalidBlock, fmt.Errorf("rebranch: %w", err)
		}
		if bc.metrics != nil {
			bc.metrics.recordRebranch(depthBetween(best.NumberU64(), block.NumberU64()))
		}
		bc.storeBlock(block, summary, totalDifficulty, true)
		return ImportedBest, nil
	}

	txn.abort()
	bc.storeBlock(block, summary, totalDifficulty, false)
	return ImportedNotBest, nil
}

func depthBetween(oldNum, newNum uint64) int {
	if newNum > oldNum {
		return int(newNum - oldNum)
	}
	return int(oldNum - newNum)
}

// addImpl runs validation and execution for block against its parent's
// post-state, returning nil (no error) if the block failed validation or
// post-execution state checks — mirroring BlockchainImpl.java's addImpl,
// which returns a null BlockSummary rather than throwing on an invalid
// block. It does not touch BlockStore/TransactionStore/listener: that is
// storeBlock's job, run only once the caller has decided fork-choice.
func (bc *Blockchain) addImpl(block *Block) (*BlockSummary, error) {
	parent := bc.blockStore.GetBlockByHash(block.ParentHash())
	if parent == nil {
		return nil, nil
	}

	base := bc.repository.GetSnapshotTo(parent.Root())
	track := base.StartTracking()

	if !bc.validator.IsValid(track, block) {
		_ = track.Rollback()
		return nil, nil
	}

	cfg := bc.configs.ConfigForBlock(block.NumberU64())
	if cfg == nil {
		_ = track.Rollback()
		return nil, ErrConfigForBlock
	}

	execResult, err := applyBlock(track, block, bc.factory, cfg)
	if err != nil {
		_ = track.Rollback()
		return nil, err
	}

	totalFees := sumFees(execResult.Summaries)
	rewards, err := addReward(track, block, totalFees, cfg)
	if err != nil {
		_ = track.Rollback()
		return nil, err
	}

	postRoot := track.GetRoot()
	if postRoot != block.Header().Root {
		_ = track.Rollback()
		if bc.exitOnBlockConflict {
			if bc.flush != nil {
				bc.flush.FlushSync()
			}
			if bc.shutdown != nil {
				bc.shutdown(fmt.Sprintf("state root conflict at block %d: have %s want %s", block.NumberU64(), postRoot, block.Header().Root))
			}
		}
		return nil, nil
	}
	if !ValidateState(block.Header(), execResult.Receipts, execResult.GasUsed, postRoot) {
		_ = track.Rollback()
		return nil, nil
	}

	// track is a StartTracking() view sharing base's underlying StateDB; its
	// mutations already live there. Only base, the root handle GetSnapshotTo
	// opened at the parent's state, can actually flush them to the trie
	// database — a tracking handle's Commit is a no-op (repository/memrepo.go).
	if err := base.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	summary := NewBlockSummary(block)
	summary.Rewards = rewards
	summary.Receipts = execResult.Receipts
	summary.Summaries = execResult.Summaries
	return summary, nil
}

// storeBlock persists the executed block, its transaction index entries
// and its block-dump record, notifies the listener, schedules the flush
// and prune hooks, and services the exitOn watermark. It runs only after
// fork-choice has already been decided (spec.md §4.5).
func (bc *Blockchain) storeBlock(block *Block, summary *BlockSummary, totalDifficulty *big.Int, isBest bool) {
	bc.blockStore.SaveBlock(block, totalDifficulty, isBest)

	for i, tx := range block.Transactions() {
		var receipt *Receipt
		if i < len(summary.Receipts) {
			receipt = summary.Receipts[i]
		}
		bc.txStore.Put(&TransactionInfo{
			Receipt:     receipt,
			BlockHash:   block.Hash(),
			Index:       i,
			Transaction: tx,
		})
	}

	if bc.recorder != nil {
		bc.recorder.RecordBlock(block, block.NumberU64() == 0)
	}

	// Retarget the repository to the newly-imported best block's state root
	// (spec.md §4.5) so the next addImpl's GetSnapshotTo(parent.Root()) reads
	// back what this one just committed, and so invariant §8.1
	// (repository.getRoot() == bestBlock.stateRoot) holds once storeBlock
	// returns.
	if isBest {
		bc.repository = bc.repository.GetSnapshotTo(block.Root())
	}

	if bc.flush != nil {
		repo := bc.repository
		bc.flush.Commit(func() {
			if err := repo.Commit(); err != nil {
				log.Error("repository commit failed", "block", block.NumberU64(), "err", err)
			}
		})
	}
	if bc.prune != nil {
		bc.prune.BlockCommitted(block.Header())
	}
	if bc.listener != nil {
		bc.listener.OnBlock(summary, isBest)
	}
	if bc.metrics != nil {
		bc.metrics.recordBest(block.NumberU64(), totalDifficulty.BitLen())
	}

	if bc.exitOnBlockNumber != nil && block.NumberU64() == *bc.exitOnBlockNumber {
		if bc.flush != nil {
			bc.flush.FlushSync()
		}
		if bc.shutdown != nil {
			bc.shutdown(fmt.Sprintf("reached exit block number %d", *bc.exitOnBlockNumber))
		}
	}
}

func sumFees(summaries []*ExecutionSummary) *big.Int {
	total := new(big.Int)
	for _, s := range summaries {
		if s != nil && s.Fee != nil {
			total.Add(total, s.Fee)
		}
	}
	return total
}

// CreateBlockTemplate is Supplemented Feature D.1: build a child block
// template over parent with the given transactions/uncles, running it
// through applyBlock to fill in the post-execution header fields
// (stateRoot, receiptsRoot, logsBloom, gasUsed). Proof-of-work fields
// (difficulty, mixDigest, nonce) are left for an external miner to fill in
// (spec.md Non-goals), grounded on BlockchainImpl.java's createNewBlock.
func (bc *Blockchain) CreateBlockTemplate(parent *Header, coinbase common.Address, txs []*Transaction, uncles []*Header, extraData []byte, timestamp uint64) (*Header, *ExecutionResult, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	number := new(big.Int).Add(parent.Number, big.NewInt(1))
	cfg := bc.configs.ConfigForBlock(number.Uint64())
	if cfg == nil {
		return nil, nil, ErrConfigForBlock
	}

	header := &Header{
		ParentHash: parent.Hash(),
		UncleHash:  calcUncleHash(uncles),
		Coinbase:   coinbase,
		Number:     number,
		GasLimit:   parent.GasLimit,
		Time:       timestamp,
		Extra:      cfg.ExtraData(extraData, number.Uint64()),
		TxHash:     calcTxTrie(txs),
	}

	base := bc.repository.GetSnapshotTo(parent.Root)
	track := base.StartTracking()

	block := NewBlockFromHeaderAndBody(header, txs, uncles)

	execResult, err := applyBlock(track, block, bc.factory, cfg)
	if err != nil {
		_ = track.Rollback()
		return nil, nil, err
	}

	if _, err := addReward(track, block, sumFees(execResult.Summaries), cfg); err != nil {
		_ = track.Rollback()
		return nil, nil, err
	}

	header.Root = track.GetRoot()
	header.ReceiptHash = calcReceiptsTrie(execResult.Receipts)
	header.Bloom = calcLogBloom(execResult.Receipts)
	header.GasUsed = execResult.GasUsed

	_ = track.Rollback()

	return header, execResult, nil
}

// GetTransactionInfo is Supplemented Feature D.2: resolve a transaction
// hash to its (receipt, block, index) location, disambiguating among
// multiple TransactionInfo records for the same hash (a transaction can be
// included by more than one block across competing forks before one
// branch wins) by preferring the record whose block is on the canonical
// chain at its height. Grounded on BlockchainImpl.java's getTransactionInfo.
func (bc *Blockchain) GetTransactionInfo(hash common.Hash) *TransactionInfo {
	infos := bc.txStore.Get(hash)
	if len(infos) == 0 {
		return nil
	}
	for _, info := range infos {
		block := bc.blockStore.GetBlockByHash(info.BlockHash)
		if block == nil {
			continue
		}
		canonical := bc.blockStore.GetChainBlockByNumber(block.NumberU64())
		if canonical != nil && canonical.Hash() == info.BlockHash {
			return info
		}
	}
	return infos[0]
}

// GetListOfHashesStartFromBlock is Supplemented Feature D.3: an ascending
// hash range query by starting block number, distinct from the
// descending-from-hash query spec.md §4.6 names. Grounded on
// BlockchainImpl.java's getListOfHashesStartFromBlock.
func (bc *Blockchain) GetListOfHashesStartFromBlock(blockNumber uint64, qty int) []common.Hash {
	best := bc.blockStore.GetBestBlock()
	if best == nil {
		return nil
	}
	bestNumber := best.NumberU64()
	if blockNumber > bestNumber {
		return nil
	}
	if uint64(qty) > bestNumber-blockNumber+1 {
		qty = int(bestNumber-blockNumber) + 1
	}
	hashes := make([]common.Hash, 0, qty)
	for i := 0; i < qty; i++ {
		block := bc.blockStore.GetChainBlockByNumber(blockNumber + uint64(i))
		if block == nil {
			break
		}
		hashes = append(hashes, block.Hash())
	}
	return hashes
}

// RecomputeTotalDifficulties is Supplemented Feature D.4: a recovery pass
// that recomputes total difficulty across [from, to] and re-branches if a
// stored-but-not-adopted block at the range's tail turns out to carry
// higher total difficulty than the current best, used after a partial
// index rebuild. Grounded on BlockchainImpl.java's updateBlockTotDifficulties.
func (bc *Blockchain) RecomputeTotalDifficulties(from, to uint64) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if from == 0 {
		from = 1
	}
	parent := bc.blockStore.GetChainBlockByNumber(from - 1)
	if parent == nil {
		return ErrNoGenesis
	}
	runningTD := bc.blockStore.GetTotalDifficultyForHash(parent.Hash())

	var lastBlock *Block
	for n := from; n <= to; n++ {
		for _, block := range bc.blockStore.GetBlocksByNumber(n) {
			parentTD := bc.blockStore.GetTotalDifficultyForHash(block.ParentHash())
			td := new(big.Int).Add(parentTD, block.Difficulty())
			bc.blockStore.SaveBlock(block, td, block.Hash() == mustCanonicalHash(bc.blockStore, n))
			if n == to && (lastBlock == nil || td.Cmp(runningTD) > 0) {
				runningTD = td
				lastBlock = block
			}
		}
	}

	if lastBlock == nil {
		return nil
	}
	best := bc.blockStore.GetBestBlock()
	bestTD := bc.blockStore.GetTotalDifficultyForHash(best.Hash())
	if runningTD.Cmp(bestTD) > 0 {
		return bc.blockStore.ReBranch(lastBlock)
	}
	return nil
}

func mustCanonicalHash(bs BlockStore, number uint64) common.Hash {
	if b := bs.GetChainBlockByNumber(number); b != nil {
		return b.Hash()
	}
	return common.Hash{}
}
