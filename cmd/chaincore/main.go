// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Command chaincore wires the block-import core's collaborators together
// and reports readiness; it is dependency-injection glue, not business
// logic (SPEC_FULL.md §F names the CLI/RPC surface an external concern).
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	glog "github.com/ethereum/go-ethereum/log"

	"github.com/ethermind/chaincore/config"
	"github.com/ethermind/chaincore/consensus"
	"github.com/ethermind/chaincore/core"
	"github.com/ethermind/chaincore/executor"
	"github.com/ethermind/chaincore/flush"
	"github.com/ethermind/chaincore/listener"
	applog "github.com/ethermind/chaincore/log"
	"github.com/ethermind/chaincore/prune"
	"github.com/ethermind/chaincore/recorder"
	"github.com/ethermind/chaincore/repository"
	"github.com/ethermind/chaincore/store"
)

func main() {
	glog.Root().SetHandler(glog.StreamHandler(os.Stderr, applog.TermFormat("chaincore")))

	node := config.MustLoadFromOSArgs()

	stateDB := repository.NewMemoryStateDatabase()
	rootRepo, err := repository.NewRootRepository(stateDB, common.Hash{})
	if err != nil {
		glog.Crit("open genesis state", "err", err)
	}

	var blockStore core.BlockStore
	if node.DataDir != "" {
		disk, err := store.OpenDiskBlockStore(node.DataDir)
		if err != nil {
			glog.Crit("open disk block store", "err", err)
		}
		defer disk.Close()
		blockStore = disk
	} else {
		blockStore = store.NewBlockStore()
	}
	txStore := store.NewTransactionStore()

	forks := map[uint64]*core.ForkConfig{
		0: core.NewForkConfig(node.BlockReward, node.EIP658Block == 0, node.UncleListLimit, node.UncleGenerationLimit),
	}
	if node.EIP658Block > 0 {
		forks[node.EIP658Block] = core.NewForkConfig(node.BlockReward, true, node.UncleListLimit, node.UncleGenerationLimit)
	}
	schedule := core.NewForkSchedule(forks)
	schedule.DiagnosticRetryEnabled = node.DiagnosticRetry

	parentValidator := consensus.NewSimpleParentValidator()
	validator := core.NewValidator(blockStore, parentValidator, schedule)

	var rec core.BlockRecorder
	if node.RecordBlocks {
		r, err := recorder.Open(node.RecordBlocksPath)
		if err != nil {
			glog.Crit("open block record file", "err", err)
		}
		rec = r
	}

	flushMgr := flush.NewManager(node.FlushQueueSize)
	pruneMgr := prune.NewManager(stateDB)
	// No core.PendingPool is wired here: the pending-transaction pool is an
	// external collaborator (spec.md §1) this binary doesn't own. A caller
	// embedding chaincore alongside a real pool passes it here instead of nil.
	dispatcher := listener.NewDispatcher(&listenerLoggingAdapter{}, nil, node.ListenerQueueSize)
	defer dispatcher.Close()

	metrics := core.NewMetrics(nil)

	bc := core.NewBlockchain(core.BlockchainDeps{
		BlockStore:       blockStore,
		TransactionStore: txStore,
		Repository:       rootRepo,
		Validator:        validator,
		Configs:          schedule,
		Factory:          executor.NewFactory(),
		Listener:         dispatcher,
		Flush:            flushMgr,
		Prune:            pruneMgr,
		Recorder:         rec,
		Metrics:          metrics,
		DiagnosticRetry:  node.DiagnosticRetry,
	})

	if node.ExitOnBlockNumber != nil {
		bc.SetExitOn(*node.ExitOnBlockNumber, func(reason string) {
			glog.Info("shutting down", "reason", reason)
			flushMgr.Close()
			os.Exit(0)
		})
	}
	if node.ExitOnBlockConflict {
		bc.SetExitOnBlockConflict(func(reason string) {
			glog.Error("shutting down on state root conflict", "reason", reason)
			flushMgr.Close()
			os.Exit(1)
		})
	}

	fmt.Println("chaincore: block-import core initialized, awaiting a genesis block and candidate imports via core.Blockchain.TryToConnect")
	_ = bc
}

// listenerLoggingAdapter is the downstream core.EthereumListener the
// dispatcher delivers to; a real deployment would instead bridge to a
// pending-pool or RPC subscription (SPEC_FULL.md §F).
type listenerLoggingAdapter struct{}

func (l *listenerLoggingAdapter) OnBlock(summary *core.BlockSummary, isBest bool) {
	glog.Info("block imported", "number", summary.Block.NumberU64(), "hash", summary.Block.Hash(), "isBest", isBest)
}

func (l *listenerLoggingAdapter) Trace(msg string) {
	glog.Debug(msg)
}

var _ core.EthereumListener = (*listenerLoggingAdapter)(nil)
