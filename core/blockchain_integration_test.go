// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethermind/chaincore/consensus"
	"github.com/ethermind/chaincore/core"
	"github.com/ethermind/chaincore/executor"
	"github.com/ethermind/chaincore/repository"
	"github.com/ethermind/chaincore/store"
)

// harness assembles a real Blockchain over the reference in-memory
// collaborators (store.BlockStore/TransactionStore, repository.StateRepository,
// executor.Factory) — the same wiring cmd/chaincore/main.go performs — so
// these tests exercise the actual fork-choice and execution path rather
// than a mocked stand-in.
type harness struct {
	t          *testing.T
	bc         *core.Blockchain
	blockStore *store.BlockStore
	genesis    *types.Block
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	stateDB := repository.NewMemoryStateDatabase()
	rootRepo, err := repository.NewRootRepository(stateDB, common.Hash{})
	require.NoError(t, err)

	genesis := types.NewBlockWithHeader(&types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(1),
		GasLimit:   8_000_000,
		Time:       1000,
		Root:       types.EmptyRootHash,
		TxHash:     types.EmptyRootHash,
		UncleHash:  types.EmptyUncleHash,
		ReceiptHash: types.EmptyRootHash,
	})

	blockStore := store.NewBlockStore()
	blockStore.SaveBlock(genesis, big.NewInt(1), true)

	txStore := store.NewTransactionStore()
	parentValidator := consensus.NewSimpleParentValidator()
	cfg := core.NewForkConfig(big.NewInt(5_000_000_000_000_000_000), true, 2, 6)
	schedule := core.NewForkSchedule(map[uint64]*core.ForkConfig{0: cfg})
	validator := core.NewValidator(blockStore, parentValidator, schedule)

	bc := core.NewBlockchain(core.BlockchainDeps{
		BlockStore:       blockStore,
		TransactionStore: txStore,
		Repository:       rootRepo,
		Validator:        validator,
		Configs:          schedule,
		Factory:          executor.NewFactory(),
	})

	return &harness{t: t, bc: bc, blockStore: blockStore, genesis: genesis}
}

// buildChild uses CreateBlockTemplate to get consensus-correct post-
// execution header fields, then fills in the proof-of-work fields
// CreateBlockTemplate deliberately leaves blank (spec.md Non-goals).
func (h *harness) buildChild(parent *types.Header, coinbase common.Address, difficulty int64, timestamp uint64) *types.Block {
	h.t.Helper()
	header, _, err := h.bc.CreateBlockTemplate(parent, coinbase, nil, nil, nil, timestamp)
	require.NoError(h.t, err)
	header.Difficulty = big.NewInt(difficulty)
	if header.GasLimit == 0 {
		header.GasLimit = parent.GasLimit
	}
	return core.NewBlockFromHeaderAndBody(header, nil, nil)
}

func TestBlockchain_LinearExtensionBecomesBest(t *testing.T) {
	h := newHarness(t)
	miner := common.HexToAddress("0x01")

	block1 := h.buildChild(h.genesis.Header(), miner, 1, h.genesis.Time()+10)
	result, err := h.bc.TryToConnect(block1)
	require.NoError(t, err)
	require.Equal(t, core.ImportedBest, result)
	require.Equal(t, block1.Hash(), h.blockStore.GetBestBlock().Hash())
}

func TestBlockchain_DuplicateImportIsExist(t *testing.T) {
	h := newHarness(t)
	miner := common.HexToAddress("0x01")

	block1 := h.buildChild(h.genesis.Header(), miner, 1, h.genesis.Time()+10)
	_, err := h.bc.TryToConnect(block1)
	require.NoError(t, err)

	result, err := h.bc.TryToConnect(block1)
	require.NoError(t, err)
	require.Equal(t, core.ImportExist, result)
}

func TestBlockchain_UnknownParentIsRejected(t *testing.T) {
	h := newHarness(t)
	miner := common.HexToAddress("0x01")

	orphanParent := &types.Header{Number: big.NewInt(1), ParentHash: common.HexToHash("0xdeadbeef")}
	block := h.buildChild(orphanParent, miner, 1, 5000)
	// buildChild's CreateBlockTemplate looks up state from orphanParent.Root
	// (zero hash), which resolves fine against an empty trie; what makes
	// this block an orphan is that its own ParentHash points nowhere in
	// blockStore.
	result, err := h.bc.TryToConnect(block)
	require.NoError(t, err)
	require.Equal(t, core.NoParent, result)
}

func TestBlockchain_WinningForkTriggersRebranch(t *testing.T) {
	h := newHarness(t)
	minerA := common.HexToAddress("0x0A")
	minerB := common.HexToAddress("0x0B")

	blockA := h.buildChild(h.genesis.Header(), minerA, 1, h.genesis.Time()+10)
	result, err := h.bc.TryToConnect(blockA)
	require.NoError(t, err)
	require.Equal(t, core.ImportedBest, result)

	// A competing block at the same height with strictly higher
	// difficulty must overtake blockA on total difficulty.
	blockB := h.buildChild(h.genesis.Header(), minerB, 5, h.genesis.Time()+11)
	result, err = h.bc.TryToConnect(blockB)
	require.NoError(t, err)
	require.Equal(t, core.ImportedBest, result)
	require.Equal(t, blockB.Hash(), h.blockStore.GetBestBlock().Hash())
}

func TestBlockchain_LosingForkStaysSideBranch(t *testing.T) {
	h := newHarness(t)
	minerA := common.HexToAddress("0x0A")
	minerB := common.HexToAddress("0x0B")

	blockA := h.buildChild(h.genesis.Header(), minerA, 5, h.genesis.Time()+10)
	_, err := h.bc.TryToConnect(blockA)
	require.NoError(t, err)

	blockB := h.buildChild(h.genesis.Header(), minerB, 1, h.genesis.Time()+11)
	result, err := h.bc.TryToConnect(blockB)
	require.NoError(t, err)
	require.Equal(t, core.ImportedNotBest, result)
	require.Equal(t, blockA.Hash(), h.blockStore.GetBestBlock().Hash())
}

// TestBlockchain_LinearChainCarriesStateAcrossBlocks imports two blocks
// deep from genesis — block2 built on block1, not on genesis — with a
// value transfer in block2 whose sender was only ever funded by block1's
// mining reward. Proving this import succeeds and the transfer lands
// exercises addImpl committing the root repository handle (not just its
// tracking view) and storeBlock retargeting bc.repository to the newly
// imported best block, so the next import's GetSnapshotTo(parent.Root())
// finds block1's committed state instead of silently falling back to an
// empty trie (spec.md §8 scenario 1's linear-extension total-difficulty
// accumulation).
func TestBlockchain_LinearChainCarriesStateAcrossBlocks(t *testing.T) {
	h := newHarness(t)
	minerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	minerA := crypto.PubkeyToAddress(minerKey.PublicKey)
	minerB := common.HexToAddress("0x0B")
	recipient := common.HexToAddress("0xC0FFEE")

	block1 := h.buildChild(h.genesis.Header(), minerA, 1, h.genesis.Time()+10)
	result, err := h.bc.TryToConnect(block1)
	require.NoError(t, err)
	require.Equal(t, core.ImportedBest, result)
	require.Equal(t, block1.Hash(), h.blockStore.GetBestBlock().Hash())

	genesisTD := h.blockStore.GetTotalDifficultyForHash(h.genesis.Hash())
	block1TD := h.blockStore.GetTotalDifficultyForHash(block1.Hash())
	require.Equal(t, new(big.Int).Add(genesisTD, block1.Difficulty()), block1TD)

	// minerA's only balance is block1's mining reward; if GetSnapshotTo
	// fell back to an empty trie, this transaction's sender would appear
	// unfunded and CreateBlockTemplate's addReward/applyBlock pass over
	// it would mark it unsuccessful (zero fee, no transfer) instead of
	// moving value.
	signer := types.LatestSignerForChainID(big.NewInt(2))
	tx := types.MustSignNewTx(minerKey, signer, &types.LegacyTx{
		Nonce:    0,
		To:       &recipient,
		Value:    big.NewInt(1000),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})

	header, _, err := h.bc.CreateBlockTemplate(block1.Header(), minerB, types.Transactions{tx}, nil, nil, block1.Time()+10)
	require.NoError(t, err)
	header.Difficulty = big.NewInt(1)
	block2 := core.NewBlockFromHeaderAndBody(header, types.Transactions{tx}, nil)

	result, err = h.bc.TryToConnect(block2)
	require.NoError(t, err)
	require.Equal(t, core.ImportedBest, result)
	require.Equal(t, block2.Hash(), h.blockStore.GetBestBlock().Hash())

	block2TD := h.blockStore.GetTotalDifficultyForHash(block2.Hash())
	require.Equal(t, new(big.Int).Add(block1TD, block2.Difficulty()), block2TD)

	info := h.bc.GetTransactionInfo(tx.Hash())
	require.NotNil(t, info)
	require.True(t, info.Receipt.Status == types.ReceiptStatusSuccessful)
}

func TestBlockchain_InvalidStateRootIsRejected(t *testing.T) {
	h := newHarness(t)
	miner := common.HexToAddress("0x01")

	block1 := h.buildChild(h.genesis.Header(), miner, 1, h.genesis.Time()+10)
	header := types.CopyHeader(block1.Header())
	header.Root = common.HexToHash("0xbad")
	corrupted := core.NewBlockFromHeaderAndBody(header, nil, nil)

	result, err := h.bc.TryToConnect(corrupted)
	require.NoError(t, err)
	require.Equal(t, core.ImportInvalidBlock, result)
}
