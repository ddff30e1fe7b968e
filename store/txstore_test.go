// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package store

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/ethermind/chaincore/core"
)

func TestTransactionStore_PutAndGet(t *testing.T) {
	ts := NewTransactionStore()
	tx := types.NewTx(&types.LegacyTx{Nonce: 0, Gas: 21000, GasPrice: big.NewInt(1)})
	blockHash := common.HexToHash("0x01")

	ts.Put(&core.TransactionInfo{Transaction: tx, BlockHash: blockHash, Index: 0})

	got := ts.Get(tx.Hash())
	require.Len(t, got, 1)
	require.Equal(t, blockHash, got[0].BlockHash)
}

func TestTransactionStore_DedupsSameBlockHash(t *testing.T) {
	ts := NewTransactionStore()
	tx := types.NewTx(&types.LegacyTx{Nonce: 1, Gas: 21000, GasPrice: big.NewInt(1)})
	blockHash := common.HexToHash("0x02")

	ts.Put(&core.TransactionInfo{Transaction: tx, BlockHash: blockHash, Index: 0})
	ts.Put(&core.TransactionInfo{Transaction: tx, BlockHash: blockHash, Index: 0})

	require.Len(t, ts.Get(tx.Hash()), 1)
}

func TestTransactionStore_KeepsRecordsFromMultipleBranches(t *testing.T) {
	ts := NewTransactionStore()
	tx := types.NewTx(&types.LegacyTx{Nonce: 2, Gas: 21000, GasPrice: big.NewInt(1)})

	ts.Put(&core.TransactionInfo{Transaction: tx, BlockHash: common.HexToHash("0x0A"), Index: 0})
	ts.Put(&core.TransactionInfo{Transaction: tx, BlockHash: common.HexToHash("0x0B"), Index: 3})

	require.Len(t, ts.Get(tx.Hash()), 2)
}

func TestTransactionStore_IgnoresNilInfo(t *testing.T) {
	ts := NewTransactionStore()
	ts.Put(nil)
	ts.Put(&core.TransactionInfo{})
	require.Empty(t, ts.Get(common.Hash{}))
}
