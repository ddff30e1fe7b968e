// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package executor

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethermind/chaincore/repository"
)

func TestSimpleExecutor_Lifecycle(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)
	recipient := common.HexToAddress("0x1234")
	coinbase := common.HexToAddress("0x5678")

	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(1), Coinbase: coinbase})
	signer := types.LatestSignerForChainID(big.NewInt(1))
	tx := types.MustSignNewTx(key, signer, &types.LegacyTx{
		Nonce:    0,
		To:       &recipient,
		Value:    big.NewInt(1000),
		Gas:      21000,
		GasPrice: big.NewInt(2),
	})

	db := repository.NewMemoryStateDatabase()
	repo, err := repository.NewRootRepository(db, common.Hash{})
	require.NoError(t, err)
	require.NoError(t, repo.AddBalance(sender, big.NewInt(1_000_000)))

	track := repo.StartTracking()
	ex := NewSimpleExecutor(tx, coinbase, track, block)

	require.NoError(t, ex.Init())
	require.NoError(t, ex.Execute())
	require.NoError(t, ex.Go())
	summary, err := ex.Finalization()
	require.NoError(t, err)
	require.NoError(t, track.Commit())

	require.Equal(t, sender, summary.From)
	require.Equal(t, "42000", summary.Fee.String()) // 21000 gas * 2 wei

	require.Equal(t, uint64(21000), ex.GasUsed())

	// The state root moved off the empty-trie root, confirming the
	// transfer was actually applied rather than only computed.
	require.NotEqual(t, types.EmptyRootHash, repo.GetRoot())
}

func TestSimpleExecutor_NoRecipientStillChargesFee(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)
	coinbase := common.HexToAddress("0x5678")

	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(1), Coinbase: coinbase})
	signer := types.LatestSignerForChainID(big.NewInt(1))
	tx := types.MustSignNewTx(key, signer, &types.LegacyTx{
		Nonce:    0,
		Value:    big.NewInt(0),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})

	db := repository.NewMemoryStateDatabase()
	repo, err := repository.NewRootRepository(db, common.Hash{})
	require.NoError(t, err)
	require.NoError(t, repo.AddBalance(sender, big.NewInt(21000)))

	track := repo.StartTracking()
	ex := NewSimpleExecutor(tx, coinbase, track, block)
	require.NoError(t, ex.Init())
	require.NoError(t, ex.Execute())
	require.NoError(t, ex.Go())
	summary, err := ex.Finalization()
	require.NoError(t, err)

	require.True(t, ex.Successful())
	require.Equal(t, "21000", summary.Fee.String())
}

func TestSimpleExecutor_InsufficientBalanceMarksUnsuccessful(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_ = crypto.PubkeyToAddress(key.PublicKey)
	recipient := common.HexToAddress("0x1234")
	coinbase := common.HexToAddress("0x5678")

	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(1), Coinbase: coinbase})
	signer := types.LatestSignerForChainID(big.NewInt(1))
	tx := types.MustSignNewTx(key, signer, &types.LegacyTx{
		Nonce:    0,
		To:       &recipient,
		Value:    big.NewInt(1000),
		Gas:      21000,
		GasPrice: big.NewInt(2),
	})

	db := repository.NewMemoryStateDatabase()
	repo, err := repository.NewRootRepository(db, common.Hash{})
	require.NoError(t, err)
	// Not enough to cover value(1000) + fee(42000).

	track := repo.StartTracking()
	ex := NewSimpleExecutor(tx, coinbase, track, block)
	require.NoError(t, ex.Init())
	require.NoError(t, ex.Execute())
	require.NoError(t, ex.Go())
	summary, err := ex.Finalization()
	require.NoError(t, err)

	require.False(t, ex.Successful())
	require.Equal(t, "0", summary.Fee.String())
	require.NoError(t, track.Commit())
	require.Equal(t, "0", repo.GetBalance(recipient).String())
}
