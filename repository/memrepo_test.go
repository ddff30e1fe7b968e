// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package repository

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestStateRepository_AddBalanceAndCommit(t *testing.T) {
	db := NewMemoryStateDatabase()
	repo, err := NewRootRepository(db, common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x01")
	require.NoError(t, repo.AddBalance(addr, big.NewInt(100)))
	require.NoError(t, repo.Commit())

	root := repo.GetRoot()
	reopened, err := NewRootRepository(db, root)
	require.NoError(t, err)
	require.Equal(t, uint64(0), reopened.GetNonce(addr).Uint64())
}

func TestStateRepository_TrackingRollback(t *testing.T) {
	db := NewMemoryStateDatabase()
	repo, err := NewRootRepository(db, common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x02")
	require.NoError(t, repo.AddBalance(addr, big.NewInt(500)))
	rootBefore := repo.GetRoot()

	track := repo.StartTracking()
	require.NoError(t, track.AddBalance(addr, big.NewInt(1000)))
	rootDuring := repo.GetRoot()
	require.NotEqual(t, rootBefore, rootDuring)

	require.NoError(t, track.Rollback())
	rootAfter := repo.GetRoot()
	require.Equal(t, rootBefore, rootAfter)
}

func TestStateRepository_TrackingCommitIsNoOpButKeepsMutation(t *testing.T) {
	db := NewMemoryStateDatabase()
	repo, err := NewRootRepository(db, common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x03")
	track := repo.StartTracking()
	require.NoError(t, track.AddBalance(addr, big.NewInt(7)))
	require.NoError(t, track.Commit())

	// The mutation is visible on the parent handle since they share one
	// underlying StateDB.
	require.NoError(t, repo.Commit())
	root := repo.GetRoot()
	require.NotEqual(t, types.EmptyRootHash, root)
}

func TestStateRepository_GetSnapshotToIsolated(t *testing.T) {
	db := NewMemoryStateDatabase()
	repo, err := NewRootRepository(db, common.Hash{})
	require.NoError(t, err)

	addr := common.HexToAddress("0x04")
	require.NoError(t, repo.AddBalance(addr, big.NewInt(1)))
	require.NoError(t, repo.Commit())
	root := repo.GetRoot()

	snap := repo.GetSnapshotTo(root)
	require.NoError(t, snap.AddBalance(addr, big.NewInt(1)))

	// The snapshot's mutation must not leak back into repo, which is
	// rooted independently.
	require.Equal(t, root, repo.GetRoot())
}
