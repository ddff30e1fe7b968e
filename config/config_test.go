// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromArgs_Defaults(t *testing.T) {
	node, err := LoadFromArgs(nil)
	require.NoError(t, err)
	require.Equal(t, 2, node.UncleListLimit)
	require.Equal(t, uint64(6), node.UncleGenerationLimit)
	require.Equal(t, "5000000000000000000", node.BlockReward.String())
	require.False(t, node.RecordBlocks)
	require.Nil(t, node.ExitOnBlockNumber)
}

func TestLoadFromArgs_Overrides(t *testing.T) {
	node, err := LoadFromArgs([]string{
		"--uncle-list-limit=3",
		"--block-reward-wei=2000000000000000000",
		"--exit-on-block-number=100",
		"--record-blocks",
		"--diagnostic-retry",
	})
	require.NoError(t, err)
	require.Equal(t, 3, node.UncleListLimit)
	require.Equal(t, "2000000000000000000", node.BlockReward.String())
	require.NotNil(t, node.ExitOnBlockNumber)
	require.Equal(t, uint64(100), *node.ExitOnBlockNumber)
	require.True(t, node.RecordBlocks)
	require.True(t, node.DiagnosticRetry)
}

func TestLoadFromArgs_DataDir(t *testing.T) {
	node, err := LoadFromArgs(nil)
	require.NoError(t, err)
	require.Empty(t, node.DataDir)

	node, err = LoadFromArgs([]string{"--data-dir=/tmp/chaincore-data"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/chaincore-data", node.DataDir)
}

func TestLoadFromArgs_InvalidBlockReward(t *testing.T) {
	_, err := LoadFromArgs([]string{"--block-reward-wei=not-a-number"})
	require.Error(t, err)
}
