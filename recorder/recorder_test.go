// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package recorder

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordBlockWritesHexLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.log")
	rec, err := Open(path)
	require.NoError(t, err)

	block := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(1), Extra: []byte("x")})
	rec.RecordBlock(block, false)
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	fields := strings.Fields(line)
	require.Equal(t, "block", fields[0])
	require.Equal(t, "1", fields[1])
	require.Equal(t, block.Hash().Hex(), fields[2])
}

func TestRecorder_RecordBlockMarksGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.log")
	rec, err := Open(path)
	require.NoError(t, err)

	genesis := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(0)})
	rec.RecordBlock(genesis, true)
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "genesis "))
}

func TestRecorder_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.log")

	first, err := Open(path)
	require.NoError(t, err)
	first.RecordBlock(types.NewBlockWithHeader(&types.Header{Number: big.NewInt(1)}), false)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	second.RecordBlock(types.NewBlockWithHeader(&types.Header{Number: big.NewInt(2)}), false)
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
}
