// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestAddReward_NoUncles(t *testing.T) {
	coinbase := common.HexToAddress("0xC0FFEE")
	header := &types.Header{Number: big.NewInt(10), Coinbase: coinbase}
	block := types.NewBlockWithHeader(header)

	cfg := NewForkConfig(big.NewInt(5_000_000_000_000_000_000), true, 2, 6)
	track := newFakeRepo()

	rewards, err := addReward(track, block, big.NewInt(1_000), cfg)
	require.NoError(t, err)

	// Repository only ever receives the base reward, never totalFees
	// (spec.md §9 open question 1, kept unfixed per SPEC_FULL.md §E).
	require.Equal(t, "5000000000000000000", track.balances[coinbase].String())
	// The returned accounting view includes totalFees on top.
	require.Equal(t, "5000000000000001000", rewards[coinbase].String())
}

func TestAddReward_WithUncles(t *testing.T) {
	coinbase := common.HexToAddress("0xC0FFEE")
	uncleCoinbase := common.HexToAddress("0xBEEF")

	uncle := &types.Header{Number: big.NewInt(9), Coinbase: uncleCoinbase}
	header := &types.Header{Number: big.NewInt(10), Coinbase: coinbase}
	block := types.NewBlockWithHeader(header).WithBody(nil, []*types.Header{uncle})

	blockReward := big.NewInt(5_000_000_000_000_000_000)
	cfg := NewForkConfig(blockReward, true, 2, 6)
	track := newFakeRepo()

	rewards, err := addReward(track, block, big.NewInt(0), cfg)
	require.NoError(t, err)

	// generationGap = 10-9 = 1; taper = blockReward*1/8; uncleReward = blockReward-taper.
	taper := new(big.Int).Div(blockReward, big.NewInt(8))
	wantUncleReward := new(big.Int).Sub(blockReward, taper)
	require.Equal(t, wantUncleReward.String(), track.balances[uncleCoinbase].String())
	require.Equal(t, wantUncleReward.String(), rewards[uncleCoinbase].String())

	inclusionReward := new(big.Int).Div(blockReward, big.NewInt(32))
	wantMinerReward := new(big.Int).Add(blockReward, inclusionReward)
	require.Equal(t, wantMinerReward.String(), track.balances[coinbase].String())
	require.Equal(t, wantMinerReward.String(), rewards[coinbase].String())
}
