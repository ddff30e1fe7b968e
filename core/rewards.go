// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// magicRewardOffset is BlockchainImpl.java's MAGIC_REWARD_OFFSET: the
// divisor in the per-uncle reward taper, unchanged across the forks this
// core models.
const magicRewardOffset = 8

// addReward is C4, the reward distributor. It credits the block's
// coinbase with the base block reward plus one inclusionReward
// (BLOCK_REWARD/32) per uncle referenced, credits each uncle's own
// coinbase with a reward that tapers off the further the uncle sits
// behind the including block, and returns a rewards map for callers that
// only need the accounting view without re-deriving it.
//
// The rewards map deliberately does not match what was credited to the
// repository for the miner: the repository receives minerReward alone
// (base reward + inclusion rewards), while the returned map records
// minerReward+totalFees, matching BlockchainImpl.java's addReward exactly
// (SPEC_FULL.md §E, spec.md §9 open question 1 — not "fixed").
func addReward(track Repository, block *Block, totalFees *big.Int, cfg BlockchainConfig) (map[common.Address]*big.Int, error) {
	rewards := make(map[common.Address]*big.Int)

	blockReward := cfg.BlockReward()
	inclusionReward := new(big.Int).Div(blockReward, big.NewInt(32))

	totalInclusionReward := new(big.Int)
	for _, uncle := range block.Uncles() {
		// blockReward*(MAGIC_REWARD_OFFSET+uncle.number-block.number)/MAGIC_REWARD_OFFSET,
		// computed as one multiply then one divide (truncating toward zero,
		// as Java's integer division does) to stay byte-exact with
		// BlockchainImpl.java's addReward.
		factor := new(big.Int).Add(big.NewInt(magicRewardOffset), new(big.Int).Sub(uncle.Number, block.Number()))
		uncleReward := new(big.Int).Quo(new(big.Int).Mul(blockReward, factor), big.NewInt(magicRewardOffset))
		if uncleReward.Sign() < 0 {
			uncleReward.SetInt64(0)
		}

		if err := track.AddBalance(uncle.Coinbase, uncleReward); err != nil {
			return nil, fmt.Errorf("uncle reward for %s: %w", uncle.Coinbase, err)
		}
		rewards[uncle.Coinbase] = new(big.Int).Add(rewardOrZero(rewards, uncle.Coinbase), uncleReward)
		totalInclusionReward.Add(totalInclusionReward, inclusionReward)
	}

	minerReward := new(big.Int).Add(blockReward, totalInclusionReward)
	coinbase := block.Coinbase()

	if err := track.AddBalance(coinbase, minerReward); err != nil {
		return nil, fmt.Errorf("miner reward for %s: %w", coinbase, err)
	}

	minerRecorded := new(big.Int).Add(minerReward, totalFees)
	rewards[coinbase] = new(big.Int).Add(rewardOrZero(rewards, coinbase), minerRecorded)

	return rewards, nil
}

func rewardOrZero(rewards map[common.Address]*big.Int, addr common.Address) *big.Int {
	if v, ok := rewards[addr]; ok {
		return v
	}
	return new(big.Int)
}
