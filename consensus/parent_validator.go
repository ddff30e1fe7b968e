// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package consensus implements core.ParentHeaderValidator: the
// parent/child header consistency rules (spec.md §4.2 step 2), grounded
// on graft/coreth/core/block_validator.go's CalcGasLimit and its
// ancestor-known/gas-limit-bound checks. Difficulty retargeting and proof-
// of-work verification are out of scope (spec.md Non-goals) — this
// validator only checks that difficulty is nonzero; it does not compare it
// with the parent's difficulty or recompute a retarget.
package consensus

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// gasLimitBoundDivisor bounds how much the gas limit may change between
// consecutive blocks, the same divisor go-ethereum's own CalcGasLimit
// uses.
const gasLimitBoundDivisor = 1024

// minGasLimit is the floor below which a block's gas limit may never
// drop.
const minGasLimit = 5000

// SimpleParentValidator implements core.ParentHeaderValidator with the
// non-PoW parts of Ethereum's header validity rules: strictly increasing
// number and timestamp, a gas limit that moves by at most 1/1024th of the
// parent's per block and never below the floor, and a nonzero difficulty.
type SimpleParentValidator struct{}

func NewSimpleParentValidator() *SimpleParentValidator {
	return &SimpleParentValidator{}
}

func (SimpleParentValidator) Validate(header, parent *types.Header) bool {
	if header == nil || parent == nil {
		return false
	}
	if header.Number == nil || parent.Number == nil {
		return false
	}
	wantNumber := new(big.Int).Add(parent.Number, big.NewInt(1))
	if header.Number.Cmp(wantNumber) != 0 {
		return false
	}
	if header.Time <= parent.Time {
		return false
	}
	if header.Difficulty == nil || header.Difficulty.Sign() <= 0 {
		return false
	}
	if !validGasLimit(header.GasLimit, parent.GasLimit) {
		return false
	}
	return true
}

func validGasLimit(gasLimit, parentGasLimit uint64) bool {
	if gasLimit < minGasLimit {
		return false
	}
	diff := int64(gasLimit) - int64(parentGasLimit)
	if diff < 0 {
		diff = -diff
	}
	limit := parentGasLimit / gasLimitBoundDivisor
	return uint64(diff) <= limit
}
