// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package recorder implements core.BlockRecorder: an append-only hex dump
// of every imported block's RLP encoding, grounded on
// BlockchainImpl.java's recordBlock (SPEC_FULL.md §D.6). It is an
// external collaborator the core only ever calls through an interface.
package recorder

import (
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethermind/chaincore/core"
)

// Recorder appends one hex-encoded line per RecordBlock call to a file,
// prefixed to mark genesis blocks distinctly, matching the original's
// plain-text block dump format used for offline diffing between chain
// re-runs.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
}

// Open appends to (creating if necessary) the file at path.
func Open(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open block record file: %w", err)
	}
	return &Recorder{file: f}, nil
}

func (r *Recorder) RecordBlock(block *core.Block, isGenesis bool) {
	encoded, err := rlp.EncodeToBytes(block)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "block"
	if isGenesis {
		prefix = "genesis"
	}
	fmt.Fprintf(r.file, "%s %d %s %s\n", prefix, block.NumberU64(), block.Hash().Hex(), hex.EncodeToString(encoded))
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

var _ core.BlockRecorder = (*Recorder)(nil)
