// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package config loads the node-level tunables the block-import core
// needs from its caller: a single block reward and uncle limits, the
// EIP-658 activation block, the exit-on-block-number watermark, the exit-on-block-conflict escalation
// toggle, whether to record every imported block to disk, and the
// diagnostic-retry toggle (spec.md §9 open question 2).
// Configuration loading is an external collaborator (spec.md §1) — this
// package is never imported by core; cmd/chaincore adapts a loaded Node
// into core.BlockchainConfig/core.ConfigProvider.
package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyUncleListLimit       = "uncle-list-limit"
	keyUncleGenerationLimit = "uncle-generation-limit"
	keyBlockReward          = "block-reward-wei"
	keyEIP658Block          = "eip658-block"
	keyExitOnBlockNumber    = "exit-on-block-number"
	keyExitOnBlockConflict  = "exit-on-block-conflict"
	keyRecordBlocks         = "record-blocks"
	keyRecordBlocksPath     = "record-blocks-path"
	keyDiagnosticRetry      = "diagnostic-retry"
	keyListenerQueueSize    = "listener-queue-size"
	keyFlushQueueSize       = "flush-queue-size"
	keyDataDir              = "data-dir"
)

// Node is the parsed configuration this repo's own process needs; every
// field here corresponds to a tunable spec.md §6 names as belonging to an
// external collaborator rather than to the core itself.
type Node struct {
	UncleListLimit       int
	UncleGenerationLimit uint64
	BlockReward          *big.Int
	EIP658Block          uint64

	ExitOnBlockNumber   *uint64
	ExitOnBlockConflict bool
	RecordBlocks        bool
	RecordBlocksPath    string
	DiagnosticRetry     bool

	ListenerQueueSize int
	FlushQueueSize    int

	// DataDir, when non-empty, switches the block store from the
	// in-memory reference implementation to a goleveldb-backed one
	// rooted at this directory.
	DataDir string
}

// BuildFlagSet declares the CLI flags cmd/chaincore registers, mirroring
// the teacher's own pflag.FlagSet-per-subcommand convention.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("chaincore", pflag.ContinueOnError)

	fs.Int(keyUncleListLimit, 2, "maximum number of uncles a block may reference")
	fs.Uint64(keyUncleGenerationLimit, 6, "maximum generations back an uncle may be claimed from")
	fs.String(keyBlockReward, "5000000000000000000", "base block reward in wei")
	fs.Uint64(keyEIP658Block, 0, "block number at which receipts switch from post-state root to status bit")
	fs.Uint64(keyExitOnBlockNumber, 0, "if nonzero, flush and shut down once this block number is imported")
	fs.Bool(keyExitOnBlockConflict, false, "flush and shut down if a block's post-execution state root disagrees with its header")
	fs.Bool(keyRecordBlocks, false, "append every imported block's RLP encoding to a hex dump file")
	fs.String(keyRecordBlocksPath, "chaincore-blocks.log", "path to the block dump file when record-blocks is set")
	fs.Bool(keyDiagnosticRetry, false, "accept a block import that only succeeded on retry instead of treating it as a hard error")
	fs.Int(keyListenerQueueSize, 256, "bounded queue size for the async listener dispatcher")
	fs.Int(keyFlushQueueSize, 64, "bounded queue size for the async flush manager")
	fs.String(keyDataDir, "", "directory for a persistent goleveldb-backed block store; empty keeps the in-memory store")

	return fs
}

// Load binds fs into a fresh viper instance (also reading CHAINCORE_-
// prefixed environment variables) and parses it into a Node.
func Load(fs *pflag.FlagSet) (*Node, error) {
	v := viper.New()
	v.SetEnvPrefix("chaincore")
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	blockReward, ok := new(big.Int).SetString(v.GetString(keyBlockReward), 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", keyBlockReward, v.GetString(keyBlockReward))
	}

	node := &Node{
		UncleListLimit:       v.GetInt(keyUncleListLimit),
		UncleGenerationLimit: v.GetUint64(keyUncleGenerationLimit),
		BlockReward:          blockReward,
		EIP658Block:          v.GetUint64(keyEIP658Block),
		ExitOnBlockConflict:  v.GetBool(keyExitOnBlockConflict),
		RecordBlocks:         v.GetBool(keyRecordBlocks),
		RecordBlocksPath:     v.GetString(keyRecordBlocksPath),
		DiagnosticRetry:      v.GetBool(keyDiagnosticRetry),
		ListenerQueueSize:    v.GetInt(keyListenerQueueSize),
		FlushQueueSize:       v.GetInt(keyFlushQueueSize),
		DataDir:              v.GetString(keyDataDir),
	}
	if n := v.GetUint64(keyExitOnBlockNumber); n != 0 {
		node.ExitOnBlockNumber = &n
	}
	return node, nil
}

// LoadFromArgs parses args (typically os.Args[1:]) against BuildFlagSet
// and loads a Node from the result, the entry point cmd/chaincore/main.go
// uses.
func LoadFromArgs(args []string) (*Node, error) {
	fs := BuildFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	return Load(fs)
}

// MustLoadFromOSArgs is a convenience wrapper for main(); it prints the
// error and exits nonzero on failure rather than returning it, matching
// the teacher's own main-package error handling idiom.
func MustLoadFromOSArgs() *Node {
	node, err := LoadFromArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "chaincore: "+err.Error())
		os.Exit(2)
	}
	return node
}
