// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import "errors"

// Sentinel errors returned by the core's collaborators. ImportResult, not
// these, is the primary signal for expected validation failures (spec.md
// §7); these errors denote a collaborator (Repository, BlockStore,
// TransactionExecutor) failing in a way the original Java left unchecked.
var (
	// ErrNoGenesis is returned by Blockchain.TryToConnect and
	// RecomputeTotalDifficulties when no genesis block has been stored yet.
	ErrNoGenesis = errors.New("core: no genesis block")
	// ErrRepositoryRoot names a Repository handle that cannot be rooted at
	// the requested state root. No code in this module returns it:
	// Repository.GetSnapshotTo has no error result.
	ErrRepositoryRoot = errors.New("core: repository root unavailable")
	// ErrExecutorFailed wraps an error surfaced from a TransactionExecutor
	// stage (Init/Execute/Go/Finalization).
	ErrExecutorFailed = errors.New("core: transaction executor failed")
	// ErrDiagnosticRetry is returned by addWithRetry when a retried import
	// succeeds after an initial null result and BlockchainDeps.DiagnosticRetry
	// was false: the retried success is treated as a hard error rather than
	// silently accepted (SPEC_FULL.md §E).
	ErrDiagnosticRetry = errors.New("core: import succeeded only on retry")
	// ErrStaleIterator is returned by BlockHeadersIterator/BlockBodiesIterator
	// when the canonical block at the position the iterator cached has
	// changed, or when Next is called with nothing left to return
	// (spec.md §4.6's concurrent-modification detection).
	ErrStaleIterator = errors.New("core: iterator position no longer on canonical chain")
	// ErrConfigForBlock is returned when no BlockchainConfig is registered
	// for a given block number.
	ErrConfigForBlock = errors.New("core: no blockchain config for block number")
)
