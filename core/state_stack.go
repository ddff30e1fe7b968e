// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// savedState is one entry of the speculative-import stack: the repository
// root, the canonical best block and its total difficulty, all captured
// immediately before a candidate block (or fork) is tentatively applied.
// It mirrors ethereumj's BlockchainImpl.State inner class exactly
// (root/savedBest/savedTD), spec.md §4.1.
type savedState struct {
	root      common.Hash
	savedBest *Block
	savedTD   *big.Int
}

// stateStack is the push/pop/drop stack C1 owns. It is not safe for
// concurrent use on its own; callers hold the Blockchain's single writer
// mutex (spec.md §5) for the whole of a push...pop/drop sequence.
type stateStack struct {
	entries []*savedState
}

func newStateStack() *stateStack {
	return &stateStack{}
}

// pushState records the current canonical tip, its total difficulty and
// the state root before a speculative import begins.
func (s *stateStack) pushState(currentRoot common.Hash, best *Block, bestTD *big.Int) {
	s.entries = append(s.entries, &savedState{
		root:      currentRoot,
		savedBest: best,
		savedTD:   new(big.Int).Set(bestTD),
	})
}

// popState restores the most recently pushed snapshot and removes it from
// the stack, used when a speculative import fails or loses fork-choice.
func (s *stateStack) popState() (root common.Hash, best *Block, bestTD *big.Int, ok bool) {
	if len(s.entries) == 0 {
		return common.Hash{}, nil, nil, false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top.root, top.savedBest, top.savedTD, true
}

// dropState discards the most recently pushed snapshot without restoring
// it, used when a speculative import succeeds and its result is kept.
func (s *stateStack) dropState() {
	if len(s.entries) == 0 {
		return
	}
	s.entries = s.entries[:len(s.entries)-1]
}

func (s *stateStack) depth() int {
	return len(s.entries)
}

// importTransaction bundles the push half and the commit-or-abort half of
// one speculative import into a single value so tryConnectAndFork cannot
// forget to unwind the stack on an error path. This is the "import
// transaction" value type design note 9.1 recommends in place of
// scattering push/pop/drop calls across addImpl's callers. It wraps only
// the chain-tip snapshot stack; the Repository tracking view a speculative
// import executes against is committed or rolled back independently, by
// addImpl itself.
type importTransaction struct {
	stack  *stateStack
	active bool
}

// beginImportTransaction pushes the current chain tip and returns a handle
// that must be resolved with exactly one of commit or abort.
func beginImportTransaction(stack *stateStack, currentRoot common.Hash, best *Block, bestTD *big.Int) *importTransaction {
	stack.pushState(currentRoot, best, bestTD)
	return &importTransaction{stack: stack, active: true}
}

// commit keeps the speculative import's result and discards the pushed
// snapshot, since there is nothing left to roll back to.
func (t *importTransaction) commit() {
	if t.active {
		t.stack.dropState()
		t.active = false
	}
}

// abort pops the chain tip pushState captured and returns it; it does not
// itself change the block store's best block.
func (t *importTransaction) abort() (root common.Hash, best *Block, bestTD *big.Int, ok bool) {
	if !t.active {
		return common.Hash{}, nil, nil, false
	}
	t.active = false
	return t.stack.popState()
}
