// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethermind/chaincore/core"
)

// TransactionStore is an in-memory core.TransactionStore keyed by
// transaction hash, holding every TransactionInfo record ever put for
// that hash — including ones from losing forks — so
// core.Blockchain.GetTransactionInfo can disambiguate against the
// canonical chain.
type TransactionStore struct {
	mu   sync.RWMutex
	byTx map[common.Hash][]*core.TransactionInfo
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{byTx: make(map[common.Hash][]*core.TransactionInfo)}
}

func (s *TransactionStore) Put(info *core.TransactionInfo) {
	if info == nil || info.Transaction == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := info.Transaction.Hash()
	for _, existing := range s.byTx[hash] {
		if existing.BlockHash == info.BlockHash {
			return
		}
	}
	s.byTx[hash] = append(s.byTx[hash], info)
}

func (s *TransactionStore) Get(hash common.Hash) []*core.TransactionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.TransactionInfo, len(s.byTx[hash]))
	copy(out, s.byTx[hash])
	return out
}

var _ core.TransactionStore = (*TransactionStore)(nil)
