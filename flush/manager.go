// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package flush implements core.DbFlushManager: a single async worker
// batching the per-block disk-write units the importer enqueues after
// each commit, so the core never observes a partial flush (spec.md §5).
// The worker lifecycle is managed with golang.org/x/sync/errgroup, per
// SPEC_FULL.md §C.
package flush

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ethermind/chaincore/core"
)

// Manager runs one background worker draining a bounded task queue in
// FIFO order. FlushSync enqueues a sentinel task and waits for it, which
// is equivalent to waiting for everything queued before it to finish
// given the worker only ever processes one task at a time.
type Manager struct {
	tasks  chan func()
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewManager starts the worker immediately.
func NewManager(queueSize int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	m := &Manager{
		tasks:  make(chan func(), queueSize),
		group:  group,
		cancel: cancel,
	}
	group.Go(func() error {
		for {
			select {
			case task := <-m.tasks:
				task()
			case <-ctx.Done():
				return nil
			}
		}
	})
	return m
}

func (m *Manager) Commit(task func()) {
	if task == nil {
		return
	}
	m.tasks <- task
}

// FlushSync blocks until every task enqueued before this call has run.
func (m *Manager) FlushSync() {
	done := make(chan struct{})
	m.tasks <- func() { close(done) }
	<-done
}

// Close stops the worker and waits for it to exit; queued tasks that
// never got to run are dropped.
func (m *Manager) Close() error {
	m.cancel()
	return m.group.Wait()
}

var _ core.DbFlushManager = (*Manager)(nil)
