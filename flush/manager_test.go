// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package flush

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_CommitRunsTasksInOrder(t *testing.T) {
	m := NewManager(4)
	defer m.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		m.Commit(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tasks to run")
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManager_FlushSyncWaitsForQueuedWork(t *testing.T) {
	m := NewManager(4)
	defer m.Close()

	var ran int32
	m.Commit(func() { atomic.StoreInt32(&ran, 1) })
	m.FlushSync()

	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestManager_CommitIgnoresNilTask(t *testing.T) {
	m := NewManager(4)
	defer m.Close()

	m.Commit(nil)
	m.FlushSync() // must not deadlock behind a nil task
}

func TestManager_CloseStopsWorker(t *testing.T) {
	m := NewManager(1)
	require.NoError(t, m.Close())
}
