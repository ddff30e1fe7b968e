// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

// Package listener implements core.EthereumListener dispatch off the
// importer's single-writer critical path, grounded on
// other_examples/ava-labs-coreth__blockchain.go's event.Feed-based
// chainHeadFeed/rmLogsFeed pattern (design note 9.4: listener callbacks
// must never block a block import).
package listener

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethermind/chaincore/core"
)

// notification is one queued delivery: either a block acceptance or a
// trace message, kept as a single struct so the dispatcher has one queue
// rather than two racing ones.
type notification struct {
	summary *core.BlockSummary
	isBest  bool
	trace   string
	isTrace bool
}

// Dispatcher is a single-consumer core.EthereumListener: OnBlock/Trace
// enqueue onto a bounded channel and return immediately, and one
// background goroutine drains the queue in order into the wrapped
// listener, an optional core.PendingPool, and a event.Feed other
// subscribers (a metrics exporter) can subscribe to independently. This
// goroutine is the "event-dispatch executor" spec.md §4.5 schedules
// processBest onto.
type Dispatcher struct {
	downstream  core.EthereumListener
	pendingPool core.PendingPool
	queue       chan notification
	feed        event.Feed
	stop        chan struct{}
	done        chan struct{}
}

// NewDispatcher starts the dispatcher's worker goroutine immediately.
// queueSize bounds how far the dispatcher can fall behind the importer
// before OnBlock/Trace start blocking their caller. pendingPool may be
// nil: the pending-pool itself is an external collaborator (spec.md §1);
// a caller that doesn't wire one simply skips the processBest schedule.
func NewDispatcher(downstream core.EthereumListener, pendingPool core.PendingPool, queueSize int) *Dispatcher {
	d := &Dispatcher{
		downstream:  downstream,
		pendingPool: pendingPool,
		queue:       make(chan notification, queueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-d.stop:
			// Drain whatever is already queued before exiting so a Close
			// during shutdown doesn't silently drop the last few blocks.
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n notification) {
	if n.isTrace {
		if d.downstream != nil {
			d.downstream.Trace(n.trace)
		}
		return
	}
	if d.downstream != nil {
		d.downstream.OnBlock(n.summary, n.isBest)
	}
	if n.isBest {
		if d.pendingPool != nil {
			d.pendingPool.ProcessBest(n.summary.Block, n.summary.Receipts)
		}
		d.feed.Send(n.summary)
	}
}

func (d *Dispatcher) OnBlock(summary *core.BlockSummary, isBest bool) {
	select {
	case d.queue <- notification{summary: summary, isBest: isBest}:
	case <-d.stop:
		log.Warn("listener dispatcher stopped, dropping block notification", "hash", summary.Block.Hash())
	}
}

func (d *Dispatcher) Trace(msg string) {
	select {
	case d.queue <- notification{trace: msg, isTrace: true}:
	case <-d.stop:
	}
}

// SubscribeBestBlock registers ch to receive every BlockSummary the
// dispatcher delivers with isBest true, independent of the wrapped
// downstream listener.
func (d *Dispatcher) SubscribeBestBlock(ch chan<- *core.BlockSummary) event.Subscription {
	return d.feed.Subscribe(ch)
}

// Close stops the worker after draining anything already queued, and
// waits for it to exit.
func (d *Dispatcher) Close() {
	close(d.stop)
	<-d.done
}

var _ core.EthereumListener = (*Dispatcher)(nil)
