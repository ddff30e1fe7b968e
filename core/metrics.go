// Copyright (c) 2024 The Chaincore Authors
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics groups the counters/histograms the importer publishes.
// Registered lazily via NewMetrics so tests that construct multiple
// Blockchain instances don't collide on prometheus's default registry.
type metrics struct {
	imports          *prometheus.CounterVec
	importDuration   prometheus.Histogram
	rebranchCount    prometheus.Counter
	rebranchDepth    prometheus.Histogram
	bestBlockNumber  prometheus.Gauge
	bestTotalDiffLog prometheus.Gauge
}

// NewMetrics registers this core's metrics against reg. Passing a
// dedicated *prometheus.Registry (rather than prometheus.DefaultRegisterer)
// is the pattern graft/coreth's own metered components use to stay
// testable.
func NewMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "blocks_total",
			Help:      "Blocks processed by tryToConnect, labeled by ImportResult.",
		}, []string{"result"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "import_duration_seconds",
			Help:      "Wall-clock time spent per block import attempt.",
			Buckets:   prometheus.DefBuckets,
		}),
		rebranchCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "rebranch_total",
			Help:      "Number of times the canonical chain was re-pointed to a competing fork.",
		}),
		rebranchDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "rebranch_depth_blocks",
			Help:      "Height difference between the old best block and the new tip during a rebranch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		}),
		bestBlockNumber: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "best_block_number",
			Help:      "Number of the current canonical tip.",
		}),
		bestTotalDiffLog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chaincore",
			Subsystem: "importer",
			Name:      "best_total_difficulty_bits",
			Help:      "Bit length of the current canonical tip's total difficulty, a monotonic proxy safe for a float64 gauge.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.imports, m.importDuration, m.rebranchCount, m.rebranchDepth, m.bestBlockNumber, m.bestTotalDiffLog)
	}
	return m
}

func (m *metrics) recordImport(result ImportResult, seconds float64) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result.String()).Inc()
	m.importDuration.Observe(seconds)
}

func (m *metrics) recordRebranch(depth int) {
	if m == nil {
		return
	}
	m.rebranchCount.Inc()
	m.rebranchDepth.Observe(float64(depth))
}

func (m *metrics) recordBest(number uint64, totalDifficultyBits int) {
	if m == nil {
		return
	}
	m.bestBlockNumber.Set(float64(number))
	m.bestTotalDiffLog.Set(float64(totalDifficultyBits))
}
