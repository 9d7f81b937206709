// Package prometheus exports ivfgo operation metrics to Prometheus.
//
//	c := prometheus.NewCollector(prom.DefaultRegisterer)
//	db, _ := ivfgo.Open(ctx, 128, 64, ivfgo.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.Handler())
package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "ivfgo"

// Collector implements ivfgo.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency      *prom.HistogramVec
	ops            *prom.CounterVec
	vectorsWritten prom.Counter
	vectorsFailed  prom.Counter
	scanned        prom.Histogram
	builtVectors   prom.Gauge
	snapshotBytes  prom.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prom.Registerer) *Collector {
	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of database operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		ops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total database operations",
		}, []string{"op", "status"}),
		vectorsWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_inserted_total",
			Help:      "Total vectors appended to the store",
		}),
		vectorsFailed: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_rejected_total",
			Help:      "Total vectors rejected by batch inserts",
		}),
		scanned: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "search_scanned_vectors",
			Help:      "Vectors whose distance was computed per search",
			Buckets:   prom.ExponentialBuckets(16, 4, 10),
		}),
		builtVectors: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_vectors",
			Help:      "Vectors covered by the last successful build",
		}),
		snapshotBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_size_bytes",
			Help:      "Size of the last successful snapshot",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.opLatency,
			c.ops,
			c.vectorsWritten,
			c.vectorsFailed,
			c.scanned,
			c.builtVectors,
			c.snapshotBytes,
		)
	}
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordInsert implements ivfgo.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.observe("insert", d, err)
	if err == nil {
		c.vectorsWritten.Inc()
	}
}

// RecordBatchInsert implements ivfgo.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, failed int, d time.Duration) {
	var err error
	if failed > 0 {
		err = errBatch
	}
	c.observe("batch_insert", d, err)
	c.vectorsWritten.Add(float64(count - failed))
	c.vectorsFailed.Add(float64(failed))
}

// RecordSearch implements ivfgo.MetricsCollector.
func (c *Collector) RecordSearch(_ int, scanned int, d time.Duration, err error) {
	c.observe("search", d, err)
	if err == nil {
		c.scanned.Observe(float64(scanned))
	}
}

// RecordBuild implements ivfgo.MetricsCollector.
func (c *Collector) RecordBuild(vectors int, d time.Duration, err error) {
	c.observe("build", d, err)
	if err == nil {
		c.builtVectors.Set(float64(vectors))
	}
}

// RecordCheckpoint implements ivfgo.MetricsCollector.
func (c *Collector) RecordCheckpoint(bytes int, d time.Duration, err error) {
	c.observe("checkpoint", d, err)
	if err == nil {
		c.snapshotBytes.Set(float64(bytes))
	}
}
