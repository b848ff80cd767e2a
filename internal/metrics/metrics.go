// Package metrics exposes queue depth and drain outcomes to Prometheus.
package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/khelo/internal/queuestore"
	"github.com/mrlokans/khelo/internal/syncengine"
)

const namespace = "khelo"

// Recorder implements syncengine.Observer and doubles as a queue listener.
// All methods are safe on a nil receiver.
type Recorder struct {
	queueItems    prom.Gauge
	queueBytes    prom.Gauge
	drains        *prom.CounterVec
	drainItems    *prom.CounterVec
	drainDuration prom.Histogram
}

// NewRecorder constructs the metrics and registers them with reg.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		queueItems: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_items",
			Help:      "Items waiting in the offline queue",
		}),
		queueBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_bytes",
			Help:      "Total size of queued items",
		}),
		drains: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "drain_passes_total",
			Help:      "Drain passes by outcome",
		}, []string{"outcome"}),
		drainItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "drain_items_total",
			Help:      "Items handled by drain passes by result",
		}, []string{"result"}),
		drainDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_duration_seconds",
			Help:      "Duration of drain passes that ran",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	reg.MustRegister(r.queueItems, r.queueBytes, r.drains, r.drainItems, r.drainDuration)
	return r
}

// ObserveQueue has the queuestore.Listener signature.
func (r *Recorder) ObserveQueue(stats queuestore.Stats) {
	if r == nil {
		return
	}
	r.queueItems.Set(float64(stats.Count))
	r.queueBytes.Set(float64(stats.TotalSizeBytes))
}

func (r *Recorder) ObserveDrain(summary syncengine.Summary, err error) {
	if r == nil {
		return
	}
	r.drains.WithLabelValues(outcome(summary, err)).Inc()
	if summary.Skipped {
		return
	}
	r.drainItems.WithLabelValues("succeeded").Add(float64(summary.Succeeded))
	r.drainItems.WithLabelValues("failed").Add(float64(summary.Failed))
	r.drainItems.WithLabelValues("dropped").Add(float64(summary.Dropped))
	r.drainDuration.Observe(summary.Duration.Seconds())
}

func outcome(summary syncengine.Summary, err error) string {
	switch {
	case err != nil:
		return "aborted"
	case summary.Skipped:
		return "skipped"
	case summary.Interrupted:
		return "interrupted"
	case summary.Failed > 0:
		return "partial"
	default:
		return "completed"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
