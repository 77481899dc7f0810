// Package metrics exposes dispatcher call counts as Prometheus metrics.
package metrics

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts dispatcher calls by operation name and outcome.
type Recorder struct {
	calls *prometheus.CounterVec
}

// NewRecorder registers the operations_total counter against reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		calls: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "undofs",
			Name:      "operations_total",
			Help:      "Total number of filesystem operations dispatched, by operation and result.",
		}, []string{"op", "result"}),
	}
}

// Observe records one completed call to op with the given status.
func (r *Recorder) Observe(op string, status fuse.Status) {
	result := "ok"
	if !status.Ok() {
		result = status.String()
	}
	r.calls.WithLabelValues(op, result).Inc()
}
