package compaction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus instruments for compaction. Create at most
// one per process and namespace; promauto registers with the default
// registry.
type Metrics struct {
	Cycles         prometheus.Counter
	GroupsArchived prometheus.Counter
	TurnsArchived  prometheus.Counter
	TokensFreed    prometheus.Counter
	CycleDuration  prometheus.Histogram
}

// NewMetrics creates and registers the compaction instruments under the
// given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Cycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compaction_cycles_total",
			Help:      "Compaction cycles that passed the trigger threshold.",
		}),
		GroupsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compaction_groups_archived_total",
			Help:      "Day groups replaced by a summary turn.",
		}),
		TurnsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compaction_turns_archived_total",
			Help:      "Raw turns folded into summaries.",
		}),
		TokensFreed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compaction_tokens_freed_total",
			Help:      "Net token-equivalent cost freed by compaction.",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compaction_cycle_duration_seconds",
			Help:      "Wall time of a compaction cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}
