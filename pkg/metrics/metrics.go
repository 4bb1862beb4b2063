// Package metrics holds the Prometheus collectors of the scoring pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ic_analyzer"

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"phase"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the loaded graph by type",
		},
		[]string{"node_type"},
	)

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "graph_edges",
		Help:      "Edges in the loaded graph",
	})

	HierarchyTerms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hierarchy_terms",
		Help:      "Terms in the scored hierarchy",
	})

	UnannotatedTerms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unannotated_terms",
		Help:      "Hierarchy terms without any associated disease",
	})
)

// ObservePhase records the time since start for a phase
func ObservePhase(phase string, start time.Time) {
	PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// RecordRun counts a finished run
func RecordRun(err error) {
	if err != nil {
		Runs.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	Runs.WithLabelValues(OutcomeSuccess).Inc()
}

// RecordGraph sets the node gauges from per-type counts
func RecordGraph(nodesByType map[string]int, edges int) {
	GraphNodes.Reset()
	for nodeType, n := range nodesByType {
		GraphNodes.WithLabelValues(nodeType).Set(float64(n))
	}
	GraphEdges.Set(float64(edges))
}
