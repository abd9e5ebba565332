package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frontier_dataset_load_seconds",
		Help:    "Time spent loading and normalizing a coverage diff dataset.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frontier_graph_build_seconds",
		Help:    "Time spent building a function-level reachability graph.",
		Buckets: prometheus.DefBuckets,
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontier_graph_nodes_total",
		Help: "Number of nodes in the most recently built reachability graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontier_graph_edges_total",
		Help: "Number of edges in the most recently built reachability graph.",
	})

	DatasetModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontier_dataset_modules_total",
		Help: "Number of modules in the loaded dataset.",
	})

	DatasetFunctions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontier_dataset_functions_total",
		Help: "Number of functions in the loaded dataset.",
	})

	OrphanEdgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_orphan_edges_total",
		Help: "Total number of edges dropped because an endpoint did not resolve.",
	})

	ReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_dataset_reloads_total",
		Help: "Total number of dataset reloads triggered by the watcher.",
	})

	GraphCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_graph_cache_hits_total",
		Help: "Total number of graph builds served from the filter-keyed cache.",
	})

	HistoryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_history_write_failures_total",
		Help: "Total number of failed writes to the history store.",
	})
)
