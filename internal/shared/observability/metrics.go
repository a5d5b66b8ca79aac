package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autosg_parsing_seconds",
		Help:    "Time spent extracting identifiers from a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autosg_files_total",
		Help: "Files processed by batch commands, by outcome (annotated, skipped, failed).",
	}, []string{"outcome"})

	IdentifiersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autosg_identifiers_total",
		Help: "Identifier occurrences annotated.",
	}, []string{"language"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autosg_cache_lookups_total",
		Help: "Resolution cache lookups, by result (hit, miss, error).",
	}, []string{"result"})

	CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autosg_completions_total",
		Help: "Calls to the reasoning model, by outcome (ok, auth, error, parse).",
	}, []string{"outcome"})

	ResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autosg_resolve_seconds",
		Help:    "End-to-end latency of a resolution request.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"cached"})

	ParsersInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autosg_parser_pool_active",
		Help: "Tree-sitter parsers currently checked out of the per-language pools.",
	}, []string{"language"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autosg_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// Outcome labels.
const (
	OutcomeAnnotated = "annotated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)
