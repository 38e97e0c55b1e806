package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenthands/platformid/internal/fingerprint"
	"github.com/agenthands/platformid/internal/identity"
)

var (
	// resolverOutcomesTotal counts resolutions by outcome.
	// Labels: outcome (exact, weighted, near_miss, empty)
	resolverOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platformid",
		Subsystem: "resolver",
		Name:      "outcomes_total",
		Help:      "Total resolutions by outcome",
	}, []string{"outcome"})

	// resolverBestScoreRatio observes best score divided by the minimum
	// required score for every weighted scan.
	resolverBestScoreRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "platformid",
		Subsystem: "resolver",
		Name:      "best_score_ratio",
		Help:      "Best candidate score relative to the minimum score",
		Buckets:   []float64{0.25, 0.5, 0.75, 0.9, 1, 1.1, 1.25, 1.5, 2},
	})

	// resolverCandidates observes how many stored identities a scan scored.
	resolverCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "platformid",
		Subsystem: "resolver",
		Name:      "candidates",
		Help:      "Number of stored identities scored per weighted scan",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// httpRequestsTotal counts API requests by route and status code.
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platformid",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total API requests by route and status",
	}, []string{"route", "status"})
)

const (
	OutcomeExact    = "exact"
	OutcomeWeighted = "weighted"
	OutcomeNearMiss = "near_miss"
	OutcomeEmpty    = "empty"
)

// Observer records resolver decisions into the package collectors.
type Observer struct{}

var _ fingerprint.Observer = Observer{}

func (Observer) OnExactMatch(ctx context.Context, rec *identity.Record) {
	resolverOutcomesTotal.WithLabelValues(OutcomeExact).Inc()
}

func (Observer) OnWeightedMatch(ctx context.Context, rec *identity.Record, score int, minimum float64, candidates int) {
	resolverOutcomesTotal.WithLabelValues(OutcomeWeighted).Inc()
	observeScan(score, minimum, candidates)
}

func (Observer) OnNearMiss(ctx context.Context, best *identity.Record, score int, minimum float64, candidates int) {
	resolverOutcomesTotal.WithLabelValues(OutcomeNearMiss).Inc()
	observeScan(score, minimum, candidates)
}

func (Observer) OnNoCandidates(ctx context.Context) {
	resolverOutcomesTotal.WithLabelValues(OutcomeEmpty).Inc()
}

func observeScan(score int, minimum float64, candidates int) {
	resolverCandidates.Observe(float64(candidates))
	if minimum > 0 {
		resolverBestScoreRatio.Observe(float64(score) / minimum)
	}
}

// RecordRequest counts one served API request.
func RecordRequest(route, status string) {
	httpRequestsTotal.WithLabelValues(route, status).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
