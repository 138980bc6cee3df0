// Package metrics defines the Prometheus instruments for extraction, verification, and scoring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitscore"

// Metrics groups the engine's instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ExtractionCalls    *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	VerifierCalls      *prometheus.CounterVec
	MatchConfidence    *prometheus.CounterVec
	ScoreDuration      prometheus.Histogram
	FinalScore         prometheus.Histogram
	BindingCaps        *prometheus.CounterVec
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExtractionCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_calls_total",
				Help:      "Language model extraction calls by document kind",
			},
			[]string{"kind"},
		),
		ExtractionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Extractions that failed after retry, by document kind and stage",
			},
			[]string{"kind", "stage"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_cache_lookups_total",
				Help:      "Extraction cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		VerifierCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verifier_calls_total",
				Help:      "Requirement verifier calls by outcome",
			},
			[]string{"outcome"},
		),
		MatchConfidence: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requirement_matches_total",
				Help:      "Final requirement match results by confidence tier and verification source",
			},
			[]string{"confidence", "verification"},
		),
		ScoreDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score_duration_seconds",
				Help:      "Duration of ScoreMatch runs",
				Buckets:   prometheus.DefBuckets,
			},
		),
		FinalScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "final_score",
				Help:      "Distribution of final fit scores",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		BindingCaps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_caps_total",
				Help:      "Scoring runs by the cap that bound the final score (none when the blend score won)",
			},
			[]string{"cap"},
		),
	}
}

// ObserveExtraction counts one extraction call.
func (m *Metrics) ObserveExtraction(kind string) {
	if m == nil {
		return
	}
	m.ExtractionCalls.WithLabelValues(kind).Inc()
}

// ObserveExtractionFailure counts an extraction that gave up.
func (m *Metrics) ObserveExtractionFailure(kind, stage string) {
	if m == nil {
		return
	}
	m.ExtractionFailures.WithLabelValues(kind, stage).Inc()
}

// ObserveCache counts a cache lookup; hit selects the result label.
func (m *Metrics) ObserveCache(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// ObserveVerifier counts a verifier call outcome (matched, rejected, transport_error).
func (m *Metrics) ObserveVerifier(outcome string) {
	if m == nil {
		return
	}
	m.VerifierCalls.WithLabelValues(outcome).Inc()
}

// ObserveMatch counts one final requirement result.
func (m *Metrics) ObserveMatch(confidence, verification string) {
	if m == nil {
		return
	}
	m.MatchConfidence.WithLabelValues(confidence, verification).Inc()
}

// ObserveScore records a finished scoring run.
func (m *Metrics) ObserveScore(seconds, score float64, bindingCap string) {
	if m == nil {
		return
	}
	if bindingCap == "" {
		bindingCap = "none"
	}
	m.ScoreDuration.Observe(seconds)
	m.FinalScore.Observe(score)
	m.BindingCaps.WithLabelValues(bindingCap).Inc()
}
