package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveExtraction("resume")
	m.ObserveExtraction("resume")
	m.ObserveExtractionFailure("jd", "parse")
	m.ObserveCache("memory", true)
	m.ObserveCache("memory", false)
	m.ObserveVerifier("matched")
	m.ObserveMatch("high", "llm_verified")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractionCalls.WithLabelValues("resume")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("jd", "parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("memory", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifierCalls.WithLabelValues("matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchConfidence.WithLabelValues("high", "llm_verified")))
}

func TestMetrics_ObserveScore(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScore(0.2, 72, "")
	m.ObserveScore(0.1, 40, "role_alignment")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BindingCaps.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BindingCaps.WithLabelValues("role_alignment")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction("resume")
		m.ObserveExtractionFailure("resume", "transport")
		m.ObserveCache("redis", true)
		m.ObserveVerifier("rejected")
		m.ObserveMatch("low", "deterministic")
		m.ObserveScore(1, 50, "must_have")
	})
}
