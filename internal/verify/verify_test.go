package verify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm/llmtest"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

var volumeReq = types.ParsedRequirement{
	ID:          "req-1",
	Description: "High-volume recruiting experience",
	Category:    types.CategoryScale,
	MustHave:    true,
}

func mediumResult() types.MatchResult {
	return types.MatchResult{
		RequirementID: "req-1",
		Requirement:   volumeReq.Description,
		MustHave:      true,
		Similarity:    0.65,
		Evidence:      "contributing to 1,000+ ML Gen hires",
		Confidence:    types.ConfidenceMedium,
		Verification:  types.VerificationDeterministic,
		Weight:        1.0,
		Rationale:     "closest highlight evidence at similarity 0.65",
	}
}

func TestVerify_PromptCarriesRequirementAndEvidence(t *testing.T) {
	var prompt string
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, p string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierLite, tier)
			prompt = p
			return "```json\n{\"matched\": true, \"rationale\": \"1,000+ hires is high volume\"}\n```", nil
		},
	}
	v := NewVerifier(client, 2, nil, nil)

	verdict, err := v.Verify(context.Background(), volumeReq, "contributing to 1,000+ ML Gen hires")
	require.NoError(t, err)

	assert.True(t, verdict.Matched)
	assert.Equal(t, "1,000+ hires is high volume", verdict.Rationale)
	assert.Contains(t, prompt, `Requirement: "High-volume recruiting experience"`)
	assert.Contains(t, prompt, `"contributing to 1,000+ ML Gen hires"`)
	assert.Contains(t, prompt, "Requirement category: scale")
	assert.False(t, strings.Contains(prompt, "{{."))
}

func TestResolve_ConfirmedMatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{"matched": true, "rationale": "1,000+ hires demonstrates high-volume recruiting"}`, nil
		},
	}
	v := NewVerifier(client, 2, nil, m)

	got, err := v.Resolve(context.Background(), volumeReq, mediumResult())
	require.NoError(t, err)

	assert.True(t, got.Matched)
	assert.Equal(t, types.ConfidenceHigh, got.Confidence)
	assert.Equal(t, types.VerificationLLM, got.Verification)
	assert.Equal(t, "1,000+ hires demonstrates high-volume recruiting", got.Rationale)
	assert.Equal(t, 0.65, got.Similarity)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifierCalls.WithLabelValues(OutcomeMatched)))
}

func TestResolve_Rejected(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{"matched": false, "rationale": "different field"}`, nil
		},
	}
	v := NewVerifier(client, 2, nil, nil)

	got, err := v.Resolve(context.Background(), volumeReq, mediumResult())
	require.NoError(t, err)

	assert.False(t, got.Matched)
	assert.Equal(t, types.ConfidenceLow, got.Confidence)
	assert.Equal(t, types.VerificationLLM, got.Verification)
}

func TestResolve_TransportFailureKeepsMediumResult(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "call fails", err: errors.New("503 service unavailable")},
		{name: "garbage", response: "maybe?"},
		{name: "missing field", response: `{"rationale": "unsure"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			client := &llmtest.MockClient{
				GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
					return tt.response, tt.err
				},
			}
			v := NewVerifier(client, 2, nil, m)
			original := mediumResult()

			got, err := v.Resolve(context.Background(), volumeReq, original)
			require.NoError(t, err)

			assert.Equal(t, original, got)
			assert.Equal(t, types.ConfidenceMedium, got.Confidence)
			assert.Equal(t, types.VerificationDeterministic, got.Verification)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifierCalls.WithLabelValues(OutcomeTransport)))

			_, verifyErr := v.Verify(context.Background(), volumeReq, original.Evidence)
			var transportErr *VerificationTransportError
			assert.True(t, errors.As(verifyErr, &transportErr))
		})
	}
}

func TestResolve_OnlyMediumIsEscalated(t *testing.T) {
	client := &llmtest.MockClient{}
	v := NewVerifier(client, 2, nil, nil)

	for _, confidence := range []types.Confidence{types.ConfidenceHigh, types.ConfidenceLow} {
		in := mediumResult()
		in.Confidence = confidence
		got, err := v.Resolve(context.Background(), volumeReq, in)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
	assert.Equal(t, 0, client.Calls())
}

func TestVerify_ConcurrencyIsBounded(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int64
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return `{"matched": true, "rationale": "ok"}`, nil
		},
	}
	v := NewVerifier(client, limit, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Resolve(context.Background(), volumeReq, mediumResult())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, client.Calls())
	assert.LessOrEqual(t, peak.Load(), int64(limit))
	assert.GreaterOrEqual(t, peak.Load(), int64(1))
}

func TestVerify_CancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			close(started)
			<-release
			return `{"matched": true}`, nil
		},
	}
	v := NewVerifier(client, 1, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = v.Verify(context.Background(), volumeReq, "evidence")
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Resolve(ctx, volumeReq, mediumResult())
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
	assert.Equal(t, 1, client.Calls())
}

func TestNewVerifier_DefaultLimit(t *testing.T) {
	v := NewVerifier(&llmtest.MockClient{}, 0, nil, nil)
	assert.Equal(t, DefaultMaxConcurrent, v.MaxConcurrent())
}
