package claims

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/cache"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm/llmtest"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

const resumeResponse = "```json\n" + `{
  "skills": ["golang", "K8s", "Recruiting"],
  "tools": ["postgres", "Postgres"],
  "scale_claims": [{"metric": "hires", "value": "1,000+", "context": "contributing to 1,000+ ML Gen hires"}],
  "growth_claims": [{"metric": "churn", "percentage": -12, "direction": null, "context": "cut churn 12%"}],
  "seniority": "Sr",
  "years_experience": "7",
  "scope": "Worldwide",
  "remote_experience": "yes",
  "titles": ["Recruiter", " recruiter "],
  "highlights": null
}` + "\n```"

const jdResponse = `{
  "role_title": " Technical Recruiter ",
  "company": "Acme",
  "requirements": [
    "High-volume recruiting experience",
    {"description": "Familiarity with Greenhouse", "category": "tool", "must_have": "preferred"},
    {"description": "   "},
    {"description": "5+ years in talent acquisition", "category": "Seniority", "must_have": true}
  ],
  "skills": {"Sourcing": true, "Negotiation": false},
  "domains": ["recruiting"]
}`

func newTestExtractor(client llm.Client, opts Options) *Extractor {
	return NewExtractor(client, opts)
}

func TestExtract_Resume(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierStandard, tier)
			return resumeResponse, nil
		},
	}
	x := newTestExtractor(client, Options{})

	resume, err := x.ExtractResume(context.Background(), "Senior recruiter resume text")
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"Go": true, "Kubernetes": true, "Recruiting": true}, resume.Skills)
	assert.Equal(t, []string{"PostgreSQL"}, resume.Tools)
	require.Len(t, resume.ScaleClaims, 1)
	assert.Equal(t, 1000.0, resume.ScaleClaims[0].Value)
	require.Len(t, resume.GrowthClaims, 1)
	assert.Equal(t, "down", resume.GrowthClaims[0].Direction)
	assert.Equal(t, 12.0, resume.GrowthClaims[0].Percentage)
	assert.Equal(t, types.SenioritySenior, resume.Seniority)
	require.NotNil(t, resume.YearsExperience)
	assert.Equal(t, 7, *resume.YearsExperience)
	assert.Equal(t, types.ScopeGlobal, resume.Scope)
	assert.True(t, resume.RemoteExperience)
	assert.Equal(t, []string{"Recruiter"}, resume.Titles)
	assert.NotNil(t, resume.Highlights)
	assert.Empty(t, resume.Highlights)
}

func TestExtract_JD(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return jdResponse, nil
		},
	}
	x := newTestExtractor(client, Options{})

	jd, err := x.ExtractJD(context.Background(), "We are hiring a technical recruiter")
	require.NoError(t, err)

	assert.Equal(t, "Technical Recruiter", jd.RoleTitle)
	assert.Equal(t, map[string]bool{"Sourcing": true}, jd.Skills)
	assert.Equal(t, []types.ParsedRequirement{
		{ID: "req-1", Description: "High-volume recruiting experience", Category: types.CategoryOther, MustHave: true},
		{ID: "req-2", Description: "Familiarity with Greenhouse", Category: types.CategorySkill, MustHave: false},
		{ID: "req-3", Description: "5+ years in talent acquisition", Category: types.CategorySeniority, MustHave: true},
	}, jd.Requirements)
}

func TestExtract_JDNullEntriesAreSkipped(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{
  "role_title": "Technical Recruiter",
  "requirements": [null, "Full-cycle recruiting experience", null],
  "scale_claims": [null, {"metric": "hires", "value": 200}]
}`, nil
		},
	}
	x := newTestExtractor(client, Options{})

	jd, err := x.ExtractJD(context.Background(), "Technical recruiter, full-cycle")
	require.NoError(t, err)

	assert.Equal(t, []types.ParsedRequirement{
		{ID: "req-1", Description: "Full-cycle recruiting experience", Category: types.CategoryOther, MustHave: true},
	}, jd.Requirements)
	require.Len(t, jd.ScaleClaims, 1)
	assert.Equal(t, 200.0, jd.ScaleClaims[0].Value)
	assert.Equal(t, 1, client.Calls())
}

func TestExtract_EmptyObjectGetsDefaults(t *testing.T) {
	client := &llmtest.MockClient{}
	x := newTestExtractor(client, Options{})

	for _, kind := range []types.DocumentKind{types.KindResume, types.KindJD} {
		e, err := x.Extract(context.Background(), "some document", kind)
		require.NoError(t, err)

		payload, err := e.MarshalClaims()
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(payload, &fields))

		for name, value := range fields {
			switch name {
			case "years_experience", "work_authorization":
				assert.Nil(t, value, name)
			default:
				assert.NotNil(t, value, "%s %s must not be null", kind, name)
			}
		}
		assert.Equal(t, "unknown", fields["seniority"])
	}
}

func TestExtract_IdenticalInputCallsModelOnce(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return resumeResponse, nil
		},
	}
	x := newTestExtractor(client, Options{})
	ctx := context.Background()

	first, err := x.Extract(ctx, "Recruiter\n\nResume", types.KindResume)
	require.NoError(t, err)
	second, err := x.Extract(ctx, "  Recruiter Resume ", types.KindResume)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, client.Calls())

	_, err = x.Extract(ctx, "Recruiter Resume", types.KindJD)
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls(), "kind is part of the key")
}

func TestExtract_ConcurrentCallersShareOneCall(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return resumeResponse, nil
		},
	}
	x := newTestExtractor(client, Options{})

	var wg sync.WaitGroup
	results := make([]*Extraction, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := x.Extract(context.Background(), "same resume", types.KindResume)
			assert.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, client.Calls())
	for _, e := range results {
		assert.Same(t, results[0], e)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	client := &llmtest.MockClient{}
	x := newTestExtractor(client, Options{})

	_, err := x.Extract(context.Background(), " \n\t ", types.KindResume)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, StageInput, extractionErr.Stage)
	assert.Equal(t, 0, client.Calls())
}

func TestExtract_UnsupportedKind(t *testing.T) {
	x := newTestExtractor(&llmtest.MockClient{}, Options{})
	_, err := x.Extract(context.Background(), "text", types.DocumentKind("cover_letter"))
	var extractionErr *ExtractionError
	assert.True(t, errors.As(err, &extractionErr))
}

func TestExtract_RetriesOnceThenSucceeds(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	attempts := 0
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			attempts++
			if attempts == 1 {
				return "", errors.New("connection reset")
			}
			return resumeResponse, nil
		},
	}
	x := newTestExtractor(client, Options{Metrics: m})

	_, err := x.ExtractResume(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractionCalls.WithLabelValues("resume")))
}

func TestExtract_FailsAfterRetry(t *testing.T) {
	tests := []struct {
		name     string
		response string
		stage    string
	}{
		{name: "not json", response: "I cannot help with that", stage: StageParse},
		{name: "schema violation", response: `{"skills": 5}`, stage: StageSchema},
		{name: "wrong list type", response: `{"titles": "Recruiter"}`, stage: StageSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			client := &llmtest.MockClient{
				GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
					return tt.response, nil
				},
			}
			x := newTestExtractor(client, Options{Metrics: m})

			_, err := x.Extract(context.Background(), "resume", types.KindResume)

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr), "got %v", err)
			assert.Equal(t, tt.stage, extractionErr.Stage)
			assert.Equal(t, types.KindResume, extractionErr.Kind)
			assert.Equal(t, 2, client.Calls())
			assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("resume", tt.stage)))
		})
	}
}

func TestExtract_FailureIsNotCached(t *testing.T) {
	fail := true
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			if fail {
				return "", errors.New("unavailable")
			}
			return resumeResponse, nil
		},
	}
	x := newTestExtractor(client, Options{})

	_, err := x.ExtractResume(context.Background(), "resume")
	require.Error(t, err)

	fail = false
	_, err = x.ExtractResume(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, 3, client.Calls())
}

func TestExtract_Truncates(t *testing.T) {
	var prompt string
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, p string, _ llm.ModelTier) (string, error) {
			prompt = p
			return `{}`, nil
		},
	}
	x := newTestExtractor(client, Options{MaxInputChars: 10})

	_, err := x.Extract(context.Background(), "abcdéfghijKLMNOP", types.KindResume)
	require.NoError(t, err)

	assert.Contains(t, prompt, "\"\"\"\nabcdéfghij\n\"\"\"")
	assert.NotContains(t, prompt, "KLMNOP")
}

func TestExtract_PersistentTierSurvivesRestart(t *testing.T) {
	shared := cache.NewMemoryStore()
	first := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return jdResponse, nil
		},
	}
	x1 := newTestExtractor(first, Options{Cache: NewCache(nil, nil, shared)})
	jd1, err := x1.ExtractJD(context.Background(), "job text")
	require.NoError(t, err)
	assert.Equal(t, 1, shared.Len())

	second := &llmtest.MockClient{}
	x2 := newTestExtractor(second, Options{Cache: NewCache(nil, nil, shared)})
	jd2, err := x2.ExtractJD(context.Background(), "job text")
	require.NoError(t, err)

	assert.Equal(t, 0, second.Calls())
	assert.Equal(t, jd1, jd2)
}

func TestKey(t *testing.T) {
	a := Key(types.KindResume, "Go  developer\n")
	b := Key(types.KindResume, "Go developer")
	c := Key(types.KindJD, "Go developer")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "resume:"))
	assert.Len(t, strings.TrimPrefix(a, "resume:"), 64)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "unbounded", Truncate("unbounded", 0))
}
