package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/idf"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm/llmtest"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/ontology"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

const (
	volumeRequirement = "High-volume recruiting experience"
	volumeEvidence    = "contributing to 1,000+ ML Gen hires"
)

func recruiterResume() *types.ParsedResume {
	r := &types.ParsedResume{Claims: types.Claims{
		Skills:     map[string]bool{"Python": true},
		Titles:     []string{"Technical Recruiter"},
		Highlights: []string{volumeEvidence},
	}}
	r.EnsureDefaults()
	return r
}

// volumeEmbedder places the requirement and the hires highlight at cosine ~0.65.
func volumeEmbedder() *llmtest.FakeEmbedder {
	return &llmtest.FakeEmbedder{
		Vectors: map[string][]float32{
			volumeRequirement: {1, 0, 0},
			volumeEvidence:    {0.65, 0.76, 0},
		},
		Default: []float32{0, 0, 1},
	}
}

func req(id, text string, mustHave bool) types.ParsedRequirement {
	return types.ParsedRequirement{ID: id, Description: text, Category: types.CategoryOther, MustHave: mustHave}
}

func TestMatch_ExactSkillMention(t *testing.T) {
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	resume := recruiterResume()
	resume.Skills["Kubernetes"] = true

	result, err := m.Match(context.Background(), req("req-1", "Experience running K8s clusters", true), resume, volumeEmbedder())
	require.NoError(t, err)

	assert.True(t, result.Matched)
	assert.Equal(t, 1.0, result.Similarity)
	assert.Equal(t, types.ConfidenceHigh, result.Confidence)
	assert.Equal(t, types.VerificationDeterministic, result.Verification)
	assert.Equal(t, "Kubernetes", result.Evidence)
	assert.True(t, result.MustHave)
}

func TestMatch_NameContainsRequirement(t *testing.T) {
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	resume := recruiterResume()
	resume.Tools = []string{"Greenhouse ATS"}

	result, err := m.Match(context.Background(), req("req-1", "Greenhouse", false), resume, volumeEmbedder())
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "Greenhouse ATS", result.Evidence)
}

func TestMatch_NoSubstringFalsePositive(t *testing.T) {
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	resume := recruiterResume()
	resume.Skills["Go"] = true

	embedder := volumeEmbedder()
	embedder.Vectors["Good communication"] = []float32{-1, 0, 0}

	result, err := m.Match(context.Background(), req("req-1", "Good communication", false), resume, embedder)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
	assert.NotContains(t, result.Rationale, "resume lists")
}

func TestMatch_MediumSimilarityNeedsVerification(t *testing.T) {
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)

	result, err := m.Match(context.Background(), req("req-1", volumeRequirement, true), recruiterResume(), volumeEmbedder())
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Equal(t, types.ConfidenceMedium, result.Confidence)
	assert.Equal(t, types.VerificationDeterministic, result.Verification)
	assert.Equal(t, volumeEvidence, result.Evidence)
	assert.InDelta(t, 0.65, result.Similarity, 0.01)
	assert.Equal(t, "recruiting", result.DominantTerm)
	assert.Equal(t, 1.0, result.Weight)
	assert.Contains(t, result.Rationale, "highlight")
}

func TestMatch_ThresholdsAreConfigurable(t *testing.T) {
	m := NewMatcher(nil, nil, Thresholds{High: 0.6, Medium: 0.3}, nil)

	result, err := m.Match(context.Background(), req("req-1", volumeRequirement, true), recruiterResume(), volumeEmbedder())
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, types.ConfidenceHigh, result.Confidence)
}

func TestMatch_HighAndLow(t *testing.T) {
	embedder := &llmtest.FakeEmbedder{
		Vectors: map[string][]float32{
			"Sourcing passive candidates": {0, 1, 0},
			"Forklift certification":      {0, 0, 1},
			volumeEvidence:                 {0, 0.99, 0.1},
		},
		Default: []float32{1, 0, 0},
	}
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	session := m.NewSession(context.Background(), recruiterResume(), nil, embedder)

	high, err := session.Match(context.Background(), req("req-1", "Sourcing passive candidates", true))
	require.NoError(t, err)
	assert.True(t, high.Matched)
	assert.Equal(t, types.ConfidenceHigh, high.Confidence)

	low, err := session.Match(context.Background(), req("req-2", "Forklift certification", true))
	require.NoError(t, err)
	assert.False(t, low.Matched)
	assert.Equal(t, types.ConfidenceLow, low.Confidence)
	assert.Less(t, low.Similarity, 0.55)
}

func TestMatch_MalformedRequirement(t *testing.T) {
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)

	result, err := m.Match(context.Background(), req("req-9", " -- ", true), recruiterResume(), volumeEmbedder())

	var malformed *MalformedRequirementError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "req-9", malformed.RequirementID)
	assert.False(t, result.Matched)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
	assert.Equal(t, "req-9", result.RequirementID)
}

func TestMatch_RequirementEmbeddingFails(t *testing.T) {
	embedder := &llmtest.FakeEmbedder{Vectors: map[string][]float32{
		volumeEvidence:        {1, 0, 0},
		"Technical Recruiter": {0, 1, 0},
		"Python":              {0, 0, 1},
	}}
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)

	result, err := m.Match(context.Background(), req("req-1", "Unembeddable requirement", false), recruiterResume(), embedder)

	var malformed *MalformedRequirementError
	require.True(t, errors.As(err, &malformed))
	assert.Error(t, malformed.Cause)
	assert.False(t, result.Matched)
	assert.Equal(t, types.ConfidenceLow, result.Confidence)
}

func TestMatch_EvidenceEmbeddingFailureDegrades(t *testing.T) {
	embedder := &llmtest.FakeEmbedder{Err: errors.New("quota exceeded")}
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	session := m.NewSession(context.Background(), recruiterResume(), nil, embedder)

	// Exact mentions still work without embeddings.
	result, err := session.Match(context.Background(), req("req-1", "Python scripting", false))
	require.NoError(t, err)
	assert.True(t, result.Matched)

	result, err = session.Match(context.Background(), req("req-2", volumeRequirement, false))
	var malformed *MalformedRequirementError
	require.True(t, errors.As(err, &malformed))
	assert.False(t, result.Matched)
}

func TestSession_MemoizesEmbeddings(t *testing.T) {
	embedder := volumeEmbedder()
	m := NewMatcher(nil, nil, DefaultThresholds(), nil)
	requirements := []types.ParsedRequirement{
		req("req-1", volumeRequirement, true),
		req("req-2", volumeRequirement, false),
	}

	session := m.NewSession(context.Background(), recruiterResume(), requirements, embedder)
	for _, r := range requirements {
		_, err := session.Match(context.Background(), r)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, embedder.Calls(), "one batch for evidence, one for requirements")
	count := 0
	for _, text := range embedder.Texts() {
		if text == volumeRequirement {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSession_ReusesOntologyEmbeddings(t *testing.T) {
	store := ontology.NewStore([]ontology.Entry{
		{ID: "t1", Name: "Kubernetes", Category: ontology.CategoryTechnology, Aliases: []string{"k8s"}, Embedding: []float32{0, 1, 0}},
	})
	embedder := &llmtest.FakeEmbedder{
		Vectors: map[string][]float32{"Container orchestration": {0, 0.95, 0.05}},
		Default: []float32{1, 0, 0},
	}
	resume := recruiterResume()
	resume.Skills = map[string]bool{"K8s": true}

	m := NewMatcher(store, nil, DefaultThresholds(), nil)
	result, err := m.Match(context.Background(), req("req-1", "Container orchestration", true), resume, embedder)
	require.NoError(t, err)

	assert.True(t, result.Matched)
	assert.Equal(t, "K8s", result.Evidence)
	assert.NotContains(t, embedder.Texts(), "K8s")
}

func TestSession_ReembedsOntologyVectorsOfOtherDimension(t *testing.T) {
	store := ontology.NewStore([]ontology.Entry{
		{ID: "t1", Name: "Kubernetes", Category: ontology.CategoryTechnology, Embedding: []float32{1, 0}},
	})
	embedder := &llmtest.FakeEmbedder{
		Vectors: map[string][]float32{
			"Container orchestration": {0, 1, 0},
			"Kubernetes":              {0, 1, 0},
		},
		Default: []float32{1, 0, 0},
	}
	resume := &types.ParsedResume{Claims: types.Claims{Skills: map[string]bool{"Kubernetes": true}}}
	resume.EnsureDefaults()

	m := NewMatcher(store, nil, DefaultThresholds(), nil)
	result, err := m.Match(context.Background(), req("req-1", "Container orchestration", true), resume, embedder)
	require.NoError(t, err)

	assert.True(t, result.Matched)
	assert.Equal(t, types.ConfidenceHigh, result.Confidence)
	assert.Equal(t, "Kubernetes", result.Evidence)
	assert.InDelta(t, 1.0, result.Similarity, 1e-6)
	assert.Contains(t, embedder.Texts(), "Kubernetes")
}

func TestMatch_RecordsIDFWeight(t *testing.T) {
	index := idf.Build([]string{
		"recruiting coordinator",
		"recruiting manager",
		"high volume recruiting",
		"high volume recruiting for retail stores",
	}, []string{"High Volume Recruiting"})
	m := NewMatcher(nil, index, DefaultThresholds(), nil)

	result, err := m.Match(context.Background(), req("req-1", volumeRequirement, true), recruiterResume(), volumeEmbedder())
	require.NoError(t, err)

	assert.Equal(t, "high volume recruiting", result.DominantTerm)
	assert.Equal(t, index.Weight("high volume recruiting"), result.Weight)
	assert.Less(t, result.Weight, 1.0)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{High: 0.5, Medium: 0.5}.Validate())
	assert.Error(t, Thresholds{High: 1.2, Medium: 0.5}.Validate())
	assert.Error(t, Thresholds{High: 0.8, Medium: -0.1}.Validate())
}

func TestEvidenceSpans(t *testing.T) {
	resume := &types.ParsedResume{Claims: types.Claims{
		Highlights:   []string{"Hired 40 engineers", "hired 40 engineers"},
		ScaleClaims:  []types.ScaleClaim{{Metric: "hires", Value: 1000}},
		GrowthClaims: []types.GrowthClaim{{Metric: "pipeline", Direction: "up", Percentage: 35, Context: "Grew pipeline 35%"}},
		Skills:       map[string]bool{"Sourcing": true, "Excel": false},
		Tools:        []string{"Greenhouse"},
		Titles:       []string{"Recruiter"},
	}}
	resume.EnsureDefaults()

	assert.Equal(t, []Span{
		{Text: "Hired 40 engineers", Source: SourceHighlight},
		{Text: "1000 hires", Source: SourceScale},
		{Text: "Grew pipeline 35%", Source: SourceGrowth},
		{Text: "Sourcing", Source: SourceSkill},
		{Text: "Greenhouse", Source: SourceTool},
		{Text: "Recruiter", Source: SourceTitle},
	}, EvidenceSpans(resume))
}
