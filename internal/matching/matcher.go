// Package matching decides, per job requirement, whether a resume provides
// supporting evidence. Exact skill and tool mentions match outright; anything
// else is compared by embedding similarity against the resume's evidence spans.
package matching

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/idf"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/ontology"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Thresholds split raw cosine similarity into confidence tiers
type Thresholds struct {
	High   float64
	Medium float64
}

// DefaultThresholds returns the calibrated defaults
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.80, Medium: 0.55}
}

// Validate checks 0 <= Medium < High <= 1
func (t Thresholds) Validate() error {
	if t.Medium < 0 || t.High > 1 || t.Medium >= t.High {
		return fmt.Errorf("invalid thresholds: need 0 <= medium (%.2f) < high (%.2f) <= 1", t.Medium, t.High)
	}
	return nil
}

// nearestSkills is how many ontology neighbors feed the dominant term fallback
const nearestSkills = 3

// Matcher holds the read-only tables shared by every scoring run.
type Matcher struct {
	ontology   *ontology.Store
	idf        *idf.Index
	thresholds Thresholds
	logger     *zap.Logger
}

// NewMatcher creates a matcher. The ontology and IDF index may be nil, in
// which case skill embeddings are always computed and every weight is 1.0.
func NewMatcher(store *ontology.Store, index *idf.Index, thresholds Thresholds, log *zap.Logger) *Matcher {
	return &Matcher{
		ontology:   store,
		idf:        index,
		thresholds: thresholds,
		logger:     logger.WithFields(log),
	}
}

// Thresholds returns the configured thresholds
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Session is the per-run matching state for one resume: its evidence spans
// and a memoized embedder. A Session is safe for concurrent Match calls.
type Session struct {
	matcher  *Matcher
	resume   *types.ParsedResume
	spans    []Span
	vectors  [][]float32
	embedder *memoEmbedder
	// evidenceErr is set when span embedding failed; semantic matching is then skipped.
	evidenceErr error
}

// NewSession embeds the resume's evidence spans and, when given, prefetches
// requirement embeddings in one batch. Embedding failures never fail the
// session: they surface per requirement from Match.
func (m *Matcher) NewSession(ctx context.Context, resume *types.ParsedResume, requirements []types.ParsedRequirement, embedder llm.Embedder) *Session {
	s := &Session{
		matcher:  m,
		resume:   resume,
		spans:    EvidenceSpans(resume),
		embedder: newMemoEmbedder(embedder),
	}
	s.vectors = make([][]float32, len(s.spans))

	var texts []string
	var pending []int
	for i, span := range s.spans {
		if v, ok := m.ontologyVector(span); ok {
			s.vectors[i] = v
			continue
		}
		texts = append(texts, span.Text)
		pending = append(pending, i)
	}

	// Ontology vectors are only usable at the live model's dimension. When
	// every span came from the ontology, one span is embedded to learn it.
	if len(texts) == 0 && len(s.spans) > 0 {
		texts = []string{s.spans[0].Text}
		pending = []int{0}
	}

	if len(texts) > 0 {
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			s.evidenceErr = err
			m.logger.Warn("evidence embedding failed; only exact matches are possible", zap.Error(err))
		} else {
			for j, i := range pending {
				s.vectors[i] = vectors[j]
			}
			s.reembedMismatched(ctx, len(vectors[0]))
		}
	}

	if s.evidenceErr == nil && len(requirements) > 0 {
		reqTexts := make([]string, 0, len(requirements))
		for _, r := range requirements {
			if text := strings.TrimSpace(r.Description); text != "" {
				reqTexts = append(reqTexts, text)
			}
		}
		if _, err := s.embedder.Embed(ctx, reqTexts); err != nil {
			m.logger.Debug("requirement prefetch failed; embedding individually", zap.Error(err))
		}
	}
	return s
}

// reembedMismatched replaces ontology vectors whose dimension differs from
// the live embedding model.
func (s *Session) reembedMismatched(ctx context.Context, dimension int) {
	var texts []string
	var idx []int
	for i, v := range s.vectors {
		if len(v) != dimension {
			texts = append(texts, s.spans[i].Text)
			idx = append(idx, i)
		}
	}
	if len(texts) == 0 {
		return
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		s.matcher.logger.Warn("skill span embedding failed", zap.Error(err))
		return
	}
	for j, i := range idx {
		s.vectors[i] = vectors[j]
	}
}

// Spans returns the session's evidence spans
func (s *Session) Spans() []Span {
	return s.spans
}

// Match compares a requirement against the resume without calling a language model.
func (m *Matcher) Match(ctx context.Context, req types.ParsedRequirement, resume *types.ParsedResume, embedder llm.Embedder) (types.MatchResult, error) {
	return m.NewSession(ctx, resume, nil, embedder).Match(ctx, req)
}

// Match returns the deterministic result for req. On a
// MalformedRequirementError the returned result is already marked
// unmatched with low confidence.
func (s *Session) Match(ctx context.Context, req types.ParsedRequirement) (types.MatchResult, error) {
	m := s.matcher
	result := types.MatchResult{
		RequirementID: req.ID,
		Requirement:   req.Description,
		MustHave:      req.MustHave,
		Confidence:    types.ConfidenceLow,
		Verification:  types.VerificationDeterministic,
		Weight:        1.0,
	}

	text := strings.TrimSpace(req.Description)
	if !hasAlphanumeric(text) {
		result.Rationale = "requirement has no usable text"
		return result, &MalformedRequirementError{RequirementID: req.ID, Reason: "requirement has no usable text"}
	}

	if name, ok := s.exactMention(text); ok {
		result.DominantTerm, result.Weight = m.idf.DominantTerm(text, name)
		result.Matched = true
		result.Similarity = 1.0
		result.Evidence = name
		result.Confidence = types.ConfidenceHigh
		result.Rationale = fmt.Sprintf("resume lists %q", name)
		return result, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		result.DominantTerm, result.Weight = m.idf.DominantTerm(text)
		result.Rationale = "requirement embedding failed"
		return result, &MalformedRequirementError{RequirementID: req.ID, Reason: "requirement embedding failed", Cause: err}
	}
	query := vectors[0]
	result.DominantTerm, result.Weight = m.idf.DominantTerm(text, m.neighborNames(query)...)

	if s.evidenceErr != nil {
		result.Rationale = "resume evidence could not be embedded"
		return result, nil
	}

	best, bestSim := -1, 0.0
	for i, v := range s.vectors {
		sim := ontology.Cosine(query, v)
		if best < 0 || sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		result.Rationale = "resume has no evidence to compare"
		return result, nil
	}

	span := s.spans[best]
	result.Similarity = clamp01(bestSim)
	result.Evidence = span.Text

	switch {
	case bestSim >= m.thresholds.High:
		result.Matched = true
		result.Confidence = types.ConfidenceHigh
	case bestSim >= m.thresholds.Medium:
		result.Confidence = types.ConfidenceMedium
	default:
		result.Confidence = types.ConfidenceLow
	}
	result.Rationale = fmt.Sprintf("closest %s evidence at similarity %.2f", strings.ReplaceAll(span.Source, "_", " "), bestSim)
	return result, nil
}

// exactMention finds a resume skill or tool that the requirement names, or
// that names the requirement, on token boundaries after normalization.
func (s *Session) exactMention(requirement string) (string, bool) {
	reqTokens := skills.Tokens(requirement)
	if len(reqTokens) == 0 {
		return "", false
	}
	names := append(s.resume.SkillNames(), s.resume.Tools...)
	for _, name := range names {
		nameTokens := skills.Tokens(name)
		if len(nameTokens) == 0 {
			continue
		}
		if skills.ContainsTokens(reqTokens, nameTokens) || skills.ContainsTokens(nameTokens, reqTokens) {
			return name, true
		}
	}
	return "", false
}

func (m *Matcher) ontologyVector(span Span) ([]float32, bool) {
	if m.ontology == nil || (span.Source != SourceSkill && span.Source != SourceTool) {
		return nil, false
	}
	entry, ok := m.ontology.Lookup(span.Text)
	if !ok || len(entry.Embedding) == 0 {
		return nil, false
	}
	return entry.Embedding, true
}

func (m *Matcher) neighborNames(query []float32) []string {
	if m.ontology == nil || m.ontology.Dimension() != len(query) {
		return nil
	}
	neighbors := m.ontology.NearestSkills(query, nearestSkills)
	names := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		names = append(names, n.Entry.Name)
	}
	return names
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
