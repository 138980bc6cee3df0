// Package scoring blends requirement evidence and skill overlap into a
// single score and bounds it by the gate's caps.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/gate"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Weights control the blend
type Weights struct {
	Requirement  float64 `mapstructure:"requirement_weight" validate:"gte=0,lte=1"`
	SkillOverlap float64 `mapstructure:"skill_overlap_weight" validate:"gte=0,lte=1"`
	MustHave     float64 `mapstructure:"must_have_weight" validate:"gt=0"`
	Preferred    float64 `mapstructure:"preferred_weight" validate:"gt=0"`
}

// DefaultWeights returns the default blend weights
func DefaultWeights() Weights {
	return Weights{
		Requirement:  0.8,
		SkillOverlap: 0.2,
		MustHave:     1.0,
		Preferred:    0.5,
	}
}

// Validate checks that the two shares sum to 1
func (w Weights) Validate() error {
	if math.Abs(w.Requirement+w.SkillOverlap-1) > 1e-9 {
		return fmt.Errorf("requirement weight (%.2f) and skill overlap weight (%.2f) must sum to 1", w.Requirement, w.SkillOverlap)
	}
	if w.MustHave <= 0 || w.Preferred <= 0 {
		return fmt.Errorf("must-have and preferred weights must be positive")
	}
	return nil
}

// Blend returns the uncapped score in [0,100]. Requirement evidence counts
// the similarity of matched and medium results, weighted by IDF weight and
// must-have status; low results contribute nothing. With no requirements
// the skill overlap stands alone, and with no skills or tools on either side
// the requirement evidence does.
func Blend(matches []types.MatchResult, resume *types.ParsedResume, jd *types.ParsedJD, w Weights) float64 {
	overlap, hasSkills := skillOverlap(resume, jd)
	evidence, hasRequirements := requirementEvidence(matches, w)

	var blend float64
	switch {
	case hasRequirements && hasSkills:
		blend = w.Requirement*evidence + w.SkillOverlap*overlap
	case hasRequirements:
		blend = evidence
	default:
		blend = overlap
	}
	return clamp(100*blend, 0, 100)
}

func requirementEvidence(matches []types.MatchResult, w Weights) (float64, bool) {
	if len(matches) == 0 {
		return 0, false
	}
	var weighted, total float64
	for _, m := range matches {
		weight := m.Weight
		if weight <= 0 {
			weight = 1
		}
		if m.MustHave {
			weight *= w.MustHave
		} else {
			weight *= w.Preferred
		}
		total += weight
		if m.Matched || m.Confidence == types.ConfidenceMedium {
			weighted += weight * m.Similarity
		}
	}
	if total == 0 {
		return 0, false
	}
	return weighted / total, true
}

// skillOverlap is the Jaccard overlap of normalized skills and tools. The
// second result is false when neither document names any.
func skillOverlap(resume *types.ParsedResume, jd *types.ParsedJD) (float64, bool) {
	var resumeKeys, jdKeys map[string]bool
	if resume != nil {
		resumeKeys = skillKeys(&resume.Claims)
	}
	if jd != nil {
		jdKeys = skillKeys(&jd.Claims)
	}

	union := len(resumeKeys)
	intersection := 0
	for k := range jdKeys {
		if resumeKeys[k] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, false
	}
	return float64(intersection) / float64(union), true
}

func skillKeys(c *types.Claims) map[string]bool {
	keys := make(map[string]bool)
	for _, name := range append(c.SkillNames(), c.Tools...) {
		if key := skills.Key(name); key != "" {
			keys[key] = true
		}
	}
	return keys
}

// Compose bounds blend by the caps and explains the result. The binding cap
// is the smallest cap strictly below the blend; ties keep Applied order.
// The score is given to one decimal and never rounds up past a cap.
func Compose(blend float64, caps gate.Caps, matches []types.MatchResult) *types.ScoreResult {
	blend = round1(clamp(blend, 0, 100))
	applied := caps.Applied()

	score := blend
	binding := -1
	for i, c := range applied {
		if c.Value < blend && (binding < 0 || c.Value < applied[binding].Value) {
			binding = i
		}
		score = math.Min(score, c.Value)
	}
	score = clamp(score, 0, 100)
	if rounded := round1(score); rounded <= score {
		score = rounded
	} else {
		score = math.Floor(score*10) / 10
	}

	result := &types.ScoreResult{
		Score:         score,
		BlendScore:    blend,
		Matches:       matches,
		Caps:          applied,
		RoleAlignment: caps.Alignment,
	}
	if binding >= 0 {
		applied[binding].Binding = true
		result.BindingCap = applied[binding].Name
	}
	if result.Matches == nil {
		result.Matches = []types.MatchResult{}
	}
	result.Justification = justify(result, binding)
	return result
}

func justify(result *types.ScoreResult, binding int) string {
	var parts []string

	if binding >= 0 {
		c := result.Caps[binding]
		parts = append(parts, fmt.Sprintf("Score %.1f limited by %s cap %.1f (blend %.1f): %s",
			result.Score, strings.ReplaceAll(c.Name, "_", " "), c.Value, result.BlendScore, c.Reason))
	} else {
		parts = append(parts, fmt.Sprintf("Score %.1f reflects the evidence blend; no cap was binding", result.Score))
	}

	var matched, missing []string
	for _, m := range result.Matches {
		if m.Matched {
			matched = append(matched, m.Requirement)
		} else {
			missing = append(missing, m.Requirement)
		}
	}
	if len(matched) > 0 {
		parts = append(parts, fmt.Sprintf("Matched (%s)", strings.Join(matched, "; ")))
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("Missing (%s)", strings.Join(missing, "; ")))
	}
	if len(result.Matches) == 0 {
		parts = append(parts, "No requirements listed")
	}
	return strings.Join(parts, ". ")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
