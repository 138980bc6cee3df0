// Package gate computes the structural upper bounds on a match score: how
// well the occupational domains line up, whether the mandatory requirements
// are met, and how confident the requirement coverage is.
package gate

import (
	"fmt"
	"math"
	"strings"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Config holds every cap value. Same-domain alignment and the absence of
// missing must-haves always cap at 100.
type Config struct {
	AdjacentCap       float64 `mapstructure:"adjacent_cap" validate:"gte=0,lte=100"`
	UnrelatedCap      float64 `mapstructure:"unrelated_cap" validate:"gte=0,lte=100"`
	MustHaveCap       float64 `mapstructure:"must_have_cap" validate:"gte=0,lte=100"`
	MustHaveSevereCap float64 `mapstructure:"must_have_severe_cap" validate:"gte=0,lte=100"`
	CoverageFloor     float64 `mapstructure:"coverage_floor" validate:"gte=0,lte=100"`
	MediumCredit      float64 `mapstructure:"medium_credit" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the calibrated cap values
func DefaultConfig() Config {
	return Config{
		AdjacentCap:       75,
		UnrelatedCap:      40,
		MustHaveCap:       50,
		MustHaveSevereCap: 35,
		CoverageFloor:     30,
		MediumCredit:      0.5,
	}
}

// Validate checks cross-field ordering
func (c Config) Validate() error {
	if c.UnrelatedCap > c.AdjacentCap {
		return fmt.Errorf("unrelated cap (%.1f) must not exceed adjacent cap (%.1f)", c.UnrelatedCap, c.AdjacentCap)
	}
	if c.MustHaveSevereCap > c.MustHaveCap {
		return fmt.Errorf("severe must-have cap (%.1f) must not exceed must-have cap (%.1f)", c.MustHaveSevereCap, c.MustHaveCap)
	}
	return nil
}

const maxCap = 100.0

// Caps are the three structural bounds plus the reasoning behind each
type Caps struct {
	RoleAlignment      float64
	MustHave           float64
	CoverageConfidence float64

	Alignment      types.RoleAlignment
	RoleReason     string
	MustHaveReason string
	CoverageReason string
}

// Applied lists the caps in tie-break order: role alignment, must-have, coverage confidence.
func (c Caps) Applied() []types.AppliedCap {
	return []types.AppliedCap{
		{Name: types.CapRoleAlignment, Value: c.RoleAlignment, Reason: c.RoleReason},
		{Name: types.CapMustHave, Value: c.MustHave, Reason: c.MustHaveReason},
		{Name: types.CapCoverageConfidence, Value: c.CoverageConfidence, Reason: c.CoverageReason},
	}
}

// Min returns the lowest cap value
func (c Caps) Min() float64 {
	return math.Min(c.RoleAlignment, math.Min(c.MustHave, c.CoverageConfidence))
}

// Gate computes caps with a fixed configuration.
type Gate struct {
	cfg Config
}

// New creates a gate
func New(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Config returns the gate's configuration
func (g *Gate) Config() Config {
	return g.cfg
}

// ComputeCaps derives all three caps from the documents and the final
// (post-verification) match results.
func (g *Gate) ComputeCaps(resume *types.ParsedResume, jd *types.ParsedJD, matches []types.MatchResult) Caps {
	var caps Caps
	caps.Alignment, caps.RoleAlignment, caps.RoleReason = g.roleAlignment(resume, jd)
	caps.MustHave, caps.MustHaveReason = g.mustHave(matches)
	caps.CoverageConfidence, caps.CoverageReason = g.coverage(matches)
	return caps
}

func (g *Gate) roleAlignment(resume *types.ParsedResume, jd *types.ParsedJD) (types.RoleAlignment, float64, string) {
	alignment := types.RoleAlignment{
		ResumeCategories: nonNil(ClassifyResume(resume)),
		JDCategories:     nonNil(ClassifyJD(jd)),
	}
	alignment.Relation = Relate(alignment.ResumeCategories, alignment.JDCategories)

	resumeSide := strings.Join(alignment.ResumeCategories, ", ")
	jdSide := strings.Join(alignment.JDCategories, ", ")
	switch alignment.Relation {
	case RelationSame:
		return alignment, maxCap, fmt.Sprintf("resume and job share a domain (%s)", sharedCategory(alignment))
	case RelationAdjacent:
		return alignment, g.cfg.AdjacentCap, fmt.Sprintf("resume domain (%s) is adjacent to the job domain (%s)", resumeSide, jdSide)
	case RelationUnrelated:
		return alignment, g.cfg.UnrelatedCap, fmt.Sprintf("resume domain (%s) is unrelated to the job domain (%s)", resumeSide, jdSide)
	default:
		return alignment, maxCap, "insufficient domain signal"
	}
}

// mustHave counts a must-have as missing only when it ended low confidence.
// Unresolved medium results are penalised by the coverage cap instead.
func (g *Gate) mustHave(matches []types.MatchResult) (float64, string) {
	total := 0
	var missing []string
	for _, m := range matches {
		if !m.MustHave {
			continue
		}
		total++
		if m.Confidence == types.ConfidenceLow {
			missing = append(missing, m.Requirement)
		}
	}

	switch {
	case total == 0:
		return maxCap, "job lists no must-have requirements"
	case len(missing) == 0:
		return maxCap, fmt.Sprintf("none of %d must-have requirements missing", total)
	case 2*len(missing) > total:
		return g.cfg.MustHaveSevereCap, fmt.Sprintf("%d of %d must-have requirements missing: %s", len(missing), total, strings.Join(missing, "; "))
	default:
		return g.cfg.MustHaveCap, fmt.Sprintf("%d of %d must-have requirements missing: %s", len(missing), total, strings.Join(missing, "; "))
	}
}

func (g *Gate) coverage(matches []types.MatchResult) (float64, string) {
	if len(matches) == 0 {
		return maxCap, "job lists no requirements"
	}
	high, medium := 0, 0
	for _, m := range matches {
		switch m.Confidence {
		case types.ConfidenceHigh:
			high++
		case types.ConfidenceMedium:
			medium++
		}
	}
	coverage := (float64(high) + g.cfg.MediumCredit*float64(medium)) / float64(len(matches))
	value := round1(g.cfg.CoverageFloor + (maxCap-g.cfg.CoverageFloor)*coverage)
	return value, fmt.Sprintf("%d high and %d medium confidence of %d requirements", high, medium, len(matches))
}

func sharedCategory(a types.RoleAlignment) string {
	for _, r := range a.ResumeCategories {
		for _, j := range a.JDCategories {
			if r == j {
				return r
			}
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
