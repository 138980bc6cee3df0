package types

// Confidence is the certainty tier of a requirement/evidence match
type Confidence string

// Confidence tiers
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// VerificationSource records which stage decided a match
type VerificationSource string

// Verification sources
const (
	VerificationDeterministic VerificationSource = "deterministic"
	VerificationLLM           VerificationSource = "llm_verified"
)

// MatchResult is the outcome of matching one requirement against one resume
type MatchResult struct {
	RequirementID string             `json:"requirement_id"`
	Requirement   string             `json:"requirement"`
	MustHave      bool               `json:"must_have"`
	Matched       bool               `json:"matched"`
	Similarity    float64            `json:"similarity"`
	Evidence      string             `json:"evidence"`
	Confidence    Confidence         `json:"confidence"`
	Verification  VerificationSource `json:"verification"`
	Weight        float64            `json:"weight"`
	DominantTerm  string             `json:"dominant_term,omitempty"`
	Rationale     string             `json:"rationale,omitempty"`
}

// Cap names
const (
	CapRoleAlignment      = "role_alignment"
	CapMustHave           = "must_have"
	CapCoverageConfidence = "coverage_confidence"
)

// AppliedCap is one structural upper bound considered by the composer
type AppliedCap struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Binding bool    `json:"binding"`
	Reason  string  `json:"reason,omitempty"`
}

// RoleAlignment describes how the resume and JD occupational categories relate
type RoleAlignment struct {
	ResumeCategories []string `json:"resume_categories"`
	JDCategories     []string `json:"jd_categories"`
	Relation         string   `json:"relation"` // same, adjacent, unrelated, unknown
}

// ScoreResult is the final output of one scoring run
type ScoreResult struct {
	RunID         string        `json:"run_id"`
	Score         float64       `json:"score"`
	BlendScore    float64       `json:"blend_score"`
	Matches       []MatchResult `json:"matches"`
	Caps          []AppliedCap  `json:"caps"`
	BindingCap    string        `json:"binding_cap,omitempty"`
	Justification string        `json:"justification"`
	RoleAlignment RoleAlignment `json:"role_alignment"`
}

// Cap returns the applied cap with the given name
func (r *ScoreResult) Cap(name string) (AppliedCap, bool) {
	for _, c := range r.Caps {
		if c.Name == name {
			return c, true
		}
	}
	return AppliedCap{}, false
}
