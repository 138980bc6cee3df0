// Package types provides type definitions for the structured claims and score artifacts shared across the matching engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"

	"github.com/go-playground/validator/v10"
)

// DocumentKind identifies which kind of document a claim object was extracted from
type DocumentKind string

const (
	// KindResume is a candidate resume
	KindResume DocumentKind = "resume"
	// KindJD is a job description
	KindJD DocumentKind = "jd"
)

// Valid reports whether k is a supported document kind
func (k DocumentKind) Valid() bool {
	return k == KindResume || k == KindJD
}

// Seniority is the coarse career level stated or implied by a document
type Seniority string

// Seniority levels, ordered from least to most senior
const (
	SeniorityUnknown   Seniority = "unknown"
	SeniorityIntern    Seniority = "intern"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityPrincipal Seniority = "principal"
	SeniorityDirector  Seniority = "director"
	SeniorityExecutive Seniority = "executive"
)

// Scope is the geographic reach of the work described
type Scope string

// Scope values
const (
	ScopeUnknown  Scope = "unknown"
	ScopeLocal    Scope = "local"
	ScopeRegional Scope = "regional"
	ScopeNational Scope = "national"
	ScopeGlobal   Scope = "global"
	ScopeEMEA     Scope = "emea"
	ScopeLATAM    Scope = "latam"
	ScopeAPAC     Scope = "apac"
	ScopeNA       Scope = "na"
)

// ScaleClaim is a numeric magnitude claim such as "1,000+ hires" or "$4M budget"
type ScaleClaim struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Context string  `json:"context"`
}

// GrowthClaim is a relative change claim such as "grew revenue 40%"
type GrowthClaim struct {
	Metric     string  `json:"metric"`
	Percentage float64 `json:"percentage"`
	Direction  string  `json:"direction" validate:"omitempty,oneof=up down"`
	Context    string  `json:"context"`
}

// Claims holds the fields shared by resumes and job descriptions
type Claims struct {
	Skills            map[string]bool `json:"skills"`
	Tools             []string        `json:"tools"`
	ScaleClaims       []ScaleClaim    `json:"scale_claims"`
	GrowthClaims      []GrowthClaim   `json:"growth_claims" validate:"dive"`
	Seniority         Seniority       `json:"seniority" validate:"oneof=unknown intern junior mid senior staff principal director executive"`
	Titles            []string        `json:"titles"`
	Companies         []string        `json:"companies"`
	YearsExperience   *int            `json:"years_experience" validate:"omitempty,min=0,max=80"`
	Domains           []string        `json:"domains"`
	Locations         []string        `json:"locations"`
	Scope             Scope           `json:"scope" validate:"oneof=unknown local regional national global emea latam apac na"`
	RemoteExperience  bool            `json:"remote_experience"`
	Certifications    []string        `json:"certifications"`
	Education         []string        `json:"education"`
	Languages         []string        `json:"languages"`
	WorkAuthorization *string         `json:"work_authorization"`
	Highlights        []string        `json:"highlights"` // verbatim achievement bullets
}

// ParsedResume is the claim object extracted from a resume
type ParsedResume struct {
	Claims
}

// ParsedJD is the claim object extracted from a job description
type ParsedJD struct {
	Claims
	RoleTitle    string              `json:"role_title"`
	Company      string              `json:"company"`
	Requirements []ParsedRequirement `json:"requirements" validate:"dive"`
}

// RequirementCategory tags what a requirement is about
type RequirementCategory string

// Requirement categories
const (
	CategorySkill     RequirementCategory = "skill"
	CategoryDomain    RequirementCategory = "domain"
	CategoryScale     RequirementCategory = "scale"
	CategorySeniority RequirementCategory = "seniority"
	CategoryOther     RequirementCategory = "other"
)

// ParsedRequirement is one atomic requirement from a job description
type ParsedRequirement struct {
	ID          string              `json:"id" validate:"required"`
	Description string              `json:"description"`
	Category    RequirementCategory `json:"category" validate:"oneof=skill domain scale seniority other"`
	MustHave    bool                `json:"must_have"`
}

// EnsureDefaults replaces nil collections with empty ones and blank enums with unknown.
func (c *Claims) EnsureDefaults() {
	if c.Skills == nil {
		c.Skills = map[string]bool{}
	}
	c.Tools = emptyIfNil(c.Tools)
	if c.ScaleClaims == nil {
		c.ScaleClaims = []ScaleClaim{}
	}
	if c.GrowthClaims == nil {
		c.GrowthClaims = []GrowthClaim{}
	}
	c.Titles = emptyIfNil(c.Titles)
	c.Companies = emptyIfNil(c.Companies)
	c.Domains = emptyIfNil(c.Domains)
	c.Locations = emptyIfNil(c.Locations)
	c.Certifications = emptyIfNil(c.Certifications)
	c.Education = emptyIfNil(c.Education)
	c.Languages = emptyIfNil(c.Languages)
	c.Highlights = emptyIfNil(c.Highlights)
	if c.Seniority == "" {
		c.Seniority = SeniorityUnknown
	}
	if c.Scope == "" {
		c.Scope = ScopeUnknown
	}
}

// EnsureDefaults fills defaults on the shared claims and the requirement list.
func (jd *ParsedJD) EnsureDefaults() {
	jd.Claims.EnsureDefaults()
	if jd.Requirements == nil {
		jd.Requirements = []ParsedRequirement{}
	}
	for i := range jd.Requirements {
		if jd.Requirements[i].Category == "" {
			jd.Requirements[i].Category = CategoryOther
		}
	}
}

// SkillNames returns the names of skills marked present, sorted
func (c *Claims) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for name, present := range c.Skills {
		if present {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MustHaves returns the mandatory requirements
func (jd *ParsedJD) MustHaves() []ParsedRequirement {
	var out []ParsedRequirement
	for _, r := range jd.Requirements {
		if r.MustHave {
			out = append(out, r)
		}
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var claimValidator = validator.New()

// Validate checks enum fields and requirement identifiers
func (r *ParsedResume) Validate() error {
	return claimValidator.Struct(r)
}

// Validate checks enum fields and requirement identifiers
func (jd *ParsedJD) Validate() error {
	return claimValidator.Struct(jd)
}
