package claims

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// flexNumber accepts a JSON number, a numeric string such as "1,000+" or
// "$4M", or null.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.Value, n.Set = parseNumberish(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	n.Value, n.Set = f, true
	return nil
}

// parseNumberish reads magnitudes the way people write them in resumes.
func parseNumberish(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(",", "", "$", "", "+", "", "%", "", "~", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k':
		multiplier = 1e3
	case 'm':
		multiplier = 1e6
	case 'b':
		multiplier = 1e9
	}
	if multiplier != 1 {
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f * multiplier, true
}

// flexBool accepts booleans, "yes"/"no"/"true"/"false" strings, numbers, or null.
type flexBool struct {
	Value bool
	Set   bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Value, b.Set = truthy(raw)
	return nil
}

func truthy(raw any) (value, set bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "required", "must", "1":
			return true, true
		case "false", "no", "n", "preferred", "optional", "0":
			return false, true
		}
	}
	return false, false
}

// flexSkills accepts a presence map or a plain list of names.
type flexSkills map[string]bool

func (s *flexSkills) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := flexSkills{}
	switch v := raw.(type) {
	case map[string]any:
		for name, present := range v {
			value, set := truthy(present)
			// A mentioned key with no usable value counts as present.
			out[name] = value || !set
		}
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				out[name] = true
			}
		}
	case nil:
	default:
		return fmt.Errorf("skills must be an object or a list, got %T", raw)
	}
	*s = out
	return nil
}

// flexRequirement accepts a bare string or a requirement object.
type flexRequirement struct {
	Description string
	Category    string
	MustHave    flexBool
}

func (r *flexRequirement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Description)
	}
	var obj struct {
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		MustHave    flexBool `json:"must_have"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Description != nil {
		r.Description = *obj.Description
	}
	if obj.Category != nil {
		r.Category = *obj.Category
	}
	r.MustHave = obj.MustHave
	return nil
}

type wireScaleClaim struct {
	Metric  *string    `json:"metric"`
	Value   flexNumber `json:"value"`
	Context *string    `json:"context"`
}

type wireGrowthClaim struct {
	Metric     *string    `json:"metric"`
	Percentage flexNumber `json:"percentage"`
	Direction  *string    `json:"direction"`
	Context    *string    `json:"context"`
}

type wireClaims struct {
	Skills            flexSkills        `json:"skills"`
	Tools             []string          `json:"tools"`
	ScaleClaims       []wireScaleClaim  `json:"scale_claims"`
	GrowthClaims      []wireGrowthClaim `json:"growth_claims"`
	Seniority         *string           `json:"seniority"`
	Titles            []string          `json:"titles"`
	Companies         []string          `json:"companies"`
	YearsExperience   flexNumber        `json:"years_experience"`
	Domains           []string          `json:"domains"`
	Locations         []string          `json:"locations"`
	Scope             *string           `json:"scope"`
	RemoteExperience  flexBool          `json:"remote_experience"`
	Certifications    []string          `json:"certifications"`
	Education         []string          `json:"education"`
	Languages         []string          `json:"languages"`
	WorkAuthorization *string           `json:"work_authorization"`
	Highlights        []string          `json:"highlights"`
}

type wireJD struct {
	wireClaims
	RoleTitle    *string           `json:"role_title"`
	Company      *string           `json:"company"`
	Requirements []*flexRequirement `json:"requirements"`
}

// decodeResume coerces a validated model response into a resume claim object.
func decodeResume(data []byte) (*types.ParsedResume, error) {
	var w wireClaims
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	resume := &types.ParsedResume{Claims: w.toClaims()}
	resume.EnsureDefaults()
	return resume, nil
}

// decodeJD coerces a validated model response into a job description claim object.
func decodeJD(data []byte) (*types.ParsedJD, error) {
	var w wireJD
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	jd := &types.ParsedJD{
		Claims:       w.toClaims(),
		RoleTitle:    trimmed(w.RoleTitle),
		Company:      trimmed(w.Company),
		Requirements: toRequirements(w.Requirements),
	}
	jd.EnsureDefaults()
	return jd, nil
}

func (w *wireClaims) toClaims() types.Claims {
	c := types.Claims{
		Skills:           normalizeSkills(w.Skills),
		Tools:            skills.NormalizeSkillList(w.Tools),
		Seniority:        foldSeniority(trimmed(w.Seniority)),
		Titles:           cleanList(w.Titles),
		Companies:        cleanList(w.Companies),
		Domains:          cleanList(w.Domains),
		Locations:        cleanList(w.Locations),
		Scope:            foldScope(trimmed(w.Scope)),
		RemoteExperience: w.RemoteExperience.Value,
		Certifications:   cleanList(w.Certifications),
		Education:        cleanList(w.Education),
		Languages:        cleanList(w.Languages),
		Highlights:       cleanList(w.Highlights),
	}

	if w.YearsExperience.Set {
		years := int(math.Round(w.YearsExperience.Value))
		if years >= 0 && years <= 80 {
			c.YearsExperience = &years
		}
	}
	if auth := trimmed(w.WorkAuthorization); auth != "" {
		c.WorkAuthorization = &auth
	}

	for _, sc := range w.ScaleClaims {
		claim := types.ScaleClaim{Metric: trimmed(sc.Metric), Value: sc.Value.Value, Context: trimmed(sc.Context)}
		if claim.Metric == "" && claim.Context == "" {
			continue
		}
		c.ScaleClaims = append(c.ScaleClaims, claim)
	}
	for _, gc := range w.GrowthClaims {
		claim := types.GrowthClaim{Metric: trimmed(gc.Metric), Percentage: gc.Percentage.Value, Context: trimmed(gc.Context)}
		if claim.Metric == "" && claim.Context == "" {
			continue
		}
		claim.Direction, claim.Percentage = foldDirection(trimmed(gc.Direction), claim.Percentage)
		c.GrowthClaims = append(c.GrowthClaims, claim)
	}
	return c
}

// toRequirements assigns positional IDs, skipping null and blank entries. A
// requirement with no explicit must_have flag is treated as mandatory.
func toRequirements(in []*flexRequirement) []types.ParsedRequirement {
	out := make([]types.ParsedRequirement, 0, len(in))
	for _, r := range in {
		if r == nil {
			continue
		}
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			continue
		}
		mustHave := true
		if r.MustHave.Set {
			mustHave = r.MustHave.Value
		}
		out = append(out, types.ParsedRequirement{
			ID:          fmt.Sprintf("req-%d", len(out)+1),
			Description: desc,
			Category:    foldCategory(r.Category),
			MustHave:    mustHave,
		})
	}
	return out
}

func normalizeSkills(in flexSkills) map[string]bool {
	names := make([]string, 0, len(in))
	for name, present := range in {
		if present {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make(map[string]bool, len(names))
	for _, name := range skills.NormalizeSkillList(names) {
		out[name] = true
	}
	return out
}

// cleanList trims entries, drops blanks, and removes case-insensitive duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

var seniorityAliases = map[string]types.Seniority{
	"entry":        types.SeniorityJunior,
	"entry level":  types.SeniorityJunior,
	"entry-level":  types.SeniorityJunior,
	"associate":    types.SeniorityJunior,
	"graduate":     types.SeniorityJunior,
	"internship":   types.SeniorityIntern,
	"mid level":    types.SeniorityMid,
	"mid-level":    types.SeniorityMid,
	"intermediate": types.SeniorityMid,
	"sr":           types.SenioritySenior,
	"lead":         types.SenioritySenior,
	"senior level": types.SenioritySenior,
	"vp":           types.SeniorityExecutive,
	"c-level":      types.SeniorityExecutive,
	"head":         types.SeniorityDirector,
}

func foldSeniority(s string) types.Seniority {
	s = strings.ToLower(s)
	switch v := types.Seniority(s); v {
	case types.SeniorityIntern, types.SeniorityJunior, types.SeniorityMid, types.SenioritySenior,
		types.SeniorityStaff, types.SeniorityPrincipal, types.SeniorityDirector, types.SeniorityExecutive:
		return v
	}
	if v, ok := seniorityAliases[s]; ok {
		return v
	}
	return types.SeniorityUnknown
}

var scopeAliases = map[string]types.Scope{
	"worldwide":     types.ScopeGlobal,
	"international": types.ScopeGlobal,
	"north america": types.ScopeNA,
	"europe":        types.ScopeEMEA,
	"latin america": types.ScopeLATAM,
	"asia pacific":  types.ScopeAPAC,
	"asia":          types.ScopeAPAC,
	"state":         types.ScopeRegional,
	"city":          types.ScopeLocal,
}

func foldScope(s string) types.Scope {
	s = strings.ToLower(s)
	switch v := types.Scope(s); v {
	case types.ScopeLocal, types.ScopeRegional, types.ScopeNational, types.ScopeGlobal,
		types.ScopeEMEA, types.ScopeLATAM, types.ScopeAPAC, types.ScopeNA:
		return v
	}
	if v, ok := scopeAliases[s]; ok {
		return v
	}
	return types.ScopeUnknown
}

// foldDirection maps free-text direction words to up/down. A negative
// percentage implies down and is stored as its magnitude.
func foldDirection(direction string, percentage float64) (string, float64) {
	switch strings.ToLower(direction) {
	case "up", "increase", "increased", "grew", "growth", "higher":
		return "up", math.Abs(percentage)
	case "down", "decrease", "decreased", "reduced", "reduction", "lower", "cut":
		return "down", math.Abs(percentage)
	}
	if percentage < 0 {
		return "down", -percentage
	}
	return "up", percentage
}

func foldCategory(c string) types.RequirementCategory {
	switch v := types.RequirementCategory(strings.ToLower(strings.TrimSpace(c))); v {
	case types.CategorySkill, types.CategoryDomain, types.CategoryScale, types.CategorySeniority, types.CategoryOther:
		return v
	case "tool", "technical", "technology":
		return types.CategorySkill
	case "industry", "experience":
		return types.CategoryDomain
	case "level", "years":
		return types.CategorySeniority
	}
	return types.CategoryOther
}
