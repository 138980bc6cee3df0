package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

// Span sources
const (
	SourceHighlight = "highlight"
	SourceScale     = "scale_claim"
	SourceGrowth    = "growth_claim"
	SourceSkill     = "skill"
	SourceTool      = "tool"
	SourceTitle     = "title"
)

// Span is one piece of resume evidence a requirement can be compared against
type Span struct {
	Text   string
	Source string
}

// EvidenceSpans lists the resume's evidence in a stable order with
// duplicate texts removed.
func EvidenceSpans(resume *types.ParsedResume) []Span {
	var spans []Span
	seen := make(map[string]bool)
	add := func(text, source string) {
		text = strings.TrimSpace(text)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			return
		}
		seen[key] = true
		spans = append(spans, Span{Text: text, Source: source})
	}

	for _, h := range resume.Highlights {
		add(h, SourceHighlight)
	}
	for _, sc := range resume.ScaleClaims {
		if sc.Context != "" {
			add(sc.Context, SourceScale)
			continue
		}
		add(fmt.Sprintf("%s %s", formatNumber(sc.Value), sc.Metric), SourceScale)
	}
	for _, gc := range resume.GrowthClaims {
		if gc.Context != "" {
			add(gc.Context, SourceGrowth)
			continue
		}
		add(fmt.Sprintf("%s %s %s%%", gc.Metric, gc.Direction, formatNumber(gc.Percentage)), SourceGrowth)
	}
	for _, s := range resume.SkillNames() {
		add(s, SourceSkill)
	}
	for _, tool := range resume.Tools {
		add(tool, SourceTool)
	}
	for _, title := range resume.Titles {
		add(title, SourceTitle)
	}
	return spans
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
