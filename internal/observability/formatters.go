// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxCellChars bounds free-text table cells
	maxCellChars = 48
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScore outputs the final score, the caps, and one row per requirement.
func (p *Printer) PrintScore(result *types.ScoreResult) error {
	if result == nil {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:    %.1f\n", result.Score))
	sb.WriteString(fmt.Sprintf("Blend:    %.1f\n", result.BlendScore))
	if result.BindingCap != "" {
		sb.WriteString(fmt.Sprintf("Bound by: %s\n", result.BindingCap))
	}
	sb.WriteString(fmt.Sprintf("Domains:  %s → %s (%s)",
		orNone(result.RoleAlignment.ResumeCategories),
		orNone(result.RoleAlignment.JDCategories),
		result.RoleAlignment.Relation))
	p.printBox("FIT SCORE "+shortID(result.RunID), sb.String())

	caps := tablewriter.NewWriter(p.out)
	caps.Header("Cap", "Value", "Binding", "Reason")
	for _, c := range result.Caps {
		binding := ""
		if c.Binding {
			binding = "yes"
		}
		if err := caps.Append(c.Name, fmt.Sprintf("%.1f", c.Value), binding, truncate(c.Reason, maxCellChars)); err != nil {
			return err
		}
	}
	if err := caps.Render(); err != nil {
		return err
	}

	if len(result.Matches) > 0 {
		matches := tablewriter.NewWriter(p.out)
		matches.Header("Requirement", "Must", "Matched", "Confidence", "Source", "Similarity", "Evidence")
		for _, m := range result.Matches {
			if err := matches.Append(
				truncate(m.Requirement, maxCellChars),
				yesNo(m.MustHave),
				yesNo(m.Matched),
				string(m.Confidence),
				string(m.Verification),
				fmt.Sprintf("%.2f", m.Similarity),
				truncate(m.Evidence, maxCellChars),
			); err != nil {
				return err
			}
		}
		if err := matches.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(p.out, result.Justification)
	return err
}

// PrintResume outputs a human-readable summary of extracted resume claims.
func (p *Printer) PrintResume(resume *types.ParsedResume) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Titles:     %s\n", listPreview(resume.Titles)))
	sb.WriteString(fmt.Sprintf("Seniority:  %s\n", resume.Seniority))
	if resume.YearsExperience != nil {
		sb.WriteString(fmt.Sprintf("Years:      %d\n", *resume.YearsExperience))
	}
	sb.WriteString(fmt.Sprintf("Skills:     %s\n", listPreview(resume.SkillNames())))
	sb.WriteString(fmt.Sprintf("Tools:      %s\n", listPreview(resume.Tools)))
	sb.WriteString(fmt.Sprintf("Domains:    %s\n", listPreview(resume.Domains)))
	sb.WriteString(fmt.Sprintf("Highlights: %d, scale claims: %d", len(resume.Highlights), len(resume.ScaleClaims)))

	p.printBox("RESUME CLAIMS", sb.String())
}

// PrintJD outputs a human-readable summary of extracted job description claims.
func (p *Printer) PrintJD(jd *types.ParsedJD) {
	if jd == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", jd.Company))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", jd.RoleTitle))
	sb.WriteString("\n")

	mustHaves := jd.MustHaves()
	if len(mustHaves) > 0 {
		sb.WriteString("Must-haves:\n")
		count := min(len(mustHaves), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s (%s)\n", mustHaves[i].Description, mustHaves[i].Category))
		}
		if len(mustHaves) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(mustHaves)-maxItemsToShow))
		}
	}

	preferred := len(jd.Requirements) - len(mustHaves)
	if preferred > 0 {
		sb.WriteString(fmt.Sprintf("Preferred: %d\n", preferred))
	}

	p.printBox("JOB DESCRIPTION CLAIMS", strings.TrimSuffix(sb.String(), "\n"))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func listPreview(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	if len(items) <= maxItemsToShow {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(items[:maxItemsToShow], ", "), len(items)-maxItemsToShow)
}

func orNone(categories []string) string {
	if len(categories) == 0 {
		return "unclassified"
	}
	return strings.Join(categories, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
