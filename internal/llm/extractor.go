// Package llm - extractor.go provides generic LLM-based structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ResumeClaims")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint, e.g. `["string"]`
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Use [] for list fields and null for unknown scalar fields; never omit a list.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// claimFields are shared by resume and job description extraction.
func claimFields() []SchemaField {
	return []SchemaField{
		{Name: "skills", Type: `["string"]`, Description: "Skills and abilities named or clearly demonstrated", Required: true},
		{Name: "tools", Type: `["string"]`, Description: "Named software, platforms, systems, equipment"},
		{Name: "scale_claims", Type: `[{"metric": "string", "value": number, "context": "string"}]`, Description: "Numeric magnitudes such as hires made, users served, budget managed; context is the verbatim phrase"},
		{Name: "growth_claims", Type: `[{"metric": "string", "percentage": number, "direction": "up|down", "context": "string"}]`, Description: "Relative changes such as revenue growth or cost reduction"},
		{Name: "seniority", Type: `"intern|junior|mid|senior|staff|principal|director|executive|unknown"`},
		{Name: "titles", Type: `["string"]`, Description: "Job titles held or offered"},
		{Name: "companies", Type: `["string"]`},
		{Name: "years_experience", Type: `number|null`, Description: "Total professional years, integer"},
		{Name: "domains", Type: `["string"]`, Description: "Industries and occupational domains, e.g. 'software engineering', 'recruiting', 'construction'"},
		{Name: "locations", Type: `["string"]`},
		{Name: "scope", Type: `"local|regional|national|global|emea|latam|apac|na|unknown"`},
		{Name: "remote_experience", Type: `boolean`},
		{Name: "certifications", Type: `["string"]`},
		{Name: "education", Type: `["string"]`},
		{Name: "languages", Type: `["string"]`, Description: "Spoken languages"},
		{Name: "work_authorization", Type: `"string"|null`},
		{Name: "highlights", Type: `["string"]`, Description: "Achievement or responsibility bullets copied verbatim"},
	}
}

// ResumeClaimsSchema returns the extraction schema for resumes.
func ResumeClaimsSchema(description string) ExtractionSchema {
	return ExtractionSchema{
		Name:        "ResumeClaims",
		Description: description,
		Fields:      claimFields(),
	}
}

// JDClaimsSchema returns the extraction schema for job descriptions.
func JDClaimsSchema(description string) ExtractionSchema {
	fields := []SchemaField{
		{Name: "role_title", Type: `"string"`, Required: true},
		{Name: "company", Type: `"string"`},
		{
			Name:        "requirements",
			Type:        `[{"description": "string", "category": "skill|domain|scale|seniority|other", "must_have": boolean}]`,
			Description: "One atomic requirement per entry, copied verbatim; must_have is false for preferred / nice-to-have / bonus items",
			Required:    true,
		},
	}
	return ExtractionSchema{
		Name:        "JDClaims",
		Description: description,
		Fields:      append(fields, claimFields()...),
	}
}
