// Package skills normalizes skill and requirement terms so that aliases,
// casing, and plural forms compare equal across resumes, job descriptions,
// the ontology, and the IDF corpus.
package skills

import (
	"strings"
	"unicode"
)

// aliases maps normalized variant keys to canonical keys
var aliases = map[string]string{
	"golang":                    "go",
	"go lang":                   "go",
	"js":                        "javascript",
	"ts":                        "typescript",
	"k8s":                       "kubernetes",
	"react.js":                  "react",
	"reactjs":                   "react",
	"vue.js":                    "vue",
	"vuejs":                     "vue",
	"nodejs":                    "node.js",
	"postgres":                  "postgresql",
	"psql":                      "postgresql",
	"amazon web service":        "aws",
	"gcp":                       "google cloud",
	"google cloud platform":     "google cloud",
	"ml":                        "machine learning",
	"ai":                        "artificial intelligence",
	"nlp":                       "natural language processing",
	"applicant tracking system": "ats",
	"applicant tracking":        "ats",
	"ta":                        "talent acquisition",
	"hr":                        "human resources",
	"hris":                      "human resources information system",
	"dei":                       "diversity equity inclusion",
	"rn":                        "registered nurse",
	"cad":                       "computer aided design",
	"autocad":                   "computer aided design",
	"crm":                       "customer relationship management",
	"seo":                       "search engine optimization",
	"ux":                        "user experience",
	"ui":                        "user interface",
	"qa":                        "quality assurance",
	"ci":                        "continuous integration",
	"pmp":                       "project management professional",
	"gaap":                      "generally accepted accounting principles",
	"end to end recruiting":     "full cycle recruiting",
	"occupational safety":       "osha",

	"occupational safety and health administration": "osha",
}

// displayNames maps canonical keys to their preferred display form
var displayNames = map[string]string{
	"go":                    "Go",
	"javascript":            "JavaScript",
	"typescript":            "TypeScript",
	"kubernetes":            "Kubernetes",
	"react":                 "React",
	"vue":                   "Vue",
	"node.js":               "Node.js",
	"postgresql":            "PostgreSQL",
	"aws":                   "AWS",
	"google cloud":          "Google Cloud",
	"machine learning":      "Machine Learning",
	"ats":                   "ATS",
	"osha":                  "OSHA",
	"sql":                   "SQL",
	"full cycle recruiting": "Full-Cycle Recruiting",
}

// stopWords filters common English words that add noise to term matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "such": true,
	"a": true, "an": true, "of": true, "in": true, "on": true, "to": true,
	"or": true, "at": true, "by": true, "as": true, "is": true, "be": true,
	"we": true, "any": true, "etc": true,
	"experience": true, "ability": true, "strong": true, "proven": true,
	"plus": true, "preferred": true, "required": true, "including": true,
	"year": true, "years": true, "knowledge": true, "skills": true, "skill": true,
}

// keepPlural lists canonical words that end in "s" and must not be singularized
var keepPlural = map[string]bool{
	"kubernetes": true, "aws": true, "ats": true, "analytics": true,
	"sales": true, "operations": true, "logistics": true, "economics": true,
	"jenkins": true, "redis": true, "postgres": true,
	"news": true, "hris": true, "express": true, "business": true,
	"graphics": true, "physics": true, "statistics": true, "ethics": true,
}

// maxAliasTokens bounds the phrase length tried during alias resolution
const maxAliasTokens = 7

// IsStopWord reports whether a normalized token carries no matching signal
func IsStopWord(token string) bool {
	return stopWords[token]
}

// Tokens splits text into lowercase, singularized, alias-resolved tokens with
// stop words removed. Keeps tech suffixes like "c++", "c#", "node.js".
func Tokens(text string) []string {
	raw := rawTokens(text)
	return resolveAliases(raw)
}

// Key returns the canonical comparison key for a term ("K8s" -> "kubernetes").
func Key(term string) string {
	return strings.Join(Tokens(term), " ")
}

// NormalizeSkillName normalizes a skill name to its canonical display form
func NormalizeSkillName(skillName string) string {
	normalized := strings.TrimSpace(skillName)
	if normalized == "" {
		return ""
	}

	key := Key(normalized)
	if display, ok := displayNames[key]; ok {
		return display
	}

	// All-caps single words that are not known acronyms: capitalize first letter only
	if normalized == strings.ToUpper(normalized) && len(normalized) > 4 && !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
	}

	// Already mixed case, return as-is
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// All lowercase single word: capitalize first letter
	if normalized == strings.ToLower(normalized) && !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// NormalizeSkillList canonicalizes and deduplicates names, keeping first-seen order.
func NormalizeSkillList(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		display := NormalizeSkillName(name)
		key := Key(display)
		if display == "" || key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, display)
	}
	return out
}

// ContainsTerm reports whether term occurs in text on token boundaries after
// normalization, so "Go" matches "built Go services" but not "good".
func ContainsTerm(text, term string) bool {
	return ContainsTokens(Tokens(text), Tokens(term))
}

// ContainsTokens reports whether needle occurs as a contiguous run in haystack.
func ContainsTokens(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

func rawTokens(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		w := strings.Trim(word.String(), ".")
		word.Reset()
		if w == "" {
			return
		}
		w = singular(w)
		tokens = append(tokens, w)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// resolveAliases rewrites alias phrases to canonical tokens, longest phrase
// first, then drops stop words. Stop words are dropped after resolution so
// phrases such as "occupational safety and health administration" still resolve.
func resolveAliases(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		matched := false
		for n := min(maxAliasTokens, len(tokens)-i); n >= 1; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			if canonical, ok := aliases[phrase]; ok {
				for _, t := range rawTokens(canonical) {
					if !stopWords[t] {
						out = append(out, t)
					}
				}
				i += n
				matched = true
				break
			}
		}
		if !matched {
			if !stopWords[tokens[i]] {
				out = append(out, tokens[i])
			}
			i++
		}
	}
	return out
}

// singular strips simple English plural endings from alphabetic words.
func singular(w string) string {
	if keepPlural[w] || len(w) <= 3 {
		return w
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return w
		}
	}
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}
