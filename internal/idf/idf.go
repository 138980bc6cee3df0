// Package idf computes inverse-document-frequency weights over a job
// description corpus so that rare, specific terms count for more than
// boilerplate ones when requirements are blended into a score.
package idf

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
)

// Index is a frozen term weight table. It is never mutated after Build or Load.
type Index struct {
	documents   int
	frequencies map[string]int
	vocabulary  [][]string
}

// Build counts, per document, the presence of normalized unigrams, bigrams,
// and vocabulary phrases. Vocabulary is typically the ontology names and aliases.
func Build(corpus []string, vocabulary []string) *Index {
	idx := &Index{
		documents:   len(corpus),
		frequencies: make(map[string]int),
		vocabulary:  tokenizeVocabulary(vocabulary),
	}

	for _, doc := range corpus {
		tokens := skills.Tokens(doc)
		seen := make(map[string]bool)

		for i, tok := range tokens {
			seen[tok] = true
			if i+1 < len(tokens) {
				seen[tok+" "+tokens[i+1]] = true
			}
		}
		for _, phrase := range idx.vocabulary {
			if len(phrase) > 2 && skills.ContainsTokens(tokens, phrase) {
				seen[strings.Join(phrase, " ")] = true
			}
		}

		for term := range seen {
			idx.frequencies[term]++
		}
	}
	return idx
}

// Documents returns the corpus size N
func (idx *Index) Documents() int {
	return idx.documents
}

// DocumentFrequency returns how many corpus documents contain term
func (idx *Index) DocumentFrequency(term string) int {
	return idx.frequencies[skills.Key(term)]
}

// Weight returns log((N+1)/df) / log(N+1), which lies in (0,1] and is
// monotonic non-increasing in df. Terms absent from the corpus weigh 1.0.
func (idx *Index) Weight(term string) float64 {
	return idx.weightKey(skills.Key(term))
}

func (idx *Index) weightKey(key string) float64 {
	if idx == nil || idx.documents == 0 || key == "" {
		return 1.0
	}
	df := idx.frequencies[key]
	if df <= 0 {
		return 1.0
	}
	df = min(df, idx.documents)
	n := float64(idx.documents)
	return math.Log((n+1)/float64(df)) / math.Log(n+1)
}

// DominantTerm picks the rarest informative term of a requirement. It prefers
// vocabulary phrases present in text, then the fallback names (for example the
// nearest ontology skills), then the rarest content token. An empty text
// yields ("", 1.0).
func (idx *Index) DominantTerm(text string, fallbacks ...string) (string, float64) {
	tokens := skills.Tokens(text)

	var candidates []string
	if idx != nil {
		for _, phrase := range idx.vocabulary {
			if skills.ContainsTokens(tokens, phrase) {
				candidates = append(candidates, strings.Join(phrase, " "))
			}
		}
	}
	if term, w, ok := idx.rarest(candidates); ok {
		return term, w
	}

	candidates = candidates[:0]
	for _, name := range fallbacks {
		if key := skills.Key(name); key != "" {
			candidates = append(candidates, key)
		}
	}
	if term, w, ok := idx.rarest(candidates); ok {
		return term, w
	}

	candidates = candidates[:0]
	for _, tok := range tokens {
		if isContentToken(tok) {
			candidates = append(candidates, tok)
		}
	}
	if term, w, ok := idx.rarest(candidates); ok {
		return term, w
	}
	return "", 1.0
}

// rarest returns the highest-weight key. Ties prefer the longer phrase, then
// lexical order, so the choice is stable.
func (idx *Index) rarest(keys []string) (string, float64, bool) {
	best, bestWeight, found := "", 0.0, false
	for _, key := range keys {
		w := idx.weightKey(key)
		switch {
		case !found, w > bestWeight:
		case w == bestWeight && len(key) > len(best):
		case w == bestWeight && len(key) == len(best) && key < best:
		default:
			continue
		}
		best, bestWeight, found = key, w, true
	}
	return best, bestWeight, found
}

func isContentToken(tok string) bool {
	if len(tok) < 2 || skills.IsStopWord(tok) {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func tokenizeVocabulary(vocabulary []string) [][]string {
	seen := make(map[string]bool, len(vocabulary))
	out := make([][]string, 0, len(vocabulary))
	for _, term := range vocabulary {
		tokens := skills.Tokens(term)
		key := strings.Join(tokens, " ")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tokens)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i], " ") < strings.Join(out[j], " ")
	})
	return out
}
