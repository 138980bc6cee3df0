package idf

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// LoadError reports a missing or corrupt IDF artifact
type LoadError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("idf load %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("idf load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// artifact is the on-disk form of an Index
type artifact struct {
	Documents   int            `json:"documents"`
	Frequencies map[string]int `json:"frequencies"`
	Vocabulary  []string       `json:"vocabulary"`
}

// Load reads an artifact written by Save
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot read artifact", Cause: err}
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &LoadError{Path: path, Reason: "corrupt artifact", Cause: err}
	}
	if a.Documents < 0 {
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("negative document count %d", a.Documents)}
	}
	for term, df := range a.Frequencies {
		if df <= 0 || df > a.Documents {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("term %q has document frequency %d outside [1, %d]", term, df, a.Documents)}
		}
	}

	idx := &Index{
		documents:   a.Documents,
		frequencies: a.Frequencies,
		vocabulary:  tokenizeVocabulary(a.Vocabulary),
	}
	if idx.frequencies == nil {
		idx.frequencies = map[string]int{}
	}
	return idx, nil
}

// Save writes the index as indented JSON
func (idx *Index) Save(path string) error {
	vocabulary := make([]string, 0, len(idx.vocabulary))
	for _, phrase := range idx.vocabulary {
		vocabulary = append(vocabulary, strings.Join(phrase, " "))
	}
	sort.Strings(vocabulary)

	data, err := json.MarshalIndent(artifact{
		Documents:   idx.documents,
		Frequencies: idx.frequencies,
		Vocabulary:  vocabulary,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal idf artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write idf artifact: %w", err)
	}
	return nil
}
