package ontology

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// OntologyLoadError reports a missing or corrupt ontology dataset.
// It is fatal to process initialization.
type OntologyLoadError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *OntologyLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ontology load %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("ontology load %s: %s", e.Path, e.Reason)
}

func (e *OntologyLoadError) Unwrap() error {
	return e.Cause
}

// Embedder produces one embedding per input text
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Load reads a JSON array of entries (gzip-compressed when the path ends in
// .gz), validates it, and returns the immutable store.
func Load(path string) (*Store, error) {
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(entries); err != nil {
		return nil, &OntologyLoadError{Path: path, Reason: "invalid catalog", Cause: err}
	}
	return NewStore(entries), nil
}

// LoadCatalog reads entries without requiring embeddings, for offline embedding.
func LoadCatalog(path string) ([]Entry, error) {
	return readEntries(path)
}

// Validate checks catalog invariants: non-empty, unique non-blank IDs and
// names, one shared non-zero embedding dimension, finite values.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	seen := make(map[string]bool, len(entries))
	dimension := len(entries[0].Embedding)
	if dimension == 0 {
		return fmt.Errorf("entry %q has no embedding", entries[0].ID)
	}

	for i := range entries {
		e := &entries[i]
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("entry %d has a blank id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true

		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("entry %q has a blank name", e.ID)
		}
		switch e.Category {
		case CategorySkill, CategoryTechnology, CategoryAbility:
		case "":
			e.Category = CategorySkill
		default:
			return fmt.Errorf("entry %q has unknown category %q", e.ID, e.Category)
		}
		if len(e.Embedding) != dimension {
			return fmt.Errorf("entry %q has dimension %d, want %d", e.ID, len(e.Embedding), dimension)
		}
		for _, v := range e.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("entry %q has a non-finite embedding value", e.ID)
			}
		}
	}
	return nil
}

// EmbedCatalog fills in embeddings for entries, batchSize texts per call.
// The embedded text is the name plus description when present.
func EmbedCatalog(ctx context.Context, entries []Entry, embedder Embedder, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))

		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			text := e.Name
			if e.Description != "" {
				text += ": " + e.Description
			}
			texts = append(texts, text)
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed entries %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed entries %d-%d: got %d vectors", start, end-1, len(vectors))
		}
		for i, v := range vectors {
			entries[start+i].Embedding = v
		}
	}
	return nil
}

// Save writes entries as JSON, gzip-compressed when the path ends in .gz.
func Save(path string, entries []Entry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	}

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("encode ontology: %w", err)
	}
	return nil
}

func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OntologyLoadError{Path: path, Reason: "cannot open dataset", Cause: err}
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &OntologyLoadError{Path: path, Reason: "corrupt gzip stream", Cause: err}
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, &OntologyLoadError{Path: path, Reason: "corrupt dataset", Cause: err}
	}
	return entries, nil
}
