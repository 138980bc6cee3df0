package matching

import (
	"context"
	"fmt"
	"sync"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
)

// memoEmbedder caches vectors by text for the lifetime of one scoring run.
// Concurrent misses on the same text may both reach the inner embedder.
type memoEmbedder struct {
	inner   llm.Embedder
	mu      sync.RWMutex
	vectors map[string][]float32
}

func newMemoEmbedder(inner llm.Embedder) *memoEmbedder {
	return &memoEmbedder{inner: inner, vectors: make(map[string][]float32)}
}

// Embed returns vectors in input order, calling the inner embedder once
// for all texts not yet seen.
func (m *memoEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	index := make(map[string]bool)

	m.mu.RLock()
	for i, text := range texts {
		if v, ok := m.vectors[text]; ok {
			out[i] = v
		} else if !index[text] {
			index[text] = true
			missing = append(missing, text)
		}
	}
	m.mu.RUnlock()

	if len(missing) > 0 {
		vectors, err := m.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(missing))
		}
		m.mu.Lock()
		for i, text := range missing {
			m.vectors[text] = vectors[i]
		}
		m.mu.Unlock()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, text := range texts {
		if out[i] == nil {
			out[i] = m.vectors[text]
		}
	}
	return out, nil
}

// lookup returns a cached vector without calling the inner embedder
func (m *memoEmbedder) lookup(text string) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vectors[text]
	return v, ok
}
