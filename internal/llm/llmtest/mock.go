// Package llmtest provides in-memory implementations of llm.Client and
// llm.Embedder for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
)

// MockClient implements llm.Client for testing
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error

	calls atomic.Int64
}

// Calls returns how many Generate* calls were made
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.calls.Add(1)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.calls.Add(1)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{}`, nil
}

func (m *MockClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// FakeEmbedder returns fixed vectors per text. Unknown texts get Default,
// or an error when Default is nil.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error

	mu    sync.Mutex
	texts []string
	calls int
}

// Embed implements llm.Embedder
func (f *FakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, texts...)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.Vectors[text]
		switch {
		case ok:
			out[i] = v
		case f.Default != nil:
			out[i] = f.Default
		default:
			return nil, fmt.Errorf("no vector for %q", text)
		}
	}
	return out, nil
}

// Calls returns how many Embed calls were made
func (f *FakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Texts returns every text embedded so far, in call order
func (f *FakeEmbedder) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

var (
	_ llm.Client   = (*MockClient)(nil)
	_ llm.Embedder = (*FakeEmbedder)(nil)
)
