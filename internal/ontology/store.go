// Package ontology holds the static skill catalog and its precomputed embeddings.
//
// A Store is built once at startup (see Load) and never mutated afterwards,
// so it is safe to share between concurrent scoring runs without locking.
package ontology

import (
	"container/heap"
	"math"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/skills"
)

// Category classifies an ontology entry
type Category string

// Entry categories
const (
	CategorySkill      Category = "skill"
	CategoryTechnology Category = "technology"
	CategoryAbility    Category = "ability"
)

// Entry is one skill, technology, or ability with its embedding vector
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`
	Aliases     []string  `json:"aliases,omitempty"`
	Embedding   []float32 `json:"embedding"`
}

// Neighbor is an entry returned by a nearest-neighbor query
type Neighbor struct {
	Entry      *Entry
	Similarity float64
}

// Store is an immutable in-memory catalog supporting linear-scan similarity search
type Store struct {
	entries   []Entry
	norms     []float64
	byKey     map[string]int
	dimension int
}

// NewStore builds a store from entries, which must already be validated
// (see Load). The slice is copied.
func NewStore(entries []Entry) *Store {
	s := &Store{
		entries: make([]Entry, len(entries)),
		norms:   make([]float64, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	copy(s.entries, entries)

	for i := range s.entries {
		e := &s.entries[i]
		s.norms[i] = norm(e.Embedding)
		if s.dimension == 0 {
			s.dimension = len(e.Embedding)
		}
		for _, name := range append([]string{e.Name}, e.Aliases...) {
			if key := skills.Key(name); key != "" {
				if _, taken := s.byKey[key]; !taken {
					s.byKey[key] = i
				}
			}
		}
	}
	return s
}

// Len returns the number of entries
func (s *Store) Len() int {
	return len(s.entries)
}

// Dimension returns the embedding length shared by all entries
func (s *Store) Dimension() int {
	return s.dimension
}

// Entries returns the catalog in load order. Callers must not modify it.
func (s *Store) Entries() []Entry {
	return s.entries
}

// Lookup finds an entry by canonical name or alias after skill normalization.
func (s *Store) Lookup(name string) (*Entry, bool) {
	idx, ok := s.byKey[skills.Key(name)]
	if !ok {
		return nil, false
	}
	return &s.entries[idx], true
}

// NearestSkills returns the k entries most similar to query, most similar
// first. Ties are broken by entry ID. The scan is linear over the catalog.
func (s *Store) NearestSkills(query []float32, k int) []Neighbor {
	if k <= 0 || len(s.entries) == 0 {
		return []Neighbor{}
	}
	qNorm := norm(query)

	h := &neighborHeap{}
	for i := range s.entries {
		sim := cosineWithNorms(query, s.entries[i].Embedding, qNorm, s.norms[i])
		n := Neighbor{Entry: &s.entries[i], Similarity: sim}
		if h.Len() < k {
			heap.Push(h, n)
			continue
		}
		if better(n, (*h)[0]) {
			(*h)[0] = n
			heap.Fix(h, 0)
		}
	}

	out := make([]Neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Neighbor)
	}
	return out
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Zero vectors and mismatched dimensions yield 0.
func Cosine(a, b []float32) float64 {
	return cosineWithNorms(a, b, norm(a), norm(b))
}

func cosineWithNorms(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || len(a) == 0 || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (normA * normB)
	// Clamp rounding drift.
	return math.Max(-1, math.Min(1, sim))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// better orders neighbors by similarity, then by ID ascending.
func better(a, b Neighbor) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.Entry.ID < b.Entry.ID
}

// neighborHeap is a min-heap whose root is the worst of the kept neighbors.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x any) { *h = append(*h, x.(Neighbor)) }

func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
