package search

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
)

// --- Mocks ---

type mockIndex struct {
	hits  []candidate.Hit
	err   error
	delay time.Duration
	calls atomic.Int32
	lastK atomic.Int32
}

func (m *mockIndex) Query(ctx context.Context, _ []float32, k int, _ filter.QueryFilter) ([]candidate.Hit, error) {
	m.calls.Add(1)
	m.lastK.Store(int32(k))
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockRegistry struct {
	order   []string
	indexes map[string]*mockIndex
	weights map[string]float64
	// unavailable keys resolve to ErrCollectionUnavailable
	unavailable map[string]bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		indexes:     map[string]*mockIndex{},
		weights:     map[string]float64{},
		unavailable: map[string]bool{},
	}
}

func (r *mockRegistry) add(key string, weight float64, idx *mockIndex) *mockRegistry {
	r.order = append(r.order, key)
	r.weights[key] = weight
	r.indexes[key] = idx
	return r
}

func (r *mockRegistry) Resolve(key string) (collection.Index, error) {
	if r.unavailable[key] {
		return nil, domain.ErrCollectionUnavailable
	}
	idx, ok := r.indexes[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return idx, nil
}

func (r *mockRegistry) WeightOf(key string) float64 { return r.weights[key] }

func (r *mockRegistry) EnabledKeys() []string {
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		if !r.unavailable[k] {
			out = append(out, k)
		}
	}
	return out
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

func okEmbedder() *mockEmbedder {
	return &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
}

func hit(id, text string, distance float64, meta candidate.Metadata) candidate.Hit {
	return candidate.Hit{ID: id, Text: text, Distance: distance, Metadata: meta}
}

func ids(cands []candidate.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID()
	}
	return out
}
