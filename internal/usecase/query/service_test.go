package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/usecase/registry"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
)

// --- Mocks ---

type mockIndex struct {
	hits     []candidate.Hit
	err      error
	count    int
	countErr error
	calls    int
	lastK    int
}

func (m *mockIndex) Query(_ context.Context, _ []float32, k int, _ filter.QueryFilter) ([]candidate.Hit, error) {
	m.calls++
	m.lastK = k
	return m.hits, m.err
}

func (m *mockIndex) Count(context.Context) (int, error) { return m.count, m.countErr }

type mockAttacher struct {
	indexes map[string]*mockIndex
}

func (a *mockAttacher) Attach(_ context.Context, spec collection.Spec) (collection.Index, error) {
	idx, ok := a.indexes[spec.Key()]
	if !ok {
		return nil, errors.New("unknown index name")
	}
	return idx, nil
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type mockSearcher struct {
	results []candidate.Candidate
	err     error
	lastReq request.Request
}

func (m *mockSearcher) Search(_ context.Context, req request.Request) ([]candidate.Candidate, error) {
	m.lastReq = req
	return m.results, m.err
}

type mockSmart struct {
	res search.SmartResult
	err error
}

func (m *mockSmart) SmartSearch(context.Context, string, int) (search.SmartResult, error) {
	return m.res, m.err
}

func buildRegistry(t *testing.T, indexes map[string]*mockIndex, specs ...collection.Spec) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	for _, s := range specs {
		require.NoError(t, b.Register(s))
	}
	return b.Build(context.Background(), &mockAttacher{indexes: indexes}, zap.NewNop())
}

func spec(t *testing.T, key string, weight float64, enabled bool) collection.Spec {
	t.Helper()
	s, err := collection.NewSpec(key, key+" display", "", weight, enabled, key+" docs")
	require.NoError(t, err)
	return s
}

// --- Tests ---

func TestRetrieve_ClientSideFilterAndRawOrder(t *testing.T) {
	products := &mockIndex{hits: []candidate.Hit{
		{ID: "p300", Distance: 0.1, Metadata: candidate.Metadata{"price": 300.0}},
		{ID: "p100", Distance: 0.4, Metadata: candidate.Metadata{"price": 100.0}},
		{ID: "nop", Distance: 0.0, Metadata: candidate.Metadata{}},
		{ID: "p150", Distance: 0.2, Metadata: candidate.Metadata{"price": 150.0}},
	}}
	faqs := &mockIndex{}
	reg := buildRegistry(t, map[string]*mockIndex{"products": products, "faqs": faqs},
		spec(t, "products", 0.5, true), spec(t, "faqs", 1, true))
	svc := New(nil, nil, reg, &mockEmbedder{}, "products", nil)

	f, err := filter.New(filter.WithMaxPrice(200))
	require.NoError(t, err)

	got, err := svc.Retrieve(context.Background(), "áo", 7, f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p150", got[0].ID())
	assert.Equal(t, "p100", got[1].ID())
	assert.InDelta(t, 0.8, got[0].RawScore(), 1e-9)
	assert.InDelta(t, 0.8, got[0].WeightedScore(), 1e-9, "retrieve does not weight")

	assert.Equal(t, 7, products.lastK)
	assert.Zero(t, faqs.calls)
}

func TestRetrieve_BlankQuery(t *testing.T) {
	emb := &mockEmbedder{}
	idx := &mockIndex{}
	reg := buildRegistry(t, map[string]*mockIndex{"products": idx}, spec(t, "products", 1, true))
	svc := New(nil, nil, reg, emb, "", nil)

	_, err := svc.Retrieve(context.Background(), "  ", 5, filter.QueryFilter{})
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.Zero(t, emb.calls)
	assert.Zero(t, idx.calls)
}

func TestRetrieve_DefaultCollectionUnavailable(t *testing.T) {
	reg := buildRegistry(t, map[string]*mockIndex{}, spec(t, "products", 1, true))
	svc := New(nil, nil, reg, &mockEmbedder{}, "products", nil)

	_, err := svc.Retrieve(context.Background(), "áo", 5, filter.QueryFilter{})
	require.ErrorIs(t, err, domain.ErrCollectionUnavailable)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	reg := buildRegistry(t, map[string]*mockIndex{"products": {}}, spec(t, "products", 1, true))
	svc := New(nil, nil, reg, &mockEmbedder{err: errors.New("timeout")}, "products", nil)

	_, err := svc.Retrieve(context.Background(), "áo", 5, filter.QueryFilter{})
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieve_QueryFailure(t *testing.T) {
	idx := &mockIndex{err: domain.ErrIndexQueryFailed}
	reg := buildRegistry(t, map[string]*mockIndex{"products": idx}, spec(t, "products", 1, true))
	svc := New(nil, nil, reg, &mockEmbedder{}, "products", nil)

	_, err := svc.Retrieve(context.Background(), "áo", 5, filter.QueryFilter{})
	require.ErrorIs(t, err, domain.ErrIndexQueryFailed)
}

func TestSearchProducts(t *testing.T) {
	cand := func(id string, price any) candidate.Candidate {
		meta := candidate.Metadata{}
		if price != nil {
			meta["price"] = price
		}
		return candidate.New(candidate.Hit{ID: id, Metadata: meta}, "products", 1)
	}
	s := &mockSearcher{results: []candidate.Candidate{
		cand("a", 50.0),
		cand("b", 150.0),
		cand("c", nil),
		cand("d", 250.0),
		cand("e", 180.0),
		cand("f", 120.0),
	}}
	svc := New(s, nil, nil, nil, "", nil)

	minP, maxP := 100.0, 200.0
	got, err := svc.SearchProducts(context.Background(), ProductQuery{
		Query: "áo thun", Category: "Áo thun", MinPrice: &minP, MaxPrice: &maxP, Limit: 2,
	})
	require.NoError(t, err)

	var gotIDs []string
	for _, c := range got {
		gotIDs = append(gotIDs, c.ID())
	}
	assert.Equal(t, []string{"b", "e"}, gotIDs)

	assert.Equal(t, 4, s.lastReq.Limit())
	assert.Equal(t, []string{"products"}, s.lastReq.Collections())
	assert.Equal(t, "Áo thun", s.lastReq.Filter().Category())
	assert.Nil(t, s.lastReq.Filter().MaxPrice(), "price range stays client-side")
}

func TestSearchProducts_InvertedPriceRange(t *testing.T) {
	svc := New(&mockSearcher{}, nil, nil, nil, "", nil)
	minP, maxP := 300.0, 200.0

	_, err := svc.SearchProducts(context.Background(), ProductQuery{Query: "áo", MinPrice: &minP, MaxPrice: &maxP})
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSearchProducts_BlankQuery(t *testing.T) {
	s := &mockSearcher{}
	svc := New(s, nil, nil, nil, "", nil)

	_, err := svc.SearchProducts(context.Background(), ProductQuery{Query: " "})
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestSearch_Delegates(t *testing.T) {
	s := &mockSearcher{err: domain.ErrEmbeddingUnavailable}
	svc := New(s, nil, nil, nil, "", nil)

	req, err := request.New("áo", 3, nil, filter.QueryFilter{})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, "áo", s.lastReq.Query())
}

func TestSmartSearch_Delegates(t *testing.T) {
	svc := New(nil, &mockSmart{res: search.SmartResult{Intent: domintent.Support, Query: "q"}}, nil, nil, "", nil)

	res, err := svc.SmartSearch(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Equal(t, domintent.Support, res.Intent)
}

func TestStats(t *testing.T) {
	reg := buildRegistry(t,
		map[string]*mockIndex{
			"products": {count: 42},
			"faqs":     {countErr: errors.New("boom")},
		},
		spec(t, "products", 1, true),
		spec(t, "faqs", 0.95, true),
		spec(t, "policies", 0.9, true),
		spec(t, "order_guides", 0.92, false),
	)
	svc := New(nil, nil, reg, nil, "", nil)

	stats := svc.Stats(context.Background())
	require.Len(t, stats, 4)

	assert.Equal(t, CollectionStats{
		Key: "products", Name: "products display", Description: "products docs",
		Weight: 1, Enabled: true, Available: true, Count: 42,
	}, stats[0])

	assert.True(t, stats[1].Available)
	assert.Equal(t, "count unavailable", stats[1].Error)

	assert.False(t, stats[2].Available)
	assert.Contains(t, stats[2].Error, "unknown index name")

	assert.False(t, stats[3].Enabled)
	assert.Equal(t, "collection disabled", stats[3].Error)
}
