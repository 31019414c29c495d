package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/usecase/strategy"
)

func mustRequest(t *testing.T, q string, n int, cols []string, f filter.QueryFilter) request.Request {
	t.Helper()
	r, err := request.New(q, n, cols, f)
	require.NoError(t, err)
	return r
}

func TestSearch_WeightedFusion(t *testing.T) {
	reg := newMockRegistry().
		add("products", 1.0, &mockIndex{hits: []candidate.Hit{
			hit("p1", "Áo thun", 0.30, nil),   // 0.70
			hit("p2", "Quần jean", 0.50, nil), // 0.50
		}}).
		add("faqs", 0.95, &mockIndex{hits: []candidate.Hit{
			hit("f1", "Đổi trả", 0.20, nil), // 0.76
		}})
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Search(context.Background(), mustRequest(t, "áo", 5, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	require.Equal(t, []string{"f1", "p1", "p2"}, ids(got))

	assert.InDelta(t, 0.80, got[0].RawScore(), 1e-9)
	assert.InDelta(t, 0.76, got[0].WeightedScore(), 1e-9)
	assert.Equal(t, "faqs", got[0].Collection())
	assert.InDelta(t, 0.70, got[1].WeightedScore(), 1e-9)
}

func TestSearch_TruncatesAndSorts(t *testing.T) {
	hits := make([]candidate.Hit, 0, 10)
	for i, d := range []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2, 0.8, 0.4, 0.6, 0.05} {
		hits = append(hits, hit(string(rune('a'+i)), "", d, nil))
	}
	reg := newMockRegistry().add("products", 1.0, &mockIndex{hits: hits})
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 3, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].WeightedScore(), got[i].WeightedScore())
	}
	assert.Equal(t, []string{"j", "b", "f"}, ids(got))
}

func TestSearch_FetchMultiplier(t *testing.T) {
	idx := &mockIndex{}
	reg := newMockRegistry().add("products", 1.0, idx)

	e := New(reg, okEmbedder(), nil, nil)
	_, err := e.Search(context.Background(), mustRequest(t, "x", 4, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, int32(8), idx.lastK.Load())

	e.WithFetchMultiplier(5)
	_, err = e.Search(context.Background(), mustRequest(t, "x", 4, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, int32(20), idx.lastK.Load())
}

func TestSearch_SkipsFailingCollection(t *testing.T) {
	reg := newMockRegistry().
		add("products", 1.0, &mockIndex{err: errors.New("connection reset")}).
		add("faqs", 0.95, &mockIndex{hits: []candidate.Hit{hit("f1", "", 0.2, nil)}})
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(got))
}

func TestSearch_SkipsUnavailableRequestedCollection(t *testing.T) {
	reg := newMockRegistry().
		add("products", 1.0, &mockIndex{hits: []candidate.Hit{hit("p1", "", 0.4, nil)}}).
		add("policies", 0.9, &mockIndex{hits: []candidate.Hit{hit("x", "", 0.0, nil)}})
	reg.unavailable["policies"] = true
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Search(context.Background(),
		mustRequest(t, "x", 5, []string{"policies", "products", "unknown"}, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(got))
	assert.Zero(t, reg.indexes["policies"].calls.Load())
}

func TestSearch_NoResultsIsEmptySlice(t *testing.T) {
	reg := newMockRegistry().add("products", 1.0, &mockIndex{})
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_EmbeddingFailureIsTerminal(t *testing.T) {
	idx := &mockIndex{hits: []candidate.Hit{hit("p1", "", 0.1, nil)}}
	reg := newMockRegistry().add("products", 1.0, idx)
	e := New(reg, &mockEmbedder{err: errors.New("503 from provider")}, nil, nil)

	_, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Zero(t, idx.calls.Load())
}

func TestSearch_EmptyVectorIsEmbeddingFailure(t *testing.T) {
	reg := newMockRegistry().add("products", 1.0, &mockIndex{})
	e := New(reg, &mockEmbedder{}, nil, nil)

	_, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestExecute_BlankQueryMakesNoCalls(t *testing.T) {
	emb := okEmbedder()
	idx := &mockIndex{}
	reg := newMockRegistry().add("products", 1.0, idx)
	e := New(reg, emb, nil, nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := e.Execute(context.Background(), q,
			[]strategy.Step{{Collection: "products", Pool: 5, FetchK: 10}}, filter.QueryFilter{})
		require.ErrorIs(t, err, domain.ErrInvalidQuery)
	}
	assert.Zero(t, emb.calls.Load())
	assert.Zero(t, idx.calls.Load())
}

func TestSearch_FilterReverifiedClientSide(t *testing.T) {
	// index ignores the pushed filter
	reg := newMockRegistry().add("products", 1.0, &mockIndex{hits: []candidate.Hit{
		hit("cheap", "", 0.3, candidate.Metadata{"price": 100.0}),
		hit("pricey", "", 0.1, candidate.Metadata{"price": 300.0}),
		hit("unknown", "", 0.0, candidate.Metadata{}),
	}})
	e := New(reg, okEmbedder(), nil, nil)

	f, err := filter.New(filter.WithMaxPrice(200))
	require.NoError(t, err)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, f))
	require.NoError(t, err)
	assert.Equal(t, []string{"cheap"}, ids(got))
}

func TestSearch_Idempotent(t *testing.T) {
	reg := newMockRegistry().
		add("products", 1.0, &mockIndex{hits: []candidate.Hit{hit("p1", "", 0.3, nil), hit("p2", "", 0.3, nil)}}).
		add("categories", 0.8, &mockIndex{hits: []candidate.Hit{hit("c1", "", 0.1, nil)}})
	e := New(reg, okEmbedder(), nil, nil)
	req := mustRequest(t, "x", 5, nil, filter.QueryFilter{})

	first, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExecute_CompletionOrderDoesNotChangeRanking(t *testing.T) {
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	run := func(slow string) []string {
		mk := func(id string) *mockIndex {
			idx := &mockIndex{hits: []candidate.Hit{hit(id, "", 0.5, nil)}}
			if id == slow {
				idx.delay = 30 * time.Millisecond
			}
			return idx
		}
		reg := newMockRegistry().add("a", 1.0, mk("a1")).add("b", 1.0, mk("b1")).add("c", 1.0, mk("c1"))
		e := New(reg, okEmbedder(), pool, nil)
		got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
		require.NoError(t, err)
		return ids(got)
	}

	want := []string{"a1", "b1", "c1"}
	assert.Equal(t, want, run("a1"))
	assert.Equal(t, want, run("b1"))
	assert.Equal(t, want, run("c1"))
}

func TestExecute_StepPoolCapsCandidates(t *testing.T) {
	reg := newMockRegistry().add("categories", 0.8, &mockIndex{hits: []candidate.Hit{
		hit("c1", "", 0.4, nil), hit("c2", "", 0.1, nil), hit("c3", "", 0.2, nil), hit("c4", "", 0.3, nil),
	}})
	e := New(reg, okEmbedder(), nil, nil)

	got, err := e.Execute(context.Background(), "x",
		[]strategy.Step{{Collection: "categories", Pool: 2, FetchK: 6}}, filter.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3"}, ids(got))
}

func TestExecute_QueryTimeoutSkipsSlowCollection(t *testing.T) {
	reg := newMockRegistry().
		add("products", 1.0, &mockIndex{hits: []candidate.Hit{hit("p1", "", 0.1, nil)}, delay: time.Second}).
		add("faqs", 0.95, &mockIndex{hits: []candidate.Hit{hit("f1", "", 0.1, nil)}})
	e := New(reg, okEmbedder(), nil, nil).WithQueryTimeout(20 * time.Millisecond)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(got))
}

func TestExecute_CancelledContext(t *testing.T) {
	reg := newMockRegistry().add("products", 1.0, &mockIndex{delay: time.Second})
	e := New(reg, okEmbedder(), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Search(ctx, mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type rejectingPool struct{}

func (rejectingPool) Submit(func()) error { return ants.ErrPoolClosed }

func TestExecute_RejectedTaskRunsInline(t *testing.T) {
	reg := newMockRegistry().add("products", 1.0, &mockIndex{hits: []candidate.Hit{hit("p1", "", 0.1, nil)}})
	e := New(reg, okEmbedder(), rejectingPool{}, nil)

	got, err := e.Search(context.Background(), mustRequest(t, "x", 5, nil, filter.QueryFilter{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids(got))
}

func TestRank_StableOnTies(t *testing.T) {
	pool := []candidate.Candidate{
		candidate.New(hit("first", "", 0.5, nil), "a", 1),
		candidate.New(hit("top", "", 0.1, nil), "a", 1),
		candidate.New(hit("second", "", 0.5, nil), "b", 1),
	}
	got := Rank(pool, 10)
	assert.Equal(t, []string{"top", "first", "second"}, ids(got))
	assert.Equal(t, "first", pool[0].ID(), "input must not be reordered")
}
