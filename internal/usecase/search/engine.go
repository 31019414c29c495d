// Package search implements multi-collection fan-out, weighted fusion and ranking.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/metrics"
	"github.com/kailas-cloud/shoprag/internal/usecase/strategy"
)

// DefaultFetchMultiplier is the per-collection over-fetch factor of plain search.
const DefaultFetchMultiplier = 2

// DefaultQueryTimeout bounds a single per-collection index query.
const DefaultQueryTimeout = 2 * time.Second

// Engine embeds a query once, fans it out to collections and fuses the results.
type Engine struct {
	registry        Registry
	embed           domain.Embedder
	pool            Pool
	fetchMultiplier int
	queryTimeout    time.Duration
	logger          *zap.Logger
}

// New creates an engine. A nil pool runs collection queries on plain goroutines.
func New(registry Registry, embed domain.Embedder, pool Pool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:        registry,
		embed:           embed,
		pool:            pool,
		fetchMultiplier: DefaultFetchMultiplier,
		queryTimeout:    DefaultQueryTimeout,
		logger:          logger,
	}
}

// WithFetchMultiplier sets the over-fetch factor of plain search.
func (e *Engine) WithFetchMultiplier(m int) *Engine {
	if m > 0 {
		e.fetchMultiplier = m
	}
	return e
}

// WithQueryTimeout sets the per-collection query timeout.
func (e *Engine) WithQueryTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.queryTimeout = d
	}
	return e
}

// Search queries req's collections (all enabled when unset), fuses by
// weighted score and returns at most req.Limit() candidates.
func (e *Engine) Search(ctx context.Context, req request.Request) ([]candidate.Candidate, error) {
	query, err := request.NormalizeQuery(req.Query())
	if err != nil {
		return nil, err //nolint:wrapcheck // already a domain error
	}
	n := request.ClampLimit(req.Limit())

	keys := req.Collections()
	if len(keys) == 0 {
		keys = e.registry.EnabledKeys()
	}

	fetchK := n * e.fetchMultiplier
	steps := make([]strategy.Step, 0, len(keys))
	for _, key := range keys {
		steps = append(steps, strategy.Step{Collection: key, Pool: fetchK, FetchK: fetchK})
	}

	pool, err := e.Execute(ctx, query, steps, req.Filter())
	if err != nil {
		return nil, err
	}

	ranked := Rank(pool, n)
	metrics.FusedResults.WithLabelValues("search").Observe(float64(len(ranked)))
	return ranked, nil
}

// Execute embeds query once and runs every step concurrently. The returned
// pool is the concatenation of per-step candidates in step order, regardless
// of completion order. Per-collection failures are logged and skipped.
func (e *Engine) Execute(
	ctx context.Context, query string, steps []strategy.Step, f filter.QueryFilter,
) ([]candidate.Candidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if len(steps) == 0 {
		return nil, nil
	}

	vector, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	slots := make([][]candidate.Candidate, len(steps))
	var wg sync.WaitGroup
	for i, st := range steps {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			slots[i] = e.runStep(ctx, vector, st, f)
		}
		e.submit(task)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search aborted: %w", err)
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	out := make([]candidate.Candidate, 0, total)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}

func (e *Engine) submit(task func()) {
	if e.pool == nil {
		go task()
		return
	}
	if err := e.pool.Submit(task); err != nil {
		// pool closed or saturated in non-blocking mode
		e.logger.Debug("Worker pool rejected task, running inline", zap.Error(err))
		task()
	}
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	res, err := e.embed.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty vector", domain.ErrEmbeddingUnavailable)
	}
	return res.Embedding, nil
}

// runStep queries one collection. It never fails: errors are logged and
// yield no candidates.
func (e *Engine) runStep(
	ctx context.Context, vector []float32, st strategy.Step, f filter.QueryFilter,
) []candidate.Candidate {
	log := e.logger.With(zap.String("collection", st.Collection))

	idx, err := e.registry.Resolve(st.Collection)
	if err != nil {
		metrics.CollectionQueriesTotal.WithLabelValues(st.Collection, "unavailable").Inc()
		log.Warn("Skipping collection", zap.Error(err))
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	start := time.Now()
	hits, err := idx.Query(qctx, vector, max(st.FetchK, 1), f)
	metrics.CollectionQueryDuration.WithLabelValues(st.Collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollectionQueriesTotal.WithLabelValues(st.Collection, "error").Inc()
		log.Warn("Collection query failed, skipping", zap.Error(err))
		return nil
	}
	metrics.CollectionQueriesTotal.WithLabelValues(st.Collection, "ok").Inc()

	hits = f.Apply(hits)

	weight := e.registry.WeightOf(st.Collection)
	cands := make([]candidate.Candidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, candidate.New(h, st.Collection, weight))
	}

	slices.SortStableFunc(cands, byRawScoreDesc)
	if st.Pool > 0 && len(cands) > st.Pool {
		cands = cands[:st.Pool]
	}
	return cands
}

// Rank stable-sorts pool by weighted score, descending, and truncates to n.
// The input slice is not modified.
func Rank(pool []candidate.Candidate, n int) []candidate.Candidate {
	out := slices.Clone(pool)
	slices.SortStableFunc(out, byWeightedScoreDesc)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []candidate.Candidate{}
	}
	return out
}

func byWeightedScoreDesc(a, b candidate.Candidate) int {
	switch {
	case a.WeightedScore() > b.WeightedScore():
		return -1
	case a.WeightedScore() < b.WeightedScore():
		return 1
	}
	return 0
}

func byRawScoreDesc(a, b candidate.Candidate) int {
	switch {
	case a.RawScore() > b.RawScore():
		return -1
	case a.RawScore() < b.RawScore():
		return 1
	}
	return 0
}
