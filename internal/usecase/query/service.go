// Package query is the single entry point for retrieval callers.
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/metrics"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
)

// DefaultFetchN is the retrieve page size when none is given.
const DefaultFetchN = 5

// productOverfetch widens product search before the client-side price filter.
const productOverfetch = 2

// Service dispatches search, smart search, retrieve and product search.
type Service struct {
	searcher   Searcher
	smart      SmartSearcher
	registry   Registry
	embed      domain.Embedder
	defaultKey string
	logger     *zap.Logger
}

// New creates the query façade. defaultKey names the collection used by Retrieve.
func New(
	searcher Searcher, smart SmartSearcher, registry Registry, embed domain.Embedder,
	defaultKey string, logger *zap.Logger,
) *Service {
	if defaultKey == "" {
		defaultKey = collection.Products
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher:   searcher,
		smart:      smart,
		registry:   registry,
		embed:      embed,
		defaultKey: defaultKey,
		logger:     logger,
	}
}

// Search runs weighted multi-collection search.
func (s *Service) Search(ctx context.Context, req request.Request) ([]candidate.Candidate, error) {
	res, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

// SmartSearch classifies the query and runs the matching retrieval plan.
func (s *Service) SmartSearch(ctx context.Context, query string, n int) (search.SmartResult, error) {
	res, err := s.smart.SmartSearch(ctx, query, n)
	if err != nil {
		return search.SmartResult{}, fmt.Errorf("smart search: %w", err)
	}
	return res, nil
}

// Retrieve queries the default collection only, applies f to the returned
// metadata and orders by raw similarity. Unlike Search, a failing collection
// is an error here since there is nothing to fall back to.
func (s *Service) Retrieve(
	ctx context.Context, query string, fetchN int, f filter.QueryFilter,
) ([]candidate.Candidate, error) {
	q, err := request.NormalizeQuery(query)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a domain error
	}
	if fetchN <= 0 {
		fetchN = DefaultFetchN
	}
	fetchN = min(fetchN, request.MaxLimit)

	idx, err := s.registry.Resolve(s.defaultKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", s.defaultKey, err)
	}

	res, err := s.embed.Embed(ctx, q)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("retrieve: %w", err)
		}
		return nil, fmt.Errorf("retrieve: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("retrieve: %w: empty vector", domain.ErrEmbeddingUnavailable)
	}

	hits, err := idx.Query(ctx, res.Embedding, fetchN, filter.QueryFilter{})
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", s.defaultKey, err)
	}

	out := make([]candidate.Candidate, 0, len(hits))
	for _, h := range f.Apply(hits) {
		out = append(out, candidate.New(h, s.defaultKey, 1))
	}
	slices.SortStableFunc(out, func(a, b candidate.Candidate) int {
		switch {
		case a.RawScore() > b.RawScore():
			return -1
		case a.RawScore() < b.RawScore():
			return 1
		}
		return 0
	})

	metrics.FusedResults.WithLabelValues("retrieve").Observe(float64(len(out)))
	return out, nil
}

// ProductQuery describes a filtered product search.
type ProductQuery struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
}

// SearchProducts searches the products collection with the category pushed
// to the index and the price range applied to the over-fetched pool.
func (s *Service) SearchProducts(ctx context.Context, pq ProductQuery) ([]candidate.Candidate, error) {
	limit := request.ClampLimit(pq.Limit)

	indexFilter, err := filter.New(filter.WithCategory(pq.Category))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	var priceOpts []filter.Option
	if pq.MinPrice != nil {
		priceOpts = append(priceOpts, filter.WithMinPrice(*pq.MinPrice))
	}
	if pq.MaxPrice != nil {
		priceOpts = append(priceOpts, filter.WithMaxPrice(*pq.MaxPrice))
	}
	priceFilter, err := filter.New(priceOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	req, err := request.New(pq.Query, limit*productOverfetch, []string{collection.Products}, indexFilter)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a domain error
	}

	pool, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	out := make([]candidate.Candidate, 0, min(len(pool), limit))
	for _, c := range pool {
		if len(out) == limit {
			break
		}
		if priceFilter.Matches(c.Metadata()) {
			out = append(out, c)
		}
	}
	return out, nil
}

// CollectionStats describes one configured collection.
type CollectionStats struct {
	Key         string
	Name        string
	Description string
	Weight      float64
	Enabled     bool
	Available   bool
	Count       int
	Error       string
}

// Stats reports every configured collection, in catalog order.
func (s *Service) Stats(ctx context.Context) []CollectionStats {
	specs := s.registry.Specs()
	out := make([]CollectionStats, 0, len(specs))
	for _, spec := range specs {
		st := CollectionStats{
			Key:         spec.Key(),
			Name:        spec.DisplayName(),
			Description: spec.Description(),
			Weight:      spec.Weight(),
			Enabled:     spec.Enabled(),
		}

		available, reason := s.registry.Status(spec.Key())
		st.Available = available
		if !available {
			st.Error = "collection not loaded"
			if !spec.Enabled() {
				st.Error = "collection disabled"
			} else if reason != nil {
				st.Error = reason.Error()
			}
			out = append(out, st)
			continue
		}

		idx, err := s.registry.Resolve(spec.Key())
		if err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}
		if counter, ok := idx.(collection.Counter); ok {
			n, err := counter.Count(ctx)
			if err != nil {
				s.logger.Warn("Collection count failed",
					zap.String("collection", spec.Key()), zap.Error(err))
				st.Error = "count unavailable"
			} else {
				st.Count = n
			}
		}
		out = append(out, st)
	}
	return out
}
