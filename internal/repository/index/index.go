// Package index adapts FT.SEARCH vector indexes to the collection.Index contract.
package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shoprag/internal/db"
	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
)

// store is the consumer interface for index queries (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Compile-time checks.
var (
	_ collection.Index   = (*Index)(nil)
	_ collection.Counter = (*Index)(nil)
)

// Attacher opens index handles for collection specs.
type Attacher struct {
	store         store
	numericFields map[string]bool
	skipFields    map[string]bool
}

// NewAttacher creates an attacher over the given store.
// Fields listed in numericFields are decoded as numbers; everything else stays a string.
func NewAttacher(s store, numericFields ...string) *Attacher {
	if len(numericFields) == 0 {
		numericFields = []string{domain.MetaPrice}
	}
	nums := make(map[string]bool, len(numericFields))
	for _, f := range numericFields {
		nums[f] = true
	}
	return &Attacher{
		store:         s,
		numericFields: nums,
		skipFields:    map[string]bool{domain.FieldVector: true, domain.FieldContent: true},
	}
}

// Attach verifies the backing index exists and returns a query handle.
func (a *Attacher) Attach(ctx context.Context, spec collection.Spec) (collection.Index, error) {
	exists, err := a.store.IndexExists(ctx, spec.IndexName())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCollectionUnavailable, spec.IndexName(), err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: index %s does not exist", domain.ErrCollectionUnavailable, spec.IndexName())
	}
	return &Index{
		store:     a.store,
		key:       spec.Key(),
		indexName: spec.IndexName(),
		keyPrefix: DocumentPrefix(spec.Key()),
		numeric:   a.numericFields,
		skip:      a.skipFields,
	}, nil
}

// DocumentPrefix returns the hash key prefix of documents in a collection.
func DocumentPrefix(key string) string {
	return domain.KeyPrefix + key + ":"
}

// Index is a query handle over one FT index.
type Index struct {
	store     store
	key       string
	indexName string
	keyPrefix string
	numeric   map[string]bool
	skip      map[string]bool
}

// Query returns up to k nearest documents, pre-filtered by the index.
func (i *Index) Query(
	ctx context.Context, vector []float32, k int, f filter.QueryFilter,
) ([]candidate.Hit, error) {
	expr, err := f.Expression()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	sr, err := i.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   i.indexName,
		VectorField: domain.FieldVector,
		Filters:     expr,
		Vector:      vector,
		K:           k,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrCollectionUnavailable, i.key, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIndexQueryFailed, i.key, err)
	}

	return i.parseHits(sr), nil
}

// Count returns the number of indexed documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	n, err := i.store.SearchCount(ctx, i.indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrIndexQueryFailed, i.key, err)
	}
	return n, nil
}

func (i *Index) parseHits(sr *db.SearchResult) []candidate.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]candidate.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, candidate.Hit{
			ID:       strings.TrimPrefix(entry.Key, i.keyPrefix),
			Text:     entry.Fields[domain.FieldContent],
			Metadata: i.parseMetadata(entry.Fields),
			Distance: entry.Distance,
		})
	}
	return hits
}

func (i *Index) parseMetadata(fields map[string]string) candidate.Metadata {
	meta := make(candidate.Metadata, len(fields))
	for k, v := range fields {
		if i.skip[k] {
			continue
		}
		if i.numeric[k] {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				meta[k] = n
				continue
			}
		}
		meta[k] = v
	}
	return meta
}
