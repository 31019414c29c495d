package query

import (
	"context"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
)

// Searcher runs weighted multi-collection search.
type Searcher interface {
	Search(ctx context.Context, req request.Request) ([]candidate.Candidate, error)
}

// SmartSearcher runs intent-routed search.
type SmartSearcher interface {
	SmartSearch(ctx context.Context, query string, n int) (search.SmartResult, error)
}

// Registry is the collection catalog used for retrieve and stats.
type Registry interface {
	Resolve(key string) (collection.Index, error)
	Specs() []collection.Spec
	Status(key string) (available bool, reason error)
}
