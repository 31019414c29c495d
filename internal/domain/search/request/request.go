package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 2048
	DefaultLimit   = 5
	MaxLimit       = 100
)

// Request is a validated multi-collection search query.
type Request struct {
	query       string
	limit       int
	collections []string
	filter      filter.QueryFilter
}

// New validates and normalizes search parameters.
// A blank query is rejected with domain.ErrInvalidQuery. Limit defaults to 5 and is clamped to 100.
// Nil or empty collections means every enabled collection.
func New(query string, limit int, collections []string, f filter.QueryFilter) (Request, error) {
	q, err := NormalizeQuery(query)
	if err != nil {
		return Request{}, err
	}
	return Request{
		query:       q,
		limit:       ClampLimit(limit),
		collections: collections,
		filter:      f,
	}, nil
}

// NormalizeQuery trims the query and rejects blank or oversized input.
func NormalizeQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(q) > MaxQueryLength {
		return "", fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	return q, nil
}

// ClampLimit applies the default and upper bound to a result count.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Query returns the trimmed query text.
func (r Request) Query() string { return r.query }

// Limit returns the number of results to return.
func (r Request) Limit() int { return r.limit }

// Collections returns the requested collection subset (nil means all enabled).
func (r Request) Collections() []string { return r.collections }

// Filter returns the structured filter.
func (r Request) Filter() filter.QueryFilter { return r.filter }
