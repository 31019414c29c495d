package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
)

// QueryFilter is the structured post-filter a caller may attach to a query.
// Set clauses are ANDed; a clause whose metadata key is missing never matches.
type QueryFilter struct {
	maxPrice     *float64
	minPrice     *float64
	documentType string
	category     string
}

// Option sets one clause of a QueryFilter.
type Option func(*QueryFilter)

// WithMaxPrice keeps candidates with price <= v.
func WithMaxPrice(v float64) Option {
	return func(f *QueryFilter) { f.maxPrice = &v }
}

// WithMinPrice keeps candidates with price >= v.
func WithMinPrice(v float64) Option {
	return func(f *QueryFilter) { f.minPrice = &v }
}

// WithDocumentType keeps candidates whose type equals v, ignoring case.
func WithDocumentType(v string) Option {
	return func(f *QueryFilter) { f.documentType = strings.TrimSpace(v) }
}

// WithCategory keeps candidates whose category_name equals v.
func WithCategory(v string) Option {
	return func(f *QueryFilter) { f.category = strings.TrimSpace(v) }
}

// New builds a QueryFilter and rejects an inverted price range.
func New(opts ...Option) (QueryFilter, error) {
	var f QueryFilter
	for _, opt := range opts {
		opt(&f)
	}
	if f.minPrice != nil && f.maxPrice != nil && *f.minPrice > *f.maxPrice {
		return QueryFilter{}, fmt.Errorf("min_price %g exceeds max_price %g", *f.minPrice, *f.maxPrice)
	}
	return f, nil
}

// MaxPrice returns the upper price bound, if set.
func (f QueryFilter) MaxPrice() *float64 { return f.maxPrice }

// MinPrice returns the lower price bound, if set.
func (f QueryFilter) MinPrice() *float64 { return f.minPrice }

// DocumentType returns the document type clause.
func (f QueryFilter) DocumentType() string { return f.documentType }

// Category returns the category clause.
func (f QueryFilter) Category() string { return f.category }

// IsEmpty reports whether no clause is set.
func (f QueryFilter) IsEmpty() bool {
	return f.maxPrice == nil && f.minPrice == nil && f.documentType == "" && f.category == ""
}

// Matches evaluates the filter against document metadata.
func (f QueryFilter) Matches(m candidate.Metadata) bool {
	if f.maxPrice != nil || f.minPrice != nil {
		price, ok := m.Number(domain.MetaPrice)
		if !ok {
			return false
		}
		if f.maxPrice != nil && price > *f.maxPrice {
			return false
		}
		if f.minPrice != nil && price < *f.minPrice {
			return false
		}
	}
	if f.documentType != "" {
		t, ok := m.String(domain.MetaType)
		if !ok || !strings.EqualFold(t, f.documentType) {
			return false
		}
	}
	if f.category != "" {
		c, ok := m.String(domain.MetaCategory)
		if !ok || c != f.category {
			return false
		}
	}
	return true
}

// Apply returns the hits that pass the filter, preserving order.
func (f QueryFilter) Apply(hits []candidate.Hit) []candidate.Hit {
	if f.IsEmpty() {
		return hits
	}
	kept := make([]candidate.Hit, 0, len(hits))
	for _, h := range hits {
		if f.Matches(h.Metadata) {
			kept = append(kept, h)
		}
	}
	return kept
}

// Expression translates the filter into an index pre-filter.
func (f QueryFilter) Expression() (Expression, error) {
	var conds []Condition
	if f.minPrice != nil || f.maxPrice != nil {
		r, err := NewRangeFilter(f.minPrice, f.maxPrice)
		if err != nil {
			return Expression{}, err
		}
		c, err := NewRange(domain.MetaPrice, r)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	if f.documentType != "" {
		c, err := NewMatch(domain.MetaType, f.documentType)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	if f.category != "" {
		c, err := NewMatch(domain.MetaCategory, f.category)
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds...)
}
