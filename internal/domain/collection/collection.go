package collection

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
)

var keyRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

// Well-known collection keys of the storefront catalog.
const (
	Products    = "products"
	Categories  = "categories"
	FAQs        = "faqs"
	Policies    = "policies"
	OrderGuides = "order_guides"
)

// Index is a nearest-neighbour handle over one collection.
type Index interface {
	Query(ctx context.Context, vector []float32, k int, f filter.QueryFilter) ([]candidate.Hit, error)
}

// Counter reports how many documents a collection holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Spec is the static description of one searchable collection (immutable value object).
type Spec struct {
	key         string
	displayName string
	indexName   string
	weight      float64
	enabled     bool
	description string
}

// NewSpec validates and creates a Spec.
// Key: ^[a-z0-9_]+$, 1-64 chars. Weight: >= 0. IndexName defaults to key.
func NewSpec(key, displayName, indexName string, weight float64, enabled bool, description string) (Spec, error) {
	if key == "" {
		return Spec{}, fmt.Errorf("collection key is required")
	}
	if len(key) > 64 {
		return Spec{}, fmt.Errorf("collection key too long (max 64)")
	}
	if !keyRegex.MatchString(key) {
		return Spec{}, fmt.Errorf("collection key %q must be lowercase alphanumeric with underscores", key)
	}
	if weight < 0 {
		return Spec{}, fmt.Errorf("collection %q: weight must be non-negative, got %g", key, weight)
	}
	if indexName == "" {
		indexName = key
	}
	if displayName == "" {
		displayName = key
	}
	return Spec{
		key:         key,
		displayName: displayName,
		indexName:   indexName,
		weight:      weight,
		enabled:     enabled,
		description: description,
	}, nil
}

// Key returns the unique short name.
func (s Spec) Key() string { return s.key }

// DisplayName returns the human-readable name.
func (s Spec) DisplayName() string { return s.displayName }

// IndexName returns the backing index name.
func (s Spec) IndexName() string { return s.indexName }

// Weight returns the relevance weight applied to raw similarity.
func (s Spec) Weight() float64 { return s.weight }

// Enabled reports whether the collection participates in search.
func (s Spec) Enabled() bool { return s.enabled }

// Description returns a free-form description.
func (s Spec) Description() string { return s.description }

// DefaultCatalog returns the storefront collections with their stock weights.
// Index names are "<namespace>_<key>" when namespace is set.
func DefaultCatalog(namespace string) []Spec {
	entries := []struct {
		key, display, desc string
		weight             float64
	}{
		{Products, "Products", "Product details, prices, sizes, reviews", 1.0},
		{Categories, "Categories", "Product categories", 0.8},
		{FAQs, "FAQs", "Frequently asked questions", 0.95},
		{Policies, "Policies", "Shop policies", 0.9},
		{OrderGuides, "Order guides", "Ordering and delivery guides", 0.92},
	}

	specs := make([]Spec, 0, len(entries))
	for _, e := range entries {
		index := e.key
		if namespace != "" {
			index = namespace + "_" + e.key
		}
		specs = append(specs, Spec{
			key:         e.key,
			displayName: e.display,
			indexName:   index,
			weight:      e.weight,
			enabled:     true,
			description: e.desc,
		})
	}
	return specs
}
