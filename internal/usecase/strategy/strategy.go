// Package strategy maps a classified intent to a retrieval plan.
package strategy

import (
	"slices"

	"github.com/kailas-cloud/shoprag/internal/domain/collection"
	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
)

// DefaultPoolMultiplier is the over-fetch factor applied to every plan step.
const DefaultPoolMultiplier = 3

// minCategoryPool is the floor of the categories step for product searches.
const minCategoryPool = 3

// Step is one per-collection query of a plan.
type Step struct {
	Collection string
	Pool       int // candidates this step may contribute to the fused pool
	FetchK     int // neighbours requested from the index
}

// Plan is an ordered list of steps. Order is significant: it is the
// concatenation order used before the stable sort.
type Plan struct {
	Intent domintent.Label
	Steps  []Step
}

// Collections returns the step collection keys in plan order.
func (p Plan) Collections() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Collection
	}
	return out
}

// Selector builds retrieval plans.
type Selector struct {
	poolMultiplier int
}

// NewSelector creates a selector with the default pool multiplier.
func NewSelector() *Selector {
	return &Selector{poolMultiplier: DefaultPoolMultiplier}
}

// WithPoolMultiplier sets the over-fetch factor.
func (s *Selector) WithPoolMultiplier(m int) *Selector {
	if m > 0 {
		s.poolMultiplier = m
	}
	return s
}

// Select returns the plan for intent. Collections not in enabled are dropped;
// for General the plan covers enabled in the given order.
func (s *Selector) Select(intent domintent.Label, n int, enabled []string) Plan {
	n = max(n, 1)

	var steps []Step
	switch intent {
	case domintent.ProductSearch:
		steps = []Step{
			{Collection: collection.Products, Pool: n},
			{Collection: collection.Categories, Pool: max(minCategoryPool, n/4)},
		}
	case domintent.OrderInquiry:
		steps = []Step{
			{Collection: collection.OrderGuides, Pool: n},
			{Collection: collection.Policies, Pool: n},
			{Collection: collection.FAQs, Pool: n},
		}
	case domintent.Support:
		steps = []Step{
			{Collection: collection.FAQs, Pool: n},
			{Collection: collection.Policies, Pool: n},
		}
	default:
		intent = domintent.General
		steps = make([]Step, 0, len(enabled))
		for _, key := range enabled {
			steps = append(steps, Step{Collection: key, Pool: n})
		}
	}

	plan := Plan{Intent: intent, Steps: make([]Step, 0, len(steps))}
	for _, st := range steps {
		if !slices.Contains(enabled, st.Collection) {
			continue
		}
		st.FetchK = st.Pool * s.poolMultiplier
		plan.Steps = append(plan.Steps, st)
	}
	return plan
}
