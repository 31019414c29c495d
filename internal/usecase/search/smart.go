package search

import (
	"context"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	"github.com/kailas-cloud/shoprag/internal/metrics"
	"github.com/kailas-cloud/shoprag/internal/usecase/strategy"
)

// Classifier maps a query to an intent.
type Classifier interface {
	Classify(query string) domintent.Label
}

// Planner turns an intent into a retrieval plan.
type Planner interface {
	Select(intent domintent.Label, n int, enabled []string) strategy.Plan
}

// SmartResult is the outcome of an intent-routed search.
type SmartResult struct {
	Intent  domintent.Label
	Query   string
	Results []candidate.Candidate
}

// Smart routes queries by intent on top of an Engine.
type Smart struct {
	engine     *Engine
	classifier Classifier
	planner    Planner
	booster    *Booster
}

// NewSmart creates an intent-routed searcher. A nil booster uses defaults.
func NewSmart(engine *Engine, classifier Classifier, planner Planner, booster *Booster) *Smart {
	if booster == nil {
		booster = NewBooster()
	}
	return &Smart{engine: engine, classifier: classifier, planner: planner, booster: booster}
}

// Classify exposes the configured classifier.
func (s *Smart) Classify(query string) domintent.Label {
	return s.classifier.Classify(query)
}

// SmartSearch classifies query, runs the matching plan, truncates to n and
// applies the lexical boost.
func (s *Smart) SmartSearch(ctx context.Context, query string, n int) (SmartResult, error) {
	q, err := request.NormalizeQuery(query)
	if err != nil {
		return SmartResult{}, err //nolint:wrapcheck // already a domain error
	}
	n = request.ClampLimit(n)

	label := s.classifier.Classify(q)
	metrics.IntentTotal.WithLabelValues(string(label)).Inc()

	plan := s.planner.Select(label, n, s.engine.registry.EnabledKeys())

	pool, err := s.engine.Execute(ctx, q, plan.Steps, filter.QueryFilter{})
	if err != nil {
		return SmartResult{}, err
	}

	results := s.booster.Apply(q, Rank(pool, n))
	metrics.FusedResults.WithLabelValues("smart_search").Observe(float64(len(results)))

	return SmartResult{Intent: label, Query: q, Results: results}, nil
}
