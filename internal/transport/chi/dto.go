package chi

import (
	"fmt"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/usecase/query"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest            ErrorCode = "bad_request"
	CodeValidationFailed      ErrorCode = "validation_failed"
	CodeUnauthorized          ErrorCode = "unauthorized"
	CodeCollectionNotFound    ErrorCode = "collection_not_found"
	CodeEmbeddingUnavailable  ErrorCode = "embedding_unavailable"
	CodeCollectionUnavailable ErrorCode = "collection_unavailable"
	CodeIndexQueryFailed      ErrorCode = "index_query_failed"
	CodeTimeout               ErrorCode = "timeout"
	CodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FilterDTO carries structured post-filters.
type FilterDTO struct {
	MaxPrice *float64 `json:"max_price,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query       string     `json:"query"`
	Limit       int        `json:"limit"`
	Collections []string   `json:"collections,omitempty"`
	Filters     *FilterDTO `json:"filters,omitempty"`
}

// SmartSearchRequest is the body of POST /api/search/smart.
type SmartSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// RetrieveRequest is the body of POST /api/retrieve.
type RetrieveRequest struct {
	Query   string     `json:"query"`
	FetchN  int        `json:"fetch_n"`
	Filters *FilterDTO `json:"filters,omitempty"`
}

// ProductSearchRequest is the body of POST /api/search/products.
type ProductSearchRequest struct {
	Query    string   `json:"query"`
	Category string   `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Limit    int      `json:"limit"`
}

// IntentRequest is the body of POST /api/intent.
type IntentRequest struct {
	Query string `json:"query"`
}

// ResultItem is one ranked candidate.
type ResultItem struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	Metadata      map[string]any `json:"metadata"`
	Collection    string         `json:"collection"`
	Distance      float64        `json:"distance"`
	Score         float64        `json:"score"`
	WeightedScore float64        `json:"weighted_score"`
}

// ResultListResponse wraps ranked results.
type ResultListResponse struct {
	Results []ResultItem `json:"results"`
	Total   int          `json:"total"`
}

// SmartSearchResponse is the body returned by POST /api/search/smart.
type SmartSearchResponse struct {
	Intent  string       `json:"intent"`
	Query   string       `json:"query"`
	Results []ResultItem `json:"results"`
	Total   int          `json:"total"`
}

// IntentResponse is the body returned by POST /api/intent.
type IntentResponse struct {
	Query  string         `json:"query"`
	Intent string         `json:"intent"`
	Scores map[string]int `json:"scores,omitempty"`
}

// CollectionStatsItem describes one configured collection.
type CollectionStatsItem struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Enabled     bool    `json:"enabled"`
	Available   bool    `json:"available"`
	Count       int     `json:"count"`
	Error       string  `json:"error,omitempty"`
}

// StatsResponse is the body returned by GET /api/admin/collections/stats.
type StatsResponse struct {
	Collections []CollectionStatsItem `json:"collections"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (f *FilterDTO) toDomain() (filter.QueryFilter, error) {
	if f == nil {
		return filter.QueryFilter{}, nil
	}
	var opts []filter.Option
	if f.MaxPrice != nil {
		opts = append(opts, filter.WithMaxPrice(*f.MaxPrice))
	}
	if f.MinPrice != nil {
		opts = append(opts, filter.WithMinPrice(*f.MinPrice))
	}
	if f.Type != "" {
		opts = append(opts, filter.WithDocumentType(f.Type))
	}
	if f.Category != "" {
		opts = append(opts, filter.WithCategory(f.Category))
	}
	qf, err := filter.New(opts...)
	if err != nil {
		return filter.QueryFilter{}, fmt.Errorf("filters: %w", err)
	}
	return qf, nil
}

func resultsToDTO(cands []candidate.Candidate) []ResultItem {
	items := make([]ResultItem, len(cands))
	for i, c := range cands {
		meta := map[string]any(c.Metadata())
		if meta == nil {
			meta = map[string]any{}
		}
		items[i] = ResultItem{
			ID:            c.ID(),
			Text:          c.Text(),
			Metadata:      meta,
			Collection:    c.Collection(),
			Distance:      c.Distance(),
			Score:         c.RawScore(),
			WeightedScore: c.WeightedScore(),
		}
	}
	return items
}

func statsToDTO(stats []query.CollectionStats) StatsResponse {
	items := make([]CollectionStatsItem, len(stats))
	for i, s := range stats {
		items[i] = CollectionStatsItem{
			Key:         s.Key,
			Name:        s.Name,
			Description: s.Description,
			Weight:      s.Weight,
			Enabled:     s.Enabled,
			Available:   s.Available,
			Count:       s.Count,
			Error:       s.Error,
		}
	}
	return StatsResponse{Collections: items}
}
