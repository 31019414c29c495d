// Package langchain embeds shopper queries through langchaingo, for
// OpenAI-compatible local hosts such as Ollama or LM Studio.
package langchain

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/metrics"
)

// ProviderName labels metrics for this provider.
const ProviderName = "langchain"

// healthProbe is embedded by HealthCheck; local hosts expose no free endpoint.
const healthProbe = "ping"

// Config holds the embedding host settings.
type Config struct {
	BaseURL string
	// APIKey may be empty for hosts without authentication.
	APIKey string
	Model  string
	Logger *zap.Logger
}

// Embedder implements domain.Embedder over a langchaingo embedder.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *zap.Logger
}

// NewEmbedder creates a langchaingo-backed query embedder.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create langchain embedder: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{embedder: emb, model: cfg.Model, logger: logger.Named("langchain-embedder")}, nil
}

// Embed implements domain.Embedder. Token usage is not reported by langchaingo.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	vec, err := e.embedder.EmbedQuery(ctx, text)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, e.model, "api_error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("langchain embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if len(vec) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, e.model, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(ProviderName, e.model).Observe(duration.Seconds())

	e.logger.Debug("Query embedded",
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(vec)),
	)

	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.embedder.EmbedQuery(ctx, healthProbe); err != nil {
		return fmt.Errorf("embedding probe: %w", err)
	}
	return nil
}
