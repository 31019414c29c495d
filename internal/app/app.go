// Package app is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/config"
	badgerdb "github.com/kailas-cloud/shoprag/internal/db/badger"
	redisdb "github.com/kailas-cloud/shoprag/internal/db/redis"
	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/metrics"
	"github.com/kailas-cloud/shoprag/internal/repository/embcache"
	"github.com/kailas-cloud/shoprag/internal/repository/index"
	langchainEmb "github.com/kailas-cloud/shoprag/internal/transport/langchain"
	openaiEmb "github.com/kailas-cloud/shoprag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/shoprag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/shoprag/internal/usecase/health"
	"github.com/kailas-cloud/shoprag/internal/usecase/intent"
	"github.com/kailas-cloud/shoprag/internal/usecase/query"
	"github.com/kailas-cloud/shoprag/internal/usecase/registry"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
	"github.com/kailas-cloud/shoprag/internal/usecase/strategy"
)

// App holds the wired retrieval services.
type App struct {
	Store      *redisdb.Store
	Registry   *registry.Registry
	Classifier *intent.KeywordClassifier
	Query      *query.Service
	Health     *healthuc.Service

	pool   *ants.Pool
	cache  *badgerdb.Store
	logger *zap.Logger
}

// OpenStore connects to the index store and waits until it answers.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*redisdb.Store, error) {
	// valkey and redis share the RESP protocol and FT.* command set
	store, err := redisdb.NewStore(redisdb.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.Strings("addrs", cfg.Database.Addrs),
	)
	return store, nil
}

// New wires the full retrieval stack from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Store: store, logger: logger}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	embedder, err := a.buildEmbedder(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	specs, err := cfg.Collections.Specs()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("collections: %w", err)
	}
	builder := registry.NewBuilder()
	for _, s := range specs {
		if err := builder.Register(s); err != nil {
			a.Close()
			return nil, fmt.Errorf("register collection: %w", err)
		}
	}
	a.Registry = builder.Build(ctx, index.NewAttacher(store), logger)

	a.pool, err = ants.NewPool(cfg.Search.Workers, ants.WithPreAlloc(false))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	engine := search.New(a.Registry, embedder, a.pool, logger).
		WithFetchMultiplier(cfg.Search.FetchMultiplier).
		WithQueryTimeout(time.Duration(cfg.Search.QueryTimeoutMs) * time.Millisecond)

	a.Classifier = intent.NewKeywordClassifierWithTerms(
		cfg.Search.Intent.Product, cfg.Search.Intent.Order, cfg.Search.Intent.Support,
	)

	booster := search.NewBooster().WithVocabulary(cfg.Search.Boost.Vocabulary)
	if v := cfg.Search.Boost.TermBoost; v != nil {
		booster.WithTermBoost(*v)
	}
	if v := cfg.Search.Boost.ProductBonus; v != nil {
		booster.WithProductBonus(*v)
	}

	selector := strategy.NewSelector().WithPoolMultiplier(cfg.Search.PoolMultiplier)
	smart := search.NewSmart(engine, a.Classifier, selector, booster)

	a.Query = query.New(engine, smart, a.Registry, embedder, cfg.Collections.Default, logger)
	a.Health = healthuc.New(store, embedder, a.Registry)

	logger.Info("Retrieval engine ready",
		zap.Strings("collections", a.Registry.EnabledKeys()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("workers", cfg.Search.Workers),
	)
	return a, nil
}

// healthEmbedder is the decorator chain head: it embeds and reports health.
type healthEmbedder interface {
	domain.Embedder
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
func (a *App) buildEmbedder(cfg config.Config) (healthEmbedder, error) {
	ec := cfg.Embedding

	var base domain.Embedder
	switch ec.Provider {
	case "langchain":
		lc, err := langchainEmb.NewEmbedder(&langchainEmb.Config{
			BaseURL: ec.BaseURL,
			APIKey:  ec.APIKey,
			Model:   ec.Model,
			Logger:  a.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("langchain embedder: %w", err)
		}
		base = lc
	default:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     a.logger,
		})
	}

	embedder := base
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	switch cfg.Cache.Driver {
	case "redis":
		embedder = embcache.New(base, a.Store, ttl, metrics.EmbeddingCacheTotal, a.logger).WithNamespace(ec.Model)
	case "badger":
		cache, err := badgerdb.Open(badgerdb.Config{Dir: cfg.Cache.BadgerDir}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		a.cache = cache
		embedder = embcache.New(base, cache, ttl, metrics.EmbeddingCacheTotal, a.logger).WithNamespace(ec.Model)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, ec.Provider, ec.Model, time.Duration(ec.TimeoutMs)*time.Millisecond, a.logger,
	)

	// instruction is outermost so the cache key includes it
	if ec.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(instrumented, ec.QueryInstruction), nil
	}
	return instrumented, nil
}

// Close releases the worker pool, cache and store connections.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close embedding cache", zap.Error(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
