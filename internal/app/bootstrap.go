package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/config"
	redisdb "github.com/kailas-cloud/shoprag/internal/db/redis"
	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/repository/index"
)

// IndexStatus reports the bootstrap outcome for one collection.
type IndexStatus struct {
	Key     string `json:"collection"`
	Index   string `json:"index"`
	Created bool   `json:"created"`
}

// VectorConfig derives the index vector settings from the embedding section.
func VectorConfig(cfg config.Config) domain.VectorConfig {
	return domain.VectorConfig{
		Model:            cfg.Embedding.Model,
		Dimensions:       cfg.Embedding.Dimensions,
		DistanceMetric:   cfg.Embedding.DistanceMetric,
		QueryInstruction: cfg.Embedding.QueryInstruction,
	}
}

// EnsureIndexes creates an empty index for every enabled collection that
// has none yet. Existing indexes are left untouched.
func EnsureIndexes(
	ctx context.Context, store *redisdb.Store, cfg config.Config, logger *zap.Logger,
) ([]IndexStatus, error) {
	specs, err := cfg.Collections.Specs()
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	vc := VectorConfig(cfg)
	out := make([]IndexStatus, 0, len(specs))
	for _, spec := range specs {
		if !spec.Enabled() {
			continue
		}
		created, err := index.Ensure(ctx, store, spec, vc)
		if err != nil {
			return out, err
		}
		logger.Info("Index ensured",
			zap.String("collection", spec.Key()),
			zap.String("index", spec.IndexName()),
			zap.Bool("created", created),
		)
		out = append(out, IndexStatus{Key: spec.Key(), Index: spec.IndexName(), Created: created})
	}
	return out, nil
}
