package health

import (
	"context"

	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// DBPinger checks index store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CollectionStatus reports which configured collections are attached.
type CollectionStatus interface {
	Specs() []collection.Spec
	Status(key string) (available bool, reason error)
}
