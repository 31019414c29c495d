package search

import "github.com/kailas-cloud/shoprag/internal/domain/collection"

// Registry is the read-only collection catalog consumed by the engine.
type Registry interface {
	Resolve(key string) (collection.Index, error)
	WeightOf(key string) float64
	EnabledKeys() []string
}

// Pool runs per-collection queries concurrently.
type Pool interface {
	Submit(task func()) error
}
