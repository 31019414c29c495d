package registry

import (
	"context"

	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// Attacher opens an index handle for a collection.
type Attacher interface {
	Attach(ctx context.Context, spec collection.Spec) (collection.Index, error)
}
