package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/shoprag/internal/db"
	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// HNSW build parameters for bootstrapped indexes.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

type creator interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Definition returns the FT schema for a collection: content text, the
// structured filter fields and the vector field.
func Definition(spec collection.Spec, vc domain.VectorConfig) (*db.IndexDefinition, error) {
	metric := db.DistanceCosine
	switch vc.DistanceMetric {
	case "l2":
		metric = db.DistanceL2
	case "ip", "dot":
		metric = db.DistanceIP
	}

	def, err := db.NewIndex(spec.IndexName()).
		Prefix(DocumentPrefix(spec.Key())).
		Text(domain.FieldContent).
		Numeric(domain.MetaPrice).
		Tag(domain.MetaType).
		Tag(domain.MetaCategory).
		VectorHNSW(domain.FieldVector, vc.Dimensions, metric, hnswM, hnswEFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition %s: %w", spec.Key(), err)
	}
	return def, nil
}

// Ensure creates the index for spec unless it already exists.
// Reports whether a new index was created.
func Ensure(ctx context.Context, s creator, spec collection.Spec, vc domain.VectorConfig) (bool, error) {
	def, err := Definition(spec, vc)
	if err != nil {
		return false, err
	}
	if err := s.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}
