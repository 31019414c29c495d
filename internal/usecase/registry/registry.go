// Package registry holds the immutable catalog of searchable collections and
// their attached index handles.
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// Builder collects collection specs before the registry is frozen.
type Builder struct {
	specs []collection.Spec
	index map[string]int
}

// NewBuilder creates an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Register adds a spec. Keys must be unique.
func (b *Builder) Register(spec collection.Spec) error {
	if _, ok := b.index[spec.Key()]; ok {
		return fmt.Errorf("collection %q already registered", spec.Key())
	}
	b.index[spec.Key()] = len(b.specs)
	b.specs = append(b.specs, spec)
	return nil
}

// Build attaches every enabled collection and returns a read-only registry.
// A collection that fails to attach is logged and excluded from EnabledKeys.
func (b *Builder) Build(ctx context.Context, attacher Attacher, logger *zap.Logger) *Registry {
	entries := make(map[string]*entry, len(b.specs))
	specs := make([]collection.Spec, len(b.specs))
	copy(specs, b.specs)

	var enabled []string
	for _, spec := range specs {
		e := &entry{spec: spec}
		entries[spec.Key()] = e

		if !spec.Enabled() {
			continue
		}

		idx, err := attacher.Attach(ctx, spec)
		if err != nil {
			e.err = err
			logger.Warn("Collection unavailable, excluded from search",
				zap.String("collection", spec.Key()),
				zap.String("index", spec.IndexName()),
				zap.Error(err),
			)
			continue
		}
		e.index = idx
		enabled = append(enabled, spec.Key())
	}

	logger.Info("Collection registry built",
		zap.Int("configured", len(specs)),
		zap.Strings("enabled", enabled),
	)

	return &Registry{specs: specs, entries: entries, enabled: enabled}
}

type entry struct {
	spec  collection.Spec
	index collection.Index
	err   error
}

// Registry is the immutable collection catalog. Safe for concurrent reads.
type Registry struct {
	specs   []collection.Spec
	entries map[string]*entry
	enabled []string
}

// Resolve returns the index handle for key.
func (r *Registry) Resolve(key string) (collection.Index, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", key, domain.ErrNotFound)
	}
	if !e.spec.Enabled() {
		return nil, fmt.Errorf("%w: collection %q is disabled", domain.ErrCollectionUnavailable, key)
	}
	if e.index == nil {
		return nil, fmt.Errorf("%w: collection %q: %w", domain.ErrCollectionUnavailable, key, e.err)
	}
	return e.index, nil
}

// WeightOf returns the relevance weight of key, or 0 for unknown keys.
func (r *Registry) WeightOf(key string) float64 {
	if e, ok := r.entries[key]; ok {
		return e.spec.Weight()
	}
	return 0
}

// EnabledKeys returns the keys of enabled, attached collections in catalog order.
func (r *Registry) EnabledKeys() []string {
	out := make([]string, len(r.enabled))
	copy(out, r.enabled)
	return out
}

// Specs returns every configured spec in catalog order.
func (r *Registry) Specs() []collection.Spec {
	out := make([]collection.Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Status reports whether key is attached and, if not, why.
func (r *Registry) Status(key string) (available bool, reason error) {
	e, ok := r.entries[key]
	if !ok {
		return false, domain.ErrNotFound
	}
	if e.index == nil {
		return false, e.err
	}
	return true, nil
}
