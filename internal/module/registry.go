package module

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/portal-admin/internal"
)

// CategorySource provides the currently configured document categories.
type CategorySource interface {
	ModuleCategories(ctx context.Context) ([]CategoryRef, error)
}

// Snapshot is an immutable view of the registry taken at one instant.
type Snapshot struct {
	modules []Module
	index   map[string]int
}

func NewSnapshot(categories []CategoryRef, logger *slog.Logger) *Snapshot {
	s := &Snapshot{
		modules: make([]Module, 0, len(coreModules)+len(categories)),
		index:   make(map[string]int, len(coreModules)+len(categories)),
	}
	for _, m := range coreModules {
		s.add(m)
	}
	for _, c := range categories {
		m := Category(c.Slug, c.Name)
		if !s.add(m) && logger != nil {
			logger.Warn("duplicate module key from category configuration", "module", m.Key, "slug", c.Slug)
		}
	}
	return s
}

func (s *Snapshot) add(m Module) bool {
	if _, dup := s.index[m.Key]; dup {
		return false
	}
	s.index[m.Key] = len(s.modules)
	s.modules = append(s.modules, m)
	return true
}

// List returns core modules first, then category modules in source order.
func (s *Snapshot) List() []Module {
	out := make([]Module, len(s.modules))
	copy(out, s.modules)
	return out
}

func (s *Snapshot) Exists(key string) bool {
	_, ok := s.index[key]
	return ok
}

func (s *Snapshot) Get(key string) (Module, bool) {
	i, ok := s.index[key]
	if !ok {
		return Module{}, false
	}
	return s.modules[i], true
}

func (s *Snapshot) Len() int {
	return len(s.modules)
}

// Registry builds a fresh Snapshot from the category source on every call.
// Categories change at any time, so nothing is kept between requests.
type Registry struct {
	source CategorySource
	logger *slog.Logger
}

func NewRegistry(source CategorySource, logger *slog.Logger) *Registry {
	return &Registry{
		source: source,
		logger: logger,
	}
}

func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	categories, err := r.source.ModuleCategories(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load document categories for module registry", "error", err)
		return nil, internal.NewStoreUnavailableError("module registry unavailable", err)
	}
	return NewSnapshot(categories, r.logger), nil
}

func (r *Registry) List(ctx context.Context) ([]Module, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.List(), nil
}

func (r *Registry) Exists(ctx context.Context, key string) (bool, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return snap.Exists(key), nil
}

func (r *Registry) Count(ctx context.Context) (int, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snap.Len(), nil
}
