package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/core/common/validation"
	categoryDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/category"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	"github.com/frahmantamala/portal-admin/internal/module"
)

type RepositoryAPI interface {
	// GetAll orders by sort_order then slug.
	GetAll(ctx context.Context) ([]*categoryDatamodel.DocumentCategory, error)
	GetActive(ctx context.Context) ([]*categoryDatamodel.DocumentCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.DocumentCategory, error)
	GetBySlug(ctx context.Context, slug string) (*categoryDatamodel.DocumentCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.DocumentCategory) error
	Update(ctx context.Context, category *categoryDatamodel.DocumentCategory) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

func (s *Service) GetActiveCategories(ctx context.Context) ([]*Category, error) {
	rows, err := s.repo.GetActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get categories from repository", "error", err)
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}

	categories := make([]*Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, FromDataModel(row))
	}
	return categories, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*Category, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get categories from repository", "error", err)
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}

	categories := make([]*Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, FromDataModel(row))
	}
	return categories, nil
}

// ModuleCategories feeds the module registry: one entry per active category.
func (s *Service) ModuleCategories(ctx context.Context) ([]module.CategoryRef, error) {
	rows, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]module.CategoryRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, module.CategoryRef{Slug: row.Slug, Name: row.Name})
	}
	return refs, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}
	if row == nil {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(row), nil
}

// GetActiveBySlug resolves a category that documents may be filed under.
func (s *Service) GetActiveBySlug(ctx context.Context, slug string) (*Category, error) {
	row, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}
	if row == nil || !row.IsActive {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actorID int64, req CreateCategoryRequest) (*Category, error) {
	req.Normalize()
	if appErr := validation.Validate(req); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}
	if existing != nil {
		return nil, internal.ErrCategorySlugTaken
	}

	row := &categoryDatamodel.DocumentCategory{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create category", "slug", req.Slug, "error", err)
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}

	s.logger.InfoContext(ctx, "category created", "slug", row.Slug, "module", module.CategoryKey(row.Slug), "actor_id", actorID)
	s.publish(ctx, events.NewCategoryChangedEvent(row.Slug, events.CategoryCreated, actorID))
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actorID, id int64, req UpdateCategoryRequest) (*Category, error) {
	if appErr := validation.Validate(req); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}
	if row == nil {
		return nil, internal.ErrCategoryNotFound
	}

	// the slug is the module key suffix; changing it would orphan grants
	if req.Slug != nil && *req.Slug != row.Slug {
		return nil, internal.NewValidationFieldError("slug", "slug cannot be changed", internal.ErrCodeInvalidSlug)
	}

	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.SortOrder != nil {
		row.SortOrder = *req.SortOrder
	}
	change := events.CategoryUpdated
	if req.IsActive != nil {
		if row.IsActive && !*req.IsActive {
			change = events.CategoryDeactivated
		}
		row.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update category", "category_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("category store unavailable", err)
	}

	s.logger.InfoContext(ctx, "category updated", "slug", row.Slug, "change", change, "actor_id", actorID)
	s.publish(ctx, events.NewCategoryChangedEvent(row.Slug, change, actorID))
	return FromDataModel(row), nil
}

// Deactivate hides the category and its module. Grants on the module are
// kept and come back if the category is reactivated.
func (s *Service) Deactivate(ctx context.Context, actorID, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewStoreUnavailableError("category store unavailable", err)
	}
	if row == nil {
		return internal.ErrCategoryNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to deactivate category", "category_id", id, "error", err)
		return internal.NewStoreUnavailableError("category store unavailable", err)
	}

	s.logger.InfoContext(ctx, "category deactivated", "slug", row.Slug, "actor_id", actorID)
	s.publish(ctx, events.NewCategoryChangedEvent(row.Slug, events.CategoryDeactivated, actorID))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
