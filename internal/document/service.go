package document

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/category"
	"github.com/frahmantamala/portal-admin/internal/core/common/validation"
	documentDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/document"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/permission"
)

type Repository interface {
	Create(ctx context.Context, doc *documentDatamodel.TransparencyDocument) error
	// GetByID returns nil, nil when the document does not exist.
	GetByID(ctx context.Context, id int64) (*documentDatamodel.TransparencyDocument, error)
	ListPublished(ctx context.Context, categorySlug string, limit, offset int) ([]*documentDatamodel.TransparencyDocument, error)
	Update(ctx context.Context, doc *documentDatamodel.TransparencyDocument) error
	Delete(ctx context.Context, id int64) error
}

type CategoryResolver interface {
	GetActiveBySlug(ctx context.Context, slug string) (*category.Category, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, p *coreUser.Principal, moduleKey string, action permission.Action) error
}

// Service gates every mutation on the category module of the document.
// A denied request never reaches the repository.
type Service struct {
	repo       Repository
	categories CategoryResolver
	authz      Authorizer
	logger     *slog.Logger
}

func NewService(repo Repository, categories CategoryResolver, authz Authorizer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		authz:      authz,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, actor *coreUser.Principal, dto CreateDocumentDTO) (*Document, error) {
	dto.Normalize()
	if appErr := validation.Validate(dto); appErr != nil {
		return nil, appErr
	}

	cat, err := s.categories.GetActiveBySlug(ctx, dto.Category)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, cat.ModuleKey(), permission.ActionCreate); err != nil {
		s.logger.WarnContext(ctx, "document create denied", "user_id", actorID(actor), "module", cat.ModuleKey(), "error", err)
		return nil, err
	}

	now := time.Now()
	doc := &Document{
		CategorySlug: cat.Slug,
		Title:        dto.Title,
		Summary:      dto.Summary,
		FileURL:      dto.FileURL,
		Status:       StatusDraft,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	row := ToDataModel(doc)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create document", "error", err, "user_id", actor.ID)
		return nil, internal.NewStoreUnavailableError("document store unavailable", err)
	}

	s.logger.InfoContext(ctx, "document created", "document_id", row.ID, "category", cat.Slug, "user_id", actor.ID)
	return FromDataModel(row), nil
}

// Update needs edit on the current category; moving the document also needs
// edit on the target category.
func (s *Service) Update(ctx context.Context, actor *coreUser.Principal, id int64, dto UpdateDocumentDTO) (*Document, error) {
	if appErr := validation.Validate(dto); appErr != nil {
		return nil, appErr
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, doc.ModuleKey(), permission.ActionEdit); err != nil {
		s.logger.WarnContext(ctx, "document edit denied", "user_id", actorID(actor), "document_id", id, "error", err)
		return nil, err
	}

	if dto.Category != nil && *dto.Category != doc.CategorySlug {
		target, err := s.categories.GetActiveBySlug(ctx, *dto.Category)
		if err != nil {
			return nil, err
		}
		if err := s.authz.Authorize(ctx, actor, target.ModuleKey(), permission.ActionEdit); err != nil {
			s.logger.WarnContext(ctx, "document move denied", "user_id", actorID(actor), "document_id", id, "target", target.ModuleKey(), "error", err)
			return nil, err
		}
		doc.CategorySlug = target.Slug
	}
	if dto.Title != nil {
		doc.Title = *dto.Title
	}
	if dto.Summary != nil {
		doc.Summary = *dto.Summary
	}
	if dto.FileURL != nil {
		doc.FileURL = *dto.FileURL
	}
	doc.UpdatedBy = &actor.ID
	doc.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, ToDataModel(doc)); err != nil {
		s.logger.ErrorContext(ctx, "failed to update document", "document_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("document store unavailable", err)
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, actor *coreUser.Principal, id int64) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, doc.ModuleKey(), permission.ActionDelete); err != nil {
		s.logger.WarnContext(ctx, "document delete denied", "user_id", actorID(actor), "document_id", id, "error", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete document", "document_id", id, "error", err)
		return internal.NewStoreUnavailableError("document store unavailable", err)
	}
	s.logger.InfoContext(ctx, "document deleted", "document_id", id, "user_id", actor.ID)
	return nil
}

func (s *Service) Publish(ctx context.Context, actor *coreUser.Principal, id int64) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, doc.ModuleKey(), permission.ActionPublish); err != nil {
		s.logger.WarnContext(ctx, "document publish denied", "user_id", actorID(actor), "document_id", id, "error", err)
		return nil, err
	}
	if doc.IsPublished() {
		return doc, nil
	}

	doc.Publish(actor.ID)
	if err := s.repo.Update(ctx, ToDataModel(doc)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish document", "document_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("document store unavailable", err)
	}
	s.logger.InfoContext(ctx, "document published", "document_id", id, "module", doc.ModuleKey(), "user_id", actor.ID)
	return doc, nil
}

// ListPublished is the public listing; an empty slug lists every category.
func (s *Service) ListPublished(ctx context.Context, categorySlug string, limit, offset int) ([]*Document, error) {
	if categorySlug != "" && !validation.IsSlug(categorySlug) {
		return nil, internal.NewValidationFieldError("category", "invalid category", internal.ErrCodeInvalidSlug)
	}

	rows, err := s.repo.ListPublished(ctx, categorySlug, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list documents", "category", categorySlug, "error", err)
		return nil, internal.NewStoreUnavailableError("document store unavailable", err)
	}
	return FromDataModelSlice(rows), nil
}

// GetPublished hides drafts from the public surface.
func (s *Service) GetPublished(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsPublished() {
		return nil, internal.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Document, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get document", "document_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("document store unavailable", err)
	}
	if row == nil {
		return nil, internal.ErrDocumentNotFound
	}
	return FromDataModel(row), nil
}

func actorID(p *coreUser.Principal) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}
