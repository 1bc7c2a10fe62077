package postgres

import (
	"context"
	"errors"

	documentDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/document"
	"github.com/frahmantamala/portal-admin/internal/document"
	"gorm.io/gorm"
)

// DocumentRepository implements document.Repository using GORM
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) document.Repository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *documentDatamodel.TransparencyDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*documentDatamodel.TransparencyDocument, error) {
	var doc documentDatamodel.TransparencyDocument
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// ListPublished returns newest first. An empty slug matches every category.
func (r *DocumentRepository) ListPublished(ctx context.Context, categorySlug string, limit, offset int) ([]*documentDatamodel.TransparencyDocument, error) {
	var docs []*documentDatamodel.TransparencyDocument
	q := r.db.WithContext(ctx).Where("status = ?", document.StatusPublished)
	if categorySlug != "" {
		q = q.Where("category_slug = ?", categorySlug)
	}
	err := q.Order("published_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) Update(ctx context.Context, doc *documentDatamodel.TransparencyDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&documentDatamodel.TransparencyDocument{}, id).Error
}
