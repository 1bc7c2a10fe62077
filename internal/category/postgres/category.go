package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/portal-admin/internal/category"
	categoryDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAll(ctx context.Context) ([]*categoryDatamodel.DocumentCategory, error) {
	var categories []*categoryDatamodel.DocumentCategory
	err := r.db.WithContext(ctx).Order("sort_order ASC, slug ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetActive(ctx context.Context) ([]*categoryDatamodel.DocumentCategory, error) {
	var categories []*categoryDatamodel.DocumentCategory
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, slug ASC").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*categoryDatamodel.DocumentCategory, error) {
	var cat categoryDatamodel.DocumentCategory
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.DocumentCategory, error) {
	var cat categoryDatamodel.DocumentCategory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.DocumentCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.DocumentCategory) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

// Delete is a soft delete.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&categoryDatamodel.DocumentCategory{}).Where("id = ?", id).Update("is_active", false).Error
}
