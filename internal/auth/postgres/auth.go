package postgres

import (
	"context"
	"errors"
	"fmt"

	userDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// GetPrincipal loads active and inactive users alike.
func (r *Repository) GetPrincipal(ctx context.Context, userID int64) (*coreUser.Principal, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "name", "role", "is_active").
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load principal %d: %w", userID, err)
	}

	return &coreUser.Principal{
		ID:     row.ID,
		Email:  row.Email,
		Name:   row.Name,
		Role:   coreUser.Role(row.Role),
		Active: row.IsActive,
	}, nil
}
