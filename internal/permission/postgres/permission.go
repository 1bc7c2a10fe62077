package postgres

import (
	"context"
	"errors"

	permissionDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/portal-admin/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetByUserID(ctx context.Context, userID int64) ([]*permissionDatamodel.ModulePermission, error) {
	var rows []*permissionDatamodel.ModulePermission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("module_key ASC").
		Find(&rows).Error
	return rows, err
}

func (r *PermissionRepository) GetByUserAndModule(ctx context.Context, userID int64, moduleKey string) (*permissionDatamodel.ModulePermission, error) {
	var row permissionDatamodel.ModulePermission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND module_key = ?", userID, moduleKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PermissionRepository) Upsert(ctx context.Context, row *permissionDatamodel.ModulePermission) error {
	return upsert(r.db.WithContext(ctx), row)
}

func (r *PermissionRepository) Delete(ctx context.Context, userID int64, moduleKey string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND module_key = ?", userID, moduleKey).
		Delete(&permissionDatamodel.ModulePermission{}).Error
}

// ReplaceAll deletes the user's rows and inserts rows in one transaction.
// Readers see either the old set or the new one.
func (r *PermissionRepository) ReplaceAll(ctx context.Context, userID int64, rows []*permissionDatamodel.ModulePermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&permissionDatamodel.ModulePermission{}).Error; err != nil {
			return err
		}
		for _, row := range rows {
			row.ID = 0
			row.UserID = userID
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(db *gorm.DB, row *permissionDatamodel.ModulePermission) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_create", "can_edit", "can_delete", "can_publish", "granted_by", "updated_at"}),
	}).Create(row).Error
}
