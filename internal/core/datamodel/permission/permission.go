package permission

import "time"

// ModulePermission is one grant row; (user_id, module_key) is unique.
type ModulePermission struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_module_permissions_user_module"`
	ModuleKey  string    `gorm:"column:module_key;not null;uniqueIndex:idx_module_permissions_user_module"`
	CanCreate  bool      `gorm:"column:can_create;not null;default:false"`
	CanEdit    bool      `gorm:"column:can_edit;not null;default:false"`
	CanDelete  bool      `gorm:"column:can_delete;not null;default:false"`
	CanPublish bool      `gorm:"column:can_publish;not null;default:false"`
	GrantedBy  *int64    `gorm:"column:granted_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ModulePermission) TableName() string {
	return "module_permissions"
}
