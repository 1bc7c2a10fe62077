package category

import "time"

// DocumentCategory is a transparency-document category. Each active row
// yields one permissionable module.
type DocumentCategory struct {
	ID          int64     `gorm:"primaryKey"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	SortOrder   int       `gorm:"column:sort_order;default:0"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DocumentCategory) TableName() string {
	return "document_categories"
}
