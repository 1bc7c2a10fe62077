package document

import "time"

type TransparencyDocument struct {
	ID           int64      `gorm:"primaryKey"`
	CategorySlug string     `gorm:"column:category_slug;not null;index"`
	Title        string     `gorm:"column:title;not null"`
	Summary      string     `gorm:"column:summary"`
	FileURL      string     `gorm:"column:file_url"`
	Status       string     `gorm:"column:status;not null;default:draft"`
	CreatedBy    int64      `gorm:"column:created_by;not null"`
	UpdatedBy    *int64     `gorm:"column:updated_by"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (TransparencyDocument) TableName() string {
	return "transparency_documents"
}
