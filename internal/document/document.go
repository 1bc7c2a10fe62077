package document

import (
	"time"

	documentDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/document"
	"github.com/frahmantamala/portal-admin/internal/module"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Document struct {
	ID           int64      `json:"id"`
	CategorySlug string     `json:"category"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	FileURL      string     `json:"file_url"`
	Status       string     `json:"status"`
	CreatedBy    int64      `json:"created_by"`
	UpdatedBy    *int64     `json:"updated_by,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ModuleKey is the module whose grants govern this document.
func (d *Document) ModuleKey() string {
	return module.CategoryKey(d.CategorySlug)
}

func (d *Document) IsPublished() bool {
	return d.Status == StatusPublished
}

func (d *Document) Publish(actorID int64) {
	now := time.Now()
	d.Status = StatusPublished
	d.PublishedAt = &now
	d.UpdatedBy = &actorID
	d.UpdatedAt = now
}

func ToDataModel(d *Document) *documentDatamodel.TransparencyDocument {
	return &documentDatamodel.TransparencyDocument{
		ID:           d.ID,
		CategorySlug: d.CategorySlug,
		Title:        d.Title,
		Summary:      d.Summary,
		FileURL:      d.FileURL,
		Status:       d.Status,
		CreatedBy:    d.CreatedBy,
		UpdatedBy:    d.UpdatedBy,
		PublishedAt:  d.PublishedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func FromDataModel(d *documentDatamodel.TransparencyDocument) *Document {
	return &Document{
		ID:           d.ID,
		CategorySlug: d.CategorySlug,
		Title:        d.Title,
		Summary:      d.Summary,
		FileURL:      d.FileURL,
		Status:       d.Status,
		CreatedBy:    d.CreatedBy,
		UpdatedBy:    d.UpdatedBy,
		PublishedAt:  d.PublishedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func FromDataModelSlice(docs []*documentDatamodel.TransparencyDocument) []*Document {
	result := make([]*Document, len(docs))
	for i, d := range docs {
		result[i] = FromDataModel(d)
	}
	return result
}
