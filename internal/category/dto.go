package category

import "strings"

type CreateCategoryRequest struct {
	Slug        string `json:"slug" validate:"required,max=64,slug"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=500"`
	SortOrder   int    `json:"sort_order" validate:"gte=0"`
}

func (r *CreateCategoryRequest) Normalize() {
	r.Slug = strings.TrimSpace(r.Slug)
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// UpdateCategoryRequest may repeat the current slug but never change it.
type UpdateCategoryRequest struct {
	Slug        *string `json:"slug,omitempty"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type CategoryResponse struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
	Module      string `json:"module"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}
