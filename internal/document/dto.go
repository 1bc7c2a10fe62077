package document

import "strings"

type CreateDocumentDTO struct {
	Category string `json:"category" validate:"required,slug"`
	Title    string `json:"title" validate:"required,min=1,max=255"`
	Summary  string `json:"summary" validate:"max=2000"`
	FileURL  string `json:"file_url" validate:"omitempty,url,max=1024"`
}

func (dto *CreateDocumentDTO) Normalize() {
	dto.Category = strings.TrimSpace(dto.Category)
	dto.Title = strings.TrimSpace(dto.Title)
	dto.Summary = strings.TrimSpace(dto.Summary)
	dto.FileURL = strings.TrimSpace(dto.FileURL)
}

// UpdateDocumentDTO is partial. Setting Category moves the document.
type UpdateDocumentDTO struct {
	Category *string `json:"category,omitempty" validate:"omitempty,slug"`
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Summary  *string `json:"summary,omitempty" validate:"omitempty,max=2000"`
	FileURL  *string `json:"file_url,omitempty" validate:"omitempty,url,max=1024"`
}

type DocumentsResponse struct {
	Documents []*Document `json:"documents"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}
