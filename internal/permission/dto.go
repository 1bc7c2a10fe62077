package permission

import (
	"bytes"
	"encoding/json"
	"errors"
)

// GrantInput is one entry of a permission payload. Every flag is a pointer
// so an omitted field is rejected instead of silently read as false.
type GrantInput struct {
	Module     string `json:"module" validate:"required"`
	CanCreate  *bool  `json:"can_create" validate:"required"`
	CanEdit    *bool  `json:"can_edit" validate:"required"`
	CanDelete  *bool  `json:"can_delete" validate:"required"`
	CanPublish *bool  `json:"can_publish" validate:"required"`
}

// Flags assumes the input passed validation.
func (in GrantInput) Flags() Flags {
	return Flags{
		CanCreate:  deref(in.CanCreate),
		CanEdit:    deref(in.CanEdit),
		CanDelete:  deref(in.CanDelete),
		CanPublish: deref(in.CanPublish),
	}
}

func deref(b *bool) bool {
	return b != nil && *b
}

// NewGrantInput builds a complete input, mostly for seeding and tests.
func NewGrantInput(module string, f Flags) GrantInput {
	return GrantInput{
		Module:     module,
		CanCreate:  &f.CanCreate,
		CanEdit:    &f.CanEdit,
		CanDelete:  &f.CanDelete,
		CanPublish: &f.CanPublish,
	}
}

// ReplaceRequest is the body of PUT /users/{id}/permissions. A bare JSON
// array is accepted as well as {"permissions": [...]}.
type ReplaceRequest struct {
	Permissions []GrantInput `json:"permissions"`
}

func (r *ReplaceRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.Permissions)
	}

	var wrapped struct {
		Permissions *[]GrantInput `json:"permissions"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	if wrapped.Permissions == nil {
		return errors.New("permissions is required")
	}
	r.Permissions = *wrapped.Permissions
	return nil
}

type GrantResponse struct {
	Module string `json:"module"`
	Flags
}

type UserPermissionsResponse struct {
	UserID      int64           `json:"user_id"`
	Permissions []GrantResponse `json:"permissions"`
}

func ToResponse(userID int64, grants []*Grant) UserPermissionsResponse {
	resp := UserPermissionsResponse{
		UserID:      userID,
		Permissions: make([]GrantResponse, 0, len(grants)),
	}
	for _, g := range grants {
		resp.Permissions = append(resp.Permissions, GrantResponse{Module: g.ModuleKey, Flags: g.Flags})
	}
	return resp
}
