package user

import (
	"strings"
	"time"

	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/permission"
)

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,role"`
	// Permissions, when present, replaces the new user's grant set.
	Permissions *[]permission.GrantInput `json:"permissions,omitempty"`
}

func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email       *string                  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Name        *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Password    *string                  `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role        *string                  `json:"role,omitempty" validate:"omitempty,role"`
	IsActive    *bool                    `json:"is_active,omitempty"`
	Permissions *[]permission.GrantInput `json:"permissions,omitempty"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &e
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*r.Role))
		r.Role = &role
	}
}

type UserResponse struct {
	ID          int64                      `json:"id"`
	Email       string                     `json:"email"`
	Name        string                     `json:"name"`
	Role        coreUser.Role              `json:"role"`
	IsActive    bool                       `json:"is_active"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
	Permissions []permission.GrantResponse `json:"permissions,omitempty"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// WithGrants is the user plus the grant set written in the same request.
type WithGrants struct {
	User   *User
	Grants []*permission.Grant
}

func (w *WithGrants) ToResponse() UserResponse {
	resp := w.User.ToResponse()
	if w.Grants != nil {
		resp.Permissions = permission.ToResponse(w.User.ID, w.Grants).Permissions
	}
	return resp
}
