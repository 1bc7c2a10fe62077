package user

import "strings"

// Role is the role advertised on a user record.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEditor  Role = "editor"
	RoleUsuario Role = "usuario"
)

// Privilege is the only classification of a role the authorization code
// looks at. Every role other than RoleAdmin is Standard.
type Privilege int

const (
	Standard Privilege = iota
	Privileged
)

func (r Role) Privilege() Privilege {
	if r == RoleAdmin {
		return Privileged
	}
	return Standard
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUsuario:
		return true
	}
	return false
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Principal describes the authenticated actor of a request.
type Principal struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}
