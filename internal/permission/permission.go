package permission

import (
	"fmt"
	"strings"
	"time"

	permissionDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/permission"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionEdit, ActionDelete, ActionPublish:
		return true
	}
	return false
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Flags are the four independent grants for one (user, module) pair.
type Flags struct {
	CanCreate  bool `json:"can_create"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
	CanPublish bool `json:"can_publish"`
}

// Allows reports the flag backing action. Unknown actions are never allowed.
func (f Flags) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return f.CanCreate
	case ActionEdit:
		return f.CanEdit
	case ActionDelete:
		return f.CanDelete
	case ActionPublish:
		return f.CanPublish
	default:
		return false
	}
}

// IsEmpty is true when no action is granted; such a grant is never stored.
func (f Flags) IsEmpty() bool {
	return !f.CanCreate && !f.CanEdit && !f.CanDelete && !f.CanPublish
}

type Grant struct {
	UserID    int64     `json:"-"`
	ModuleKey string    `json:"module"`
	GrantedBy *int64    `json:"granted_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Flags
}

func ToDataModel(g *Grant) *permissionDatamodel.ModulePermission {
	return &permissionDatamodel.ModulePermission{
		UserID:     g.UserID,
		ModuleKey:  g.ModuleKey,
		CanCreate:  g.CanCreate,
		CanEdit:    g.CanEdit,
		CanDelete:  g.CanDelete,
		CanPublish: g.CanPublish,
		GrantedBy:  g.GrantedBy,
		UpdatedAt:  g.UpdatedAt,
	}
}

func FromDataModel(p *permissionDatamodel.ModulePermission) *Grant {
	return &Grant{
		UserID:    p.UserID,
		ModuleKey: p.ModuleKey,
		GrantedBy: p.GrantedBy,
		UpdatedAt: p.UpdatedAt,
		Flags: Flags{
			CanCreate:  p.CanCreate,
			CanEdit:    p.CanEdit,
			CanDelete:  p.CanDelete,
			CanPublish: p.CanPublish,
		},
	}
}
