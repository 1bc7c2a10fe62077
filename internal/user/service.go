package user

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/authz"
	"github.com/frahmantamala/portal-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/permission"
)

type Repository interface {
	// GetByID and GetByEmail return nil, nil when no row matches.
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	List(ctx context.Context) ([]*userDatamodel.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Deactivate(ctx context.Context, id int64) error
}

// PermissionManager is the slice of the permission store used for inline
// grant edits on user create/update.
type PermissionManager interface {
	ValidatePayload(ctx context.Context, inputs []permission.GrantInput) error
	ReplaceAll(ctx context.Context, actorID, userID int64, inputs []permission.GrantInput) ([]*permission.Grant, error)
}

type Service struct {
	repo        Repository
	permissions PermissionManager
	events      events.Publisher
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo Repository, permissions PermissionManager, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		permissions: permissions,
		events:      publisher,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get user", "user_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// Exists lets the permission store check grant targets.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, actor *coreUser.Principal, req CreateUserRequest) (*WithGrants, error) {
	req.Normalize()
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if appErr := validation.Validate(req); appErr != nil {
		return nil, appErr
	}
	if role == coreUser.RoleAdmin && !authz.IsPrivileged(actor) {
		s.logger.WarnContext(ctx, "admin creation by non-privileged actor", "actor_id", actor.ID)
		return nil, internal.ErrPrivilegedNeeded
	}
	if err := s.checkInlineGrants(ctx, actor, req.Permissions); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         string(role),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create user", "email", req.Email, "error", err)
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}

	created := FromDataModel(row)
	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role, "actor_id", actor.ID)

	result := &WithGrants{User: created}
	if req.Permissions != nil {
		grants, err := s.permissions.ReplaceAll(ctx, actor.ID, created.ID, *req.Permissions)
		if err != nil {
			s.logger.ErrorContext(ctx, "user created but grants not applied", "user_id", created.ID, "error", err)
			return nil, err
		}
		result.Grants = grants
	}
	return result, nil
}

func (s *Service) Update(ctx context.Context, actor *coreUser.Principal, id int64, req UpdateUserRequest) (*WithGrants, error) {
	req.Normalize()
	var role coreUser.Role
	if req.Role != nil {
		parsed, err := parseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	if appErr := validation.Validate(req); appErr != nil {
		return nil, appErr
	}
	if err := s.checkInlineGrants(ctx, actor, req.Permissions); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	if err := s.checkAccountControl(ctx, actor, row, req.Role != nil && string(role) != row.Role); err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != row.Email {
		other, err := s.repo.GetByEmail(ctx, *req.Email)
		if err != nil {
			return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
		}
		if other != nil && other.ID != id {
			return nil, internal.ErrEmailTaken
		}
		row.Email = *req.Email
	}
	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.Role != nil {
		row.Role = string(role)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		row.PasswordHash = string(hash)
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = row.IsActive && !*req.IsActive
		row.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update user", "user_id", id, "error", err)
		return nil, internal.NewStoreUnavailableError("user directory unavailable", err)
	}

	updated := FromDataModel(row)
	s.logger.InfoContext(ctx, "user updated", "user_id", id, "actor_id", actor.ID)
	if deactivated {
		s.publish(ctx, events.NewUserDeactivatedEvent(id, actor.ID))
	}

	result := &WithGrants{User: updated}
	if req.Permissions != nil {
		grants, err := s.permissions.ReplaceAll(ctx, actor.ID, id, *req.Permissions)
		if err != nil {
			return nil, err
		}
		result.Grants = grants
	}
	return result, nil
}

// Deactivate is the DELETE operation. Users are never removed, so their
// grants stay attached for audit and reactivation.
func (s *Service) Deactivate(ctx context.Context, actor *coreUser.Principal, id int64) error {
	if actor.ID == id {
		return internal.NewValidationError("users cannot deactivate themselves", internal.ErrCodeValidationFailed)
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if row == nil {
		return internal.ErrUserNotFound
	}
	if err := s.checkAccountControl(ctx, actor, row, false); err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to deactivate user", "user_id", id, "error", err)
		return internal.NewStoreUnavailableError("user directory unavailable", err)
	}

	s.logger.InfoContext(ctx, "user deactivated", "user_id", id, "actor_id", actor.ID)
	s.publish(ctx, events.NewUserDeactivatedEvent(id, actor.ID))
	return nil
}

// checkAccountControl: role changes and admin accounts are for privileged
// actors only.
func (s *Service) checkAccountControl(ctx context.Context, actor *coreUser.Principal, target *userDatamodel.User, roleChange bool) error {
	if authz.IsPrivileged(actor) {
		return nil
	}
	if roleChange || coreUser.Role(target.Role).Privilege() == coreUser.Privileged {
		s.logger.WarnContext(ctx, "account change needs a privileged actor",
			"actor_id", actor.ID, "user_id", target.ID, "role_change", roleChange)
		return internal.ErrPrivilegedNeeded
	}
	return nil
}

func parseRole(raw string) (coreUser.Role, error) {
	role, ok := coreUser.ParseRole(raw)
	if !ok {
		return "", internal.NewValidationFieldError("role", "role must be one of admin, editor, usuario", internal.ErrCodeInvalidRole)
	}
	return role, nil
}

// checkInlineGrants runs before any user row is written so a rejected
// payload leaves nothing behind.
func (s *Service) checkInlineGrants(ctx context.Context, actor *coreUser.Principal, inputs *[]permission.GrantInput) error {
	if inputs == nil {
		return nil
	}
	if !authz.IsPrivileged(actor) {
		s.logger.WarnContext(ctx, "inline permissions from non-privileged actor", "actor_id", actor.ID)
		return internal.ErrPrivilegedNeeded
	}
	return s.permissions.ValidatePayload(ctx, *inputs)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
