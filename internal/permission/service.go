package permission

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/core/common/validation"
	permissionDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	"github.com/frahmantamala/portal-admin/internal/module"
)

type RepositoryAPI interface {
	GetByUserID(ctx context.Context, userID int64) ([]*permissionDatamodel.ModulePermission, error)
	// GetByUserAndModule returns nil, nil when no row exists.
	GetByUserAndModule(ctx context.Context, userID int64, moduleKey string) (*permissionDatamodel.ModulePermission, error)
	Upsert(ctx context.Context, row *permissionDatamodel.ModulePermission) error
	Delete(ctx context.Context, userID int64, moduleKey string) error
	// ReplaceAll swaps the user's whole grant set in one transaction.
	ReplaceAll(ctx context.Context, userID int64, rows []*permissionDatamodel.ModulePermission) error
}

type ModuleRegistry interface {
	Snapshot(ctx context.Context) (*module.Snapshot, error)
}

type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

type Service struct {
	repo     RepositoryAPI
	registry ModuleRegistry
	users    UserDirectory
	events   events.Publisher
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, registry ModuleRegistry, users UserDirectory, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		users:    users,
		events:   publisher,
		logger:   logger,
	}
}

// GrantsFor returns every stored grant of the user.
func (s *Service) GrantsFor(ctx context.Context, userID int64) ([]*Grant, error) {
	rows, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load grants", "user_id", userID, "error", err)
		return nil, internal.NewStoreUnavailableError("permission store unavailable", err)
	}

	grants := make([]*Grant, 0, len(rows))
	for _, row := range rows {
		g := FromDataModel(row)
		if g.IsEmpty() {
			continue
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// GrantFor returns nil when the user has no grant for moduleKey. A stored
// all-false row is reported as absent too.
func (s *Service) GrantFor(ctx context.Context, userID int64, moduleKey string) (*Grant, error) {
	row, err := s.repo.GetByUserAndModule(ctx, userID, moduleKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load grant", "user_id", userID, "module", moduleKey, "error", err)
		return nil, internal.NewStoreUnavailableError("permission store unavailable", err)
	}
	if row == nil {
		return nil, nil
	}

	g := FromDataModel(row)
	if g.IsEmpty() {
		return nil, nil
	}
	return g, nil
}

// ListGrants is the admin view of a user's grants: only modules that are
// still registered, in registry order.
func (s *Service) ListGrants(ctx context.Context, userID int64) ([]*Grant, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	var (
		snap   *module.Snapshot
		grants []*Grant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.registry.Snapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		grants, err = s.GrantsFor(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make(map[string]int, snap.Len())
	for i, m := range snap.List() {
		order[m.Key] = i
	}

	listed := make([]*Grant, 0, len(grants))
	for _, gr := range grants {
		if !snap.Exists(gr.ModuleKey) {
			s.logger.DebugContext(ctx, "skipping grant for unregistered module", "user_id", userID, "module", gr.ModuleKey)
			continue
		}
		listed = append(listed, gr)
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return order[listed[i].ModuleKey] < order[listed[j].ModuleKey]
	})
	return listed, nil
}

// Upsert replaces the grant row for one (user, module) pair. All four flags
// must be supplied; an all-false input removes the row.
func (s *Service) Upsert(ctx context.Context, actorID, userID int64, in GrantInput) (*Grant, error) {
	if details := validation.Struct(in, ""); len(details) > 0 {
		return nil, internal.NewInvalidGrantPayloadError(details)
	}

	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Exists(in.Module) {
		return nil, internal.NewModuleNotFoundError(in.Module)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	grant := &Grant{UserID: userID, ModuleKey: in.Module, GrantedBy: actorRef(actorID), Flags: in.Flags()}
	if grant.IsEmpty() {
		if err := s.repo.Delete(ctx, userID, in.Module); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke grant", "user_id", userID, "module", in.Module, "error", err)
			return nil, internal.NewStoreUnavailableError("permission store unavailable", err)
		}
		return nil, nil
	}

	if err := s.repo.Upsert(ctx, ToDataModel(grant)); err != nil {
		s.logger.ErrorContext(ctx, "failed to upsert grant", "user_id", userID, "module", in.Module, "error", err)
		return nil, internal.NewStoreUnavailableError("permission store unavailable", err)
	}

	s.logger.InfoContext(ctx, "grant upserted", "user_id", userID, "module", in.Module, "actor_id", actorID)
	return grant, nil
}

// ValidatePayload checks a full permission payload without writing it.
func (s *Service) ValidatePayload(ctx context.Context, inputs []GrantInput) error {
	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return err
	}
	_, appErr := normalize(snap, 0, 0, inputs)
	if appErr != nil {
		return appErr
	}
	return nil
}

// ReplaceAll makes inputs the user's complete grant set: modules left out
// are revoked. The payload is rejected as a whole if any entry is invalid.
func (s *Service) ReplaceAll(ctx context.Context, actorID, userID int64, inputs []GrantInput) ([]*Grant, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows, appErr := normalize(snap, userID, actorID, inputs)
	if appErr != nil {
		s.logger.WarnContext(ctx, "rejected permission payload", "user_id", userID, "actor_id", actorID, "error", appErr)
		return nil, appErr
	}

	if err := s.repo.ReplaceAll(ctx, userID, rows); err != nil {
		s.logger.ErrorContext(ctx, "failed to replace grants", "user_id", userID, "error", err)
		return nil, internal.NewStoreUnavailableError("permission store unavailable", err)
	}

	grants := make([]*Grant, 0, len(rows))
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		grants = append(grants, FromDataModel(row))
		keys = append(keys, row.ModuleKey)
	}

	s.logger.InfoContext(ctx, "grants replaced", "user_id", userID, "actor_id", actorID, "modules", keys)
	if s.events != nil {
		if err := s.events.Publish(ctx, events.NewPermissionsReplacedEvent(userID, actorID, keys)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish permissions event", "user_id", userID, "error", err)
		}
	}

	return grants, nil
}

func (s *Service) ensureUser(ctx context.Context, userID int64) error {
	if s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return internal.NewStoreUnavailableError("user directory unavailable", err)
	}
	if !ok {
		return internal.ErrUserNotFound
	}
	return nil
}

// normalize validates every entry against one registry snapshot and drops
// all-false entries.
func normalize(snap *module.Snapshot, userID, actorID int64, inputs []GrantInput) ([]*permissionDatamodel.ModulePermission, *internal.AppError) {
	var details []internal.ValidationError
	seen := make(map[string]int, len(inputs))
	rows := make([]*permissionDatamodel.ModulePermission, 0, len(inputs))

	for i, in := range inputs {
		path := fmt.Sprintf("permissions[%d]", i)
		if errs := validation.Struct(in, path); len(errs) > 0 {
			details = append(details, errs...)
			continue
		}
		if !snap.Exists(in.Module) {
			details = append(details, internal.ValidationError{
				Field:   path + ".module",
				Message: fmt.Sprintf("module %q is not registered", in.Module),
				Code:    string(internal.ErrCodeModuleNotFound),
			})
			continue
		}
		if first, dup := seen[in.Module]; dup {
			details = append(details, internal.ValidationError{
				Field:   path + ".module",
				Message: fmt.Sprintf("module %q already listed at permissions[%d]", in.Module, first),
				Code:    string(internal.ErrCodeInvalidGrantPayload),
			})
			continue
		}
		seen[in.Module] = i

		flags := in.Flags()
		if flags.IsEmpty() {
			continue
		}
		rows = append(rows, ToDataModel(&Grant{
			UserID:    userID,
			ModuleKey: in.Module,
			GrantedBy: actorRef(actorID),
			Flags:     flags,
		}))
	}

	if len(details) > 0 {
		return nil, internal.NewInvalidGrantPayloadError(details)
	}
	return rows, nil
}

func actorRef(actorID int64) *int64 {
	if actorID <= 0 {
		return nil
	}
	id := actorID
	return &id
}
