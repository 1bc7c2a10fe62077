// Package authz answers whether a principal may perform an action on a module.
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/portal-admin/internal"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
)

type Registry interface {
	Snapshot(ctx context.Context) (*module.Snapshot, error)
}

type GrantReader interface {
	GrantFor(ctx context.Context, userID int64, moduleKey string) (*permission.Grant, error)
}

type Evaluator struct {
	registry Registry
	grants   GrantReader
	logger   *slog.Logger
}

func NewEvaluator(registry Registry, grants GrantReader, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		registry: registry,
		grants:   grants,
		logger:   logger,
	}
}

// IsAllowed evaluates one (principal, module, action) triple against the
// current registry and grant store. A false result with a nil error is a
// legitimate deny; any error means the decision could not be made and must
// be treated as a deny by the caller.
func (e *Evaluator) IsAllowed(ctx context.Context, p *coreUser.Principal, moduleKey string, action permission.Action) (bool, error) {
	if p == nil {
		return false, internal.ErrUnauthenticated
	}
	if !action.Valid() {
		return false, internal.NewValidationError(fmt.Sprintf("unknown action %q", action), internal.ErrCodeInvalidAction)
	}

	snap, err := e.registry.Snapshot(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "authorization: registry unavailable", "user_id", p.ID, "module", moduleKey, "error", err)
		if _, ok := internal.IsAppError(err); ok {
			return false, err
		}
		return false, internal.NewStoreUnavailableError("module registry unavailable", err)
	}
	if !snap.Exists(moduleKey) {
		e.logger.ErrorContext(ctx, "authorization: unknown module", "user_id", p.ID, "module", moduleKey, "action", action)
		return false, internal.NewModuleNotFoundError(moduleKey)
	}

	if !p.Active {
		e.logger.DebugContext(ctx, "authorization: inactive principal", "user_id", p.ID, "module", moduleKey, "action", action)
		return false, nil
	}
	if p.Role.Privilege() == coreUser.Privileged {
		return true, nil
	}

	grant, err := e.grants.GrantFor(ctx, p.ID, moduleKey)
	if err != nil {
		e.logger.ErrorContext(ctx, "authorization: grant lookup failed", "user_id", p.ID, "module", moduleKey, "error", err)
		if internal.HasCode(err, internal.ErrCodeStoreUnavailable) {
			return false, err
		}
		return false, internal.NewStoreUnavailableError("permission store unavailable", err)
	}
	if grant == nil {
		e.logger.DebugContext(ctx, "authorization: no grant", "user_id", p.ID, "module", moduleKey, "action", action)
		return false, nil
	}

	allowed := grant.Allows(action)
	if !allowed {
		e.logger.DebugContext(ctx, "authorization: flag not set", "user_id", p.ID, "module", moduleKey, "action", action)
	}
	return allowed, nil
}

// Authorize is IsAllowed for call sites that only need an error: a deny
// becomes FORBIDDEN_ACTION.
func (e *Evaluator) Authorize(ctx context.Context, p *coreUser.Principal, moduleKey string, action permission.Action) error {
	ok, err := e.IsAllowed(ctx, p, moduleKey, action)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewForbiddenActionError(moduleKey, string(action))
	}
	return nil
}

// IsPrivileged reports whether p may use the admin surface.
func IsPrivileged(p *coreUser.Principal) bool {
	return p != nil && p.Active && p.Role.Privilege() == coreUser.Privileged
}
