package permission

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/transport"
)

type ServiceAPI interface {
	ListGrants(ctx context.Context, userID int64) ([]*Grant, error)
	ReplaceAll(ctx context.Context, actorID, userID int64, inputs []GrantInput) ([]*Grant, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// GetUserPermissions handles GET /users/{id}/permissions.
func (h *Handler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	grants, err := h.Service.ListGrants(r.Context(), userID)
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "GetUserPermissions: failed to list grants", "user_id", userID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(userID, grants))
}

// ReplaceUserPermissions handles PUT /users/{id}/permissions.
func (h *Handler) ReplaceUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	actor, ok := internal.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var req ReplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.WarnContext(r.Context(), "ReplaceUserPermissions: malformed body", "user_id", userID, "error", err)
		h.HandleServiceError(w, internal.NewInvalidGrantPayloadError([]internal.ValidationError{{
			Field:   "permissions",
			Message: err.Error(),
			Code:    string(internal.ErrCodeInvalidGrantPayload),
		}}))
		return
	}

	grants, err := h.Service.ReplaceAll(r.Context(), actor.ID, userID, req.Permissions)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(userID, grants))
}
