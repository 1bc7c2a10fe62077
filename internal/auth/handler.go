package auth

import (
	"net/http"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/transport"
	"github.com/frahmantamala/portal-admin/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// AuthMiddleware loads the Principal for the bearer token and stores it on
// the request context. Inactive users pass through; the evaluator denies them.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.WarnContext(r.Context(), "auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		principal, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.WarnContext(r.Context(), "auth middleware: authentication failed", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "user_id", principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
