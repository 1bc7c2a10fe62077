package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/portal-admin/internal/auth"
	"github.com/frahmantamala/portal-admin/internal/category"
	"github.com/frahmantamala/portal-admin/internal/document"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
	"github.com/frahmantamala/portal-admin/internal/transport"
	"github.com/frahmantamala/portal-admin/internal/transport/middleware"
	"github.com/frahmantamala/portal-admin/internal/transport/swagger"
	"github.com/frahmantamala/portal-admin/internal/user"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes unregistered.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Module     *module.Handler
	Permission *permission.Handler
	Category   *category.Handler
	Document   *document.Handler
	Health     *HealthHandler
}

type RouterOptions struct {
	Production        bool
	AdminRequestLimit int
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, authorization *middleware.Authorization, validator *middleware.RequestValidator, opts RouterOptions, logger *slog.Logger) {
	base := transport.NewBaseHandler(logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(opts.Production))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
		}
		if h.Document != nil {
			r.Get("/documents", h.Document.ListDocuments)
			r.Get("/documents/{id}", h.Document.GetDocument)
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// permission management: privileged actors only
			pr.Group(func(ar chi.Router) {
				ar.Use(authorization.RequirePrivileged())
				ar.Use(middleware.AdminRateLimit(opts.AdminRequestLimit, base))
				ar.Use(middleware.ValidatorFor(validator))

				if h.Module != nil {
					ar.Get("/modules", h.Module.ListModules)
				}
				if h.Permission != nil {
					ar.Get("/users/{id}/permissions", h.Permission.GetUserPermissions)
					ar.Put("/users/{id}/permissions", h.Permission.ReplaceUserPermissions)
				}
			})

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.With(authorization.RequireAction(module.KeyUsuarios, permission.ActionEdit)).Get("/users", h.User.ListUsers)
				pr.With(authorization.RequireAction(module.KeyUsuarios, permission.ActionEdit)).Get("/users/{id}", h.User.GetUser)
				pr.With(authorization.RequireAction(module.KeyUsuarios, permission.ActionCreate)).Post("/users", h.User.CreateUser)
				pr.With(authorization.RequireAction(module.KeyUsuarios, permission.ActionEdit)).Put("/users/{id}", h.User.UpdateUser)
				pr.With(authorization.RequireAction(module.KeyUsuarios, permission.ActionDelete)).Delete("/users/{id}", h.User.DeactivateUser)
			}

			if h.Category != nil {
				pr.With(authorization.RequireAction(module.KeyCategorias, permission.ActionEdit)).Get("/categories/all", h.Category.ListAllCategories)
				pr.With(authorization.RequireAction(module.KeyCategorias, permission.ActionCreate)).Post("/categories", h.Category.CreateCategory)
				pr.With(authorization.RequireAction(module.KeyCategorias, permission.ActionEdit)).Put("/categories/{id}", h.Category.UpdateCategory)
				pr.With(authorization.RequireAction(module.KeyCategorias, permission.ActionDelete)).Delete("/categories/{id}", h.Category.DeleteCategory)
			}

			// document routes are checked per category module in the service
			if h.Document != nil {
				pr.Post("/documents", h.Document.CreateDocument)
				pr.Put("/documents/{id}", h.Document.UpdateDocument)
				pr.Delete("/documents/{id}", h.Document.DeleteDocument)
				pr.Post("/documents/{id}/publish", h.Document.PublishDocument)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "route not found")
	})
}
