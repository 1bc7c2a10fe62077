package module

import (
	"context"
	"net/http"

	"github.com/frahmantamala/portal-admin/internal/transport"
)

type RegistryAPI interface {
	List(ctx context.Context) ([]Module, error)
}

type Handler struct {
	*transport.BaseHandler
	Registry RegistryAPI
}

func NewHandler(baseHandler *transport.BaseHandler, registry RegistryAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Registry:    registry,
	}
}

type ModuleResponse struct {
	Key          string `json:"key"`
	Description  string `json:"description"`
	Kind         string `json:"kind"`
	CategorySlug string `json:"category_slug,omitempty"`
}

type ModulesResponse struct {
	Modules []ModuleResponse `json:"modules"`
}

func ToResponse(m Module) ModuleResponse {
	return ModuleResponse{
		Key:          m.Key,
		Description:  m.Description,
		Kind:         m.Kind.String(),
		CategorySlug: m.CategorySlug,
	}
}

// ListModules handles GET /modules. ?kind=core|category filters the list.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.Registry.List(r.Context())
	if err != nil {
		h.Logger.Error("ListModules: failed to load registry", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != "core" && kind != "category" {
		h.WriteError(w, http.StatusBadRequest, "kind must be core or category")
		return
	}

	resp := ModulesResponse{Modules: make([]ModuleResponse, 0, len(modules))}
	for _, m := range modules {
		switch kind {
		case "core":
			if IsCategoryKey(m.Key) {
				continue
			}
		case "category":
			if !IsCategoryKey(m.Key) {
				continue
			}
		}
		resp.Modules = append(resp.Modules, ToResponse(m))
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
