package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/portal-admin/api"
	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/auth"
	"github.com/frahmantamala/portal-admin/internal/authz"
	permissionDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/permission"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
	"github.com/frahmantamala/portal-admin/internal/transport"
	"github.com/frahmantamala/portal-admin/internal/transport/middleware"
)

type principalTable map[int64]*coreUser.Principal

func (p principalTable) GetPrincipal(ctx context.Context, userID int64) (*coreUser.Principal, error) {
	return p[userID], nil
}

func (p principalTable) Exists(ctx context.Context, userID int64) (bool, error) {
	_, ok := p[userID]
	return ok, nil
}

type staticCategories []module.CategoryRef

func (s staticCategories) ModuleCategories(ctx context.Context) ([]module.CategoryRef, error) {
	return s, nil
}

type memoryGrants struct {
	mu   sync.Mutex
	rows map[int64][]*permissionDatamodel.ModulePermission
}

func (m *memoryGrants) GetByUserID(ctx context.Context, userID int64) ([]*permissionDatamodel.ModulePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*permissionDatamodel.ModulePermission(nil), m.rows[userID]...), nil
}

func (m *memoryGrants) GetByUserAndModule(ctx context.Context, userID int64, moduleKey string) (*permissionDatamodel.ModulePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows[userID] {
		if row.ModuleKey == moduleKey {
			return row, nil
		}
	}
	return nil, nil
}

func (m *memoryGrants) Upsert(ctx context.Context, row *permissionDatamodel.ModulePermission) error {
	return errors.New("not used")
}

func (m *memoryGrants) Delete(ctx context.Context, userID int64, moduleKey string) error {
	return errors.New("not used")
}

func (m *memoryGrants) ReplaceAll(ctx context.Context, userID int64, rows []*permissionDatamodel.ModulePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = rows
	return nil
}

type failingPinger struct{ err error }

func (f failingPinger) PingContext(ctx context.Context) error { return f.err }

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		tokens *auth.JWTTokenGenerator
		pinger *failingPinger
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		base := transport.NewBaseHandler(lg)
		users := principalTable{
			1: {ID: 1, Role: coreUser.RoleAdmin, Active: true},
			2: {ID: 2, Role: coreUser.RoleEditor, Active: true},
		}

		registry := module.NewRegistry(staticCategories{{Slug: "presupuesto", Name: "Presupuesto"}}, lg)
		permissions := permission.NewService(&memoryGrants{rows: map[int64][]*permissionDatamodel.ModulePermission{}}, registry, users, nil, lg)
		evaluator := authz.NewEvaluator(registry, permissions, lg)
		tokens = auth.NewJWTTokenGenerator("router-secret", time.Minute)

		validator, err := middleware.NewRequestValidator(api.OpenAPISpec, lg)
		Expect(err).NotTo(HaveOccurred())

		pinger = &failingPinger{}
		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Auth:       auth.NewHandler(base, auth.NewService(tokens, users, lg)),
			Module:     module.NewHandler(base, registry),
			Permission: permission.NewHandler(base, permissions),
			Health:     NewHealthHandler(pinger, registry),
		}, middleware.NewAuthorization(evaluator, lg), validator, RouterOptions{AdminRequestLimit: 100}, lg)
	})

	do := func(method, path string, userID int64, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if userID > 0 {
			token, err := tokens.GenerateAccessToken(userID, "")
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	code := func(rec *httptest.ResponseRecorder) internal.ErrorCode {
		var body struct {
			Error struct {
				Code internal.ErrorCode `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	It("lists modules for an admin", func() {
		rec := do(http.MethodGet, "/api/v1/modules", 1, "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("transparencia_presupuesto"))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})

	It("keeps standard users off the permission surface", func() {
		rec := do(http.MethodGet, "/api/v1/modules", 2, "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(code(rec)).To(Equal(internal.ErrCodePrivilegedNeeded))

		rec = do(http.MethodPut, "/api/v1/users/2/permissions", 2, `{"permissions":[]}`)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("requires a token", func() {
		rec := do(http.MethodGet, "/api/v1/modules", 0, "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("replaces and reads back a grant set", func() {
		rec := do(http.MethodPut, "/api/v1/users/2/permissions", 1,
			`[{"module":"transparencia_presupuesto","can_create":false,"can_edit":true,"can_delete":false,"can_publish":false}]`)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = do(http.MethodGet, "/api/v1/users/2/permissions", 1, "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"module":"transparencia_presupuesto"`))
	})

	It("rejects incomplete grants before the handler runs", func() {
		rec := do(http.MethodPut, "/api/v1/users/2/permissions", 1, `[{"module":"noticias"}]`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(code(rec)).To(Equal(internal.ErrCodeInvalidGrantPayload))
	})

	It("reports unknown modules in an otherwise valid payload", func() {
		rec := do(http.MethodPut, "/api/v1/users/2/permissions", 1,
			`[{"module":"transparencia_nomina","can_create":true,"can_edit":false,"can_delete":false,"can_publish":false}]`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(code(rec)).To(Equal(internal.ErrCodeInvalidGrantPayload))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeModuleNotFound)))
	})

	It("answers 404 for unknown routes", func() {
		rec := do(http.MethodGet, "/api/v1/nothing", 1, "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("serves the OpenAPI document", func() {
		rec := do(http.MethodGet, "/openapi.yml", 0, "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("openapi: 3.0.3"))
	})

	Describe("health", func() {
		It("is healthy with a reachable database", func() {
			rec := do(http.MethodGet, "/api/v1/health", 0, "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp HealthResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Status).To(Equal(HealthHealthy))
			Expect(resp.Components).To(HaveKey("module_registry"))
			Expect(resp.Components["module_registry"].Details).To(HaveKeyWithValue("modules", BeNumerically("==", len(module.CoreModules())+1)))
		})

		It("reports 503 when the database is down", func() {
			pinger.err = errors.New("connection refused")

			rec := do(http.MethodGet, "/api/v1/health", 0, "")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("answers ping", func() {
			rec := do(http.MethodGet, "/api/v1/ping", 0, "")
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
