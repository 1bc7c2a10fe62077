package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/portal-admin/api"
	"github.com/frahmantamala/portal-admin/internal"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
	"github.com/frahmantamala/portal-admin/internal/transport"
)

type errorBody struct {
	Error struct {
		Type    internal.ErrorType `json:"type"`
		Code    internal.ErrorCode `json:"code"`
		Message string             `json:"message"`
		Details json.RawMessage    `json:"details"`
	} `json:"error"`
}

func decodeError(rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body
}

type stubAuthorizer struct {
	err   error
	calls int
}

func (s *stubAuthorizer) Authorize(ctx context.Context, p *coreUser.Principal, moduleKey string, action permission.Action) error {
	s.calls++
	return s.err
}

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func withPrincipal(r *http.Request, p *coreUser.Principal) *http.Request {
	return r.WithContext(internal.ContextWithPrincipal(r.Context(), p))
}

var _ = Describe("Authorization", func() {
	var (
		lg         *slog.Logger
		authorizer *stubAuthorizer
		guard      *Authorization
		editor     *coreUser.Principal
	)

	BeforeEach(func() {
		lg = slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		authorizer = &stubAuthorizer{}
		guard = NewAuthorization(authorizer, lg)
		editor = &coreUser.Principal{ID: 2, Role: coreUser.RoleEditor, Active: true}
	})

	serve := func(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	Describe("RequireAction", func() {
		var guarded http.Handler

		BeforeEach(func() {
			guarded = guard.RequireAction(module.KeyUsuarios, permission.ActionEdit)(noContent)
		})

		It("passes allowed requests", func() {
			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), editor))
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(authorizer.calls).To(Equal(1))
		})

		It("answers 401 without a principal", func() {
			rec := serve(guarded, httptest.NewRequest(http.MethodGet, "/users", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(authorizer.calls).To(BeZero())
		})

		It("answers 403 on deny", func() {
			authorizer.err = internal.NewForbiddenActionError(module.KeyUsuarios, "edit")

			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), editor))
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeForbiddenAction))
		})

		It("answers 503 when the store is down", func() {
			authorizer.err = internal.NewStoreUnavailableError("permission store unavailable", nil)

			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), editor))
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		})

		It("treats an unregistered guard key as a server fault", func() {
			authorizer.err = internal.NewModuleNotFoundError("usuario")

			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), editor))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("RequirePrivileged", func() {
		var guarded http.Handler

		BeforeEach(func() {
			guarded = guard.RequirePrivileged()(noContent)
		})

		It("lets active admins through", func() {
			admin := &coreUser.Principal{ID: 1, Role: coreUser.RoleAdmin, Active: true}
			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/modules", nil), admin))
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		})

		It("refuses standard users whatever their grants", func() {
			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/modules", nil), editor))
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodePrivilegedNeeded))
		})

		It("refuses inactive admins", func() {
			admin := &coreUser.Principal{ID: 1, Role: coreUser.RoleAdmin, Active: false}
			rec := serve(guarded, withPrincipal(httptest.NewRequest(http.MethodGet, "/modules", nil), admin))
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("answers 401 without a principal", func() {
			rec := serve(guarded, httptest.NewRequest(http.MethodGet, "/modules", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})

var _ = Describe("RequestValidator", func() {
	var (
		handler http.Handler
		reached bool
	)

	BeforeEach(func() {
		validator, err := NewRequestValidator(api.OpenAPISpec, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		Expect(err).NotTo(HaveOccurred())

		reached = false
		handler = validator.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		}))
	})

	put := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("accepts a bare grant list", func() {
		rec := put("/api/v1/users/2/permissions",
			`[{"module":"noticias","can_create":true,"can_edit":false,"can_delete":false,"can_publish":false}]`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("accepts a wrapped grant list", func() {
		rec := put("/api/v1/users/2/permissions", `{"permissions":[]}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("reports a missing flag as an invalid grant payload", func() {
		rec := put("/api/v1/users/2/permissions", `[{"module":"noticias","can_create":true}]`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeInvalidGrantPayload))
		Expect(reached).To(BeFalse())
	})

	It("reports a non-boolean flag as an invalid grant payload", func() {
		rec := put("/api/v1/users/2/permissions",
			`[{"module":"noticias","can_create":"yes","can_edit":false,"can_delete":false,"can_publish":false}]`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeInvalidGrantPayload))
	})

	It("rejects a non-numeric user id with the generic code", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc/permissions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeValidationFailed))
	})

	It("rejects an unknown module kind filter", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/modules?kind=plugin", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(reached).To(BeFalse())
	})

	It("passes through paths the document does not describe", func() {
		req := httptest.NewRequest(http.MethodGet, "/internal/debug", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("fails to build from a broken document", func() {
		_, err := NewRequestValidator([]byte("openapi: [broken"), slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("renders JSON pointers as field paths",
		func(pointer []string, expected string) {
			Expect(fieldPath(pointer)).To(Equal(expected))
		},
		Entry("array root", []string{"0", "module"}, "[0].module"),
		Entry("wrapped", []string{"permissions", "1", "can_edit"}, "permissions[1].can_edit"),
		Entry("flat", []string{"kind"}, "kind"),
	)

	It("is optional in router wiring", func() {
		Expect(ValidatorFor(nil)(noContent)).NotTo(BeNil())
	})
})

var _ = Describe("AdminRateLimit", func() {
	var limited http.Handler

	BeforeEach(func() {
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		limited = AdminRateLimit(2, base)(noContent)
	})

	call := func(p *coreUser.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/modules", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if p != nil {
			req = withPrincipal(req, p)
		}
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec
	}

	It("answers 429 once an actor exhausts the window", func() {
		admin := &coreUser.Principal{ID: 1, Role: coreUser.RoleAdmin, Active: true}
		Expect(call(admin).Code).To(Equal(http.StatusNoContent))
		Expect(call(admin).Code).To(Equal(http.StatusNoContent))

		rec := call(admin)
		Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
		Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeRateLimited))
	})

	It("counts each actor separately", func() {
		first := &coreUser.Principal{ID: 1, Role: coreUser.RoleAdmin, Active: true}
		second := &coreUser.Principal{ID: 3, Role: coreUser.RoleAdmin, Active: true}
		call(first)
		call(first)

		Expect(call(second).Code).To(Equal(http.StatusNoContent))
	})

	It("is disabled by a non-positive limit", func() {
		base := transport.NewBaseHandler(nil)
		unlimited := AdminRateLimit(0, base)(noContent)
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Code).To(Equal(http.StatusNoContent))
		}
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a 500", func() {
		h := RecoveryMiddleware(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(decodeError(rec).Error.Code).To(Equal(internal.ErrCodeInternal))
	})
})

var _ = Describe("RequestID", func() {
	var seen string

	handler := func() http.Handler {
		return RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = internal.RequestIDFromContext(r.Context())
		}))
	}

	It("keeps a caller supplied id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler().ServeHTTP(rec, req)

		Expect(seen).To(Equal("abc-123"))
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
	})

	It("mints one otherwise", func() {
		rec := httptest.NewRecorder()
		handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).To(HaveLen(36))
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal(seen))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks sensitive fields and keeps the body readable downstream", func() {
		var logs bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&logs, nil))

		var received []byte
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_FAILED"}}`))
		}))

		body := `{"email":"a@portal.local","password":"s3creta","permissions":[{"module":"noticias"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(string(received)).To(Equal(body))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(logs.String()).NotTo(ContainSubstring("s3creta"))
		Expect(logs.String()).NotTo(ContainSubstring("abc.def.ghi"))
		Expect(logs.String()).To(ContainSubstring("VALIDATION_FAILED"))
	})

	DescribeTable("maskBody",
		func(in, expected string) {
			Expect(maskBody([]byte(in))).To(Equal(expected))
		},
		Entry("empty", "", ""),
		Entry("nested secret", `{"a":{"api_key":"k"}}`, `{"a":{"api_key":"[FILTERED]"}}`),
		Entry("plain text", "hola", "hola"),
		Entry("plain text with a token", "token=abc", "[FILTERED]"),
	)
})
