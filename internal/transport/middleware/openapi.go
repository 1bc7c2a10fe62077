package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/transport"
)

// errorCodeExtension lets an operation choose the code its validation
// failures are reported with.
const errorCodeExtension = "x-error-code"

// RequestValidator rejects requests that do not match the OpenAPI document
// before they reach a handler. Requests for paths the document does not
// describe pass through untouched.
type RequestValidator struct {
	router routers.Router
	base   *transport.BaseHandler
	logger *slog.Logger
}

func NewRequestValidator(spec []byte, logger *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &RequestValidator{
		router: router,
		base:   transport.NewBaseHandler(logger),
		logger: logger,
	}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.logger.WarnContext(r.Context(), "request rejected by schema", "path", r.URL.Path, "method", r.Method, "error", err)
			v.base.HandleServiceError(w, toValidationError(route, err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func toValidationError(route *routers.Route, err error) *internal.AppError {
	code := internal.ErrCodeValidationFailed
	if route.Operation != nil {
		if raw, ok := route.Operation.Extensions[errorCodeExtension].(string); ok && raw != "" {
			code = internal.ErrorCode(raw)
		}
	}

	detail := internal.ValidationError{Field: "body", Message: err.Error(), Code: string(code)}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			detail.Field = reqErr.Parameter.Name
		}
		detail.Message = reqErr.Reason
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
			detail.Field = fieldPath(pointer)
		}
		detail.Message = schemaErr.Reason
	}
	if detail.Message == "" {
		detail.Message = "request does not match the API contract"
	}

	return internal.NewValidationError("request does not match the API contract", code).
		WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{detail}})
}

// fieldPath renders a JSON pointer as permissions[0].module.
func fieldPath(pointer []string) string {
	var b strings.Builder
	for _, part := range pointer {
		if part != "" && strings.Trim(part, "0123456789") == "" {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// ValidatorFor is a convenience for router wiring: a nil validator disables
// contract checks.
func ValidatorFor(v *RequestValidator) func(http.Handler) http.Handler {
	if v == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return v.Middleware
}
