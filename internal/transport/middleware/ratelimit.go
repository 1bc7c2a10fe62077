package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/transport"
)

// AdminRateLimit caps permission-management requests per actor, falling back
// to the client IP before authentication has run.
func AdminRateLimit(requestsPerMinute int, base *transport.BaseHandler) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			base.WriteJSON(w, http.StatusTooManyRequests, internal.Response{Error: &internal.AppError{
				Type:       internal.ErrorTypeValidation,
				Code:       internal.ErrCodeRateLimited,
				Message:    "too many requests",
				StatusCode: http.StatusTooManyRequests,
			}})
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := internal.PrincipalFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(p.ID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
