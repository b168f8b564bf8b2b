package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

// AdminTokenHeader carries the operator credential accepted on admin routes.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin admits a request that either presents the operator token in
// X-Admin-Token or authenticates as a subject whose stored role is admin.
// A presented token that does not match is 401 and never falls through to
// the bearer check. An empty expected token disables the operator path.
func RequireAdmin(expectedToken string, auth, role func(http.Handler) http.Handler, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		bySubject := auth(role(next))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AdminTokenHeader)
			if token == "" {
				bySubject.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			logger.InfoContext(ctx, "operator request admitted",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
		})
	}
}
