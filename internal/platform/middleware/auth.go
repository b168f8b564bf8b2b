package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks Verifier,RoleResolver

// Verifier checks a bearer token with the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (id.Subject, error)
}

// RequireAuth rejects requests without a verifiable bearer token. A missing or
// malformed header is 401 and never reaches the provider; a token the provider
// refuses is 403.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unauthorized access"))
				return
			}

			subject, err := verifier.Verify(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "forbidden access - token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSubject(ctx, subject)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	const bearerPrefix = "Bearer "
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleResolver looks up the stored role for an email.
type RoleResolver interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

// RequireRole admits only subjects whose stored role is one of roles. It must
// run after RequireAuth.
func RequireRole(resolver RoleResolver, logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			email := requestcontext.SubjectEmail(ctx)
			if email == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
				return
			}

			role, err := resolver.RoleByEmail(ctx, email)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
					return
				}
				logger.ErrorContext(ctx, "role lookup failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "forbidden access - role not permitted",
				"role", role,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
		})
	}
}
