package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

// RequireOwnership admits a request only when the verified subject's email
// equals the target email. The target is read from the query string, then the
// {email} path parameter, then the JSON body. A consumed body is restored for
// the handler.
func RequireOwnership(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject, ok := requestcontext.Subject(ctx)
			if !ok || subject.Email == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
				return
			}

			target, err := targetEmail(r)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			if target != subject.Email {
				logger.WarnContext(ctx, "forbidden access - ownership mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "forbidden access"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func targetEmail(r *http.Request) (string, error) {
	if email := r.URL.Query().Get("email"); email != "" {
		return email, nil
	}
	if email := chi.URLParam(r, "email"); email != "" {
		return email, nil
	}
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodyBytes+1))
	_ = r.Body.Close()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if len(raw) > httputil.MaxBodyBytes {
		return "", dErrors.New(dErrors.CodeBadRequest, "request body too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Email string `json:"email"`
	}
	// A body that is not an object has no target; the mismatch path handles it.
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	return body.Email, nil
}
