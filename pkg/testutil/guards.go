package testutil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"profast/internal/platform/middleware"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
)

// emailVerifier treats the bearer token itself as the subject email.
type emailVerifier struct{}

func (emailVerifier) Verify(_ context.Context, token string) (id.Subject, error) {
	if !strings.Contains(token, "@") {
		return id.Subject{}, dErrors.New(dErrors.CodeForbidden, "invalid token")
	}
	return id.Subject{UID: "uid-" + token, Email: token}, nil
}

type staticRoles []string

func (a staticRoles) RoleByEmail(_ context.Context, email string) (string, error) {
	if slices.Contains(a, email) {
		return "admin", nil
	}
	return "user", nil
}

// Guards returns the real guard middleware wired to a verifier that accepts
// "Bearer <email>" and a resolver that grants admin to the listed emails.
func Guards(admins ...string) middleware.Guards {
	return middleware.NewGuards(emailVerifier{}, staticRoles(admins), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// AsUser sets the bearer header understood by Guards.
func AsUser(req *http.Request, email string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+email)
	return req
}
