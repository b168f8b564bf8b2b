package testutil

import (
	"context"
	"net/http"

	id "profast/pkg/domain"
	"profast/pkg/requestcontext"
)

// WithSubject attaches a verified subject to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithSubject(req *http.Request, email string) *http.Request {
	ctx := requestcontext.WithSubject(req.Context(), id.Subject{UID: "uid-" + email, Email: email})
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
