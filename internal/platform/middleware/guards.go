package middleware

import (
	"log/slog"
	"net/http"
)

// Guards bundles the access-control middleware handlers attach per route.
// Admin authenticates on its own; routes use it without Auth.
type Guards struct {
	Auth  func(http.Handler) http.Handler
	Owner func(http.Handler) http.Handler
	Admin func(http.Handler) http.Handler
}

type guardConfig struct {
	adminToken string
}

type GuardOption func(*guardConfig)

// WithAdminToken enables the X-Admin-Token operator credential on admin
// routes. It is how the first admin account gets promoted.
func WithAdminToken(token string) GuardOption {
	return func(c *guardConfig) {
		c.adminToken = token
	}
}

// NewGuards builds the standard guard set. Admin means the stored role is
// "admin", or the operator token when one is configured.
func NewGuards(verifier Verifier, roles RoleResolver, logger *slog.Logger, opts ...GuardOption) Guards {
	var cfg guardConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	auth := RequireAuth(verifier, logger)
	return Guards{
		Auth:  auth,
		Owner: RequireOwnership(logger),
		Admin: RequireAdmin(cfg.adminToken, auth, RequireRole(roles, logger, "admin"), logger),
	}
}
