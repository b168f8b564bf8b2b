package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"profast/internal/platform/logger"
	"profast/internal/platform/middleware"
	"profast/internal/platform/middleware/mocks"
	id "profast/pkg/domain"
	dErrors "profast/pkg/domain-errors"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

type GuardSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	roles    *mocks.MockRoleResolver
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.roles = mocks.NewMockRoleResolver(s.ctrl)
}

func (s *GuardSuite) TearDownTest() {
	s.ctrl.Finish()
}

// echoSubject reports the subject email the guard attached.
func echoSubject(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(requestcontext.SubjectEmail(r.Context())))
}

func (s *GuardSuite) serveAuth(header string) *httptest.ResponseRecorder {
	h := middleware.RequireAuth(s.verifier, logger.Discard())(http.HandlerFunc(echoSubject))
	req := httptest.NewRequest(http.MethodGet, "/parcels", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *GuardSuite) TestRequireAuth() {
	s.Run("missing header is 401 without provider call", func() {
		rr := s.serveAuth("")
		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Contains(rr.Body.String(), `"unauthorized"`)
	})

	s.Run("non-bearer scheme is 401", func() {
		rr := s.serveAuth("Basic abc")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("empty bearer token is 401", func() {
		rr := s.serveAuth("Bearer ")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("rejected token is 403", func() {
		s.verifier.EXPECT().Verify(gomock.Any(), "bad").Return(id.Subject{}, errors.New("expired"))
		rr := s.serveAuth("Bearer bad")
		s.Equal(http.StatusForbidden, rr.Code)
		s.Contains(rr.Body.String(), `"forbidden"`)
	})

	s.Run("verified subject reaches handler", func() {
		s.verifier.EXPECT().Verify(gomock.Any(), "good").Return(id.Subject{UID: "u1", Email: "alice@x.com"}, nil)
		rr := s.serveAuth("Bearer good")
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("alice@x.com", rr.Body.String())
	})
}

func (s *GuardSuite) serveRole(email string) *httptest.ResponseRecorder {
	h := middleware.RequireRole(s.roles, logger.Discard(), "admin")(http.HandlerFunc(echoSubject))
	req := httptest.NewRequest(http.MethodPatch, "/riders/1", nil)
	if email != "" {
		req = req.WithContext(requestcontext.WithSubject(req.Context(), id.Subject{Email: email}))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *GuardSuite) TestRequireRole() {
	s.Run("admin passes", func() {
		s.roles.EXPECT().RoleByEmail(gomock.Any(), "root@x.com").Return("admin", nil)
		s.Equal(http.StatusOK, s.serveRole("root@x.com").Code)
	})

	s.Run("plain user is forbidden", func() {
		s.roles.EXPECT().RoleByEmail(gomock.Any(), "alice@x.com").Return("user", nil)
		s.Equal(http.StatusForbidden, s.serveRole("alice@x.com").Code)
	})

	s.Run("unknown user is forbidden", func() {
		s.roles.EXPECT().RoleByEmail(gomock.Any(), "ghost@x.com").
			Return("", dErrors.New(dErrors.CodeNotFound, "user not found"))
		s.Equal(http.StatusForbidden, s.serveRole("ghost@x.com").Code)
	})

	s.Run("lookup failure is 500", func() {
		s.roles.EXPECT().RoleByEmail(gomock.Any(), "alice@x.com").Return("", errors.New("db down"))
		s.Equal(http.StatusInternalServerError, s.serveRole("alice@x.com").Code)
	})

	s.Run("no subject is forbidden", func() {
		s.Equal(http.StatusForbidden, s.serveRole("").Code)
	})
}

func (s *GuardSuite) serveAdmin(expected, presented, bearer string) *httptest.ResponseRecorder {
	g := middleware.NewGuards(s.verifier, s.roles, logger.Discard(), middleware.WithAdminToken(expected))
	h := g.Admin(http.HandlerFunc(echoSubject))
	req := httptest.NewRequest(http.MethodPatch, "/users/1/role", nil)
	if presented != "" {
		req.Header.Set(middleware.AdminTokenHeader, presented)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (s *GuardSuite) TestRequireAdmin() {
	s.Run("operator token passes without a bearer", func() {
		rr := s.serveAdmin("op-secret", "op-secret", "")
		s.Equal(http.StatusOK, rr.Code)
		s.Empty(rr.Body.String())
	})

	s.Run("wrong token is 401 and skips the provider", func() {
		s.Equal(http.StatusUnauthorized, s.serveAdmin("op-secret", "nope", "tok").Code)
	})

	s.Run("token is refused when none is configured", func() {
		s.Equal(http.StatusUnauthorized, s.serveAdmin("", "anything", "").Code)
	})

	s.Run("no token falls back to bearer and role", func() {
		s.verifier.EXPECT().Verify(gomock.Any(), "tok").Return(id.Subject{Email: "root@x.com"}, nil)
		s.roles.EXPECT().RoleByEmail(gomock.Any(), "root@x.com").Return("admin", nil)
		rr := s.serveAdmin("op-secret", "", "tok")
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("root@x.com", rr.Body.String())
	})

	s.Run("no credentials at all is 401", func() {
		s.Equal(http.StatusUnauthorized, s.serveAdmin("op-secret", "", "").Code)
	})
}

func ownershipRouter() http.Handler {
	r := chi.NewRouter()
	echoBody := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
	guard := middleware.RequireOwnership(logger.Discard())
	r.With(guard).Get("/payments", echoBody)
	r.With(guard).Post("/payments", echoBody)
	r.With(guard).Patch("/users/{email}", echoBody)
	return r
}

func asSubject(req *http.Request, email string) *http.Request {
	return req.WithContext(requestcontext.WithSubject(req.Context(), id.Subject{Email: email}))
}

func TestRequireOwnership(t *testing.T) {
	router := ownershipRouter()

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		subject string
		want    int
	}{
		{"query matches", http.MethodGet, "/payments?email=alice@x.com", "", "alice@x.com", http.StatusOK},
		{"query mismatch", http.MethodGet, "/payments?email=bob@x.com", "", "alice@x.com", http.StatusForbidden},
		{"query beats body", http.MethodPost, "/payments?email=bob@x.com", `{"email":"alice@x.com"}`, "alice@x.com", http.StatusForbidden},
		{"path matches", http.MethodPatch, "/users/alice@x.com", `{"displayName":"A"}`, "alice@x.com", http.StatusOK},
		{"path mismatch", http.MethodPatch, "/users/bob@x.com", `{}`, "alice@x.com", http.StatusForbidden},
		{"body matches", http.MethodPost, "/payments", `{"email":"alice@x.com","amount":5}`, "alice@x.com", http.StatusOK},
		{"body mismatch", http.MethodPost, "/payments", `{"email":"bob@x.com"}`, "alice@x.com", http.StatusForbidden},
		{"no target anywhere", http.MethodGet, "/payments", "", "alice@x.com", http.StatusForbidden},
		{"case differs", http.MethodGet, "/payments?email=Alice@x.com", "", "alice@x.com", http.StatusForbidden},
		{"no subject", http.MethodGet, "/payments?email=alice@x.com", "", "", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.subject != "" {
				req = asSubject(req, tc.subject)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireOwnershipRestoresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{"email":"alice@x.com","amount":12.5}`))
	req = asSubject(req, "alice@x.com")
	rr := httptest.NewRecorder()
	ownershipRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "alice@x.com", got["email"])
	assert.Equal(t, 12.5, got["amount"])
}

func TestRequireOwnershipRejectsOversizedBody(t *testing.T) {
	padding := strings.Repeat("x", httputil.MaxBodyBytes)
	body := `{"email":"alice@x.com","note":"` + padding + `"}`
	req := asSubject(httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body)), "alice@x.com")
	rr := httptest.NewRecorder()
	ownershipRouter().ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "bad_request", got["error"])
	assert.Equal(t, "request body too large", got["error_description"])
}
