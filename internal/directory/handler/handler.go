package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profast/internal/directory/models"
	"profast/internal/platform/middleware"
	id "profast/pkg/domain"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, u *models.User) (id.UserID, bool, error)
	SelfUpdate(ctx context.Context, email string, patch models.Patch) (bool, error)
	Search(ctx context.Context, text string) ([]models.Summary, error)
	UpdateRole(ctx context.Context, userID id.UserID, role models.Role) (*models.User, error)
	RoleByEmail(ctx context.Context, email string) (string, error)
	Apply(ctx context.Context, r *models.Rider) (id.RiderID, error)
	ListRiders(ctx context.Context, f models.RiderFilter) ([]models.Rider, error)
	UpdateRiderStatus(ctx context.Context, riderID id.RiderID, upd models.StatusUpdate) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user and rider routes. Registration and role lookup by
// email are public.
func (h *Handler) Register(r chi.Router, g middleware.Guards) {
	r.Post("/users", h.HandleRegister)
	r.Get("/users/{email}/role", h.HandleRole)
	r.With(g.Auth).Get("/users/search", h.HandleSearch)
	r.With(g.Auth, g.Owner).Patch("/users/{email}", h.HandleSelfUpdate)
	r.With(g.Admin).Patch("/users/{id}/role", h.HandleUpdateRole)

	r.With(g.Auth, g.Owner).Post("/riders", h.HandleApply)
	r.With(g.Auth).Get("/riders", h.HandleListRiders)
	r.With(g.Admin).Patch("/riders/{id}", h.HandleUpdateRiderStatus)
}

type registerResponse struct {
	Message    string     `json:"message"`
	Exists     bool       `json:"exists,omitempty"`
	InsertedID *id.UserID `json:"insertedId,omitempty"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := httputil.DecodeJSON(r, &u); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, exists, err := h.service.Register(r.Context(), &u)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if exists {
		httputil.WriteJSON(w, http.StatusOK, registerResponse{
			Message: "User already exists. Use PATCH to update login info.",
			Exists:  true,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Message:    "User registered successfully",
		InsertedID: &userID,
	})
}

type selfUpdateResponse struct {
	Message  string `json:"message"`
	Modified bool   `json:"modified"`
}

func (h *Handler) HandleSelfUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.Patch
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteError(w, err)
		return
	}
	modified, err := h.service.SelfUpdate(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := selfUpdateResponse{Message: "User info updated successfully", Modified: modified}
	if !modified {
		resp.Message = "No changes made"
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

type updateRoleResponse struct {
	Message string         `json:"message"`
	User    models.Summary `json:"user"`
}

func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req roleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.service.UpdateRole(ctx, userID, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "role changed by admin",
		"admin", actor(ctx),
		"user_id", userID,
		"role", req.Role,
	)
	httputil.WriteJSON(w, http.StatusOK, updateRoleResponse{
		Message: fmt.Sprintf("User role updated to %s", req.Role),
		User:    u.Summary(),
	})
}

type roleResponse struct {
	Role string `json:"role"`
}

func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.RoleByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roleResponse{Role: role})
}

type applyResponse struct {
	Message    string     `json:"message"`
	InsertedID id.RiderID `json:"insertedId"`
}

func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var rider models.Rider
	if err := httputil.DecodeJSON(r, &rider); err != nil {
		httputil.WriteError(w, err)
		return
	}
	riderID, err := h.service.Apply(r.Context(), &rider)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, applyResponse{
		Message:    "Application submitted successfully",
		InsertedID: riderID,
	})
}

type ridersResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []models.Rider `json:"data"`
}

func (h *Handler) HandleListRiders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := id.ParsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	riders, err := h.service.ListRiders(r.Context(), models.RiderFilter{
		Status: models.RiderStatus(q.Get("status")),
		Page:   page,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ridersResponse{Success: true, Count: len(riders), Data: riders})
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) HandleUpdateRiderStatus(w http.ResponseWriter, r *http.Request) {
	riderID, err := id.ParseRiderID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var upd models.StatusUpdate
	if err := httputil.DecodeJSON(r, &upd); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.UpdateRiderStatus(r.Context(), riderID, upd); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Rider status updated successfully"})
}

// actor names the admin behind a request; operator-token requests carry no
// subject.
func actor(ctx context.Context) string {
	if email := requestcontext.SubjectEmail(ctx); email != "" {
		return email
	}
	return "operator"
}
