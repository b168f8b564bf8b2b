package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profast/internal/parcel/models"
	"profast/internal/platform/middleware"
	id "profast/pkg/domain"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, p *models.Parcel) (id.ParcelID, error)
	List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error)
	Get(ctx context.Context, parcelID id.ParcelID) (*models.Parcel, error)
	Delete(ctx context.Context, parcelID id.ParcelID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the parcel routes.
func (h *Handler) Register(r chi.Router, g middleware.Guards) {
	r.With(g.Auth).Post("/parcel", h.HandleCreate)
	r.With(g.Auth).Get("/parcels", h.HandleList)
	r.With(g.Auth, g.Owner).Get("/parcel/{id}", h.HandleGet)
	r.With(g.Auth, g.Owner).Delete("/parcel/{id}", h.HandleDelete)
}

type createResponse struct {
	Message    string      `json:"message"`
	InsertedID id.ParcelID `json:"insertedId"`
}

type deleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var p models.Parcel
	if err := httputil.DecodeJSON(r, &p); err != nil {
		h.logger.WarnContext(ctx, "failed to decode parcel",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	parcelID, err := h.service.Create(ctx, &p)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createResponse{
		Message:    "Parcel saved successfully",
		InsertedID: parcelID,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := id.ParsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items, err := h.service.List(r.Context(), models.ListFilter{CreatedBy: q.Get("email"), Page: page})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	parcelID, err := id.ParseParcelID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), parcelID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	parcelID, err := id.ParseParcelID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), parcelID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deleteResponse{
		Success:      true,
		Message:      "Parcel deleted successfully",
		DeletedCount: 1,
	})
}
