package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profast/internal/platform/middleware"
	"profast/internal/tracking/models"
	id "profast/pkg/domain"
	"profast/pkg/platform/httputil"
)

type Service interface {
	Append(ctx context.Context, e *models.Event) (id.EventID, error)
	History(ctx context.Context, q models.Query) ([]models.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, g middleware.Guards) {
	r.With(g.Auth).Post("/trackings", h.HandleAppend)
	r.With(g.Auth).Get("/trackings/{trackingId}", h.HandleHistory)
}

type appendResponse struct {
	Message    string     `json:"message"`
	InsertedID id.EventID `json:"insertedId"`
}

func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if err := httputil.DecodeJSON(r, &e); err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := h.service.Append(r.Context(), &e)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, appendResponse{
		Message:    "Tracking info saved successfully",
		InsertedID: eventID,
	})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := id.ParsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.History(r.Context(), models.Query{
		TrackingID: chi.URLParam(r, "trackingId"),
		Page:       page,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
