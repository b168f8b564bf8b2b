package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"profast/internal/payment/models"
	"profast/internal/platform/middleware"
	id "profast/pkg/domain"
	"profast/pkg/platform/httputil"
	"profast/pkg/requestcontext"
)

type Service interface {
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error)
	Record(ctx context.Context, req models.RecordRequest) (id.PaymentID, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Payment, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, g middleware.Guards) {
	r.With(g.Auth).Post("/create-payment-intent", h.HandleCreateIntent)
	r.With(g.Auth, g.Owner).Get("/payments", h.HandleList)
	r.With(g.Auth, g.Owner).Post("/payments", h.HandleRecord)
}

type recordResponse struct {
	Message    string       `json:"message"`
	InsertedID id.PaymentID `json:"insertedId"`
}

func (h *Handler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req models.IntentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	intent, err := h.service.CreateIntent(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, intent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := id.ParsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payments, err := h.service.List(r.Context(), models.ListQuery{Email: q.Get("email"), Page: page})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	paymentID, err := h.service.Record(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "payment not recorded",
			"parcel_id", req.ParcelID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordResponse{
		Message:    "Payment recorded and parcel marked as paid",
		InsertedID: paymentID,
	})
}
