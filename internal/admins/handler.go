package admins

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"offerapp-backend/internal/httpx"
	"offerapp-backend/internal/middleware"
	"offerapp-backend/internal/transport"
	"offerapp-backend/internal/validation"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

// Routes mounts login behind the limiter and register behind admin auth.
func (h *Handler) Routes(r chi.Router, admin, limiter func(http.Handler) http.Handler) {
	r.With(limiter).Post("/login", h.Login)
	r.With(admin).Post("/register", h.Register)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req RegisterRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin register: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	admin, err := h.service.Register(ctx, req)
	if err != nil {
		log.Error("admin register: database error", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("admin register: ok", slog.String("network_id", admin.NetworkID))
	transport.WriteJSON(w, http.StatusCreated, admin)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin login: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.service.Login(ctx, req)
	if err != nil {
		log.Warn("admin login: rejected", slog.String("network_id", req.NetworkID), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("admin login: ok", slog.String("network_id", resp.Admin.NetworkID))
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
