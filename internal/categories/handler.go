package categories

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"offerapp-backend/internal/auth"
	"offerapp-backend/internal/httpx"
	"offerapp-backend/internal/middleware"
	"offerapp-backend/internal/transport"
	"offerapp-backend/internal/validation"
	"offerapp-backend/internal/wire"
)

type Handler struct {
	service        *Service
	val            *validation.Validator
	log            *slog.Logger
	maxUploadBytes int64
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		val:            val,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes mounts the public reads; writes go through the admin group.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(admin).Post("/", h.Create)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes, "icon", "image")
	if err != nil {
		log.Warn("category create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	var req CreateRequest
	if err := payload.Decode(&req); err != nil {
		log.Warn("category create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("category create: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	var files Uploads
	if f, ok := payload.File("icon"); ok {
		files.Icon = &f
	}
	if f, ok := payload.File("image"); ok {
		files.Image = &f
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req, auth.ActorFromContext(r.Context()), files)
	if err != nil {
		log.Error("category create: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("category create: ok", slog.String("category_id", item.ID.String()))
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx)
	if err != nil {
		log.Error("category list: database error", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("category list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := wire.ID(strings.TrimSpace(chi.URLParam(r, "id")))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		log.Warn("category get: failed", slog.String("category_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, item)
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
