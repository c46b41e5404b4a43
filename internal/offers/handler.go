package offers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"offerapp-backend/internal/apperr"
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

func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/vendor/{vendorId}", h.ByVendor)
	r.Get("/category/{categoryId}", h.ByCategory)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.Create)
		r.Patch("/bulk", h.BulkUpdate)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Remove)
		r.Patch("/{id}/activate", h.Activate)
		r.Patch("/{id}/deactivate", h.Deactivate)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes, "image", "featuredImage")
	if err != nil {
		log.Warn("offer create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	var req CreateRequest
	if err := payload.Decode(&req); err != nil {
		log.Warn("offer create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("offer create: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req, uploads(payload))
	if err != nil {
		log.Error("offer create: failed", slog.String("vendor_id", req.VendorID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer create: ok",
		slog.String("offer_id", item.ID.String()),
		slog.String("vendor_id", item.Vendor.ID.String()),
	)
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	query := r.URL.Query()

	isActive, err := httpx.QueryBool(query, "isActive")
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	isFeatured, err := httpx.QueryBool(query, "isFeatured")
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	filter := Filter{
		IsActive:     isActive,
		IsFeatured:   isFeatured,
		VendorID:     wire.ID(strings.TrimSpace(query.Get("vendorId"))),
		CategoryID:   wire.ID(strings.TrimSpace(query.Get("categoryId"))),
		Country:      query.Get("country"),
		City:         query.Get("city"),
		DiscountType: strings.TrimSpace(query.Get("discountType")),
		OfferType:    strings.TrimSpace(query.Get("offerType")),
		Tag:          query.Get("tag"),
	}
	if err := h.val.Struct(filter); err != nil {
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, filter)
	if err != nil {
		log.Error("offer list: database error", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, r.URL.Query().Get("searchTerm"))
	if err != nil {
		log.Warn("offer search: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) ByVendor(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	vendorID := urlID(r, "vendorId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.ByVendor(ctx, vendorID)
	if err != nil {
		log.Error("offer by vendor: failed", slog.String("vendor_id", vendorID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	categoryID := urlID(r, "categoryId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.ByCategory(ctx, categoryID)
	if err != nil {
		log.Error("offer by category: failed", slog.String("category_id", categoryID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		log.Warn("offer get: failed", slog.String("offer_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes, "image", "featuredImage")
	if err != nil {
		log.Warn("offer update: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	var req UpdateRequest
	if err := payload.Decode(&req); err != nil {
		log.Warn("offer update: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("offer update: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.service.Update(ctx, id, req, uploads(payload))
	if err != nil {
		log.Error("offer update: failed", slog.String("offer_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer update: ok", slog.String("offer_id", id.String()), slog.Int("version", item.Version))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Remove(ctx, id); err != nil {
		log.Error("offer delete: failed", slog.String("offer_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer delete: ok", slog.String("offer_id", id.String()))
	transport.WriteMessage(w, http.StatusOK, "Offer successfully deleted", id.String())
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		item Offer
		err  error
	)
	if active {
		item, err = h.service.Activate(ctx, id)
	} else {
		item, err = h.service.Deactivate(ctx, id)
	}
	if err != nil {
		log.Error("offer status: failed", slog.String("offer_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer status: ok", slog.String("offer_id", id.String()), slog.Bool("active", active))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	items, err := httpx.ReadBulk(w, r, h.maxUploadBytes)
	if err != nil {
		log.Warn("offer bulk: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	changes := make([]BulkChange, 0, len(items))
	for i, item := range items {
		var req UpdateRequest
		if err := wire.Decode(item.Data, &req); err != nil {
			httpx.WriteServiceError(w, apperr.Validation("[%d].data: %s", i, err.Error()))
			return
		}
		if err := h.val.Struct(req); err != nil {
			log.Warn("offer bulk: validation error", slog.Int("index", i))
			httpx.WriteServiceError(w, httpx.ValidationError(err))
			return
		}
		changes = append(changes, BulkChange{ID: item.ID, Update: req})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	updated, err := h.service.BulkUpdate(ctx, changes)
	if err != nil {
		log.Error("offer bulk: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("offer bulk: ok", slog.Int("count", len(updated)))
	transport.WriteJSON(w, http.StatusOK, updated)
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

func urlID(r *http.Request, key string) wire.ID {
	return wire.ID(strings.TrimSpace(chi.URLParam(r, key)))
}

func uploads(p *httpx.Payload) Uploads {
	var files Uploads
	if f, ok := p.File("image"); ok {
		files.Image = &f
	}
	if f, ok := p.File("featuredImage"); ok {
		files.FeaturedImage = &f
	}
	return files
}
