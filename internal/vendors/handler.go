package vendors

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/auth"
	"offerapp-backend/internal/httpx"
	"offerapp-backend/internal/middleware"
	"offerapp-backend/internal/storage"
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

// Routes mounts the vendor API. Reads are public; writes and the map link
// lookup, which makes outbound requests, require an admin token.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/offer/{offerId}", h.FindByOffer)
	r.Get("/{id}/locations", h.Locations)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/map-url-coordinates", h.Coordinates)
		r.Post("/", h.Create)
		r.Patch("/bulk", h.BulkUpdate)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Remove)
		r.Patch("/{id}/activate", h.Activate)
		r.Patch("/{id}/deactivate", h.Deactivate)
		r.Post("/{id}/offer/{offerId}", h.AddOffer)
		r.Delete("/{id}/offer/{offerId}", h.RemoveOffer)
		r.Post("/{id}/location", h.AddLocation)
		r.Put("/{id}/location/{locationId}", h.UpdateLocation)
		r.Delete("/{id}/location/{locationId}", h.RemoveLocation)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes, "logo")
	if err != nil {
		log.Warn("vendor create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	var req CreateRequest
	if err := payload.Decode(&req); err != nil {
		log.Warn("vendor create: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("vendor create: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req, auth.ActorFromContext(r.Context()), fileOrNil(payload, "logo"))
	if err != nil {
		log.Error("vendor create: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor create: ok",
		slog.String("vendor_id", item.ID.String()),
		slog.Int("locations", len(item.Locations)),
	)
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	isActive, err := httpx.QueryBool(r.URL.Query(), "isActive")
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	filter := Filter{IsActive: isActive, Country: r.URL.Query().Get("country")}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, filter)
	if err != nil {
		log.Error("vendor list: database error", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, r.URL.Query().Get("searchTerm"))
	if err != nil {
		log.Warn("vendor search: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) FindByOffer(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	offerID := urlID(r, "offerId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.service.FindByOffer(ctx, offerID)
	if err != nil {
		log.Error("vendor by offer: failed", slog.String("offer_id", offerID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Coordinates(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	coords, err := h.service.Coordinates(ctx, r.URL.Query().Get("url"))
	if err != nil {
		log.Warn("vendor coordinates: invalid url", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if coords == nil {
		log.Info("vendor coordinates: none found")
		httpx.WriteServiceError(w, apperr.NotFound("could not extract coordinates from the provided map link"))
		return
	}
	transport.WriteJSON(w, http.StatusOK, coords)
}

func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Locations(ctx, id)
	if err != nil {
		log.Warn("vendor locations: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
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
		log.Warn("vendor get: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes, "logo")
	if err != nil {
		log.Warn("vendor update: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	var req UpdateRequest
	if err := payload.Decode(&req); err != nil {
		log.Warn("vendor update: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("vendor update: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := h.service.Update(ctx, id, req, fileOrNil(payload, "logo"))
	if err != nil {
		log.Error("vendor update: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor update: ok", slog.String("vendor_id", id.String()))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Remove(ctx, id); err != nil {
		log.Error("vendor delete: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor delete: ok", slog.String("vendor_id", id.String()))
	transport.WriteMessage(w, http.StatusOK, "Vendor successfully deleted", id.String())
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
		item Vendor
		err  error
	)
	if active {
		item, err = h.service.Activate(ctx, id)
	} else {
		item, err = h.service.Deactivate(ctx, id)
	}
	if err != nil {
		log.Error("vendor status: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor status: ok", slog.String("vendor_id", id.String()), slog.Bool("active", active))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) AddOffer(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, offerID := urlID(r, "id"), urlID(r, "offerId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.AddOffer(ctx, id, offerID)
	if err != nil {
		log.Error("vendor add offer: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor add offer: ok", slog.String("vendor_id", id.String()), slog.String("offer_id", offerID.String()))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveOffer(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, offerID := urlID(r, "id"), urlID(r, "offerId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.RemoveOffer(ctx, id, offerID)
	if err != nil {
		log.Error("vendor remove offer: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor remove offer: ok", slog.String("vendor_id", id.String()), slog.String("offer_id", offerID.String()))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) AddLocation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := urlID(r, "id")

	var in NewLocationInput
	if !h.readLocation(w, r, log, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.AddLocation(ctx, id, in)
	if err != nil {
		log.Error("vendor add location: failed", slog.String("vendor_id", id.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor add location: ok", slog.String("vendor_id", id.String()))
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, locationID := urlID(r, "id"), urlID(r, "locationId")

	var in LocationInput
	if !h.readLocation(w, r, log, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.UpdateLocation(ctx, id, locationID, in)
	if err != nil {
		log.Error("vendor update location: failed", slog.String("location_id", locationID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor update location: ok", slog.String("location_id", locationID.String()))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveLocation(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, locationID := urlID(r, "id"), urlID(r, "locationId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.RemoveLocation(ctx, id, locationID)
	if err != nil {
		log.Error("vendor remove location: failed", slog.String("location_id", locationID.String()), slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor remove location: ok", slog.String("location_id", locationID.String()))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	items, err := httpx.ReadBulk(w, r, h.maxUploadBytes)
	if err != nil {
		log.Warn("vendor bulk: invalid body", slog.String("error", err.Error()))
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
			log.Warn("vendor bulk: validation error", slog.Int("index", i))
			httpx.WriteServiceError(w, httpx.ValidationError(err))
			return
		}
		changes = append(changes, BulkChange{ID: item.ID, Update: req})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	updated, err := h.service.BulkUpdate(ctx, changes)
	if err != nil {
		log.Error("vendor bulk: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("vendor bulk: ok", slog.Int("count", len(updated)))
	transport.WriteJSON(w, http.StatusOK, updated)
}

// readLocation decodes and validates a location body into out.
func (h *Handler) readLocation(w http.ResponseWriter, r *http.Request, log *slog.Logger, out any) bool {
	payload, err := httpx.ReadPayload(w, r, h.maxUploadBytes)
	if err != nil {
		log.Warn("vendor location: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return false
	}
	if err := payload.Decode(out); err != nil {
		log.Warn("vendor location: invalid body", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return false
	}
	if err := h.val.Struct(out); err != nil {
		log.Warn("vendor location: validation error")
		httpx.WriteServiceError(w, httpx.ValidationError(err))
		return false
	}
	return true
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

func fileOrNil(p *httpx.Payload, field string) *storage.File {
	if f, ok := p.File(field); ok {
		return &f
	}
	return nil
}
