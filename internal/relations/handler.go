package relations

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"offerapp-backend/internal/httpx"
	"offerapp-backend/internal/middleware"
	"offerapp-backend/internal/transport"
)

type Handler struct {
	reconciler *Reconciler
	log        *slog.Logger
}

func NewHandler(reconciler *Reconciler, log *slog.Logger) *Handler {
	return &Handler{reconciler: reconciler, log: log}
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	log := h.log
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		log = log.With(slog.String("request_id", id))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, err := h.reconciler.Run(ctx)
	if err != nil {
		log.Error("admin reconcile: failed", slog.String("error", err.Error()))
		httpx.WriteServiceError(w, err)
		return
	}

	log.Info("admin reconcile: ok",
		slog.Int("vendors_scanned", report.VendorsScanned),
		slog.Int("vendors_repaired", report.VendorsRepaired),
	)
	transport.WriteJSON(w, http.StatusOK, report)
}
