package relations

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/metrics"
	"offerapp-backend/internal/wire"
)

type Report struct {
	VendorsScanned  int `json:"vendorsScanned"`
	VendorsRepaired int `json:"vendorsRepaired"`
}

// Reconciler makes every vendor's offers array equal the set of offers whose
// vendor snapshot points at it. Fixes are applied as $addToSet/$pull deltas
// so concurrent Attach/Detach calls are not overwritten.
type Reconciler struct {
	store   Store
	metrics *metrics.Metrics
	log     *slog.Logger
	running sync.Mutex
}

func NewReconciler(store Store, m *metrics.Metrics, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, metrics: m, log: log}
}

func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		return Report{}, fmt.Errorf("%w: reconciliation already running", apperr.ErrConflict)
	}
	defer r.running.Unlock()

	report, err := r.run(ctx)
	r.metrics.ObserveReconcile(report.VendorsRepaired, err)
	return report, err
}

func (r *Reconciler) run(ctx context.Context) (Report, error) {
	current, err := r.store.VendorOffers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("scan vendors: %w", err)
	}
	owned, err := r.store.OffersByVendor(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("scan offers: %w", err)
	}

	report := Report{VendorsScanned: len(current)}
	for vendorID, have := range current {
		add, remove := diff(have, owned[vendorID])
		if len(add) == 0 && len(remove) == 0 {
			continue
		}
		if len(remove) > 0 {
			if _, err := r.store.PullOffers(ctx, vendorID, remove...); err != nil {
				return report, fmt.Errorf("repair vendor %s: %w", vendorID, err)
			}
		}
		if len(add) > 0 {
			if _, err := r.store.AddOffers(ctx, vendorID, add...); err != nil {
				return report, fmt.Errorf("repair vendor %s: %w", vendorID, err)
			}
		}
		report.VendorsRepaired++
		r.log.Info("reconcile: vendor repaired",
			slog.String("vendor_id", vendorID.String()),
			slog.Int("added", len(add)),
			slog.Int("removed", len(remove)),
		)
	}
	return report, nil
}

// diff returns the ids to pull from and then add to a vendor so that have
// becomes the set want. $pull drops every copy of an id, so a wanted id that
// appears more than once is pulled and added back.
func diff(have, want []wire.ID) (add, remove []wire.ID) {
	wanted := make(map[wire.ID]bool, len(want))
	for _, id := range want {
		wanted[id] = true
	}
	seen := make(map[wire.ID]int, len(have))
	for _, id := range have {
		seen[id]++
	}
	for id, n := range seen {
		switch {
		case !wanted[id]:
			remove = append(remove, id)
		case n > 1:
			remove = append(remove, id)
			add = append(add, id)
		}
	}
	for id := range wanted {
		if seen[id] == 0 {
			add = append(add, id)
		}
	}
	slices.Sort(add)
	slices.Sort(remove)
	return add, remove
}

// Schedule runs the reconciler on a cron spec (standard five fields or
// descriptors such as "@every 6h"). The caller stops the returned cron.
func Schedule(spec string, r *Reconciler, log *slog.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := r.Run(ctx)
		if err != nil {
			log.Error("reconcile: failed", slog.String("error", err.Error()))
			return
		}
		log.Info("reconcile: ok",
			slog.Int("vendors_scanned", report.VendorsScanned),
			slog.Int("vendors_repaired", report.VendorsRepaired),
		)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
