// Package relations owns the vendor.offers back-reference. Every mutation of
// that array goes through Writer; Reconciler repairs drift left by partial
// failures.
package relations

import (
	"context"
	"fmt"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/wire"
)

type Writer struct {
	store Store
}

func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// Attach adds offerID to the vendor's offers. Repeating it is a no-op.
func (w *Writer) Attach(ctx context.Context, vendorID, offerID wire.ID) error {
	ok, err := w.store.AddOffer(ctx, vendorID, offerID)
	if err != nil {
		return fmt.Errorf("attach offer %s to vendor %s: %w", offerID, vendorID, err)
	}
	if !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	return nil
}

// Detach removes offerID from the vendor's offers. Detaching an offer that is
// not attached is a no-op.
func (w *Writer) Detach(ctx context.Context, vendorID, offerID wire.ID) error {
	ok, err := w.store.PullOffers(ctx, vendorID, offerID)
	if err != nil {
		return fmt.Errorf("detach offer %s from vendor %s: %w", offerID, vendorID, err)
	}
	if !ok {
		return apperr.NotFound("vendor %s", vendorID)
	}
	return nil
}

// Move re-points an offer from one vendor to another. The new vendor is
// attached first so a failure in between leaves the offer reachable from its
// current vendor; the stale entry on the old vendor is left for Reconciler.
// A missing old vendor is ignored.
func (w *Writer) Move(ctx context.Context, offerID, from, to wire.ID) error {
	if from == to {
		return w.Attach(ctx, to, offerID)
	}
	if err := w.Attach(ctx, to, offerID); err != nil {
		return err
	}
	if from == "" {
		return nil
	}
	if err := w.Detach(ctx, from, offerID); err != nil && !apperr.IsNotFound(err) {
		return err
	}
	return nil
}
