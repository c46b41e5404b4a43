package relations

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/metrics"
	"offerapp-backend/internal/wire"
)

// memStore mimics $addToSet / $pull semantics.
type memStore struct {
	mu      sync.Mutex
	vendors map[wire.ID][]wire.ID
	offers  map[wire.ID]wire.ID
}

func newMemStore() *memStore {
	return &memStore{vendors: map[wire.ID][]wire.ID{}, offers: map[wire.ID]wire.ID{}}
}

func (s *memStore) AddOffer(ctx context.Context, vendorID, offerID wire.ID) (bool, error) {
	return s.AddOffers(ctx, vendorID, offerID)
}

func (s *memStore) AddOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.vendors[vendorID]
	if !ok {
		return false, nil
	}
	for _, id := range offerIDs {
		present := false
		for _, existing := range list {
			if existing == id {
				present = true
				break
			}
		}
		if !present {
			list = append(list, id)
		}
	}
	s.vendors[vendorID] = list
	return true, nil
}

func (s *memStore) PullOffers(ctx context.Context, vendorID wire.ID, offerIDs ...wire.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.vendors[vendorID]
	if !ok {
		return false, nil
	}
	drop := map[wire.ID]bool{}
	for _, id := range offerIDs {
		drop[id] = true
	}
	kept := make([]wire.ID, 0, len(list))
	for _, id := range list {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.vendors[vendorID] = kept
	return true, nil
}

func (s *memStore) VendorOffers(ctx context.Context) (map[wire.ID][]wire.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[wire.ID][]wire.ID{}
	for id, list := range s.vendors {
		out[id] = append([]wire.ID(nil), list...)
	}
	return out, nil
}

func (s *memStore) OffersByVendor(ctx context.Context) (map[wire.ID][]wire.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[wire.ID][]wire.ID{}
	for offerID, vendorID := range s.offers {
		out[vendorID] = append(out[vendorID], offerID)
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAttachDetachRestoresList(t *testing.T) {
	store := newMemStore()
	store.vendors["v1"] = []wire.ID{"o0"}
	w := NewWriter(store)
	ctx := context.Background()

	before := append([]wire.ID(nil), store.vendors["v1"]...)
	require.NoError(t, w.Attach(ctx, "v1", "o1"))
	require.NoError(t, w.Attach(ctx, "v1", "o1"))
	assert.Equal(t, []wire.ID{"o0", "o1"}, store.vendors["v1"])

	require.NoError(t, w.Detach(ctx, "v1", "o1"))
	assert.Equal(t, before, store.vendors["v1"])
}

func TestAttachUnknownVendor(t *testing.T) {
	err := NewWriter(newMemStore()).Attach(context.Background(), "ghost", "o1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMove(t *testing.T) {
	store := newMemStore()
	store.vendors["v1"] = []wire.ID{"o1"}
	store.vendors["v2"] = []wire.ID{}
	w := NewWriter(store)
	ctx := context.Background()

	require.NoError(t, w.Move(ctx, "o1", "v1", "v2"))
	assert.Empty(t, store.vendors["v1"])
	assert.Equal(t, []wire.ID{"o1"}, store.vendors["v2"])

	// old vendor gone: still succeeds
	require.NoError(t, w.Move(ctx, "o1", "deleted", "v1"))
	assert.Equal(t, []wire.ID{"o1"}, store.vendors["v1"])

	assert.ErrorIs(t, w.Move(ctx, "o1", "v1", "ghost"), apperr.ErrNotFound)
}

func TestReconcileRepairsDrift(t *testing.T) {
	store := newMemStore()
	store.vendors["v1"] = []wire.ID{"o1", "stale", "o1"}
	store.vendors["v2"] = []wire.ID{}
	store.vendors["v3"] = []wire.ID{"o4"}
	store.offers["o1"] = "v1"
	store.offers["o2"] = "v1"
	store.offers["o3"] = "v2"
	store.offers["o4"] = "v3"
	store.offers["orphan"] = "gone"

	m := metrics.New()
	rec := NewReconciler(store, m, discardLogger())

	report, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{VendorsScanned: 3, VendorsRepaired: 2}, report)
	assert.ElementsMatch(t, []wire.ID{"o1", "o2"}, store.vendors["v1"])
	assert.Equal(t, []wire.ID{"o3"}, store.vendors["v2"])
	assert.Equal(t, []wire.ID{"o4"}, store.vendors["v3"])

	again, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.VendorsRepaired)
}

func TestReconcileRejectsOverlappingRuns(t *testing.T) {
	rec := NewReconciler(newMemStore(), nil, discardLogger())
	rec.running.Lock()
	defer rec.running.Unlock()

	_, err := rec.Run(context.Background())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDiff(t *testing.T) {
	add, remove := diff([]wire.ID{"a", "b", "b", "x"}, []wire.ID{"a", "b", "c"})
	assert.Equal(t, []wire.ID{"b", "c"}, add)
	assert.Equal(t, []wire.ID{"b", "x"}, remove)
}

func TestReconcileHandler(t *testing.T) {
	store := newMemStore()
	store.vendors["v1"] = []wire.ID{}
	store.offers["o1"] = "v1"
	h := NewHandler(NewReconciler(store, nil, discardLogger()), discardLogger())

	rec := httptest.NewRecorder()
	h.Reconcile(rec, httptest.NewRequest(http.MethodPost, "/admin/reconcile", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"vendorsScanned":1,"vendorsRepaired":1}`, rec.Body.String())
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	_, err := Schedule("not a schedule", NewReconciler(newMemStore(), nil, discardLogger()), discardLogger())
	assert.Error(t, err)

	c, err := Schedule("@every 1h", NewReconciler(newMemStore(), nil, discardLogger()), discardLogger())
	require.NoError(t, err)
	c.Stop()
}
