package categories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/cache"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/wire"
)

type fakeRepo struct {
	mu        sync.Mutex
	items     map[wire.ID]Category
	listCalls int
	failList  error
}

func newFakeRepo(items ...Category) *fakeRepo {
	r := &fakeRepo{items: map[wire.ID]Category{}}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, item Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeRepo) List(ctx context.Context) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.failList != nil {
		return nil, r.failList
	}
	out := make([]Category, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeRepo) Get(ctx context.Context, id wire.ID) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return Category{}, mongo.ErrNoDocuments
	}
	return item, nil
}

func (r *fakeRepo) Exists(ctx context.Context, id wire.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	return ok, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	folders []string
	err     error
}

func (u *fakeUploader) Upload(ctx context.Context, folder string, file storage.File) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.folders = append(u.folders, folder)
	return "https://cdn.test/" + folder + "/" + file.Name, nil
}

func TestCreateAppliesDefaultsAndUploads(t *testing.T) {
	repo := newFakeRepo()
	up := &fakeUploader{}
	svc := NewService(repo, up, nil, time.Minute)

	icon := storage.File{Name: "icon.svg"}
	item, err := svc.Create(context.Background(), CreateRequest{Name: " Dining ", Icon: "https://old.test/i.svg", Image: "https://img.test/a.png"},
		wire.NewActor("jdoe", "Jane"), Uploads{Icon: &icon})
	require.NoError(t, err)

	assert.Equal(t, "Dining", item.Name)
	assert.True(t, item.IsActive)
	assert.Equal(t, "https://cdn.test/categories/icons/icon.svg", item.Icon)
	assert.Equal(t, "https://img.test/a.png", item.Image)
	assert.Equal(t, "jdoe", item.CreatedBy.NetworkID)
	assert.Equal(t, item.CreatedBy, item.UpdatedBy)
	assert.Equal(t, 0, item.Version)
	assert.Equal(t, []string{storage.FolderCategoryIcons}, up.folders)
}

func TestCreateUploadsBothFiles(t *testing.T) {
	repo := newFakeRepo()
	up := &fakeUploader{}
	svc := NewService(repo, up, nil, time.Minute)

	icon := storage.File{Name: "icon.svg"}
	img := storage.File{Name: "hero.png"}
	item, err := svc.Create(context.Background(), CreateRequest{Name: "Travel"}, wire.NewActor("", ""), Uploads{Icon: &icon, Image: &img})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/categories/icons/icon.svg", item.Icon)
	assert.Equal(t, "https://cdn.test/categories/images/hero.png", item.Image)
	assert.ElementsMatch(t, []string{storage.FolderCategoryIcons, storage.FolderCategoryImages}, up.folders)
}

func TestCreateUploadFailureWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeUploader{err: apperr.Upstream("storage upload", errors.New("timeout"))}, nil, time.Minute)

	img := storage.File{Name: "a.png"}
	_, err := svc.Create(context.Background(), CreateRequest{Name: "Dining"}, wire.NewActor("", ""), Uploads{Image: &img})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Empty(t, repo.items)
}

func TestListSortsByOrderAndCaches(t *testing.T) {
	srv := miniredis.RunT(t)
	c := cache.NewRedis(srv.Addr(), "", 0)
	repo := newFakeRepo(
		Category{ID: "c3", Name: "Travel", Order: 3},
		Category{ID: "c1", Name: "Dining", Order: 1},
		Category{ID: "c2", Name: "Retail", Order: 2},
	)
	svc := NewService(repo, &fakeUploader{}, c, time.Minute)
	ctx := context.Background()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Dining", "Retail", "Travel"}, []string{items[0].Name, items[1].Name, items[2].Name})

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, CreateRequest{Name: "Wellness"}, wire.NewActor("", ""), Uploads{})
	require.NoError(t, err)
	items, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 2, repo.listCalls)
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeUploader{}, nil, time.Minute)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	found, err := svc.Lookup(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMissingIDs(t *testing.T) {
	svc := NewService(newFakeRepo(Category{ID: "c1"}, Category{ID: "c2"}), &fakeUploader{}, nil, time.Minute)

	missing, err := svc.MissingIDs(context.Background(), []wire.ID{"c1", "x", "c2", "y"})
	require.NoError(t, err)
	assert.Equal(t, []wire.ID{"x", "y"}, missing)
}
