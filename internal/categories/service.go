package categories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/cache"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/wire"
)

const cacheNamespace = "categories"

var listCacheKey = cache.Key(cacheNamespace, "all")

type Service struct {
	repo     Repository
	uploader storage.Uploader
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewService(repo Repository, uploader storage.Uploader, c cache.Cache, cacheTTL time.Duration) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Uploads holds the optional icon and image files of a create request.
type Uploads struct {
	Icon  *storage.File
	Image *storage.File
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actor wire.Actor, files Uploads) (Category, error) {
	icon := strings.TrimSpace(req.Icon)
	image := strings.TrimSpace(req.Image)

	g, gctx := errgroup.WithContext(ctx)
	if files.Icon != nil {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, storage.FolderCategoryIcons, *files.Icon)
			if err == nil {
				icon = url
			}
			return err
		})
	}
	if files.Image != nil {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, storage.FolderCategoryImages, *files.Image)
			if err == nil {
				image = url
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Category{}, err
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	}

	now := wire.Now()
	item := Category{
		ID:        wire.NewID(),
		Name:      strings.TrimSpace(req.Name),
		NameAr:    strings.TrimSpace(req.NameAr),
		Icon:      icon,
		Image:     image,
		Order:     order,
		IsActive:  true,
		CreatedBy: actor,
		UpdatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	_ = s.cache.DeletePrefix(ctx, cacheNamespace+":")
	return item, nil
}

// List returns every category ordered by its display order.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	if cached, ok, err := cache.GetJSON[[]Category](ctx, s.cache, listCacheKey); err == nil && ok {
		return cached, nil
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	slices.SortStableFunc(items, func(a, b Category) int {
		return a.Order - b.Order
	})

	_ = cache.SetJSON(ctx, s.cache, listCacheKey, items, s.cacheTTL)
	return items, nil
}

func (s *Service) Get(ctx context.Context, id wire.ID) (Category, error) {
	item, err := s.repo.Get(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Category{}, apperr.NotFound("category %s", id)
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return item, nil
}

// Lookup returns the category if it exists. Unlike Get a missing category is
// not an error.
func (s *Service) Lookup(ctx context.Context, id wire.ID) (*Category, error) {
	item, err := s.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MissingIDs reports which of ids do not name a stored category. The checks
// run concurrently.
func (s *Service) MissingIDs(ctx context.Context, ids []wire.ID) ([]wire.ID, error) {
	found := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ok, err := s.repo.Exists(gctx, id)
			if err != nil {
				return err
			}
			found[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check categories: %w", err)
	}

	missing := make([]wire.ID, 0)
	for i, ok := range found {
		if !ok {
			missing = append(missing, ids[i])
		}
	}
	return missing, nil
}
