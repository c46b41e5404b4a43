package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"

	"offerapp-backend/internal/admins"
	"offerapp-backend/internal/auth"
	"offerapp-backend/internal/cache"
	"offerapp-backend/internal/categories"
	"offerapp-backend/internal/config"
	"offerapp-backend/internal/db"
	"offerapp-backend/internal/metrics"
	"offerapp-backend/internal/middleware"
	"offerapp-backend/internal/offers"
	"offerapp-backend/internal/relations"
	"offerapp-backend/internal/storage"
	"offerapp-backend/internal/transport"
	"offerapp-backend/internal/validation"
	"offerapp-backend/internal/vendors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisCache.Close()
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	m := metrics.New()

	var uploader storage.Uploader = storage.Unavailable{}
	if cfg.StorageBucket != "" {
		gcsUploader, err := storage.NewGCSUploader(ctx, cfg.StorageBucket, cfg.StoragePublicBaseURL, cfg.StorageCredentialsFile, m)
		if err != nil {
			logger.Error("storage client failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer gcsUploader.Close()
		logger.Info("storage enabled", slog.String("bucket", cfg.StorageBucket))
		uploader = gcsUploader
	} else {
		logger.Warn("storage disabled, uploads will fail")
	}

	tokens := &auth.Manager{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL(),
		Issuer: cfg.JWTIssuer,
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, admin routes are disabled")
	}

	var provider auth.Provider = auth.DisabledProvider{}
	if fixed, err := auth.NewFixedPasswordProvider(cfg.AdminLoginPassword, cfg.AdminLoginPasswordHash); err == nil {
		provider = fixed
	} else {
		logger.Warn("admin login disabled", slog.String("reason", err.Error()))
	}

	val := validation.New()
	maxUpload := cfg.UploadMaxBytes()

	relationStore := relations.NewMongoStore(cols.Vendors, cols.Offers)
	relationWriter := relations.NewWriter(relationStore)
	reconciler := relations.NewReconciler(relationStore, m, logger)
	if cfg.ReconcileSchedule != "" && cfg.ReconcileSchedule != "off" {
		job, err := relations.Schedule(cfg.ReconcileSchedule, reconciler, logger)
		if err != nil {
			logger.Error("reconcile schedule invalid", slog.String("spec", cfg.ReconcileSchedule), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer job.Stop()
		logger.Info("reconcile scheduled", slog.String("spec", cfg.ReconcileSchedule))
	}

	categoryService := categories.NewService(categories.NewRepository(cols.Categories), uploader, cacheStore, cfg.CacheTTL())
	vendorService := vendors.NewService(
		vendors.NewRepository(cols.Vendors, cols.VendorLocations),
		categoryService,
		uploader,
		relationWriter,
		nil,
	)
	offerService := offers.NewService(
		offers.NewRepository(cols.Offers),
		vendorService,
		categoryService,
		uploader,
		relationWriter,
		logger,
	)
	adminService := admins.NewService(admins.NewRepository(cols.Admins), provider, tokens)

	adminHandler := admins.NewHandler(adminService, val, logger)
	categoryHandler := categories.NewHandler(categoryService, val, logger, maxUpload)
	vendorHandler := vendors.NewHandler(vendorService, val, logger, maxUpload)
	offerHandler := offers.NewHandler(offerService, val, logger, maxUpload)
	reconcileHandler := relations.NewHandler(reconciler, logger)

	requireAdmin := middleware.AdminAuth(tokens)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimitLoginPerMin)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/health", health(client))
	r.Handle("/metrics", m.Handler())

	api := chi.NewRouter()
	api.Route("/admin", func(admin chi.Router) {
		adminHandler.Routes(admin, requireAdmin, loginLimiter.Middleware)
		admin.With(requireAdmin).Post("/reconcile", reconcileHandler.Reconcile)
	})
	api.Route("/category", func(sub chi.Router) { categoryHandler.Routes(sub, requireAdmin) })
	api.Route("/vendor", func(sub chi.Router) { vendorHandler.Routes(sub, requireAdmin) })
	api.Route("/offer", func(sub chi.Router) { offerHandler.Routes(sub, requireAdmin) })

	if cfg.APIPrefix == "" {
		r.Mount("/", api)
	} else {
		r.Mount(cfg.APIPrefix, api)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func health(client *mongo.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			transport.WriteError(w, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
