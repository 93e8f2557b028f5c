package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"rastru/cmd/internal/config"
	"rastru/cmd/internal/domain/sqlite"
	"rastru/cmd/internal/domain/sqlite/repository"
	"rastru/cmd/internal/http/handler"
	authmw "rastru/cmd/internal/http/middleware"
	"rastru/cmd/internal/infrastructure/aws/storage"
	"rastru/cmd/internal/infrastructure/infosimples"
	"rastru/cmd/internal/service"
	"rastru/cmd/internal/service/jobs"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/uid"
	"rastru/cmd/internal/utils/validators"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	validators.Register(validate)

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.Production {
		log.SetLevel(log.DEBUG)
	}
	uid.Init(cfg.SnowflakeNode)

	// Init SQLite
	db, err := sqlite.Init(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	lookupClient, err := infosimples.New(cfg.LookupMode, infosimples.Options{
		BaseURL:      cfg.InfosimplesBaseURL,
		Token:        cfg.InfosimplesToken,
		ClientMargin: cfg.LookupClientMargin,
	})
	if err != nil {
		log.Fatalf("failed to create lookup client: %v", err)
	}
	log.Infof("document lookups running in %s mode", cfg.LookupMode)

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create payload archive: %v", err)
	}

	var verifier *utils.TokenVerifier
	if cfg.JWTSecret != "" {
		if verifier, err = utils.NewTokenVerifier(cfg.JWTSecret); err != nil {
			log.Fatalf("failed to create token verifier: %v", err)
		}
	} else {
		log.Warn("JWT_SECRET is not set, collector routes are unauthenticated")
	}

	// Repos
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	cacheRepo := repository.NewLookupCacheRepository(db)

	// Services
	fetcher := service.NewCachedLookup(lookupClient, cacheRepo, cfg.LookupCacheTTL)
	engine := service.NewReconciliationEngine(storeRepo, productRepo, priceRepo)
	ingestionService := service.NewIngestionService(fetcher, engine, archive, validate, cfg.LookupTimeout)
	priceService := service.NewPriceService(priceRepo, storeRepo, cfg.PriceHistoryLimit, cfg.NearbyDefaultRadiusKm)
	storeService := service.NewStoreService(storeRepo, validate, cfg.NearbyDefaultRadiusKm)
	productService := service.NewProductService(productRepo, priceRepo)

	e := newServer(db, string(cfg.LookupMode), verifier, &routes{
		ingest:   handler.NewIngestRoute(ingestionService),
		prices:   handler.NewPriceRoute(priceService),
		stores:   handler.NewStoreRoute(storeService),
		products: handler.NewProductRoute(productService),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.LookupCacheTTL > 0 {
		cleaner := jobs.NewLookupCacheCleaner(cacheRepo, cfg.LookupCacheTTL)
		g.Go(func() error {
			cleaner.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		// In-flight lookups may take up to the provider timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

type routes struct {
	ingest   *handler.DefaultIngestRoute
	prices   *handler.DefaultPriceRoute
	stores   *handler.DefaultStoreRoute
	products *handler.DefaultProductRoute
}

func newServer(db *gorm.DB, lookupMode string, verifier *utils.TokenVerifier, r *routes) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Infof("%s %s %d %s [%s]", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	auth := authmw.NewAuthMiddleware(&authmw.AuthMiddlewareConfig{Verifier: verifier})

	// Ingestion
	ingest := e.Group("/api/ingest", auth)
	ingest.POST("/nfce", r.ingest.IngestAccessKey)
	ingest.POST("/auto", r.ingest.IngestQRCode)
	ingest.GET("/debug-raw/:key", r.ingest.GetRawLookup)

	// Prices
	e.GET("/api/prices/history/:ean", r.prices.GetHistory)
	e.GET("/api/prices/lowest/:ean", r.prices.GetLowest)
	e.GET("/api/prices/nearby", r.prices.GetNearby)

	// Stores
	e.GET("/api/stores/nearby", r.stores.GetNearby)
	e.GET("/api/stores/:cnpj", r.stores.GetStore)
	e.PUT("/api/stores/:cnpj/location", r.stores.UpdateLocation, auth)

	// Products
	e.GET("/api/products/search", r.products.Search)
	e.GET("/api/products/:ean", r.products.GetProduct)

	// Docker Compose healthcheck
	health := handler.NewHealthRoute(func() error { return sqlite.Ping(db) }, lookupMode)
	e.GET("/health", health.Check)
	return e
}

func newArchive(ctx context.Context, cfg *config.Config) (storage.PayloadArchive, error) {
	if cfg.S3Bucket == "" {
		log.Info("S3_BUCKET_NAME is not set, raw lookup payloads will not be archived")
		return storage.NopArchive{}, nil
	}
	return storage.NewS3Archive(ctx, cfg.S3Region, cfg.S3Bucket)
}
