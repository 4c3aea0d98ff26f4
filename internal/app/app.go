// Package app wires configuration into stores, services and the HTTP router.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/degree-pathway-api/api/swagger"
	"github.com/noah-isme/degree-pathway-api/internal/handler"
	"github.com/noah-isme/degree-pathway-api/internal/middleware"
	"github.com/noah-isme/degree-pathway-api/internal/repository"
	"github.com/noah-isme/degree-pathway-api/internal/service"
	"github.com/noah-isme/degree-pathway-api/pkg/cache"
	"github.com/noah-isme/degree-pathway-api/pkg/config"
	"github.com/noah-isme/degree-pathway-api/pkg/database"
	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
	"github.com/noah-isme/degree-pathway-api/pkg/jobs"
	"github.com/noah-isme/degree-pathway-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/degree-pathway-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/degree-pathway-api/pkg/middleware/requestid"
	"github.com/noah-isme/degree-pathway-api/pkg/response"
	"github.com/noah-isme/degree-pathway-api/pkg/storage"
)

// Container holds the wired services.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   service.CourseStore
	Metrics *service.MetricsService
	Courses *service.CourseService
	Audit   *service.AuditService

	closers []func() error
}

// Build constructs every dependency described by cfg. Redis is optional: a
// failed connection is logged and the summary cache stays off.
func Build(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*Container, error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logr}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.Store = store

	if cfg.Metrics.Enabled {
		c.Metrics = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "degree-pathway")
			c.closers = append(c.closers, repo.Close)
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, c.Metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	// Recompute the default summary in the background after each save so the
	// cache and credit gauges stay warm.
	var afterSave func()
	if cacheSvc.Enabled() || c.Metrics != nil {
		refresher := jobs.NewQueue("summary-refresh", func(ctx context.Context, _ jobs.Job) error {
			_, _, err := c.Courses.Summary(ctx, service.GraduationRequest{})
			return err
		}, jobs.QueueConfig{Workers: 1, BufferSize: 2, MaxRetries: 1, Logger: logr.Named("jobs")})
		refresher.Start(context.Background())
		c.closers = append(c.closers, refresher.Stop)
		afterSave = func() { refresher.TryEnqueue(jobs.Job{Key: "summary"}) }
	}

	c.Courses = service.NewCourseService(service.CourseServiceParams{
		Store:     store,
		Cache:     cacheSvc,
		Metrics:   c.Metrics,
		Validator: validator.New(),
		Logger:    logr.Named("courses"),
		Config: service.CourseServiceConfig{
			RecommendMaxCount:  cfg.Recommend.MaxCount,
			RecommendSeed:      cfg.Recommend.Seed,
			RecommendStrict:    cfg.Recommend.Strict,
			CreditsPerSemester: cfg.Graduation.CreditsPerSemester,
			MonthsPerSemester:  cfg.Graduation.MonthsPerSemester,
			CacheTTL:           cfg.Cache.TTL,
		},
		AfterSave: afterSave,
	})

	reports, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("prepare reports storage: %w", err)
	}
	c.Audit = service.NewAuditService(c.Courses, reports, logr.Named("audit"), nil, nil)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) (service.CourseStore, error) {
	switch c.Config.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(ctx, c.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		c.Logger.Info("course store ready", zap.String("backend", config.StoreBackendPostgres), zap.String("database", c.Config.Database.Name))
		return repository.NewCourseRepository(db), nil
	default:
		repo, err := repository.NewCourseCSVRepository(c.Config.Store.CSVPath)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("course store ready", zap.String("backend", config.StoreBackendCSV), zap.String("path", repo.Path()))
		return repo, nil
	}
}

// Close releases database and cache connections.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Router builds the gin engine with every route mounted.
func (c *Container) Router() *gin.Engine {
	cfg := c.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(c.Metrics, c.Courses)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if c.Metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	courseHandler := handler.NewCourseHandler(c.Courses)
	auditHandler := handler.NewAuditHandler(c.Courses, c.Audit)

	api := r.Group(cfg.APIPrefix)
	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:code", courseHandler.Get)
	api.PATCH("/courses/:code/status", courseHandler.SetStatus)
	api.POST("/courses/:code/:action", courseHandler.ApplyAction)
	api.POST("/recommendations", courseHandler.Recommend)
	api.GET("/audit/summary", auditHandler.Summary)
	api.GET("/audit/export", auditHandler.Export)

	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
	return r
}
