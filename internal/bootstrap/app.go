package bootstrap

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"campaign-import/internal/catalog"
	"campaign-import/internal/content"
	"campaign-import/internal/deploy"
	"campaign-import/internal/imports"
	"campaign-import/internal/records"
	"campaign-import/internal/report"
	"campaign-import/internal/services/health"
	"campaign-import/internal/shared/config"
	"campaign-import/internal/shared/lock"
	"campaign-import/internal/shared/server"
	"campaign-import/internal/shared/storage/db"
	"campaign-import/internal/shared/storage/object"
	localstore "campaign-import/internal/shared/storage/object/local"
	s3store "campaign-import/internal/shared/storage/object/s3"
	"campaign-import/internal/shared/telemetry"
	"campaign-import/internal/submissions"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Redis    *redis.Client
	Store    object.ObjectStore
	Registry *catalog.Registry

	SubmissionsRepo submissions.Repo
	ContentRepo     content.Repo
	Batches         imports.BatchStore
	Locker          lock.Locker

	ImportService *imports.Service
	ImportHandler *imports.Handler
	Health        *health.Service
}

// Options tweaks Build for callers other than the API server.
type Options struct {
	// DBOptions overrides the server pool defaults.
	DBOptions *db.Options
	// SkipRouter leaves App.Router nil.
	SkipRouter bool
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	reg := catalog.Default()

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	rdb, err := buildRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Redis:    rdb,
		Store:    store,
		Registry: reg,
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}
	if !opts.SkipRouter {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:        app.Config,
			ImportHandler: app.ImportHandler,
			Health:        app.Health,
		})
	}
	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	dbOpts := db.OptionsFromEnv(db.DefaultServerOptions())
	if opts.DBOptions != nil {
		dbOpts = *opts.DBOptions
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, dbOpts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "none":
		return nil, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	ic := app.Config.Import

	if app.DB != nil {
		app.SubmissionsRepo = &submissions.PGRepo{DB: app.DB}
		app.ContentRepo = &content.PGRepo{DB: app.DB}
	} else {
		mem := submissions.NewMemoryRepo()
		if err := seedSubmissions(ctx, mem, app.Config.SeedFile); err != nil {
			return err
		}
		app.SubmissionsRepo = mem
		app.ContentRepo = content.NewMemoryRepo()
	}

	if app.Redis != nil {
		app.Batches = imports.NewRedisBatchStore(app.Redis)
		app.Locker = lock.NewRedisLocker(app.Redis, ic.LockTTL)
	} else {
		app.Batches = imports.NewMemoryBatchStore()
		app.Locker = lock.NewKeyedMutex()
	}

	agg := report.Aggregator{MaxErrors: ic.MaxDisplayedErrors}
	app.ImportService = &imports.Service{
		Registry: app.Registry,
		Parser:   records.NewParser(app.Registry),
		Resolver: &submissions.Resolver{
			Directory: app.SubmissionsRepo,
			Timeout:   ic.LookupTimeout,
		},
		Engine: &deploy.Engine{
			Registry:       app.Registry,
			Content:        app.ContentRepo,
			Submissions:    app.SubmissionsRepo,
			Locker:         app.Locker,
			Aggregator:     agg,
			StorageTimeout: ic.StorageTimeout,
			Concurrency:    ic.DeployConcurrency,
		},
		Batches:    app.Batches,
		Aggregator: agg,
		Archive:    app.Store,
		BatchTTL:   ic.BatchTTL,
	}
	app.ImportHandler = imports.NewHandler(app.ImportService, ic.MaxUploadBytes)

	app.Health = health.NewService(0)
	if app.DB != nil {
		app.Health.Register("postgres", app.DB.PingContext)
	}
	if app.Redis != nil {
		rdb := app.Redis
		app.Health.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	return nil
}

// seedSubmissions loads a JSON array of submissions into the memory repo.
func seedSubmissions(ctx context.Context, repo *submissions.MemoryRepo, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed []submissions.Submission
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file: %w", err)
	}
	for _, s := range seed {
		if _, err := repo.Create(ctx, s); err != nil {
			return fmt.Errorf("seed submission %q: %w", s.SubmissionNumber, err)
		}
	}
	telemetry.Info("bootstrap.seeded_submissions", map[string]any{"count": len(seed), "path": path})
	return nil
}
