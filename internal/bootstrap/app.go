package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/llm"
	"jobboard-backend/internal/llm/gemini"
	"jobboard-backend/internal/llm/openai"
	"jobboard-backend/internal/notify"
	"jobboard-backend/internal/queue"
	"jobboard-backend/internal/screening"
	"jobboard-backend/internal/services/health"
	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/server"
	"jobboard-backend/internal/shared/server/middleware"
	"jobboard-backend/internal/shared/storage/db"
	"jobboard-backend/internal/shared/storage/object"
	localstore "jobboard-backend/internal/shared/storage/object/local"
	s3store "jobboard-backend/internal/shared/storage/object/s3"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/users"
)

const (
	applyRateGroup = "APPLY"
	pollRateGroup  = "POLL"
)

var (
	// Five submissions per user in a burst, refilled at one every twelve seconds.
	applyRule = middleware.RateLimitRule{Rate: 1.0 / 12.0, Burst: 5}
	pollRule  = middleware.RateLimitRule{Rate: 2, Burst: 10}
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Signer *auth.Signer

	UsersRepo        users.Repo
	JobsRepo         jobs.Repo
	ApplicationsRepo applications.Repo

	UsersService        *users.Service
	JobsService         *jobs.Service
	ApplicationsService *applications.Service

	Screener  *screening.Screener
	Scheduler screening.Scheduler
	Pool      *screening.Pool
	Notifier  *notify.Dispatcher

	UsersHandler        *users.Handler
	JobsHandler         *jobs.Handler
	ApplicationsHandler *applications.Handler
}

// Build wires repositories, services, screening and the router from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.Env == "production")
	if err != nil {
		return nil, err
	}
	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sender, err := buildSender(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store, Signer: signer}
	buildRepos(app)

	usersSvc := users.NewService(app.UsersRepo, signer)
	jobsSvc := jobs.NewService(app.JobsRepo, usersSvc)

	var screenStore screening.Store
	if sqlDB != nil {
		screenStore = &screening.PGStore{DB: sqlDB}
	} else {
		screenStore = &screening.RepoStore{Applications: app.ApplicationsRepo, Jobs: app.JobsRepo}
	}
	app.Screener = screening.NewScreener(screenStore, store, screening.NewRequester(completer, cfg.DecisionTimeout))

	if err := buildScheduler(ctx, app); err != nil {
		return nil, err
	}
	app.Notifier = notify.NewDispatcher(usersSvc, jobsSvc, sender, cfg.NotifyTimeout)

	appsSvc := &applications.Service{
		Repo:       app.ApplicationsRepo,
		Store:      store,
		Jobs:       jobsSvc,
		Candidates: usersSvc,
		Scheduler:  app.Scheduler,
		Notifier:   app.Notifier,
		Now:        time.Now,
	}
	jobsSvc.Applications = appsSvc.CountByJob
	usersSvc.References = []users.ReferenceCounter{jobsSvc.CountByOwner, appsSvc.CountByCandidate}

	app.UsersService = usersSvc
	app.JobsService = jobsSvc
	app.ApplicationsService = appsSvc

	app.UsersHandler = users.NewHandler(usersSvc)
	app.JobsHandler = jobs.NewHandler(jobsSvc)
	app.ApplicationsHandler = applications.NewHandler(appsSvc)
	limiter := middleware.NewRateLimiter(nil)
	app.ApplicationsHandler.ApplyLimit = middleware.RateLimit(limiter, applyRateGroup, applyRule)
	app.ApplicationsHandler.PollLimit = middleware.RateLimit(limiter, pollRateGroup, pollRule)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		Verifier:     signer,
		Health:       health.NewService(pinger(sqlDB)),
		Users:        app.UsersHandler,
		Jobs:         app.JobsHandler,
		Applications: app.ApplicationsHandler,
	})

	return app, nil
}

// Close drains in-process screening and notification work, then releases the
// database.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain screening pool: %w", err))
		}
	}
	if a.Notifier != nil {
		if err := a.Notifier.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain notifications: %w", err))
		}
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg)
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRepos(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
		return
	}
	app.UsersRepo = users.NewMemoryRepo()
	app.JobsRepo = jobs.NewMemoryRepo()
	app.ApplicationsRepo = applications.NewMemoryRepo()
}

// NewCompleter picks the decision provider. Dev-like environments fall back
// to the placeholder, which always fails and so leaves applications PENDING.
func NewCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	var (
		completer llm.Completer
		err       error
	)
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "openai":
		completer, err = openai.New(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	default:
		completer, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider, "error": err})
			return llm.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("configure %s: %w", cfg.LLMProvider, err)
	}
	return completer, nil
}

func buildSender(ctx context.Context, cfg config.Config) (notify.Sender, error) {
	switch cfg.NotifyProvider {
	case "smtp":
		return notify.NewSMTPSender(cfg.SMTP), nil
	case "gmail":
		sender, err := notify.NewGmailSender(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, cfg.Gmail.Sender)
		if err != nil {
			if config.IsDevLike(cfg.Env) {
				telemetry.Warn("bootstrap.notify_log_sender", map[string]any{"provider": "gmail", "error": err})
				return notify.LogSender{}, nil
			}
			return nil, err
		}
		return sender, nil
	default:
		return notify.LogSender{}, nil
	}
}

// buildScheduler uses the queue when SCREENING_QUEUE_URL is set and the
// in-process pool otherwise.
func buildScheduler(ctx context.Context, app *App) error {
	if url := strings.TrimSpace(app.Config.ScreeningQueueURL); url != "" {
		client, err := queue.NewSQSClient(ctx, app.Config.AWSRegion, url)
		if err != nil {
			return err
		}
		app.Queue = client
		app.Scheduler = screening.NewQueueScheduler(client)
		return nil
	}
	app.Pool = screening.NewPool(app.Screener, app.Config.ScreeningWorkers, app.Config.ScreeningQueueSize)
	app.Scheduler = app.Pool
	return nil
}

// pinger avoids handing health a typed nil.
func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}
