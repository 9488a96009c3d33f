package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/config"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	s3infra "github.com/Anujpy12345/Scam-exposer-bot/internal/infra/s3"
	tginfra "github.com/Anujpy12345/Scam-exposer-bot/internal/infra/telegram"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/jobs/cleanup"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	pgrepo "github.com/Anujpy12345/Scam-exposer-bot/internal/repo/postgres"
	redrepo "github.com/Anujpy12345/Scam-exposer-bot/internal/repo/redis"
	sqliterepo "github.com/Anujpy12345/Scam-exposer-bot/internal/repo/sqlite"
	adminsvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/admin"
	archivesvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/archive"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/conversation"
	modsvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/moderation"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	ratesvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/rate"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/submission"
)

const (
	storePingTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// Dependencies are the pieces New builds from config. Tests pass their own.
type Dependencies struct {
	Store     repo.Store
	Messenger notify.Messenger
	// Quota and Archiver are optional.
	Quota    *ratesvc.Limiter
	Archiver modsvc.Archiver
}

type App struct {
	cfg    config.Config
	logger *zap.Logger
	store  repo.Store
	bot    *tginfra.Bot
	server *http.Server

	notifier          *notify.Notifier
	engine            *conversation.Engine
	router            *submission.Router
	moderationService *modsvc.Service
	adminService      *adminsvc.Service
	cleanupJob        *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	store, redisClient, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("report store ready", zap.String("driver", cfg.Store.Driver))

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeout, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	if bot.DryRun() {
		logger.Warn("bot token is empty, outbound messages are only logged")
	}

	deps := Dependencies{Store: store, Messenger: bot}

	if redisClient != nil {
		deps.Quota = ratesvc.NewLimiter(
			redrepo.NewQuotaRepo(redisClient, cfg.Redis.Prefix),
			cfg.Limits.ReportsPerHour,
			cfg.Limits.ReportsPerDay,
		)
	} else {
		logger.Info("report quota disabled: needs the redis store")
	}

	s3cfg := s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		UseSSL:    cfg.S3.UseSSL,
	}
	if s3cfg.Enabled() {
		client, err := s3infra.NewClient(s3cfg)
		if err != nil {
			logger.Warn("s3 init failed, decision archive disabled", zap.Error(err))
		} else {
			deps.Archiver = archivesvc.New(client, cfg.S3.Bucket)
		}
	}

	app := NewWithDependencies(cfg, logger, deps)
	app.bot = bot
	return app, nil
}

// NewWithDependencies wires the services around already opened
// infrastructure.
func NewWithDependencies(cfg config.Config, logger *zap.Logger, deps Dependencies) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	notifier := notify.NewNotifier(deps.Messenger, logger)

	var quota conversation.Quota
	var recorder submission.QuotaRecorder
	if deps.Quota != nil {
		quota = deps.Quota
		recorder = deps.Quota
	}

	router := submission.NewRouter(deps.Store, notifier, recorder, cfg.Bot.ModeratorID, logger)
	engine := conversation.NewEngine(deps.Store, notifier, router, quota, logger)
	moderationService := modsvc.NewService(
		deps.Store,
		notifier,
		deps.Archiver,
		cfg.Bot.ModeratorID,
		model.ParseRecipient(cfg.Bot.Channel),
		logger,
	)
	adminService := adminsvc.NewService(deps.Store, notifier, cfg.Bot.ModeratorID, cfg.Limits.BroadcastPerSecond, logger)
	cleanupJob := cleanup.New(deps.Store, cfg.Retention.Conversation, cfg.Retention.Pending, logger)

	return &App{
		cfg:               cfg,
		logger:            logger,
		store:             deps.Store,
		notifier:          notifier,
		engine:            engine,
		router:            router,
		moderationService: moderationService,
		adminService:      adminService,
		cleanupJob:        cleanupJob,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started", zap.String("mode", a.cfg.Bot.Mode))

	go a.cleanupJob.Loop(ctx, a.cfg.Retention.CleanupInterval)

	var err error
	switch a.cfg.Bot.Mode {
	case config.BotModeWebhook:
		err = a.runWebhook(ctx)
	default:
		if a.bot == nil {
			return fmt.Errorf("telegram bot is not initialized")
		}
		err = a.bot.Listen(ctx, a.handlers())
	}

	a.logger.Info("bot app stopped")
	return err
}

func (a *App) runWebhook(ctx context.Context) error {
	if a.bot != nil && a.cfg.Webhook.PublicURL != "" {
		if err := a.bot.SetWebhook(ctx, a.cfg.Webhook.PublicURL, a.cfg.Webhook.Secret); err != nil {
			return err
		}
		a.logger.Info("webhook registered", zap.String("url", a.cfg.Webhook.PublicURL))
	}

	a.server = &http.Server{
		Addr:         a.cfg.Webhook.Addr,
		Handler:      a.HTTPHandler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close report store", zap.Error(err))
		}
	}
}

func (a *App) handlers() tginfra.Handlers {
	return tginfra.Handlers{
		OnCommand:  a.handleCommand,
		OnText:     a.handleText,
		OnCallback: a.handleCallback,
	}
}

// openStore returns the redis client as well when the redis driver is used;
// the report quota shares it.
func openStore(ctx context.Context, cfg config.Config) (repo.Store, *goredis.Client, error) {
	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := pgrepo.NewPool(pingCtx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		if err := pgrepo.Migrate(pingCtx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return pgrepo.NewReportStore(pool), nil, nil

	case config.StoreSQLite:
		store, err := sqliterepo.Open(pingCtx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return store, nil, nil

	default:
		client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init redis store: %w", err)
		}
		return redrepo.NewReportStore(client, cfg.Redis.Prefix), client, nil
	}
}
