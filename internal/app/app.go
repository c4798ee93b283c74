package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"CompetitorScanner/internal/config"
	"CompetitorScanner/internal/discovery"
	"CompetitorScanner/internal/infrastructure/archive"
	"CompetitorScanner/internal/infrastructure/browser"
	"CompetitorScanner/internal/infrastructure/kvstore"
	"CompetitorScanner/internal/infrastructure/llm"
	"CompetitorScanner/internal/infrastructure/scheduler"
	"CompetitorScanner/internal/infrastructure/social"
	"CompetitorScanner/internal/infrastructure/telegram"
	"CompetitorScanner/internal/logging"
	"CompetitorScanner/internal/ports"
	"CompetitorScanner/internal/runstate"
	"CompetitorScanner/internal/usecase"
)

// Application wires configuration to the discovery engine and owns the
// lifecycle of its infrastructure handles.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	pass    *usecase.Pass
	store   ports.KeyValueStore
	session *browser.RodSession
	db      *sql.DB
}

// New builds a runnable application instance. The browser session and the
// key-value store are mandatory; enrichment, pattern analysis and run
// archiving come up only when their credentials are configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	session, err := browser.NewRodSession()
	if err != nil {
		closeStore(store, baseLogger)
		return nil, fmt.Errorf("start browser session: %w", err)
	}

	registry := discovery.NewRegistry()
	registry.Register(discovery.NewFollowingOverlap(session, baseLogger.With("component", "discovery.following")))
	registry.Register(discovery.NewNativeMutual(session, baseLogger.With("component", "discovery.mutual")))

	tracker := runstate.NewTracker(store, baseLogger.With("component", "runstate"))

	pass := &usecase.Pass{
		Orchestrator: usecase.NewOrchestrator(usecase.OrchestratorDeps{
			Registry: registry,
			Store:    store,
			Tracker:  tracker,
			Logger:   baseLogger.With("component", "orchestrator"),
		}),
		Logger: baseLogger.With("component", "pass"),
	}

	application := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		pass:    pass,
		store:   store,
		session: session,
	}

	if cfg.Twitter.BearerToken != "" {
		provider, err := social.NewProvider(cfg.Twitter.BearerToken, baseLogger.With("component", "social.twitter"))
		if err != nil {
			application.Close()
			return nil, fmt.Errorf("build posts provider: %w", err)
		}
		pass.Enricher = usecase.NewEnricher(usecase.EnricherDeps{
			Store:           store,
			Provider:        provider,
			Logger:          baseLogger.With("component", "enricher"),
			PostsPerAccount: cfg.Twitter.PostsPerAccount,
		})
	}

	if cfg.Anthropic.APIKey != "" {
		client, err := llm.NewClient(llm.Config{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}, baseLogger.With("component", "llm.anthropic"))
		if err != nil {
			application.Close()
			return nil, fmt.Errorf("build anthropic client: %w", err)
		}
		pass.Analyzer = usecase.NewAnalyzer(usecase.AnalyzerDeps{
			Store:     store,
			Generator: client,
			Logger:    baseLogger.With("component", "analyzer"),
		})
	}

	if cfg.Archive.DSN != "" {
		db, err := archive.Open(ctx, cfg.Archive.DSN)
		if err != nil {
			baseLogger.Warn("run archive unavailable, continuing without history", "error", err)
		} else {
			application.db = db
			pass.Archive = archive.NewPostgresArchive(db)
		}
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		pass.Notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	return application, nil
}

// Run executes discovery once, or keeps re-running it when the scheduler is
// enabled. In scheduled mode Run blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	runCfg := a.cfg.Discovery.RunConfig()
	if runCfg.TargetHandle == "" {
		return errors.New("no target handle configured")
	}

	if !a.cfg.Scheduler.Enabled {
		result, err := a.pass.Execute(ctx, runCfg)
		if err != nil {
			return err
		}
		a.logger.Info("discovery finished",
			"handle", runCfg.TargetHandle,
			"status", result.Status,
			"analyzed", result.Snapshot.AnalyzedCount,
			"top_competitors", len(result.Snapshot.TopCompetitors))
		return nil
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Every())
	sched := usecase.NewScheduler(driver, a.pass, runCfg, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return sched.Stop(context.WithoutCancel(ctx))
}

// Close releases the browser, store and database handles.
func (a *Application) Close() {
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("close browser session", "error", err)
		}
		a.session = nil
	}

	closeStore(a.store, a.logger)
	a.store = nil

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
		a.db = nil
	}
}

// RequestCancel flips the stored cancellation flag for the configured handle
// so that a discovery run in another process stops at its next checkpoint.
func RequestCancel(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) error {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	handle := cfg.Discovery.TargetHandle
	if handle == "" {
		return errors.New("no target handle configured")
	}

	if cfg.Redis.Addr == "" {
		baseLogger.Warn("store is in-memory; cancellation cannot reach other processes")
	}

	store, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeStore(store, baseLogger)

	tracker := runstate.NewTracker(store, baseLogger)
	if err := tracker.RequestCancel(ctx, handle); err != nil {
		return fmt.Errorf("request cancel for %s: %w", handle, err)
	}

	baseLogger.Info("cancellation requested", "handle", handle)
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.KeyValueStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("no redis address configured, using in-memory store")
		return kvstore.NewMemory(), nil
	}

	store, err := kvstore.NewRedis(ctx, kvstore.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return store, nil
}

func closeStore(store ports.KeyValueStore, logger *slog.Logger) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil && logger != nil {
		logger.Warn("close store", "error", err)
	}
}
