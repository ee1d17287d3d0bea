package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/nvrsync/internal/config"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver"
	"github.com/MrSnakeDoc/nvrsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
	"github.com/MrSnakeDoc/nvrsync/internal/metrics"
	"github.com/MrSnakeDoc/nvrsync/internal/redis"
	"github.com/MrSnakeDoc/nvrsync/internal/remote"
	"github.com/MrSnakeDoc/nvrsync/internal/scheduler"
	"github.com/MrSnakeDoc/nvrsync/internal/store"
	"github.com/MrSnakeDoc/nvrsync/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/nvrsync/internal/store/redis"
	sqlitestore "github.com/MrSnakeDoc/nvrsync/internal/store/sqlite"
	"github.com/MrSnakeDoc/nvrsync/internal/utils"
	"github.com/MrSnakeDoc/nvrsync/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	repo       store.Repository
	supervisor *scheduler.Supervisor
	seeder     *scheduler.HostSeeder
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	// Open the store early - fail fast if unavailable
	repo, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.Storage.Kind, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized successfully", logger.String("store", cfg.Storage.Kind))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	loopMetrics := metrics.New(registry)

	client := remote.New(remote.Options{
		StatusTimeout:     cfg.Remote.StatusTimeout,
		FetchTimeout:      cfg.Remote.FetchTimeout,
		StatusPath:        cfg.Remote.StatusPath,
		ConfigPath:        cfg.Remote.ConfigPath,
		StatsPath:         cfg.Remote.StatsPath,
		SkipTLSValidation: cfg.Remote.SkipTLSValidation,
	})

	supervisor := scheduler.NewSupervisor(repo, client, scheduler.Options{
		LivenessInterval:      cfg.Loops.LivenessInterval,
		InventoryFastInterval: cfg.Loops.InventoryFastInterval,
		InventorySlowInterval: cfg.Loops.InventorySlowInterval,
		StateFastInterval:     cfg.Loops.StateFastInterval,
		StateSlowInterval:     cfg.Loops.StateSlowInterval,
		MaxConcurrency:        cfg.Loops.MaxConcurrency,
	}, loggerClient, loopMetrics)

	var seeder *scheduler.HostSeeder
	if cfg.Storage.HostsFile != "" {
		loggerClient.Info("hosts file configured", logger.String("file", cfg.Storage.HostsFile))
		seeder = scheduler.NewHostSeeder(cfg.Storage.HostsFile, repo, loggerClient)
	} else {
		loggerClient.Info("hosts file not configured, using hosts already in the store")
	}

	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.HTTP.AllowedHosts,
		AllowedCIDRS:       cfg.HTTP.AllowedCIDRS,
		TrustProxy:         cfg.HTTP.TrustProxy,
		Repository:         repo,
		StoreKind:          cfg.Storage.Kind,
		Loops:              supervisor,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReconcileBurst:     cfg.HTTP.ReconcileBurst,
		ReconcilePerMinute: cfg.HTTP.ReconcilePerMinute,
	}

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     httpserver.New(cfg.HTTP, loggerClient, d),
		repo:       repo,
		supervisor: supervisor,
		seeder:     seeder,
	}
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Repository, error) {
	switch cfg.Storage.Kind {
	case config.StoreRedis:
		rc := cfg.Redis
		log.Infof("Connecting to Redis at %s", rc.Addr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           rc.Addr,
			User:           rc.User,
			Password:       rc.Password,
			DB:             rc.DB,
			DialTimeout:    rc.DialTimeout,
			ReadTimeout:    rc.ReadTimeout,
			WriteTimeout:   rc.WriteTimeout,
			PoolSize:       rc.PoolSize,
			ConnectTimeout: rc.ConnectTimeout,
			RetryInterval:  rc.RetryInterval,
			MaxWait:        rc.MaxWait,
			PingTimeout:    rc.PingTimeout,
			WarnThreshold:  rc.WarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	case config.StoreSQLite:
		log.Infof("Opening SQLite database at %s", cfg.Storage.SQLitePath)
		s, err := sqlitestore.New(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreMemory:
		log.Warn("memory store selected, hosts and cameras are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Storage.Kind)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting nvrsync v%s on %s", version.Version, a.cfg.HTTP.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register hosts before the loops enumerate them
	if a.seeder != nil {
		if _, err := a.seeder.Seed(ctx); err != nil {
			a.logger.Warn("host seeding incomplete, continuing with the hosts in the store",
				logger.Error(err))
		}
	}

	a.supervisor.Start(ctx)
	a.logger.Info("reconciliation started",
		logger.Duration("liveness_interval", a.cfg.Loops.LivenessInterval),
		logger.Duration("inventory_interval", a.cfg.Loops.InventoryFastInterval),
		logger.Duration("state_interval", a.cfg.Loops.StateFastInterval),
		logger.Int("max_concurrency", a.cfg.Loops.MaxConcurrency))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// A cycle in flight sees ctx cancelled and returns early.
	loopsDone := make(chan struct{})
	go func() {
		a.supervisor.Wait()
		close(loopsDone)
	}()
	select {
	case <-loopsDone:
		a.logger.Info("✅ reconciliation loops stopped")
	case <-shutdownCtx.Done():
		a.logger.Warn("reconciliation loops still running at shutdown deadline")
	}

	utils.CloseLogged(a.repo, a.cfg.Storage.Kind+" store", a.logger)

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ nvrsync stopped cleanly")
	return nil
}
