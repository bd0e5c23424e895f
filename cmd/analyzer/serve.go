package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-analyzer/internal/alerting"
	"github.com/telhawk-systems/telhawk-analyzer/internal/config"
	"github.com/telhawk-systems/telhawk-analyzer/internal/datasource"
	"github.com/telhawk-systems/telhawk-analyzer/internal/jobstore"
	"github.com/telhawk-systems/telhawk-analyzer/internal/logging"
	"github.com/telhawk-systems/telhawk-analyzer/internal/pipeline"
	"github.com/telhawk-systems/telhawk-analyzer/internal/progress"
	"github.com/telhawk-systems/telhawk-analyzer/internal/rules"
	"github.com/telhawk-systems/telhawk-analyzer/internal/scheduler"
	"github.com/telhawk-systems/telhawk-analyzer/internal/server"
	"github.com/telhawk-systems/telhawk-analyzer/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyzer service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	logging.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job store: postgres when enabled, otherwise in-memory dev mode.
	var store jobstore.Store
	if cfg.Database.Enabled {
		connString := cfg.Database.Postgres.ConnString()

		logger.Info("running database migrations")
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			return fmt.Errorf("initialize migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}

		pg, err := jobstore.NewPostgresStore(ctx, connString)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pg.Close()
		store = pg
	} else {
		logger.Warn("database disabled, using in-memory job store")
		store = jobstore.NewMemoryStore()
	}

	// Progress cache.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}
	cache := progress.NewCache(redisClient, cfg.Redis.Enabled)

	// Alert sink.
	var emitter *alerting.Emitter
	if cfg.NATS.Enabled {
		sink, err := alerting.NewNATSSink(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("connect alert sink: %w", err)
		}
		defer sink.Close()
		emitter = alerting.NewEmitter(sink, "telhawk-analyzer", logger)
	} else {
		logger.Warn("nats disabled, alerts will not be delivered")
	}

	// Data sources: uploaded-data store first, then extraction output
	// files on disk.
	var sources []datasource.Source
	if cfg.Storage.Enabled {
		osSource, err := datasource.NewOpenSearchSource(datasource.OpenSearchConfig{
			URL:           cfg.Storage.URL,
			Username:      cfg.Storage.Username,
			Password:      cfg.Storage.Password,
			TLSSkipVerify: cfg.Storage.Insecure,
			IndexPrefix:   cfg.Storage.IndexPrefix,
		})
		if err != nil {
			return fmt.Errorf("create opensearch source: %w", err)
		}
		sources = append(sources, osSource)
	}
	sources = append(sources, datasource.NewFileSource(cfg.Datasource.Dirs))
	source := datasource.NewChain(sources...)

	blacklist, err := cfg.LoadBlacklist()
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}

	pipe := pipeline.New(rules.Default(blacklist), logger)
	runner := worker.NewAnalysisRunner(source, pipe, emitter, logger)

	sched := scheduler.New(scheduler.Config{
		Workers:         cfg.Scheduler.Workers,
		DispatchBackoff: cfg.Scheduler.DispatchBackoff,
	}, store, cache, runner, logger)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Shutdown()

	router := server.New(sched, store, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("analyzer listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
