package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/events"
	v1 "github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/tracer"
)

func main() {
	root := &cobra.Command{
		Use:           "scheduler",
		Short:         "MedFlow appointment scheduling and availability engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg.Database, log)
			if err != nil {
				return err
			}
			return database.Migrate(db, log)
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, log, nil
}

func runServer(parent context.Context, migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}

	m := metrics.NewCollector("medflow_scheduling", prometheus.DefaultRegisterer)

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if migrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}
	go database.ReportPoolStats(ctx, db, m, 15*time.Second)

	appointmentCache, closeCache := buildCache(ctx, cfg, log, m)
	defer closeCache()

	publisher := events.NewPublisher(cfg.Kafka, log)
	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), log, m)

	appointmentRepo := repository.NewAppointmentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)

	appointmentSvc := service.NewAppointmentService(
		repository.NewTransactor(db),
		appointmentRepo,
		appointmentCache,
		publisher,
		auditSvc,
		cfg.Scheduling,
		m,
		log,
	)
	availabilitySvc := service.NewAvailabilityService(doctorRepo, appointmentRepo, cfg.Scheduling, m, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:       cfg,
		Appointments: appointmentSvc,
		Availability: availabilitySvc,
		Tokens:       auth.NewJWTManager(cfg.JWT),
		Metrics:      m,
		Log:          log,
		Ready:        pingDB(db),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("timezone", cfg.Scheduling.Location().String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	auditSvc.Shutdown()
	if err := publisher.Close(); err != nil {
		log.Warn("closing event publisher", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("flushing traces", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// buildCache prefers Redis behind a circuit breaker. When Redis is
// unreachable at startup the service runs uncached, unless a single-instance
// deployment opted into the process-local store.
func buildCache(ctx context.Context, cfg *config.Config, log *zap.Logger, m *metrics.Collector) (*cache.AppointmentCache, func()) {
	if !cfg.Cache.Enabled {
		log.Info("appointment cache disabled")
		return nil, func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Cache.LocalFallback {
			log.Warn("redis unavailable, using in-process cache", zap.Error(err))
			return cache.NewAppointmentCache(cache.NewMemoryStore(), cfg.Cache.TTL, log, m), func() {}
		}
		log.Warn("redis unavailable, running without appointment cache", zap.Error(err))
		return nil, func() {}
	}

	store := cache.NewBreakerStore(cache.NewRedisStore(client), cfg.Cache, log)
	return cache.NewAppointmentCache(store, cfg.Cache.TTL, log, m), func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis", zap.Error(err))
		}
	}
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
