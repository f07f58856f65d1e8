package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/config"
	"github.com/yeremiapane/tablehub/database"
	"github.com/yeremiapane/tablehub/middlewares"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/router"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, loaded, err := config.Load()
	if err != nil {
		utils.InitLogger("info")
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)
	if !loaded {
		utils.InfoLogger.Warn(".env file not found, using environment only")
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, utils.InfoLogger); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("AutoMigrate completed.")

	store := database.NewStore(db)

	hub := realtime.NewHub(log)
	notifier := realtime.Fanout{hub}
	if cfg.NATSURL != "" {
		publisher, err := realtime.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, realtime events stay local")
		} else {
			defer publisher.Close()
			notifier = append(notifier, publisher)
		}
	}

	audit := services.NewAsyncAuditSink(store.Audit(), log, 512)
	defer audit.Close()

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	registry := services.NewTableRegistry(store, notifier, audit, log)
	queue := services.NewMoveQueue(store, notifier, audit, log)
	coordinator := services.NewMigrationCoordinator(store, queue, notifier, audit, log)
	sessions := services.NewSessionService(store, notifier, audit, log)
	auth := services.NewAuthService(store.Employees(), tokens, log)

	if _, err := auth.EnsureAdmin(ctx, cfg.SeedAdminCode); err != nil {
		return err
	}
	if _, err := registry.Seed(ctx, services.SeedPlan{
		Timed:    cfg.SeedTimedTables,
		FlatRate: cfg.SeedFlatTables,
		Free:     cfg.SeedFreeTables,
	}); err != nil {
		return err
	}

	processor := services.NewEventProcessor(queue, coordinator, log)
	processor.Interval = cfg.ProcessorInterval
	processor.BatchSize = cfg.ProcessorBatchSize
	processor.EventTimeout = cfg.ProcessorEventTimeout
	processor.Start(ctx)
	defer processor.Stop()

	r := router.SetupRouter(router.Dependencies{
		Registry:     registry,
		Queue:        queue,
		Sessions:     sessions,
		Auth:         auth,
		Audit:        store.Audit(),
		Hub:          hub,
		Tokens:       tokens,
		Log:          log,
		CORSOrigins:  cfg.CORSOrigins,
		Limiter:      middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		LoginLimiter: middlewares.NewRateLimiter(5.0/60.0, 5),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
