package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking-core/internal/booking"
	"github.com/iliyamo/cinema-booking-core/internal/config"
	"github.com/iliyamo/cinema-booking-core/internal/database"
	"github.com/iliyamo/cinema-booking-core/internal/handler"
	"github.com/iliyamo/cinema-booking-core/internal/logger"
	"github.com/iliyamo/cinema-booking-core/internal/metrics"
	"github.com/iliyamo/cinema-booking-core/internal/middleware"
	"github.com/iliyamo/cinema-booking-core/internal/queue"
	"github.com/iliyamo/cinema-booking-core/internal/repository"
	"github.com/iliyamo/cinema-booking-core/internal/repository/memory"
	"github.com/iliyamo/cinema-booking-core/internal/router"
	"github.com/iliyamo/cinema-booking-core/internal/store"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		ServiceName: "cinema-booking",
		Development: cfg.LogDevelopment,
		OutputPath:  cfg.LogOutput,
	})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, pingers, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := booking.Options{
		CleanupBuffer: cfg.CleanupBuffer,
		TicketPrefix:  cfg.TicketCodePrefix,
		Logger:        log,
		Metrics:       metrics.New(reg),
	}
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log)
		defer func() { _ = pub.Close() }()
		opts.Publisher = pub
		if cfg.EventConsumer {
			consumer := queue.NewAuditConsumer(cfg.RabbitMQURL, cfg.AuditLogPath, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	} else {
		log.Info("RABBITMQ_URL not set, domain events disabled")
	}
	engine := booking.New(st, opts)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Info("redis unavailable, rate limiting disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), middleware.AccessLog(log))

	screenings := handler.NewScreeningHandler(engine, log)
	router.RegisterRoutes(e, reg, pingers...)
	router.RegisterPublic(e, screenings, handler.NewTicketHandler(engine, log))
	router.RegisterCustomer(e, handler.NewBookingHandler(engine, log), cfg.JWTSecret, limiter)
	router.RegisterOwner(e, screenings, cfg.JWTSecret)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured store, the dependencies the health
// check should ping and a cleanup function.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Store, []handler.Pinger, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		st := memory.New(nil)
		if cfg.SeedDemo {
			st.SeedDemo()
			log.Info("memory store seeded with demo catalogue")
		}
		return st, nil, func() {}, nil
	}

	db, err := database.Open(database.Config{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
	}
	return repository.New(db), []handler.Pinger{db}, func() { _ = db.Close() }, nil
}
