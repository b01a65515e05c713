package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/reservation"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/telemetry"
	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

const serviceName = "movie-ticket-booking"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	zl, err := logger.New(cfg.Env, serviceName)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		CollectorAddr:  cfg.OtelCollector,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			zl.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.InitSchema(ctx, db); err != nil {
		return err
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := repository.NewUserRepo(db).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, utils.ClampCost(cfg.BcryptCost))
		if err != nil {
			return err
		}
		zl.Info("admin account ready", zap.String("email", cfg.AdminEmail), zap.Bool("created", created))
	}

	rdb := config.NewRedisClient(zl)
	if rdb != nil {
		defer rdb.Close()
	}

	pub := queue.NewPublisher(cfg.RabbitURL, zl)
	defer pub.Close()

	svc := reservation.NewService(repository.NewReservationStore(db),
		reservation.WithPublisher(pub),
		reservation.WithLogger(zl),
	)

	if cfg.ConsumerEnabled {
		go func() {
			_ = queue.NewConsumer(cfg.RabbitURL, cfg.TicketLogDir, zl).Run(ctx)
		}()
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Redis:     rdb,
		Log:       zl,
		Reserver:  svc,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	errc := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	zl.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}
