// @title           Tracking Service API
// @version         1.0
// @description     Normalizes parcel tracking responses from the carrier SOAP web service.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99minutos/tracking-service/internal/api"
	"github.com/99minutos/tracking-service/internal/api/handler"
	"github.com/99minutos/tracking-service/internal/core/service"
	"github.com/99minutos/tracking-service/internal/infrastructure/config"
	"github.com/99minutos/tracking-service/internal/infrastructure/db/mongo"
	"github.com/99minutos/tracking-service/internal/infrastructure/db/redis"
	"github.com/99minutos/tracking-service/internal/infrastructure/queue"
	"github.com/99minutos/tracking-service/internal/infrastructure/soap"
	"github.com/99minutos/tracking-service/pkg/logger"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		l := logger.Get()
		l.Fatal().Err(err).Msg("tracking service stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "tracking-service",
	})

	// --- Audit store ---
	audit := openAuditTrail(ctx, cfg.Mongo, cfg.Tracking.DispatchWorkers, log)
	defer audit.shutdown()

	deps := map[string]handler.Pinger{}
	if audit.pinger != nil {
		deps["mongodb"] = audit.pinger
	}
	opts := api.Options{JWTSecret: cfg.JWTSecret, Log: log}

	// --- Rate limiting ---
	if cfg.Tracking.RateLimitPerMinute > 0 {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		opts.Limiter = redis.NewRateLimiter(rdb, cfg.Tracking.RateLimitPerMinute)
		deps["redis"] = redis.Pinger{Client: rdb}
	}
	opts.Dependencies = deps

	// --- Tracking ---
	clients := soap.NewFactory(soap.Config{
		WSDLURL:     cfg.Tracking.WSDLURL,
		Timeout:     cfg.Tracking.Timeout,
		ContractTTL: cfg.Tracking.ContractTTL,
	}, log)
	opts.Tracking = service.NewTrackingService(clients, audit.recorder(), cfg.Tracking.Timeout, log)

	e := api.NewRouter(opts)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("tracking service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

// auditTrail owns the lookup audit pipeline. A zero auditTrail records
// nothing and is what run falls back to when MongoDB is unreachable.
type auditTrail struct {
	dispatcher *queue.Dispatcher
	pinger     handler.Pinger
	stop       context.CancelFunc
	disconnect func()
	log        zerolog.Logger
}

func openAuditTrail(ctx context.Context, cfg config.MongoConfig, workers int, log zerolog.Logger) *auditTrail {
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.URI,
		Database: cfg.Database,
		AppName:  "tracking-service",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("audit store unavailable, lookups will not be recorded")
		return &auditTrail{log: log}
	}

	lookups := mongo.NewLookupRepository(db)
	if err := lookups.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not ensure lookup indexes")
	}

	workerCtx, stop := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(workers, lookups, log)
	dispatcher.Start(workerCtx)

	return &auditTrail{
		dispatcher: dispatcher,
		pinger:     mongo.Pinger{Client: client},
		stop:       stop,
		disconnect: func() { _ = client.Disconnect(context.Background()) },
		log:        log,
	}
}

// recorder returns a nil interface when there is no dispatcher so the
// tracking service skips auditing altogether.
func (a *auditTrail) recorder() service.LookupRecorder {
	if a.dispatcher == nil {
		return nil
	}
	return a.dispatcher
}

func (a *auditTrail) shutdown() {
	if a.dispatcher == nil {
		return
	}
	a.stop()
	a.dispatcher.Wait()
	a.log.Info().Msg("audit queue drained")
	a.disconnect()
}
