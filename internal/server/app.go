// Package server wires the gophauth components together and runs the HTTP
// API and the gRPC health endpoint until the process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/connections"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger

	conns  *connections.Manager
	redis  *redis.Client
	http   *http.Server
	health *gs.HealthServer
}

// NewApp builds every component from cfg. Nothing touches the database yet:
// the store connects on first use.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	rm := repomanager.NewPostgresRepositoryManager()
	app.conns = connections.NewManager(connections.PostgresDialer(cfg.DatabaseDSN, rm), cfg.ConnectTimeout, logger)

	var tokenOpts []auth.TokenOption
	if cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := app.redis.Ping(pingCtx).Err(); err != nil {
			_ = app.redis.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		tokenOpts = append(tokenOpts, auth.WithRevocationList(auth.NewRedisRevocationList(app.redis)))
	} else {
		logger.Warn(ctx, "no revocation list configured, tokens stay valid until expiry")
	}

	tokens := auth.NewTokenService(cfg.SecretKey, cfg.TokenValidityDuration, tokenOpts...)
	us := services.NewUserService(app.conns, rm, auth.NewBcryptHasher(cfg.PasswordCost), tokens, logger,
		services.WithDistinctLoginErrors(cfg.DistinctLoginErrors))

	m := metrics.New()
	app.conns.Observe(m.StoreObserver())

	if cfg.EndpointAddrGRPC != "" {
		app.health = gs.NewHealthServer(cfg.EndpointAddrGRPC, logger)
		app.conns.Observe(app.health.StoreObserver())
	}

	gin.SetMode(gin.ReleaseMode)
	h := httpapi.NewHandler(us, auth.NewCookieCodec(cfg.SecureCookies, tokens.Validity()), app.conns, logger)
	router := httpapi.NewRouter(h, logger, httpapi.RouterOptions{
		CORSOrigins: cfg.CORSAllowedOrigins,
		Observer:    m,
		Metrics:     m.Handler(),
	})
	app.http = &http.Server{
		Addr:              cfg.EndpointAddrHTTP,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "Starting HTTP server", "address", app.http.Addr)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

// warmUp connects the store in the background so health turns SERVING
// without waiting for the first request. Failure is only logged: the next
// request retries.
func (app *App) warmUp(ctx context.Context) {
	if _, err := app.conns.Get(ctx); err != nil && ctx.Err() == nil {
		app.logger.Warn(ctx, "initial store connection failed", "error", err)
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// the servers down and closes the store and redis clients.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	go app.warmUp(ctx)

	<-ctx.Done()
	app.logger.Info(context.Background(), "Stopping app...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.http.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	wg.Wait()

	if err := app.conns.Close(); err != nil {
		errs = append(errs, err)
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	return errors.Join(errs...)
}
