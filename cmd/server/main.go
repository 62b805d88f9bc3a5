package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lan-echo-server/internal/config"
	"github.com/iliyamo/lan-echo-server/internal/middleware"
	"github.com/iliyamo/lan-echo-server/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config
	cacheCfg := config.LoadCacheConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, cacheErr := newCache(ctx, cacheCfg)
	defer closeCache()

	e := router.New(cfg, cache) // Create Echo instance with routes registered
	if cacheErr != nil {
		e.Logger.Warnf("response cache disabled: %v", cacheErr)
	}
	run(ctx, cfg, e)
}

// newCache connects Redis when caching is enabled.  Without a reachable
// server it returns a nil middleware with the connection error, and the
// greeting is served directly.  The returned func releases the client.
func newCache(ctx context.Context, cfg config.CacheConfig) (echo.MiddlewareFunc, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	client, err := config.NewRedisClient(ctx, config.RedisOptions())
	if err != nil {
		return nil, func() {}, err
	}
	return middleware.NewRedisCache(cfg, client), func() { _ = client.Close() }, nil
}

// run serves e on cfg.Addr() until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func run(ctx context.Context, cfg config.Config, e *echo.Echo) {
	go func() {
		e.Logger.Infof("listening on %s (env=%s debug=%t)", cfg.Addr(), cfg.Env, cfg.Debug) // Print startup info
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error(err)
	}
}
