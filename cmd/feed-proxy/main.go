package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-proxy/internal/adapter/gateway"
	adapterhandler "feed-proxy/internal/adapter/handler"
	"feed-proxy/internal/domain"
	"feed-proxy/internal/infrastructure/background"
	infracache "feed-proxy/internal/infrastructure/cache"
	"feed-proxy/internal/infrastructure/extractor"
	"feed-proxy/internal/usecase"

	"feed-proxy/config"
	appmiddleware "feed-proxy/middleware"
	"feed-proxy/utils/logger"
	"feed-proxy/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	logger.Init(otelCfg.Enabled)

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"port", cfg.Port,
		"feed_url", cfg.FeedURL,
		"feed_path", cfg.FeedPath,
		"max_items", cfg.MaxItems,
		"cache_ttl", cfg.CacheTTL,
		"cache_backend", cfg.CacheBackend,
		"extractor", cfg.Extractor)

	// Infrastructure
	responseCache, closeCache, err := newResponseCache(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize edge cache", "error", err)
		os.Exit(1)
	}
	feedExtractor, err := extractor.New(cfg.Extractor, cfg.MaxItems)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize extractor", "error", err)
		os.Exit(1)
	}
	originGateway := gateway.NewOriginGateway(cfg.FeedURL, cfg.FetchTimeout, cfg.MaxFeedBytes)
	tracker := background.NewTracker(cfg.CacheWriteTimeout, slog.Default())

	// Usecases
	serveFeedUC := usecase.NewServeFeed(responseCache, originGateway, feedExtractor, tracker, cfg.CacheTTL, slog.Default())

	// Handlers
	feedHandler := adapterhandler.NewFeedHandler(serveFeedUC)
	healthHandler := adapterhandler.NewHealthHandler()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(appmiddleware.SecurityHeaders())
	e.Use(appmiddleware.RequestID())

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			cacheStatus := c.Response().Header().Get("X-Cache")
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"cache", cacheStatus,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	var feedMiddleware []echo.MiddlewareFunc
	if cfg.RateLimitRPM > 0 {
		feedMiddleware = append(feedMiddleware, appmiddleware.PerMinute(ctx, cfg.RateLimitRPM).Middleware())
	}

	e.GET("/health", healthHandler.Handle)
	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	e.Any("/", feedHandler.Handle, feedMiddleware...)
	if cfg.FeedPath != "/" {
		e.Any(cfg.FeedPath, feedHandler.Handle, feedMiddleware...)
	}

	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting feed-proxy server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Server first, then pending cache writes, then the cache client and
	// telemetry they report through.
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		serverErr := e.Shutdown(shutdownCtx)

		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.CacheWriteTimeout+5*time.Second)
		defer drainCancel()
		start := time.Now()
		drainErr := tracker.Wait(drainCtx)
		if drainErr != nil {
			logger.GlobalContext.LogError(drainCtx, "background_drain", drainErr)
		} else {
			logger.GlobalContext.LogDuration(drainCtx, "background_drain", time.Since(start))
		}

		cacheErr := closeCache()

		otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer otelCancel()
		return errors.Join(serverErr, drainErr, cacheErr, otelShutdown(otelCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// newResponseCache builds the configured edge cache and its cleanup.
func newResponseCache(ctx context.Context, cfg *config.Config) (domain.ResponseCache, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rc, err := infracache.NewRedisCacheWithURL(cfg.RedisURL, cfg.CacheKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return rc, rc.Close, nil
	default:
		return infracache.NewMemoryCache(cfg.CacheMaxEntries, cfg.CacheTTL), func() error { return nil }, nil
	}
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
