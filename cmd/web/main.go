package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"campaign-dashboard/internal/cache"
	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/middleware"
	"campaign-dashboard/internal/observability"
	"campaign-dashboard/internal/server"
	"campaign-dashboard/internal/services"
	"campaign-dashboard/internal/source"
	"campaign-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 60 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// Template handler functions that can access the template functions
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// openSource returns the record source selected by cfg.Source.Driver.
func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.RecordSource, error) {
	switch cfg.Source.Driver {
	case config.DriverPostgres:
		return source.OpenPostgres(ctx, cfg.Postgres, logger)
	case config.DriverCSV:
		mem := source.NewMemory(cfg.Source.CacheDir, logger)
		if err := mem.LoadFromCSV(ctx, cfg.Source.CSVFile); err != nil {
			return nil, err
		}
		return mem, nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"source", cfg.Source.Driver,
		"cache_enabled", cfg.Redis.Addr != "",
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	start := time.Now()
	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record source", "driver", cfg.Source.Driver, "error", err)
		os.Exit(1)
	}
	records, _ := src.Len(ctx)
	logger.Info("record source ready", "driver", cfg.Source.Driver, "records", records, "duration", time.Since(start))

	resultCache := cache.New(cfg.Redis)
	if err := resultCache.Ping(ctx); err != nil {
		logger.Warn("aggregation cache unreachable, continuing without hits", "addr", cfg.Redis.Addr, "error", err)
	}

	dashboard := services.NewDashboard(src, resultCache, services.Options{
		PageSize:           cfg.Dashboard.TablePageSize,
		AggregationWorkers: cfg.Dashboard.AggregationWorkers,
	}, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(dashboard, cfg.Dashboard, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing record source")
		return src.Close()
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing aggregation cache")
		return resultCache.Close()
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
