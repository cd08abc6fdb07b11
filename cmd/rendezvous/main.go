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

	"github.com/okian/rendezvous/internal/adapters/http/api"
	"github.com/okian/rendezvous/internal/adapters/http/swagger"
	"github.com/okian/rendezvous/internal/adapters/repository"
	"github.com/okian/rendezvous/internal/adapters/session"
	app "github.com/okian/rendezvous/internal/app"
	"github.com/okian/rendezvous/internal/config"
	"github.com/okian/rendezvous/pkg/logger"
	"github.com/okian/rendezvous/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg)...)

	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open session store", logger.Error(err))
		return
	}
	defer closeStore()

	svc := newService(cfg, store, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "service stop failed", logger.Error(err))
		}
	}()

	go startStatsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("session_id", svc.SessionID()),
			logger.String("session_backend", cfg.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// metricsOptions maps the metrics settings of cfg onto manager options.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithRecording(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
		metrics.WithLatencyBuckets(cfg.MetricsLatencyBucketsMS),
		metrics.WithConstLabels(cfg.MetricsLabels),
	}
}

// newSessionStore opens the configured session backend. The returned func
// releases it.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rs, err := session.DialRedis(ctx, cfg.RedisURL, cfg.SessionTTL())
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return session.NewMemoryStore(session.WithTTL(cfg.SessionTTL())), func() {}, nil
	}
}

// newService wires the dataset repository and the controller from cfg.
func newService(cfg *config.Config, store session.Store, log logger.Logger) *app.Service {
	repo := repository.NewDatasetStore(
		repository.NewSource(cfg.RosterSource, cfg.SourceTimeout()),
		repository.NewSource(cfg.PairsSource, cfg.SourceTimeout()),
		repository.WithLogger(log.Named("repository")),
	)
	return app.New(repo,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.ResolverWorkers),
		app.WithQueueSize(cfg.ResolverQueueSize),
		app.WithHistoryCapacity(cfg.HistoryCapacity),
		app.WithDisplayPolicy(cfg.DisplayHead, cfg.DisplayTail),
		app.WithSessionStore(store),
		app.WithSessionID(cfg.SessionID),
	)
}

// newMux registers the API and documentation routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// startStatsUpdater refreshes the gauges derived from service stats until ctx ends.
func startStatsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateStatsMetrics(ctx, svc)
		}
	}
}

func updateStatsMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	metrics.UpdateResolverWorkers(stats.Workers)
	if stats.RosterSize > 0 {
		metrics.UpdateRosterSize(stats.RosterSize)
	}
}
