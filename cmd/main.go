package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/stampcard/internal/adapters/eventlog"
	"github.com/okian/stampcard/internal/adapters/http/api"
	"github.com/okian/stampcard/internal/adapters/http/swagger"
	"github.com/okian/stampcard/internal/adapters/repository"
	app "github.com/okian/stampcard/internal/app"
	"github.com/okian/stampcard/internal/config"
	"github.com/okian/stampcard/internal/domain/cheer"
	"github.com/okian/stampcard/internal/domain/dedupe"
	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// application is everything main starts and stops.
type application struct {
	cfg   *config.Config
	svc   *app.Service
	srv   *http.Server
	store repository.Store
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build application", logger.Error(err))
		os.Exit(1)
	}

	if err := a.run(ctx, log); err != nil {
		log.Error(ctx, "stampcard exited", logger.Error(err))
		os.Exit(1)
	}
}

// newApplication wires the service, the optional local log and the HTTP
// routes from cfg.
func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	a := &application{cfg: cfg}

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithSyncInterval(cfg.SyncInterval()),
		app.WithQueueSize(cfg.AppendQueueSize),
		app.WithRequestTimeout(cfg.RequestTimeout()),
		app.WithHistoryPageSize(cfg.HistoryPageSize),
	}

	if endpoint := cfg.EffectiveLogEndpoint(); endpoint != "" {
		client, err := eventlog.New(endpoint,
			eventlog.WithTimeout(cfg.RequestTimeout()),
			eventlog.WithLogger(log.Named("eventlog")),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithLogClient(client))
	} else {
		log.Warn(ctx, "no log_endpoint configured; state will not be persisted")
	}

	if cfg.CheerEndpoint != "" {
		remote, err := cheer.NewRemote(cfg.CheerEndpoint,
			cheer.WithTimeout(cfg.CheerTimeout()),
			cheer.WithLogger(log.Named("cheer")),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithCheer(remote))
	}

	a.svc = app.New(opts...)

	var serverOpts []api.ServerOption
	if cfg.ServeLog {
		store, err := repository.Open(repository.Kind(cfg.LogStore), cfg.LogStorePath)
		if err != nil {
			return nil, fmt.Errorf("open log store: %w", err)
		}
		a.store = store
		metrics.UpdateLogRowsStored(store.Count(ctx))
		serverOpts = append(serverOpts, api.WithLogHandler(api.NewLogHandler(
			store,
			dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize)),
			log.Named("logserver"),
		)))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(a.svc, a.svc, serverOpts...).Register(ctx, mux)

	a.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return a, nil
}

// run serves until ctx is cancelled. The listener is bound before the
// service starts so the first sync can reach a locally served log.
func (a *application) run(ctx context.Context, log logger.Logger) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", a.cfg.Addr))
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := a.svc.Start(ctx); err != nil {
		if !errors.Is(err, app.ErrNoLogClient) {
			_ = a.srv.Close()
			return fmt.Errorf("start service: %w", err)
		}
		log.Warn(ctx, "running without an event log; actions stay in memory")
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = err
	}
	log.Info(ctx, "shutting down server...")

	// The service drains pending appends first; they may target /log on this
	// very server.
	a.svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Error(ctx, "log store close failed", logger.Error(err))
		}
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// startSystemMetricsUpdater periodically publishes process metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateAppendQueueSize(queueLen)
	}
}
