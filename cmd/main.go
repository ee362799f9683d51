package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/verdantquest/questboard/internal/adapters/http/api"
	"github.com/verdantquest/questboard/internal/adapters/http/site"
	app "github.com/verdantquest/questboard/internal/app"
	"github.com/verdantquest/questboard/internal/config"
	"github.com/verdantquest/questboard/internal/domain/award"
	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/pkg/logger"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithSnapshotSize(cfg.SnapshotSize),
		app.WithSendBuffer(cfg.SendBuffer),
	}
	if len(cfg.Badges) > 0 {
		badges := make([]award.Badge, len(cfg.Badges))
		for i, b := range cfg.Badges {
			badges[i] = award.Badge{Threshold: b.Threshold, Name: b.Name}
		}
		opts = append(opts, app.WithBadges(badges))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	if err := svc.SeedQuests(ctx, defaultQuests()); err != nil {
		log.Error(ctx, "quest seeding failed", logger.Error(err))
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// The embedded live page sits at root; API routes take precedence.
	site.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithMaxLimit(cfg.MaxLeaderboardLimit))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// defaultQuests is the stock catalog loaded at startup. A durable quest
// service replaces this in deployments that have one.
func defaultQuests() []model.Quest {
	return []model.Quest{
		{ID: "plant-a-tree", Title: "Plant a tree", XP: 50, Category: "greening", Difficulty: "medium", Active: true},
		{ID: "bike-to-work", Title: "Bike to work", XP: 30, Category: "transport", Difficulty: "easy", Active: true},
		{ID: "zero-waste-day", Title: "Zero waste day", XP: 40, Category: "waste", Difficulty: "medium", Active: true},
		{ID: "compost-start", Title: "Start a compost bin", XP: 60, Category: "waste", Difficulty: "hard", Active: true},
		{ID: "meatless-monday", Title: "Meatless Monday", XP: 20, Category: "food", Difficulty: "easy", Active: true},
		{ID: "river-cleanup", Title: "Join a river cleanup", XP: 80, Category: "community", Difficulty: "hard", Active: true},
	}
}

// startSystemMetricsUpdater updates system metrics on a fixed interval.
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

// startServiceMetricsUpdater refreshes service gauges on a fixed interval.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
