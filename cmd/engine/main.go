package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"rescueroute/internal/config"
	"rescueroute/internal/engine"
	"rescueroute/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()

	cfg := config.LoadEngineConfig()
	engineCfg := engine.DefaultConfig()
	engineCfg.GridSize = cfg.GridSize
	engineCfg.ObstacleCount = cfg.ObstacleCount
	engineCfg.RobotCount = cfg.RobotCount
	engineCfg.MissionsPerPriority = cfg.MissionsPerPrio

	sim := engine.New(engineCfg)
	metrics := telemetry.NewEngineMetrics()
	sim.OnMetricsEvent(
		metrics.MissionsAssigned.Inc,
		metrics.MissionsCompleted.Inc,
		metrics.MissionsReleased.Inc,
		metrics.RobotsDead.Inc,
	)

	slog.Info("simulation engine starting",
		"port", cfg.Port,
		"grid_size", engineCfg.GridSize,
		"robot_count", engineCfg.RobotCount,
		"tick_interval", cfg.TickInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runTickLoop(ctx, sim, cfg.TickInterval, metrics)

	router := mux.NewRouter()
	httpServer := engine.NewServer(sim)
	httpServer.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		slog.Info("simulation engine shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("engine http server shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("simulation engine failed to start", "error", err)
		os.Exit(1)
	}
}

// runTickLoop is the engine's cooperative tick task: tick, sleep, repeat,
// cancellable via ctx so shutdown completes the current sleep and exits.
func runTickLoop(ctx context.Context, sim *engine.Engine, interval time.Duration, metrics *telemetry.Metrics) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick loop stopped")
			return
		case <-ticker.C:
			sim.Tick()
			metrics.TicksExecuted.Inc()
		}
	}
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if _, ok := allowedSet[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
