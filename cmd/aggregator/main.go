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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"rescueroute/internal/advisory"
	"rescueroute/internal/aggregator"
	"rescueroute/internal/config"
	"rescueroute/internal/telemetry"
)

func main() {
	// Best-effort .env load; absence is not an error. Confined to this
	// entrypoint — internal/aggregator never reaches for the filesystem.
	_ = godotenv.Load(".env")

	telemetry.SetupLogging()

	cfg := config.LoadAggregatorConfig()
	metrics := telemetry.NewAggregatorMetrics()

	slog.Info("aggregator starting",
		"port", cfg.Port,
		"engine_base_url", cfg.EngineBaseURL,
		"poll_interval", cfg.PollInterval,
		"grid_size", cfg.GridSize)

	store := aggregator.NewStore(cfg.GridSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := aggregator.NewPoller(aggregator.PollerConfig{
		EngineBaseURL: cfg.EngineBaseURL,
		Interval:      cfg.PollInterval,
		GridSize:      cfg.GridSize,
		FetchTimeout:  4 * time.Second,
	}, store)
	poller.OnPoll(func(success bool) {
		if success {
			metrics.PollSuccesses.Inc()
		} else {
			metrics.PollFailures.Inc()
		}
	})

	kinesisStreamer := telemetry.NewKinesisStreamer(ctx, cfg.TelemetryStream)
	poller.OnSnapshot(func(state aggregator.SimulationState) {
		for _, r := range state.Robots {
			kinesisStreamer.Send(ctx, telemetry.NewTelemetryRecord(
				r.ID, r.Position[0], r.Position[1], r.Status, r.Battery, r.CurrentMission))
		}
	})

	go poller.Run(ctx)

	decider, logger := wireAdvisory(ctx, cfg)

	server := aggregator.NewServer(store, decider, logger)
	server.OnStreamEvents(
		func() { metrics.ActiveStreams.Inc() },
		func() { metrics.ActiveStreams.Dec() },
	)

	router := mux.NewRouter()
	server.RegisterRoutes(router)
	router.Handle("/internal/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		slog.Info("aggregator shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("aggregator http server shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("aggregator failed to start", "error", err)
		os.Exit(1)
	}
}

// wireAdvisory builds the advisory logger. It returns a nil Decider in
// every case, since no Decider implementation ships in this module;
// GEMINI_API_KEY only changes which message is logged. cmd/aggregator
// only knows the Decider interface and a credential.
func wireAdvisory(ctx context.Context, cfg config.AggregatorConfig) (advisory.Decider, aggregator.DecisionLogger) {
	jsonlLogger, err := advisory.NewJSONLLogger(cfg.AdvisoryLogPath)
	if err != nil {
		slog.Error("failed to open advisory log, advisory logging disabled", "error", err)
		jsonlLogger = nil
	}

	var logger aggregator.DecisionLogger
	if jsonlLogger != nil {
		if cfg.AdvisoryArchive == "dynamodb" {
			logger = multiLogger{primary: jsonlLogger, archive: newDynamoDBArchiveLogger(ctx, cfg)}
		} else {
			logger = jsonlLogger
		}
	}

	if cfg.GeminiAPIKey == "" {
		slog.Info("GEMINI_API_KEY not set, advisory decisions disabled")
		return nil, logger
	}

	// No concrete provider ships in this module; an operator wires one
	// in by replacing this nil with a real advisory.Decider
	// implementation once a provider package is available.
	slog.Warn("GEMINI_API_KEY set but no advisory.Decider implementation is wired in this build")
	return nil, logger
}

type multiLogger struct {
	primary aggregator.DecisionLogger
	archive *advisory.DynamoDBArchive
}

func (m multiLogger) Append(step int, decision advisory.Decision, now time.Time) error {
	if err := m.primary.Append(step, decision, now); err != nil {
		return err
	}
	if m.archive != nil {
		if err := m.archive.Put(context.Background(), step, decision, now); err != nil {
			slog.Error("failed to archive advisory decision to DynamoDB", "error", err)
		}
	}
	return nil
}

func newDynamoDBArchiveLogger(ctx context.Context, cfg config.AggregatorConfig) *advisory.DynamoDBArchive {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config for advisory archive, archive disabled", "error", err)
		return nil
	}
	client := dynamodb.NewFromConfig(awsCfg)
	return advisory.NewDynamoDBArchive(client, cfg.AdvisoryTableName)
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
