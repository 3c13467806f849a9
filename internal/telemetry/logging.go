// Package telemetry holds the structured logging setup, Prometheus
// metrics registry, and optional Kinesis streamer shared by both
// binaries.
package telemetry

import (
	"log/slog"
	"os"
)

// SetupLogging installs a JSON slog handler writing to stdout, matching
// every one of the retrieval pack's services.
func SetupLogging() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
}
