package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
)

// RobotTelemetry is one robot's per-poll supplemental telemetry record,
// streamed to Kinesis in addition to (never instead of) the primary
// snapshot store — a supplemental analytics feed, not a second source
// of truth for fleet state.
type RobotTelemetry struct {
	RobotID   string  `json:"robot_id"`
	Timestamp string  `json:"timestamp"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Status    string  `json:"status"`
	Battery   float64 `json:"battery"`
	MissionID *string `json:"mission_id,omitempty"`
}

// KinesisStreamer sends robot telemetry to a Kinesis stream when enabled.
// A nil client means streaming is disabled, matching initKinesis leaving
// the vehicle's kinesisClient nil when the env var is unset.
type KinesisStreamer struct {
	client     *kinesis.Client
	streamName string
}

// NewKinesisStreamer builds a streamer for streamName, or a disabled
// no-op streamer if streamName is empty.
func NewKinesisStreamer(ctx context.Context, streamName string) *KinesisStreamer {
	if streamName == "" {
		return &KinesisStreamer{}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Warn("failed to load AWS config for Kinesis telemetry, streaming disabled", "error", err)
		return &KinesisStreamer{}
	}

	slog.Info("Kinesis telemetry streaming enabled", "stream", streamName)
	return &KinesisStreamer{
		client:     kinesis.NewFromConfig(cfg),
		streamName: streamName,
	}
}

// Send streams one robot's telemetry record. No-op when disabled.
func (k *KinesisStreamer) Send(ctx context.Context, t RobotTelemetry) {
	if k.client == nil {
		return
	}

	data, err := json.Marshal(t)
	if err != nil {
		slog.Error("failed to marshal Kinesis telemetry record", "robot_id", t.RobotID, "error", err)
		return
	}

	_, err = k.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(k.streamName),
		Data:         data,
		PartitionKey: aws.String(t.RobotID),
	})
	if err != nil {
		slog.Error("failed to send telemetry to Kinesis", "robot_id", t.RobotID, "error", err)
	}
}

// NewTelemetryRecord is a small convenience used by callers translating
// a snapshot robot into a telemetry record at send time.
func NewTelemetryRecord(robotID string, x, y int, status string, battery float64, missionID *string) RobotTelemetry {
	return RobotTelemetry{
		RobotID:   robotID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		X:         x,
		Y:         y,
		Status:    status,
		Battery:   battery,
		MissionID: missionID,
	}
}
