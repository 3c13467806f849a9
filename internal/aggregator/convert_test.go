package aggregator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEngineStateJSON = `{
  "robots": [
    {"id": 1, "x": 3, "y": 4, "battery": 87.5, "status": "moving", "mission_id": 2},
    {"id": 2, "x": 0, "y": 0, "battery": 100, "status": "idle", "mission_id": null}
  ],
  "missions": [
    {"id": 2, "priority": "high", "target": {"x": 10, "y": 10}, "status": "active", "assigned_robot": 1},
    {"id": 3, "priority": "low", "target": {"x": 1, "y": 1}, "status": "completed", "assigned_robot": null}
  ],
  "obstacles": [{"type": "wall", "x": 5, "y": 5}],
  "charging_stations": [{"x": 5, "y": 5}],
  "metrics": {"active_robots": 2, "completed_missions": 1, "pending_missions": 0, "total_distance_traveled": 42.3, "avg_completion_time": 12.25},
  "timestamp": "2026-01-01T00:00:00Z"
}`

func TestConvert_TranslatesEnumsAndStringifiesIDs(t *testing.T) {
	var raw engineState
	require.NoError(t, json.Unmarshal([]byte(sampleEngineStateJSON), &raw))

	out := convert(raw, 7, 50)

	assert.Equal(t, 7, out.Step)
	assert.Equal(t, 50, out.Grid.Width)
	assert.Equal(t, 50, out.Grid.Height)
	require.Len(t, out.Robots, 2)

	assert.Equal(t, "1", out.Robots[0].ID)
	assert.Equal(t, "MOVING", out.Robots[0].Status)
	require.NotNil(t, out.Robots[0].CurrentMission)
	assert.Equal(t, "2", *out.Robots[0].CurrentMission)

	assert.Equal(t, "2", out.Robots[1].ID)
	assert.Equal(t, "IDLE", out.Robots[1].Status)
	assert.Nil(t, out.Robots[1].CurrentMission)
}

func TestConvert_SplitsActiveAndCompletedMissions(t *testing.T) {
	var raw engineState
	require.NoError(t, json.Unmarshal([]byte(sampleEngineStateJSON), &raw))

	out := convert(raw, 1, 50)

	require.Len(t, out.ActiveMissions, 1)
	require.Len(t, out.CompletedMissions, 1)
	assert.Equal(t, "High", out.ActiveMissions[0].Priority)
	assert.Equal(t, "IN_PROGRESS", out.ActiveMissions[0].Status)
	assert.Equal(t, "Low", out.CompletedMissions[0].Priority)
	assert.Equal(t, "COMPLETED", out.CompletedMissions[0].Status)
}

func TestConvert_GridDimensionsComeFromParameterNotPayload(t *testing.T) {
	var raw engineState
	require.NoError(t, json.Unmarshal([]byte(sampleEngineStateJSON), &raw))

	out := convert(raw, 1, 20)

	assert.Equal(t, 20, out.Grid.Width)
	assert.Equal(t, 20, out.Grid.Height)
}

func TestConvert_CarriesMetricsThrough(t *testing.T) {
	var raw engineState
	require.NoError(t, json.Unmarshal([]byte(sampleEngineStateJSON), &raw))

	out := convert(raw, 1, 50)

	assert.Equal(t, 42.3, out.TotalDistanceTraveled)
	assert.Equal(t, 12.25, out.AvgCompletionTime)
}

func TestTranslateStatus_UnknownPassesThroughTagged(t *testing.T) {
	assert.Equal(t, "UNKNOWN(bogus)", translateStatus("bogus"))
}
