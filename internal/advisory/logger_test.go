package advisory

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLLogger_Append_WritesOneLinePerCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	logger, err := NewJSONLLogger(path)
	require.NoError(t, err)

	mission := "mission-7"
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, logger.Append(1, Decision{
		PriorityMissionID: &mission,
		Reasoning:         "robot-1 is closest and has sufficient battery",
	}, now))
	require.NoError(t, logger.Append(2, Decision{
		Reassignments: []Reassignment{{RobotID: "robot-2", NewMissionID: "mission-9"}},
		Reasoning:     "robot-2 freed up after completing its delivery",
	}, now.Add(time.Second)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].Step)
	assert.Equal(t, "mission-7", *lines[0].Decision.PriorityMissionID)
	assert.Equal(t, "2026-01-02T03:04:05Z", lines[0].Timestamp)

	assert.Equal(t, 2, lines[1].Step)
	assert.Equal(t, "robot-2", lines[1].Decision.Reassignments[0].RobotID)
}

func TestJSONLLogger_Append_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "decisions.jsonl")
	logger, err := NewJSONLLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.Append(0, Decision{Reasoning: "initial"}, time.Now()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
