// Package integration drives the engine and aggregator together
// in-process, exercising the same end-to-end scenarios a subprocess-based
// harness would, but over httptest.Server so no ports or binaries are
// required to exercise the cooperating services.
package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rescueroute/internal/aggregator"
	"rescueroute/internal/engine"
)

func startEngine(t *testing.T, cfg engine.Config, seed int64) (*httptest.Server, *engine.Engine) {
	t.Helper()
	sim := engine.NewWithSeed(cfg, seed)
	router := mux.NewRouter()
	engine.NewServer(sim).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, sim
}

func startAggregator(t *testing.T, engineURL string, gridSize int, pollInterval time.Duration) (*httptest.Server, *aggregator.Poller, context.CancelFunc) {
	t.Helper()
	store := aggregator.NewStore(gridSize)
	poller := aggregator.NewPoller(aggregator.PollerConfig{
		EngineBaseURL: engineURL,
		Interval:      pollInterval,
		GridSize:      gridSize,
		FetchTimeout:  2 * time.Second,
	}, store)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Run(ctx)

	server := aggregator.NewServer(store, nil, nil)
	router := mux.NewRouter()
	server.RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(cancel)
	return srv, poller, cancel
}

func TestEndToEnd_PollerTranslatesEngineStateToExternalSchema(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.GridSize = 20
	cfg.RobotCount = 2
	cfg.ObstacleCount = 5
	cfg.MissionsPerPriority = 1
	engineSrv, _ := startEngine(t, cfg, 7)

	aggSrv, _, _ := startAggregator(t, engineSrv.URL, cfg.GridSize, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := http.Get(aggSrv.URL + "/api/v1/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	resp, err := http.Get(aggSrv.URL + "/api/v1/robots")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The engine is never ticked here, so every robot is still idle and
	// every mission still pending.
	var robots []aggregator.Robot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&robots))
	require.Len(t, robots, cfg.RobotCount)
	assert.Equal(t, "1", robots[0].ID)
	assert.Equal(t, "2", robots[1].ID)
	for _, r := range robots {
		assert.Equal(t, "IDLE", r.Status)
	}

	state := fetchState(t, aggSrv.URL)
	assert.Equal(t, cfg.GridSize, state.Grid.Width)
	require.Len(t, state.ActiveMissions, 3*cfg.MissionsPerPriority)
	for _, m := range state.ActiveMissions {
		assert.Equal(t, "PENDING", m.Status)
	}
}

func TestEndToEnd_PollingGap_StateFreezesWhenEngineStops(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.GridSize = 20
	cfg.RobotCount = 1
	cfg.ObstacleCount = 0
	cfg.MissionsPerPriority = 0
	engineSrv, _ := startEngine(t, cfg, 3)

	aggSrv, _, _ := startAggregator(t, engineSrv.URL, cfg.GridSize, 30*time.Millisecond)

	// Let at least one successful poll land.
	time.Sleep(100 * time.Millisecond)

	stateBefore := fetchState(t, aggSrv.URL)
	require.Greater(t, stateBefore.Step, 0)

	// Stop the engine: the aggregator's next polls fail.
	engineSrv.Close()
	time.Sleep(200 * time.Millisecond)

	stateAfter := fetchState(t, aggSrv.URL)
	assert.Equal(t, stateBefore.Step, stateAfter.Step, "step must not advance once the engine is unreachable")
}

func TestEndToEnd_StreamingDisconnect_EmitterStopsWithinOneIteration(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.GridSize = 20
	cfg.RobotCount = 1
	cfg.ObstacleCount = 0
	cfg.MissionsPerPriority = 0
	engineSrv, _ := startEngine(t, cfg, 11)

	aggSrv, _, _ := startAggregator(t, engineSrv.URL, cfg.GridSize, 30*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, aggSrv.URL+"/api/v1/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	eventsRead := 0
	for eventsRead < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: update") {
			eventsRead++
		}
	}

	closedAt := time.Now()
	require.NoError(t, resp.Body.Close())

	// A subsequent request to a simple endpoint should still succeed,
	// proving the aggregator itself kept running after the disconnect.
	require.Eventually(t, func() bool {
		r, err := http.Get(aggSrv.URL + "/api/v1/state")
		if err != nil {
			return false
		}
		defer r.Body.Close()
		return r.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	assert.WithinDuration(t, closedAt, time.Now(), 2*time.Second)
}

func fetchState(t *testing.T, baseURL string) aggregator.SimulationState {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state aggregator.SimulationState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	return state
}
