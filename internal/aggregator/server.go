package aggregator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rescueroute/internal/advisory"
)

// DecisionLogger is the subset of advisory.JSONLLogger the server needs,
// declared locally so tests can substitute a fake.
type DecisionLogger interface {
	Append(step int, decision advisory.Decision, now time.Time) error
}

// Server is the aggregator's HTTP surface: the read endpoints projecting
// the published snapshot, the SSE stream, and the advisory bridge.
type Server struct {
	store   *Store
	decider advisory.Decider
	logger  DecisionLogger
	now     func() time.Time

	streamInterval time.Duration

	onStreamOpen  func()
	onStreamClose func()
}

// NewServer wires a Server around store. decider and logger may be nil;
// /api/v1/ai/decide responds 503 while decider is nil, and a nil logger
// only skips appending decisions to the log.
func NewServer(store *Store, decider advisory.Decider, logger DecisionLogger) *Server {
	return &Server{
		store:          store,
		decider:        decider,
		logger:         logger,
		now:            time.Now,
		streamInterval: time.Second,
	}
}

// OnStreamEvents registers optional telemetry hooks for stream open/close.
func (s *Server) OnStreamEvents(open, close func()) {
	s.onStreamOpen = open
	s.onStreamClose = close
}

// RegisterRoutes mounts every aggregator endpoint onto router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.Use(requestIDMiddleware)

	router.HandleFunc("/", s.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/state", s.GetState).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/stream", s.Stream).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/robots", s.GetRobots).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/missions", s.GetMissions).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/metrics", s.GetMetrics).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/update", s.PostUpdate).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/ai/decide", s.PostAIDecide).Methods(http.MethodPost)
}

// requestIDMiddleware attaches a correlation id to every request's log
// lines, the same purpose google/uuid serves for correlation elsewhere
// in the retrieval pack.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		slog.Info("aggregator request", "request_id", reqID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Get())
}

func (s *Server) GetRobots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Get().Robots)
}

func (s *Server) GetMissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Get().ActiveMissions)
}

// GetMetrics recomputes the derived fleet metrics straight from the
// published snapshot, per the exact clamping rules: active_robots
// excludes DEAD robots; fleet_battery clamps each robot's battery to
// [0,100] before averaging; total_battery_used is max(0, 100*n - sum of
// those clamped batteries); avg_delivery_time and
// total_distance_traveled are carried through from the most recent poll.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	state := s.store.Get()

	var activeRobots int
	var batterySum float64
	for _, robot := range state.Robots {
		if robot.Status != "DEAD" {
			activeRobots++
		}
		batterySum += clampBattery(robot.Battery)
	}

	var fleetBattery float64
	if len(state.Robots) > 0 {
		fleetBattery = batterySum / float64(len(state.Robots))
	}
	totalBatteryUsed := 100*float64(len(state.Robots)) - batterySum
	if totalBatteryUsed < 0 {
		totalBatteryUsed = 0
	}

	metrics := Metrics{
		ActiveRobots:          activeRobots,
		CompletedMissions:     len(state.CompletedMissions),
		AvgDeliveryTime:       round1(state.AvgCompletionTime),
		TotalBatteryUsed:      round1(totalBatteryUsed),
		FleetBattery:          round1(fleetBattery),
		TotalDistanceTraveled: round1(state.TotalDistanceTraveled),
	}
	writeJSON(w, http.StatusOK, metrics)
}

func clampBattery(b float64) float64 {
	if b < 0 {
		return 0
	}
	if b > 100 {
		return 100
	}
	return b
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

// PostUpdate accepts an externally-produced SimulationState and publishes
// it directly, bypassing the poller. Used by tests and by any future
// manual-injection tooling.
func (s *Server) PostUpdate(w http.ResponseWriter, r *http.Request) {
	var state SimulationState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid simulation state: " + err.Error()})
		return
	}
	s.store.Replace(state)
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "step": state.Step})
}

// PostAIDecide forwards the current snapshot to the advisory collaborator
// and appends the returned decision to the JSON-lines log.
func (s *Server) PostAIDecide(w http.ResponseWriter, r *http.Request) {
	if s.decider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "advisory model not configured"})
		return
	}

	state := s.store.Get()
	if len(state.Robots) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no robots in fleet"})
		return
	}

	snapshot := toAdvisorySnapshot(state)
	decision, err := s.decider.Decide(r.Context(), snapshot)
	if err != nil {
		slog.Error("advisory decide failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "advisory model error: " + err.Error()})
		return
	}

	if s.logger != nil {
		if err := s.logger.Append(state.Step, decision, s.now()); err != nil {
			slog.Error("failed to append advisory decision log", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, decision)
}

func toAdvisorySnapshot(state SimulationState) advisory.Snapshot {
	robots := make([]advisory.SnapshotRobot, len(state.Robots))
	for i, r := range state.Robots {
		robots[i] = advisory.SnapshotRobot{ID: r.ID, Battery: r.Battery, Status: r.Status}
	}
	active := make([]advisory.SnapshotItem, len(state.ActiveMissions))
	for i, m := range state.ActiveMissions {
		active[i] = advisory.SnapshotItem{ID: m.ID, Priority: m.Priority, Status: m.Status}
	}
	completed := make([]advisory.SnapshotItem, len(state.CompletedMissions))
	for i, m := range state.CompletedMissions {
		completed[i] = advisory.SnapshotItem{ID: m.ID, Priority: m.Priority, Status: m.Status}
	}
	return advisory.Snapshot{
		Step:              state.Step,
		Robots:            robots,
		ActiveMissions:    active,
		CompletedMissions: completed,
	}
}

// Stream opens a server-sent event channel emitting one "update" event
// per second carrying the current published snapshot, until the client
// disconnects. The stream is independent of poller cadence: a stuck
// poller serves the last good snapshot unchanged rather than stalling.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if s.onStreamOpen != nil {
		s.onStreamOpen()
	}
	if s.onStreamClose != nil {
		defer s.onStreamClose()
	}

	ctx := r.Context()
	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeEvent(w, s.store.Get()); err != nil {
				slog.Warn("sse write failed, closing stream", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, state SimulationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: update\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
