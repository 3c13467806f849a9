package engine

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Engine owns all mutable simulation state. Every mutation happens inside
// Tick; a single mutex serializes Tick, Snapshot, and Reset so ticks and
// reads never interleave, mirroring the single guarded vehicle-store pattern
// the fleet service uses for its in-memory storage.
type Engine struct {
	cfg Config
	rng *rand.Rand

	mu               sync.Mutex
	robots           []Robot
	missions         []Mission
	obstacles        []Obstacle
	chargingStations []ChargingStation
	blocked          map[Cell]struct{}
	completedTimes   []float64
	nextRobotID      int
	nextMissionID    int

	onMissionAssigned  func()
	onMissionCompleted func()
	onMissionReleased  func()
	onRobotDead        func()
}

// OnMetricsEvent registers optional callbacks fired synchronously from
// within Tick as the corresponding events occur, the same hook shape
// Poller.OnPoll uses to let telemetry observe behavior without the engine
// depending on prometheus. Any callback may be nil.
func (e *Engine) OnMetricsEvent(assigned, completed, released, dead func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMissionAssigned = assigned
	e.onMissionCompleted = completed
	e.onMissionReleased = released
	e.onRobotDead = dead
}

// New builds an Engine seeded from the default (time-based) random source.
func New(cfg Config) *Engine {
	return NewWithSeed(cfg, time.Now().UnixNano())
}

// NewWithSeed builds an Engine with a deterministic random source, so a
// given seed reproduces the same obstacle/robot/mission layout on Reset.
func NewWithSeed(cfg Config, seed int64) *Engine {
	e := &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
	e.resetLocked()
	return e
}

// Reset discards all state and rebuilds the grid, obstacles, charging
// stations, robots, and missions from scratch.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.completedTimes = nil
	e.nextRobotID = 1
	e.nextMissionID = 1

	e.chargingStations = make([]ChargingStation, 0, len(e.cfg.ChargingStations))
	for _, c := range e.cfg.ChargingStations {
		e.chargingStations = append(e.chargingStations, ChargingStation{X: c.X, Y: c.Y})
	}
	stationCells := make(map[Cell]struct{}, len(e.chargingStations))
	for _, s := range e.chargingStations {
		stationCells[Cell{X: s.X, Y: s.Y}] = struct{}{}
	}

	obstacleCells := make(map[Cell]struct{})
	for len(obstacleCells) < e.cfg.ObstacleCount {
		candidate := Cell{X: e.rng.Intn(e.cfg.GridSize), Y: e.rng.Intn(e.cfg.GridSize)}
		if _, onStation := stationCells[candidate]; onStation {
			continue
		}
		obstacleCells[candidate] = struct{}{}
	}
	e.obstacles = make([]Obstacle, 0, len(obstacleCells))
	for c := range obstacleCells {
		e.obstacles = append(e.obstacles, Obstacle{Type: "debris", X: c.X, Y: c.Y})
	}
	e.blocked = make(map[Cell]struct{}, len(obstacleCells))
	for c := range obstacleCells {
		e.blocked[c] = struct{}{}
	}

	e.robots = make([]Robot, 0, e.cfg.RobotCount)
	for i := 0; i < e.cfg.RobotCount; i++ {
		cell := e.randomFreeCell(stationCells)
		e.robots = append(e.robots, Robot{
			ID:      e.nextRobotID,
			X:       cell.X,
			Y:       cell.Y,
			Battery: 100.0,
			Status:  StatusIdle,
		})
		e.nextRobotID++
	}

	e.missions = nil
	for _, priority := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		for i := 0; i < e.cfg.MissionsPerPriority; i++ {
			cell := e.randomFreeCell(stationCells)
			e.missions = append(e.missions, Mission{
				ID:       e.nextMissionID,
				Priority: priority,
				TargetX:  cell.X,
				TargetY:  cell.Y,
				Status:   MissionPending,
			})
			e.nextMissionID++
		}
	}

	slog.Info("simulation reset",
		"robots", len(e.robots),
		"missions", len(e.missions),
		"obstacles", len(e.obstacles))
}

func (e *Engine) randomFreeCell(stationCells map[Cell]struct{}) Cell {
	for {
		c := Cell{X: e.rng.Intn(e.cfg.GridSize), Y: e.rng.Intn(e.cfg.GridSize)}
		if _, blocked := e.blocked[c]; blocked {
			continue
		}
		if _, onStation := stationCells[c]; onStation {
			continue
		}
		return c
	}
}

// Snapshot returns a deep, immutable view of the current world and its
// derived metrics.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	robots := make([]Robot, len(e.robots))
	for i, r := range e.robots {
		robots[i] = r
		robots[i].Path = append([]Cell(nil), r.Path...)
		if r.MissionID != nil {
			id := *r.MissionID
			robots[i].MissionID = &id
		}
		if r.ChargeDestination != nil {
			dest := *r.ChargeDestination
			robots[i].ChargeDestination = &dest
		}
	}

	missions := make([]Mission, len(e.missions))
	for i, m := range e.missions {
		missions[i] = m
		if m.AssignedRobot != nil {
			id := *m.AssignedRobot
			missions[i].AssignedRobot = &id
		}
		if m.StartTime != nil {
			t := *m.StartTime
			missions[i].StartTime = &t
		}
		if m.CompletionTime != nil {
			t := *m.CompletionTime
			missions[i].CompletionTime = &t
		}
	}

	return Snapshot{
		Robots:           robots,
		Missions:         missions,
		Obstacles:        append([]Obstacle(nil), e.obstacles...),
		ChargingStations: append([]ChargingStation(nil), e.chargingStations...),
		Metrics:          e.metricsLocked(),
		Timestamp:        time.Now().UTC(),
	}
}
