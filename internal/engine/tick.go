package engine

import (
	"log/slog"
	"sort"
	"time"
)

// Tick advances the world by exactly one discrete step. It never fails:
// a panic in any phase is recovered and logged, the remaining phases of
// that tick are skipped, and the next call to Tick runs normally. Callers
// must hold no other lock; Tick acquires the engine's own guard.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("unhandled simulator error during tick", "panic", r)
		}
	}()

	e.assignPendingMissions()
	e.moveRobotsOneStep()
	e.processMissionCompletion()
	e.manageBatteryAndCharging()
	e.markDeadRobots()
}

func (e *Engine) missionByID(id int) *Mission {
	for i := range e.missions {
		if e.missions[i].ID == id {
			return &e.missions[i]
		}
	}
	return nil
}

// assignPendingMissions is tick phase 1.
func (e *Engine) assignPendingMissions() {
	pending := make([]*Mission, 0)
	for i := range e.missions {
		if e.missions[i].Status == MissionPending {
			pending = append(pending, &e.missions[i])
		}
	}
	if len(pending) == 0 {
		return
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return priorityScore[pending[i].Priority] > priorityScore[pending[j].Priority]
	})

	for _, mission := range pending {
		var candidates []*Robot
		for i := range e.robots {
			r := &e.robots[i]
			if r.Status == StatusIdle && r.Battery > e.cfg.MinBatteryForMission {
				candidates = append(candidates, r)
			}
		}
		if len(candidates) == 0 {
			return
		}

		target := Cell{X: mission.TargetX, Y: mission.TargetY}
		nearest := candidates[0]
		nearestDist := manhattan(Cell{X: nearest.X, Y: nearest.Y}, target)
		for _, r := range candidates[1:] {
			d := manhattan(Cell{X: r.X, Y: r.Y}, target)
			if d < nearestDist {
				nearest = r
				nearestDist = d
			}
		}

		path := astar(Cell{X: nearest.X, Y: nearest.Y}, target, e.blocked, e.cfg.GridSize)
		if len(path) == 0 {
			slog.Warn("mission currently unreachable",
				"mission_id", mission.ID, "target_x", mission.TargetX, "target_y", mission.TargetY)
			continue
		}

		nearest.Path = path[1:]
		nearest.Status = StatusMoving
		missionID := mission.ID
		nearest.MissionID = &missionID
		nearest.ChargeDestination = nil

		mission.Status = MissionActive
		robotID := nearest.ID
		mission.AssignedRobot = &robotID
		if mission.StartTime == nil {
			now := time.Now()
			mission.StartTime = &now
		}

		slog.Info("mission assigned",
			"mission_id", mission.ID, "priority", mission.Priority, "robot_id", nearest.ID)
		if e.onMissionAssigned != nil {
			e.onMissionAssigned()
		}
	}
}

// moveRobotsOneStep is tick phase 2.
func (e *Engine) moveRobotsOneStep() {
	for i := range e.robots {
		r := &e.robots[i]
		if r.Status != StatusMoving {
			continue
		}

		if len(r.Path) == 0 {
			if r.ChargeDestination != nil && r.X == r.ChargeDestination.X && r.Y == r.ChargeDestination.Y {
				r.Status = StatusCharging
			} else {
				r.Status = StatusIdle
			}
			continue
		}

		next := r.Path[0]
		r.Path = r.Path[1:]
		r.X, r.Y = next.X, next.Y
		r.Battery = max0(r.Battery - e.cfg.BatteryDrainPerMove)
		r.TotalDistance++
	}
}

// processMissionCompletion is tick phase 3.
func (e *Engine) processMissionCompletion() {
	for i := range e.robots {
		r := &e.robots[i]
		if r.Status == StatusDead || r.MissionID == nil {
			continue
		}

		mission := e.missionByID(*r.MissionID)
		if mission == nil || mission.Status != MissionActive {
			continue
		}

		atTarget := r.X == mission.TargetX && r.Y == mission.TargetY
		if atTarget && len(r.Path) == 0 {
			mission.Status = MissionCompleted
			now := time.Now()
			mission.CompletionTime = &now
			if mission.StartTime != nil {
				e.completedTimes = append(e.completedTimes, now.Sub(*mission.StartTime).Seconds())
			}
			r.MissionID = nil
			r.Path = nil
			r.Status = StatusIdle
			slog.Info("mission completed", "mission_id", mission.ID, "robot_id", r.ID)
			if e.onMissionCompleted != nil {
				e.onMissionCompleted()
			}
		}
	}
}

// manageBatteryAndCharging is tick phase 4.
func (e *Engine) manageBatteryAndCharging() {
	stations := make(map[Cell]struct{}, len(e.chargingStations))
	for _, s := range e.chargingStations {
		stations[Cell{X: s.X, Y: s.Y}] = struct{}{}
	}

	for i := range e.robots {
		r := &e.robots[i]
		if r.Status == StatusDead {
			continue
		}

		here := Cell{X: r.X, Y: r.Y}
		_, atStation := stations[here]

		if atStation && r.Battery < 100 {
			// A robot passing through a station en route to a mission is
			// still pulled into charging here; this pre-empts the mission.
			r.Status = StatusCharging
			r.Battery = min100(r.Battery + e.cfg.BatteryChargePerTick)
			r.Path = nil
			dest := here
			r.ChargeDestination = &dest
			if r.Battery >= 100 {
				r.Status = StatusIdle
				r.ChargeDestination = nil
			}
			continue
		}

		if r.Battery < e.cfg.LowBatteryThreshold && !atStation {
			e.releaseMission(r)

			nearestStation := e.chargingStations[0]
			nearestDist := manhattan(here, Cell{X: nearestStation.X, Y: nearestStation.Y})
			for _, s := range e.chargingStations[1:] {
				d := manhattan(here, Cell{X: s.X, Y: s.Y})
				if d < nearestDist {
					nearestStation = s
					nearestDist = d
				}
			}
			goal := Cell{X: nearestStation.X, Y: nearestStation.Y}
			path := astar(here, goal, e.blocked, e.cfg.GridSize)
			if len(path) > 0 {
				r.Path = path[1:]
				r.ChargeDestination = &goal
				r.Status = StatusMoving
			} else {
				r.Status = StatusDead
				r.Path = nil
				slog.Error("robot cannot reach charging station and is marked dead", "robot_id", r.ID)
				if e.onRobotDead != nil {
					e.onRobotDead()
				}
			}
		}
	}
}

// markDeadRobots is tick phase 5.
func (e *Engine) markDeadRobots() {
	for i := range e.robots {
		r := &e.robots[i]
		if r.Status == StatusDead {
			continue
		}
		if r.Battery <= 0.0 {
			e.releaseMission(r)
			r.Status = StatusDead
			r.Path = nil
			r.ChargeDestination = nil
			slog.Warn("robot battery depleted, marked dead", "robot_id", r.ID)
			if e.onRobotDead != nil {
				e.onRobotDead()
			}
		}
	}
}

// releaseMission reverts the robot's active mission to pending and clears
// its assigned robot. StartTime is deliberately left untouched: it is only
// ever set on a mission's first activation (assignPendingMissions only
// stamps it when nil), so a release-and-reassign cycle keeps measuring
// completion time from the original assignment, not the most recent one.
func (e *Engine) releaseMission(r *Robot) {
	if r.MissionID == nil {
		return
	}
	mission := e.missionByID(*r.MissionID)
	if mission != nil && mission.Status == MissionActive {
		mission.Status = MissionPending
		mission.AssignedRobot = nil
		if e.onMissionReleased != nil {
			e.onMissionReleased()
		}
	}
	r.MissionID = nil
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func min100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
