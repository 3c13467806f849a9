package engine

import "time"

// wireRobot, wireMission, etc. are the engine's own HTTP schema
// (lowercase status/priority strings, integer ids). This is the shape the
// aggregator's poller parses.

type wireRobot struct {
	ID        int     `json:"id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Battery   float64 `json:"battery"`
	Status    string  `json:"status"`
	MissionID *int    `json:"mission_id"`
}

type wirePosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type wireMission struct {
	ID            int          `json:"id"`
	Priority      string       `json:"priority"`
	Target        wirePosition `json:"target"`
	Status        string       `json:"status"`
	AssignedRobot *int         `json:"assigned_robot"`
}

type wireObstacle struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type wireChargingStation struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type wireMetrics struct {
	ActiveRobots          int     `json:"active_robots"`
	CompletedMissions     int     `json:"completed_missions"`
	PendingMissions       int     `json:"pending_missions"`
	TotalDistanceTraveled float64 `json:"total_distance_traveled"`
	AvgCompletionTime     float64 `json:"avg_completion_time"`
}

type wireState struct {
	Robots           []wireRobot           `json:"robots"`
	Missions         []wireMission         `json:"missions"`
	Obstacles        []wireObstacle        `json:"obstacles"`
	ChargingStations []wireChargingStation `json:"charging_stations"`
	Metrics          wireMetrics           `json:"metrics"`
	Timestamp        string                `json:"timestamp"`
}

func toWireState(s Snapshot) wireState {
	robots := make([]wireRobot, len(s.Robots))
	for i, r := range s.Robots {
		robots[i] = wireRobot{
			ID:        r.ID,
			X:         r.X,
			Y:         r.Y,
			Battery:   round1(r.Battery),
			Status:    string(r.Status),
			MissionID: r.MissionID,
		}
	}

	missions := make([]wireMission, len(s.Missions))
	for i, m := range s.Missions {
		missions[i] = wireMission{
			ID:            m.ID,
			Priority:      string(m.Priority),
			Target:        wirePosition{X: m.TargetX, Y: m.TargetY},
			Status:        string(m.Status),
			AssignedRobot: m.AssignedRobot,
		}
	}

	obstacles := make([]wireObstacle, len(s.Obstacles))
	for i, o := range s.Obstacles {
		obstacles[i] = wireObstacle{Type: o.Type, X: o.X, Y: o.Y}
	}

	stations := make([]wireChargingStation, len(s.ChargingStations))
	for i, c := range s.ChargingStations {
		stations[i] = wireChargingStation{X: c.X, Y: c.Y}
	}

	return wireState{
		Robots:           robots,
		Missions:         missions,
		Obstacles:        obstacles,
		ChargingStations: stations,
		Metrics: wireMetrics{
			ActiveRobots:          s.Metrics.ActiveRobots,
			CompletedMissions:     s.Metrics.CompletedMissions,
			PendingMissions:       s.Metrics.PendingMissions,
			TotalDistanceTraveled: s.Metrics.TotalDistanceTraveled,
			AvgCompletionTime:     s.Metrics.AvgCompletionTime,
		},
		Timestamp: s.Timestamp.Format(time.RFC3339Nano),
	}
}
