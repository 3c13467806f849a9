package aggregator

import (
	"fmt"
	"strconv"
)

// engineState mirrors the JSON the engine serves at GET /simulation/state.
// The aggregator decodes into this shape rather than importing the engine
// package directly — the two processes are independent HTTP collaborators.
type engineState struct {
	Robots []struct {
		ID        int     `json:"id"`
		X         int     `json:"x"`
		Y         int     `json:"y"`
		Battery   float64 `json:"battery"`
		Status    string  `json:"status"`
		MissionID *int    `json:"mission_id"`
	} `json:"robots"`
	Missions []struct {
		ID       int    `json:"id"`
		Priority string `json:"priority"`
		Target   struct {
			X int `json:"x"`
			Y int `json:"y"`
		} `json:"target"`
		Status        string `json:"status"`
		AssignedRobot *int   `json:"assigned_robot"`
	} `json:"missions"`
	Obstacles []struct {
		Type string `json:"type"`
		X    int    `json:"x"`
		Y    int    `json:"y"`
	} `json:"obstacles"`
	ChargingStations []struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"charging_stations"`
	Metrics struct {
		ActiveRobots          int     `json:"active_robots"`
		CompletedMissions     int     `json:"completed_missions"`
		PendingMissions       int     `json:"pending_missions"`
		TotalDistanceTraveled float64 `json:"total_distance_traveled"`
		AvgCompletionTime     float64 `json:"avg_completion_time"`
	} `json:"metrics"`
	Timestamp string `json:"timestamp"`
}

var statusMap = map[string]string{
	"idle":     "IDLE",
	"moving":   "MOVING",
	"charging": "CHARGING",
	"dead":     "DEAD",
}

var priorityMap = map[string]string{
	"high":   "High",
	"medium": "Medium",
	"low":    "Low",
}

var missionStatusMap = map[string]string{
	"pending":   "PENDING",
	"active":    "IN_PROGRESS",
	"completed": "COMPLETED",
}

// convert translates one polled engine snapshot into the external schema
// and the step counter that will be published alongside it. gridSize comes
// from the aggregator's own configuration, never from the engine payload.
func convert(raw engineState, step int, gridSize int) SimulationState {
	robots := make([]Robot, len(raw.Robots))
	for i, r := range raw.Robots {
		var mission *string
		if r.MissionID != nil {
			s := strconv.Itoa(*r.MissionID)
			mission = &s
		}
		robots[i] = Robot{
			ID:             strconv.Itoa(r.ID),
			Position:       [2]int{r.X, r.Y},
			Battery:        r.Battery,
			Status:         translateStatus(r.Status),
			CurrentMission: mission,
		}
	}

	obstacles := make([][2]int, len(raw.Obstacles))
	for i, o := range raw.Obstacles {
		obstacles[i] = [2]int{o.X, o.Y}
	}
	stations := make([][2]int, len(raw.ChargingStations))
	for i, c := range raw.ChargingStations {
		stations[i] = [2]int{c.X, c.Y}
	}

	var active, completed []Mission
	for _, m := range raw.Missions {
		var assigned *string
		if m.AssignedRobot != nil {
			s := strconv.Itoa(*m.AssignedRobot)
			assigned = &s
		}
		converted := Mission{
			ID:            strconv.Itoa(m.ID),
			Priority:      translatePriority(m.Priority),
			Target:        [2]int{m.Target.X, m.Target.Y},
			Status:        translateMissionStatus(m.Status),
			AssignedRobot: assigned,
		}
		if converted.Status == "COMPLETED" {
			completed = append(completed, converted)
		} else {
			active = append(active, converted)
		}
	}

	return SimulationState{
		Step:   step,
		Robots: robots,
		Grid: Grid{
			Width:            gridSize,
			Height:           gridSize,
			Obstacles:        obstacles,
			ChargingStations: stations,
		},
		ActiveMissions:        active,
		CompletedMissions:     completed,
		AvgCompletionTime:     raw.Metrics.AvgCompletionTime,
		TotalDistanceTraveled: raw.Metrics.TotalDistanceTraveled,
	}
}

func translateStatus(s string) string {
	if v, ok := statusMap[s]; ok {
		return v
	}
	return fmt.Sprintf("UNKNOWN(%s)", s)
}

func translatePriority(p string) string {
	if v, ok := priorityMap[p]; ok {
		return v
	}
	return p
}

func translateMissionStatus(s string) string {
	if v, ok := missionStatusMap[s]; ok {
		return v
	}
	return fmt.Sprintf("UNKNOWN(%s)", s)
}
