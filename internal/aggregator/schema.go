package aggregator

// SimulationState is the external schema published to downstream clients.
// Statuses and priorities are uppercased/titled tagged strings, robot and
// mission ids are stringified, positions are [x,y] tuples.
type SimulationState struct {
	Step              int       `json:"step"`
	Robots            []Robot   `json:"robots"`
	Grid              Grid      `json:"grid"`
	ActiveMissions    []Mission `json:"active_missions"`
	CompletedMissions []Mission `json:"completed_missions"`

	// AvgCompletionTime and TotalDistanceTraveled are carried straight
	// through from the most recent poll for use by the metrics endpoint;
	// they are not part of the downstream-facing state payload itself.
	AvgCompletionTime     float64 `json:"-"`
	TotalDistanceTraveled float64 `json:"-"`
}

type Robot struct {
	ID             string  `json:"id"`
	Position       [2]int  `json:"position"`
	Battery        float64 `json:"battery"`
	Status         string  `json:"status"` // IDLE | MOVING | CHARGING | DEAD
	CurrentMission *string `json:"current_mission"`
}

type Grid struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Obstacles        [][2]int `json:"obstacles"`
	ChargingStations [][2]int `json:"charging_stations"`
}

type Mission struct {
	ID            string  `json:"id"`
	Priority      string  `json:"priority"` // High | Medium | Low
	Target        [2]int  `json:"target"`
	Status        string  `json:"status"` // PENDING | IN_PROGRESS | COMPLETED
	AssignedRobot *string `json:"assigned_robot"`
}

// Metrics is the aggregator's own derived-metrics projection.
type Metrics struct {
	ActiveRobots          int     `json:"active_robots"`
	CompletedMissions     int     `json:"completed_missions"`
	AvgDeliveryTime       float64 `json:"avg_delivery_time"`
	TotalBatteryUsed      float64 `json:"total_battery_used"`
	FleetBattery          float64 `json:"fleet_battery"`
	TotalDistanceTraveled float64 `json:"total_distance_traveled"`
}
