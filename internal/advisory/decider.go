// Package advisory defines the pluggable AI-commander collaborator: a
// fleet snapshot goes in, a recommended decision comes out. No concrete
// provider lives in this module; cmd/aggregator wires none, so the
// aggregator's decide endpoint reports the model as not configured.
package advisory

import "context"

// Reassignment recommends moving a robot onto a different mission.
type Reassignment struct {
	RobotID      string `json:"robot_id"`
	NewMissionID string `json:"new_mission_id"`
}

// Decision is the advisory model's structured recommendation, matching
// the external /ai/decide response shape.
type Decision struct {
	PriorityMissionID *string        `json:"priority_mission_id"`
	Reassignments     []Reassignment `json:"reassignments"`
	Reasoning         string         `json:"reasoning"`
}

// Snapshot is the minimal view of fleet state an advisory model needs.
// It is declared here, not imported from internal/aggregator, so this
// package stays free of any dependency on the HTTP surface it is asked
// to advise.
type Snapshot struct {
	Step              int             `json:"step"`
	Robots            []SnapshotRobot `json:"robots"`
	ActiveMissions    []SnapshotItem  `json:"active_missions"`
	CompletedMissions []SnapshotItem  `json:"completed_missions"`
}

type SnapshotRobot struct {
	ID      string  `json:"id"`
	Battery float64 `json:"battery"`
	Status  string  `json:"status"`
}

type SnapshotItem struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

// Decider is the external advisory collaborator. Implementations may
// call out to any model provider; core code only ever sees this
// interface, per the "pluggable external collaborator" requirement.
type Decider interface {
	Decide(ctx context.Context, snapshot Snapshot) (Decision, error)
}

// NoRobotsError describes a decide request made against an empty fleet.
// Nothing in this module returns it: the aggregator's decide handler
// answers that case with a 400 and its own message.
type NoRobotsError struct{}

func (NoRobotsError) Error() string { return "advisory decide: no robots in fleet" }
