package engine

import "math"

// metricsLocked derives the fleet metrics from current state. Must be
// called while holding e.mu.
func (e *Engine) metricsLocked() Metrics {
	var completed, pending int
	var activeRobots int
	var totalDistance float64

	for _, m := range e.missions {
		switch m.Status {
		case MissionCompleted:
			completed++
		case MissionPending:
			pending++
		}
	}
	for _, r := range e.robots {
		if r.Status != StatusDead {
			activeRobots++
		}
		totalDistance += r.TotalDistance
	}

	var avgCompletion float64
	if n := len(e.completedTimes); n > 0 {
		var sum float64
		for _, t := range e.completedTimes {
			sum += t
		}
		avgCompletion = sum / float64(n)
	}

	return Metrics{
		ActiveRobots:          activeRobots,
		CompletedMissions:     completed,
		PendingMissions:       pending,
		TotalDistanceTraveled: round1(totalDistance),
		AvgCompletionTime:     round1(avgCompletion),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
