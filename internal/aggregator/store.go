package aggregator

import "sync"

// Store holds the single published snapshot shared by the poller, every
// HTTP read endpoint, and every streaming emitter. A single mutex serializes
// all access, mirroring the fleet service's guarded in-memory vehicle map.
type Store struct {
	mu    sync.Mutex
	state SimulationState
}

// NewStore seeds the store with an empty, well-formed snapshot so reads
// before the first successful poll never see a zero value missing its
// nested slices.
func NewStore(gridSize int) *Store {
	return &Store{
		state: SimulationState{
			Robots: []Robot{},
			Grid: Grid{
				Width:            gridSize,
				Height:           gridSize,
				Obstacles:        [][2]int{},
				ChargingStations: [][2]int{},
			},
			ActiveMissions:    []Mission{},
			CompletedMissions: []Mission{},
		},
	}
}

// Get returns the current published snapshot.
func (s *Store) Get() SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Replace atomically swaps the published snapshot, used by both the poller
// (on a successful fetch) and POST /update (manual injection).
func (s *Store) Replace(state SimulationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}
