package aggregator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_NewStoreSeedsEmptyGrid(t *testing.T) {
	s := NewStore(50)
	got := s.Get()
	assert.Equal(t, 50, got.Grid.Width)
	assert.Equal(t, 50, got.Grid.Height)
	assert.Empty(t, got.Robots)
}

func TestStore_ReplaceThenGetReturnsLatest(t *testing.T) {
	s := NewStore(50)
	s.Replace(SimulationState{Step: 3, Robots: []Robot{{ID: "1"}}})

	got := s.Get()
	assert.Equal(t, 3, got.Step)
	assert.Len(t, got.Robots, 1)
}

func TestStore_ConcurrentAccessDoesNotRace(t *testing.T) {
	s := NewStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(step int) {
			defer wg.Done()
			s.Replace(SimulationState{Step: step})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Get()
		}()
	}
	wg.Wait()
}
