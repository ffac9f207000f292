package dispatcher

import (
	"errors"

	"elevsim/src/types"
)

const Unclaimed = -1

var (
	ErrFloorOutOfRange = errors.New("floor out of range")
	ErrUnknownElevator = errors.New("unknown elevator")
	ErrClosed          = errors.New("controller closed")
)

// Tables is the state owned by the controller goroutine. Floors are 1-based;
// index i holds floor i+1.
type Tables struct {
	Queue        [][]types.Request // pickup floor -> requests waiting there
	Valid        []int             // pickup floor -> owning elevator or Unclaimed
	Destinations [][]bool          // elevator -> floor -> must stop to drop off
}

func newTables(numFloors, numElevators int) *Tables {
	t := &Tables{
		Queue:        make([][]types.Request, numFloors),
		Valid:        make([]int, numFloors),
		Destinations: make([][]bool, numElevators),
	}
	for i := range t.Valid {
		t.Valid[i] = Unclaimed
	}
	for e := range t.Destinations {
		t.Destinations[e] = make([]bool, numFloors)
	}
	return t
}

// cmd is executed on the controller goroutine.
type cmd struct {
	exec func(t *Tables)
	done chan struct{}
}
