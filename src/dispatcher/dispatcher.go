package dispatcher

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"elevsim/src/types"
)

// Controller owns the floor request queue, the claim table and every
// elevator's destination set. All access goes through its goroutine, so each
// exported method is atomic with respect to the others.
type Controller struct {
	cmds         chan cmd
	quit         chan struct{}
	closeOnce    sync.Once
	numFloors    int
	numElevators int
}

func New(numFloors, numElevators int) *Controller {
	c := &Controller{
		cmds:         make(chan cmd),
		quit:         make(chan struct{}),
		numFloors:    numFloors,
		numElevators: numElevators,
	}
	tables := newTables(numFloors, numElevators)
	go func() {
		for {
			select {
			case cmd := <-c.cmds:
				cmd.exec(tables)
				close(cmd.done)
			case <-c.quit:
				return
			}
		}
	}()
	return c
}

// Close stops the controller. Mutations made after Close return ErrClosed;
// queries return zero values.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// do runs exec on the tables. It reports false once the controller is closed.
func (c *Controller) do(exec func(t *Tables)) bool {
	done := make(chan struct{})
	select {
	case c.cmds <- cmd{exec: exec, done: done}:
		<-done
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) validFloor(floor int) bool {
	return floor >= 1 && floor <= c.numFloors
}

func (c *Controller) validElevator(id int) bool {
	return id >= 0 && id < c.numElevators
}

func (c *Controller) AddRequest(pickup, dest int, fault types.FaultKind) error {
	if !c.validFloor(pickup) || !c.validFloor(dest) {
		return fmt.Errorf("%w: request %d -> %d", ErrFloorOutOfRange, pickup, dest)
	}
	queued := c.do(func(t *Tables) {
		t.Queue[pickup-1] = append(t.Queue[pickup-1], types.Request{
			PickupFloor: pickup,
			DestFloor:   dest,
			Fault:       fault,
		})
	})
	if !queued {
		return ErrClosed
	}
	slog.Debug("Request queued", "pickup", pickup, "dest", dest, "fault", fault)
	return nil
}

// AckFloor records that elevator has arrived at floor: its drop-off there is
// done, everyone waiting there boards and the floor's claim is released.
func (c *Controller) AckFloor(elevator, floor int) error {
	if !c.validElevator(elevator) {
		return fmt.Errorf("%w: %d", ErrUnknownElevator, elevator)
	}
	if !c.validFloor(floor) {
		return fmt.Errorf("%w: %d", ErrFloorOutOfRange, floor)
	}
	acked := c.do(func(t *Tables) {
		t.Destinations[elevator][floor-1] = false
		for _, req := range t.Queue[floor-1] {
			t.Destinations[elevator][req.DestFloor-1] = true
		}
		t.Queue[floor-1] = nil
		if t.Valid[floor-1] == elevator {
			t.Valid[floor-1] = Unclaimed
		}
	})
	if !acked {
		return ErrClosed
	}
	slog.Debug("Floor acked", "elevator", elevator, "floor", floor)
	return nil
}

// NextFloor picks the next stop for elevator. Pickups returned are claimed
// for it. ok is false when there is nothing to do in either direction.
func (c *Controller) NextFloor(elevator, currentFloor int, dir types.Direction) (floor int, ok bool) {
	if !c.validElevator(elevator) || !c.validFloor(currentFloor) {
		return 0, false
	}
	if dir != types.DirDown {
		dir = types.DirUp
	}
	c.do(func(t *Tables) {
		floor, ok = t.nextFloor(elevator, currentFloor, dir)
	})
	if ok {
		slog.Debug("Next floor", "elevator", elevator, "from", currentFloor, "dir", dir, "floor", floor)
	}
	return floor, ok
}

// NextError is the dominant fault queued at floor, provided elevator holds
// the claim on it.
func (c *Controller) NextError(elevator, floor int) types.FaultKind {
	fault := types.NoError
	if !c.validElevator(elevator) || !c.validFloor(floor) {
		return fault
	}
	c.do(func(t *Tables) {
		if t.Valid[floor-1] != elevator {
			return
		}
		for _, req := range t.Queue[floor-1] {
			if req.Fault.Dominates(fault) {
				fault = req.Fault
			}
		}
	})
	return fault
}

// ProcessError withdraws elevator from service: every claim it holds is
// released and the faults queued on those floors are cleared. It returns the
// released floors and is safe to repeat.
func (c *Controller) ProcessError(elevator int) []int {
	var released []int
	c.do(func(t *Tables) {
		for i, owner := range t.Valid {
			if owner != elevator {
				continue
			}
			t.Valid[i] = Unclaimed
			for j := range t.Queue[i] {
				t.Queue[i][j].Fault = types.NoError
			}
			released = append(released, i+1)
		}
	})
	slog.Info("Elevator withdrawn", "elevator", elevator, "released", released)
	return released
}

// Snapshot returns a deep copy of the tables.
func (c *Controller) Snapshot() Tables {
	var out Tables
	c.do(func(t *Tables) {
		if err := deepcopy.Copy(&out, t); err != nil {
			panic(err)
		}
	})
	return out
}
