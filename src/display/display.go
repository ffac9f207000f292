package display

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"elevsim/src/types"
)

// Display is told where elevators are. Calls are fire-and-forget; nothing
// flows back into dispatch.
type Display interface {
	ActivateElevator(id, floor int, dir types.Direction)
	DeactivateElevator(id, floor int)
	UpdateElevatorPosition(id, floor int)
	SetElevatorError(id, floor int, fault types.FaultKind)
	TerminateElevator(id, floor int)
}

type Status int

const (
	Idle Status = iota
	Moving
	DoorsOpen
	Faulted
	OutOfService
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Moving:
		return "moving"
	case DoorsOpen:
		return "doors open"
	case Faulted:
		return "fault"
	case OutOfService:
		return "out of service"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Row is what the board shows for one elevator.
type Row struct {
	Floor     int
	Direction types.Direction
	Status    Status
	Fault     types.FaultKind
}

// Board keeps one row per elevator, logs every change and, when out is set,
// redraws the whole grid to it.
type Board struct {
	mu        sync.Mutex
	numFloors int
	rows      []Row
	out       io.Writer
}

func NewBoard(numFloors, numElevators int, out io.Writer) *Board {
	rows := make([]Row, numElevators)
	for i := range rows {
		rows[i] = Row{Floor: 1, Direction: types.DirInactive}
	}
	return &Board{numFloors: numFloors, rows: rows, out: out}
}

// Row returns a copy of elevator id's row.
func (b *Board) Row(id int) Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id < 0 || id >= len(b.rows) {
		return Row{}
	}
	return b.rows[id]
}

func (b *Board) update(id int, change func(r *Row)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id < 0 || id >= len(b.rows) {
		slog.Warn("Display update for unknown elevator", "elevator", id)
		return
	}
	r := &b.rows[id]
	if r.Status == OutOfService {
		return
	}
	change(r)
	slog.Info("Elevator status", "elevator", id, "floor", r.Floor, "dir", r.Direction, "status", r.Status, "fault", r.Fault)
	if b.out != nil {
		fmt.Fprint(b.out, b.render())
	}
}

func (b *Board) ActivateElevator(id, floor int, dir types.Direction) {
	b.update(id, func(r *Row) {
		r.Floor, r.Direction = floor, dir
		r.Fault = types.NoError
		if dir == types.DirInactive {
			r.Status = Idle
		} else {
			r.Status = DoorsOpen
		}
	})
}

func (b *Board) DeactivateElevator(id, floor int) {
	b.update(id, func(r *Row) {
		if r.Floor == floor && r.Status != Faulted {
			r.Status = Moving
		}
	})
}

func (b *Board) UpdateElevatorPosition(id, floor int) {
	b.update(id, func(r *Row) {
		if floor > r.Floor {
			r.Direction = types.DirUp
		} else if floor < r.Floor {
			r.Direction = types.DirDown
		}
		r.Floor = floor
		r.Status = Moving
		r.Fault = types.NoError
	})
}

func (b *Board) SetElevatorError(id, floor int, fault types.FaultKind) {
	b.update(id, func(r *Row) {
		r.Floor = floor
		r.Status = Faulted
		r.Fault = fault
	})
}

func (b *Board) TerminateElevator(id, floor int) {
	b.update(id, func(r *Row) {
		r.Floor = floor
		r.Direction = types.DirInactive
		r.Status = OutOfService
	})
}

// Render draws the grid: one line per elevator, one cell per floor.
func (b *Board) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.render()
}

func (b *Board) render() string {
	var sb strings.Builder
	for id, r := range b.rows {
		fmt.Fprintf(&sb, "E%-2d |", id)
		for floor := 1; floor <= b.numFloors; floor++ {
			sb.WriteByte(cell(r, floor))
		}
		fmt.Fprintf(&sb, "| %2d %-8v %s", r.Floor, r.Direction, r.Status)
		if r.Fault != types.NoError {
			fmt.Fprintf(&sb, " %v", r.Fault)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cell(r Row, floor int) byte {
	if floor != r.Floor {
		return '.'
	}
	switch r.Status {
	case DoorsOpen:
		return 'O'
	case Faulted:
		return '!'
	case OutOfService:
		return 'X'
	}
	return '#'
}
