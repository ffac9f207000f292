package elev

import (
	"elevsim/src/network"
	"elevsim/src/types"
)

// Elevator is the runtime state of one car. It is owned by its executor and
// copied, never shared, when reported.
type Elevator struct {
	ID               int
	CurrentFloor     int
	DestinationFloor int
	Direction        types.Direction
	Fault            types.FaultKind
	State            types.ElevatorState
}

// NewElevator parks a car at floor 1 heading up, ready to ask for work.
func NewElevator(id int) Elevator {
	return Elevator{
		ID:           id,
		CurrentFloor: 1,
		Direction:    types.DirUp,
		Fault:        types.NoError,
		State:        types.SendAck,
	}
}

type EventKind int

const (
	Done           EventKind = iota // the state's hold or exchange completed
	Reply                           // destination reply to a request-floor
	TimedOut                        // receive timed out
	Crossed                         // passed a floor while moving
	StatusRequest                   // scheduler asked for a fault report
	CommandArrived                  // scheduler sent a command
	Invalid                         // unusable datagram
)

type Event struct {
	Kind EventKind
	Msg  network.Message
}

// Effect is work the executor does on top of entering the next state.
type Effect int

const (
	NoEffect    Effect = iota
	ReportFault        // send the error-type report for the current fault
	Unjam              // hold for the unjam duration
)

// Transition is the elevator state machine. Events that do not apply to the
// current state leave it unchanged.
func Transition(e Elevator, ev Event) (Elevator, Effect) {
	switch e.State {
	case types.SendAck:
		if ev.Kind != Reply {
			return e, NoEffect
		}
		e.DestinationFloor = ev.Msg.DestinationFloor
		e.Fault = ev.Msg.Fault
		if e.Fault == types.DoorJam {
			e.State = types.DoorJamState
		} else {
			e.State = types.DoorClose
		}

	case types.DoorClose:
		if ev.Kind != Done {
			return e, NoEffect
		}
		if e.Fault == types.StuckFloor {
			e.State = types.StuckFloorState
			return e, NoEffect
		}
		switch {
		case e.DestinationFloor > e.CurrentFloor:
			e.Direction = types.DirUp
		case e.DestinationFloor < e.CurrentFloor:
			e.Direction = types.DirDown
		}
		e.State = types.Move

	case types.Move:
		switch ev.Kind {
		case Crossed:
			e.CurrentFloor += e.Direction.Step()
		case Done:
			e.CurrentFloor = e.DestinationFloor
			e.State = types.DoorOpen
		}

	case types.DoorOpen:
		if ev.Kind == Done {
			e.State = types.WaitBoarding
		}

	case types.WaitBoarding:
		if ev.Kind == Done {
			e.State = types.SendAck
		}

	case types.DoorJamState, types.StuckFloorState:
		if ev.Kind == StatusRequest {
			e.State = types.WaitCommand
			return e, ReportFault
		}

	case types.WaitCommand:
		switch ev.Kind {
		case StatusRequest:
			return e, ReportFault
		case CommandArrived:
			switch ev.Msg.Command {
			case network.CommandUnlockDoor:
				e.Fault = types.NoError
				e.State = types.DoorClose
				return e, Unjam
			case network.CommandTerminate:
				e.State = types.Terminated
			}
		}
	}
	return e, NoEffect
}
