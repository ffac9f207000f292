package types

import "fmt"

// Direction is the travel direction reported by an elevator. It doubles as the
// floor button of an ingress request.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirInactive
)

var directionNames = map[Direction]string{
	DirUp:       "UP",
	DirDown:     "DOWN",
	DirInactive: "INACTIVE",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Opposite returns the reverse scan direction. Inactive has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	}
	return d
}

// Step is the floor increment when moving in d.
func (d Direction) Step() int {
	switch d {
	case DirUp:
		return 1
	case DirDown:
		return -1
	}
	return 0
}

func ParseDirection(s string) (Direction, error) {
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return DirInactive, fmt.Errorf("unknown direction %q", s)
}

// FaultKind is a fault injected through a request and carried to the elevator
// that picks the request up.
type FaultKind int

const (
	NoError FaultKind = iota
	DoorJam
	StuckFloor
)

var faultNames = map[FaultKind]string{
	NoError:    "NO_ERROR",
	DoorJam:    "DOOR_JAM",
	StuckFloor: "STUCK_FLOOR",
}

func (f FaultKind) String() string {
	if name, ok := faultNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FaultKind(%d)", int(f))
}

// Dominates reports whether f takes precedence over other when several faults
// are pending at the same floor: STUCK_FLOOR > DOOR_JAM > NO_ERROR.
func (f FaultKind) Dominates(other FaultKind) bool {
	return f > other
}

func ParseFaultKind(s string) (FaultKind, error) {
	for f, name := range faultNames {
		if name == s {
			return f, nil
		}
	}
	return NoError, fmt.Errorf("unknown fault kind %q", s)
}

// Request is a passenger waiting at PickupFloor to travel to DestFloor.
type Request struct {
	PickupFloor int
	DestFloor   int
	Fault       FaultKind
}

// ElevatorState is a phase of an elevator's control loop.
type ElevatorState int

const (
	SendAck ElevatorState = iota
	DoorClose
	Move
	DoorOpen
	WaitBoarding
	DoorJamState
	StuckFloorState
	WaitCommand
	Terminated
)

var elevatorStateNames = [...]string{
	SendAck:         "SEND_ACK",
	DoorClose:       "DOOR_CLOSE",
	Move:            "MOVE",
	DoorOpen:        "DOOR_OPEN",
	WaitBoarding:    "WAIT_BOARDING",
	DoorJamState:    "DOOR_JAM",
	StuckFloorState: "STUCK_FLOOR",
	WaitCommand:     "WAIT_COMMAND",
	Terminated:      "TERMINATED",
}

func (s ElevatorState) String() string {
	if s >= 0 && int(s) < len(elevatorStateNames) {
		return elevatorStateNames[s]
	}
	return fmt.Sprintf("ElevatorState(%d)", int(s))
}

// SchedulerState is a phase of the scheduler's handler for one elevator.
type SchedulerState int

const (
	Wait SchedulerState = iota
	Receive
	SendStatusRequest
	ListenForStatusReply
	SendUnlockDoors
	SendTerminate
	HandlerTerminated
)

var schedulerStateNames = [...]string{
	Wait:                 "WAIT",
	Receive:              "RECEIVE",
	SendStatusRequest:    "SEND_STATUS_REQ",
	ListenForStatusReply: "LISTEN_FOR_STATUS_REPLY",
	SendUnlockDoors:      "SEND_UNLOCK_DOORS",
	SendTerminate:        "SEND_TERMINATE",
	HandlerTerminated:    "TERMINATED",
}

func (s SchedulerState) String() string {
	if s >= 0 && int(s) < len(schedulerStateNames) {
		return schedulerStateNames[s]
	}
	return fmt.Sprintf("SchedulerState(%d)", int(s))
}
