package scheduler

import (
	"elevsim/src/network"
	"elevsim/src/types"
)

// Session is the scheduler's view of one elevator. Each is owned by the
// handler serving that elevator.
type Session struct {
	ElevatorID       int
	State            types.SchedulerState
	TerminationFloor int
	Pending          Assignment
}

// Assignment is the destination last sent to an elevator and the floor it
// asked from. It stands until the elevator reports a crossing or opens its
// doors. Floor 0 means none.
type Assignment struct {
	From  int
	Floor int
	Fault types.FaultKind
}

func NewSession(id int) *Session {
	return &Session{ElevatorID: id, State: types.Wait}
}

type EventKind int

const (
	Proceed  EventKind = iota // a sending state runs without waiting
	Received                  // a datagram arrived from the elevator
	TimedOut                  // nothing arrived within the timeout
	Invalid                   // a datagram arrived but could not be decoded
)

type Event struct {
	Kind EventKind
	Msg  network.Message
}

// Action is a side effect the handler carries out, in order, for a transition.
type Action int

const (
	AckFloor          Action = iota // release the floor the elevator reported from
	Dispatch                        // reply with the next floor, or show the elevator idle
	Redispatch                      // repeat the pending destination
	ShowCrossing                    // move the elevator on the display
	ShowDoorsOpen                   // open the doors on the display
	SendAck                         // plain ack
	SendStatusRequest               // ask the elevator for a fault report
	ShowFault                       // mark the reported fault on the display
	SendUnlock                      // unlock-door command
	SendTerminate                   // terminate command
	Withdraw                        // release the elevator's claims and retire it
)

// receives reports whether state waits on the elevator.
func receives(state types.SchedulerState) bool {
	switch state {
	case types.Wait, types.Receive, types.ListenForStatusReply:
		return true
	}
	return false
}

// Transition is the per-elevator protocol. It never touches the transport or
// the dispatcher; it names the actions for the handler to perform.
func Transition(s Session, ev Event) (Session, []Action) {
	switch s.State {
	case types.Wait, types.Receive:
		switch ev.Kind {
		case TimedOut:
			s.State = types.SendStatusRequest
			return s, nil
		case Received:
			return serve(s, ev.Msg)
		}

	case types.SendStatusRequest:
		s.State = types.ListenForStatusReply
		return s, []Action{SendStatusRequest}

	case types.ListenForStatusReply:
		switch ev.Kind {
		case TimedOut:
			s.State = types.SendStatusRequest
		case Received:
			switch ev.Msg.Fault {
			case types.DoorJam:
				s.State = types.SendUnlockDoors
				return s, []Action{ShowFault}
			case types.StuckFloor:
				s.State = types.SendTerminate
				s.TerminationFloor = ev.Msg.Floor
				return s, []Action{ShowFault}
			default:
				s.State = types.Receive
			}
		}

	case types.SendUnlockDoors:
		s.State = types.Receive
		return s, []Action{SendUnlock}

	case types.SendTerminate:
		s.State = types.HandlerTerminated
		return s, []Action{SendTerminate, Withdraw}
	}
	return s, nil
}

// serve handles a report from an elevator in normal operation.
func serve(s Session, msg network.Message) (Session, []Action) {
	switch msg.Topic {
	case network.TopicUpdateFloor:
		s.Pending = Assignment{}
		return s, []Action{ShowCrossing, SendAck}
	case network.TopicOpenDoor:
		s.Pending = Assignment{}
		return s, []Action{ShowDoorsOpen, SendAck}
	case network.TopicRequestFloor:
		// The elevator has not moved since the last destination, so that
		// reply was lost. Its pickup is still claimed for this elevator.
		if s.Pending.Floor != 0 && s.Pending.From == msg.Floor {
			s.State = types.Receive
			return s, []Action{Redispatch}
		}
		actions := []Action{Dispatch}
		if s.State == types.Receive {
			actions = []Action{AckFloor, Dispatch}
		}
		s.State = types.Receive
		return s, actions
	}
	return s, nil
}
