package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"elevsim/src/dispatcher"
	"elevsim/src/display"
	"elevsim/src/network"
	"elevsim/src/types"
)

// Handler serves one elevator: it receives the elevator's reports, consults
// the dispatcher and escalates when the elevator goes quiet.
type Handler struct {
	session *Session
	link    network.Link
	ctrl    *dispatcher.Controller
	display display.Display
	log     *slog.Logger
}

func NewHandler(session *Session, link network.Link, ctrl *dispatcher.Controller, disp display.Display) *Handler {
	return &Handler{
		session: session,
		link:    link,
		ctrl:    ctrl,
		display: disp,
		log:     slog.With("handler", session.ElevatorID),
	}
}

// Run serves the elevator until it is terminated, ctx is cancelled or the
// transport fails.
func (h *Handler) Run(ctx context.Context) error {
	for h.session.State != types.HandlerTerminated {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Step(); err != nil {
			return err
		}
	}
	h.log.Info("Handler stopped", "floor", h.session.TerminationFloor)
	return nil
}

// Step runs one transition of the protocol.
func (h *Handler) Step() error {
	ev, err := h.next()
	if err != nil {
		return err
	}

	next, actions := Transition(*h.session, ev)
	for _, action := range actions {
		if err := h.perform(action, ev.Msg, &next); err != nil {
			return err
		}
	}
	if next.State != h.session.State {
		h.log.Debug("State change", "from", h.session.State, "to", next.State)
	}
	*h.session = next
	return nil
}

func (h *Handler) next() (Event, error) {
	if !receives(h.session.State) {
		return Event{Kind: Proceed}, nil
	}
	result, err := h.link.Receive()
	switch {
	case errors.Is(err, network.ErrProtocol):
		h.log.Warn("Dropped malformed datagram", "err", err)
		return Event{Kind: Invalid}, nil
	case err != nil:
		return Event{}, fmt.Errorf("handler %d receive: %w", h.session.ElevatorID, err)
	case result.TimedOut:
		h.log.Info("Elevator quiet", "state", h.session.State)
		return Event{Kind: TimedOut}, nil
	}
	return Event{Kind: Received, Msg: result.Msg}, nil
}

func (h *Handler) perform(action Action, msg network.Message, next *Session) error {
	id := h.session.ElevatorID
	switch action {
	case AckFloor:
		if err := h.ctrl.AckFloor(id, msg.Floor); err != nil {
			h.log.Warn("Cannot ack floor", "floor", msg.Floor, "err", err)
		}

	case Dispatch:
		return h.dispatch(next, msg.Floor, msg.Direction)

	case Redispatch:
		h.log.Info("Resending destination", "floor", next.Pending.Floor, "fault", next.Pending.Fault)
		return h.link.Send(network.Destination(next.Pending.Floor, next.Pending.Fault))

	case ShowCrossing:
		h.display.DeactivateElevator(id, msg.Floor-msg.Direction.Step())
		h.display.UpdateElevatorPosition(id, msg.Floor)

	case ShowDoorsOpen:
		h.display.DeactivateElevator(id, msg.Floor-msg.Direction.Step())
		h.display.ActivateElevator(id, msg.Floor, msg.Direction)

	case SendAck:
		return h.link.Send(network.Ack())

	case SendStatusRequest:
		h.log.Info("Sending status request")
		return h.link.Send(network.StatusRequest())

	case ShowFault:
		h.log.Warn("Elevator reported fault", "fault", msg.Fault, "floor", msg.Floor)
		h.display.SetElevatorError(id, msg.Floor, msg.Fault)

	case SendUnlock:
		h.log.Info("Sending unlock")
		return h.link.Send(network.Command(network.CommandUnlockDoor))

	case SendTerminate:
		h.log.Warn("Sending terminate", "floor", next.TerminationFloor)
		return h.link.Send(network.Command(network.CommandTerminate))

	case Withdraw:
		h.withdraw(next.TerminationFloor)
	}
	return nil
}

// dispatch answers a request-floor. With no work the elevator gets no reply
// and asks again after its timeout.
func (h *Handler) dispatch(next *Session, current int, dir types.Direction) error {
	id := h.session.ElevatorID
	floor, ok := h.ctrl.NextFloor(id, current, dir)
	if !ok {
		next.Pending = Assignment{}
		h.display.ActivateElevator(id, current, types.DirInactive)
		return nil
	}
	fault := h.ctrl.NextError(id, floor)
	next.Pending = Assignment{From: current, Floor: floor, Fault: fault}
	h.log.Info("Sending destination", "floor", floor, "fault", fault)
	return h.link.Send(network.Destination(floor, fault))
}

// withdraw retires the elevator. Its released floors go back to the other
// elevators; riders still aboard are logged as stranded.
func (h *Handler) withdraw(floor int) {
	id := h.session.ElevatorID
	released := h.ctrl.ProcessError(id)
	snap := h.ctrl.Snapshot()
	for _, f := range released {
		h.log.Info("Floor requeued", "floor", f, "waiting", len(snap.Queue[f-1]))
	}
	if id < len(snap.Destinations) {
		var stranded []int
		for i, aboard := range snap.Destinations[id] {
			if aboard {
				stranded = append(stranded, i+1)
			}
		}
		if len(stranded) > 0 {
			h.log.Warn("Riders stranded", "destinations", stranded)
		}
	}
	h.display.TerminateElevator(id, floor)
}
