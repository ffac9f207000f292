package elev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xyproto/randomstring"

	"elevsim/src/config"
	"elevsim/src/network"
	"elevsim/src/timer"
	"elevsim/src/types"
)

const sessionIDLength = 6

// Executor runs one elevator's control loop over its link to the scheduler.
// It performs the I/O and holds of each state and feeds the outcome to
// Transition.
type Executor struct {
	link    network.Link
	cfg     config.Config
	sleeper timer.Sleeper
	profile Profile
	log     *slog.Logger

	// OnTransition, when set, is called on the executor goroutine after every
	// state change.
	OnTransition func(from, to Elevator)

	mu    sync.Mutex
	state Elevator
}

func NewExecutor(id int, link network.Link, cfg config.Config, sleeper timer.Sleeper) *Executor {
	return &Executor{
		link:    link,
		cfg:     cfg,
		sleeper: sleeper,
		profile: Profile{
			Acceleration:  cfg.Acceleration,
			TopSpeed:      cfg.TopSpeed,
			FloorDistance: cfg.FloorDistance,
		},
		log:   slog.With("elevator", id, "session", randomstring.EnglishFrequencyString(sessionIDLength)),
		state: NewElevator(id),
	}
}

// Status returns a copy of the current runtime state.
func (x *Executor) Status() Elevator {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *Executor) setState(next Elevator) {
	x.mu.Lock()
	prev := x.state
	x.state = next
	x.mu.Unlock()

	if prev.State != next.State {
		x.log.Debug("State change", "from", prev.State, "to", next.State, "floor", next.CurrentFloor)
	}
	if x.OnTransition != nil {
		x.OnTransition(prev, next)
	}
}

// Run drives the elevator until it is terminated, ctx is cancelled or the
// transport fails.
func (x *Executor) Run(ctx context.Context) error {
	x.log.Info("Elevator started", "floor", x.Status().CurrentFloor)
	for {
		current := x.Status()
		if current.State == types.Terminated {
			x.log.Info("Elevator terminated", "floor", current.CurrentFloor)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, err := x.perform(ctx, current)
		if err != nil {
			return err
		}

		current = x.Status()
		next, effect := Transition(current, ev)
		if err := x.apply(ctx, next, effect); err != nil {
			return err
		}
		x.setState(next)
	}
}

func (x *Executor) apply(ctx context.Context, next Elevator, effect Effect) error {
	switch effect {
	case ReportFault:
		x.log.Warn("Reporting fault", "fault", next.Fault, "floor", next.CurrentFloor)
		return x.link.Send(network.FaultReport(next.CurrentFloor, next.Fault))
	case Unjam:
		x.log.Info("Unjamming doors")
		return x.sleeper.Sleep(ctx, x.cfg.UnjamDuration)
	}
	return nil
}

// perform carries out the work of e's state and reports how it ended.
func (x *Executor) perform(ctx context.Context, e Elevator) (Event, error) {
	switch e.State {
	case types.SendAck:
		return x.requestFloor(e)

	case types.DoorClose:
		x.log.Debug("Closing doors")
		return Event{Kind: Done}, x.sleeper.Sleep(ctx, x.cfg.DoorActionDuration)

	case types.Move:
		return x.move(ctx, e)

	case types.DoorOpen:
		x.log.Debug("Opening doors", "floor", e.CurrentFloor)
		if err := x.sleeper.Sleep(ctx, x.cfg.DoorActionDuration); err != nil {
			return Event{}, err
		}
		return Event{Kind: Done}, x.exchange(ctx, network.OpenDoor(e.CurrentFloor, e.Direction))

	case types.WaitBoarding:
		x.log.Debug("Waiting for passengers to board")
		return Event{Kind: Done}, x.sleeper.Sleep(ctx, x.cfg.BoardingDuration)

	case types.DoorJamState, types.StuckFloorState, types.WaitCommand:
		return x.awaitScheduler()
	}
	return Event{}, fmt.Errorf("elevator %d in unknown state %v", e.ID, e.State)
}

// requestFloor reports position and direction and waits for a destination.
func (x *Executor) requestFloor(e Elevator) (Event, error) {
	if err := x.link.Send(network.RequestFloor(e.CurrentFloor, e.Direction)); err != nil {
		return Event{}, err
	}
	result, err := x.receive()
	if err != nil || result.TimedOut {
		return Event{Kind: TimedOut}, err
	}

	msg := result.Msg
	if err := msg.Require(network.KeyDestinationFloor, network.KeyError); err != nil {
		x.log.Debug("Ignoring reply without destination", "msg", msg)
		return Event{Kind: Invalid}, nil
	}
	if msg.DestinationFloor < 1 || msg.DestinationFloor > x.cfg.NumFloors {
		x.log.Warn("Ignoring destination out of range", "floor", msg.DestinationFloor)
		return Event{Kind: Invalid}, nil
	}
	x.log.Info("Got destination", "floor", msg.DestinationFloor, "fault", msg.Fault)
	return Event{Kind: Reply, Msg: msg}, nil
}

// move travels to the destination, reporting every floor crossed on the way.
func (x *Executor) move(ctx context.Context, e Elevator) (Event, error) {
	legs := x.profile.Legs(e.DestinationFloor - e.CurrentFloor)
	x.log.Info("Moving", "from", e.CurrentFloor, "to", e.DestinationFloor, "dir", e.Direction)

	for i, leg := range legs {
		if err := x.sleeper.Sleep(ctx, leg); err != nil {
			return Event{}, err
		}
		if i == len(legs)-1 {
			break
		}
		crossed, _ := Transition(x.Status(), Event{Kind: Crossed})
		x.setState(crossed)
		if err := x.exchange(ctx, network.UpdateFloor(crossed.CurrentFloor, crossed.Direction)); err != nil {
			return Event{}, err
		}
	}
	return Event{Kind: Done}, nil
}

// exchange sends msg until any reply arrives.
func (x *Executor) exchange(ctx context.Context, msg network.Message) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := x.link.Send(msg); err != nil {
			return err
		}
		result, err := x.receive()
		if err != nil {
			return err
		}
		if !result.TimedOut {
			return nil
		}
		x.log.Debug("Timed out, resending", "topic", msg.Topic)
	}
}

// awaitScheduler blocks for a status request or command.
func (x *Executor) awaitScheduler() (Event, error) {
	result, err := x.receive()
	if err != nil || result.TimedOut {
		return Event{Kind: TimedOut}, err
	}
	switch result.Msg.Topic {
	case network.TopicStatusRequest:
		return Event{Kind: StatusRequest, Msg: result.Msg}, nil
	case network.TopicCommand:
		x.log.Info("Got command", "command", result.Msg.Command)
		return Event{Kind: CommandArrived, Msg: result.Msg}, nil
	}
	return Event{Kind: Invalid, Msg: result.Msg}, nil
}

// receive turns a protocol error into a timeout so the current exchange is
// retried; every other error is fatal.
func (x *Executor) receive() (network.Result, error) {
	result, err := x.link.Receive()
	if errors.Is(err, network.ErrProtocol) {
		x.log.Warn("Dropped malformed datagram", "err", err)
		return network.TimedOut(), nil
	}
	if err != nil {
		return network.Result{}, fmt.Errorf("elevator receive: %w", err)
	}
	return result, nil
}
