package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"elevsim/src/dispatcher"
	"elevsim/src/network"
)

// Ingress receives floor requests, acknowledges each one and queues it.
type Ingress struct {
	link network.Link
	ctrl *dispatcher.Controller
	log  *slog.Logger
}

func NewIngress(link network.Link, ctrl *dispatcher.Controller) *Ingress {
	return &Ingress{link: link, ctrl: ctrl, log: slog.With("ingress", "floor")}
}

// Run listens until ctx is cancelled or the transport fails.
func (in *Ingress) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := in.Step(); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Step handles at most one datagram. Every datagram is acked, even one that
// is rejected, so the sender moves on.
func (in *Ingress) Step() error {
	result, err := in.link.Receive()
	switch {
	case errors.Is(err, network.ErrProtocol):
		in.log.Warn("Dropped malformed request", "err", err)
		return in.link.Send(network.Ack())
	case err != nil:
		return fmt.Errorf("ingress receive: %w", err)
	case result.TimedOut:
		return nil
	}

	if err := in.link.Send(network.Ack()); err != nil {
		return err
	}

	msg := result.Msg
	if err := msg.Require(network.KeyFloor, network.KeyDestinationFloor, network.KeyError); err != nil {
		in.log.Warn("Dropped incomplete request", "msg", msg, "err", err)
		return nil
	}
	if err := in.ctrl.AddRequest(msg.Floor, msg.DestinationFloor, msg.Fault); err != nil {
		in.log.Warn("Dropped request", "msg", msg, "err", err)
		return nil
	}
	in.log.Info("Request queued", "time", msg.Time, "pickup", msg.Floor, "dest", msg.DestinationFloor, "fault", msg.Fault)
	return nil
}
