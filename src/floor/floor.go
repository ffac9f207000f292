package floor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"elevsim/src/network"
	"elevsim/src/timer"
)

// Source replays a trace to the scheduler. Gaps between rows are divided by
// pacing, and each request is resent until the scheduler acks it.
type Source struct {
	link    network.Link
	sleeper timer.Sleeper
	pacing  float64
	log     *slog.Logger
}

func NewSource(link network.Link, sleeper timer.Sleeper, pacing float64) *Source {
	return &Source{link: link, sleeper: sleeper, pacing: pacing, log: slog.With("source", "floor")}
}

func (s *Source) Run(ctx context.Context, rows []Row) error {
	var previous time.Duration
	for i, row := range rows {
		if i == 0 {
			previous = row.At
		}
		if err := s.sleeper.Sleep(ctx, s.delay(row.At-previous)); err != nil {
			return err
		}
		previous = row.At

		msg := network.FloorRequest(row.Stamp, row.Floor, row.Button, row.Dest, row.Fault)
		if err := s.deliver(ctx, msg); err != nil {
			return err
		}
	}
	s.log.Info("Sent all requests", "count", len(rows))
	return nil
}

func (s *Source) delay(gap time.Duration) time.Duration {
	if gap <= 0 {
		return 0
	}
	return time.Duration(float64(gap) / s.pacing)
}

// deliver sends msg until an ack comes back.
func (s *Source) deliver(ctx context.Context, msg network.Message) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Info("Sending request", "msg", msg)
		if err := s.link.Send(msg); err != nil {
			return err
		}

		result, err := s.link.Receive()
		switch {
		case errors.Is(err, network.ErrProtocol):
			s.log.Warn("Dropped malformed reply", "err", err)
		case err != nil:
			return fmt.Errorf("floor receive: %w", err)
		case result.TimedOut:
			s.log.Debug("Timed out, resending")
		case result.Msg.Ack:
			return nil
		}
	}
}
