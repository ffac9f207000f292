package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"elevsim/src/config"
	"elevsim/src/dispatcher"
	"elevsim/src/display"
	"elevsim/src/network"
)

// Scheduler owns the dispatch controller and one session per elevator.
type Scheduler struct {
	cfg      config.Config
	ctrl     *dispatcher.Controller
	display  display.Display
	sessions map[int]*Session
}

func New(cfg config.Config, disp display.Display) *Scheduler {
	sessions := make(map[int]*Session, cfg.NumElevators)
	for id := range cfg.NumElevators {
		sessions[id] = NewSession(id)
	}
	return &Scheduler{
		cfg:      cfg,
		ctrl:     dispatcher.New(cfg.NumFloors, cfg.NumElevators),
		display:  disp,
		sessions: sessions,
	}
}

func (s *Scheduler) Controller() *dispatcher.Controller {
	return s.ctrl
}

// DialLinks opens the scheduler's UDP channel to the floor source and one per
// elevator.
func DialLinks(cfg config.Config) (network.Link, []network.Link, error) {
	floorLink, err := network.Dial(cfg.Host, cfg.SchedulerPort, cfg.FloorPort, cfg.NetworkTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("floor link: %w", err)
	}
	links := make([]network.Link, 0, cfg.NumElevators)
	for id := range cfg.NumElevators {
		ch, err := network.Dial(cfg.Host, cfg.SchedulerElevatorPort(id), cfg.ElevatorPort(id), cfg.NetworkTimeout)
		if err != nil {
			floorLink.Close()
			for _, l := range links {
				l.Close()
			}
			return nil, nil, fmt.Errorf("elevator %d link: %w", id, err)
		}
		links = append(links, ch)
	}
	return floorLink, links, nil
}

// Start runs the floor ingress and one handler per elevator link, handler i
// serving elevator i. It returns once every elevator is out of service, ctx
// is cancelled or a transport fails. The controller is closed on return.
func (s *Scheduler) Start(ctx context.Context, floorLink network.Link, elevatorLinks []network.Link) error {
	defer s.ctrl.Close()
	if len(elevatorLinks) != len(s.sessions) {
		return fmt.Errorf("%w: %d elevator links for %d elevators", config.ErrInvalid, len(elevatorLinks), len(s.sessions))
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancel()
	}

	ingressDone := make(chan struct{})
	go func() {
		defer close(ingressDone)
		defer floorLink.Close()
		fail(NewIngress(floorLink, s.ctrl).Run(ctx))
	}()

	var wg sync.WaitGroup
	for id, link := range elevatorLinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer link.Close()
			fail(NewHandler(s.sessions[id], link, s.ctrl, s.display).Run(ctx))
		}()
	}
	slog.Info("Scheduler started", "elevators", len(elevatorLinks), "floors", s.cfg.NumFloors)

	wg.Wait()
	if ctx.Err() == nil {
		slog.Warn("Every elevator is out of service")
	}
	cancel()
	<-ingressDone
	return errors.Join(errs...)
}
