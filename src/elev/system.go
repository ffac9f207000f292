package elev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"elevsim/src/config"
	"elevsim/src/network"
	"elevsim/src/timer"
)

// DialLinks opens the UDP channel of every elevator towards its scheduler
// handler.
func DialLinks(cfg config.Config) ([]network.Link, error) {
	links := make([]network.Link, 0, cfg.NumElevators)
	for id := range cfg.NumElevators {
		ch, err := network.Dial(cfg.Host, cfg.ElevatorPort(id), cfg.SchedulerElevatorPort(id), cfg.ElevatorTimeout())
		if err != nil {
			for _, l := range links {
				l.Close()
			}
			return nil, fmt.Errorf("elevator %d: %w", id, err)
		}
		links = append(links, ch)
	}
	return links, nil
}

// StartSystem runs one elevator per link, elevator i on links[i], and waits
// for all of them. A terminated elevator does not stop the others; a
// transport failure in any of them is returned.
func StartSystem(ctx context.Context, cfg config.Config, links []network.Link, sleeper timer.Sleeper) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for id, link := range links {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer link.Close()
			if err := NewExecutor(id, link, cfg, sleeper).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Elevator stopped", "elevator", id, "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("elevator %d: %w", id, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
