package main

import (
	"errors"
	"testing"
	"time"

	"elevsim/src/config"
	"elevsim/src/network"
)

// trackedLink counts Close calls on a pipe end.
type trackedLink struct {
	*network.PipeEnd
	closed *int
}

func (l trackedLink) Close() error {
	*l.closed++
	return l.PipeEnd.Close()
}

func stubDialers(t *testing.T, closed *int, elevErr, floorErr error) {
	t.Helper()
	open := func() network.Link {
		a, _ := network.NewPipe(time.Millisecond)
		return trackedLink{PipeEnd: a, closed: closed}
	}
	origSched, origElev, origFloor := dialScheduler, dialElevators, dialFloor
	t.Cleanup(func() { dialScheduler, dialElevators, dialFloor = origSched, origElev, origFloor })

	dialScheduler = func(cfg config.Config) (network.Link, []network.Link, error) {
		return open(), []network.Link{open(), open()}, nil
	}
	dialElevators = func(cfg config.Config) ([]network.Link, error) {
		if elevErr != nil {
			return nil, elevErr
		}
		return []network.Link{open(), open()}, nil
	}
	dialFloor = func(cfg config.Config) (network.Link, error) {
		if floorErr != nil {
			return nil, floorErr
		}
		return open(), nil
	}
}

func TestDialAllClosesOnElevatorFailure(t *testing.T) {
	closed := 0
	failure := errors.New("port in use")
	stubDialers(t, &closed, failure, nil)

	if _, _, _, _, err := dialAll(config.Default()); !errors.Is(err, failure) {
		t.Fatalf("dialAll returned %v, expected %v", err, failure)
	}
	if closed != 3 {
		t.Errorf("closed %d links, expected the 3 scheduler links", closed)
	}
}

func TestDialAllClosesOnFloorFailure(t *testing.T) {
	closed := 0
	failure := errors.New("port in use")
	stubDialers(t, &closed, nil, failure)

	if _, _, _, _, err := dialAll(config.Default()); !errors.Is(err, failure) {
		t.Fatalf("dialAll returned %v, expected %v", err, failure)
	}
	if closed != 5 {
		t.Errorf("closed %d links, expected the 3 scheduler and 2 elevator links", closed)
	}
}

func TestDialAllKeepsLinksOnSuccess(t *testing.T) {
	closed := 0
	stubDialers(t, &closed, nil, nil)

	schedFloor, floorLink, schedLinks, elevLinks, err := dialAll(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if schedFloor == nil || floorLink == nil || len(schedLinks) != 2 || len(elevLinks) != 2 {
		t.Errorf("dialAll returned %v %v %v %v", schedFloor, floorLink, schedLinks, elevLinks)
	}
	if closed != 0 {
		t.Errorf("closed %d links on success", closed)
	}
}
