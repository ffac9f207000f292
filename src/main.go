package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"elevsim/src/config"
	"elevsim/src/display"
	"elevsim/src/elev"
	"elevsim/src/floor"
	"elevsim/src/network"
	"elevsim/src/scheduler"
	"elevsim/src/timer"
	"elevsim/src/utils"
)

func main() {
	role := flag.String("role", "all", "Which part to run: all, scheduler, elevators or floor")
	configPath := flag.String("config", "config.yaml", "YAML configuration file")
	envPath := flag.String("env", ".env", "Environment overrides file")
	tracePath := flag.String("trace", "data/trace.txt", "Request trace replayed by the floor source")
	logPath := flag.String("log", "", "Also write logs to this file")
	transport := flag.String("transport", "udp", "Link transport for -role all: udp or pipe")
	board := flag.Bool("board", false, "Draw the status board to stdout on every change")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logPath == "" {
		*logPath = cfg.LogFile
	}
	logFile, err := utils.InitLogger(cfg.LogLevel, *logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var boardOut io.Writer
	if *board {
		boardOut = os.Stdout
	}

	slog.Info("Starting", "role", *role, "floors", cfg.NumFloors, "elevators", cfg.NumElevators)
	switch *role {
	case "all":
		err = runAll(ctx, cfg, *tracePath, *transport, boardOut)
	case "scheduler":
		err = runScheduler(ctx, cfg, boardOut)
	case "elevators":
		err = runElevators(ctx, cfg)
	case "floor":
		err = runFloor(ctx, cfg, *tracePath)
	default:
		err = fmt.Errorf("unknown role %q", *role)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Stopped", "err", err)
		logFile.Close()
		os.Exit(1)
	}
	slog.Info("Stopped")
}

func runScheduler(ctx context.Context, cfg config.Config, boardOut io.Writer) error {
	floorLink, elevatorLinks, err := scheduler.DialLinks(cfg)
	if err != nil {
		return err
	}
	sched := scheduler.New(cfg, display.NewBoard(cfg.NumFloors, cfg.NumElevators, boardOut))
	return sched.Start(ctx, floorLink, elevatorLinks)
}

func runElevators(ctx context.Context, cfg config.Config) error {
	links, err := elev.DialLinks(cfg)
	if err != nil {
		return err
	}
	return elev.StartSystem(ctx, cfg, links, timer.Real{})
}

func runFloor(ctx context.Context, cfg config.Config, tracePath string) error {
	rows, err := floor.LoadTrace(tracePath)
	if err != nil {
		return err
	}
	link, err := dialFloor(cfg)
	if err != nil {
		return err
	}
	defer link.Close()
	return floor.NewSource(link, timer.Real{}, cfg.TracePacing).Run(ctx, rows)
}

// runAll runs every role in this process, over UDP or in-memory pipes.
func runAll(ctx context.Context, cfg config.Config, tracePath, transport string, boardOut io.Writer) error {
	rows, err := floor.LoadTrace(tracePath)
	if err != nil {
		return err
	}

	var (
		schedFloor, floorLink network.Link
		schedLinks, elevLinks []network.Link
	)
	switch transport {
	case "udp":
		if schedFloor, floorLink, schedLinks, elevLinks, err = dialAll(cfg); err != nil {
			return err
		}
	case "pipe":
		schedFloor, floorLink = network.NewPipeWithTimeouts(cfg.NetworkTimeout, cfg.ElevatorTimeout())
		for range cfg.NumElevators {
			s, e := network.NewPipeWithTimeouts(cfg.NetworkTimeout, cfg.ElevatorTimeout())
			schedLinks = append(schedLinks, s)
			elevLinks = append(elevLinks, e)
		}
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
	defer floorLink.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, display.NewBoard(cfg.NumFloors, cfg.NumElevators, boardOut))
	errs := make([]error, 3)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		errs[0] = sched.Start(ctx, schedFloor, schedLinks)
		cancel()
	}()
	go func() {
		defer wg.Done()
		errs[1] = elev.StartSystem(ctx, cfg, elevLinks, timer.Real{})
	}()
	go func() {
		defer wg.Done()
		if errs[2] = floor.NewSource(floorLink, timer.Real{}, cfg.TracePacing).Run(ctx, rows); errs[2] != nil {
			cancel()
		}
	}()
	wg.Wait()
	for i, err := range errs {
		if errors.Is(err, context.Canceled) {
			errs[i] = nil
		}
	}
	return errors.Join(errs...)
}

var (
	dialScheduler = scheduler.DialLinks
	dialElevators = elev.DialLinks
	dialFloor     = func(cfg config.Config) (network.Link, error) {
		return network.Dial(cfg.Host, cfg.FloorPort, cfg.SchedulerPort, cfg.ElevatorTimeout())
	}
)

// dialAll opens every UDP link of an all-in-one run. On failure nothing is
// left open.
func dialAll(cfg config.Config) (schedFloor, floorLink network.Link, schedLinks, elevLinks []network.Link, err error) {
	if schedFloor, schedLinks, err = dialScheduler(cfg); err != nil {
		return nil, nil, nil, nil, err
	}
	if elevLinks, err = dialElevators(cfg); err != nil {
		closeLinks(append(schedLinks, schedFloor))
		return nil, nil, nil, nil, err
	}
	if floorLink, err = dialFloor(cfg); err != nil {
		closeLinks(append(schedLinks, schedFloor))
		closeLinks(elevLinks)
		return nil, nil, nil, nil, err
	}
	return schedFloor, floorLink, schedLinks, elevLinks, nil
}

func closeLinks(links []network.Link) {
	for _, l := range links {
		l.Close()
	}
}
