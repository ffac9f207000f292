package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "ELEVSIM_"

// applyEnv loads envPath (if present) into the process environment and then
// overrides host, ports and counts from ELEVSIM_* variables. Variables already
// set in the environment win over the file.
func applyEnv(cfg *Config, envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if host, ok := os.LookupEnv(envPrefix + "HOST"); ok {
		cfg.Host = host
	}

	ints := map[string]*int{
		"FLOORS":             &cfg.NumFloors,
		"ELEVATORS":          &cfg.NumElevators,
		"FLOOR_PORT":         &cfg.FloorPort,
		"SCHEDULER_PORT":     &cfg.SchedulerPort,
		"ELEVATOR_BASE_PORT": &cfg.ElevatorBasePort,
	}
	for key, field := range ints {
		raw, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, envPrefix, key, raw)
		}
		*field = value
	}
	return nil
}
