package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	NumFloors          = 22
	NumElevators       = 4
	Host               = "127.0.0.1"
	FloorPort          = 15150
	SchedulerPort      = 15700
	ElevatorBasePort   = 16000
	ElevatorPortStep   = 20
	NetworkTimeout     = 20 * time.Second
	DoorActionDuration = 3 * time.Second
	UnjamDuration      = 3 * time.Second
	BoardingDuration   = 5 * time.Second
	Acceleration       = 0.3  // m/s^2
	TopSpeed           = 2.33 // m/s
	FloorDistance      = 4.0  // m
	TracePacing        = 60   // trace time is divided by this before sleeping
	MaxDatagramSize    = 1024
)

var ErrInvalid = errors.New("invalid configuration")

// Config is fixed at process start and shared read-only by every component.
type Config struct {
	NumFloors          int           `yaml:"floors"`
	NumElevators       int           `yaml:"elevators"`
	Host               string        `yaml:"host"`
	FloorPort          int           `yaml:"floor_port"`
	SchedulerPort      int           `yaml:"scheduler_port"`
	ElevatorBasePort   int           `yaml:"elevator_base_port"`
	ElevatorPortStep   int           `yaml:"elevator_port_step"`
	NetworkTimeout     time.Duration `yaml:"network_timeout"`
	DoorActionDuration time.Duration `yaml:"door_action"`
	UnjamDuration      time.Duration `yaml:"unjam"`
	BoardingDuration   time.Duration `yaml:"boarding"`
	Acceleration       float64       `yaml:"acceleration"`
	TopSpeed           float64       `yaml:"top_speed"`
	FloorDistance      float64       `yaml:"floor_distance"`
	TracePacing        float64       `yaml:"trace_pacing"`
	LogLevel           string        `yaml:"log_level"`
	LogFile            string        `yaml:"log_file"`
}

func Default() Config {
	return Config{
		NumFloors:          NumFloors,
		NumElevators:       NumElevators,
		Host:               Host,
		FloorPort:          FloorPort,
		SchedulerPort:      SchedulerPort,
		ElevatorBasePort:   ElevatorBasePort,
		ElevatorPortStep:   ElevatorPortStep,
		NetworkTimeout:     NetworkTimeout,
		DoorActionDuration: DoorActionDuration,
		UnjamDuration:      UnjamDuration,
		BoardingDuration:   BoardingDuration,
		Acceleration:       Acceleration,
		TopSpeed:           TopSpeed,
		FloorDistance:      FloorDistance,
		TracePacing:        TracePacing,
		LogLevel:           "info",
	}
}

// Load starts from Default, decodes the YAML file at path over it (a missing
// file is not an error), applies environment overrides and validates.
func Load(path, envPath string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
				return cfg, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, envPath); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.NumFloors < 2:
		return fmt.Errorf("%w: need at least 2 floors, got %d", ErrInvalid, c.NumFloors)
	case c.NumElevators < 1:
		return fmt.Errorf("%w: need at least 1 elevator, got %d", ErrInvalid, c.NumElevators)
	case c.NetworkTimeout <= 0:
		return fmt.Errorf("%w: network timeout must be positive", ErrInvalid)
	case c.Acceleration <= 0 || c.TopSpeed <= 0 || c.FloorDistance <= 0:
		return fmt.Errorf("%w: acceleration, top speed and floor distance must be positive", ErrInvalid)
	case c.TracePacing <= 0:
		return fmt.Errorf("%w: trace pacing must be positive", ErrInvalid)
	case c.ElevatorPortStep < 1:
		return fmt.Errorf("%w: elevator port step must be positive", ErrInvalid)
	}
	return nil
}

// ElevatorPort is the port elevator id listens on.
func (c Config) ElevatorPort(id int) int {
	return c.ElevatorBasePort + id*c.ElevatorPortStep
}

// SchedulerElevatorPort is the port the scheduler listens on for elevator id.
func (c Config) SchedulerElevatorPort(id int) int {
	return c.SchedulerPort + 1 + id
}

// ElevatorTimeout is the receive timeout on the elevator and floor side. It
// must stay below NetworkTimeout.
func (c Config) ElevatorTimeout() time.Duration {
	return c.NetworkTimeout / 2
}
