package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Simulation is the resolved sim.* block.
type Simulation struct {
	CellSize     float32
	Speed        float32
	TickInterval time.Duration
	Delta        float32
	Workers      int
	BatchSize    int
	MapFile      string
	ScriptBudget time.Duration
}

// ResolveSimulation reads the simulation options from c, applying
// environment overrides and schema defaults. Malformed values are errors
// here even though loading only warns about them.
func ResolveSimulation(c *Config, s *ConfigSchema) (Simulation, error) {
	var (
		sim  Simulation
		errs []error
	)
	float := func(key string) float32 {
		v, err := strconv.ParseFloat(s.Resolve(c, key), 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return float32(v)
	}
	integer := func(key string) int {
		v, err := strconv.Atoi(s.Resolve(c, key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}
	duration := func(key string) time.Duration {
		v, err := time.ParseDuration(s.Resolve(c, key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return v
	}

	sim.CellSize = float("sim.cell-size")
	sim.Speed = float("sim.speed")
	sim.TickInterval = duration("sim.tick-interval")
	sim.Delta = float("sim.delta")
	sim.Workers = integer("sim.workers")
	sim.BatchSize = integer("sim.batch-size")
	sim.MapFile = s.Resolve(c, "map.file")
	sim.ScriptBudget = duration("script.timeout")

	if len(errs) > 0 {
		return Simulation{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if sim.CellSize <= 0 || sim.Speed <= 0 || sim.Delta <= 0 || sim.TickInterval <= 0 {
		return Simulation{}, errors.New("config: simulation sizes and intervals must be positive")
	}
	return sim, nil
}
