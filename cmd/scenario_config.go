package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioConfig parameterizes the built-in machine-shop scenario. All
// durations are in virtual time units.
type ScenarioConfig struct {
	Machines      int     `yaml:"machines"`       // number of widget machines
	Repairers     int     `yaml:"repairers"`      // repair crew capacity (preemptive)
	PartTime      float64 `yaml:"part_time"`      // mean machining time per part
	BreakInterval float64 `yaml:"break_interval"` // mean time between machine failures
	RepairTime    float64 `yaml:"repair_time"`    // time to repair a broken machine
	JobTime       float64 `yaml:"job_time"`       // length of a low-priority side job
	JobInterval   float64 `yaml:"job_interval"`   // mean time between side jobs

	FuelCapacity  float64 `yaml:"fuel_capacity"`  // fuel tank capacity
	InitialFuel   float64 `yaml:"initial_fuel"`   // fuel level at start
	FuelPerPart   float64 `yaml:"fuel_per_part"`  // fuel drawn per machined part
	TankerTrigger float64 `yaml:"tanker_trigger"` // level at or below which a tanker is called
	TankerDelay   float64 `yaml:"tanker_delay"`   // tanker travel time
	TankerAmount  float64 `yaml:"tanker_amount"`  // fuel delivered per tanker run
	TankerPeriod  float64 `yaml:"tanker_period"`  // how often the depot checks the level

	BinCapacity int `yaml:"bin_capacity"` // finished-parts bin capacity
	ShipBatch   int `yaml:"ship_batch"`   // parts collected per shipment

	SamplePeriod float64 `yaml:"sample_period"` // gauge sampling period
}

// DefaultScenarioConfig returns a configuration that keeps every primitive
// busy over a few thousand time units.
func DefaultScenarioConfig() *ScenarioConfig {
	return &ScenarioConfig{
		Machines:      4,
		Repairers:     1,
		PartTime:      10,
		BreakInterval: 120,
		RepairTime:    25,
		JobTime:       20,
		JobInterval:   90,
		FuelCapacity:  200,
		InitialFuel:   200,
		FuelPerPart:   5,
		TankerTrigger: 60,
		TankerDelay:   40,
		TankerAmount:  140,
		TankerPeriod:  15,
		BinCapacity:   30,
		ShipBatch:     8,
		SamplePeriod:  25,
	}
}

// LoadScenarioConfig reads a YAML scenario file, filling unset fields from
// the defaults.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	cfg := DefaultScenarioConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the scenario cannot run with.
func (c *ScenarioConfig) Validate() error {
	switch {
	case c.Machines <= 0:
		return fmt.Errorf("machines must be positive, got %d", c.Machines)
	case c.Repairers <= 0:
		return fmt.Errorf("repairers must be positive, got %d", c.Repairers)
	case c.FuelPerPart <= 0 || c.FuelPerPart > c.FuelCapacity:
		return fmt.Errorf("fuel_per_part must be in (0, %v], got %v", c.FuelCapacity, c.FuelPerPart)
	case c.InitialFuel < 0 || c.InitialFuel > c.FuelCapacity:
		return fmt.Errorf("initial_fuel must be in [0, %v], got %v", c.FuelCapacity, c.InitialFuel)
	case c.TankerAmount <= 0 || c.TankerAmount > c.FuelCapacity:
		return fmt.Errorf("tanker_amount must be in (0, %v], got %v", c.FuelCapacity, c.TankerAmount)
	case c.ShipBatch <= 0 || c.ShipBatch > c.BinCapacity:
		return fmt.Errorf("ship_batch must be in (0, %d], got %d", c.BinCapacity, c.ShipBatch)
	case c.SamplePeriod <= 0:
		return fmt.Errorf("sample_period must be positive, got %v", c.SamplePeriod)
	}
	return nil
}
