package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScenarioConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultScenarioConfig().Validate())
}

func TestLoadScenarioConfig_PartialFileKeepsDefaults(t *testing.T) {
	// GIVEN a config file overriding only two fields
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("machines: 2\nrepair_time: 50\n"), 0o644))

	// WHEN loading it
	cfg, err := LoadScenarioConfig(path)
	require.NoError(t, err)

	// THEN overridden fields apply and the rest fall back to defaults
	assert.Equal(t, 2, cfg.Machines)
	assert.Equal(t, 50.0, cfg.RepairTime)
	assert.Equal(t, DefaultScenarioConfig().FuelCapacity, cfg.FuelCapacity)
	assert.Equal(t, DefaultScenarioConfig().ShipBatch, cfg.ShipBatch)
}

func TestLoadScenarioConfig_MissingFile(t *testing.T) {
	_, err := LoadScenarioConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadScenarioConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("machines: [not a number"), 0o644))

	_, err := LoadScenarioConfig(path)
	assert.Error(t, err)
}

func TestScenarioConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScenarioConfig)
		wantErr string
	}{
		{"no machines", func(c *ScenarioConfig) { c.Machines = 0 }, "machines"},
		{"no repairers", func(c *ScenarioConfig) { c.Repairers = -1 }, "repairers"},
		{"zero fuel per part", func(c *ScenarioConfig) { c.FuelPerPart = 0 }, "fuel_per_part"},
		{"fuel per part over capacity", func(c *ScenarioConfig) { c.FuelPerPart = c.FuelCapacity + 1 }, "fuel_per_part"},
		{"negative initial fuel", func(c *ScenarioConfig) { c.InitialFuel = -5 }, "initial_fuel"},
		{"overfull tank", func(c *ScenarioConfig) { c.InitialFuel = c.FuelCapacity + 1 }, "initial_fuel"},
		{"tanker amount over capacity", func(c *ScenarioConfig) { c.TankerAmount = c.FuelCapacity + 1 }, "tanker_amount"},
		{"batch over bin capacity", func(c *ScenarioConfig) { c.ShipBatch = c.BinCapacity + 1 }, "ship_batch"},
		{"zero sample period", func(c *ScenarioConfig) { c.SamplePeriod = 0 }, "sample_period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScenarioConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
