package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScenario_SameSeed_IsDeterministic(t *testing.T) {
	// GIVEN the default scenario run twice with the same seed
	cfg := DefaultScenarioConfig()
	first, err := RunScenario(cfg, 42, 1000, 0, false)
	require.NoError(t, err)
	second, err := RunScenario(cfg, 42, 1000, 0, false)
	require.NoError(t, err)

	// THEN every counter matches
	assert.Equal(t, first.PartsMade, second.PartsMade)
	assert.Equal(t, first.PartsShipped, second.PartsShipped)
	assert.Equal(t, first.Shipments, second.Shipments)
	assert.Equal(t, first.Breakdowns, second.Breakdowns)
	assert.Equal(t, first.JobsDone, second.JobsDone)
	assert.Equal(t, first.JobPreemptions, second.JobPreemptions)
	assert.Equal(t, first.TankerRuns, second.TankerRuns)

	// THEN the delivery traces match record for record (run identity aside)
	assert.Equal(t, first.Trace.Deliveries, second.Trace.Deliveries)
	assert.Equal(t, first.Trace.Span, second.Trace.Span)
	assert.Equal(t, first.Trace.LabelCounts, second.Trace.LabelCounts)
	assert.Equal(t, first.Trace.MeanGap, second.Trace.MeanGap)

	// THEN the sampled gauges match as well
	require.Len(t, second.Gauges, len(first.Gauges))
	for i := range first.Gauges {
		assert.Equal(t, first.Gauges[i], second.Gauges[i], "gauge %s", first.Gauges[i].Name)
	}
}

func TestRunScenario_DifferentSeeds_Diverge(t *testing.T) {
	cfg := DefaultScenarioConfig()
	a, err := RunScenario(cfg, 1, 2000, 0, false)
	require.NoError(t, err)
	b, err := RunScenario(cfg, 2, 2000, 0, false)
	require.NoError(t, err)

	// Seeded streams drive every duration, so two seeds agreeing on the
	// whole delivery trace would mean the RNG is not wired through.
	assert.NotEqual(t, a.Trace.Deliveries, b.Trace.Deliveries,
		"different seeds produced identical traces")
}

func TestRunScenario_ExercisesEveryPrimitive(t *testing.T) {
	// GIVEN a long enough horizon for breakdowns, refills and shipments
	cfg := DefaultScenarioConfig()
	res, err := RunScenario(cfg, 42, 5000, 0, false)
	require.NoError(t, err)

	assert.Positive(t, res.PartsMade, "no parts machined")
	assert.Positive(t, res.PartsShipped, "no parts shipped")
	assert.Positive(t, res.Breakdowns, "no breakdowns occurred")
	assert.Positive(t, res.TankerRuns, "tank never refilled")
	assert.LessOrEqual(t, res.PartsShipped, res.PartsMade)

	require.Len(t, res.Gauges, 3)
	for _, g := range res.Gauges {
		assert.Positive(t, g.Count, "gauge %s never sampled", g.Name)
	}
	assert.Positive(t, res.Trace.Deliveries)
}

func TestRunScenario_Realtime_SmokeRun(t *testing.T) {
	// A tiny paced run; factor is per virtual unit, so keep the horizon short.
	cfg := DefaultScenarioConfig()
	res, err := RunScenario(cfg, 42, 20, 0.001, false)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Horizon)
}
