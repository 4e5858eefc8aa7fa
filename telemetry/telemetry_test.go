package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/baldhumanity/neat-creatures/sim"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStats(generation int) sim.GenerationStats {
	return sim.GenerationStats{
		Generation:    generation,
		Batch:         generation,
		Creatures:     10,
		Species:       3,
		BestFitness:   0.25,
		MeanFitness:   0.1,
		WorstFitness:  0.02,
		BestScore:     0.5,
		BestEverScore: 0.5,
		Innovations:   102,
		Duration:      1500 * time.Microsecond,
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	require.NotNil(t, om)

	_, err = uuid.Parse(om.RunID())
	require.NoError(t, err)
	assert.Equal(t, dir, om.Dir())

	require.NoError(t, om.EndGeneration(testStats(1)))
	require.NoError(t, om.EndGeneration(testStats(2)))
	om.SpeciesRemoved(2, 4, sim.ReasonStagnant)
	om.SpeciesRemoved(2, 5, sim.ReasonBad)
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "run_id"), "header written once")

	var generations []GenerationRecord
	require.NoError(t, gocsv.UnmarshalBytes(data, &generations))
	require.Len(t, generations, 2)
	assert.Equal(t, []int{1, 2}, []int{generations[0].Generation, generations[1].Generation})
	assert.Equal(t, om.RunID(), generations[1].RunID)
	assert.Equal(t, 102, generations[0].Innovations)
	assert.InDelta(t, 1.5, generations[0].DurationMs, 1e-9)
	assert.Equal(t, 0.02, generations[1].WorstFitness)

	data, err = os.ReadFile(filepath.Join(dir, "species.csv"))
	require.NoError(t, err)
	var species []SpeciesRecord
	require.NoError(t, gocsv.UnmarshalBytes(data, &species))
	require.Len(t, species, 2)
	assert.Equal(t, 4, species[0].SpeciesID)
	assert.Equal(t, sim.ReasonBad, species[1].Reason)
}

func TestOutputManagerReportsSpeciesWriteErrors(t *testing.T) {
	om, err := NewOutputManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, om.EndGeneration(testStats(1)))

	require.NoError(t, om.speciesFile.Close())
	om.SpeciesRemoved(1, 4, sim.ReasonStagnant)
	om.SpeciesRemoved(1, 5, sim.ReasonBad)

	err = om.EndGeneration(testStats(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Contains(t, err.Error(), "species 4 of generation 1")

	// The error is reported once.
	assert.NoError(t, om.EndGeneration(testStats(3)))

	data, err := os.ReadFile(filepath.Join(om.Dir(), "generations.csv"))
	require.NoError(t, err)
	var generations []GenerationRecord
	require.NoError(t, gocsv.UnmarshalBytes(data, &generations))
	assert.Len(t, generations, 3, "generation rows are written regardless")
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	require.Nil(t, om)

	assert.NoError(t, om.EndGeneration(testStats(1)))
	om.SpeciesRemoved(1, 1, sim.ReasonEmpty)
	assert.Empty(t, om.RunID())
	assert.Empty(t, om.Dir())
	assert.NoError(t, om.Close())
}

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	require.NoError(t, m.EndGeneration(testStats(7)))
	m.SpeciesRemoved(7, 1, sim.ReasonStagnant)
	m.SpeciesRemoved(7, 2, sim.ReasonStagnant)

	families := gather(t, m)

	assert.Equal(t, 7.0, families["creatures_generation"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 3.0, families["creatures_species"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 0.02, families["creatures_worst_fitness"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 102.0, families["creatures_innovations"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), families["creatures_selection_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())

	removed := families["creatures_species_removed_total"].GetMetric()
	require.Len(t, removed, 1)
	assert.Equal(t, 2.0, removed[0].GetCounter().GetValue())
	assert.Equal(t, sim.ReasonStagnant, removed[0].GetLabel()[0].GetValue())
}

func TestReportersPlugIntoPopulation(t *testing.T) {
	var _ sim.Reporter = (*OutputManager)(nil)
	var _ sim.Reporter = (*Metrics)(nil)
}
