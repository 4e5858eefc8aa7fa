// Package telemetry records the progress of a run as CSV files and
// Prometheus metrics. Both implement sim.Reporter.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/baldhumanity/neat-creatures/sim"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// GenerationRecord is one row of generations.csv.
type GenerationRecord struct {
	RunID         string  `csv:"run_id"`
	Generation    int     `csv:"generation"`
	Batch         int     `csv:"batch"`
	Creatures     int     `csv:"creatures"`
	Species       int     `csv:"species"`
	BestFitness   float64 `csv:"best_fitness"`
	MeanFitness   float64 `csv:"mean_fitness"`
	WorstFitness  float64 `csv:"worst_fitness"`
	StdevFitness  float64 `csv:"stdev_fitness"`
	BestScore     float64 `csv:"best_score"`
	BestEverScore float64 `csv:"best_ever_score"`
	MaxTravelled  float64 `csv:"max_travelled"`
	Innovations   int     `csv:"innovations"`
	DurationMs    float64 `csv:"duration_ms"`
}

// SpeciesRecord is one row of species.csv.
type SpeciesRecord struct {
	RunID      string `csv:"run_id"`
	Generation int    `csv:"generation"`
	SpeciesID  int    `csv:"species_id"`
	Reason     string `csv:"reason"`
}

// NewGenerationRecord converts generation stats into a CSV row.
func NewGenerationRecord(runID string, s sim.GenerationStats) GenerationRecord {
	return GenerationRecord{
		RunID:         runID,
		Generation:    s.Generation,
		Batch:         s.Batch,
		Creatures:     s.Creatures,
		Species:       s.Species,
		BestFitness:   s.BestFitness,
		MeanFitness:   s.MeanFitness,
		WorstFitness:  s.WorstFitness,
		StdevFitness:  s.StdevFitness,
		BestScore:     s.BestScore,
		BestEverScore: s.BestEverScore,
		MaxTravelled:  s.MaxTravelled,
		Innovations:   s.Innovations,
		DurationMs:    float64(s.Duration.Microseconds()) / 1000,
	}
}

// OutputManager writes generations.csv and species.csv into a directory.
type OutputManager struct {
	dir   string
	runID string

	generationFile *os.File
	speciesFile    *os.File

	// Track if headers have been written
	generationHeaderWritten bool
	speciesHeaderWritten    bool

	speciesErr error // First species.csv write error, reported by EndGeneration
}

// NewOutputManager creates the output directory and files. Every row carries
// a fresh run ID. Returns nil if dir is empty (output disabled); a nil
// manager accepts every call and does nothing.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	om.generationFile = f

	f, err = os.Create(filepath.Join(dir, "species.csv"))
	if err != nil {
		om.generationFile.Close()
		return nil, fmt.Errorf("creating species.csv: %w", err)
	}
	om.speciesFile = f

	return om, nil
}

// RunID returns the identifier written into every row.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// EndGeneration implements sim.Reporter. It also returns any species.csv
// write error held since the previous generation.
func (om *OutputManager) EndGeneration(stats sim.GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationRecord{NewGenerationRecord(om.runID, stats)}

	if !om.generationHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation: %w", err)
		}
		om.generationHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation: %w", err)
		}
	}

	if err := om.speciesErr; err != nil {
		om.speciesErr = nil
		return fmt.Errorf("writing species: %w", err)
	}
	return nil
}

// SpeciesRemoved implements sim.Reporter. The first write error is held and
// returned by the next EndGeneration, which runs for the same selection.
func (om *OutputManager) SpeciesRemoved(generation, speciesID int, reason string) {
	if om == nil {
		return
	}

	records := []SpeciesRecord{{
		RunID:      om.runID,
		Generation: generation,
		SpeciesID:  speciesID,
		Reason:     reason,
	}}

	var err error
	if !om.speciesHeaderWritten {
		if err = gocsv.Marshal(records, om.speciesFile); err == nil {
			om.speciesHeaderWritten = true
		}
	} else {
		err = gocsv.MarshalWithoutHeaders(records, om.speciesFile)
	}
	if err != nil && om.speciesErr == nil {
		om.speciesErr = fmt.Errorf("species %d of generation %d: %w", speciesID, generation, err)
	}
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.generationFile != nil {
		if err := om.generationFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.speciesFile != nil {
		if err := om.speciesFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
