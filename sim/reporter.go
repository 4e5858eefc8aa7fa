package sim

import (
	"log/slog"
	"time"
)

// GenerationStats summarises one finished generation.
type GenerationStats struct {
	Generation    int // Generation that just ended
	Batch         int
	Creatures     int
	Species       int
	BestFitness   float64 // Before fitness sharing
	MeanFitness   float64
	WorstFitness  float64
	StdevFitness  float64
	BestScore     float64
	BestEverScore float64
	MaxTravelled  float64
	Innovations   int
	Duration      time.Duration // Time spent in natural selection
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("batch", s.Batch),
		slog.Int("creatures", s.Creatures),
		slog.Int("species", s.Species),
		slog.Float64("best_fitness", s.BestFitness),
		slog.Float64("mean_fitness", s.MeanFitness),
		slog.Float64("worst_fitness", s.WorstFitness),
		slog.Float64("best_score", s.BestScore),
		slog.Float64("best_ever_score", s.BestEverScore),
		slog.Int("innovations", s.Innovations),
		slog.Duration("duration", s.Duration),
	)
}

// Reporter receives progress events from a Population. Reporters run on the
// simulation driver while the population is reorganising. They may call
// Snapshot and Reorganizing, which do not wait; any other call back into the
// population deadlocks.
type Reporter interface {
	EndGeneration(stats GenerationStats) error
	SpeciesRemoved(generation, speciesID int, reason string)
}

// ReporterSet fans events out to several reporters.
type ReporterSet []Reporter

// EndGeneration calls every reporter and returns the first error.
func (rs ReporterSet) EndGeneration(stats GenerationStats) error {
	var firstErr error
	for _, r := range rs {
		if err := r.EndGeneration(stats); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SpeciesRemoved calls every reporter.
func (rs ReporterSet) SpeciesRemoved(generation, speciesID int, reason string) {
	for _, r := range rs {
		r.SpeciesRemoved(generation, speciesID, reason)
	}
}
