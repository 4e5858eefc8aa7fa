package telemetry

import (
	"net/http"

	"github.com/baldhumanity/neat-creatures/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports generation statistics as Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	generation     prometheus.Gauge
	species        prometheus.Gauge
	bestFitness    prometheus.Gauge
	meanFitness    prometheus.Gauge
	worstFitness   prometheus.Gauge
	bestEverScore  prometheus.Gauge
	innovations    prometheus.Gauge
	selectionTime  prometheus.Histogram
	speciesRemoved *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "generation",
			Help:      "Last finished generation.",
		}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "species",
			Help:      "Species surviving the last selection.",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "best_fitness",
			Help:      "Best creature fitness of the last generation.",
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "mean_fitness",
			Help:      "Mean creature fitness of the last generation.",
		}),
		worstFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "worst_fitness",
			Help:      "Worst creature fitness of the last generation.",
		}),
		bestEverScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "best_ever_score",
			Help:      "Highest score reached in the run.",
		}),
		innovations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "creatures",
			Name:      "innovations",
			Help:      "Innovations recorded in the ledger.",
		}),
		selectionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "creatures",
			Name:      "selection_seconds",
			Help:      "Time spent in natural selection.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		speciesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creatures",
			Name:      "species_removed_total",
			Help:      "Species removed, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.generation,
		m.species,
		m.bestFitness,
		m.meanFitness,
		m.worstFitness,
		m.bestEverScore,
		m.innovations,
		m.selectionTime,
		m.speciesRemoved,
	)
	return m
}

// EndGeneration implements sim.Reporter.
func (m *Metrics) EndGeneration(stats sim.GenerationStats) error {
	m.generation.Set(float64(stats.Generation))
	m.species.Set(float64(stats.Species))
	m.bestFitness.Set(stats.BestFitness)
	m.meanFitness.Set(stats.MeanFitness)
	m.worstFitness.Set(stats.WorstFitness)
	m.bestEverScore.Set(stats.BestEverScore)
	m.innovations.Set(float64(stats.Innovations))
	m.selectionTime.Observe(stats.Duration.Seconds())
	return nil
}

// SpeciesRemoved implements sim.Reporter.
func (m *Metrics) SpeciesRemoved(_, _ int, reason string) {
	m.speciesRemoved.WithLabelValues(reason).Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
