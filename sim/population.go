package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baldhumanity/neat-creatures/neat"
	"github.com/baldhumanity/neat-creatures/physics"
	"github.com/sourcegraph/conc/pool"
)

// Population holds the state of an evolutionary run.
type Population struct {
	Config *Config
	Ledger *neat.InnovationLedger // Innovation history shared by every brain of the run

	blueprint *physics.Blueprint
	rng       neat.Rand
	logger    *slog.Logger
	reporters ReporterSet

	// mu guards everything below. reorganizing is set for the whole of
	// natural selection so readers can refuse instead of queueing.
	mu           sync.RWMutex
	reorganizing atomic.Bool

	creatures     []*Creature
	species       []*Species
	nextSpeciesID int
	generation    int
	batch         int
	tick          int64
	aiElapsed     int64

	bestEverScore float64
	maxTravelled  float64
	bestCreature  *Creature // Highest score ever seen
	currentBest   *Creature // Highest score among the living
	champion      *Creature // Leader of the best species at the last selection
}

// Option configures a Population.
type Option func(*Population)

// WithRand sets the random source. By default a source seeded from the
// configured seed, or the clock when it is 0, is used.
func WithRand(rng neat.Rand) Option {
	return func(p *Population) { p.rng = rng }
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) { p.logger = logger }
}

// WithReporter adds a progress reporter.
func WithReporter(r Reporter) Option {
	return func(p *Population) { p.reporters = append(p.reporters, r) }
}

// NewPopulation validates the configuration and blueprint and creates the
// first generation. An invalid blueprint is the only way a run can fail to
// start besides configuration errors.
func NewPopulation(config *Config, bp *physics.Blueprint, opts ...Option) (*Population, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, fmt.Errorf("invalid blueprint: nil")
	}
	if err := bp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid blueprint: %w", err)
	}
	normalized := bp.Normalized(config.Physics.GroundY)
	if _, err := normalized.Build(config.Physics); err != nil {
		return nil, fmt.Errorf("invalid blueprint: %w", err)
	}

	p := &Population{
		Config:        config,
		Ledger:        neat.NewInnovationLedger(),
		blueprint:     normalized,
		logger:        slog.Default(),
		nextSpeciesID: 1,
		generation:    1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		seed := config.NEAT.Neat.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		p.rng = neat.NewRand(seed)
	}

	creatures, err := p.CreateNewPopulation(config.NEAT.Neat.PopSize)
	if err != nil {
		return nil, err
	}
	p.creatures = creatures

	p.logger.Info("population created",
		"size", len(creatures),
		"nodes", len(normalized.Nodes),
		"joints", len(normalized.Joints),
		"innovations", p.Ledger.Len())
	return p, nil
}

// SimulationTick advances every living creature by elapsedMillis. Brains are
// evaluated every Runtime.AIIntervalMillis of accumulated time, at most once
// per call; time beyond the last whole interval carries over, so a long
// pause does not queue up evaluations. When no creature is left alive the
// next generation is bred before returning.
func (p *Population) SimulationTick(elapsedMillis int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	interval := p.Config.Runtime.AIIntervalMillis
	p.aiElapsed += elapsedMillis
	doAI := p.aiElapsed >= interval
	if doAI {
		p.aiElapsed %= interval
	}
	p.tick++

	live := make([]*Creature, 0, len(p.creatures))
	for _, c := range p.creatures {
		if !c.Dead() {
			live = append(live, c)
		}
	}

	if err := p.stepCreatures(live, float64(elapsedMillis)/1000, doAI); err != nil {
		return err
	}

	var currentBest *Creature
	for _, c := range live {
		if c.Score > p.bestEverScore {
			p.bestEverScore = c.Score
			p.maxTravelled = c.Displacement()
			p.bestCreature = c
		}
		if !c.Dead() && (currentBest == nil || c.Score > currentBest.Score) {
			currentBest = c
		}
	}
	if currentBest != nil {
		p.currentBest = currentBest
		return nil
	}

	p.batch++
	return p.naturalSelection()
}

// stepCreatures steps each creature, in parallel when more than one worker
// is configured. Creatures share no state, so their order does not matter.
func (p *Population) stepCreatures(live []*Creature, dt float64, doAI bool) error {
	step := func(c *Creature) error {
		c.Step(dt)
		if doAI {
			return c.AITick()
		}
		return nil
	}

	workers := p.Config.Runtime.Workers
	if workers <= 1 || len(live) < 2 {
		for _, c := range live {
			if err := step(c); err != nil {
				return err
			}
		}
		return nil
	}

	wp := pool.New().WithErrors().WithMaxGoroutines(workers)
	for _, c := range live {
		c := c
		wp.Go(func() error { return step(c) })
	}
	return wp.Wait()
}

// NaturalSelection replaces the current generation with its offspring.
// SimulationTick calls it automatically once every creature has died.
func (p *Population) NaturalSelection() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.naturalSelection()
}

func (p *Population) naturalSelection() error {
	p.reorganizing.Store(true)
	defer p.reorganizing.Store(false)

	start := time.Now()
	popSize := p.Config.NEAT.Neat.PopSize

	for _, c := range p.creatures {
		c.Kill()
	}
	previousBest := p.highestScoring()

	for _, c := range p.creatures {
		if err := c.Reset(); err != nil {
			return fmt.Errorf("resetting creature: %w", err)
		}
	}
	if err := p.speciate(); err != nil {
		return fmt.Errorf("speciation failed in generation %d: %w", p.generation, err)
	}

	fitnesses := make([]float64, len(p.creatures))
	for i, c := range p.creatures {
		c.CalculateFitness()
		fitnesses[i] = c.Fitness
	}

	if err := p.sortSpecies(); err != nil {
		return err
	}
	for _, s := range p.species {
		s.Cull()
		s.FitnessSharing()
		s.SetAverage()
	}
	p.setBestPlayer()

	var info []StagnationInfo
	p.species, info = killStaleSpecies(p.species, p.Config.NEAT.Stagnation.MaxStagnation)
	p.reportRemovals(info)
	p.species, info = killBadSpecies(p.species, popSize)
	p.reportRemovals(info)

	children, err := p.reproduce(previousBest)
	if err != nil {
		return fmt.Errorf("reproduction failed in generation %d: %w", p.generation, err)
	}

	stats := GenerationStats{
		Generation:    p.generation,
		Batch:         p.batch,
		Creatures:     len(children),
		Species:       len(p.species),
		BestFitness:   neat.MaxFloat(fitnesses),
		MeanFitness:   neat.Mean(fitnesses),
		WorstFitness:  neat.MinFloat(fitnesses),
		StdevFitness:  neat.Stdev(fitnesses),
		BestEverScore: p.bestEverScore,
		MaxTravelled:  p.maxTravelled,
		Innovations:   p.Ledger.Len(),
	}
	if previousBest != nil {
		stats.BestScore = previousBest.Score
	}

	p.creatures = children
	p.generation++
	p.currentBest = nil
	p.aiElapsed = 0

	stats.Duration = time.Since(start)
	p.logger.Info("generation finished", "stats", stats)
	if err := p.reporters.EndGeneration(stats); err != nil {
		p.logger.Warn("reporter failed", "generation", stats.Generation, "error", err)
	}
	return nil
}

// speciate assigns every creature to the first species whose representative
// it is compatible with, founding a new species when none matches.
func (p *Population) speciate() error {
	for _, s := range p.species {
		s.Members = nil
	}
	for _, c := range p.creatures {
		found := false
		for _, s := range p.species {
			if s.SameSpecies(c.Brain) {
				s.Add(c)
				found = true
				break
			}
		}
		if found {
			continue
		}
		s, err := NewSpecies(p.nextSpeciesID, c, p.Config.NEAT)
		if err != nil {
			return err
		}
		p.nextSpeciesID++
		p.species = append(p.species, s)
		p.logger.Debug("created species", "species", s.ID, "generation", p.generation)
	}
	return nil
}

// sortSpecies ranks the members of every species and then the species by
// best fitness, best first.
func (p *Population) sortSpecies() error {
	for _, s := range p.species {
		if err := s.Sort(); err != nil {
			return err
		}
	}
	sort.SliceStable(p.species, func(i, j int) bool {
		return p.species[i].BestFitness > p.species[j].BestFitness
	})
	return nil
}

// setBestPlayer records the leader of the best species.
func (p *Population) setBestPlayer() {
	for _, s := range p.species {
		if len(s.Members) > 0 {
			p.champion = s.Members[0]
			return
		}
	}
}

// highestScoring returns the creature with the highest score, or nil.
func (p *Population) highestScoring() *Creature {
	var best *Creature
	for _, c := range p.creatures {
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	return best
}

func (p *Population) reportRemovals(info []StagnationInfo) {
	for _, si := range info {
		if !si.Removed {
			continue
		}
		p.logger.Info("species removed", "species", si.Species.ID, "reason", si.Reason, "generation", p.generation)
		p.reporters.SpeciesRemoved(p.generation, si.Species.ID, si.Reason)
	}
}

// Reorganizing reports whether natural selection is in progress.
func (p *Population) Reorganizing() bool {
	return p.reorganizing.Load()
}

// Generation returns the current generation number, starting at 1.
func (p *Population) Generation() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

// Batch returns the number of generations that have died out.
func (p *Population) Batch() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.batch
}

// Tick returns the number of simulation ticks run.
func (p *Population) Tick() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tick
}

// BestEverScore returns the highest score any creature has reached.
func (p *Population) BestEverScore() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bestEverScore
}

// Innovations returns the number of recorded innovations.
func (p *Population) Innovations() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Ledger.Len()
}

// Creatures returns the current generation. The slice is a copy; the
// creatures are not.
func (p *Population) Creatures() []*Creature {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Creature(nil), p.creatures...)
}

// Species returns the current species list. The slice is a copy.
func (p *Population) Species() []*Species {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Species(nil), p.species...)
}

// Alive returns the number of living creatures.
func (p *Population) Alive() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, c := range p.creatures {
		if !c.Dead() {
			n++
		}
	}
	return n
}

// BestCreature returns the creature that reached the best-ever score.
func (p *Population) BestCreature() *Creature {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bestCreature
}

// Champion returns the leader of the best species at the last selection.
func (p *Population) Champion() *Creature {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.champion
}
