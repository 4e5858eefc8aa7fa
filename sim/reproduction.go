package sim

import (
	"fmt"
	"math"
	"strings"
)

// offspringCount returns how many bred children a species gets beside its
// champion: floor(average/averageSum * popSize) - 1, never negative.
func offspringCount(s *Species, averageSum float64, popSize int) int {
	if averageSum <= 0 {
		return 0
	}
	n := int(math.Floor(s.AverageFitness/averageSum*float64(popSize))) - 1
	if n < 0 {
		return 0
	}
	return n
}

// newFounder creates a creature with a fresh brain, fully connected unless
// the configuration asks for unconnected genomes.
func (p *Population) newFounder() (*Creature, error) {
	brain := NewBrainFor(p.blueprint, p.Config)
	if strings.EqualFold(p.Config.NEAT.Genome.InitialConnection, "full") {
		brain.FullyConnect(p.Ledger, p.rng)
	}
	return NewCreature(p.blueprint, brain, p.Config)
}

// CreateNewPopulation creates popSize founders.
func (p *Population) CreateNewPopulation(popSize int) ([]*Creature, error) {
	creatures := make([]*Creature, 0, popSize)
	for i := 0; i < popSize; i++ {
		c, err := p.newFounder()
		if err != nil {
			return nil, fmt.Errorf("creating founder %d: %w", i, err)
		}
		c.Generation = p.generation
		creatures = append(creatures, c)
	}
	return creatures, nil
}

// reproduce creates the next generation from the surviving species. Every
// species contributes a clone of its champion plus its offspring allotment.
// Missing places are filled with a clone of previousBest, then with children
// of the best species, or with new founders when no species survived.
func (p *Population) reproduce(previousBest *Creature) ([]*Creature, error) {
	popSize := p.Config.NEAT.Neat.PopSize
	averageSum := averageFitnessSum(p.species)
	children := make([]*Creature, 0, popSize)

	for _, s := range p.species {
		if len(children) >= popSize {
			break
		}
		champion, err := s.Champion.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning champion of species %d: %w", s.ID, err)
		}
		children = append(children, champion)

		spawn := offspringCount(s, averageSum, popSize)
		for i := 0; i < spawn && len(children) < popSize; i++ {
			child, err := s.MakeChild(p.Ledger, p.rng)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	}

	if len(children) < popSize && previousBest != nil {
		clone, err := previousBest.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning previous best: %w", err)
		}
		children = append(children, clone)
	}

	if len(p.species) > 0 {
		for len(children) < popSize {
			child, err := p.species[0].MakeChild(p.Ledger, p.rng)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
	} else {
		if len(children) < popSize {
			p.logger.Warn("all species extinct, repopulating", "generation", p.generation, "missing", popSize-len(children))
		}
		for len(children) < popSize {
			c, err := p.newFounder()
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
	}

	for _, c := range children {
		c.Generation = p.generation + 1
		if err := c.Brain.GenerateNetwork(); err != nil {
			return nil, fmt.Errorf("generating child network: %w", err)
		}
	}
	return children, nil
}
